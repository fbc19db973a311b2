package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	httpNet "net/http"
	"net/http/httptest"
	"signals-service/config"
	"signals-service/internal/delivery/http"
	"signals-service/internal/repository"
	"signals-service/internal/service"
	"signals-service/pkg/logger"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDependency(t *testing.T) *AppDependency {
	t.Helper()
	cfg := config.Default()
	cfg.API.Host = "127.0.0.1"
	cfg.API.Port = 0
	cfg.API.ShutdownTimeout = time.Second
	cfg.Journal.DataDir = t.TempDir()

	appDep, err := newAppDependency(cfg, logger.NewNop())
	require.NoError(t, err)
	return appDep
}

func TestHTTPServer_ServesHealth(t *testing.T) {
	appDep := newTestDependency(t)
	repo, err := repository.NewRepository(appDep.cfg, appDep.gormDB(), appDep.log)
	require.NoError(t, err)
	services := service.NewService(appDep.cfg, appDep.log, repo, appDep.cache, appDep.telegram, appDep.metrics)
	handler := http.NewHttpAPIHandler(appDep.cfg, appDep.log, appDep.echo, appDep.validator, services, appDep.registry)

	server := NewHTTPServer(context.Background(), appDep, handler)
	require.NoError(t, server.Listen())

	served := make(chan error, 1)
	go func() { served <- server.Serve() }()

	resp, err := httpNet.Get("http://" + server.Addr() + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	assert.Equal(t, httpNet.StatusOK, resp.StatusCode)
	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &health))
	assert.Equal(t, "ok", health["status"])

	require.NoError(t, server.Stop())
	assert.True(t, errors.Is(<-served, httpNet.ErrServerClosed))
}

func TestRun_FailsWhenPortIsTaken(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	appDep := newTestDependency(t)
	appDep.cfg.API.Port = ln.Addr().(*net.TCPAddr).Port

	err = run(context.Background(), appDep)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to bind")
}

func TestRun_StopsOnCancel(t *testing.T) {
	appDep := newTestDependency(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- run(ctx, appDep) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}

func TestSendPayload(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(httpNet.HandlerFunc(func(w httpNet.ResponseWriter, r *httpNet.Request) {
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(httpNet.StatusAccepted)
		_, _ = w.Write([]byte(`{"status":"rejected"}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	payload := []byte(`{"asset":"BTC","signal_type":"LONG"}`)
	require.NoError(t, sendPayload(context.Background(), srv.URL, payload, time.Second, &out))

	assert.Equal(t, "/signals/ingest", gotPath)
	assert.JSONEq(t, string(payload), gotBody)
	assert.Equal(t, "HTTP 202\n{\"status\":\"rejected\"}\n", out.String())
}

func TestSendPayload_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(httpNet.HandlerFunc(func(w httpNet.ResponseWriter, r *httpNet.Request) {
		w.WriteHeader(httpNet.StatusBadRequest)
	}))
	defer srv.Close()

	err := sendPayload(context.Background(), srv.URL, []byte(`{}`), time.Second, io.Discard)
	assert.EqualError(t, err, "ingest returned status 400")
}

func TestReadPayload(t *testing.T) {
	body, err := readPayload("-", strings.NewReader(`{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(body))

	_, err = readPayload("-", strings.NewReader(`not json`))
	assert.EqualError(t, err, "payload is not valid JSON")

	_, err = readPayload("/does/not/exist.json", nil)
	assert.Error(t, err)
}
