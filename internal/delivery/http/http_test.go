package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"signals-service/config"
	"signals-service/internal/repository"
	"signals-service/internal/service"
	"signals-service/pkg/cache"
	"signals-service/pkg/logger"
	"signals-service/pkg/metrics"
	"signals-service/pkg/telegram"
	"strings"
	"sync"
	"testing"
	"time"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"
)

const validBody = `{"asset":"BTC","signal_type":"LONG","entry_price":100,"stop_loss":95,"take_profit":110,"rr_ratio":2.0,"confidence_score":%d}`

// recordingSender stands in for the bot when a test needs channel posts.
type recordingSender struct {
	mu   sync.Mutex
	sent []string
}

func (r *recordingSender) Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, what.(string))
	return &telebot.Message{ID: len(r.sent)}, nil
}

func (r *recordingSender) Edit(msg telebot.Editable, what interface{}, opts ...interface{}) (*telebot.Message, error) {
	return &telebot.Message{}, nil
}

func (r *recordingSender) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return ""
	}
	return r.sent[len(r.sent)-1]
}

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	return newTestServerWithSender(t, nil)
}

func newTestServerWithSender(t *testing.T, sender telegram.Sender) *echo.Echo {
	t.Helper()
	cfg := config.Default()
	cfg.Journal.DataDir = t.TempDir()
	cfg.API.IngestRatePerSec = 0
	if sender != nil {
		cfg.Telegram.BotToken = "123:abc"
	}
	log := logger.NewNop()

	repo, err := repository.NewRepository(cfg, nil, log)
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	m := metrics.New()
	m.Register(registry)

	notifier := telegram.NewTelegramRateLimiter(&cfg.Telegram, log, sender)
	svc := service.NewService(cfg, log, repo, cache.NewCache(time.Minute, time.Minute), notifier, m)

	e := echo.New()
	NewHttpAPIHandler(cfg, log, e, goValidator.New(), svc, registry).SetupRoutes()
	return e
}

func do(e *echo.Echo, method, target, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	out := map[string]interface{}{}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func ingest(t *testing.T, e *echo.Echo, confidence int) string {
	t.Helper()
	rec, out := do(e, http.MethodPost, "/signals/ingest", strings.Replace(validBody, "%d", itoa(confidence), 1))
	require.Contains(t, []int{http.StatusOK, http.StatusAccepted}, rec.Code, rec.Body.String())
	return out["signal_id"].(string)
}

func itoa(i int) string {
	b, _ := json.Marshal(i)
	return string(b)
}

func TestRootAndHealth(t *testing.T) {
	e := newTestServer(t)

	rec, out := do(e, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Phase 1C Signals Backend", out["name"])
	assert.Equal(t, "running", out["status"])
	assert.Equal(t, "POST /signals/ingest", out["endpoints"].(map[string]interface{})["ingest"])

	rec, out = do(e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", out["status"])
	assert.Equal(t, "1.0.0", out["version"])
	assert.Equal(t, false, out["telegram_configured"])
	assert.NotContains(t, out["timestamp"], "Z")
}

func TestIngest_Statuses(t *testing.T) {
	e := newTestServer(t)

	rec, out := do(e, http.MethodPost, "/signals/ingest", strings.Replace(validBody, "%d", "9", 1))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "accepted", out["status"])
	assert.Equal(t, "APPROVED", out["approval_status"])
	id := out["signal_id"].(string)
	assert.Regexp(t, `^SIG-[0-9A-F]{8}$`, id)
	assert.Equal(t, "Signal "+id+" approved", out["message"])

	rec, out = do(e, http.MethodPost, "/signals/ingest", strings.Replace(validBody, "%d", "2", 1))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "REJECTED", out["approval_status"])
}

func TestIngest_Rejections(t *testing.T) {
	e := newTestServer(t)

	for _, body := range []string{"not json", "[1,2]", "null", ""} {
		rec, out := do(e, http.MethodPost, "/signals/ingest", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "Invalid JSON payload", out["detail"], body)
	}

	rec, out := do(e, http.MethodPost, "/signals/ingest", `{"asset":"DOGE"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "rejected", out["status"])
	assert.Equal(t, "validation_failed", out["reason"])
	assert.Len(t, out["errors"], 6)

	rec, out = do(e, http.MethodPost, "/signals/ingest", `{"symbol":"BTC","entry":"later"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, out["detail"], "entry")
}

func TestIngest_PineScript(t *testing.T) {
	e := newTestServer(t)

	rec, out := do(e, http.MethodPost, "/signals/ingest", `{"symbol":"ETHUSDT","side":"long","entry":3000,"stop":2900,"tp1":3300,"score":7,"timeframe":"60"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "PENDING", out["approval_status"])

	rec, sig := do(e, http.MethodGet, "/signals/"+out["signal_id"].(string), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ETHUSDT", sig["asset"])
	assert.Equal(t, 3.0, sig["rr_ratio"])
	assert.Equal(t, "60", sig["timeframe"])
	assert.Equal(t, "Universal Signal Engine", sig["strategy"])
}

func TestReviewFlow(t *testing.T) {
	e := newTestServer(t)
	first := ingest(t, e, 7)
	second := ingest(t, e, 7)

	rec, out := do(e, http.MethodPost, "/signals/"+first+"/approve", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]interface{}{"status": "approved", "signal_id": first}, out)

	rec, out = do(e, http.MethodPost, "/signals/"+first+"/approve", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Signal "+first+" is not pending", out["detail"])

	rec, out = do(e, http.MethodPost, "/signals/"+second+"/reject?reason=late+entry", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]interface{}{"status": "rejected", "signal_id": second, "reason": "late entry"}, out)

	rec, out = do(e, http.MethodPost, "/signals/SIG-NOPE/reject", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Signal SIG-NOPE not found", out["detail"])

	rec, out = do(e, http.MethodGet, "/signals/SIG-NOPE", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Signal SIG-NOPE not found", out["detail"])

	rec, out = do(e, http.MethodGet, "/signals/"+second, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "REJECTED", out["status"])
	assert.Equal(t, "late entry", out["reason"])
}

func TestRejectWithoutReason(t *testing.T) {
	e := newTestServer(t)
	id := ingest(t, e, 6)

	rec, out := do(e, http.MethodPost, "/signals/"+id+"/reject", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	reason, present := out["reason"]
	assert.True(t, present)
	assert.Nil(t, reason)
}

func TestListEndpoints(t *testing.T) {
	e := newTestServer(t)
	approved := ingest(t, e, 9)
	pending := ingest(t, e, 7)
	ingest(t, e, 7)
	ingest(t, e, 1)

	rec, out := do(e, http.MethodGet, "/signals/pending", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2.0, out["count"])
	assert.Equal(t, pending, out["signals"].([]interface{})[0].(map[string]interface{})["id"])

	_, out = do(e, http.MethodGet, "/signals/approved", "")
	assert.Equal(t, 1.0, out["count"])
	assert.Equal(t, approved, out["signals"].([]interface{})[0].(map[string]interface{})["id"])

	_, out = do(e, http.MethodGet, "/signals?limit=1", "")
	assert.Equal(t, 4.0, out["count"])
	assert.Len(t, out["signals"], 1)

	_, out = do(e, http.MethodGet, "/signals?status=PENDING&limit=0", "")
	assert.Equal(t, 2.0, out["count"])
	assert.Len(t, out["signals"], 0)

	_, out = do(e, http.MethodGet, "/signals?status=ARCHIVED", "")
	assert.Equal(t, 0.0, out["count"])

	rec, out = do(e, http.MethodGet, "/signals?limit=2000", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, out["signals"], 4)

	rec, _ = do(e, http.MethodGet, "/signals?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(e, http.MethodGet, "/signals?limit=many", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, out = do(e, http.MethodGet, "/stats", "")
	assert.Equal(t, 4.0, out["total_signals"])
	assert.Equal(t, 1.0, out["approved"])
	assert.Equal(t, 2.0, out["pending"])
	assert.Equal(t, 1.0, out["rejected"])
	assert.Equal(t, false, out["telegram_configured"])
}

func TestReviewerHeaderReachesChannel(t *testing.T) {
	sender := &recordingSender{}
	e := newTestServerWithSender(t, sender)
	approveID := ingest(t, e, 7)
	rejectID := ingest(t, e, 7)

	req := httptest.NewRequest(http.MethodPost, "/signals/"+approveID+"/approve", nil)
	req.Header.Set("X-Reviewer", "@desk")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "✅ <b>Signal "+approveID+" approved</b> by @desk", sender.last())

	req = httptest.NewRequest(http.MethodPost, "/signals/"+rejectID+"/reject?reason=late", nil)
	req.Header.Set("X-Reviewer", "@desk")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "❌ <b>Signal "+rejectID+" rejected</b> by @desk\n📝 late", sender.last())
}

func TestWatchlist(t *testing.T) {
	e := newTestServer(t)

	rec, out := do(e, http.MethodGet, "/watchlist", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 32.0, out["count"])
	assert.Equal(t, "ADA", out["approved_assets"].([]interface{})[0])
}

func TestMetricsEndpoint(t *testing.T) {
	e := newTestServer(t)
	ingest(t, e, 9)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `signals_ingested_total{status="APPROVED"} 1`)
}

func TestRunJob(t *testing.T) {
	e := newTestServer(t)

	rec, out := do(e, http.MethodPost, "/api/v1/jobs/signal_retention/run", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Job executed", out["message"])
	assert.Equal(t, 200.0, out["data"].(map[string]interface{})["exit_code"])

	rec, out = do(e, http.MethodPost, "/api/v1/jobs/stock_analyzer/run", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 404.0, out["code"])
}
