package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"signals-service/pkg/httpclient"
	"time"

	"github.com/spf13/cobra"
)

var (
	sendURL     string
	sendFile    string
	sendTimeout time.Duration
)

// sendCmd posts a webhook payload to a running service, the same way
// TradingView would.
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a signal payload to the ingest endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := readPayload(sendFile, cmd.InOrStdin())
		if err != nil {
			return err
		}
		return sendPayload(cmd.Context(), sendURL, body, sendTimeout, cmd.OutOrStdout())
	},
}

func init() {
	sendCmd.Flags().StringVar(&sendURL, "url", "http://localhost:8080", "base URL of the service")
	sendCmd.Flags().StringVarP(&sendFile, "file", "f", "-", "JSON payload file, - for stdin")
	sendCmd.Flags().DurationVar(&sendTimeout, "timeout", 10*time.Second, "request timeout")
}

func readPayload(path string, stdin io.Reader) ([]byte, error) {
	var (
		body []byte
		err  error
	)
	if path == "-" {
		body, err = io.ReadAll(stdin)
	} else {
		body, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	if !json.Valid(body) {
		return nil, errors.New("payload is not valid JSON")
	}
	return body, nil
}

func sendPayload(ctx context.Context, baseURL string, body []byte, timeout time.Duration, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	client := httpclient.New(baseURL, timeout, "")
	resp, err := client.Post(ctx, "/signals/ingest", body, map[string]string{
		"Content-Type": "application/json",
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to send payload: %w", err)
	}

	fmt.Fprintf(out, "HTTP %d\n%s\n", resp.StatusCode, resp.Body)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("ingest returned status %d", resp.StatusCode)
	}
	return nil
}
