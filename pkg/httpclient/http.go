package httpclient

import (
	"context"
	"net/http"
)

// BaseResponse is returned for every status code; only transport
// failures produce an error.
type BaseResponse struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// HTTPClient posts JSON bodies to a fixed base URL.
type HTTPClient interface {
	Post(ctx context.Context, endpoint string, body interface{}, headers map[string]string, result interface{}) (*BaseResponse, error)
}
