package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/hKV/rpc/common"
	"github.com/ValentinKolb/hKV/rpc/transport"
)

func NewHttpClientTransport() transport.IRPCClientTransport {
	return &httpClientTransport{}
}

type httpClientTransport struct {
	serverURLs []*url.URL
	client     *http.Client
	counter    atomic.Uint32
	retryCount int
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *httpClientTransport) Connect(config common.ClientConfig) error {
	if len(config.Transport.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}

	// Endpoints without a scheme are treated as plain http
	parsedURLs := make([]*url.URL, len(config.Transport.Endpoints))
	for i, endpoint := range config.Transport.Endpoints {
		if !strings.Contains(endpoint, "://") {
			endpoint = "http://" + endpoint
		}
		parsedURL, err := url.Parse(strings.TrimSuffix(endpoint, "/"))
		if err != nil {
			return fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
		}
		parsedURLs[i] = parsedURL
	}

	idle := max(config.Transport.ConnectionsPerEndpoint, 10)
	t.client = &http.Client{
		Timeout: time.Duration(config.TimeoutSecond) * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        idle * len(parsedURLs),
			MaxIdleConnsPerHost: idle,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	t.serverURLs = parsedURLs
	t.retryCount = max(config.Transport.RetryCount, 1)
	return nil
}

func (t *httpClientTransport) Send(ctx context.Context, shardId uint64, req []byte) ([]byte, error) {
	if t.client == nil {
		return nil, fmt.Errorf("http transport not initialized")
	}

	var lastErr error
	for i := 0; i < t.retryCount; i++ {
		resp, err := t.post(ctx, t.nextURL(shardId), req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (t *httpClientTransport) Close() error {
	if t.client != nil {
		t.client.CloseIdleConnections()
	}
	t.client = nil
	t.serverURLs = nil
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// nextURL selects the next server via round-robin
func (t *httpClientTransport) nextURL(shardId uint64) string {
	idx := t.counter.Add(1) % uint32(len(t.serverURLs))
	return t.serverURLs[idx].JoinPath(strconv.FormatUint(shardId, 10)).String()
}

// post sends one request, non 200 responses are errors
func (t *httpClientTransport) post(ctx context.Context, requestURL string, req []byte) ([]byte, error) {
	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(req))
	if err != nil {
		return nil, err
	}
	httpRequest.Header.Set("Content-Type", "application/octet-stream")

	httpResponse, err := t.client.Do(httpRequest)
	if err != nil {
		return nil, err
	}
	defer httpResponse.Body.Close()

	if httpResponse.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(httpResponse.Body, 512))
		return nil, fmt.Errorf("http error: %s: %s", httpResponse.Status, strings.TrimSpace(string(msg)))
	}
	return io.ReadAll(httpResponse.Body)
}
