package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ValentinKolb/hKV/rpc/common"
	"github.com/ValentinKolb/hKV/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("transport/rpc")

// maxBodySize bounds the request body the server reads
const maxBodySize = 64 << 20

func NewHttpServerTransport() transport.IRPCServerTransport {
	return &httpServerTransport{}
}

type httpServerTransport struct {
	handler transport.ServerHandleFunc

	mu     sync.Mutex
	server *http.Server
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *httpServerTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.handler = handler
}

func (t *httpServerTransport) Listen(config common.ServerConfig) error {
	server := &http.Server{
		Addr:    config.Transport.Endpoint,
		Handler: t.routes(config),
	}
	if config.TimeoutSecond > 0 {
		server.ReadTimeout = time.Duration(config.TimeoutSecond) * time.Second
		server.WriteTimeout = time.Duration(config.TimeoutSecond) * time.Second
	}

	t.mu.Lock()
	t.server = server
	t.mu.Unlock()

	Logger.Infof("Starting HTTP server on %s", config.Transport.Endpoint)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (t *httpServerTransport) Close() error {
	t.mu.Lock()
	server := t.server
	t.server = nil
	t.mu.Unlock()

	if server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// routes builds the request multiplexer, with request logging at debug level
func (t *httpServerTransport) routes(config common.ServerConfig) http.Handler {
	mux := http.NewServeMux()
	if strings.EqualFold(config.LogLevel, "debug") {
		mux.HandleFunc("POST /{shardId}", loggerMiddleware(t.handleRequest))
	} else {
		mux.HandleFunc("POST /{shardId}", t.handleRequest)
	}
	return mux
}

// handleRequest handles incoming HTTP requests and writes the response to the writer
func (t *httpServerTransport) handleRequest(w http.ResponseWriter, r *http.Request) {
	shardId, err := strconv.ParseUint(r.PathValue("shardId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid shardId", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	defer r.Body.Close()
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	resp := t.handler(r.Context(), shardId, body)

	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err = w.Write(resp); err != nil {
		Logger.Errorf("Failed to write response: %v", err)
	}
}

// --------------------------------------------------------------------------
// Middleware (logging)
// --------------------------------------------------------------------------

// responseWriter is a custom ResponseWriter that captures status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code before writing it
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// loggerMiddleware is a middleware that logs HTTP requests
func loggerMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		Logger.Debugf("%s %s => %d took %s", r.Method, r.URL.Path, rw.statusCode, time.Since(start))
	}
}
