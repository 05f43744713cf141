package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ValentinKolb/hKV/lib/store"
	"github.com/ValentinKolb/hKV/rpc/common"
	"github.com/VictoriaMetrics/metrics"
)

// Metric names, labelled with the shard and the message type
const (
	metricRequests = "hkv_requests_total"
	metricDuration = "hkv_request_duration_seconds"
	metricInvalid  = "hkv_invalid_requests_total"
)

// observeRequest records the outcome and the duration of one request
func observeRequest(shardId uint64, resp *common.Message, start time.Time) {
	code := store.RetCSuccess
	if !resp.Ok {
		code = resp.Code
	}
	metrics.GetOrCreateCounter(fmt.Sprintf(`%s{shard="%d",type="%s",code="%s"}`,
		metricRequests, shardId, resp.MsgType, code)).Inc()
	metrics.GetOrCreateHistogram(fmt.Sprintf(`%s{shard="%d",type="%s"}`,
		metricDuration, shardId, resp.MsgType)).UpdateDuration(start)
}

// observeInvalid counts requests that never reached a store
func observeInvalid(reason string) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`%s{reason="%s"}`, metricInvalid, reason)).Inc()
}

// metricsHandler serves all metrics in the Prometheus text format
func metricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, _ *http.Request) {
		metrics.WritePrometheus(w, true)
	})
	return mux
}
