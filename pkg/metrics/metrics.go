// Package metrics 提供 Prometheus helper，包含本服务的 HTTP 与业务指标
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wyfcoding/papertrading/pkg/logger"
)

// Metrics 指标集合
type Metrics struct {
	// HTTP 请求计数
	HTTPRequestsTotal prometheus.Counter
	// HTTP 请求耗时
	HTTPRequestDuration prometheus.Histogram

	// 行情查询计数
	QuoteLookupsTotal prometheus.Counter
	// 行情查询失败计数
	QuoteLookupFailures prometheus.Counter

	// 业务指标
	TradesSettledTotal  prometheus.Counter
	TradesRejectedTotal prometheus.Counter
	UsersRegistered     prometheus.Counter
	SessionsActive      prometheus.Gauge
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	return &Metrics{
		HTTPRequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "papertrading",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}),
		HTTPRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "papertrading",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		QuoteLookupsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "papertrading",
			Subsystem: serviceName,
			Name:      "quote_lookups_total",
			Help:      "Total quote provider lookups",
		}),
		QuoteLookupFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "papertrading",
			Subsystem: serviceName,
			Name:      "quote_lookup_failures_total",
			Help:      "Quote provider lookups that failed or returned unknown symbol",
		}),
		TradesSettledTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "papertrading",
			Subsystem: serviceName,
			Name:      "trades_settled_total",
			Help:      "Trades settled (ledger row + balance update committed)",
		}),
		TradesRejectedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "papertrading",
			Subsystem: serviceName,
			Name:      "trades_rejected_total",
			Help:      "Trades rejected by validation, funds or holdings checks",
		}),
		UsersRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "papertrading",
			Subsystem: serviceName,
			Name:      "users_registered_total",
			Help:      "Users registered",
		}),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "papertrading",
			Subsystem: serviceName,
			Name:      "sessions_active",
			Help:      "Number of live sessions",
		}),
	}
}

// Register 注册所有指标
func (m *Metrics) Register() error {
	collectors := []prometheus.Collector{
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.QuoteLookupsTotal,
		m.QuoteLookupFailures,
		m.TradesSettledTotal,
		m.TradesRejectedTotal,
		m.UsersRegistered,
		m.SessionsActive,
	}

	for _, c := range collectors {
		if err := prometheus.DefaultRegisterer.Register(c); err != nil {
			logger.Error(context.Background(), "Failed to register metric", "error", err)
			return err
		}
	}

	return nil
}

// StartHTTPServer 启动 Prometheus HTTP 服务器
func StartHTTPServer(port int, path string) {
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	logger.Info(context.Background(), "Starting Prometheus HTTP server", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error(context.Background(), "Failed to start Prometheus HTTP server", "error", err)
		}
	}()
}
