// Package metrics はPrometheusメトリクスの収集と公開を提供します。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder は認証イベントを記録するインターフェースです。
// ハンドラー層から利用します。
type Recorder interface {
	RecordAccountCreated()
	RecordLogin(success bool)
	RecordTokenIssued()
	RecordTokenRejected()
}

// Collector はPrometheusメトリクスを収集する実装です。
type Collector struct {
	accountsCreated prometheus.Counter
	loginAttempts   *prometheus.CounterVec
	tokensIssued    prometheus.Counter
	tokensRejected  prometheus.Counter
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録します。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		accountsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authapi_accounts_created_total",
			Help: "登録されたアカウントの合計数",
		}),
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authapi_login_attempts_total",
			Help: "ログイン試行の合計数（結果別）",
		}, []string{"result"}),
		tokensIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authapi_tokens_issued_total",
			Help: "発行したアクセストークンの合計数",
		}),
		tokensRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authapi_token_rejections_total",
			Help: "検証に失敗したベアラートークンの合計数",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authapi_http_requests_total",
			Help: "HTTPリクエスト数（メソッド・ルート・ステータス別）",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "authapi_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		c.accountsCreated,
		c.loginAttempts,
		c.tokensIssued,
		c.tokensRejected,
		c.httpRequests,
		c.httpDuration,
	)

	return c
}

// RecordAccountCreated はアカウント登録を記録します。
func (c *Collector) RecordAccountCreated() {
	c.accountsCreated.Inc()
}

// RecordLogin はログイン試行の結果を記録します。
func (c *Collector) RecordLogin(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.loginAttempts.WithLabelValues(result).Inc()
}

// RecordTokenIssued はトークン発行を記録します。
func (c *Collector) RecordTokenIssued() {
	c.tokensIssued.Inc()
}

// RecordTokenRejected はトークン検証失敗を記録します。
func (c *Collector) RecordTokenRejected() {
	c.tokensRejected.Inc()
}

// RecordHTTPRequest はHTTPリクエストの結果と処理時間を記録します。
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// GinMiddleware はリクエストごとにHTTPメトリクスを記録するミドルウェアを返します。
// 未登録ルートはラベルの爆発を避けるため "unmatched" にまとめます。
func (c *Collector) GinMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		c.RecordHTTPRequest(ctx.Request.Method, route, ctx.Writer.Status(), time.Since(start))
	}
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返します。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop は何も記録しない Recorder です。メトリクス無効時に使います。
type Nop struct{}

// RecordAccountCreated は何もしません。
func (Nop) RecordAccountCreated() {}

// RecordLogin は何もしません。
func (Nop) RecordLogin(bool) {}

// RecordTokenIssued は何もしません。
func (Nop) RecordTokenIssued() {}

// RecordTokenRejected は何もしません。
func (Nop) RecordTokenRejected() {}

var (
	_ Recorder = (*Collector)(nil)
	_ Recorder = Nop{}
)
