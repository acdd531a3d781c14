package middleware

import (
	"fmt"
	"net/http"
	"time"

	"taskboard-backend/pkg/config"

	"github.com/go-chi/chi/v5/middleware"
)

// Logger 创建日志中间件：生产环境输出结构化JSON，其余使用Chi默认日志
func Logger(cfg *config.Config) func(http.Handler) http.Handler {
	if cfg.IsProduction() {
		return StructuredLogger
	}
	return middleware.Logger
}

// StructuredLogger 单行JSON请求日志
func StructuredLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		// the auth middleware runs further down the chain, so the user
		// is only visible here through the request it was given
		fmt.Printf(`{"time":"%s","request_id":"%s","method":"%s","path":"%s","status":%d,"bytes":%d,"duration":"%s","ip":"%s"}`+"\n",
			start.UTC().Format(time.RFC3339),
			middleware.GetReqID(r.Context()),
			r.Method,
			r.URL.Path,
			ww.Status(),
			ww.BytesWritten(),
			time.Since(start),
			r.RemoteAddr,
		)
	})
}
