package middleware

import (
	"net/http"

	"taskboard-backend/pkg/config"

	"github.com/go-chi/cors"
)

// CORS 创建CORS中间件
func CORS(cfg *config.Config) func(http.Handler) http.Handler {
	return cors.Handler(corsOptions(cfg))
}

func corsOptions(cfg *config.Config) cors.Options {
	opts := cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-Id",
		},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300, // 5分钟
	}

	// 开发环境未配置时允许所有来源
	if len(cfg.AllowedOrigins) == 0 && cfg.IsDevelopment() {
		opts.AllowedOrigins = []string{"*"}
	}
	// 通配符来源不能携带凭据
	if contains(opts.AllowedOrigins, "*") {
		opts.AllowedOrigins = []string{"*"}
		opts.AllowCredentials = false
	}
	return opts
}

// contains 检查切片是否包含指定的字符串
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
