package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"taskboard-backend/pkg/config"
	"taskboard-backend/pkg/utils"

	"github.com/go-chi/chi/v5/middleware"
)

// Recovery 恢复中间件，处理panic并返回统一的JSON错误
func Recovery(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				stack := debug.Stack()
				fmt.Printf("❌ PANIC [%s] %s %s: %v\n", middleware.GetReqID(r.Context()), r.Method, r.URL.Path, rec)
				fmt.Printf("📍 Stack trace:\n%s\n", stack)

				if cfg.IsDevelopment() {
					utils.WriteErrorResponseWithCode(w, http.StatusInternalServerError,
						"INTERNAL_SERVER_ERROR",
						fmt.Sprintf("Internal server error: %v", rec),
						string(stack))
					return
				}
				utils.WriteInternalServerErrorResponse(w, "Internal server error occurred")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
