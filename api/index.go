package handler

import (
	"fmt"
	"net/http"
	"time"

	"taskboard-backend/pkg/config"
	"taskboard-backend/pkg/database"
	"taskboard-backend/pkg/handlers"
	customMiddleware "taskboard-backend/pkg/middleware"
	"taskboard-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 1 << 20

// Handler 是无服务器函数的入口点
// 这个函数实现了"单体路由模式"，将所有API端点集中在一个Chi路由器中管理
func Handler(w http.ResponseWriter, r *http.Request) {
	cfg := config.GetCached()

	if err := cfg.Validate(); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Configuration error: "+err.Error())
		return
	}

	db, err := database.GetDatabase(database.DatabaseConfig{
		UseLocalDB:   cfg.UseLocalDB,
		LocalDataDir: cfg.LocalDataDir,
		PostgresDSN:  cfg.PostgresDSN,
		Debug:        cfg.Debug,
	})
	if err != nil {
		fmt.Printf("❌ Database unavailable: %v\n", err)
		utils.WriteErrorResponseWithCode(w, http.StatusServiceUnavailable, "DATABASE_UNAVAILABLE", "Database unavailable", "")
		return
	}

	NewRouter(cfg, db, nil).ServeHTTP(w, r)
}

// NewRouter 构建完整的路由；notifier 为 nil 时只写日志
func NewRouter(cfg *config.Config, db database.DatabaseInterface, notifier handlers.Notifier) *chi.Mux {
	router := chi.NewRouter()
	setupMiddleware(router, cfg)
	setupRoutes(router, cfg, db, notifier)
	return router
}

// setupMiddleware 设置全局中间件
func setupMiddleware(router *chi.Mux, cfg *config.Config) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	// Normalize path and restore scheme/host before logging and routing
	router.Use(customMiddleware.Normalize())
	router.Use(customMiddleware.Logger(cfg))
	router.Use(customMiddleware.Recovery(cfg))

	router.Use(customMiddleware.CORS(cfg))

	// 超时中间件（无服务器函数有时间限制）
	router.Use(middleware.Timeout(25 * time.Second))

	router.Use(middleware.Compress(5))

	if cfg.IsDevelopment() {
		router.Use(middleware.Heartbeat("/ping"))
	}
}

// setupRoutes 设置所有API路由
func setupRoutes(router *chi.Mux, cfg *config.Config, db database.DatabaseInterface, notifier handlers.Notifier) {
	authHandler := handlers.NewAuthHandler(cfg, db)
	workspaceHandler := handlers.NewWorkspaceHandler(cfg, db, notifier)
	boardHandler := handlers.NewBoardHandler(cfg, db, notifier)
	invitationHandler := handlers.NewInvitationHandler(cfg, db, notifier)

	router.Get("/", authHandler.HealthCheck)

	if cfg.IsDevelopment() {
		router.Get("/debug/db-pool", func(w http.ResponseWriter, r *http.Request) {
			utils.WriteSuccessResponse(w, database.GetConnectionStats())
		})
	}

	router.Route("/api", func(r chi.Router) {
		r.Use(customMiddleware.MaxBodySize(maxBodyBytes))
		r.Use(customMiddleware.ContentTypeJSON)

		// 公开路由（不需要认证）
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.RefreshToken)
		})

		// 需要认证的路由
		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.AuthMiddleware(cfg))

			r.Route("/workspaces", func(r chi.Router) {
				r.Get("/", workspaceHandler.ListWorkspaces)
				r.Post("/", workspaceHandler.CreateWorkspace)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", workspaceHandler.GetWorkspace)
					r.Put("/", workspaceHandler.UpdateWorkspace)
					r.Delete("/", workspaceHandler.DeleteWorkspace)
					r.Put("/members/{userID}", workspaceHandler.UpdateMemberRole)
					r.Delete("/members/{userID}", workspaceHandler.RemoveMember)
					r.Post("/boards", workspaceHandler.CreateBoard)
					r.Post("/invitations", workspaceHandler.InviteMember)
					r.Get("/activity", workspaceHandler.ListActivity)
				})
			})

			r.Route("/boards/{id}", func(r chi.Router) {
				r.Get("/", boardHandler.GetBoard)
				r.Put("/", boardHandler.UpdateBoard)
				r.Delete("/", boardHandler.DeleteBoard)
				r.Put("/settings", boardHandler.UpdateSettings)
				r.Post("/archive", boardHandler.ArchiveBoard)
				r.Put("/members/{userID}", boardHandler.UpdateMemberRole)
				r.Delete("/members/{userID}", boardHandler.RemoveMember)
				r.Post("/invitations", boardHandler.InviteMember)
				r.Get("/activity", boardHandler.ListActivity)

				r.Post("/lists", boardHandler.CreateList)
				r.Put("/lists/{listID}", boardHandler.UpdateList)
				r.Post("/lists/{listID}/archive", boardHandler.ArchiveList)

				r.Post("/cards", boardHandler.CreateCard)
				r.Put("/cards/{cardID}", boardHandler.UpdateCard)
				r.Delete("/cards/{cardID}", boardHandler.DeleteCard)
				r.Post("/cards/{cardID}/move", boardHandler.MoveCard)
				r.Post("/cards/{cardID}/complete", boardHandler.CompleteCard)
				r.Put("/cards/{cardID}/members", boardHandler.SetCardMembers)
			})

			r.Route("/invitations", func(r chi.Router) {
				r.Get("/my", invitationHandler.ListMyInvitations)
				r.Post("/accept", invitationHandler.AcceptInvitation)
			})
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteNotFoundResponse(w, fmt.Sprintf("Route not found: %s %s", r.Method, r.URL.Path))
	})

	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteErrorResponseWithCode(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			fmt.Sprintf("Method %s not allowed for %s", r.Method, r.URL.Path), "")
	})
}
