package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"filevault/internal/http/middleware"
	"filevault/internal/service"
	"filevault/internal/session"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay free of business logic; identity is resolved once by the auth
// middleware and passed down as a typed caller identifier.
func RegisterRoutes(
	app *fiber.App,
	db *sql.DB,
	sessions session.Store,
	authSvc service.AuthService,
	fileSvc service.FileService,
	statsSvc service.StatsService,
) {
	authMw := middleware.NewAuth(authSvc)

	// Operational endpoints
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())
	app.Get("/status", Status(db, sessions))
	app.Get("/stats", Stats(statsSvc))

	// Accounts and sessions
	app.Post("/users", RegisterUser(authSvc))
	app.Get("/connect", Connect(authSvc))
	app.Get("/disconnect", Disconnect(authSvc))
	app.Get("/users/me", authMw.Require(), CurrentUser(authSvc))

	// Files
	app.Post("/files", authMw.Require(), CreateFile(fileSvc))
	app.Get("/files", authMw.Require(), ListFiles(fileSvc))
	app.Get("/files/:id", authMw.Require(), ShowFile(fileSvc))
	app.Put("/files/:id/publish", authMw.Require(), SetFileVisibility(fileSvc, true))
	app.Put("/files/:id/unpublish", authMw.Require(), SetFileVisibility(fileSvc, false))
	// Public files are downloadable without a session.
	app.Get("/files/:id/data", authMw.Optional(), DownloadFile(fileSvc))
}
