// Package api exposes monitoring and analysis over HTTP.
package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"repohealth/models"
)

// Store abstracts the persistence operations used by the handlers
// (for testability)
type Store interface {
	GetUserByGitHubID(ctx context.Context, githubID string) (*models.User, error)
	CreateRepository(ctx context.Context, repo *models.Repository) error
	GetRepository(ctx context.Context, id string) (*models.Repository, error)
	ListRepositoriesByUser(ctx context.Context, userID string) ([]models.Repository, error)
	SetRepositoryActive(ctx context.Context, id string, active bool) error
	ListReports(ctx context.Context, repoID string) ([]models.Report, error)
	DeleteReport(ctx context.Context, id string) error
}

// RepoDiscoverer lists the repositories a GitHub user can see
type RepoDiscoverer interface {
	ListUserRepos(ctx context.Context, token string) ([]models.RemoteRepository, error)
}

// Analyses runs analysis cycles and serves charting data
type Analyses interface {
	RunAnalysisByID(ctx context.Context, repoID, githubUserID string) (*models.Report, error)
	CommitActivity(ctx context.Context, repoID, githubUserID string, days int) ([]models.ActivityPoint, error)
}

// Config holds HTTP server settings
type Config struct {
	Port               string
	CORSOrigins        []string
	ActivityWindowDays int
}

// Server is the HTTP front end.
type Server struct {
	app  *fiber.App
	port string
}

// NewServer builds the Fiber app and registers every route under /api/v1.
func NewServer(cfg Config, store Store, github RepoDiscoverer, analyses Analyses) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "repohealth",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	})

	app.Use(recover.New())
	app.Use(RequestLogger())
	if len(cfg.CORSOrigins) > 0 {
		app.Use(cors.New(cors.Config{
			AllowOrigins: cfg.CORSOrigins,
			AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
			AllowMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		}))
	}

	v1 := app.Group("/api/v1")
	v1.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "time": time.Now().UTC()})
	})

	NewRepoHandler(store, github).Register(v1)
	NewAnalysisHandler(store, analyses, cfg.ActivityWindowDays).Register(v1)

	return &Server{app: app, port: cfg.Port}
}

// App returns the underlying Fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen blocks serving HTTP until Shutdown is called.
func (s *Server) Listen() error {
	return s.app.Listen(":"+s.port, fiber.ListenConfig{DisableStartupMessage: true})
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
