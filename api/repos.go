package api

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"repohealth/models"
	"repohealth/service"
)

// RepoHandler handles repository discovery and monitoring.
type RepoHandler struct {
	store  Store
	github RepoDiscoverer
}

// NewRepoHandler creates a new repo handler.
func NewRepoHandler(store Store, github RepoDiscoverer) *RepoHandler {
	return &RepoHandler{store: store, github: github}
}

// Register sets up repo routes.
func (h *RepoHandler) Register(router fiber.Router) {
	repos := router.Group("/repos")
	repos.Get("/github", h.ListGitHub)
	repos.Post("/monitor", h.Monitor)
	repos.Get("/monitored", h.ListMonitored)
	repos.Patch("/:id/active", h.SetActive)
}

type monitorRequest struct {
	UserID string                  `json:"userId"`
	Repo   models.RemoteRepository `json:"repo"`
}

type activeRequest struct {
	UserID   string `json:"userId"`
	IsActive *bool  `json:"isActive"`
}

// ListGitHub returns the repositories visible to the user on GitHub.
func (h *RepoHandler) ListGitHub(c fiber.Ctx) error {
	userID := strings.TrimSpace(c.Query("userId"))
	if userID == "" {
		return badRequest(c, "Missing userId")
	}

	user, err := h.store.GetUserByGitHubID(c.Context(), userID)
	if err != nil {
		return errorResponse(c, err, "Failed to fetch repositories")
	}
	if user.AccessToken == "" {
		return errorResponse(c, service.ErrMissingCredential, "")
	}

	repos, err := h.github.ListUserRepos(c.Context(), user.AccessToken)
	if err != nil {
		return errorResponse(c, err, "Failed to fetch repositories from GitHub")
	}
	return c.JSON(repos)
}

// Monitor starts monitoring a discovered repository.
func (h *RepoHandler) Monitor(c fiber.Ctx) error {
	var req monitorRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	if req.UserID == "" {
		return badRequest(c, "Missing userId")
	}

	user, err := h.store.GetUserByGitHubID(c.Context(), req.UserID)
	if err != nil {
		return errorResponse(c, err, "Failed to add repository")
	}

	repo := &models.Repository{
		UserID:       user.ID,
		GitHubRepoID: req.Repo.ID,
		Owner:        req.Repo.Owner,
		Name:         req.Repo.Name,
		URL:          req.Repo.URL,
		Description:  req.Repo.Description,
		Language:     req.Repo.Language,
	}
	if err := h.store.CreateRepository(c.Context(), repo); err != nil {
		return errorResponse(c, err, "Failed to add repository")
	}
	return c.Status(fiber.StatusCreated).JSON(repo)
}

// ListMonitored returns the user's monitored repositories, newest first.
func (h *RepoHandler) ListMonitored(c fiber.Ctx) error {
	userID := strings.TrimSpace(c.Query("userId"))
	if userID == "" {
		return badRequest(c, "Missing userId")
	}

	user, err := h.store.GetUserByGitHubID(c.Context(), userID)
	if err != nil {
		return errorResponse(c, err, "Failed to fetch monitored repositories")
	}

	repos, err := h.store.ListRepositoriesByUser(c.Context(), user.ID)
	if err != nil {
		return errorResponse(c, err, "Failed to fetch monitored repositories")
	}
	return c.JSON(repos)
}

// SetActive pauses or resumes scheduled analysis of a repository.
func (h *RepoHandler) SetActive(c fiber.Ctx) error {
	var req activeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	if req.UserID == "" || req.IsActive == nil {
		return badRequest(c, "userId and isActive are required")
	}

	user, err := h.store.GetUserByGitHubID(c.Context(), req.UserID)
	if err != nil {
		return errorResponse(c, err, "Failed to update repository")
	}
	repo, err := h.store.GetRepository(c.Context(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err, "Failed to update repository")
	}
	if repo.UserID != user.ID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Repository not found"})
	}

	if err := h.store.SetRepositoryActive(c.Context(), repo.ID, *req.IsActive); err != nil {
		return errorResponse(c, err, "Failed to update repository")
	}
	repo.IsActive = *req.IsActive
	return c.JSON(repo)
}
