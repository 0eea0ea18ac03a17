package api

import (
	"context"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
)

// AnalysisHandler handles on-demand analysis and report history.
type AnalysisHandler struct {
	store       Store
	analyses    Analyses
	defaultDays int
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(store Store, analyses Analyses, defaultDays int) *AnalysisHandler {
	if defaultDays <= 0 {
		defaultDays = 30
	}
	return &AnalysisHandler{store: store, analyses: analyses, defaultDays: defaultDays}
}

// Register sets up analysis routes.
func (h *AnalysisHandler) Register(router fiber.Router) {
	analysis := router.Group("/analysis")
	analysis.Post("/trigger/:repoId", h.Trigger)
	analysis.Get("/history/:repoId", h.History)
	analysis.Get("/commits/:repoId", h.Commits)
	analysis.Delete("/:reportId", h.Delete)
}

// Trigger runs one analysis cycle now and returns the new report.
func (h *AnalysisHandler) Trigger(c fiber.Ctx) error {
	userID := strings.TrimSpace(c.Query("userId"))
	if userID == "" {
		var body struct {
			UserID string `json:"userId"`
		}
		if len(c.Body()) > 0 {
			if err := c.Bind().JSON(&body); err != nil {
				return badRequest(c, "invalid request")
			}
		}
		userID = body.UserID
	}
	if userID == "" {
		return badRequest(c, "Missing userId")
	}

	// a started cycle finishes even if the client goes away
	ctx := context.WithoutCancel(c.Context())

	report, err := h.analyses.RunAnalysisByID(ctx, c.Params("repoId"), userID)
	if err != nil {
		return errorResponse(c, err, "Analysis failed")
	}
	return c.JSON(report)
}

// History returns a repository's reports, newest first.
func (h *AnalysisHandler) History(c fiber.Ctx) error {
	reports, err := h.store.ListReports(c.Context(), c.Params("repoId"))
	if err != nil {
		return errorResponse(c, err, "Failed to fetch reports")
	}
	return c.JSON(reports)
}

// Commits returns the daily commit counts used for charting.
func (h *AnalysisHandler) Commits(c fiber.Ctx) error {
	userID := strings.TrimSpace(c.Query("userId"))
	if userID == "" {
		return badRequest(c, "Missing userId")
	}

	days := h.defaultDays
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return badRequest(c, "days must be an integer")
		}
		days = n
	}

	points, err := h.analyses.CommitActivity(c.Context(), c.Params("repoId"), userID, days)
	if err != nil {
		return errorResponse(c, err, "Failed to fetch commit activity")
	}
	return c.JSON(points)
}

// Delete removes a single report.
func (h *AnalysisHandler) Delete(c fiber.Ctx) error {
	if err := h.store.DeleteReport(c.Context(), c.Params("reportId")); err != nil {
		return errorResponse(c, err, "Failed to delete report")
	}
	return c.JSON(fiber.Map{"message": "Report deleted successfully"})
}
