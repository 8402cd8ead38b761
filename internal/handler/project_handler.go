package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/rfitrack/internal/model"
	"github.com/suteetoe/rfitrack/internal/rfi"
	"github.com/suteetoe/rfitrack/internal/store"
	"github.com/suteetoe/rfitrack/pkg/logger"
	"go.uber.org/zap"
)

// ProjectRequest creates or replaces a project
type ProjectRequest struct {
	Name        string  `json:"name" validate:"notblank"`
	Description *string `json:"description"`
	ClientName  *string `json:"client_name"`
	Address     *string `json:"address"`
	Status      string  `json:"status" validate:"omitempty,oneof=active completed on_hold"`
}

// ProjectDetail is a project with its RFI statistics
type ProjectDetail struct {
	*model.Project
	Stats rfi.Summary `json:"stats"`
}

// ProjectListItem is a project row with its RFI counts and statistics
type ProjectListItem struct {
	store.ProjectSummary
	Stats rfi.Summary `json:"stats"`
}

func (req ProjectRequest) apply(p *model.Project) {
	p.Name = strings.TrimSpace(req.Name)
	p.Description = optional(req.Description)
	p.ClientName = optional(req.ClientName)
	p.Address = optional(req.Address)
	if req.Status != "" {
		p.Status = model.ProjectStatus(req.Status)
	}
}

// ListProjects handles GET /api/projects
func (h *Handler) ListProjects(c echo.Context) error {
	ctx := c.Request().Context()
	projects, err := h.Store.ListProjects(ctx, userID(c))
	if err != nil {
		return fail(c, err, "Failed to retrieve projects")
	}
	stats, err := h.RFIs.StatsByProject(ctx, userID(c))
	if err != nil {
		return fail(c, err, "Failed to retrieve projects")
	}

	items := make([]ProjectListItem, 0, len(projects))
	for _, p := range projects {
		items = append(items, ProjectListItem{ProjectSummary: p, Stats: stats[p.ID]})
	}
	return c.JSON(http.StatusOK, items)
}

// CreateProject handles POST /api/projects
func (h *Handler) CreateProject(c echo.Context) error {
	log := logger.FromEcho(c)

	var req ProjectRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err, "Invalid request data")
	}

	var project model.Project
	req.apply(&project)
	if err := h.Store.CreateProject(c.Request().Context(), userID(c), &project); err != nil {
		return fail(c, err, "Failed to create project")
	}

	log.Info("Project created", zap.String("project_id", project.ID))
	return c.JSON(http.StatusCreated, project)
}

// GetProject handles GET /api/projects/:id
func (h *Handler) GetProject(c echo.Context) error {
	ctx := c.Request().Context()
	project, err := h.Store.GetProject(ctx, userID(c), c.Param("id"))
	if err != nil {
		return fail(c, err, "Failed to retrieve project")
	}

	stats, err := h.RFIs.ProjectStats(ctx, userID(c), project.ID)
	if err != nil {
		return fail(c, err, "Failed to retrieve project")
	}
	return c.JSON(http.StatusOK, ProjectDetail{Project: project, Stats: stats})
}

// UpdateProject handles PUT /api/projects/:id
func (h *Handler) UpdateProject(c echo.Context) error {
	var req ProjectRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err, "Invalid request data")
	}

	ctx := c.Request().Context()
	project, err := h.Store.GetProject(ctx, userID(c), c.Param("id"))
	if err != nil {
		return fail(c, err, "Failed to update project")
	}

	req.apply(project)
	if err := h.Store.UpdateProject(ctx, userID(c), project); err != nil {
		return fail(c, err, "Failed to update project")
	}
	return c.JSON(http.StatusOK, project)
}

// ListProjectContacts handles GET /api/projects/:id/contacts
func (h *Handler) ListProjectContacts(c echo.Context) error {
	ctx := c.Request().Context()
	if _, err := h.Store.GetProject(ctx, userID(c), c.Param("id")); err != nil {
		return fail(c, err, "Failed to retrieve contacts")
	}

	contacts, err := h.Store.ListProjectContacts(ctx, userID(c), c.Param("id"))
	if err != nil {
		return fail(c, err, "Failed to retrieve contacts")
	}
	return c.JSON(http.StatusOK, contacts)
}

// CreateProjectContact handles POST /api/projects/:id/contacts
func (h *Handler) CreateProjectContact(c echo.Context) error {
	projectID := c.Param("id")
	return h.createContact(c, &projectID)
}

// ListProjectRFIs handles GET /api/projects/:id/rfis
func (h *Handler) ListProjectRFIs(c echo.Context) error {
	ctx := c.Request().Context()
	if _, err := h.Store.GetProject(ctx, userID(c), c.Param("id")); err != nil {
		return fail(c, err, "Failed to retrieve RFIs")
	}
	return h.listRFIs(c, c.Param("id"))
}

// CreateProjectRFI handles POST /api/projects/:id/rfis
func (h *Handler) CreateProjectRFI(c echo.Context) error {
	var req RFIRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err, "Invalid request data")
	}
	due, err := parseDate("due_date", req.DueDate)
	if err != nil {
		return fail(c, err, "Invalid request data")
	}

	view, err := h.RFIs.Create(c.Request().Context(), userID(c), rfi.CreateRequest{
		ProjectID:    c.Param("id"),
		Subject:      req.Subject,
		Question:     req.Question,
		Priority:     model.RFIPriority(req.Priority),
		AssignedToID: optional(req.AssignedToID),
		DueDate:      due,
	})
	if err != nil {
		return fail(c, err, "Failed to create RFI")
	}
	return c.JSON(http.StatusCreated, view)
}
