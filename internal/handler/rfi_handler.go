package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/rfitrack/internal/model"
	"github.com/suteetoe/rfitrack/internal/rfi"
	"github.com/suteetoe/rfitrack/internal/store"
	"github.com/suteetoe/rfitrack/pkg/logger"
	"go.uber.org/zap"
)

const maxListLimit = 200

// RFIRequest creates or edits an RFI
type RFIRequest struct {
	Subject      string  `json:"subject" validate:"notblank"`
	Question     string  `json:"question" validate:"notblank"`
	Priority     string  `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	AssignedToID *string `json:"assigned_to_id"`
	DueDate      *string `json:"due_date"`
}

// AnswerRequest records an answer
type AnswerRequest struct {
	Answer string `json:"answer"`
}

// StatusRequest moves an RFI to another status
type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open pending answered closed"`
}

// AttachmentRequest describes an uploaded file
type AttachmentRequest struct {
	FileName string `json:"file_name" validate:"notblank"`
	FileURL  string `json:"file_url" validate:"required,url"`
	FileType string `json:"file_type" validate:"required"`
	FileSize int64  `json:"file_size" validate:"gte=0"`
}

// ListRFIs handles GET /api/rfis
func (h *Handler) ListRFIs(c echo.Context) error {
	return h.listRFIs(c, c.QueryParam("project_id"))
}

func (h *Handler) listRFIs(c echo.Context, projectID string) error {
	filter := store.RFIFilter{
		ProjectID: projectID,
		Status:    model.RFIStatus(c.QueryParam("status")),
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxListLimit {
			return fail(c, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidRequest, maxListLimit), "Invalid request data")
		}
		filter.Limit = limit
	}

	rfis, err := h.RFIs.List(c.Request().Context(), userID(c), filter)
	if err != nil {
		return fail(c, err, "Failed to retrieve RFIs")
	}
	return c.JSON(http.StatusOK, rfis)
}

// GetRFI handles GET /api/rfis/:id
func (h *Handler) GetRFI(c echo.Context) error {
	view, err := h.RFIs.Get(c.Request().Context(), userID(c), c.Param("id"))
	if err != nil {
		return fail(c, err, "Failed to retrieve RFI")
	}
	return c.JSON(http.StatusOK, view)
}

// UpdateRFI handles PUT /api/rfis/:id
func (h *Handler) UpdateRFI(c echo.Context) error {
	var req RFIRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err, "Invalid request data")
	}
	due, err := parseDate("due_date", req.DueDate)
	if err != nil {
		return fail(c, err, "Invalid request data")
	}

	view, err := h.RFIs.Update(c.Request().Context(), userID(c), c.Param("id"), rfi.UpdateRequest{
		Subject:      req.Subject,
		Question:     req.Question,
		Priority:     model.RFIPriority(req.Priority),
		AssignedToID: optional(req.AssignedToID),
		DueDate:      due,
	})
	if err != nil {
		return fail(c, err, "Failed to update RFI")
	}
	return c.JSON(http.StatusOK, view)
}

// DeleteRFI handles DELETE /api/rfis/:id
func (h *Handler) DeleteRFI(c echo.Context) error {
	log := logger.FromEcho(c)

	if err := h.RFIs.Delete(c.Request().Context(), userID(c), c.Param("id")); err != nil {
		return fail(c, err, "Failed to delete RFI")
	}

	log.Info("RFI deleted", zap.String("rfi_id", c.Param("id")))
	return c.NoContent(http.StatusNoContent)
}

// AnswerRFI handles POST /api/rfis/:id/answer
func (h *Handler) AnswerRFI(c echo.Context) error {
	var req AnswerRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err, "Invalid request data")
	}

	view, err := h.RFIs.Answer(c.Request().Context(), userID(c), c.Param("id"), strings.TrimSpace(req.Answer))
	if err != nil {
		return fail(c, err, "Failed to save answer")
	}
	return c.JSON(http.StatusOK, view)
}

// ChangeRFIStatus handles POST /api/rfis/:id/status
func (h *Handler) ChangeRFIStatus(c echo.Context) error {
	var req StatusRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err, "Invalid request data")
	}

	view, err := h.RFIs.ChangeStatus(c.Request().Context(), userID(c), c.Param("id"), model.RFIStatus(req.Status))
	if err != nil {
		return fail(c, err, "Failed to update status")
	}
	return c.JSON(http.StatusOK, view)
}

// ReopenRFI handles POST /api/rfis/:id/reopen
func (h *Handler) ReopenRFI(c echo.Context) error {
	view, err := h.RFIs.Reopen(c.Request().Context(), userID(c), c.Param("id"))
	if err != nil {
		return fail(c, err, "Failed to reopen RFI")
	}
	return c.JSON(http.StatusOK, view)
}

// ListAttachments handles GET /api/rfis/:id/attachments
func (h *Handler) ListAttachments(c echo.Context) error {
	attachments, err := h.Store.ListAttachments(c.Request().Context(), userID(c), c.Param("id"))
	if err != nil {
		return fail(c, err, "Failed to retrieve attachments")
	}
	return c.JSON(http.StatusOK, attachments)
}

// AddAttachment handles POST /api/rfis/:id/attachments
func (h *Handler) AddAttachment(c echo.Context) error {
	var req AttachmentRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err, "Invalid request data")
	}

	attachment := model.RFIAttachment{
		RFIID:    c.Param("id"),
		FileName: strings.TrimSpace(req.FileName),
		FileURL:  req.FileURL,
		FileType: req.FileType,
		FileSize: req.FileSize,
	}
	if err := h.Store.AddAttachment(c.Request().Context(), userID(c), &attachment); err != nil {
		return fail(c, err, "Failed to add attachment")
	}
	return c.JSON(http.StatusCreated, attachment)
}

// DeleteAttachment handles DELETE /api/rfis/:id/attachments/:attachmentId
func (h *Handler) DeleteAttachment(c echo.Context) error {
	err := h.Store.DeleteAttachment(c.Request().Context(), userID(c), c.Param("id"), c.Param("attachmentId"))
	if err != nil {
		return fail(c, err, "Failed to delete attachment")
	}
	return c.NoContent(http.StatusNoContent)
}
