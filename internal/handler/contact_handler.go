package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/rfitrack/internal/model"
	"github.com/suteetoe/rfitrack/pkg/logger"
	"go.uber.org/zap"
)

// ContactRequest creates or replaces a contact
type ContactRequest struct {
	ProjectID *string `json:"project_id"`
	Name      string  `json:"name" validate:"notblank"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Phone     *string `json:"phone"`
	Company   *string `json:"company"`
	Role      *string `json:"role"`
}

func (req ContactRequest) apply(contact *model.Contact) {
	contact.ProjectID = optional(req.ProjectID)
	contact.Name = strings.TrimSpace(req.Name)
	contact.Email = optional(req.Email)
	contact.Phone = optional(req.Phone)
	contact.Company = optional(req.Company)
	contact.Role = optional(req.Role)
}

// ListContacts handles GET /api/contacts
func (h *Handler) ListContacts(c echo.Context) error {
	contacts, err := h.Store.ListContacts(c.Request().Context(), userID(c))
	if err != nil {
		return fail(c, err, "Failed to retrieve contacts")
	}
	return c.JSON(http.StatusOK, contacts)
}

// CreateContact handles POST /api/contacts
func (h *Handler) CreateContact(c echo.Context) error {
	return h.createContact(c, nil)
}

func (h *Handler) createContact(c echo.Context, projectID *string) error {
	log := logger.FromEcho(c)

	var req ContactRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err, "Invalid request data")
	}
	if projectID != nil {
		req.ProjectID = projectID
	}

	var contact model.Contact
	req.apply(&contact)
	if err := h.Store.CreateContact(c.Request().Context(), userID(c), &contact); err != nil {
		return fail(c, err, "Failed to create contact")
	}

	log.Info("Contact created", zap.String("contact_id", contact.ID))
	return c.JSON(http.StatusCreated, contact)
}

// GetContact handles GET /api/contacts/:id
func (h *Handler) GetContact(c echo.Context) error {
	contact, err := h.Store.GetContact(c.Request().Context(), userID(c), c.Param("id"))
	if err != nil {
		return fail(c, err, "Failed to retrieve contact")
	}
	return c.JSON(http.StatusOK, contact)
}

// UpdateContact handles PUT /api/contacts/:id
func (h *Handler) UpdateContact(c echo.Context) error {
	var req ContactRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err, "Invalid request data")
	}

	ctx := c.Request().Context()
	contact, err := h.Store.GetContact(ctx, userID(c), c.Param("id"))
	if err != nil {
		return fail(c, err, "Failed to update contact")
	}

	req.apply(contact)
	if err := h.Store.UpdateContact(ctx, userID(c), contact); err != nil {
		return fail(c, err, "Failed to update contact")
	}
	return c.JSON(http.StatusOK, contact)
}

// DeleteContact handles DELETE /api/contacts/:id
func (h *Handler) DeleteContact(c echo.Context) error {
	if err := h.Store.DeleteContact(c.Request().Context(), userID(c), c.Param("id")); err != nil {
		return fail(c, err, "Failed to delete contact")
	}
	return c.NoContent(http.StatusNoContent)
}
