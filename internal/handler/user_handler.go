package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/stellarfs-api/internal/dto"
	"github.com/noah-isme/stellarfs-api/internal/models"
	"github.com/noah-isme/stellarfs-api/internal/service"
	appErrors "github.com/noah-isme/stellarfs-api/pkg/errors"
	"github.com/noah-isme/stellarfs-api/pkg/response"
)

type userService interface {
	Get(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, id string, req dto.UpdateUserRequest, actor service.Actor) (*models.User, error)
	UpdateRoles(ctx context.Context, id string, req dto.UpdateRolesRequest, actor service.Actor) (*models.User, error)
	UpdatePermissions(ctx context.Context, id string, req dto.UpdatePermissionsRequest, actor service.Actor) (*models.User, error)
	ToggleStatus(ctx context.Context, id string, actor service.Actor) (*models.User, error)
	Delete(ctx context.Context, id string, actor service.Actor) error
	ActivityLogs(ctx context.Context, userID string) ([]models.ActivityLog, error)
	AllActivityLogs(ctx context.Context) ([]models.ActivityLog, error)
	Roles() []models.UserRole
	Permissions() []models.Permission
}

// UserHandler handles user administration endpoints.
type UserHandler struct {
	views   viewer[models.User]
	service userService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(views viewer[models.User], svc userService) *UserHandler {
	return &UserHandler{views: views, service: svc}
}

// List godoc
// @Summary User view
// @Tags Users
// @Produce json
// @Param search query string false "Search over name, email and roles"
// @Param type query string false "Primary role or all"
// @Param tab query string false "all or recent"
// @Param sort_by query string false "Field to sort by"
// @Param sort_dir query string false "asc or desc"
// @Param page query int false "Zero-based page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	serveView(c, h.views)
}

// Get godoc
// @Summary Get user
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, user)
}

// Update godoc
// @Summary Update user
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body dto.UpdateUserRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Router /users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	user, err := h.service.Update(c.Request.Context(), c.Param("id"), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, user)
}

// UpdateRoles godoc
// @Summary Replace user roles
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body dto.UpdateRolesRequest true "Roles"
// @Success 200 {object} response.Envelope
// @Router /users/{id}/roles [put]
func (h *UserHandler) UpdateRoles(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpdateRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	user, err := h.service.UpdateRoles(c.Request.Context(), c.Param("id"), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, user)
}

// UpdatePermissions godoc
// @Summary Replace user permissions
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body dto.UpdatePermissionsRequest true "Permissions"
// @Success 200 {object} response.Envelope
// @Router /users/{id}/permissions [put]
func (h *UserHandler) UpdatePermissions(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpdatePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	user, err := h.service.UpdatePermissions(c.Request.Context(), c.Param("id"), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, user)
}

// ToggleStatus godoc
// @Summary Activate or deactivate user
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /users/{id}/toggle-status [put]
func (h *UserHandler) ToggleStatus(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	user, err := h.service.ToggleStatus(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, user)
}

// Delete godoc
// @Summary Delete user
// @Tags Users
// @Param id path string true "User ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), actor); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Activity godoc
// @Summary Activity of one user
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Router /users/{id}/activity [get]
func (h *UserHandler) Activity(c *gin.Context) {
	logs, err := h.service.ActivityLogs(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, logs)
}

// AllActivity godoc
// @Summary Activity of every user
// @Tags Users
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /users/activity [get]
func (h *UserHandler) AllActivity(c *gin.Context) {
	logs, err := h.service.AllActivityLogs(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, logs)
}

// Roles godoc
// @Summary Role catalog
// @Tags Users
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /users/roles [get]
func (h *UserHandler) Roles(c *gin.Context) {
	response.OK(c, h.service.Roles())
}

// Permissions godoc
// @Summary Permission catalog
// @Tags Users
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /users/permissions [get]
func (h *UserHandler) Permissions(c *gin.Context) {
	response.OK(c, h.service.Permissions())
}
