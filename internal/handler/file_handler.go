package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/stellarfs-api/internal/dto"
	"github.com/noah-isme/stellarfs-api/internal/models"
	appErrors "github.com/noah-isme/stellarfs-api/pkg/errors"
	"github.com/noah-isme/stellarfs-api/pkg/response"
)

type fileService interface {
	Get(ctx context.Context, id string) (*models.File, error)
	Upload(ctx context.Context, req dto.UploadFileRequest, owner string) (*models.File, error)
	Delete(ctx context.Context, id string) error
	Versions(ctx context.Context, id string) ([]models.FileVersion, error)
	RestoreVersion(ctx context.Context, id string, version int) (*models.File, error)
}

// FileHandler exposes file endpoints.
type FileHandler struct {
	views   viewer[models.File]
	service fileService
}

// NewFileHandler constructs a file handler.
func NewFileHandler(views viewer[models.File], svc fileService) *FileHandler {
	return &FileHandler{views: views, service: svc}
}

// List godoc
// @Summary File view
// @Description Filtered, tab-scoped, sorted and paginated file list with aggregates
// @Tags Files
// @Produce json
// @Param search query string false "Case-insensitive search over name, owner and path"
// @Param type query string false "File type or all"
// @Param tab query string false "all, recent or mine"
// @Param sort_by query string false "Field to sort by"
// @Param sort_dir query string false "asc or desc"
// @Param page query int false "Zero-based page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /files [get]
func (h *FileHandler) List(c *gin.Context) {
	serveView(c, h.views)
}

// Get godoc
// @Summary Get file
// @Tags Files
// @Produce json
// @Param id path string true "File ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /files/{id} [get]
func (h *FileHandler) Get(c *gin.Context) {
	file, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, file)
}

// Upload godoc
// @Summary Register file
// @Description Stores the descriptive record of an uploaded file owned by the caller
// @Tags Files
// @Accept json
// @Produce json
// @Param payload body dto.UploadFileRequest true "File payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /files [post]
func (h *FileHandler) Upload(c *gin.Context) {
	var req dto.UploadFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	file, err := h.service.Upload(c.Request.Context(), req, currentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, file)
}

// Delete godoc
// @Summary Delete file
// @Tags Files
// @Param id path string true "File ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /files/{id} [delete]
func (h *FileHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Versions godoc
// @Summary File version history
// @Tags Files
// @Produce json
// @Param id path string true "File ID"
// @Success 200 {object} response.Envelope
// @Router /files/{id}/versions [get]
func (h *FileHandler) Versions(c *gin.Context) {
	versions, err := h.service.Versions(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, versions)
}

// Restore godoc
// @Summary Restore file version
// @Tags Files
// @Produce json
// @Param id path string true "File ID"
// @Param version path int true "Version number"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /files/{id}/restore/{version} [post]
func (h *FileHandler) Restore(c *gin.Context) {
	version, err := strconv.Atoi(c.Param("version"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "version must be an integer"))
		return
	}
	file, err := h.service.RestoreVersion(c.Request.Context(), c.Param("id"), version)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, file)
}
