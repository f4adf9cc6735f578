package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/stellarfs-api/internal/dto"
	"github.com/noah-isme/stellarfs-api/internal/models"
	appErrors "github.com/noah-isme/stellarfs-api/pkg/errors"
	"github.com/noah-isme/stellarfs-api/pkg/response"
)

type metadataService interface {
	Get(ctx context.Context, id string) (*models.MetadataEntry, error)
	Create(ctx context.Context, req dto.CreateMetadataRequest, currentUser string) (*models.MetadataEntry, error)
	Update(ctx context.Context, id string, req dto.UpdateMetadataRequest) (*models.MetadataEntry, error)
	Delete(ctx context.Context, id string) error
}

// MetadataHandler exposes metadata catalogue endpoints.
type MetadataHandler struct {
	views   viewer[models.MetadataEntry]
	service metadataService
}

// NewMetadataHandler constructs a metadata handler.
func NewMetadataHandler(views viewer[models.MetadataEntry], svc metadataService) *MetadataHandler {
	return &MetadataHandler{views: views, service: svc}
}

// List godoc
// @Summary Metadata view
// @Tags Metadata
// @Produce json
// @Param search query string false "Search over filename, type, owner and tags"
// @Param type query string false "Type or all"
// @Param tab query string false "all, recent or mine"
// @Param sort_by query string false "Field to sort by"
// @Param sort_dir query string false "asc or desc"
// @Param page query int false "Zero-based page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /metadata [get]
func (h *MetadataHandler) List(c *gin.Context) {
	serveView(c, h.views)
}

// Get godoc
// @Summary Get metadata entry
// @Tags Metadata
// @Produce json
// @Param id path string true "Metadata ID"
// @Success 200 {object} response.Envelope
// @Router /metadata/{id} [get]
func (h *MetadataHandler) Get(c *gin.Context) {
	entry, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, entry)
}

// Create godoc
// @Summary Create metadata entry
// @Tags Metadata
// @Accept json
// @Produce json
// @Param payload body dto.CreateMetadataRequest true "Metadata payload"
// @Success 201 {object} response.Envelope
// @Router /metadata [post]
func (h *MetadataHandler) Create(c *gin.Context) {
	var req dto.CreateMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entry, err := h.service.Create(c.Request.Context(), req, currentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// Update godoc
// @Summary Update metadata entry
// @Tags Metadata
// @Accept json
// @Produce json
// @Param id path string true "Metadata ID"
// @Param payload body dto.UpdateMetadataRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Router /metadata/{id} [put]
func (h *MetadataHandler) Update(c *gin.Context) {
	var req dto.UpdateMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entry, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, entry)
}

// Delete godoc
// @Summary Delete metadata entry
// @Tags Metadata
// @Param id path string true "Metadata ID"
// @Success 204
// @Router /metadata/{id} [delete]
func (h *MetadataHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
