package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/stellarfs-api/internal/models"
	"github.com/noah-isme/stellarfs-api/pkg/response"
)

type storageService interface {
	Overview(ctx context.Context) (*models.StorageOverview, error)
}

// StorageHandler exposes the cluster storage report.
type StorageHandler struct {
	service storageService
}

// NewStorageHandler constructs a storage handler.
func NewStorageHandler(svc storageService) *StorageHandler {
	return &StorageHandler{service: svc}
}

// Overview godoc
// @Summary Storage overview
// @Description Capacity, usage and replication health across nodes
// @Tags Storage
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /storage/overview [get]
func (h *StorageHandler) Overview(c *gin.Context) {
	overview, err := h.service.Overview(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, overview)
}
