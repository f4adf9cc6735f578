package dto

import "github.com/noah-isme/stellarfs-api/internal/models"

// ExportRequest captures POST /exports payload.
type ExportRequest struct {
	Kind   models.ResourceKind   `json:"kind" validate:"required,oneof=files metadata users nodes"`
	Format models.ExportFormat   `json:"format" validate:"required,oneof=csv pdf"`
	Params models.ViewParameters `json:"params"`
}

// ExportJobResponse is returned after enqueueing an export.
type ExportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ExportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ExportStatusResponse exposes job progress metadata.
type ExportStatusResponse struct {
	ID        string              `json:"id"`
	Kind      models.ResourceKind `json:"kind"`
	Status    models.ExportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"result_url,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
