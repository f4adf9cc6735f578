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

type nodeService interface {
	Get(ctx context.Context, id string) (*models.Node, error)
	ReportMetrics(ctx context.Context, id string, req dto.NodeMetricsRequest) (*models.Node, error)
	Action(ctx context.Context, id string, action models.NodeAction) (*models.Node, error)
	MetricHistory(ctx context.Context, id, metric string, hours int) ([]models.MetricPoint, error)
	Summary(ctx context.Context) (*models.NodeSummary, error)
}

// NodeHandler exposes storage node endpoints.
type NodeHandler struct {
	views   viewer[models.Node]
	service nodeService
}

// NewNodeHandler constructs a node handler.
func NewNodeHandler(views viewer[models.Node], svc nodeService) *NodeHandler {
	return &NodeHandler{views: views, service: svc}
}

// List godoc
// @Summary Node view
// @Tags Nodes
// @Produce json
// @Param search query string false "Search over name, IP address and location"
// @Param type query string false "Node type or all"
// @Param tab query string false "all or recent"
// @Param sort_by query string false "Field to sort by"
// @Param sort_dir query string false "asc or desc"
// @Param page query int false "Zero-based page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /nodes [get]
func (h *NodeHandler) List(c *gin.Context) {
	serveView(c, h.views)
}

// Get godoc
// @Summary Get node
// @Tags Nodes
// @Produce json
// @Param id path string true "Node ID"
// @Success 200 {object} response.Envelope
// @Router /nodes/{id} [get]
func (h *NodeHandler) Get(c *gin.Context) {
	node, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, node)
}

// ReportMetrics godoc
// @Summary Report node metrics
// @Description Stores a sample and re-derives the node status from the thresholds
// @Tags Nodes
// @Accept json
// @Produce json
// @Param id path string true "Node ID"
// @Param payload body dto.NodeMetricsRequest true "Metric sample"
// @Success 200 {object} response.Envelope
// @Router /nodes/{id}/metrics [post]
func (h *NodeHandler) ReportMetrics(c *gin.Context) {
	var req dto.NodeMetricsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	node, err := h.service.ReportMetrics(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, node)
}

// Action godoc
// @Summary Apply node action
// @Tags Nodes
// @Produce json
// @Param id path string true "Node ID"
// @Param action path string true "restart, pause or resume"
// @Success 200 {object} response.Envelope
// @Router /nodes/{id}/actions/{action} [post]
func (h *NodeHandler) Action(c *gin.Context) {
	node, err := h.service.Action(c.Request.Context(), c.Param("id"), models.NodeAction(c.Param("action")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, node)
}

// History godoc
// @Summary Node metric history
// @Tags Nodes
// @Produce json
// @Param id path string true "Node ID"
// @Param metric query string false "cpu, memory, disk or network" default(cpu)
// @Param hours query int false "Window in hours" default(24)
// @Success 200 {object} response.Envelope
// @Router /nodes/{id}/history [get]
func (h *NodeHandler) History(c *gin.Context) {
	hours, err := strconv.Atoi(c.DefaultQuery("hours", "24"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "hours must be an integer"))
		return
	}
	points, err := h.service.MetricHistory(c.Request.Context(), c.Param("id"), c.DefaultQuery("metric", "cpu"), hours)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, points)
}

// Summary godoc
// @Summary Cluster health summary
// @Tags Nodes
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /nodes/summary [get]
func (h *NodeHandler) Summary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, summary)
}
