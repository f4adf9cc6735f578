package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/stellarfs-api/internal/middleware"
	"github.com/noah-isme/stellarfs-api/internal/models"
	"github.com/noah-isme/stellarfs-api/internal/service"
	appErrors "github.com/noah-isme/stellarfs-api/pkg/errors"
	"github.com/noah-isme/stellarfs-api/pkg/response"
)

type viewer[T any] interface {
	View(ctx context.Context, params models.ViewParameters, currentUser string) (*service.ViewResult[T], error)
}

// parseViewParams reads the list view state from the query string. Absent
// values stay zero and are defaulted by the view service.
func parseViewParams(c *gin.Context) (models.ViewParameters, error) {
	params := models.ViewParameters{
		Search:  c.Query("search"),
		Type:    c.Query("type"),
		Tab:     models.Tab(strings.ToLower(c.Query("tab"))),
		SortBy:  c.Query("sort_by"),
		SortDir: models.SortDirection(strings.ToLower(c.Query("sort_dir"))),
	}
	var err error
	if params.Page, err = intQuery(c, "page"); err != nil {
		return params, err
	}
	if params.PageSize, err = intQuery(c, "page_size"); err != nil {
		return params, err
	}
	if filters := c.QueryMap("filter"); len(filters) > 0 {
		params.Filters = filters
	}
	return params, nil
}

func intQuery(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, key+" must be an integer")
	}
	return v, nil
}

func serveView[T any](c *gin.Context, views viewer[T]) {
	params, err := parseViewParams(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := views.View(c.Request.Context(), params, currentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, result.Cached)
	overview := result.Overview
	page := models.ViewPage[T]{Items: result.Items, Stats: result.Stats, Overview: &overview}
	response.JSON(c, http.StatusOK, page, &result.Pagination, middleware.ResponseMeta(c))
}
