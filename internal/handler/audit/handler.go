package audit

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	auditsvc "github.com/jwalitptl/clinic-api/internal/service/audit"
	"github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

type Handler struct {
	service *auditsvc.Service
}

func NewHandler(service *auditsvc.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/audit-logs", h.List)
}

func (h *Handler) List(c *gin.Context) {
	scope, ok := middleware.ScopeFrom(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized("missing caller scope"))
		return
	}
	var filters model.AuditLogFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		httputil.RespondWithBindingError(c, err)
		return
	}

	logs, total, err := h.service.List(c.Request.Context(), scope, &filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, "", logs, filters.Page, filters.PageSize, total)
}
