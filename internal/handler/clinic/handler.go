package clinic

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	clinicsvc "github.com/jwalitptl/clinic-api/internal/service/clinic"
	"github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

type Handler struct {
	service clinicsvc.ClinicService
}

func NewHandler(service clinicsvc.ClinicService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	clinics := r.Group("/clinics")
	{
		clinics.POST("", h.Create)
		clinics.GET("", h.List)
		clinics.GET("/:id", h.Get)
		clinics.PUT("/:id", h.Update)
		clinics.DELETE("/:id", h.Delete)
		clinics.POST("/:id/restore", h.Restore)
		clinics.GET("/:id/statistics", h.Statistics)
	}
}

func callerScope(c *gin.Context) (model.Scope, bool) {
	scope, ok := middleware.ScopeFrom(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized("missing caller scope"))
	}
	return scope, ok
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid_id", "invalid clinic ID"))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) Create(c *gin.Context) {
	scope, ok := callerScope(c)
	if !ok {
		return
	}
	var req model.CreateClinicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindingError(c, err)
		return
	}

	clinic, err := h.service.Create(c.Request.Context(), scope, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, "clinic created", clinic)
}

func (h *Handler) Get(c *gin.Context) {
	scope, ok := callerScope(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	clinic, err := h.service.Get(c.Request.Context(), scope, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "", clinic)
}

func (h *Handler) List(c *gin.Context) {
	scope, ok := callerScope(c)
	if !ok {
		return
	}
	var filters model.ClinicFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		httputil.RespondWithBindingError(c, err)
		return
	}

	clinics, total, err := h.service.List(c.Request.Context(), scope, &filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, "", clinics, filters.Page, filters.PageSize, total)
}

func (h *Handler) Update(c *gin.Context) {
	scope, ok := callerScope(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req model.UpdateClinicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindingError(c, err)
		return
	}

	clinic, err := h.service.Update(c.Request.Context(), scope, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "clinic updated", clinic)
}

func (h *Handler) Delete(c *gin.Context) {
	scope, ok := callerScope(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), scope, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "clinic deleted", nil)
}

func (h *Handler) Restore(c *gin.Context) {
	scope, ok := callerScope(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	clinic, err := h.service.Restore(c.Request.Context(), scope, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "clinic restored", clinic)
}

func (h *Handler) Statistics(c *gin.Context) {
	scope, ok := callerScope(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	stats, err := h.service.Statistics(c.Request.Context(), scope, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "", stats)
}
