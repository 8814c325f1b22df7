package treatment

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	treatmentsvc "github.com/jwalitptl/clinic-api/internal/service/treatment"
	"github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

type Handler struct {
	service treatmentsvc.TreatmentService
}

func NewHandler(service treatmentsvc.TreatmentService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	treatments := r.Group("/treatments")
	{
		treatments.POST("", h.Create)
		treatments.GET("", h.List)
		treatments.GET("/upcoming", h.Upcoming)
		treatments.GET("/overdue", h.Overdue)
		treatments.GET("/:id", h.Get)
		treatments.PUT("/:id", h.Update)
		treatments.DELETE("/:id", h.Delete)
		treatments.POST("/:id/restore", h.Restore)
		treatments.POST("/:id/mark-completed", h.MarkCompleted)
		treatments.POST("/:id/mark-cancelled", h.MarkCancelled)
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
		httputil.RespondWithError(c, errors.BadRequest("invalid_id", "invalid treatment ID"))
		return uuid.Nil, false
	}
	return id, true
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// saveUploadedImage stores the optional "image" file part and returns its
// path. A missing part is not an error.
func (h *Handler) saveUploadedImage(c *gin.Context) (*string, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil
		}
		return nil, errors.Validation("image", "invalid image upload")
	}
	path, err := h.service.SaveImage(fh)
	if err != nil {
		return nil, err
	}
	return &path, nil
}

func (h *Handler) Create(c *gin.Context) {
	scope, ok := callerScope(c)
	if !ok {
		return
	}

	var req model.CreateTreatmentRequest
	if isMultipart(c) {
		if err := c.ShouldBind(&req); err != nil {
			httputil.RespondWithBindingError(c, err)
			return
		}
		path, err := h.saveUploadedImage(c)
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		req.ImagePath = path
	} else {
		if err := c.ShouldBindJSON(&req); err != nil {
			httputil.RespondWithBindingError(c, err)
			return
		}
	}

	treatment, err := h.service.Create(c.Request.Context(), scope, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, "treatment created", treatment)
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

	treatment, err := h.service.Get(c.Request.Context(), scope, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "", treatment)
}

func (h *Handler) List(c *gin.Context) {
	scope, ok := callerScope(c)
	if !ok {
		return
	}
	var filters model.TreatmentFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		httputil.RespondWithBindingError(c, err)
		return
	}

	treatments, total, err := h.service.List(c.Request.Context(), scope, &filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, "", treatments, filters.Page, filters.PageSize, total)
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

	var req model.UpdateTreatmentRequest
	if isMultipart(c) {
		if err := c.ShouldBind(&req); err != nil {
			httputil.RespondWithBindingError(c, err)
			return
		}
		path, err := h.saveUploadedImage(c)
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		req.ImagePath = path
	} else {
		if err := c.ShouldBindJSON(&req); err != nil {
			httputil.RespondWithBindingError(c, err)
			return
		}
	}

	treatment, err := h.service.Update(c.Request.Context(), scope, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "treatment updated", treatment)
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
	httputil.RespondWithSuccess(c, http.StatusOK, "treatment deleted", nil)
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

	treatment, err := h.service.Restore(c.Request.Context(), scope, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "treatment restored", treatment)
}

func (h *Handler) MarkCompleted(c *gin.Context) {
	scope, ok := callerScope(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	treatment, err := h.service.MarkCompleted(c.Request.Context(), scope, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "treatment completed", treatment)
}

func (h *Handler) MarkCancelled(c *gin.Context) {
	scope, ok := callerScope(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	treatment, err := h.service.MarkCancelled(c.Request.Context(), scope, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "treatment cancelled", treatment)
}

func (h *Handler) Upcoming(c *gin.Context) {
	scope, ok := callerScope(c)
	if !ok {
		return
	}
	var filters model.TreatmentFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		httputil.RespondWithBindingError(c, err)
		return
	}

	treatments, total, err := h.service.Upcoming(c.Request.Context(), scope, &filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, "", treatments, filters.Page, filters.PageSize, total)
}

func (h *Handler) Overdue(c *gin.Context) {
	scope, ok := callerScope(c)
	if !ok {
		return
	}
	var filters model.TreatmentFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		httputil.RespondWithBindingError(c, err)
		return
	}

	treatments, total, err := h.service.Overdue(c.Request.Context(), scope, &filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, "", treatments, filters.Page, filters.PageSize, total)
}
