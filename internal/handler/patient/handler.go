package patient

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	patientsvc "github.com/jwalitptl/clinic-api/internal/service/patient"
	"github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

type Handler struct {
	service patientsvc.PatientService
}

func NewHandler(service patientsvc.PatientService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients")
	{
		patients.POST("", h.Create)
		patients.GET("", h.List)
		patients.GET("/:id", h.Get)
		patients.PUT("/:id", h.Update)
		patients.DELETE("/:id", h.Delete)
		patients.POST("/:id/restore", h.Restore)
		patients.POST("/:id/assign-doctor", h.AssignDoctor)
		patients.GET("/:id/medical-summary", h.MedicalSummary)
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
		httputil.RespondWithError(c, errors.BadRequest("invalid_id", "invalid patient ID"))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) Create(c *gin.Context) {
	scope, ok := callerScope(c)
	if !ok {
		return
	}
	var req model.CreatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindingError(c, err)
		return
	}

	patient, err := h.service.Create(c.Request.Context(), scope, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, "patient created", patient)
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

	detail, err := h.service.Get(c.Request.Context(), scope, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "", detail)
}

func (h *Handler) List(c *gin.Context) {
	scope, ok := callerScope(c)
	if !ok {
		return
	}
	var filters model.PatientFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		httputil.RespondWithBindingError(c, err)
		return
	}

	patients, total, err := h.service.List(c.Request.Context(), scope, &filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, "", patients, filters.Page, filters.PageSize, total)
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
	var req model.UpdatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindingError(c, err)
		return
	}

	patient, err := h.service.Update(c.Request.Context(), scope, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "patient updated", patient)
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
	httputil.RespondWithSuccess(c, http.StatusOK, "patient deleted", nil)
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

	patient, err := h.service.Restore(c.Request.Context(), scope, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "patient restored", patient)
}

func (h *Handler) AssignDoctor(c *gin.Context) {
	scope, ok := callerScope(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req model.AssignDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindingError(c, err)
		return
	}

	patient, err := h.service.AssignDoctor(c.Request.Context(), scope, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "doctor assigned", patient)
}

func (h *Handler) MedicalSummary(c *gin.Context) {
	scope, ok := callerScope(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	summary, err := h.service.MedicalSummary(c.Request.Context(), scope, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, "", summary)
}
