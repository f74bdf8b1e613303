// Package handler exposes sequence routes: definition CRUD, step management,
// enrollment listing, manual triggering and enrollment cancellation.
package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainevents "collectflow_backend/internal/events"
	"collectflow_backend/internal/sequences/repository"
	"collectflow_backend/platform/apperr"
	"collectflow_backend/platform/events"
	"collectflow_backend/platform/httpkit"
	"collectflow_backend/platform/logger"
	"collectflow_backend/platform/validator"
)

type Handler struct {
	repo *repository.Repository
	bus  events.Bus
	log  *logger.Logger
}

func New(repo *repository.Repository, bus events.Bus, log *logger.Logger) *Handler {
	return &Handler{repo: repo, bus: bus, log: log}
}

// RegisterRoutes mounts sequence routes on an authenticated group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/sequences", h.list)
	rg.POST("/sequences", h.create)
	rg.GET("/sequences/:id", h.get)
	rg.PUT("/sequences/:id", h.update)
	rg.POST("/sequences/:id/steps", h.createStep)
	rg.DELETE("/sequences/:id/steps/:stepId", h.deleteStep)
	rg.GET("/sequences/:id/enrollments", h.listEnrollments)
	rg.POST("/sequences/:id/trigger", h.trigger)
	rg.POST("/enrollments/:id/cancel", h.cancelEnrollment)
}

func (h *Handler) list(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	sequences, err := h.repo.ListSequencesByTenant(c.Request.Context(), id.TenantID())
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.OK(c, gin.H{"sequences": sequences})
}

func (h *Handler) create(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req sequenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest("invalid request body"))
		return
	}
	if err := validator.Struct(req); err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}

	seq := req.toSequence(id.TenantID())
	if err := h.repo.CreateSequence(c.Request.Context(), seq); err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.Created(c, seq)
}

func (h *Handler) get(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	seqID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest("invalid sequence id"))
		return
	}

	seq, err := h.repo.GetSequence(c.Request.Context(), id.TenantID(), seqID)
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	steps, err := h.repo.ListSteps(c.Request.Context(), seq.ID)
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.OK(c, gin.H{"sequence": seq, "steps": steps})
}

func (h *Handler) update(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	seqID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest("invalid sequence id"))
		return
	}

	var req sequenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest("invalid request body"))
		return
	}
	if err := validator.Struct(req); err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}

	seq := req.toSequence(id.TenantID())
	seq.ID = seqID
	if err := h.repo.UpdateSequence(c.Request.Context(), seq); err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.OK(c, seq)
}

func (h *Handler) createStep(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	seqID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest("invalid sequence id"))
		return
	}
	// Ownership check before touching steps.
	if _, err := h.repo.GetSequence(c.Request.Context(), id.TenantID(), seqID); err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}

	var req stepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest("invalid request body"))
		return
	}
	if err := validator.Struct(req); err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}

	step := req.toStep(seqID)
	if err := h.repo.CreateStep(c.Request.Context(), step); err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.Created(c, step)
}

func (h *Handler) deleteStep(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	seqID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest("invalid sequence id"))
		return
	}
	stepID, err := uuid.Parse(c.Param("stepId"))
	if err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest("invalid step id"))
		return
	}
	if _, err := h.repo.GetSequence(c.Request.Context(), id.TenantID(), seqID); err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}

	if err := h.repo.DeleteStep(c.Request.Context(), seqID, stepID); err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.NoContent(c)
}

func (h *Handler) listEnrollments(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	seqID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest("invalid sequence id"))
		return
	}

	enrollments, err := h.repo.ListEnrollmentsBySequence(c.Request.Context(), id.TenantID(), seqID)
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.OK(c, gin.H{"enrollments": enrollments})
}

// trigger manually starts the sequence for one consumer. The event goes over
// the bus like any other trigger so enrollment rules apply uniformly.
func (h *Handler) trigger(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	seqID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest("invalid sequence id"))
		return
	}

	var req triggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest("invalid request body"))
		return
	}
	if err := validator.Struct(req); err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}

	seq, err := h.repo.GetSequence(c.Request.Context(), id.TenantID(), seqID)
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}

	event := domainevents.ManualTrigger{
		BaseEvent:  domainevents.NewBase(),
		TenantID:   id.TenantID(),
		ConsumerID: uuid.MustParse(req.ConsumerID),
		SequenceID: seq.ID,
	}
	if req.AccountID != "" {
		event.AccountID = uuid.MustParse(req.AccountID)
	}
	h.bus.Publish(c.Request.Context(), event)

	httpkit.OK(c, gin.H{"triggered": true})
}

func (h *Handler) cancelEnrollment(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	enrollmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest("invalid enrollment id"))
		return
	}

	if err := h.repo.CloseEnrollment(c.Request.Context(), id.TenantID(), enrollmentID, repository.EnrollmentCancelled); err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.OK(c, gin.H{"cancelled": true})
}
