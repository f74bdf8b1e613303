// Package handler exposes campaign routes: CRUD, audience preview and send.
package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"collectflow_backend/internal/campaigns/repository"
	"collectflow_backend/internal/campaigns/service"
	"collectflow_backend/internal/campaigns/targeting"
	"collectflow_backend/platform/apperr"
	"collectflow_backend/platform/httpkit"
	"collectflow_backend/platform/logger"
	"collectflow_backend/platform/validator"
)

type Handler struct {
	svc  *service.Service
	repo *repository.Repository
	log  *logger.Logger
}

func New(svc *service.Service, repo *repository.Repository, log *logger.Logger) *Handler {
	return &Handler{svc: svc, repo: repo, log: log}
}

// RegisterRoutes mounts campaign routes on an authenticated group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/campaigns", h.list)
	rg.POST("/campaigns", h.create)
	rg.GET("/campaigns/:id", h.get)
	rg.POST("/campaigns/preview", h.preview)
	rg.POST("/campaigns/:id/send", h.send)
}

type createRequest struct {
	Name          string         `json:"name" validate:"required,max=200"`
	TemplateID    string         `json:"templateId" validate:"required,uuid"`
	ArrangementID string         `json:"arrangementId" validate:"omitempty,uuid"`
	Targeting     targeting.Spec `json:"targeting"`
}

type previewRequest struct {
	Targeting targeting.Spec `json:"targeting"`
}

func (h *Handler) list(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	campaigns, err := h.repo.ListByTenant(c.Request.Context(), id.TenantID())
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.OK(c, gin.H{"campaigns": campaigns})
}

func (h *Handler) create(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest("invalid request body"))
		return
	}
	if err := validator.Struct(req); err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}

	campaign := &repository.Campaign{
		TenantID:   id.TenantID(),
		Name:       req.Name,
		TemplateID: uuid.MustParse(req.TemplateID),
		Targeting:  targeting.Sanitize(req.Targeting),
	}
	if req.ArrangementID != "" {
		aid := uuid.MustParse(req.ArrangementID)
		campaign.ArrangementID = &aid
	}

	if err := h.repo.Create(c.Request.Context(), campaign); err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.Created(c, campaign)
}

func (h *Handler) get(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	campaignID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest("invalid campaign id"))
		return
	}
	campaign, err := h.repo.Get(c.Request.Context(), id.TenantID(), campaignID)
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.OK(c, campaign)
}

func (h *Handler) preview(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest("invalid request body"))
		return
	}

	matched, err := h.svc.Preview(c.Request.Context(), id.TenantID(), req.Targeting)
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.OK(c, gin.H{"matched": len(matched), "consumers": matched})
}

func (h *Handler) send(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	campaignID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest("invalid campaign id"))
		return
	}

	sent, err := h.svc.Send(c.Request.Context(), id.TenantID(), campaignID)
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.OK(c, gin.H{"sent": sent})
}
