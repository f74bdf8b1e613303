// Package handler exposes tenant branding and message-template routes.
package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"collectflow_backend/internal/tenants/repository"
	"collectflow_backend/internal/tenants/service"
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

// RegisterRoutes mounts tenant routes on an authenticated group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/tenants", h.createTenant)
	rg.GET("/tenant", h.getTenant)
	rg.GET("/tenant/branding", h.getBranding)
	rg.PUT("/tenant/branding", h.updateBranding)
	rg.POST("/tenant/branding/logo", h.uploadLogo)

	rg.GET("/templates", h.listTemplates)
	rg.POST("/templates", h.createTemplate)
	rg.GET("/templates/:id", h.getTemplate)
	rg.PUT("/templates/:id", h.updateTemplate)
	rg.DELETE("/templates/:id", h.deleteTemplate)
}

type brandingRequest struct {
	BackgroundColor   string `json:"backgroundColor" validate:"omitempty,hexcolor"`
	ContentBackground string `json:"contentBackground" validate:"omitempty,hexcolor"`
	TextColor         string `json:"textColor" validate:"omitempty,hexcolor"`
	PrimaryColor      string `json:"primaryColor" validate:"omitempty,hexcolor"`
	AccentColor       string `json:"accentColor" validate:"omitempty,hexcolor"`
}

type templateRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Channel string `json:"channel" validate:"required,oneof=email sms"`
	Subject string `json:"subject" validate:"max=300"`
	Body    string `json:"body" validate:"required"`
}

type createTenantRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone" validate:"max=32"`
}

// createTenant provisions a new agency. Operator-level: requires the
// "admin" role.
func (h *Handler) createTenant(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	if !id.HasRole("admin") {
		httpkit.HandleError(c, h.log, apperr.Forbidden("admin role required"))
		return
	}

	var req createTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest("invalid request body"))
		return
	}
	if err := validator.Struct(req); err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}

	tenant := &repository.Tenant{Name: req.Name, Email: req.Email, Phone: req.Phone}
	if err := h.repo.CreateTenant(c.Request.Context(), tenant); err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.Created(c, tenant)
}

func (h *Handler) getTenant(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	tenant, err := h.repo.GetTenant(c.Request.Context(), id.TenantID())
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.OK(c, tenant)
}

func (h *Handler) getBranding(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	branding, err := h.repo.GetBranding(c.Request.Context(), id.TenantID())
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.OK(c, branding)
}

func (h *Handler) updateBranding(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req brandingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest("invalid request body"))
		return
	}
	if err := validator.Struct(req); err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}

	current, err := h.repo.GetBranding(c.Request.Context(), id.TenantID())
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	branding := &repository.Branding{
		TenantID:          id.TenantID(),
		BackgroundColor:   req.BackgroundColor,
		ContentBackground: req.ContentBackground,
		TextColor:         req.TextColor,
		PrimaryColor:      req.PrimaryColor,
		AccentColor:       req.AccentColor,
		LogoKey:           current.LogoKey,
	}
	if err := h.repo.UpsertBranding(c.Request.Context(), branding); err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.OK(c, branding)
}

func (h *Handler) uploadLogo(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	file, header, err := c.Request.FormFile("logo")
	if err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest("logo file is required"))
		return
	}
	defer file.Close()

	key, err := h.svc.UploadLogo(c.Request.Context(), id.TenantID(), file,
		header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.OK(c, gin.H{"logoKey": key})
}

func (h *Handler) listTemplates(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	templates, err := h.repo.ListTemplates(c.Request.Context(), id.TenantID())
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.OK(c, gin.H{"templates": templates})
}

func (h *Handler) createTemplate(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest("invalid request body"))
		return
	}
	if err := validator.Struct(req); err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}

	tpl := &repository.MessageTemplate{
		TenantID: id.TenantID(),
		Name:     req.Name,
		Channel:  repository.TemplateChannel(req.Channel),
		Subject:  req.Subject,
		Body:     req.Body,
	}
	if err := h.repo.CreateTemplate(c.Request.Context(), tpl); err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.Created(c, tpl)
}

func (h *Handler) getTemplate(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	tplID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest("invalid template id"))
		return
	}
	tpl, err := h.repo.GetTemplate(c.Request.Context(), id.TenantID(), tplID)
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.OK(c, tpl)
}

func (h *Handler) updateTemplate(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	tplID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest("invalid template id"))
		return
	}

	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest("invalid request body"))
		return
	}
	if err := validator.Struct(req); err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}

	tpl := &repository.MessageTemplate{
		ID:       tplID,
		TenantID: id.TenantID(),
		Name:     req.Name,
		Channel:  repository.TemplateChannel(req.Channel),
		Subject:  req.Subject,
		Body:     req.Body,
	}
	if err := h.repo.UpdateTemplate(c.Request.Context(), tpl); err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.OK(c, tpl)
}

func (h *Handler) deleteTemplate(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	tplID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest("invalid template id"))
		return
	}
	if err := h.repo.DeleteTemplate(c.Request.Context(), id.TenantID(), tplID); err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.NoContent(c)
}
