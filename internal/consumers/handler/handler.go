// Package handler exposes consumer, account and folder routes.
package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"collectflow_backend/internal/consumers/repository"
	"collectflow_backend/internal/consumers/service"
	"collectflow_backend/internal/consumers/transport"
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

// RegisterRoutes mounts consumer routes on an authenticated group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/consumers", h.createConsumer)
	rg.GET("/consumers", h.listConsumers)
	rg.GET("/consumers/:id", h.getConsumer)
	rg.GET("/consumers/:id/accounts", h.listConsumerAccounts)
	rg.POST("/consumers/:id/access-code", h.issueAccessCode)
	rg.POST("/consumers/:id/access-code/verify", h.verifyAccessCode)

	rg.POST("/accounts", h.createAccount)
	rg.POST("/payments", h.recordPayment)
	rg.POST("/payments/failures", h.recordPaymentFailure)
	rg.POST("/accounts/overdue", h.markOverdue)

	rg.GET("/folders", h.listFolders)
	rg.POST("/folders", h.createFolder)
}

func (h *Handler) createConsumer(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.CreateConsumerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest("invalid request body"))
		return
	}
	if err := validator.Struct(req); err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}

	consumer := &repository.Consumer{
		TenantID:  id.TenantID(),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Metadata:  req.Metadata,
	}
	if req.FolderID != "" {
		fid := uuid.MustParse(req.FolderID)
		consumer.FolderID = &fid
	}

	if err := h.svc.CreateConsumer(c.Request.Context(), consumer); err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.Created(c, consumer)
}

func (h *Handler) listConsumers(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	consumers, err := h.repo.ListConsumersByTenant(c.Request.Context(), id.TenantID())
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.OK(c, gin.H{"consumers": consumers})
}

func (h *Handler) getConsumer(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	consumerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest("invalid consumer id"))
		return
	}
	consumer, err := h.repo.GetConsumer(c.Request.Context(), id.TenantID(), consumerID)
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.OK(c, consumer)
}

func (h *Handler) listConsumerAccounts(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	consumerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest("invalid consumer id"))
		return
	}
	accounts, err := h.repo.ListAccountsByConsumer(c.Request.Context(), id.TenantID(), consumerID)
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.OK(c, gin.H{"accounts": accounts})
}

func (h *Handler) issueAccessCode(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	consumerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest("invalid consumer id"))
		return
	}
	code, err := h.svc.IssueAccessCode(c.Request.Context(), id.TenantID(), consumerID)
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.OK(c, transport.AccessCodeResponse{Code: code})
}

func (h *Handler) verifyAccessCode(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	consumerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest("invalid consumer id"))
		return
	}

	var req transport.VerifyAccessCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest("invalid request body"))
		return
	}
	if err := validator.Struct(req); err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}

	if err := h.svc.VerifyAccessCode(c.Request.Context(), id.TenantID(), consumerID, req.Code); err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.NoContent(c)
}

func (h *Handler) createAccount(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest("invalid request body"))
		return
	}
	if err := validator.Struct(req); err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}

	account := &repository.Account{
		TenantID:      id.TenantID(),
		ConsumerID:    uuid.MustParse(req.ConsumerID),
		AccountNumber: req.AccountNumber,
		CreditorName:  req.CreditorName,
		BalanceCents:  req.BalanceCents,
		DueDate:       req.DueDate,
	}
	if req.FolderID != "" {
		fid := uuid.MustParse(req.FolderID)
		account.FolderID = &fid
	}

	if err := h.svc.PlaceAccount(c.Request.Context(), account); err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.Created(c, account)
}

func (h *Handler) recordPayment(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest("invalid request body"))
		return
	}
	if err := validator.Struct(req); err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}

	err := h.svc.RecordPayment(c.Request.Context(), id.TenantID(),
		uuid.MustParse(req.ConsumerID), uuid.MustParse(req.AccountID), req.AmountCents, req.OneTime)
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.NoContent(c)
}

func (h *Handler) recordPaymentFailure(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.PaymentFailureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest("invalid request body"))
		return
	}
	if err := validator.Struct(req); err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}

	err := h.svc.RecordPaymentFailure(c.Request.Context(), id.TenantID(),
		uuid.MustParse(req.ConsumerID), uuid.MustParse(req.AccountID), req.Reason)
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.NoContent(c)
}

func (h *Handler) markOverdue(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.MarkOverdueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest("invalid request body"))
		return
	}
	if err := validator.Struct(req); err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}

	err := h.svc.MarkAccountOverdue(c.Request.Context(), id.TenantID(),
		uuid.MustParse(req.ConsumerID), uuid.MustParse(req.AccountID), req.DueDate)
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.NoContent(c)
}

func (h *Handler) listFolders(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	folders, err := h.repo.ListFolders(c.Request.Context(), id.TenantID())
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.OK(c, gin.H{"folders": folders})
}

func (h *Handler) createFolder(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.CreateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest("invalid request body"))
		return
	}
	if err := validator.Struct(req); err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}

	folder := &repository.Folder{TenantID: id.TenantID(), Name: req.Name}
	if err := h.repo.CreateFolder(c.Request.Context(), folder); err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.Created(c, folder)
}
