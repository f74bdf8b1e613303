// Package handler exposes arrangement option routes, including the summary
// preview the admin UI shows while editing a plan.
package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"collectflow_backend/internal/arrangements"
	"collectflow_backend/internal/arrangements/repository"
	"collectflow_backend/platform/apperr"
	"collectflow_backend/platform/httpkit"
	"collectflow_backend/platform/logger"
	"collectflow_backend/platform/validator"
)

type Handler struct {
	repo *repository.Repository
	log  *logger.Logger
}

func New(repo *repository.Repository, log *logger.Logger) *Handler {
	return &Handler{repo: repo, log: log}
}

// RegisterRoutes mounts arrangement routes on an authenticated group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/arrangements", h.list)
	rg.POST("/arrangements", h.create)
	rg.GET("/arrangements/:id", h.get)
	rg.PUT("/arrangements/:id", h.update)
	rg.DELETE("/arrangements/:id", h.delete)
	rg.POST("/arrangements/preview", h.preview)
}

type optionRequest struct {
	Name                   string     `json:"name" validate:"required,max=200"`
	PlanType               string     `json:"planType" validate:"omitempty,oneof=range fixed_monthly settlement custom_terms one_time_payment"`
	MonthlyPaymentMinCents *int64     `json:"monthlyPaymentMinCents" validate:"omitempty,min=0"`
	MonthlyPaymentMaxCents *int64     `json:"monthlyPaymentMaxCents" validate:"omitempty,min=0"`
	FixedMonthlyCents      *int64     `json:"fixedMonthlyCents" validate:"omitempty,min=0"`
	MaxTermMonths          *int       `json:"maxTermMonths" validate:"omitempty,min=1"`
	BalanceMinCents        *int64     `json:"balanceMinCents" validate:"omitempty,min=0"`
	BalanceMaxCents        *int64     `json:"balanceMaxCents" validate:"omitempty,min=0"`
	PayoffPercentageBps    *int64     `json:"payoffPercentageBps" validate:"omitempty,min=1,max=10000"`
	SettlementPaymentCount *int       `json:"settlementPaymentCount" validate:"omitempty,min=1"`
	SettlementTotalCents   *int64     `json:"settlementTotalCents" validate:"omitempty,min=0"`
	PayoffText             string     `json:"payoffText" validate:"max=500"`
	ExpiresAt              *time.Time `json:"expiresAt"`
	TermsText              string     `json:"termsText" validate:"max=1000"`
	OneTimeMinimumCents    *int64     `json:"oneTimeMinimumCents" validate:"omitempty,min=0"`
	IsActive               bool       `json:"isActive"`
}

func (r optionRequest) toOption() arrangements.Option {
	return arrangements.Option{
		Name:                        r.Name,
		PlanType:                    arrangements.PlanType(r.PlanType),
		MonthlyPaymentMinCents:      r.MonthlyPaymentMinCents,
		MonthlyPaymentMaxCents:      r.MonthlyPaymentMaxCents,
		FixedMonthlyCents:           r.FixedMonthlyCents,
		MaxTermMonths:               r.MaxTermMonths,
		BalanceMinCents:             r.BalanceMinCents,
		BalanceMaxCents:             r.BalanceMaxCents,
		PayoffPercentageBasisPoints: r.PayoffPercentageBps,
		SettlementPaymentCount:      r.SettlementPaymentCount,
		SettlementTotalCents:        r.SettlementTotalCents,
		PayoffText:                  r.PayoffText,
		ExpiresAt:                   r.ExpiresAt,
		TermsText:                   r.TermsText,
		OneTimeMinimumCents:         r.OneTimeMinimumCents,
		IsActive:                    r.IsActive,
	}
}

func (h *Handler) list(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	options, err := h.repo.ListByTenant(c.Request.Context(), id.TenantID())
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.OK(c, gin.H{"arrangements": options})
}

func (h *Handler) create(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req optionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest("invalid request body"))
		return
	}
	if err := validator.Struct(req); err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}

	opt := req.toOption()
	opt.TenantID = id.TenantID()
	if err := h.repo.Create(c.Request.Context(), &opt); err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.Created(c, opt)
}

func (h *Handler) get(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	optID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest("invalid arrangement id"))
		return
	}
	opt, err := h.repo.Get(c.Request.Context(), id.TenantID(), optID)
	if err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.OK(c, gin.H{"arrangement": opt, "summary": arrangements.Summary(*opt)})
}

func (h *Handler) update(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	optID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest("invalid arrangement id"))
		return
	}

	var req optionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest("invalid request body"))
		return
	}
	if err := validator.Struct(req); err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}

	opt := req.toOption()
	opt.ID = optID
	opt.TenantID = id.TenantID()
	if err := h.repo.Update(c.Request.Context(), &opt); err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.OK(c, opt)
}

func (h *Handler) delete(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	optID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest("invalid arrangement id"))
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id.TenantID(), optID); err != nil {
		httpkit.HandleError(c, h.log, err)
		return
	}
	httpkit.NoContent(c)
}

// preview renders the summary for an unsaved option.
func (h *Handler) preview(c *gin.Context) {
	if id := httpkit.MustGetIdentity(c); id == nil {
		return
	}

	var req optionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, h.log, apperr.BadRequest("invalid request body"))
		return
	}

	opt := req.toOption()
	httpkit.OK(c, gin.H{"summary": arrangements.Summary(opt), "enriched": arrangements.Enrich(&opt)})
}
