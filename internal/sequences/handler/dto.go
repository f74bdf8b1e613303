package handler

import (
	"github.com/google/uuid"

	"collectflow_backend/internal/campaigns/targeting"
	"collectflow_backend/internal/sequences/repository"
)

type sequenceRequest struct {
	Name             string         `json:"name" validate:"required,max=200"`
	IsActive         bool           `json:"isActive"`
	TriggerType      string         `json:"triggerType" validate:"required,oneof=event manual"`
	TriggerEvent     string         `json:"triggerEvent" validate:"omitempty,oneof=account_created payment_received payment_overdue payment_failed one_time_payment"`
	TriggerDelayDays int            `json:"triggerDelayDays" validate:"gte=0,lte=365"`
	Targeting        targeting.Spec `json:"targeting"`
}

func (r sequenceRequest) toSequence(tenantID uuid.UUID) *repository.Sequence {
	return &repository.Sequence{
		TenantID:         tenantID,
		Name:             r.Name,
		IsActive:         r.IsActive,
		TriggerType:      repository.TriggerType(r.TriggerType),
		TriggerEvent:     r.TriggerEvent,
		TriggerDelayDays: r.TriggerDelayDays,
		Targeting:        targeting.Sanitize(r.Targeting),
	}
}

type stepRequest struct {
	StepOrder     int    `json:"stepOrder" validate:"required,gte=1"`
	DelayDays     int    `json:"delayDays" validate:"gte=0,lte=365"`
	DelayHours    int    `json:"delayHours" validate:"gte=0,lte=23"`
	TemplateID    string `json:"templateId" validate:"required,uuid"`
	ArrangementID string `json:"arrangementId" validate:"omitempty,uuid"`
}

func (r stepRequest) toStep(sequenceID uuid.UUID) *repository.Step {
	step := &repository.Step{
		SequenceID: sequenceID,
		StepOrder:  r.StepOrder,
		DelayDays:  r.DelayDays,
		DelayHours: r.DelayHours,
		TemplateID: uuid.MustParse(r.TemplateID),
	}
	if r.ArrangementID != "" {
		aid := uuid.MustParse(r.ArrangementID)
		step.ArrangementID = &aid
	}
	return step
}

type triggerRequest struct {
	ConsumerID string `json:"consumerId" validate:"required,uuid"`
	AccountID  string `json:"accountId" validate:"omitempty,uuid"`
}
