// Package events defines the domain events exchanged between modules.
// Event names are stable strings; payload structs carry the identifiers a
// subscriber needs to load its own data.
package events

import (
	"time"

	"github.com/google/uuid"

	"collectflow_backend/platform/events"
)

// Event names.
const (
	AccountCreatedName     = "account.created"
	PaymentReceivedName    = "payment.received"
	PaymentOverdueName     = "payment.overdue"
	PaymentFailedName      = "payment.failed"
	OneTimePaymentName     = "payment.one_time"
	ManualTriggerName      = "sequence.manual_trigger"
	SequenceMessageDueName = "sequence.message_due"
	ConsumerRegisteredName = "consumer.registered"
)

// AccountCreated fires when a debt account is placed with the agency.
type AccountCreated struct {
	events.BaseEvent
	TenantID   uuid.UUID
	ConsumerID uuid.UUID
	AccountID  uuid.UUID
}

func (e AccountCreated) EventName() string { return AccountCreatedName }

// PaymentReceived fires when a consumer payment settles.
type PaymentReceived struct {
	events.BaseEvent
	TenantID    uuid.UUID
	ConsumerID  uuid.UUID
	AccountID   uuid.UUID
	AmountCents int64
}

func (e PaymentReceived) EventName() string { return PaymentReceivedName }

// PaymentOverdue fires when a scheduled payment passes its due date unpaid.
type PaymentOverdue struct {
	events.BaseEvent
	TenantID   uuid.UUID
	ConsumerID uuid.UUID
	AccountID  uuid.UUID
	DueDate    time.Time
}

func (e PaymentOverdue) EventName() string { return PaymentOverdueName }

// PaymentFailed fires when a payment attempt is declined or bounces.
type PaymentFailed struct {
	events.BaseEvent
	TenantID   uuid.UUID
	ConsumerID uuid.UUID
	AccountID  uuid.UUID
	Reason     string
}

func (e PaymentFailed) EventName() string { return PaymentFailedName }

// OneTimePayment fires when a consumer makes an ad-hoc payment outside a plan.
type OneTimePayment struct {
	events.BaseEvent
	TenantID    uuid.UUID
	ConsumerID  uuid.UUID
	AccountID   uuid.UUID
	AmountCents int64
}

func (e OneTimePayment) EventName() string { return OneTimePaymentName }

// ConsumerRegistered fires when a consumer activates their portal account.
type ConsumerRegistered struct {
	events.BaseEvent
	TenantID   uuid.UUID
	ConsumerID uuid.UUID
}

func (e ConsumerRegistered) EventName() string { return ConsumerRegisteredName }

// ManualTrigger fires when agency staff manually start a sequence for a
// consumer. SequenceID narrows enrollment to that sequence alone.
type ManualTrigger struct {
	events.BaseEvent
	TenantID   uuid.UUID
	ConsumerID uuid.UUID
	AccountID  uuid.UUID
	SequenceID uuid.UUID
}

func (e ManualTrigger) EventName() string { return ManualTriggerName }

// SequenceMessageDue fires from the scheduler worker when an enrollment's
// next message time has arrived.
type SequenceMessageDue struct {
	events.BaseEvent
	TenantID     uuid.UUID
	EnrollmentID uuid.UUID
}

func (e SequenceMessageDue) EventName() string { return SequenceMessageDueName }
