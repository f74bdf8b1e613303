// Package transport defines the request/response DTOs for consumer routes.
package transport

import "time"

// CreateConsumerRequest creates a debtor record.
type CreateConsumerRequest struct {
	FirstName string            `json:"firstName" validate:"required,max=100"`
	LastName  string            `json:"lastName" validate:"required,max=100"`
	Email     string            `json:"email" validate:"required,email"`
	Phone     string            `json:"phone" validate:"max=32"`
	FolderID  string            `json:"folderId" validate:"omitempty,uuid"`
	Metadata  map[string]string `json:"metadata"`
}

// CreateAccountRequest places a debt account with the agency.
type CreateAccountRequest struct {
	ConsumerID    string     `json:"consumerId" validate:"required,uuid"`
	AccountNumber string     `json:"accountNumber" validate:"required,max=64"`
	CreditorName  string     `json:"creditorName" validate:"required,max=200"`
	BalanceCents  int64      `json:"balanceCents" validate:"min=0"`
	FolderID      string     `json:"folderId" validate:"omitempty,uuid"`
	DueDate       *time.Time `json:"dueDate"`
}

// RecordPaymentRequest reports a settled or ad-hoc payment.
type RecordPaymentRequest struct {
	ConsumerID  string `json:"consumerId" validate:"required,uuid"`
	AccountID   string `json:"accountId" validate:"required,uuid"`
	AmountCents int64  `json:"amountCents" validate:"required,min=1"`
	OneTime     bool   `json:"oneTime"`
}

// PaymentFailureRequest reports a declined payment attempt.
type PaymentFailureRequest struct {
	ConsumerID string `json:"consumerId" validate:"required,uuid"`
	AccountID  string `json:"accountId" validate:"required,uuid"`
	Reason     string `json:"reason" validate:"max=500"`
}

// MarkOverdueRequest flags an account as past due.
type MarkOverdueRequest struct {
	ConsumerID string    `json:"consumerId" validate:"required,uuid"`
	AccountID  string    `json:"accountId" validate:"required,uuid"`
	DueDate    time.Time `json:"dueDate" validate:"required"`
}

// CreateFolderRequest creates a targeting folder.
type CreateFolderRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// VerifyAccessCodeRequest is a consumer portal sign-in attempt.
type VerifyAccessCodeRequest struct {
	Code string `json:"code" validate:"required,len=8"`
}

// AccessCodeResponse returns a freshly issued portal code.
type AccessCodeResponse struct {
	Code string `json:"code"`
}
