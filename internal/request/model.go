// Package request implements the service-request lifecycle: customer
// submission (validation, pricing, payment flow dispatch), gateway
// callback finalization, and the admin back office.
package request

import (
	"time"

	"github.com/navaex/portal/internal/forms"
)

// Request statuses.
const (
	StatusPending      = "pending"
	StatusInProgress   = "in_progress"
	StatusCompleted    = "completed"
	StatusRejected     = "rejected"
	StatusCancelled    = "cancelled"
	StatusRequiresInfo = "requires_info"
)

// Payment methods.
const (
	MethodWallet  = "wallet"
	MethodGateway = "gateway"
	MethodCard    = "card"
)

// AdminNote is one back-office annotation on a request.
type AdminNote struct {
	Text              string    `json:"text"`
	AuthorID          string    `json:"authorId"`
	VisibleToCustomer bool      `json:"visibleToCustomer"`
	CreatedAt         time.Time `json:"createdAt"`
}

// ServiceRequest is the persisted record of a customer's submission.
// Customers never mutate it after creation; admins own status and notes.
type ServiceRequest struct {
	ID            string          `json:"id"`
	ServiceID     string          `json:"serviceId"`
	ServiceTitle  string          `json:"serviceTitle,omitempty"`
	CustomerID    string          `json:"customerId"`
	CustomerName  string          `json:"customerName,omitempty"`
	CustomerPhone string          `json:"customerPhone,omitempty"`
	FormData      forms.FormState `json:"data"`
	PaymentMethod string          `json:"paymentMethod"`
	PaymentAmount int64           `json:"paymentAmount"`
	IsPaid        bool            `json:"isPaid"`
	ReceiptURL    string          `json:"receiptUrl,omitempty"`
	Status        string          `json:"status"`
	AdminNotes    []AdminNote     `json:"adminNotes"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func validStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted,
		StatusRejected, StatusCancelled, StatusRequiresInfo:
		return true
	}
	return false
}
