package alerts

import "time"

// Task type constants
const (
	TaskWelcomeEmail     = "email:welcome"
	TaskPasswordReset    = "email:password_reset"
	TaskRequestSubmitted = "email:request_submitted"
	TaskRequestStatus    = "email:request_status"
)

// Common envelope for email-like notifications
type EmailEnvelope struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Welcome email payload
type WelcomeEmailPayload struct {
	UserID   string        `json:"user_id"`
	Name     string        `json:"name"`
	Email    string        `json:"email"`
	Envelope EmailEnvelope `json:"envelope"`
	SentAt   time.Time     `json:"sent_at"`
}

// Password reset payload
type PasswordResetPayload struct {
	UserID    string        `json:"user_id"`
	Email     string        `json:"email"`
	ResetURL  string        `json:"reset_url"`
	Envelope  EmailEnvelope `json:"envelope"`
	Requested time.Time     `json:"requested"`
}

// New service request alert, fanned out to every admin
type RequestSubmittedPayload struct {
	RequestID    string    `json:"request_id"`
	ServiceTitle string    `json:"service_title"`
	CustomerID   string    `json:"customer_id"`
	Amount       int64     `json:"amount"`
	SentAt       time.Time `json:"sent_at"`
}

// Status change notification for the requesting customer
type RequestStatusPayload struct {
	RequestID    string    `json:"request_id"`
	ServiceTitle string    `json:"service_title"`
	CustomerID   string    `json:"customer_id"`
	Status       string    `json:"status"`
	SentAt       time.Time `json:"sent_at"`
}
