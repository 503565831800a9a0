package alerts

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hibiken/asynq"
)

// ensureClient returns a usable client instance
func ensureClient() *asynq.Client {
	if client == nil {
		Init()
	}
	return client
}

// EnqueueWelcomeEmail schedules a welcome email to the user
func EnqueueWelcomeEmail(userID, email, name string) error {
	base := os.Getenv("APP_URL")
	if base == "" {
		base = "http://localhost:3000"
	}
	base = strings.TrimRight(base, "/")

	subject := fmt.Sprintf("Welcome to Navaex, %s!", name)
	body := fmt.Sprintf("Hi %s, thanks for joining Navaex.\n\nOpen your account: %s\n\nComplete your identity verification to unlock all services.", name, base)

	env := EmailEnvelope{
		To:      email,
		Subject: subject,
		Body:    body,
	}
	payload := WelcomeEmailPayload{UserID: userID, Name: name, Email: email, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskWelcomeEmail, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}

// EnqueuePasswordReset schedules a password reset notification
func EnqueuePasswordReset(userID, email, resetURL, name string) error {
	expiry := os.Getenv("PASSWORD_RESET_EXP_MINUTES")
	if expiry == "" {
		expiry = "30"
	}
	subject := "Password reset instructions"
	body := fmt.Sprintf("Hello %s,\n\nWe received a request to reset your Navaex password.\n\nTo proceed, open the link below:\n%s\n\nThis link expires in %s minutes. If you did not request this, no action is required.\n\n— Navaex Team", name, resetURL, expiry)

	env := EmailEnvelope{To: email, Subject: subject, Body: body}
	payload := PasswordResetPayload{UserID: userID, Email: email, ResetURL: resetURL, Envelope: env, Requested: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskPasswordReset, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}

// EnqueueRequestSubmitted alerts the back office about a new service
// request. Admin recipients are resolved when the task runs.
func EnqueueRequestSubmitted(requestID, serviceTitle, customerID string, amount int64) error {
	payload := RequestSubmittedPayload{
		RequestID:    requestID,
		ServiceTitle: serviceTitle,
		CustomerID:   customerID,
		Amount:       amount,
		SentAt:       time.Now(),
	}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskRequestSubmitted, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("alerts"))
	return err
}

// EnqueueRequestStatus notifies the customer that their request moved
// to a new status. The customer's email is resolved when the task runs.
func EnqueueRequestStatus(requestID, serviceTitle, customerID, status string) error {
	payload := RequestStatusPayload{
		RequestID:    requestID,
		ServiceTitle: serviceTitle,
		CustomerID:   customerID,
		Status:       status,
		SentAt:       time.Now(),
	}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskRequestStatus, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}
