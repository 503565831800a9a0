package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/navaex/portal/internal/db"
	"github.com/navaex/portal/internal/logger"
)

var (
	client *asynq.Client
	server *asynq.Server
)

// Init starts the Asynq server and initializes a shared client.
func Init() {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		if host := os.Getenv("REDIS_HOST"); host != "" {
			port := os.Getenv("REDIS_PORT")
			if port == "" {
				port = "6379"
			}
			redisAddr = host + ":" + port
		} else {
			redisAddr = "redis:6379"
			if os.Getenv("RUN_LOCAL") == "true" {
				redisAddr = "127.0.0.1:6379"
			}
		}
	}

	opts := asynq.RedisClientOpt{Addr: redisAddr}
	client = asynq.NewClient(opts)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskWelcomeEmail, handleWelcomeEmail)
	mux.HandleFunc(TaskPasswordReset, handlePasswordReset)
	mux.HandleFunc(TaskRequestSubmitted, handleRequestSubmitted)
	mux.HandleFunc(TaskRequestStatus, handleRequestStatus)

	server = asynq.NewServer(opts, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			"emails": 10,
			"alerts": 5,
		},
	})
	go func() {
		if err := server.Run(mux); err != nil {
			logger.L.Warn("asynq server stopped", zap.Error(err))
		}
	}()

	logger.L.Info("asynq initialized", zap.String("addr", redisAddr))
}

// Close releases client and stops server.
func Close() {
	if client != nil {
		_ = client.Close()
	}
	if server != nil {
		server.Shutdown()
	}
}

func handleWelcomeEmail(_ context.Context, t *asynq.Task) error {
	var p WelcomeEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	if err := SendEmail(p.Email, p.Envelope.Subject, p.Envelope.Body); err != nil {
		logger.L.Error("welcome email send failed", zap.String("to", p.Email), zap.Error(err))
		return err
	}
	logger.L.Info("welcome email sent", zap.String("to", p.Email), zap.String("user_id", p.UserID))
	return nil
}

func handlePasswordReset(_ context.Context, t *asynq.Task) error {
	var p PasswordResetPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	if err := SendEmail(p.Email, p.Envelope.Subject, p.Envelope.Body); err != nil {
		logger.L.Error("password reset send failed", zap.String("to", p.Email), zap.Error(err))
		return err
	}
	logger.L.Info("password reset sent", zap.String("to", p.Email))
	return nil
}

// handleRequestSubmitted fans the alert out to every active admin.
func handleRequestSubmitted(ctx context.Context, t *asynq.Task) error {
	var p RequestSubmittedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}

	rows, err := db.Conn.Query(ctx,
		`SELECT email FROM users WHERE role = 'admin' AND COALESCE(is_active, TRUE)`)
	if err != nil {
		return err
	}
	defer rows.Close()

	subject := fmt.Sprintf("New service request: %s", p.ServiceTitle)
	body := fmt.Sprintf("A new request for %q was submitted.\n\nRequest: %s\nCustomer: %s\nAmount: %d IRT",
		p.ServiceTitle, p.RequestID, p.CustomerID, p.Amount)

	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return err
		}
		if err := SendEmail(email, subject, body); err != nil {
			logger.L.Error("request alert send failed", zap.String("to", email), zap.Error(err))
			return err
		}
	}
	logger.L.Info("request alert sent", zap.String("request_id", p.RequestID))
	return nil
}

// handleRequestStatus looks up the customer and mails the transition.
func handleRequestStatus(ctx context.Context, t *asynq.Task) error {
	var p RequestStatusPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}

	var email, name string
	err := db.Conn.QueryRow(ctx,
		`SELECT email, name FROM users WHERE id = $1`, p.CustomerID).Scan(&email, &name)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Your request for %s is now %s", p.ServiceTitle, p.Status)
	body := fmt.Sprintf("Hello %s,\n\nYour request %s (%s) moved to status: %s.\n\nYou can follow it from your dashboard.\n\n— Navaex Team",
		name, p.RequestID, p.ServiceTitle, p.Status)

	if err := SendEmail(email, subject, body); err != nil {
		logger.L.Error("status email send failed", zap.String("to", email), zap.Error(err))
		return err
	}
	logger.L.Info("status email sent", zap.String("request_id", p.RequestID), zap.String("status", p.Status))
	return nil
}
