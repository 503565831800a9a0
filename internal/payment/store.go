package payment

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/navaex/portal/internal/db"
)

// Payment purposes.
const (
	PurposeServiceRequest = "service_request"
	PurposeWalletTopup    = "wallet_topup"
)

// Payment statuses.
const (
	StatusPending = "pending"
	StatusPaid    = "paid"
	StatusFailed  = "failed"
)

// Payment is one tracked gateway payment.
type Payment struct {
	ID         string
	UserID     string
	Purpose    string
	Amount     int64
	ServiceID  *string
	Metadata   map[string]any
	Status     string
	PaymentURL string
	Duplicate  bool
	CreatedAt  time.Time
}

// CreatePending registers a payment with the gateway and stores the
// pending row. When the user already has a pending payment for the same
// purpose and service, that payment is re-registered and returned with
// Duplicate set; the stored amount and snapshot stay authoritative so
// the gateway collects exactly what finalization will credit.
func CreatePending(ctx context.Context, userID, purpose string, amount int64, description string, serviceID *string, metadata map[string]any) (*Payment, error) {
	existing := &Payment{UserID: userID, Purpose: purpose, ServiceID: serviceID,
		Status: StatusPending, Duplicate: true}
	var existingDesc string
	var existingMeta []byte
	err := db.Conn.QueryRow(ctx, `
        SELECT id, amount, COALESCE(description, ''), metadata FROM payments
        WHERE user_id = $1 AND purpose = $2 AND status = 'pending'
          AND ($3::uuid IS NULL OR service_id = $3)
        ORDER BY created_at DESC LIMIT 1`,
		userID, purpose, serviceID).
		Scan(&existing.ID, &existing.Amount, &existingDesc, &existingMeta)
	if err == nil {
		if len(existingMeta) > 0 {
			_ = json.Unmarshal(existingMeta, &existing.Metadata)
		}
		ref, reqErr := existing.registerWithGateway(ctx, existingDesc)
		if reqErr != nil {
			return nil, reqErr
		}
		_, _ = db.Conn.Exec(ctx, `UPDATE payments SET gateway_ref = $1 WHERE id = $2`, ref, existing.ID)
		return existing, nil
	}
	if err != pgx.ErrNoRows {
		return nil, err
	}

	p := &Payment{
		ID:        uuid.New().String(),
		UserID:    userID,
		Purpose:   purpose,
		Amount:    amount,
		ServiceID: serviceID,
		Metadata:  metadata,
		Status:    StatusPending,
	}
	meta, err := json.Marshal(metadata)
	if err != nil {
		return nil, err
	}

	ref, err := p.registerWithGateway(ctx, description)
	if err != nil {
		return nil, err
	}

	_, err = db.Conn.Exec(ctx, `
        INSERT INTO payments (id, user_id, purpose, amount, description, service_id, metadata, status, gateway_ref, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending', $8, $9)`,
		p.ID, userID, purpose, amount, description, serviceID, meta, ref, time.Now())
	if err != nil {
		return nil, err
	}
	return p, nil
}

// registerWithGateway requests a redirect URL for the payment's own
// amount and sets PaymentURL. The charge is always p.Amount, never a
// caller-supplied figure.
func (p *Payment) registerWithGateway(ctx context.Context, description string) (ref string, err error) {
	url, ref, err := requestPaymentURL(ctx, p.ID, p.Amount, description)
	if err != nil {
		return "", err
	}
	p.PaymentURL = url
	return ref, nil
}

// Get loads a payment by id.
func Get(ctx context.Context, id string) (*Payment, error) {
	p := &Payment{}
	var meta []byte
	err := db.Conn.QueryRow(ctx, `
        SELECT id, user_id, purpose, amount, service_id, metadata, status, created_at
        FROM payments WHERE id = $1`, id).
		Scan(&p.ID, &p.UserID, &p.Purpose, &p.Amount, &p.ServiceID, &meta, &p.Status, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(meta) > 0 {
		_ = json.Unmarshal(meta, &p.Metadata)
	}
	return p, nil
}

// MarkPaidTx flips a pending payment to paid inside the caller's
// transaction. Returns pgx.ErrNoRows when the payment was not pending,
// which makes callback finalization idempotent.
func MarkPaidTx(ctx context.Context, tx pgx.Tx, id string) error {
	ct, err := tx.Exec(ctx,
		`UPDATE payments SET status = 'paid', paid_at = NOW() WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// MarkFailed records a failed gateway verification.
func MarkFailed(ctx context.Context, id string) {
	_, _ = db.Conn.Exec(ctx,
		`UPDATE payments SET status = 'failed' WHERE id = $1 AND status = 'pending'`, id)
}

// VerifyCallback confirms a returned payment with the gateway.
func VerifyCallback(ctx context.Context, p *Payment) (bool, error) {
	var ref string
	if err := db.Conn.QueryRow(ctx,
		`SELECT COALESCE(gateway_ref, '') FROM payments WHERE id = $1`, p.ID).Scan(&ref); err != nil {
		return false, err
	}
	return verifyWithGateway(ctx, ref)
}
