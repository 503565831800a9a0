package request

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/navaex/portal/internal/alerts"
	"github.com/navaex/portal/internal/db"
	"github.com/navaex/portal/internal/forms"
	"github.com/navaex/portal/internal/identity"
	"github.com/navaex/portal/internal/logger"
	"github.com/navaex/portal/internal/payment"
	"github.com/navaex/portal/internal/pricing"
	"github.com/navaex/portal/internal/rates"
	"github.com/navaex/portal/internal/schema"
	"github.com/navaex/portal/internal/services"
	"github.com/navaex/portal/internal/wallet"
)

type CreateBody struct {
	Service       string         `json:"service" validate:"required"`
	Data          map[string]any `json:"data"`
	PaymentMethod string         `json:"paymentMethod" validate:"required,oneof=wallet gateway card"`
	ReceiptURL    string         `json:"receiptUrl" validate:"omitempty,url"`
}

// Create is POST /api/service-requests: the submission pipeline. The
// form snapshot is coerced and validated against the service schema,
// the identity gate is applied, the amount is recomputed server-side
// from the live rate table, and the chosen payment flow runs.
func Create(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "unauthorized"})
	}

	req := new(CreateBody)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid request"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": err.Error()})
	}

	ctx := c.Request().Context()
	svc, err := services.LoadBySlug(ctx, req.Service)
	if err != nil || svc.Status != schema.StatusActive {
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "service not found"})
	}

	state, err := forms.Coerce(svc, req.Data)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": err.Error()})
	}
	if res := forms.Validate(svc, state); !res.OK {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"error":   "required field missing",
			"field":   res.MissingField,
		})
	}

	if svc.RequiresIdentity {
		verified, err := identity.Verified(ctx, userID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "could not evaluate verification"})
		}
		if !verified {
			return c.JSON(http.StatusForbidden, echo.Map{
				"success":     false,
				"error":       "identity verification required",
				"redirect_to": "/profile/identity",
			})
		}
	}

	table, err := rates.LoadTable(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "could not load rates"})
	}
	amount := pricing.ComputeTotal(svc, state, table).Round(0).IntPart()

	switch req.PaymentMethod {
	case MethodWallet:
		return walletFlow(c, svc, userID, state, amount)
	case MethodGateway:
		return gatewayFlow(c, svc, userID, req.Data, amount)
	case MethodCard:
		return cardFlow(c, svc, userID, state, amount, req.ReceiptURL)
	}
	return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "unknown payment method"})
}

// walletFlow debits the wallet and creates the paid request in one
// transaction, so a debit failure never leaves an order behind.
func walletFlow(c echo.Context, svc *schema.Service, userID string, state forms.FormState, amount int64) error {
	if !svc.WalletEligible {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "service not payable by wallet"})
	}

	ctx := c.Request().Context()
	balance, err := wallet.CurrentBalance(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "wallet not found"})
	}
	if balance < amount {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success":     false,
			"error":       "insufficient balance",
			"redirect_to": "/wallet/topup",
		})
	}

	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "transaction start failed"})
	}
	defer tx.Rollback(ctx)

	requestID := uuid.New().String()
	ref := requestID
	if err := wallet.DebitTx(ctx, tx, userID, amount, "service request "+svc.Title, "service_request", &ref); err != nil {
		if errors.Is(err, wallet.ErrInsufficientBalance) {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"success":     false,
				"error":       "insufficient balance",
				"redirect_to": "/wallet/topup",
			})
		}
		logger.L.Error("wallet debit failed", zap.String("user_id", userID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "wallet debit failed"})
	}
	if err := insertTx(ctx, tx, requestID, svc.ID, userID, state, MethodWallet, amount, true, ""); err != nil {
		logger.L.Error("request insert failed", zap.String("user_id", userID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "could not create request"})
	}
	if err := tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "transaction failed"})
	}

	notifySubmitted(requestID, svc.Title, userID, amount)
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "request submitted",
		"data":    echo.Map{"orderId": requestID, "amount": amount, "type": MethodWallet},
	})
}

// gatewayFlow registers a pending payment carrying the raw form
// snapshot; the request row is created when the gateway callback
// verifies. A pending duplicate re-uses the existing payment.
func gatewayFlow(c echo.Context, svc *schema.Service, userID string, rawData map[string]any, amount int64) error {
	metadata := map[string]any{
		"slug": svc.Slug,
		"data": rawData,
	}
	p, err := payment.CreatePending(c.Request().Context(), userID, payment.PurposeServiceRequest,
		amount, "service request "+svc.Title, &svc.ID, metadata)
	if err != nil {
		logger.L.Warn("gateway payment failed", zap.String("user_id", userID), zap.Error(err))
		return c.JSON(http.StatusBadGateway, echo.Map{"success": false, "error": "payment gateway unavailable"})
	}

	// On a duplicate, p carries the pending payment's own amount.
	data := echo.Map{"paymentUrl": p.PaymentURL, "amount": p.Amount, "type": MethodGateway}
	if p.Duplicate {
		data["duplicate"] = true
		data["redirectTo"] = p.PaymentURL
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": data})
}

// cardFlow records a manually-paid request with its uploaded receipt.
func cardFlow(c echo.Context, svc *schema.Service, userID string, state forms.FormState, amount int64, receiptURL string) error {
	if receiptURL == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "receiptUrl required for card payment"})
	}

	ctx := c.Request().Context()
	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "transaction start failed"})
	}
	defer tx.Rollback(ctx)

	requestID := uuid.New().String()
	if err := insertTx(ctx, tx, requestID, svc.ID, userID, state, MethodCard, amount, true, receiptURL); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "could not create request"})
	}
	if err := tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "transaction failed"})
	}

	notifySubmitted(requestID, svc.Title, userID, amount)
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "request submitted",
		"data":    echo.Map{"orderId": requestID, "amount": amount, "type": MethodCard},
	})
}

// insertTx writes the request row inside the caller's transaction.
func insertTx(ctx context.Context, tx pgx.Tx, id, serviceID, customerID string, state forms.FormState, method string, amount int64, isPaid bool, receiptURL string) error {
	formData, err := json.Marshal(state)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
        INSERT INTO service_requests
            (id, service_id, customer_id, form_data, payment_method, payment_amount, is_paid, receipt_url, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), 'pending', $9, $9)`,
		id, serviceID, customerID, formData, method, amount, isPaid, receiptURL, time.Now())
	return err
}

// notifySubmitted alerts the back office about a fresh request.
func notifySubmitted(requestID, serviceTitle, customerID string, amount int64) {
	if err := alerts.EnqueueRequestSubmitted(requestID, serviceTitle, customerID, amount); err != nil {
		logger.L.Warn("could not enqueue submission alert", zap.String("request_id", requestID), zap.Error(err))
	}
}
