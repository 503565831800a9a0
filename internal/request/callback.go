package request

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/navaex/portal/internal/db"
	"github.com/navaex/portal/internal/forms"
	"github.com/navaex/portal/internal/logger"
	"github.com/navaex/portal/internal/payment"
	"github.com/navaex/portal/internal/services"
	"github.com/navaex/portal/internal/wallet"
)

func resultURL(status string, params url.Values) string {
	base := os.Getenv("APP_URL")
	if base == "" {
		base = "http://localhost:3000"
	}
	params.Set("status", status)
	return strings.TrimRight(base, "/") + "/payment/result?" + params.Encode()
}

// Callback is GET /api/payment/callback: the gateway redirects the
// browser here after a redirect-based payment. The payment is verified
// with the gateway and finalized: wallet top-ups credit the wallet,
// service payments create the request from the stored form snapshot.
// Re-entry on an already-finalized payment redirects to success.
func Callback(c echo.Context) error {
	paymentID := c.QueryParam("payment_id")
	if paymentID == "" {
		paymentID = c.QueryParam("order_id")
	}
	if paymentID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "payment_id required"})
	}

	ctx := c.Request().Context()
	p, err := payment.Get(ctx, paymentID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "payment not found"})
	}

	success := url.Values{
		"amount": {fmt.Sprint(p.Amount)},
		"type":   {p.Purpose},
	}
	if p.Status == payment.StatusPaid {
		return c.Redirect(http.StatusFound, resultURL("success", success))
	}

	verified, err := payment.VerifyCallback(ctx, p)
	if err != nil || !verified {
		payment.MarkFailed(ctx, p.ID)
		logger.L.Warn("payment verification failed", zap.String("payment_id", p.ID), zap.Error(err))
		return c.Redirect(http.StatusFound, resultURL("failed", url.Values{}))
	}

	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "transaction start failed"})
	}
	defer tx.Rollback(ctx)

	if err := payment.MarkPaidTx(ctx, tx, p.ID); err != nil {
		if err == pgx.ErrNoRows {
			// Raced with another callback delivery; the first one won.
			return c.Redirect(http.StatusFound, resultURL("success", success))
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "could not finalize payment"})
	}

	var requestID, serviceTitle string
	switch p.Purpose {
	case payment.PurposeWalletTopup:
		if err := wallet.CreditTx(ctx, tx, p.UserID, p.Amount, "wallet top-up", "topup", &p.ID); err != nil {
			logger.L.Error("topup credit failed", zap.String("payment_id", p.ID), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "could not credit wallet"})
		}
	case payment.PurposeServiceRequest:
		requestID, serviceTitle, err = createFromPayment(c, tx, p)
		if err != nil {
			logger.L.Error("request creation from payment failed", zap.String("payment_id", p.ID), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "could not create request"})
		}
		success.Set("orderId", requestID)
	}

	if err := tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "transaction failed"})
	}
	// Only a committed request is worth announcing.
	if requestID != "" {
		notifySubmitted(requestID, serviceTitle, p.UserID, p.Amount)
	}

	return c.Redirect(http.StatusFound, resultURL("success", success))
}

// createFromPayment rebuilds the form snapshot stored in the payment's
// metadata and writes the request row. The money is already captured at
// this point, so schema drift since submission must not lose the order:
// when coercion fails the raw snapshot is stored as-is.
func createFromPayment(c echo.Context, tx pgx.Tx, p *payment.Payment) (requestID, serviceTitle string, err error) {
	ctx := c.Request().Context()
	slug, _ := p.Metadata["slug"].(string)
	rawData, _ := p.Metadata["data"].(map[string]any)

	svc, err := services.LoadBySlug(ctx, slug)
	if err != nil {
		if p.ServiceID == nil {
			return "", "", err
		}
		svc, err = services.LoadByID(ctx, *p.ServiceID)
		if err != nil {
			return "", "", err
		}
	}

	state, err := forms.Coerce(svc, rawData)
	if err != nil {
		state = forms.FormState(rawData)
	}

	requestID = uuid.New().String()
	if err := insertTx(ctx, tx, requestID, svc.ID, p.UserID, state, MethodGateway, p.Amount, true, ""); err != nil {
		return "", "", err
	}
	return requestID, svc.Title, nil
}
