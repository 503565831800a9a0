package wallet

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/navaex/portal/internal/logger"
	"github.com/navaex/portal/internal/payment"
)

type TopupRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

// Topup is POST /api/wallet/topup: registers a gateway payment whose
// callback credits the wallet.
func Topup(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	req := new(TopupRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	p, err := payment.CreatePending(c.Request().Context(), userID,
		payment.PurposeWalletTopup, req.Amount, "wallet top-up", nil, nil)
	if err != nil {
		logger.L.Warn("topup payment failed", zap.String("user_id", userID), zap.Error(err))
		return c.JSON(http.StatusBadGateway, echo.Map{"success": false, "error": "payment gateway unavailable"})
	}

	data := echo.Map{"paymentUrl": p.PaymentURL, "amount": p.Amount}
	if p.Duplicate {
		data["duplicate"] = true
		data["redirectTo"] = p.PaymentURL
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": data})
}
