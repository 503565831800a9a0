package payment

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/navaex/portal/internal/logger"
)

type RequestBody struct {
	Amount      int64          `json:"amount" validate:"required,gt=0"`
	Description string         `json:"description"`
	ServiceID   *string        `json:"serviceId" validate:"omitempty,uuid4"`
	Currency    string         `json:"currency" validate:"omitempty,oneof=IRT"`
	Metadata    map[string]any `json:"metadata"`
}

// Request is POST /api/payment/request: registers a gateway payment and
// returns the redirect URL. With a serviceId the payment finalizes into
// a service request on callback (metadata carries the form snapshot);
// without one it is a wallet top-up.
func Request(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "unauthorized"})
	}

	req := new(RequestBody)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid request"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": err.Error()})
	}

	purpose := PurposeWalletTopup
	if req.ServiceID != nil {
		purpose = PurposeServiceRequest
	}

	p, err := CreatePending(c.Request().Context(), userID, purpose, req.Amount, req.Description, req.ServiceID, req.Metadata)
	if err != nil {
		logger.L.Warn("payment request failed", zap.String("user_id", userID), zap.Error(err))
		return c.JSON(http.StatusBadGateway, echo.Map{"success": false, "error": "payment gateway unavailable"})
	}

	data := echo.Map{"paymentUrl": p.PaymentURL}
	if p.Duplicate {
		data["duplicate"] = true
		data["redirectTo"] = p.PaymentURL
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": data})
}
