package request

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/navaex/portal/internal/db"
)

const requestColumns = `
    r.id, r.service_id, s.title, r.customer_id, r.form_data, r.payment_method,
    r.payment_amount, r.is_paid, COALESCE(r.receipt_url, ''), r.status, r.admin_notes,
    r.created_at, r.updated_at`

func scanRequest(row interface{ Scan(...any) error }) (*ServiceRequest, error) {
	var r ServiceRequest
	var formData, notes []byte
	err := row.Scan(&r.ID, &r.ServiceID, &r.ServiceTitle, &r.CustomerID, &formData,
		&r.PaymentMethod, &r.PaymentAmount, &r.IsPaid, &r.ReceiptURL, &r.Status,
		&notes, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(formData, &r.FormData); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(notes, &r.AdminNotes); err != nil {
		return nil, err
	}
	return &r, nil
}

// customerView strips notes the back office kept internal.
func customerView(r *ServiceRequest) *ServiceRequest {
	visible := make([]AdminNote, 0, len(r.AdminNotes))
	for _, n := range r.AdminNotes {
		if n.VisibleToCustomer {
			visible = append(visible, n)
		}
	}
	r.AdminNotes = visible
	return r
}

// ListMine is GET /api/service-requests.
func ListMine(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	rows, err := db.Conn.Query(c.Request().Context(), `
        SELECT `+requestColumns+`
        FROM service_requests r JOIN services s ON s.id = r.service_id
        WHERE r.customer_id = $1
        ORDER BY r.created_at DESC`, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch requests"})
	}
	defer rows.Close()

	var items []*ServiceRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read request"})
		}
		items = append(items, customerView(r))
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": items})
}

// GetMine is GET /api/service-requests/:id.
func GetMine(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id := c.Param("id")

	row := db.Conn.QueryRow(c.Request().Context(), `
        SELECT `+requestColumns+`
        FROM service_requests r JOIN services s ON s.id = r.service_id
        WHERE r.id = $1 AND r.customer_id = $2`, id, userID)
	r, err := scanRequest(row)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": customerView(r)})
}
