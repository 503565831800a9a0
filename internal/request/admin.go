package request

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/navaex/portal/internal/alerts"
	"github.com/navaex/portal/internal/db"
	"github.com/navaex/portal/internal/logger"
)

// AdminList is GET /admin/requests with optional status filter and
// limit/offset pagination.
func AdminList(c echo.Context) error {
	status := c.QueryParam("status")
	if status != "" && !validStatus(status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}
	limit := 20
	offset := 0
	if l := c.QueryParam("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}
	if o := c.QueryParam("offset"); o != "" {
		if v, err := strconv.Atoi(o); err == nil && v >= 0 {
			offset = v
		}
	}

	query := `
        SELECT ` + requestColumns + `
        FROM service_requests r JOIN services s ON s.id = r.service_id`
	args := []any{}
	if status != "" {
		query += ` WHERE r.status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY r.created_at DESC LIMIT $` + strconv.Itoa(len(args)+1) +
		` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := db.Conn.Query(c.Request().Context(), query, args...)
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
		items = append(items, r)
	}
	return c.JSON(http.StatusOK, echo.Map{"requests": items})
}

type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required,oneof=pending in_progress completed rejected cancelled requires_info"`
}

// UpdateStatus is PATCH /admin/requests/:id/status. The customer is
// notified of every transition.
func UpdateStatus(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "request id required"})
	}

	req := new(StatusUpdateRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx := c.Request().Context()
	var customerID, serviceTitle string
	err := db.Conn.QueryRow(ctx, `
        UPDATE service_requests r SET status = $1, updated_at = NOW()
        FROM services s
        WHERE r.id = $2 AND s.id = r.service_id
        RETURNING r.customer_id, s.title`, req.Status, id).Scan(&customerID, &serviceTitle)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
	}

	if err := alerts.EnqueueRequestStatus(id, serviceTitle, customerID, req.Status); err != nil {
		logger.L.Warn("could not enqueue status alert", zap.String("request_id", id), zap.Error(err))
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "status updated", "request_id": id, "status": req.Status})
}

type NoteRequest struct {
	Text              string `json:"text" validate:"required"`
	VisibleToCustomer bool   `json:"visibleToCustomer"`
}

// AddNote is POST /admin/requests/:id/notes: appends to the JSONB note
// log in-place.
func AddNote(c echo.Context) error {
	adminID, _ := c.Get("user_id").(string)
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "request id required"})
	}

	req := new(NoteRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	note := AdminNote{
		Text:              req.Text,
		AuthorID:          adminID,
		VisibleToCustomer: req.VisibleToCustomer,
		CreatedAt:         time.Now(),
	}
	encoded, err := json.Marshal(note)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not encode note"})
	}

	ct, err := db.Conn.Exec(c.Request().Context(), `
        UPDATE service_requests
        SET admin_notes = admin_notes || $1::jsonb, updated_at = NOW()
        WHERE id = $2`, string(encoded), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not add note"})
	}
	if ct.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "note added", "request_id": id})
}
