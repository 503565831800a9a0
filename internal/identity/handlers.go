package identity

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/navaex/portal/internal/db"
)

type Record struct {
	ID         string         `json:"id"`
	UserID     string         `json:"user_id"`
	Kind       string         `json:"kind"`
	Payload    map[string]any `json:"payload"`
	Status     string         `json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
	ReviewedAt *time.Time     `json:"reviewed_at,omitempty"`
}

type NationalRequest struct {
	FullName   string `json:"full_name" validate:"required"`
	NationalID string `json:"national_id" validate:"required"`
	BirthDate  string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
}

// SubmitNational is POST /api/identity/national. Resubmission replaces
// a pending or rejected record; an accepted record is final.
func SubmitNational(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)
	req := new(NationalRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if !ValidNationalID(req.NationalID) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid national id", "field": "national_id"})
	}

	ctx := c.Request().Context()
	var accepted bool
	_ = db.Conn.QueryRow(ctx, `
        SELECT EXISTS (SELECT 1 FROM identity_records
        WHERE user_id = $1 AND kind = 'national' AND status = 'accepted')`, userID).Scan(&accepted)
	if accepted {
		return c.JSON(http.StatusConflict, echo.Map{"error": "national identity already accepted"})
	}

	payload, _ := json.Marshal(map[string]any{
		"full_name":   req.FullName,
		"national_id": req.NationalID,
		"birth_date":  req.BirthDate,
	})

	_, err := db.Conn.Exec(ctx, `DELETE FROM identity_records
        WHERE user_id = $1 AND kind = 'national' AND status <> 'accepted'`, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not replace record"})
	}
	_, err = db.Conn.Exec(ctx, `
        INSERT INTO identity_records (id, user_id, kind, payload, status, created_at)
        VALUES ($1, $2, 'national', $3, 'pending', $4)`,
		uuid.New().String(), userID, payload, time.Now())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not save record"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "national identity submitted for review"})
}

type BankingRequest struct {
	BankName string `json:"bank_name" validate:"required"`
	Sheba    string `json:"sheba" validate:"required"`
	CardPAN  string `json:"card_pan" validate:"omitempty,len=16,numeric"`
}

// SubmitBanking is POST /api/identity/banking. Users may hold several
// banking records; each is reviewed independently.
func SubmitBanking(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)
	req := new(BankingRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if !ValidSheba(req.Sheba) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid sheba number", "field": "sheba"})
	}

	payload, _ := json.Marshal(map[string]any{
		"bank_name": req.BankName,
		"sheba":     req.Sheba,
		"card_pan":  req.CardPAN,
	})
	_, err := db.Conn.Exec(c.Request().Context(), `
        INSERT INTO identity_records (id, user_id, kind, payload, status, created_at)
        VALUES ($1, $2, 'banking', $3, 'pending', $4)`,
		uuid.New().String(), userID, payload, time.Now())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not save record"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "banking info submitted for review"})
}

// Status is GET /api/identity: the caller's records plus the overall
// verification verdict.
func Status(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)
	ctx := c.Request().Context()

	rows, err := db.Conn.Query(ctx, `
        SELECT id, user_id, kind, payload, status, created_at, reviewed_at
        FROM identity_records WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch records"})
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var payload []byte
		if err := rows.Scan(&r.ID, &r.UserID, &r.Kind, &payload, &r.Status, &r.CreatedAt, &r.ReviewedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "scan error"})
		}
		_ = json.Unmarshal(payload, &r.Payload)
		records = append(records, r)
	}

	verified, err := Verified(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not evaluate verification"})
	}
	return c.JSON(http.StatusOK, echo.Map{"verified": verified, "records": records})
}

// AdminPending is GET /admin/identity/pending.
func AdminPending(c echo.Context) error {
	rows, err := db.Conn.Query(c.Request().Context(), `
        SELECT id, user_id, kind, payload, status, created_at, reviewed_at
        FROM identity_records WHERE status = 'pending' ORDER BY created_at ASC`)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch records"})
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var payload []byte
		if err := rows.Scan(&r.ID, &r.UserID, &r.Kind, &payload, &r.Status, &r.CreatedAt, &r.ReviewedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "scan error"})
		}
		_ = json.Unmarshal(payload, &r.Payload)
		records = append(records, r)
	}
	return c.JSON(http.StatusOK, echo.Map{"records": records})
}

type ReviewRequest struct {
	Status string `json:"status" validate:"required,oneof=accepted rejected"`
}

// AdminReview is POST /admin/identity/:id/review.
func AdminReview(c echo.Context) error {
	adminID, _ := c.Get("user_id").(string)
	recordID := c.Param("id")
	if recordID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "record id required"})
	}

	req := new(ReviewRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ct, err := db.Conn.Exec(c.Request().Context(), `
        UPDATE identity_records
        SET status = $1, reviewed_by = $2, reviewed_at = NOW()
        WHERE id = $3 AND status = 'pending'`,
		req.Status, adminID, recordID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not review record"})
	}
	if ct.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "pending record not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "record " + req.Status, "record_id": recordID})
}
