package services

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/navaex/portal/internal/db"
	"github.com/navaex/portal/internal/schema"
)

// Catalog is GET /api/services. With ?slug= it returns that single
// service schema; without, the list of active services.
func Catalog(c echo.Context) error {
	ctx := c.Request().Context()

	if slug := c.QueryParam("slug"); slug != "" {
		svc, err := LoadBySlug(ctx, slug)
		if err != nil || svc.Status != schema.StatusActive {
			return c.JSON(http.StatusOK, echo.Map{"success": false, "error": "service not found"})
		}
		return c.JSON(http.StatusOK, echo.Map{"success": true, "data": svc})
	}

	rows, err := db.Conn.Query(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE status = 'active' ORDER BY title`)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "could not fetch services"})
	}
	defer rows.Close()

	var items []*schema.Service
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to read service"})
		}
		items = append(items, svc)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": items})
}

// GetBySlug is GET /api/services/:slug.
func GetBySlug(c echo.Context) error {
	svc, err := LoadBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil || svc.Status != schema.StatusActive {
		return c.JSON(http.StatusOK, echo.Map{"success": false, "error": "service not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": svc})
}

// AdminList is GET /admin/services: every service, drafts included.
func AdminList(c echo.Context) error {
	rows, err := db.Conn.Query(c.Request().Context(),
		`SELECT `+serviceColumns+` FROM services ORDER BY created_at DESC`)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch services"})
	}
	defer rows.Close()

	var items []*schema.Service
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read service"})
		}
		items = append(items, svc)
	}
	return c.JSON(http.StatusOK, echo.Map{"services": items})
}

// Create is POST /admin/services: the builder saves a new schema.
func Create(c echo.Context) error {
	var svc schema.Service
	if err := c.Bind(&svc); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if svc.Status == "" {
		svc.Status = schema.StatusDraft
	}
	if err := svc.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	svc.ID = uuid.New().String()
	fields, err := json.Marshal(svc.Fields)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid fields"})
	}

	_, err = db.Conn.Exec(c.Request().Context(), `
        INSERT INTO services (id, title, slug, base_fee, wallet_eligible, requires_identity, status, fields, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
		svc.ID, svc.Title, svc.Slug, svc.BaseFee, svc.WalletEligible,
		svc.RequiresIdentity, svc.Status, fields, time.Now())
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "could not create service (slug taken?)"})
	}

	return c.JSON(http.StatusCreated, echo.Map{"service_id": svc.ID, "message": "service created"})
}

// Update is PUT /admin/services/:id: the builder replaces a schema.
func Update(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "service id required"})
	}

	var svc schema.Service
	if err := c.Bind(&svc); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if svc.Status == "" {
		svc.Status = schema.StatusDraft
	}
	if err := svc.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	fields, err := json.Marshal(svc.Fields)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid fields"})
	}

	ct, err := db.Conn.Exec(c.Request().Context(), `
        UPDATE services
        SET title = $1, slug = $2, base_fee = $3, wallet_eligible = $4,
            requires_identity = $5, status = $6, fields = $7, updated_at = NOW()
        WHERE id = $8`,
		svc.Title, svc.Slug, svc.BaseFee, svc.WalletEligible,
		svc.RequiresIdentity, svc.Status, fields, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update service"})
	}
	if ct.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "service updated", "service_id": id})
}

// Delete is DELETE /admin/services/:id. Services referenced by requests
// cannot be deleted; deactivate them instead.
func Delete(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "service id required"})
	}

	ctx := c.Request().Context()
	var inUse bool
	_ = db.Conn.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM service_requests WHERE service_id = $1)`, id).Scan(&inUse)
	if inUse {
		return c.JSON(http.StatusConflict, echo.Map{"error": "service has requests; set status inactive instead"})
	}

	ct, err := db.Conn.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete service"})
	}
	if ct.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "service deleted", "service_id": id})
}
