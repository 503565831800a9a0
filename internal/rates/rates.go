// Package rates serves the live currency price table backing the price
// engine: persisted in Postgres, admin-editable, optionally refreshed
// from an upstream provider.
package rates

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/navaex/portal/internal/db"
	"github.com/navaex/portal/internal/pricing"
)

// Currency is the wire representation of one quoted currency.
// "salePrise" matches the spelling the web client already depends on.
type Currency struct {
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	BuyPrice  float64   `json:"buyPrice"`
	SalePrice float64   `json:"salePrise"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LoadTable reads the current quotes into the shape the price engine
// consumes.
func LoadTable(ctx context.Context) (pricing.RateTable, error) {
	rows, err := db.Conn.Query(ctx, `SELECT code, buy_price, sale_price FROM currencies`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	table := pricing.RateTable{}
	for rows.Next() {
		var code string
		var buy, sell float64
		if err := rows.Scan(&code, &buy, &sell); err != nil {
			return nil, err
		}
		table[code] = pricing.Rate{Buy: buy, Sell: sell}
	}
	return table, rows.Err()
}

// List is GET /api/currencies.
func List(c echo.Context) error {
	rows, err := db.Conn.Query(c.Request().Context(),
		`SELECT code, name, buy_price, sale_price, updated_at FROM currencies ORDER BY code`)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "could not fetch currencies"})
	}
	defer rows.Close()

	var currencies []Currency
	for rows.Next() {
		var cur Currency
		if err := rows.Scan(&cur.Code, &cur.Name, &cur.BuyPrice, &cur.SalePrice, &cur.UpdatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to read currency"})
		}
		currencies = append(currencies, cur)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "currencies": currencies})
}

type UpsertRequest struct {
	Code      string  `json:"code" validate:"required,len=3,uppercase,alpha"`
	Name      string  `json:"name" validate:"required"`
	BuyPrice  float64 `json:"buyPrice" validate:"gte=0"`
	SalePrice float64 `json:"salePrise" validate:"gte=0"`
}

// Upsert is PUT /admin/currencies.
func Upsert(c echo.Context) error {
	req := new(UpsertRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	_, err := db.Conn.Exec(c.Request().Context(), `
        INSERT INTO currencies (code, name, buy_price, sale_price, updated_at)
        VALUES ($1, $2, $3, $4, NOW())
        ON CONFLICT (code) DO UPDATE
        SET name = EXCLUDED.name,
            buy_price = EXCLUDED.buy_price,
            sale_price = EXCLUDED.sale_price,
            updated_at = NOW()`,
		req.Code, req.Name, req.BuyPrice, req.SalePrice)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not save currency"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "currency saved", "code": req.Code})
}

// Delete is DELETE /admin/currencies/:code.
func Delete(c echo.Context) error {
	code := c.Param("code")
	if code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "currency code required"})
	}
	ct, err := db.Conn.Exec(c.Request().Context(), `DELETE FROM currencies WHERE code = $1`, code)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete currency"})
	}
	if ct.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "currency not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "currency deleted", "code": code})
}
