// Package services persists and serves administrator-defined service
// schemas: the catalog customers browse and the builder admins edit.
package services

import (
	"context"
	"encoding/json"

	"github.com/navaex/portal/internal/db"
	"github.com/navaex/portal/internal/schema"
)

func scanService(row interface{ Scan(...any) error }) (*schema.Service, error) {
	var svc schema.Service
	var fields []byte
	err := row.Scan(&svc.ID, &svc.Title, &svc.Slug, &svc.BaseFee, &svc.WalletEligible,
		&svc.RequiresIdentity, &svc.Status, &fields, &svc.CreatedAt, &svc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(fields, &svc.Fields); err != nil {
		return nil, err
	}
	return &svc, nil
}

const serviceColumns = `id, title, slug, base_fee, wallet_eligible, requires_identity, status, fields, created_at, updated_at`

// LoadBySlug fetches one service schema by its slug.
func LoadBySlug(ctx context.Context, slug string) (*schema.Service, error) {
	row := db.Conn.QueryRow(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE slug = $1`, slug)
	return scanService(row)
}

// LoadByID fetches one service schema by id.
func LoadByID(ctx context.Context, id string) (*schema.Service, error) {
	row := db.Conn.QueryRow(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE id = $1`, id)
	return scanService(row)
}
