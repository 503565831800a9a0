// Package identity holds the KYC records gating identity-validated
// services: a national-identity record and banking-info records, each
// reviewed by an admin.
package identity

import (
	"context"
	"regexp"

	"github.com/navaex/portal/internal/db"
)

// Record kinds.
const (
	KindNational = "national"
	KindBanking  = "banking"
)

// Review statuses.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

var shebaPattern = regexp.MustCompile(`^IR\d{24}$`)

// ValidSheba reports whether s is a well-formed IBAN of the local
// "IR" + 24 digits shape.
func ValidSheba(s string) bool {
	return shebaPattern.MatchString(s)
}

// ValidNationalID checks the 10-digit national identity number,
// including its checksum digit: the last digit must equal r when r < 2,
// else 11 - r, where r is the weighted sum of the first nine digits
// (weights 10 down to 2) modulo 11.
func ValidNationalID(s string) bool {
	if len(s) != 10 {
		return false
	}
	digits := make([]int, 10)
	for i, ch := range s {
		if ch < '0' || ch > '9' {
			return false
		}
		digits[i] = int(ch - '0')
	}
	// All-identical digits pass the checksum but are not valid IDs.
	identical := true
	for i := 1; i < 10; i++ {
		if digits[i] != digits[0] {
			identical = false
			break
		}
	}
	if identical {
		return false
	}
	sum := 0
	for i := 0; i < 9; i++ {
		sum += digits[i] * (10 - i)
	}
	r := sum % 11
	check := digits[9]
	if r < 2 {
		return check == r
	}
	return check == 11-r
}

// Verified reports whether the user clears the identity gate for
// services that require validation: an accepted national-identity
// record AND at least one accepted banking-info record.
func Verified(ctx context.Context, userID string) (bool, error) {
	var nationalOK, bankingOK bool
	err := db.Conn.QueryRow(ctx, `
        SELECT
            EXISTS (SELECT 1 FROM identity_records WHERE user_id = $1 AND kind = 'national' AND status = 'accepted'),
            EXISTS (SELECT 1 FROM identity_records WHERE user_id = $1 AND kind = 'banking'  AND status = 'accepted')`,
		userID).Scan(&nationalOK, &bankingOK)
	if err != nil {
		return false, err
	}
	return nationalOK && bankingOK, nil
}
