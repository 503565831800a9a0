package wallet

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/navaex/portal/internal/db"
)

type Wallet struct {
	UserID         string    `json:"user_id"`
	CurrentBalance int64     `json:"currentBalance"`
	CreatedAt      time.Time `json:"created_at"`
}

type Transaction struct {
	ID          string    `json:"id"`
	Amount      int64     `json:"amount"`
	Direction   string    `json:"direction"`
	Description string    `json:"description,omitempty"`
	Tag         string    `json:"tag,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ErrInsufficientBalance is returned by DebitTx when the wallet cannot
// cover the amount.
var ErrInsufficientBalance = errors.New("insufficient wallet balance")

// CurrentBalance reads a user's wallet balance.
func CurrentBalance(ctx context.Context, userID string) (int64, error) {
	var balance int64
	err := db.Conn.QueryRow(ctx,
		`SELECT balance FROM wallets WHERE user_id = $1`, userID).Scan(&balance)
	return balance, err
}

// DebitTx debits a wallet inside the caller's transaction and records
// the ledger row. The row lock keeps the balance check and the update
// atomic against concurrent debits.
func DebitTx(ctx context.Context, tx pgx.Tx, userID string, amount int64, description, tag string, reference *string) error {
	if amount <= 0 {
		return fmt.Errorf("debit amount must be positive")
	}
	var balance int64
	if err := tx.QueryRow(ctx,
		`SELECT balance FROM wallets WHERE user_id = $1 FOR UPDATE`, userID).Scan(&balance); err != nil {
		return fmt.Errorf("wallet not found: %w", err)
	}
	if balance < amount {
		return ErrInsufficientBalance
	}
	if _, err := tx.Exec(ctx,
		`UPDATE wallets SET balance = balance - $1 WHERE user_id = $2`, amount, userID); err != nil {
		return err
	}
	_, err := tx.Exec(ctx, `
        INSERT INTO wallet_transactions (id, user_id, amount, direction, description, tag, reference, created_at)
        VALUES ($1, $2, $3, 'outcome', $4, $5, $6, $7)`,
		uuid.New().String(), userID, amount, description, tag, reference, time.Now())
	return err
}

// CreditTx credits a wallet inside the caller's transaction.
func CreditTx(ctx context.Context, tx pgx.Tx, userID string, amount int64, description, tag string, reference *string) error {
	if amount <= 0 {
		return fmt.Errorf("credit amount must be positive")
	}
	if _, err := tx.Exec(ctx,
		`UPDATE wallets SET balance = balance + $1 WHERE user_id = $2`, amount, userID); err != nil {
		return err
	}
	_, err := tx.Exec(ctx, `
        INSERT INTO wallet_transactions (id, user_id, amount, direction, description, tag, reference, created_at)
        VALUES ($1, $2, $3, 'income', $4, $5, $6, $7)`,
		uuid.New().String(), userID, amount, description, tag, reference, time.Now())
	return err
}

// Balance is GET /api/wallet.
func Balance(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var w Wallet
	err := db.Conn.QueryRow(c.Request().Context(),
		`SELECT user_id, balance, created_at FROM wallets WHERE user_id = $1`, userID).
		Scan(&w.UserID, &w.CurrentBalance, &w.CreatedAt)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "wallet not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"wallet": w})
}

type ActionRequest struct {
	Action      string `json:"action" validate:"required,oneof=add_outcome"`
	Amount      int64  `json:"amount" validate:"required,gt=0"`
	Description string `json:"description"`
	Tag         string `json:"tag"`
}

// Action is POST /api/wallet. The only supported action is add_outcome,
// a direct debit of the caller's own wallet.
func Action(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	req := new(ActionRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx := c.Request().Context()
	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction start failed"})
	}
	defer tx.Rollback(ctx)

	if err := DebitTx(ctx, tx, userID, req.Amount, req.Description, req.Tag, nil); err != nil {
		if errors.Is(err, ErrInsufficientBalance) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "insufficient balance", "redirect_to": "/wallet/topup"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "debit failed"})
	}
	if err := tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "wallet debited"})
}

// Transactions is GET /api/wallet/transactions.
func Transactions(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	rows, err := db.Conn.Query(c.Request().Context(), `
        SELECT id, amount, direction, COALESCE(description, ''), COALESCE(tag, ''), created_at
        FROM wallet_transactions
        WHERE user_id = $1
        ORDER BY created_at DESC`, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch transactions"})
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.Amount, &t.Direction, &t.Description, &t.Tag, &t.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "scan error"})
		}
		txs = append(txs, t)
	}

	return c.JSON(http.StatusOK, echo.Map{"transactions": txs})
}
