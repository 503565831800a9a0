package wallet

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTx satisfies pgx.Tx for the debit path: QueryRow serves the
// locked balance read, Exec records every write.
type fakeTx struct {
	pgx.Tx
	balance int64
	scanErr error
	writes  []string
}

type fakeRow struct {
	balance int64
	err     error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*int64)) = r.balance
	return nil
}

func (f *fakeTx) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	return fakeRow{balance: f.balance, err: f.scanErr}
}

func (f *fakeTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	f.writes = append(f.writes, sql)
	return pgconn.CommandTag{}, nil
}

func TestDebitTxInsufficientBalanceWritesNothing(t *testing.T) {
	tx := &fakeTx{balance: 500}

	err := DebitTx(context.Background(), tx, "u1", 1000, "service request", "service_request", nil)
	require.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Empty(t, tx.writes, "a rejected debit must not touch the wallet or the ledger")
}

func TestDebitTxUpdatesBalanceAndLedger(t *testing.T) {
	tx := &fakeTx{balance: 5000}

	err := DebitTx(context.Background(), tx, "u1", 1000, "service request", "service_request", nil)
	require.NoError(t, err)
	require.Len(t, tx.writes, 2)
	assert.Contains(t, tx.writes[0], "UPDATE wallets")
	assert.Contains(t, tx.writes[1], "INSERT INTO wallet_transactions")
}

func TestDebitTxRejectsNonPositiveAmount(t *testing.T) {
	tx := &fakeTx{balance: 5000}

	assert.Error(t, DebitTx(context.Background(), tx, "u1", 0, "", "", nil))
	assert.Error(t, DebitTx(context.Background(), tx, "u1", -100, "", "", nil))
	assert.Empty(t, tx.writes)
}

func TestDebitTxMissingWallet(t *testing.T) {
	tx := &fakeTx{scanErr: pgx.ErrNoRows}

	err := DebitTx(context.Background(), tx, "u1", 1000, "", "", nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInsufficientBalance)
	assert.Empty(t, tx.writes)
}

func TestCreditTxUpdatesBalanceAndLedger(t *testing.T) {
	tx := &fakeTx{}

	ref := "payment-1"
	err := CreditTx(context.Background(), tx, "u1", 2500, "wallet top-up", "topup", &ref)
	require.NoError(t, err)
	require.Len(t, tx.writes, 2)
	assert.Contains(t, tx.writes[0], "UPDATE wallets")
	assert.Contains(t, tx.writes[1], "INSERT INTO wallet_transactions")
}
