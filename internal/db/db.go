package db

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/navaex/portal/internal/logger"
)

var Conn *pgxpool.Pool

// Init connects to Postgres and ensures the schema the handlers rely on.
func Init() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s",
			os.Getenv("DB_USER"),
			os.Getenv("DB_PASSWORD"),
			os.Getenv("DB_HOST"),
			os.Getenv("DB_PORT"),
			os.Getenv("DB_NAME"),
		)
	}

	var err error
	Conn, err = pgxpool.New(context.Background(), dsn)
	if err != nil {
		logger.L.Fatal("unable to connect to database", zap.Error(err))
	}

	if err = Conn.Ping(context.Background()); err != nil {
		logger.L.Fatal("unable to ping database", zap.Error(err))
	}

	logger.L.Info("connected to Postgres")

	ensureUsersTable()
	ensureWalletTables()
	ensureServicesTable()
	ensureServiceRequestsTable()
	ensureCurrenciesTable()
	ensureIdentityTable()
	ensurePaymentsTable()
}

func ensure(name, ddl string) {
	if _, err := Conn.Exec(context.Background(), ddl); err != nil {
		logger.L.Error("schema ensure failed", zap.String("table", name), zap.Error(err))
	}
}

func ensureUsersTable() {
	ensure("users", `
        CREATE TABLE IF NOT EXISTS users (
            id UUID PRIMARY KEY,
            name TEXT NOT NULL,
            email TEXT NOT NULL UNIQUE,
            phone TEXT,
            password TEXT NOT NULL,
            role TEXT NOT NULL DEFAULT 'customer' CHECK (role IN ('customer','admin')),
            is_active BOOLEAN DEFAULT TRUE,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        )`)
}

func ensureWalletTables() {
	ensure("wallets", `
        CREATE TABLE IF NOT EXISTS wallets (
            user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
            balance BIGINT NOT NULL DEFAULT 0,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        )`)
	ensure("wallet_transactions", `
        CREATE TABLE IF NOT EXISTS wallet_transactions (
            id UUID PRIMARY KEY,
            user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            amount BIGINT NOT NULL,
            direction TEXT NOT NULL CHECK (direction IN ('income','outcome')),
            description TEXT,
            tag TEXT,
            reference UUID NULL,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_wallet_tx_user_created ON wallet_transactions(user_id, created_at)`)
}

func ensureServicesTable() {
	ensure("services", `
        CREATE TABLE IF NOT EXISTS services (
            id UUID PRIMARY KEY,
            title TEXT NOT NULL,
            slug TEXT NOT NULL UNIQUE,
            base_fee BIGINT NOT NULL DEFAULT 0,
            wallet_eligible BOOLEAN NOT NULL DEFAULT TRUE,
            requires_identity BOOLEAN NOT NULL DEFAULT FALSE,
            status TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('active','inactive','draft')),
            fields JSONB NOT NULL DEFAULT '[]',
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        )`)
}

func ensureServiceRequestsTable() {
	ensure("service_requests", `
        CREATE TABLE IF NOT EXISTS service_requests (
            id UUID PRIMARY KEY,
            service_id UUID NOT NULL REFERENCES services(id),
            customer_id UUID NOT NULL REFERENCES users(id),
            form_data JSONB NOT NULL DEFAULT '{}',
            payment_method TEXT NOT NULL CHECK (payment_method IN ('wallet','gateway','card')),
            payment_amount BIGINT NOT NULL,
            is_paid BOOLEAN NOT NULL DEFAULT FALSE,
            receipt_url TEXT,
            status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN
                ('pending','in_progress','completed','rejected','cancelled','requires_info')),
            admin_notes JSONB NOT NULL DEFAULT '[]',
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_requests_customer ON service_requests(customer_id, created_at);
        CREATE INDEX IF NOT EXISTS idx_requests_status ON service_requests(status)`)
}

func ensureCurrenciesTable() {
	ensure("currencies", `
        CREATE TABLE IF NOT EXISTS currencies (
            code TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            buy_price DOUBLE PRECISION NOT NULL DEFAULT 0,
            sale_price DOUBLE PRECISION NOT NULL DEFAULT 0,
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        )`)
}

func ensureIdentityTable() {
	ensure("identity_records", `
        CREATE TABLE IF NOT EXISTS identity_records (
            id UUID PRIMARY KEY,
            user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            kind TEXT NOT NULL CHECK (kind IN ('national','banking')),
            payload JSONB NOT NULL DEFAULT '{}',
            status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','accepted','rejected')),
            reviewed_by UUID NULL REFERENCES users(id) ON DELETE SET NULL,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            reviewed_at TIMESTAMP WITH TIME ZONE NULL
        );
        CREATE INDEX IF NOT EXISTS idx_identity_user ON identity_records(user_id, kind)`)
}

func ensurePaymentsTable() {
	ensure("payments", `
        CREATE TABLE IF NOT EXISTS payments (
            id UUID PRIMARY KEY,
            user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            purpose TEXT NOT NULL CHECK (purpose IN ('service_request','wallet_topup')),
            amount BIGINT NOT NULL,
            currency TEXT NOT NULL DEFAULT 'IRT',
            description TEXT,
            service_id UUID NULL REFERENCES services(id),
            metadata JSONB NOT NULL DEFAULT '{}',
            status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','paid','failed')),
            gateway_ref TEXT,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            paid_at TIMESTAMP WITH TIME ZONE NULL
        );
        CREATE INDEX IF NOT EXISTS idx_payments_user ON payments(user_id, created_at);
        CREATE INDEX IF NOT EXISTS idx_payments_pending ON payments(user_id, purpose) WHERE status = 'pending'`)
}
