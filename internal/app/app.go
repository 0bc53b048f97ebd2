// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, репозитории, сервисы,
// планировщик и собирает всё в один объект App.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/pravino/botgame-sub001/internal/config"
	"github.com/pravino/botgame-sub001/internal/db/postgres"
	"github.com/pravino/botgame-sub001/internal/features/allocation"
	"github.com/pravino/botgame-sub001/internal/features/ledger"
	"github.com/pravino/botgame-sub001/internal/features/tiers"
	"github.com/pravino/botgame-sub001/internal/features/withdrawal"
	"github.com/pravino/botgame-sub001/internal/jobs"
	"github.com/pravino/botgame-sub001/internal/notify"
)

// App содержит все компоненты приложения.
type App struct {
	Scheduler   *jobs.Scheduler
	DB          *pgxpool.Pool
	Catalog     *tiers.Catalog
	Ledger      *ledger.Service
	Allocations *allocation.Service
	Withdrawals *withdrawal.Service
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Каталог тарифов ===
	catalog := tiers.DefaultCatalog(cfg.AllocationDefaultDays)

	// === 3. Репозитории ===
	ledgerRepo := ledger.NewRepository(pool)
	allocationRepo := allocation.NewRepository(pool, ledgerRepo)
	withdrawalRepo := withdrawal.NewRepository(pool, ledgerRepo)

	// === 4. Сервисы ===
	ledgerService := ledger.NewService(ledgerRepo)
	allocationService := allocation.NewService(allocationRepo, catalog, cfg.UnclaimedDestination, cfg.Location())

	minWithdrawal, err := decimal.NewFromString(cfg.WithdrawalMinAmount)
	if err != nil {
		return nil, fmt.Errorf("некорректный WITHDRAWAL_MIN_AMOUNT: %w", err)
	}
	withdrawalService := withdrawal.NewService(withdrawalRepo, catalog, minWithdrawal)

	// === 5. Канал алертов ===
	var notifier notify.Notifier = notify.LogOnly{}
	if cfg.AlertBotToken != "" {
		tg, err := notify.NewTelegram(cfg.AlertBotToken, cfg.AlertChatID)
		if err != nil {
			return nil, fmt.Errorf("ошибка настройки алертов: %w", err)
		}
		notifier = tg
		log.Info("Telegram-алерты включены")
	}

	// === 6. Планировщик задач ===
	scheduler := jobs.NewScheduler(cfg, allocationService, ledgerService, notifier)

	return &App{
		Scheduler:   scheduler,
		DB:          pool,
		Catalog:     catalog,
		Ledger:      ledgerService,
		Allocations: allocationService,
		Withdrawals: withdrawalService,
	}, nil
}

// runMigrations выполняет все SQL-миграции.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if err := postgres.EnsureMigrationsTable(ctx, pool); err != nil {
		return err
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migration001Ledger},
		{2, migration002Allocations},
		{3, migration003Withdrawals},
	}

	for _, m := range migrations {
		if err := postgres.ExecMigrationSQL(ctx, pool, m.version, m.sql); err != nil {
			return fmt.Errorf("миграция %d: %w", m.version, err)
		}
		log.Infof("Миграция %d применена", m.version)
	}

	return nil
}

// SQL-миграции встроены в код для упрощения деплоя.

var migration001Ledger = `
CREATE TABLE IF NOT EXISTS ledger_balances (
    account TEXT PRIMARY KEY,
    currency VARCHAR(10) NOT NULL,
    balance NUMERIC(20,4) NOT NULL DEFAULT 0,
    last_hash CHAR(64) NOT NULL DEFAULT '0000000000000000000000000000000000000000000000000000000000000000',
    frozen BOOLEAN NOT NULL DEFAULT FALSE,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS ledger_entries (
    seq BIGSERIAL PRIMARY KEY,
    id UUID UNIQUE NOT NULL,
    account TEXT NOT NULL,
    user_id TEXT,
    entry_type VARCHAR(50) NOT NULL,
    direction VARCHAR(10) NOT NULL,
    amount NUMERIC(20,4) NOT NULL CHECK (amount > 0),
    currency VARCHAR(10) NOT NULL,
    balance_before NUMERIC(20,4) NOT NULL,
    balance_after NUMERIC(20,4) NOT NULL,
    game VARCHAR(50),
    reference_id TEXT,
    tier_at_time VARCHAR(50) NOT NULL DEFAULT '',
    note TEXT NOT NULL DEFAULT '',
    prev_hash CHAR(64) NOT NULL,
    entry_hash CHAR(64) UNIQUE NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ledger_entries_account ON ledger_entries(account, seq);
CREATE INDEX IF NOT EXISTS idx_ledger_entries_user ON ledger_entries(user_id, seq DESC);
CREATE INDEX IF NOT EXISTS idx_ledger_entries_reference ON ledger_entries(reference_id);
`

var migration002Allocations = `
CREATE TABLE IF NOT EXISTS pool_allocations (
    id UUID PRIMARY KEY,
    transaction_id TEXT NOT NULL,
    tier_name VARCHAR(50) NOT NULL,
    game VARCHAR(50) NOT NULL,
    total_amount NUMERIC(20,4) NOT NULL CHECK (total_amount > 0),
    daily_amount NUMERIC(20,4) NOT NULL,
    total_days INTEGER NOT NULL,
    days_released INTEGER NOT NULL DEFAULT 0,
    amount_released NUMERIC(20,4) NOT NULL DEFAULT 0,
    drip_type VARCHAR(10) NOT NULL DEFAULT 'daily',
    last_drip_date DATE,
    deposit_date DATE NOT NULL,
    expiry_date DATE NOT NULL,
    active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CHECK (amount_released <= total_amount),
    CHECK (days_released <= total_days)
);
CREATE INDEX IF NOT EXISTS idx_pool_allocations_active ON pool_allocations(active, last_drip_date);
CREATE INDEX IF NOT EXISTS idx_pool_allocations_transaction ON pool_allocations(transaction_id);
CREATE TABLE IF NOT EXISTS reward_pools (
    tier_name VARCHAR(50) NOT NULL,
    game VARCHAR(50) NOT NULL,
    balance NUMERIC(20,4) NOT NULL DEFAULT 0,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (tier_name, game)
);
CREATE TABLE IF NOT EXISTS jackpot_vaults (
    tier_name VARCHAR(50) NOT NULL,
    month_key CHAR(7) NOT NULL,
    balance NUMERIC(20,4) NOT NULL DEFAULT 0,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (tier_name, month_key)
);
CREATE TABLE IF NOT EXISTS unclaimed_funds (
    id UUID PRIMARY KEY,
    allocation_id UUID NOT NULL REFERENCES pool_allocations(id),
    tier_name VARCHAR(50) NOT NULL,
    game VARCHAR(50) NOT NULL,
    amount NUMERIC(20,4) NOT NULL CHECK (amount > 0),
    destination VARCHAR(20) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

var migration003Withdrawals = `
CREATE TABLE IF NOT EXISTS withdrawal_batches (
    id UUID PRIMARY KEY,
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    member_count INTEGER NOT NULL,
    total_gross NUMERIC(20,4) NOT NULL,
    total_fee NUMERIC(20,4) NOT NULL,
    total_net NUMERIC(20,4) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    processed_at TIMESTAMPTZ
);
CREATE TABLE IF NOT EXISTS withdrawals (
    id UUID PRIMARY KEY,
    user_id TEXT NOT NULL,
    gross_amount NUMERIC(20,4) NOT NULL CHECK (gross_amount > 0),
    fee_percent NUMERIC(10,4) NOT NULL,
    fee_amount NUMERIC(20,4) NOT NULL,
    net_amount NUMERIC(20,4) NOT NULL,
    currency VARCHAR(10) NOT NULL,
    to_wallet TEXT NOT NULL,
    network VARCHAR(20) NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    tier_at_time VARCHAR(50) NOT NULL,
    batch_id UUID REFERENCES withdrawal_batches(id),
    fail_reason TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_withdrawals_user ON withdrawals(user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_withdrawals_status ON withdrawals(status);
CREATE INDEX IF NOT EXISTS idx_withdrawals_batch ON withdrawals(batch_id);
`
