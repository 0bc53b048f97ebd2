// Package allocation — repository.go выполняет все операции
// с таблицами аллокаций, пулов, джекпотов и невостребованных средств.
//
// Дрип-цикл — единая транзакция БД: обновление аллокации, кредит пула,
// кредит джекпота и аудит-записи журнала фиксируются вместе или никак.
// Частичное применение (пул пополнен, аллокация не обновлена) означало бы
// двойную выплату и не должно быть наблюдаемым ни при каком сбое.
package allocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/pravino/botgame-sub001/internal/common"
	"github.com/pravino/botgame-sub001/internal/features/ledger"
	"github.com/pravino/botgame-sub001/internal/features/tiers"
)

// Repository предоставляет методы для работы с аллокациями.
// Держит ссылку на репозиторий журнала: аудит-записи дрипа должны
// попадать в ту же транзакцию, что и обновление аллокации.
type Repository struct {
	db     *pgxpool.Pool
	ledger *ledger.Repository
}

// NewRepository создаёт новый репозиторий аллокаций.
func NewRepository(db *pgxpool.Pool, ledgerRepo *ledger.Repository) *Repository {
	return &Repository{db: db, ledger: ledgerRepo}
}

// Insert сохраняет аллокации одной покупки одной транзакцией.
func (r *Repository) Insert(ctx context.Context, allocations []*Allocation) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, a := range allocations {
		_, err = tx.Exec(ctx, `
			INSERT INTO pool_allocations (
				id, transaction_id, tier_name, game, total_amount, daily_amount,
				total_days, days_released, amount_released, drip_type,
				deposit_date, expiry_date, active
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, 0, 0, $8, $9, $10, TRUE)
		`, a.ID, a.TransactionID, a.TierName, a.Game, a.TotalAmount, a.DailyAmount,
			a.TotalDays, a.DripType, a.DepositDate, a.ExpiryDate)
		if err != nil {
			return fmt.Errorf("ошибка сохранения аллокации: %w", err)
		}
	}
	return tx.Commit(ctx)
}

const selectAllocationSQL = `
	SELECT id, transaction_id, tier_name, game, total_amount, daily_amount,
	       total_days, days_released, amount_released, drip_type,
	       last_drip_date, deposit_date, expiry_date, active, created_at
	FROM pool_allocations
`

func scanAllocation(row pgx.Row) (*Allocation, error) {
	var a Allocation
	err := row.Scan(
		&a.ID, &a.TransactionID, &a.TierName, &a.Game, &a.TotalAmount, &a.DailyAmount,
		&a.TotalDays, &a.DaysReleased, &a.AmountReleased, &a.DripType,
		&a.LastDripDate, &a.DepositDate, &a.ExpiryDate, &a.Active, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Get возвращает аллокацию по ID.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Allocation, error) {
	a, err := scanAllocation(r.db.QueryRow(ctx, selectAllocationSQL+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrAllocationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения аллокации: %w", err)
	}
	return a, nil
}

// Drip выполняет один дрип-цикл аллокации за календарный день today.
// Идемпотентен по ключу (аллокация, день): повторный вызов в тот же
// день — фиксируемый no-op.
func (r *Repository) Drip(ctx context.Context, id uuid.UUID, today time.Time, cfg tiers.Config, destination string, loc *time.Location) (*DripResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	// Блокируем строку аллокации — конкурентные дрипы одной аллокации
	// сериализуются, разные аллокации не мешают друг другу
	a, err := scanAllocation(tx.QueryRow(ctx, selectAllocationSQL+` WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrAllocationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка блокировки аллокации: %w", err)
	}

	if !a.Active {
		return nil, common.ErrAllocationClosed
	}

	decision := computeDrip(a, today, loc)
	result := &DripResult{AllocationID: a.ID}

	switch {
	case decision.duplicate:
		result.Duplicate = true
		return result, tx.Commit(ctx)

	case decision.close:
		if err := r.closeAllocation(ctx, tx, a, decision.unclaimed, destination); err != nil {
			return nil, err
		}
		result.Closed = true
		result.Unclaimed = decision.unclaimed
		return result, tx.Commit(ctx)
	}

	// Обычный дрип: делим порцию на пул и джекпот
	poolCredit, jackpotCut := splitJackpot(decision.release, cfg.JackpotSharePercent)
	dateKey := common.DateKey(today, loc)

	_, err = tx.Exec(ctx, `
		UPDATE pool_allocations
		SET days_released = days_released + 1,
		    amount_released = amount_released + $2,
		    last_drip_date = $3,
		    active = $4
		WHERE id = $1
	`, a.ID, decision.release, dateKey, !decision.lastDay)
	if err != nil {
		return nil, fmt.Errorf("ошибка обновления аллокации: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO reward_pools (tier_name, game, balance, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (tier_name, game)
		DO UPDATE SET balance = reward_pools.balance + $3, updated_at = NOW()
	`, a.TierName, a.Game, poolCredit)
	if err != nil {
		return nil, fmt.Errorf("ошибка пополнения пула: %w", err)
	}

	refID := a.ID.String()
	_, err = r.ledger.AppendInTx(ctx, tx, ledger.AppendParams{
		Account:     ledger.PoolAccount(a.TierName, a.Game, ledger.CurrencyUSDT),
		EntryType:   ledger.TypePoolDrip,
		Direction:   ledger.DirectionCredit,
		Amount:      poolCredit,
		Currency:    ledger.CurrencyUSDT,
		Game:        &a.Game,
		ReferenceID: &refID,
		TierAtTime:  a.TierName,
		Note:        fmt.Sprintf("Дневной дрип аллокации, день %d/%d", a.DaysReleased+1, a.TotalDays),
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка аудит-записи дрипа: %w", err)
	}

	if jackpotCut.IsPositive() {
		monthKey := common.MonthKey(today, loc)
		_, err = tx.Exec(ctx, `
			INSERT INTO jackpot_vaults (tier_name, month_key, balance, updated_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (tier_name, month_key)
			DO UPDATE SET balance = jackpot_vaults.balance + $3, updated_at = NOW()
		`, a.TierName, monthKey, jackpotCut)
		if err != nil {
			return nil, fmt.Errorf("ошибка пополнения джекпота: %w", err)
		}

		_, err = r.ledger.AppendInTx(ctx, tx, ledger.AppendParams{
			Account:     ledger.JackpotAccount(a.TierName, ledger.CurrencyUSDT),
			EntryType:   ledger.TypePoolDrip,
			Direction:   ledger.DirectionCredit,
			Amount:      jackpotCut,
			Currency:    ledger.CurrencyUSDT,
			Game:        &a.Game,
			ReferenceID: &refID,
			TierAtTime:  a.TierName,
			Note:        fmt.Sprintf("Джекпот-доля дрипа за %s", monthKey),
		})
		if err != nil {
			return nil, fmt.Errorf("ошибка аудит-записи джекпота: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}

	result.Released = decision.release
	result.PoolCredit = poolCredit
	result.JackpotCut = jackpotCut
	result.Closed = decision.lastDay
	return result, nil
}

// closeAllocation закрывает аллокацию и списывает остаток
// в невостребованные средства. Закрытие необратимо.
func (r *Repository) closeAllocation(ctx context.Context, tx pgx.Tx, a *Allocation, unclaimed decimal.Decimal, destination string) error {
	_, err := tx.Exec(ctx, `
		UPDATE pool_allocations SET active = FALSE WHERE id = $1
	`, a.ID)
	if err != nil {
		return fmt.Errorf("ошибка закрытия аллокации: %w", err)
	}

	if !unclaimed.IsPositive() {
		return nil
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO unclaimed_funds (id, allocation_id, tier_name, game, amount, destination)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.New(), a.ID, a.TierName, a.Game, unclaimed, destination)
	if err != nil {
		return fmt.Errorf("ошибка записи невостребованных средств: %w", err)
	}
	return nil
}

// DueIDs возвращает ID активных аллокаций, у которых ещё не было
// дрипа за календарный день today. Порядок детерминирован.
func (r *Repository) DueIDs(ctx context.Context, today time.Time, loc *time.Location) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id FROM pool_allocations
		WHERE active = TRUE AND (last_drip_date IS NULL OR last_drip_date < $1)
		ORDER BY created_at, id
	`, common.DateKey(today, loc))
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки аллокаций: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ошибка сканирования ID: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// PoolBalance возвращает баланс призового пула (тариф, игра).
// Читается логикой выплат наград.
func (r *Repository) PoolBalance(ctx context.Context, tierName, game string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.db.QueryRow(ctx, `
		SELECT balance FROM reward_pools WHERE tier_name = $1 AND game = $2
	`, tierName, game).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("ошибка чтения пула: %w", err)
	}
	return balance, nil
}

// VaultBalance возвращает баланс джекпот-хранилища (тариф, месяц).
func (r *Repository) VaultBalance(ctx context.Context, tierName, monthKey string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.db.QueryRow(ctx, `
		SELECT balance FROM jackpot_vaults WHERE tier_name = $1 AND month_key = $2
	`, tierName, monthKey).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("ошибка чтения джекпота: %w", err)
	}
	return balance, nil
}
