// Package withdrawal — repository.go выполняет операции с таблицами
// withdrawals и withdrawal_batches.
//
// Создание заявки и списание с баланса — одна транзакция: заявка без
// списания или списание без заявки не должны быть наблюдаемы.
package withdrawal

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pravino/botgame-sub001/internal/common"
	"github.com/pravino/botgame-sub001/internal/features/ledger"
)

// Repository предоставляет методы для работы с выводами.
// Держит ссылку на репозиторий журнала: списание gross-суммы
// фиксируется той же транзакцией, что и заявка.
type Repository struct {
	db     *pgxpool.Pool
	ledger *ledger.Repository
}

// NewRepository создаёт новый репозиторий выводов.
func NewRepository(db *pgxpool.Pool, ledgerRepo *ledger.Repository) *Repository {
	return &Repository{db: db, ledger: ledgerRepo}
}

// Create сохраняет заявку и списывает gross-сумму с баланса пользователя
// одной транзакцией. При нехватке средств журнал вернёт
// ErrInsufficientFunds, транзакция откатится — заявки не будет.
func (r *Repository) Create(ctx context.Context, w *Withdrawal) (*ledger.Entry, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	refID := w.ID.String()
	entry, err := r.ledger.AppendInTx(ctx, tx, ledger.AppendParams{
		UserID:      &w.UserID,
		Account:     ledger.UserAccount(w.UserID, w.Currency),
		EntryType:   ledger.TypeWithdrawal,
		Direction:   ledger.DirectionDebit,
		Amount:      w.GrossAmount,
		Currency:    w.Currency,
		ReferenceID: &refID,
		TierAtTime:  w.TierAtTime,
		Note:        fmt.Sprintf("Вывод на %s (%s)", w.ToWallet, w.Network),
	})
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO withdrawals (
			id, user_id, gross_amount, fee_percent, fee_amount, net_amount,
			currency, to_wallet, network, status, tier_at_time
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, w.ID, w.UserID, w.GrossAmount, w.FeePercent, w.FeeAmount, w.NetAmount,
		w.Currency, w.ToWallet, w.Network, w.Status, w.TierAtTime)
	if err != nil {
		return nil, fmt.Errorf("ошибка сохранения заявки: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return entry, nil
}

// BatchPending собирает все ожидающие заявки в новый батч.
//
// Состав батча — ровно те строки, что заблокированы FOR UPDATE первым
// запросом: итоги считаются по ним, и только их id получают batch_id.
// Заявка, закоммиченная конкурентно между запросами, в батч не попадёт —
// её заберёт следующий батч. Привязка по статусу вместо списка id
// могла бы подмести такую заявку в батч, не учтя её в итогах.
func (r *Repository) BatchPending(ctx context.Context) (*Batch, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT id, gross_amount, fee_amount, net_amount
		FROM withdrawals
		WHERE status = $1
		ORDER BY created_at, id
		FOR UPDATE
	`, StatusPending)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки заявок: %w", err)
	}

	var members []*Withdrawal
	for rows.Next() {
		var w Withdrawal
		if err := rows.Scan(&w.ID, &w.GrossAmount, &w.FeeAmount, &w.NetAmount); err != nil {
			rows.Close()
			return nil, fmt.Errorf("ошибка сканирования заявки: %w", err)
		}
		members = append(members, &w)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка выборки заявок: %w", err)
	}
	if len(members) == 0 {
		return nil, common.ErrNothingToBatch
	}

	batch := buildBatch(members)
	_, err = tx.Exec(ctx, `
		INSERT INTO withdrawal_batches (id, status, member_count, total_gross, total_fee, total_net)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, batch.ID, batch.Status, batch.Count, batch.TotalGross, batch.TotalFee, batch.TotalNet)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания батча: %w", err)
	}

	ids := make([]uuid.UUID, len(members))
	for i, w := range members {
		ids[i] = w.ID
	}
	_, err = tx.Exec(ctx, `
		UPDATE withdrawals
		SET status = $1, batch_id = $2, updated_at = NOW()
		WHERE id = ANY($3)
	`, StatusBatched, batch.ID, ids)
	if err != nil {
		return nil, fmt.Errorf("ошибка привязки заявок к батчу: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return batch, nil
}

// MarkProcessed помечает батч выплаченным. Заявки из failed получают
// статус failed с причиной и остаются помеченными индивидуально —
// даже внутри обработанного батча; остальные становятся processed.
func (r *Repository) MarkProcessed(ctx context.Context, batchID uuid.UUID, failed map[uuid.UUID]string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE withdrawal_batches
		SET status = $2, processed_at = NOW()
		WHERE id = $1 AND status = $3
	`, batchID, BatchProcessed, BatchPending)
	if err != nil {
		return fmt.Errorf("ошибка обновления батча: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNothingToBatch
	}

	_, err = tx.Exec(ctx, `
		UPDATE withdrawals
		SET status = $2, updated_at = NOW()
		WHERE batch_id = $1 AND status = $3
	`, batchID, StatusProcessed, StatusBatched)
	if err != nil {
		return fmt.Errorf("ошибка обновления заявок: %w", err)
	}

	for id, reason := range failed {
		_, err = tx.Exec(ctx, `
			UPDATE withdrawals
			SET status = $2, fail_reason = $3, updated_at = NOW()
			WHERE id = $1 AND batch_id = $4
		`, id, StatusFailed, reason, batchID)
		if err != nil {
			return fmt.Errorf("ошибка пометки заявки %s: %w", id, err)
		}
	}

	return tx.Commit(ctx)
}

// Get возвращает заявку по ID.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Withdrawal, error) {
	var w Withdrawal
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, gross_amount, fee_percent, fee_amount, net_amount,
		       currency, to_wallet, network, status, tier_at_time, batch_id,
		       fail_reason, created_at, updated_at
		FROM withdrawals WHERE id = $1
	`, id).Scan(
		&w.ID, &w.UserID, &w.GrossAmount, &w.FeePercent, &w.FeeAmount, &w.NetAmount,
		&w.Currency, &w.ToWallet, &w.Network, &w.Status, &w.TierAtTime, &w.BatchID,
		&w.FailReason, &w.CreatedAt, &w.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("заявка %s не найдена", id)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения заявки: %w", err)
	}
	return &w, nil
}

// UserWithdrawals возвращает заявки пользователя, новые первыми.
func (r *Repository) UserWithdrawals(ctx context.Context, userID string, limit int) ([]*Withdrawal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, gross_amount, fee_percent, fee_amount, net_amount,
		       currency, to_wallet, network, status, tier_at_time, batch_id,
		       fail_reason, created_at, updated_at
		FROM withdrawals
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения заявок: %w", err)
	}
	defer rows.Close()

	var out []*Withdrawal
	for rows.Next() {
		var w Withdrawal
		err := rows.Scan(
			&w.ID, &w.UserID, &w.GrossAmount, &w.FeePercent, &w.FeeAmount, &w.NetAmount,
			&w.Currency, &w.ToWallet, &w.Network, &w.Status, &w.TierAtTime, &w.BatchID,
			&w.FailReason, &w.CreatedAt, &w.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования заявки: %w", err)
		}
		out = append(out, &w)
	}
	return out, rows.Err()
}
