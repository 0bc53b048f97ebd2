// Package ledger — repository.go выполняет все операции с таблицами
// ledger_entries и ledger_balances.
//
// Ключевое требование: запись журнала и обновление баланса неразделимы.
// Никто и никогда не должен увидеть баланс без соответствующей записи
// или запись без баланса. Поэтому каждая операция идёт в транзакции БД
// с блокировкой строки баланса (SELECT ... FOR UPDATE) — это же даёт
// взаимное исключение по счёту: конкурентные операции над одним счётом
// сериализуются, над разными — идут параллельно.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/pravino/botgame-sub001/internal/common"
)

// Repository предоставляет методы для работы с журналом и балансами.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий журнала.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const insertEntrySQL = `
	INSERT INTO ledger_entries (
		id, account, user_id, entry_type, direction, amount, currency,
		balance_before, balance_after, game, reference_id, tier_at_time,
		note, prev_hash, entry_hash, created_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
`

// Append атомарно добавляет запись журнала и обновляет баланс счёта.
//
// Порядок внутри транзакции:
//  1. Создаём строку баланса, если её ещё нет (первая запись счёта).
//  2. Блокируем строку баланса FOR UPDATE — сериализация по счёту.
//  3. Строим запись поверх (last_hash, balance) через NextEntry.
//  4. Вставляем запись и обновляем баланс вместе с last_hash.
//
// Замороженный счёт отклоняет списания (ErrAccountFrozen), но принимает
// начисления: депозиты не должны теряться, пока идёт ручная проверка.
func (r *Repository) Append(ctx context.Context, p AppendParams) (*Entry, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	entry, err := r.AppendInTx(ctx, tx, p)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return entry, nil
}

// AppendInTx добавляет запись внутри уже открытой транзакции вызывающего.
// Нужен дрип-движку: обновление аллокации, кредит пула и аудит-запись
// журнала должны зафиксироваться одной транзакцией.
func (r *Repository) AppendInTx(ctx context.Context, tx pgx.Tx, p AppendParams) (*Entry, error) {
	// Строка баланса появляется вместе с первой записью счёта
	_, err := tx.Exec(ctx, `
		INSERT INTO ledger_balances (account, currency) VALUES ($1, $2)
		ON CONFLICT (account) DO NOTHING
	`, p.Account, p.Currency)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания баланса: %w", err)
	}

	var (
		balance  decimal.Decimal
		lastHash string
		frozen   bool
	)
	err = tx.QueryRow(ctx, `
		SELECT balance, last_hash, frozen FROM ledger_balances
		WHERE account = $1 FOR UPDATE
	`, p.Account).Scan(&balance, &lastHash, &frozen)
	if err != nil {
		return nil, fmt.Errorf("ошибка блокировки баланса: %w", err)
	}

	if frozen && p.Direction == DirectionDebit {
		return nil, common.ErrAccountFrozen
	}

	entry, err := NextEntry(lastHash, balance, p, time.Now())
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, insertEntrySQL,
		entry.ID, entry.Account, entry.UserID, entry.EntryType, entry.Direction,
		entry.Amount, entry.Currency, entry.BalanceBefore, entry.BalanceAfter,
		entry.Game, entry.ReferenceID, entry.TierAtTime, entry.Note,
		entry.PrevHash, entry.Hash, entry.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка записи в журнал: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE ledger_balances
		SET balance = $2, last_hash = $3, updated_at = NOW()
		WHERE account = $1
	`, p.Account, entry.BalanceAfter, entry.Hash)
	if err != nil {
		return nil, fmt.Errorf("ошибка обновления баланса: %w", err)
	}

	return entry, nil
}

// Balance возвращает текущий баланс счёта за O(1) — из
// материализованной строки, без обхода цепочки.
// Счёт без записей имеет нулевой баланс.
func (r *Repository) Balance(ctx context.Context, account string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.db.QueryRow(ctx,
		`SELECT balance FROM ledger_balances WHERE account = $1`, account,
	).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("ошибка получения баланса: %w", err)
	}
	return balance, nil
}

// BalanceState возвращает материализованное состояние счёта: баланс
// и last_hash. exists=false — строки баланса нет (счёт никогда
// не использовался). Нужен аудиту: пустая цепочка и отсутствие счёта —
// разные ситуации.
func (r *Repository) BalanceState(ctx context.Context, account string) (balance decimal.Decimal, lastHash string, exists bool, err error) {
	err = r.db.QueryRow(ctx,
		`SELECT balance, last_hash FROM ledger_balances WHERE account = $1`, account,
	).Scan(&balance, &lastHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, GenesisHash, false, nil
	}
	if err != nil {
		return decimal.Zero, "", false, fmt.Errorf("ошибка чтения состояния счёта: %w", err)
	}
	return balance, lastHash, true, nil
}

// Entries возвращает все записи счёта от старейшей к новейшей.
// Используется только аудитом цепочки — обычные чтения ходят в Balance.
func (r *Repository) Entries(ctx context.Context, account string) ([]*Entry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT seq, id, account, user_id, entry_type, direction, amount, currency,
		       balance_before, balance_after, game, reference_id, tier_at_time,
		       note, prev_hash, entry_hash, created_at
		FROM ledger_entries
		WHERE account = $1
		ORDER BY seq ASC
	`, account)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения журнала: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		err := rows.Scan(
			&e.Seq, &e.ID, &e.Account, &e.UserID, &e.EntryType, &e.Direction,
			&e.Amount, &e.Currency, &e.BalanceBefore, &e.BalanceAfter,
			&e.Game, &e.ReferenceID, &e.TierAtTime, &e.Note,
			&e.PrevHash, &e.Hash, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// UserEntries возвращает последние N записей пользователя по всем его
// счетам. Читается дашбордом истории операций.
func (r *Repository) UserEntries(ctx context.Context, userID string, limit int) ([]*Entry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT seq, id, account, user_id, entry_type, direction, amount, currency,
		       balance_before, balance_after, game, reference_id, tier_at_time,
		       note, prev_hash, entry_hash, created_at
		FROM ledger_entries
		WHERE user_id = $1
		ORDER BY seq DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения журнала: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		err := rows.Scan(
			&e.Seq, &e.ID, &e.Account, &e.UserID, &e.EntryType, &e.Direction,
			&e.Amount, &e.Currency, &e.BalanceBefore, &e.BalanceAfter,
			&e.Game, &e.ReferenceID, &e.TierAtTime, &e.Note,
			&e.PrevHash, &e.Hash, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Accounts возвращает ключи всех счетов. limit <= 0 — без ограничения.
// Используется ночным аудитом для полного обхода.
func (r *Repository) Accounts(ctx context.Context, limit int) ([]string, error) {
	query := `SELECT account FROM ledger_balances ORDER BY account`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения счетов: %w", err)
	}
	defer rows.Close()

	var accounts []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("ошибка сканирования счёта: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// Freeze помечает счёт замороженным. Обратной операции в коде нет
// намеренно: разморозка — ручное решение оператора после аудита.
func (r *Repository) Freeze(ctx context.Context, account string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE ledger_balances SET frozen = TRUE, updated_at = NOW()
		WHERE account = $1
	`, account)
	if err != nil {
		return fmt.Errorf("ошибка заморозки счёта: %w", err)
	}
	return nil
}
