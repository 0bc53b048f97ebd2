// Package withdrawal обрабатывает заявки на вывод USDT.
// models.go описывает структуры заявки и батча выплат.
//
// Ядро не выполняет сетевых платежей: оно считает комиссии, списывает
// средства через журнал и группирует заявки в батчи. Фактическую
// выплату выполняет внешний исполнитель, который затем помечает батч.
package withdrawal

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Статусы заявки на вывод.
const (
	StatusPending   = "pending"   // Создана, ждёт батча
	StatusBatched   = "batched"   // Включена в батч
	StatusProcessed = "processed" // Выплачена
	StatusFailed    = "failed"    // Выплата не прошла
)

// Статусы батча.
const (
	BatchPending   = "pending"
	BatchProcessed = "processed"
)

// Withdrawal — одна заявка на вывод.
// FeePercent замораживается из тарифа на момент создания заявки:
// последующая смена тарифа пользователя комиссию не меняет.
type Withdrawal struct {
	ID          uuid.UUID       `db:"id"`
	UserID      string          `db:"user_id"`
	GrossAmount decimal.Decimal `db:"gross_amount"`
	FeePercent  decimal.Decimal `db:"fee_percent"`
	FeeAmount   decimal.Decimal `db:"fee_amount"`
	NetAmount   decimal.Decimal `db:"net_amount"`
	Currency    string          `db:"currency"`
	ToWallet    string          `db:"to_wallet"`
	Network     string          `db:"network"` // TRC20, ERC20, ...
	Status      string          `db:"status"`
	TierAtTime  string          `db:"tier_at_time"`
	BatchID     *uuid.UUID      `db:"batch_id"`
	FailReason  *string         `db:"fail_reason"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

// Batch — группа заявок, отданная исполнителю выплат одним пакетом.
// Итоги — суммы по включённым заявкам.
type Batch struct {
	ID          uuid.UUID       `db:"id"`
	Status      string          `db:"status"`
	Count       int             `db:"member_count"`
	TotalGross  decimal.Decimal `db:"total_gross"`
	TotalFee    decimal.Decimal `db:"total_fee"`
	TotalNet    decimal.Decimal `db:"total_net"`
	CreatedAt   time.Time       `db:"created_at"`
	ProcessedAt *time.Time      `db:"processed_at"`
}
