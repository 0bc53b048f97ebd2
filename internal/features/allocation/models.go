// Package allocation реализует движок распределения депозитов.
// models.go описывает структуры аллокаций и связанных записей.
//
// Подтверждённая покупка тарифа разбивается на аллокации — по одной
// на игру, которую тариф финансирует. Каждая аллокация «капает»
// (drip) в призовой пул своей игры ограниченной дневной порцией,
// пока не исчерпается или не истечёт. Неистраченный остаток уходит
// в фонд невостребованных средств.
package allocation

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Типы дрипа.
const (
	DripDaily = "daily" // Равными дневными порциями
	DripLump  = "lump"  // Вся сумма первым же циклом
)

// Purchase — подтверждённая покупка тарифа, вход движка.
// Создаётся платёжным контуром вне ядра.
type Purchase struct {
	TransactionID string          // ID транзакции депозита
	UserID        string          // Покупатель
	TierName      string          // Купленный тариф
	Amount        decimal.Decimal // Сумма депозита, USDT
	DepositDate   time.Time       // Момент подтверждения
}

// Allocation — бюджет одной игры из одной покупки.
type Allocation struct {
	ID             uuid.UUID       `db:"id"`
	TransactionID  string          `db:"transaction_id"`
	TierName       string          `db:"tier_name"`
	Game           string          `db:"game"`
	TotalAmount    decimal.Decimal `db:"total_amount"`
	DailyAmount    decimal.Decimal `db:"daily_amount"`
	TotalDays      int             `db:"total_days"`
	DaysReleased   int             `db:"days_released"`
	AmountReleased decimal.Decimal `db:"amount_released"`
	DripType       string          `db:"drip_type"`
	LastDripDate   *time.Time      `db:"last_drip_date"` // Календарный день последнего дрипа
	DepositDate    time.Time       `db:"deposit_date"`
	ExpiryDate     time.Time       `db:"expiry_date"` // DepositDate + TotalDays календарных дней
	Active         bool            `db:"active"`
	CreatedAt      time.Time       `db:"created_at"`
}

// Remaining возвращает нераспределённый остаток аллокации.
func (a *Allocation) Remaining() decimal.Decimal {
	return a.TotalAmount.Sub(a.AmountReleased)
}

// UnclaimedFund — остаток аллокации, не высвобожденный до истечения.
type UnclaimedFund struct {
	ID           uuid.UUID       `db:"id"`
	AllocationID uuid.UUID       `db:"allocation_id"`
	TierName     string          `db:"tier_name"`
	Game         string          `db:"game"`
	Amount       decimal.Decimal `db:"amount"`
	Destination  string          `db:"destination"` // admin | treasury
	CreatedAt    time.Time       `db:"created_at"`
}

// DripResult — итог одного дрип-цикла по одной аллокации.
type DripResult struct {
	AllocationID uuid.UUID
	Duplicate    bool            // Сегодняшний дрип уже был — no-op
	Closed       bool            // Аллокация закрыта этим циклом
	Released     decimal.Decimal // Сколько высвобождено этим циклом
	PoolCredit   decimal.Decimal // Доля, ушедшая в пул игры
	JackpotCut   decimal.Decimal // Доля, ушедшая в джекпот-хранилище
	Unclaimed    decimal.Decimal // Остаток, списанный в невостребованные (при закрытии)
}
