// Package ledger реализует неизменяемый журнал всех движений средств.
// models.go описывает структуру записи и ключи счетов.
//
// Каждое изменение баланса — одна запись. Записи никогда не изменяются
// и не удаляются: исправления оформляются новыми записями типа adjustment.
// Записи одного счёта связаны цепочкой хешей, что позволяет обнаружить
// любое изменение истории задним числом.
package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Валюты ядра.
const (
	CurrencyCoins = "COINS" // Игровая валюта (целые числа)
	CurrencyUSDT  = "USDT"  // Депозитная валюта (4 знака после запятой)
)

// Precision возвращает число знаков после запятой для валюты.
// Второе значение false — валюта ядру неизвестна.
func Precision(currency string) (int32, bool) {
	switch currency {
	case CurrencyCoins:
		return 0, true
	case CurrencyUSDT:
		return 4, true
	}
	return 0, false
}

// Типы записей журнала.
const (
	TypeTap              = "tap"               // Результат тап-сессии
	TypeWheelSpin        = "wheel-spin"        // Выигрыш колеса
	TypePredictionPayout = "prediction-payout" // Выплата за верный прогноз
	TypeTaskReward       = "task-reward"       // Награда за задание
	TypeDeposit          = "deposit"           // Подтверждённый депозит
	TypeWithdrawal       = "withdrawal"        // Вывод средств
	TypePoolDrip         = "pool-drip"         // Дневной дрип аллокации в пул игры
	TypeAdjustment       = "adjustment"        // Ручная корректировка
)

// Направления движения средств.
const (
	DirectionCredit = "credit" // Начисление
	DirectionDebit  = "debit"  // Списание
)

// Entry — одна запись журнала. После создания не изменяется.
type Entry struct {
	ID            uuid.UUID       `db:"id"`
	Seq           int64           `db:"seq"`     // Порядковый номер внутри счёта (BIGSERIAL)
	Account       string          `db:"account"` // Ключ цепочки: счёт пользователя или пула
	UserID        *string         `db:"user_id"` // Пользователь (nil для записей пулов)
	EntryType     string          `db:"entry_type"`
	Direction     string          `db:"direction"`
	Amount        decimal.Decimal `db:"amount"` // Всегда > 0, знак несёт Direction
	Currency      string          `db:"currency"`
	BalanceBefore decimal.Decimal `db:"balance_before"`
	BalanceAfter  decimal.Decimal `db:"balance_after"`
	Game          *string         `db:"game"`         // Игра-источник (nil, если не привязана)
	ReferenceID   *string         `db:"reference_id"` // Ссылка на исходное событие
	TierAtTime    string          `db:"tier_at_time"` // Тариф пользователя на момент записи
	Note          string          `db:"note"`
	PrevHash      string          `db:"prev_hash"`
	Hash          string          `db:"entry_hash"`
	CreatedAt     time.Time       `db:"created_at"`
}

// AppendParams — параметры добавления записи.
type AppendParams struct {
	Account     string
	UserID      *string
	EntryType   string
	Direction   string
	Amount      decimal.Decimal
	Currency    string
	Game        *string
	ReferenceID *string
	TierAtTime  string
	Note        string
}

// UserAccount возвращает ключ счёта пользователя в заданной валюте.
// Цепочка хешей ведётся отдельно на каждый такой счёт.
func UserAccount(userID, currency string) string {
	return fmt.Sprintf("user:%s:%s", userID, currency)
}

// PoolAccount возвращает ключ счёта призового пула игры.
// Дрипы аллокаций попадают в журнал на эти синтетические счета.
func PoolAccount(tierName, game, currency string) string {
	return fmt.Sprintf("pool:%s:%s:%s", tierName, game, currency)
}

// JackpotAccount возвращает ключ счёта джекпот-хранилища тарифа.
// Джекпот-доля каждого дрипа проводится по журналу на этот счёт,
// чтобы сумма проводок дрипа всегда равнялась высвобожденной сумме.
func JackpotAccount(tierName, currency string) string {
	return fmt.Sprintf("jackpot:%s:%s", tierName, currency)
}
