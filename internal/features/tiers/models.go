// Package tiers управляет каталогом тарифов.
// models.go описывает структуру параметров тарифа.
//
// Тариф — это набор числовых параметров подписки: цена, дневная единица,
// множитель тапов, скорость восстановления энергии, процент комиссии
// на вывод и веса распределения депозита по играм.
package tiers

import (
	"time"

	"github.com/shopspring/decimal"
)

// Игры, между которыми делится депозит тарифа.
const (
	GameTap        = "tap"
	GameWheel      = "wheel"
	GamePrediction = "prediction"
)

// Games — канонический порядок игр. Остаток округления при разбиении
// депозита всегда уходит последней игре в этом порядке, чтобы разбиение
// было детерминированным.
var Games = []string{GameTap, GameWheel, GamePrediction}

// Config представляет параметры одного тарифа.
type Config struct {
	Name      string          // Имя тарифа ("bronze", "silver", ...)
	Price     decimal.Decimal // Цена подписки в USDT
	DailyUnit decimal.Decimal // Дневная единица начислений в USDT

	TapMultiplier float64 // Множитель награды за тап

	// Энергия
	MaxEnergy         int           // Ёмкость бака энергии
	EnergyRefillRate  time.Duration // Время восстановления одной единицы энергии
	FreeRefillsPerDay int           // Сколько бесплатных рефиллов в день
	// Кулдаун между бесплатными рефиллами. nil — у тарифа нет
	// кулдаун-рефилла, действует только правило «раз в 24 часа».
	RefillCooldown *time.Duration

	// Финансы
	WithdrawalFeePercent decimal.Decimal // Комиссия на вывод, %
	AllocationDays       int             // На сколько дней растягивается аллокация
	JackpotSharePercent  decimal.Decimal // Доля каждого дрипа, уходящая в джекпот, %

	// Веса распределения депозита по играм.
	// Нормализуются при разбиении, абсолютные значения не важны.
	GameWeights map[string]int
}
