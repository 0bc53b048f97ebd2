// Package tiers — catalog.go реализует справочник тарифов.
// Чистый lookup без состояния: имя тарифа → параметры.
package tiers

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pravino/botgame-sub001/internal/common"
)

// Catalog — справочник тарифов. Создаётся один раз при старте
// и дальше только читается, поэтому синхронизация не нужна.
type Catalog struct {
	configs map[string]Config
}

// NewCatalog создаёт каталог из списка тарифов.
func NewCatalog(configs []Config) *Catalog {
	m := make(map[string]Config, len(configs))
	for _, c := range configs {
		m[c.Name] = c
	}
	return &Catalog{configs: m}
}

// Resolve возвращает параметры тарифа по имени.
// Для неизвестного имени возвращает ErrUnknownTier.
func (c *Catalog) Resolve(name string) (Config, error) {
	cfg, ok := c.configs[name]
	if !ok {
		return Config{}, fmt.Errorf("%w: %q", common.ErrUnknownTier, name)
	}
	return cfg, nil
}

// Names возвращает имена всех тарифов каталога.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.configs))
	for name := range c.configs {
		names = append(names, name)
	}
	return names
}

// durationPtr — помощник для заполнения nullable-кулдаунов в дефолтах.
func durationPtr(d time.Duration) *time.Duration {
	return &d
}

// DefaultCatalog возвращает каталог с боевыми тарифами.
// Значения согласованы с прайсингом продукта; allocationDays может
// переопределяться конфигурацией при сборке приложения.
func DefaultCatalog(allocationDays int) *Catalog {
	return NewCatalog([]Config{
		{
			Name:                 "bronze",
			Price:                decimal.NewFromInt(10),
			DailyUnit:            decimal.RequireFromString("0.33"),
			TapMultiplier:        1.0,
			MaxEnergy:            1000,
			EnergyRefillRate:     2 * time.Second,
			FreeRefillsPerDay:    1,
			RefillCooldown:       nil, // только правило 24 часов
			WithdrawalFeePercent: decimal.NewFromInt(10),
			AllocationDays:       allocationDays,
			JackpotSharePercent:  decimal.NewFromInt(5),
			GameWeights:          map[string]int{GameTap: 60, GameWheel: 25, GamePrediction: 15},
		},
		{
			Name:                 "silver",
			Price:                decimal.NewFromInt(50),
			DailyUnit:            decimal.RequireFromString("1.67"),
			TapMultiplier:        1.5,
			MaxEnergy:            1500,
			EnergyRefillRate:     1500 * time.Millisecond,
			FreeRefillsPerDay:    2,
			RefillCooldown:       durationPtr(12 * time.Hour),
			WithdrawalFeePercent: decimal.NewFromInt(7),
			AllocationDays:       allocationDays,
			JackpotSharePercent:  decimal.NewFromInt(5),
			GameWeights:          map[string]int{GameTap: 50, GameWheel: 30, GamePrediction: 20},
		},
		{
			Name:                 "gold",
			Price:                decimal.NewFromInt(100),
			DailyUnit:            decimal.RequireFromString("3.33"),
			TapMultiplier:        2.0,
			MaxEnergy:            2000,
			EnergyRefillRate:     time.Second,
			FreeRefillsPerDay:    3,
			RefillCooldown:       durationPtr(8 * time.Hour),
			WithdrawalFeePercent: decimal.NewFromInt(5),
			AllocationDays:       allocationDays,
			JackpotSharePercent:  decimal.RequireFromString("7.5"),
			GameWeights:          map[string]int{GameTap: 45, GameWheel: 30, GamePrediction: 25},
		},
		{
			Name:                 "platinum",
			Price:                decimal.NewFromInt(500),
			DailyUnit:            decimal.RequireFromString("16.67"),
			TapMultiplier:        3.0,
			MaxEnergy:            3000,
			EnergyRefillRate:     500 * time.Millisecond,
			FreeRefillsPerDay:    5,
			RefillCooldown:       durationPtr(4 * time.Hour),
			WithdrawalFeePercent: decimal.NewFromInt(3),
			AllocationDays:       allocationDays,
			JackpotSharePercent:  decimal.NewFromInt(10),
			GameWeights:          map[string]int{GameTap: 40, GameWheel: 30, GamePrediction: 30},
		},
	})
}
