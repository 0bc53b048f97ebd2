// Package energy — refill.go отвечает за бесплатные рефиллы энергии.
// Два правила:
//   - базовое: один бесплатный рефилл раз в 24 часа (для всех тарифов);
//   - тарифное: кулдаун из tiers.Config.RefillCooldown, если он задан.
package energy

import (
	"time"

	"github.com/pravino/botgame-sub001/internal/features/tiers"
)

// freeRefillWindow — базовое окно бесплатного рефилла.
const freeRefillWindow = 24 * time.Hour

// CooldownStatus — структурированный ответ о готовности рефилла.
// Progress нужен клиенту для отрисовки кольца прогресса.
type CooldownStatus struct {
	CanRefill bool          // Можно ли рефиллить прямо сейчас
	Remaining time.Duration // Сколько осталось ждать (0, если можно)
	Total     time.Duration // Полная длина кулдауна
	Progress  float64       // elapsed/total, зажат в [0, 1]
}

// CanUseFreeRefill проверяет базовое правило 24 часов.
// lastFreeRefill == nil означает, что пользователь ещё ни разу
// не использовал бесплатный рефилл.
func CanUseFreeRefill(lastFreeRefill *time.Time, now time.Time) bool {
	if lastFreeRefill == nil {
		return true
	}
	return now.Sub(*lastFreeRefill) >= freeRefillWindow
}

// RefillCooldownRemaining возвращает состояние тарифного кулдауна.
// Если у тарифа кулдаун не задан (RefillCooldown == nil), действует
// базовое окно 24 часа.
func RefillCooldownRemaining(lastFreeRefill *time.Time, cfg tiers.Config, now time.Time) CooldownStatus {
	total := freeRefillWindow
	if cfg.RefillCooldown != nil {
		total = *cfg.RefillCooldown
	}

	// Ни одного рефилла ещё не было — доступен сразу
	if lastFreeRefill == nil {
		return CooldownStatus{CanRefill: true, Remaining: 0, Total: total, Progress: 1}
	}

	elapsed := now.Sub(*lastFreeRefill)
	if elapsed < 0 {
		elapsed = 0
	}

	if elapsed >= total {
		return CooldownStatus{CanRefill: true, Remaining: 0, Total: total, Progress: 1}
	}

	return CooldownStatus{
		CanRefill: false,
		Remaining: total - elapsed,
		Total:     total,
		Progress:  float64(elapsed) / float64(total),
	}
}
