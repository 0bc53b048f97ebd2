// Package energy реализует модель энергии тап-игры.
// energy.go считает текущую энергию пользователя из сохранённого
// значения и времени последнего пересчёта.
//
// Энергия восстанавливается пассивно: одна единица за
// tiers.Config.EnergyRefillRate. Состояние в базе не обновляется
// каждую секунду — хранится пара (stored, lastRefill), а актуальное
// значение выводится арифметикой на момент запроса.
package energy

import (
	"time"

	"github.com/pravino/botgame-sub001/internal/common"
	"github.com/pravino/botgame-sub001/internal/features/tiers"
)

// Current возвращает текущую энергию пользователя на момент now.
//
// Формула: min(max, stored + floor(elapsed / refillRate)).
// Результат монотонно не убывает со временем, насыщается на max
// и никогда не отрицателен.
func Current(stored, max int, lastRefill time.Time, cfg tiers.Config, now time.Time) int {
	if stored < 0 {
		stored = 0
	}
	if stored >= max {
		return max
	}
	if cfg.EnergyRefillRate <= 0 {
		return stored
	}

	elapsed := now.Sub(lastRefill)
	if elapsed < 0 {
		// Часы уехали назад — не отнимаем уже накопленное
		elapsed = 0
	}

	regenerated := int(elapsed / cfg.EnergyRefillRate)
	current := stored + regenerated
	if current > max {
		return max
	}
	return current
}

// TimeUntilFull возвращает строку с временем до полного бака.
// Если бак уже полон — "Full!" (строка отображается в клиенте как есть).
func TimeUntilFull(current, max int, cfg tiers.Config) string {
	if current >= max {
		return "Full!"
	}
	remaining := max - current
	return common.FormatDuration(time.Duration(remaining) * cfg.EnergyRefillRate)
}
