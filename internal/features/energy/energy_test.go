package energy

import (
	"testing"
	"time"

	"github.com/pravino/botgame-sub001/internal/features/tiers"
)

func cfgWithRate(rate time.Duration) tiers.Config {
	return tiers.Config{
		Name:             "bronze",
		MaxEnergy:        1000,
		EnergyRefillRate: rate,
	}
}

func TestCurrent(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		stored     int
		max        int
		lastRefill time.Time
		rate       time.Duration
		want       int
	}{
		{
			// 10 секунд при скорости 2с/ед. = 5 целых тиков
			name:       "пять тиков за десять секунд",
			stored:     500,
			max:        1000,
			lastRefill: now.Add(-10000 * time.Millisecond),
			rate:       2000 * time.Millisecond,
			want:       505,
		},
		{
			// Неполный тик не засчитывается
			name:       "неполный тик отбрасывается",
			stored:     500,
			max:        1000,
			lastRefill: now.Add(-3900 * time.Millisecond),
			rate:       2000 * time.Millisecond,
			want:       501,
		},
		{
			name:       "насыщение на максимуме",
			stored:     990,
			max:        1000,
			lastRefill: now.Add(-1 * time.Hour),
			rate:       time.Second,
			want:       1000,
		},
		{
			name:       "уже полный бак",
			stored:     1000,
			max:        1000,
			lastRefill: now.Add(-time.Minute),
			rate:       time.Second,
			want:       1000,
		},
		{
			name:       "отрицательный stored зажимается в ноль",
			stored:     -50,
			max:        1000,
			lastRefill: now.Add(-4 * time.Second),
			rate:       2 * time.Second,
			want:       2,
		},
		{
			// lastRefill в будущем (перевод часов) — энергия не убывает
			name:       "часы назад",
			stored:     300,
			max:        1000,
			lastRefill: now.Add(10 * time.Minute),
			rate:       time.Second,
			want:       300,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Current(tt.stored, tt.max, tt.lastRefill, cfgWithRate(tt.rate), now)
			if got != tt.want {
				t.Errorf("Current() = %d, ожидалось %d", got, tt.want)
			}
		})
	}
}

func TestCurrentMonotonic(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	lastRefill := now.Add(-time.Minute)
	cfg := cfgWithRate(2 * time.Second)

	prev := -1
	for i := 0; i < 120; i++ {
		got := Current(100, 1000, lastRefill, cfg, now.Add(time.Duration(i)*time.Second))
		if got < prev {
			t.Fatalf("энергия убыла со временем: %d → %d на шаге %d", prev, got, i)
		}
		prev = got
	}
}

func TestTimeUntilFull(t *testing.T) {
	cfg := cfgWithRate(2 * time.Second)

	if got := TimeUntilFull(1000, 1000, cfg); got != "Full!" {
		t.Errorf("полный бак: получено %q, ожидалось %q", got, "Full!")
	}
	if got := TimeUntilFull(1200, 1000, cfg); got != "Full!" {
		t.Errorf("переполненный бак: получено %q, ожидалось %q", got, "Full!")
	}

	// 995 → 1000 = 5 единиц по 2 секунды = 10 секунд
	if got := TimeUntilFull(995, 1000, cfg); got != "10s" {
		t.Errorf("TimeUntilFull(995, 1000) = %q, ожидалось %q", got, "10s")
	}

	// 100 единиц по 2с = 200с = 3m 20s
	if got := TimeUntilFull(900, 1000, cfg); got != "3m 20s" {
		t.Errorf("TimeUntilFull(900, 1000) = %q, ожидалось %q", got, "3m 20s")
	}
}
