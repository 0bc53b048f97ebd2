// Package allocation — drip.go содержит чистую арифметику движка:
// разбиение депозита по весам игр и расчёт дневной порции.
// Вся работа с деньгами — на decimal, никакого float:
// ошибка округления не должна накапливаться за 30 дней дрипов.
package allocation

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pravino/botgame-sub001/internal/common"
	"github.com/pravino/botgame-sub001/internal/features/tiers"
)

// usdtPrecision — точность USDT-сумм (знаков после запятой).
const usdtPrecision = 4

// SplitByWeights разбивает сумму по весам игр пропорционально.
// Каждая доля усекается до precision, остаток округления достаётся
// последней игре канонического порядка — суммы долей сходятся с total
// до последней единицы точности.
func SplitByWeights(total decimal.Decimal, weights map[string]int, precision int32) map[string]decimal.Decimal {
	games := make([]string, 0, len(weights))
	weightSum := 0
	for game, w := range weights {
		if w <= 0 {
			continue
		}
		games = append(games, game)
		weightSum += w
	}
	// Канонический порядок: как в tiers.Games, незнакомые игры — в конец по алфавиту
	sort.Slice(games, func(i, j int) bool {
		return gameRank(games[i]) < gameRank(games[j])
	})

	out := make(map[string]decimal.Decimal, len(games))
	if weightSum == 0 || len(games) == 0 {
		return out
	}

	allocated := decimal.Zero
	for i, game := range games {
		if i == len(games)-1 {
			// Последняя игра впитывает остаток округления
			out[game] = total.Sub(allocated)
			break
		}
		share := total.Mul(decimal.NewFromInt(int64(weights[game]))).
			Div(decimal.NewFromInt(int64(weightSum))).
			RoundDown(precision)
		out[game] = share
		allocated = allocated.Add(share)
	}
	return out
}

func gameRank(game string) string {
	for i, g := range tiers.Games {
		if g == game {
			return string(rune('0' + i))
		}
	}
	return "z" + game
}

// NewAllocations строит аллокации для подтверждённой покупки:
// по одной на игру с положительным весом в тарифе.
func NewAllocations(p Purchase, cfg tiers.Config, loc *time.Location) []*Allocation {
	days := cfg.AllocationDays
	if days <= 0 {
		days = 30
	}

	depositDay := common.DateKey(p.DepositDate, loc)
	expiry := depositDay.AddDate(0, 0, days)
	shares := SplitByWeights(p.Amount, cfg.GameWeights, usdtPrecision)

	allocations := make([]*Allocation, 0, len(shares))
	for _, game := range tiers.Games {
		share, ok := shares[game]
		if !ok || !share.IsPositive() {
			continue
		}
		allocations = append(allocations, &Allocation{
			ID:             uuid.New(),
			TransactionID:  p.TransactionID,
			TierName:       cfg.Name,
			Game:           game,
			TotalAmount:    share,
			DailyAmount:    share.Div(decimal.NewFromInt(int64(days))).RoundDown(usdtPrecision),
			TotalDays:      days,
			DaysReleased:   0,
			AmountReleased: decimal.Zero,
			DripType:       DripDaily,
			DepositDate:    depositDay,
			ExpiryDate:     expiry,
			Active:         true,
		})
	}
	return allocations
}

// dripDecision — решение одного цикла, рассчитанное до каких-либо записей.
type dripDecision struct {
	duplicate bool
	close     bool            // Закрыть без дрипа (истечение или исчерпание)
	release   decimal.Decimal // Сколько высвободить этим циклом
	unclaimed decimal.Decimal // Остаток в невостребованные (только при close)
	lastDay   bool            // Этот дрип — последний, аллокация закрывается следом
}

// computeDrip решает, что делать с аллокацией в календарный день today.
//
// Инвариант движка: суммарно высвобожденное никогда не превышает
// TotalAmount и достигает его ровно один раз — release всегда
// min(DailyAmount, остаток), а последний плановый день забирает
// остаток целиком, впитывая накопленную ошибку усечения.
func computeDrip(a *Allocation, today time.Time, loc *time.Location) dripDecision {
	// Идемпотентность: за один календарный день — максимум один дрип
	if a.LastDripDate != nil && common.SameDay(*a.LastDripDate, today, loc) {
		return dripDecision{duplicate: true}
	}

	// Истечение или исчерпание — путь закрытия, не ошибка
	if common.DateKey(today, loc).After(a.ExpiryDate) || !a.Remaining().IsPositive() {
		return dripDecision{close: true, unclaimed: a.Remaining()}
	}

	remaining := a.Remaining()
	release := a.DailyAmount
	if a.DripType == DripLump || a.DaysReleased == a.TotalDays-1 ||
		!release.IsPositive() || release.GreaterThan(remaining) {
		// Последний плановый день (или lump) отдаёт остаток целиком.
		// Сюда же попадает дневная порция, усечённая до нуля на совсем
		// маленькой доле: остаток отдаётся сразу, а не висит до истечения
		release = remaining
	}

	return dripDecision{
		release: release,
		lastDay: release.Equal(remaining),
	}
}

// splitJackpot делит высвобожденную сумму на долю пула и долю джекпота.
// Доли всегда сходятся с release точно: джекпот усекается, пул получает разницу.
func splitJackpot(release, jackpotPercent decimal.Decimal) (pool, jackpot decimal.Decimal) {
	jackpot = release.Mul(jackpotPercent).Div(decimal.NewFromInt(100)).RoundDown(usdtPrecision)
	pool = release.Sub(jackpot)
	return pool, jackpot
}
