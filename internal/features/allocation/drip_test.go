package allocation

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pravino/botgame-sub001/internal/common"
	"github.com/pravino/botgame-sub001/internal/features/tiers"
)

var msk = time.FixedZone("MSK", 3*60*60)

func testAllocation(total string, days int) *Allocation {
	deposit := time.Date(2026, 3, 1, 0, 0, 0, 0, msk)
	totalDec := decimal.RequireFromString(total)
	return &Allocation{
		ID:             uuid.New(),
		TransactionID:  "tx-1",
		TierName:       "gold",
		Game:           tiers.GameTap,
		TotalAmount:    totalDec,
		DailyAmount:    totalDec.Div(decimal.NewFromInt(int64(days))).RoundDown(4),
		TotalDays:      days,
		AmountReleased: decimal.Zero,
		DripType:       DripDaily,
		DepositDate:    deposit,
		ExpiryDate:     deposit.AddDate(0, 0, days),
		Active:         true,
	}
}

// applyDrip повторяет в памяти то, что репозиторий делает в транзакции.
func applyDrip(a *Allocation, d dripDecision, today time.Time) {
	if d.duplicate {
		return
	}
	if d.close {
		a.Active = false
		return
	}
	a.DaysReleased++
	a.AmountReleased = a.AmountReleased.Add(d.release)
	day := common.DateKey(today, msk)
	a.LastDripDate = &day
	a.Active = !d.lastDay
}

func TestThirtyDayDripExact(t *testing.T) {
	a := testAllocation("30", 30)
	day := time.Date(2026, 3, 1, 9, 0, 0, 0, msk)

	for i := 0; i < 30; i++ {
		d := computeDrip(a, day, msk)
		if d.duplicate || d.close {
			t.Fatalf("день %d: неожиданное решение %+v", i+1, d)
		}
		applyDrip(a, d, day)
		day = day.AddDate(0, 0, 1)
	}

	if !a.AmountReleased.Equal(decimal.NewFromInt(30)) {
		t.Errorf("amount_released = %s, ожидалось ровно 30", a.AmountReleased)
	}
	if a.DaysReleased != 30 {
		t.Errorf("days_released = %d, ожидалось 30", a.DaysReleased)
	}
	if a.Active {
		t.Error("аллокация должна закрыться после последнего дрипа")
	}
	if a.Remaining().IsPositive() {
		t.Errorf("остаток должен быть 0, получено %s", a.Remaining())
	}
}

func TestFinalDayAbsorbsRounding(t *testing.T) {
	// 10 / 3 = 3.3333 (усечение); последний день забирает 3.3334
	a := testAllocation("10", 3)
	day := time.Date(2026, 3, 1, 9, 0, 0, 0, msk)

	var releases []decimal.Decimal
	for i := 0; i < 3; i++ {
		d := computeDrip(a, day, msk)
		releases = append(releases, d.release)
		applyDrip(a, d, day)
		day = day.AddDate(0, 0, 1)
	}

	if !releases[0].Equal(decimal.RequireFromString("3.3333")) {
		t.Errorf("день 1: %s, ожидалось 3.3333", releases[0])
	}
	if !releases[2].Equal(decimal.RequireFromString("3.3334")) {
		t.Errorf("день 3: %s, ожидалось 3.3334 (остаток)", releases[2])
	}
	if !a.AmountReleased.Equal(decimal.NewFromInt(10)) {
		t.Errorf("сумма дрипов %s, ожидалось ровно 10", a.AmountReleased)
	}
}

func TestReleaseNeverExceedsTotal(t *testing.T) {
	// Дневная порция больше остатка — отдаём остаток, не больше
	a := testAllocation("10", 3)
	a.AmountReleased = decimal.RequireFromString("9.5")
	a.DaysReleased = 2

	d := computeDrip(a, time.Date(2026, 3, 3, 9, 0, 0, 0, msk), msk)
	if !d.release.Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("release = %s, ожидалось 0.5 (остаток)", d.release)
	}
	if !d.lastDay {
		t.Error("дрип остатка должен закрывать аллокацию")
	}
}

func TestSameDayDripIsNoop(t *testing.T) {
	a := testAllocation("30", 30)
	day := time.Date(2026, 3, 1, 9, 0, 0, 0, msk)

	d := computeDrip(a, day, msk)
	applyDrip(a, d, day)
	before := a.AmountReleased

	// Повторный запуск в тот же день (даже другим временем суток)
	d2 := computeDrip(a, day.Add(5*time.Hour), msk)
	if !d2.duplicate {
		t.Fatalf("повторный дрип того же дня должен быть no-op, получено %+v", d2)
	}
	applyDrip(a, d2, day)
	if !a.AmountReleased.Equal(before) {
		t.Errorf("amount_released изменился при дубликате: %s → %s", before, a.AmountReleased)
	}
}

func TestExpiryClosesWithUnclaimed(t *testing.T) {
	a := testAllocation("30", 30)
	day := time.Date(2026, 3, 1, 9, 0, 0, 0, msk)

	// Капаем только 10 дней из 30
	for i := 0; i < 10; i++ {
		applyDrip(a, computeDrip(a, day, msk), day)
		day = day.AddDate(0, 0, 1)
	}

	// Перескакиваем за дату истечения
	late := a.ExpiryDate.AddDate(0, 0, 1)
	d := computeDrip(a, late, msk)
	if !d.close {
		t.Fatalf("после истечения ожидалось закрытие, получено %+v", d)
	}
	if !d.unclaimed.Equal(decimal.NewFromInt(20)) {
		t.Errorf("невостребованный остаток %s, ожидалось 20", d.unclaimed)
	}
}

func TestTinyShareDrainsImmediately(t *testing.T) {
	// 0.002 / 30 усекается до нулевой дневной порции — первый же цикл
	// должен отдать весь остаток, а не буксовать до истечения
	a := testAllocation("0.002", 30)
	if a.DailyAmount.IsPositive() {
		t.Fatalf("ожидалась нулевая дневная порция, получено %s", a.DailyAmount)
	}

	d := computeDrip(a, time.Date(2026, 3, 1, 9, 0, 0, 0, msk), msk)
	if d.duplicate || d.close {
		t.Fatalf("неожиданное решение %+v", d)
	}
	if !d.release.Equal(decimal.RequireFromString("0.002")) {
		t.Errorf("release = %s, ожидался весь остаток 0.002", d.release)
	}
	if !d.lastDay {
		t.Error("дрип всего остатка должен закрывать аллокацию")
	}
}

func TestLumpReleasesEverything(t *testing.T) {
	a := testAllocation("100", 30)
	a.DripType = DripLump

	d := computeDrip(a, time.Date(2026, 3, 1, 9, 0, 0, 0, msk), msk)
	if !d.release.Equal(decimal.NewFromInt(100)) {
		t.Errorf("lump: release = %s, ожидалось 100", d.release)
	}
	if !d.lastDay {
		t.Error("lump-дрип должен закрывать аллокацию сразу")
	}
}

func TestSplitByWeights(t *testing.T) {
	total := decimal.RequireFromString("100")
	weights := map[string]int{
		tiers.GameTap:        60,
		tiers.GameWheel:      25,
		tiers.GamePrediction: 15,
	}

	shares := SplitByWeights(total, weights, 4)

	if !shares[tiers.GameTap].Equal(decimal.NewFromInt(60)) {
		t.Errorf("tap: %s, ожидалось 60", shares[tiers.GameTap])
	}
	sum := decimal.Zero
	for _, s := range shares {
		sum = sum.Add(s)
	}
	if !sum.Equal(total) {
		t.Errorf("сумма долей %s не равна %s", sum, total)
	}
}

func TestSplitByWeightsRounding(t *testing.T) {
	// 100 / 3 равных веса: две доли по 33.3333, последняя впитывает остаток
	total := decimal.RequireFromString("100")
	weights := map[string]int{
		tiers.GameTap:        1,
		tiers.GameWheel:      1,
		tiers.GamePrediction: 1,
	}

	shares := SplitByWeights(total, weights, 4)

	sum := decimal.Zero
	for _, s := range shares {
		sum = sum.Add(s)
	}
	if !sum.Equal(total) {
		t.Fatalf("сумма долей %s не равна %s", sum, total)
	}
	if !shares[tiers.GamePrediction].Equal(decimal.RequireFromString("33.3334")) {
		t.Errorf("последняя игра: %s, ожидалось 33.3334", shares[tiers.GamePrediction])
	}
}

func TestSplitJackpotConservation(t *testing.T) {
	release := decimal.RequireFromString("3.3333")
	pool, jackpot := splitJackpot(release, decimal.RequireFromString("7.5"))

	if !pool.Add(jackpot).Equal(release) {
		t.Errorf("пул %s + джекпот %s != %s", pool, jackpot, release)
	}
	if !jackpot.Equal(decimal.RequireFromString("0.2499")) {
		t.Errorf("джекпот = %s, ожидалось 0.2499 (усечение)", jackpot)
	}
}

func TestNewAllocations(t *testing.T) {
	cooldown := 8 * time.Hour
	cfg := tiers.Config{
		Name:                "gold",
		AllocationDays:      30,
		RefillCooldown:      &cooldown,
		JackpotSharePercent: decimal.NewFromInt(5),
		GameWeights: map[string]int{
			tiers.GameTap:        45,
			tiers.GameWheel:      30,
			tiers.GamePrediction: 25,
		},
	}
	p := Purchase{
		TransactionID: "tx-42",
		UserID:        "u1",
		TierName:      "gold",
		Amount:        decimal.NewFromInt(100),
		DepositDate:   time.Date(2026, 3, 1, 15, 30, 0, 0, msk),
	}

	allocations := NewAllocations(p, cfg, msk)
	if len(allocations) != 3 {
		t.Fatalf("ожидалось 3 аллокации, получено %d", len(allocations))
	}

	sum := decimal.Zero
	for _, a := range allocations {
		sum = sum.Add(a.TotalAmount)
		if a.TotalDays != 30 {
			t.Errorf("%s: total_days = %d", a.Game, a.TotalDays)
		}
		wantExpiry := time.Date(2026, 3, 31, 0, 0, 0, 0, msk)
		if !a.ExpiryDate.Equal(wantExpiry) {
			t.Errorf("%s: expiry %v, ожидалось %v", a.Game, a.ExpiryDate, wantExpiry)
		}
		if !a.Active {
			t.Errorf("%s: новая аллокация должна быть активной", a.Game)
		}
	}
	if !sum.Equal(p.Amount) {
		t.Errorf("сумма аллокаций %s не равна депозиту %s", sum, p.Amount)
	}
}
