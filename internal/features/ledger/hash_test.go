package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pravino/botgame-sub001/internal/common"
)

func userIDPtr(s string) *string { return &s }

// buildChain наращивает цепочку в памяти так же, как это делает
// репозиторий: каждая следующая запись строится поверх хеша и баланса
// предыдущей.
func buildChain(t *testing.T, account string, ops []AppendParams) []*Entry {
	t.Helper()

	prevHash := GenesisHash
	balance := decimal.Zero
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	var entries []*Entry
	for i, p := range ops {
		p.Account = account
		e, err := NextEntry(prevHash, balance, p, at.Add(time.Duration(i)*time.Minute))
		if err != nil {
			t.Fatalf("операция %d: неожиданная ошибка %v", i, err)
		}
		entries = append(entries, e)
		prevHash = e.Hash
		balance = e.BalanceAfter
	}
	return entries
}

func credit(amount string) AppendParams {
	return AppendParams{
		UserID:    userIDPtr("u1"),
		EntryType: TypeTap,
		Direction: DirectionCredit,
		Amount:    decimal.RequireFromString(amount),
		Currency:  CurrencyCoins,
	}
}

func debit(amount string) AppendParams {
	return AppendParams{
		UserID:    userIDPtr("u1"),
		EntryType: TypeWithdrawal,
		Direction: DirectionDebit,
		Amount:    decimal.RequireFromString(amount),
		Currency:  CurrencyCoins,
	}
}

func TestChainVerifies(t *testing.T) {
	entries := buildChain(t, "user:u1:COINS", []AppendParams{
		credit("100"), credit("250"), debit("30"), credit("5"), debit("325"),
	})

	idx, err := VerifyEntries(entries)
	if err != nil {
		t.Fatalf("целая цепочка не прошла верификацию: idx=%d err=%v", idx, err)
	}

	last := entries[len(entries)-1]
	if !last.BalanceAfter.Equal(decimal.Zero) {
		t.Errorf("итоговый баланс %s, ожидался 0", last.BalanceAfter)
	}
	if entries[0].PrevHash != GenesisHash {
		t.Errorf("первая запись должна ссылаться на генезис, получено %q", entries[0].PrevHash)
	}
}

func TestBalanceArithmetic(t *testing.T) {
	entries := buildChain(t, "user:u1:COINS", []AppendParams{
		credit("100"), debit("40"),
	})

	e := entries[1]
	if !e.BalanceBefore.Equal(decimal.NewFromInt(100)) {
		t.Errorf("balance_before = %s, ожидалось 100", e.BalanceBefore)
	}
	if !e.BalanceAfter.Equal(decimal.NewFromInt(60)) {
		t.Errorf("balance_after = %s, ожидалось 60", e.BalanceAfter)
	}
}

func TestDebitOverBalance(t *testing.T) {
	_, err := NextEntry(GenesisHash, decimal.NewFromInt(50), debit("51"), time.Now())
	if !errors.Is(err, common.ErrInsufficientFunds) {
		t.Fatalf("ожидалась ErrInsufficientFunds, получено %v", err)
	}

	// Списание ровно в баланс проходит
	e, err := NextEntry(GenesisHash, decimal.NewFromInt(50), debit("50"), time.Now())
	if err != nil {
		t.Fatalf("списание в ноль должно проходить: %v", err)
	}
	if !e.BalanceAfter.IsZero() {
		t.Errorf("balance_after = %s, ожидался 0", e.BalanceAfter)
	}
}

func TestNonPositiveAmount(t *testing.T) {
	for _, amount := range []string{"0", "-5"} {
		_, err := NextEntry(GenesisHash, decimal.Zero, credit(amount), time.Now())
		if !errors.Is(err, common.ErrInvalidAmount) {
			t.Errorf("сумма %s: ожидалась ErrInvalidAmount, получено %v", amount, err)
		}
	}
}

func TestTamperedAmountDetected(t *testing.T) {
	entries := buildChain(t, "user:u1:COINS", []AppendParams{
		credit("100"), credit("50"), debit("20"),
	})

	// Подменяем сумму во второй записи задним числом
	entries[1].Amount = decimal.NewFromInt(500)

	idx, err := VerifyEntries(entries)
	if err == nil {
		t.Fatal("подмена суммы не обнаружена")
	}
	if idx != 1 {
		t.Errorf("первая сломанная запись: %d, ожидалась 1", idx)
	}
	if !errors.Is(err, common.ErrChainIntegrity) {
		t.Errorf("ожидалась ErrChainIntegrity, получено %v", err)
	}
}

func TestTamperedHashDetected(t *testing.T) {
	entries := buildChain(t, "user:u1:COINS", []AppendParams{
		credit("100"), credit("50"), debit("20"),
	})

	// Портим сохранённый хеш последней записи
	entries[2].Hash = GenesisHash

	idx, err := VerifyEntries(entries)
	if err == nil {
		t.Fatal("подмена хеша не обнаружена")
	}
	if idx != 2 {
		t.Errorf("первая сломанная запись: %d, ожидалась 2", idx)
	}
}

func TestBrokenLinkDetected(t *testing.T) {
	entries := buildChain(t, "user:u1:COINS", []AppendParams{
		credit("100"), credit("50"), debit("20"), credit("1"),
	})

	// «Выкусываем» запись из середины — цепочка рвётся на её месте
	cut := append(entries[:1], entries[2:]...)

	idx, err := VerifyEntries(cut)
	if err == nil {
		t.Fatal("разрыв цепочки не обнаружен")
	}
	if idx != 1 {
		t.Errorf("разрыв обнаружен на %d, ожидалось 1", idx)
	}
}

func TestHashDeterministic(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 4500, time.UTC) // наносекунды срежутся
	e1, err := NextEntry(GenesisHash, decimal.Zero, credit("100"), at)
	if err != nil {
		t.Fatal(err)
	}

	// Пересчёт по тем же полям даёт тот же хеш
	if recomputed := ComputeHash(e1); recomputed != e1.Hash {
		t.Errorf("хеш не детерминирован: %s != %s", recomputed, e1.Hash)
	}

	// Время усечено до микросекунд — round-trip через timestamptz
	// не изменит каноническую строку
	if e1.CreatedAt.Nanosecond()%1000 != 0 {
		t.Errorf("CreatedAt не усечён до микросекунд: %v", e1.CreatedAt)
	}
}
