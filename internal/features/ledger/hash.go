// Package ledger — hash.go реализует цепочку хешей журнала.
//
// Хеш записи считается по SHA3-256 от канонической строки её полей
// и хеша предыдущей записи. Формат канонической строки версионирован
// (префикс "v1"): при изменении набора полей или форматирования нужно
// вводить "v2", иначе верификация старых цепочек молча сломается.
package ledger

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/sha3"

	"github.com/pravino/botgame-sub001/internal/common"
)

// hashVersion — версия канонической сериализации.
const hashVersion = "v1"

// GenesisHash — хеш-предшественник первой записи каждого счёта.
var GenesisHash = strings.Repeat("0", 64)

// canonicalString собирает каноническую строку для хеширования.
// Суммы всегда форматируются с 4 знаками после запятой, время — RFC3339Nano
// в UTC, усечённое до микросекунд (точность timestamptz в PostgreSQL).
func canonicalString(e *Entry) string {
	return strings.Join([]string{
		hashVersion,
		e.PrevHash,
		e.Account,
		e.EntryType,
		e.Direction,
		e.Amount.StringFixed(4),
		e.BalanceAfter.StringFixed(4),
		e.CreatedAt.UTC().Format(time.RFC3339Nano),
	}, "|")
}

// ComputeHash возвращает hex-хеш записи по канонической строке.
func ComputeHash(e *Entry) string {
	sum := sha3.Sum256([]byte(canonicalString(e)))
	return hex.EncodeToString(sum[:])
}

// NextEntry строит следующую запись цепочки поверх состояния
// (prevHash, balance). Чистая функция: сюда вынесена вся арифметика
// и валидация, репозиторий лишь сохраняет результат атомарно.
//
// Возвращает ErrInvalidAmount для неположительной суммы и
// ErrInsufficientFunds для списания сверх баланса.
func NextEntry(prevHash string, balance decimal.Decimal, p AppendParams, at time.Time) (*Entry, error) {
	if !p.Amount.IsPositive() {
		return nil, common.ErrInvalidAmount
	}

	var after decimal.Decimal
	switch p.Direction {
	case DirectionCredit:
		after = balance.Add(p.Amount)
	case DirectionDebit:
		if p.Amount.GreaterThan(balance) {
			return nil, fmt.Errorf("%w: нужно %s, есть %s",
				common.ErrInsufficientFunds, p.Amount.String(), balance.String())
		}
		after = balance.Sub(p.Amount)
	default:
		return nil, fmt.Errorf("неизвестное направление %q", p.Direction)
	}

	e := &Entry{
		ID:            uuid.New(),
		Account:       p.Account,
		UserID:        p.UserID,
		EntryType:     p.EntryType,
		Direction:     p.Direction,
		Amount:        p.Amount,
		Currency:      p.Currency,
		BalanceBefore: balance,
		BalanceAfter:  after,
		Game:          p.Game,
		ReferenceID:   p.ReferenceID,
		TierAtTime:    p.TierAtTime,
		Note:          p.Note,
		PrevHash:      prevHash,
		// Усекаем до микросекунд, чтобы хеш сошёлся после
		// round-trip через timestamptz
		CreatedAt: at.UTC().Truncate(time.Microsecond),
	}
	e.Hash = ComputeHash(e)
	return e, nil
}

// VerifyEntries проходит цепочку от старейшей записи к новейшей,
// пересчитывая хеши и сверяя арифметику балансов.
//
// Возвращает индекс первой сломанной записи и описание проблемы.
// Для целой цепочки — (-1, nil).
func VerifyEntries(entries []*Entry) (int, error) {
	prevHash := GenesisHash
	for i, e := range entries {
		if e.PrevHash != prevHash {
			return i, fmt.Errorf("%w: запись %d ссылается на %.8s, ожидалось %.8s",
				common.ErrChainIntegrity, i, e.PrevHash, prevHash)
		}

		var expected decimal.Decimal
		switch e.Direction {
		case DirectionCredit:
			expected = e.BalanceBefore.Add(e.Amount)
		case DirectionDebit:
			expected = e.BalanceBefore.Sub(e.Amount)
		default:
			return i, fmt.Errorf("%w: запись %d с направлением %q",
				common.ErrChainIntegrity, i, e.Direction)
		}
		if !e.BalanceAfter.Equal(expected) {
			return i, fmt.Errorf("%w: запись %d: balance_after %s, ожидалось %s",
				common.ErrChainIntegrity, i, e.BalanceAfter.String(), expected.String())
		}

		if recomputed := ComputeHash(e); recomputed != e.Hash {
			return i, fmt.Errorf("%w: запись %d: хеш не сходится", common.ErrChainIntegrity, i)
		}
		prevHash = e.Hash
	}
	return -1, nil
}
