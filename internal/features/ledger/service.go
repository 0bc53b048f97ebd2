// Package ledger — service.go содержит бизнес-логику журнала.
// Валидация параметров, добавление записей, чтение балансов
// и верификация цепочки хешей.
package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/pravino/botgame-sub001/internal/common"
)

// Service управляет журналом движений средств.
type Service struct {
	repo *Repository
}

// NewService создаёт новый сервис журнала.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Append добавляет запись в журнал.
// Если Account не задан, но задан UserID — ключ счёта выводится
// из пользователя и валюты.
func (s *Service) Append(ctx context.Context, p AppendParams) (*Entry, error) {
	if _, ok := Precision(p.Currency); !ok {
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownCurrency, p.Currency)
	}
	if !p.Amount.IsPositive() {
		return nil, common.ErrInvalidAmount
	}
	if p.Account == "" {
		if p.UserID == nil {
			return nil, fmt.Errorf("не задан ни счёт, ни пользователь")
		}
		p.Account = UserAccount(*p.UserID, p.Currency)
	}

	entry, err := s.repo.Append(ctx, p)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"account": entry.Account,
		"type":    entry.EntryType,
		"dir":     entry.Direction,
		"amount":  entry.Amount.String(),
		"balance": entry.BalanceAfter.String(),
	}).Debug("Запись добавлена в журнал")

	return entry, nil
}

// CurrentBalance возвращает баланс пользователя в валюте.
// O(1): читается материализованный баланс, цепочка не обходится.
func (s *Service) CurrentBalance(ctx context.Context, userID, currency string) (decimal.Decimal, error) {
	return s.repo.Balance(ctx, UserAccount(userID, currency))
}

// AccountBalance возвращает баланс произвольного счёта (включая пулы).
func (s *Service) AccountBalance(ctx context.Context, account string) (decimal.Decimal, error) {
	return s.repo.Balance(ctx, account)
}

// History возвращает последние записи пользователя для отображения.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]*Entry, error) {
	return s.repo.UserEntries(ctx, userID, limit)
}

// VerifyResult — результат верификации цепочки одного счёта.
type VerifyResult struct {
	OK          bool
	Entries     int   // Сколько записей проверено
	BrokenIndex int   // Индекс первой сломанной записи (-1, если цепочка цела)
	Reason      error // Описание первой найденной проблемы
}

// VerifyChain проверяет цепочку счёта от старейшей записи к новейшей:
// пересчитывает каждый хеш, сверяет ссылки на предшественников,
// арифметику балансов и согласованность с материализованным
// состоянием счёта.
//
// Используется только периодическим аудитом, не обычными чтениями.
// Возвращаемая ошибка — инфраструктурная (БД недоступна); сломанная
// цепочка — это VerifyResult{OK: false}.
func (s *Service) VerifyChain(ctx context.Context, account string) (VerifyResult, error) {
	entries, err := s.repo.Entries(ctx, account)
	if err != nil {
		return VerifyResult{}, err
	}
	stored, lastHash, exists, err := s.repo.BalanceState(ctx, account)
	if err != nil {
		return VerifyResult{}, err
	}
	return verifyAgainstState(entries, stored, lastHash, exists), nil
}

// verifyAgainstState сверяет цепочку с материализованным состоянием.
// Пустая цепочка легальна только для счёта без истории: ненулевой
// баланс или не-генезисный last_hash без единой записи означает,
// что историю счёта стёрли.
func verifyAgainstState(entries []*Entry, stored decimal.Decimal, lastHash string, exists bool) VerifyResult {
	res := VerifyResult{OK: true, Entries: len(entries), BrokenIndex: -1}

	if idx, verr := VerifyEntries(entries); verr != nil {
		res.OK = false
		res.BrokenIndex = idx
		res.Reason = verr
		return res
	}

	if len(entries) == 0 {
		if exists && (!stored.IsZero() || lastHash != GenesisHash) {
			res.OK = false
			res.Reason = fmt.Errorf("%w: баланс %s при пустом журнале счёта",
				common.ErrChainIntegrity, stored.String())
		}
		return res
	}

	// Материализованное состояние — кеш; при расхождении доверяем цепочке
	last := entries[len(entries)-1]
	if !stored.Equal(last.BalanceAfter) {
		res.OK = false
		res.BrokenIndex = len(entries) - 1
		res.Reason = fmt.Errorf("%w: материализованный баланс %s не равен последнему balance_after %s",
			common.ErrChainIntegrity, stored.String(), last.BalanceAfter.String())
		return res
	}
	if lastHash != last.Hash {
		res.OK = false
		res.BrokenIndex = len(entries) - 1
		res.Reason = fmt.Errorf("%w: last_hash счёта не равен хешу последней записи",
			common.ErrChainIntegrity)
	}
	return res
}

// Freeze замораживает счёт: дальнейшие списания отклоняются
// до ручной проверки. Вызывается аудитом при нарушении целостности.
func (s *Service) Freeze(ctx context.Context, account string) error {
	log.WithField("account", account).Warn("Счёт заморожен")
	return s.repo.Freeze(ctx, account)
}

// Accounts возвращает все счета для обхода аудитом.
func (s *Service) Accounts(ctx context.Context, limit int) ([]string, error) {
	return s.repo.Accounts(ctx, limit)
}
