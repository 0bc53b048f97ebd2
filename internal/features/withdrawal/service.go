// Package withdrawal — service.go содержит бизнес-логику выводов:
// валидация, расчёт комиссии, списание через журнал, батчи.
package withdrawal

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/pravino/botgame-sub001/internal/common"
	"github.com/pravino/botgame-sub001/internal/features/ledger"
	"github.com/pravino/botgame-sub001/internal/features/tiers"
)

// Service управляет заявками на вывод.
type Service struct {
	repo      *Repository
	catalog   *tiers.Catalog
	minAmount decimal.Decimal
}

// NewService создаёт новый сервис выводов.
func NewService(repo *Repository, catalog *tiers.Catalog, minAmount decimal.Decimal) *Service {
	return &Service{repo: repo, catalog: catalog, minAmount: minAmount}
}

// CreateWithdrawal создаёт заявку на вывод USDT.
//
// Комиссия разрешается из тарифа пользователя на момент заявки
// и замораживается в записи. С баланса списывается ПОЛНАЯ gross-сумма;
// при нехватке средств возвращается ErrInsufficientFunds без каких-либо
// следов в базе.
func (s *Service) CreateWithdrawal(ctx context.Context, userID string, gross decimal.Decimal, tierName, toWallet, network string) (*Withdrawal, error) {
	if !gross.IsPositive() {
		return nil, common.ErrInvalidAmount
	}
	if gross.LessThan(s.minAmount) {
		return nil, fmt.Errorf("%w: минимум %s USDT", common.ErrInvalidAmount, s.minAmount)
	}
	if toWallet == "" {
		return nil, fmt.Errorf("не указан кошелёк получателя")
	}

	cfg, err := s.catalog.Resolve(tierName)
	if err != nil {
		return nil, err
	}

	fee, net := ComputeFee(gross, cfg.WithdrawalFeePercent)
	w := &Withdrawal{
		ID:          uuid.New(),
		UserID:      userID,
		GrossAmount: gross,
		FeePercent:  cfg.WithdrawalFeePercent,
		FeeAmount:   fee,
		NetAmount:   net,
		Currency:    ledger.CurrencyUSDT,
		ToWallet:    toWallet,
		Network:     network,
		Status:      StatusPending,
		TierAtTime:  tierName,
	}

	if _, err := s.repo.Create(ctx, w); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user":  userID,
		"gross": gross.String(),
		"fee":   fee.String(),
		"net":   net.String(),
		"tier":  tierName,
	}).Info("Заявка на вывод создана")

	return w, nil
}

// BatchPending группирует все ожидающие заявки в батч для исполнителя.
func (s *Service) BatchPending(ctx context.Context) (*Batch, error) {
	batch, err := s.repo.BatchPending(ctx)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"batch": batch.ID,
		"count": batch.Count,
		"gross": batch.TotalGross.String(),
		"net":   batch.TotalNet.String(),
	}).Info("Батч выплат сформирован")

	return batch, nil
}

// MarkBatchProcessed фиксирует результат внешнего исполнителя выплат:
// батч становится processed, провалившиеся заявки остаются помеченными
// failed индивидуально.
func (s *Service) MarkBatchProcessed(ctx context.Context, batchID uuid.UUID, failed map[uuid.UUID]string) error {
	if err := s.repo.MarkProcessed(ctx, batchID, failed); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"batch":  batchID,
		"failed": len(failed),
	}).Info("Батч выплат обработан")
	return nil
}

// Get возвращает заявку по ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Withdrawal, error) {
	return s.repo.Get(ctx, id)
}

// UserWithdrawals возвращает заявки пользователя для отображения.
func (s *Service) UserWithdrawals(ctx context.Context, userID string, limit int) ([]*Withdrawal, error) {
	return s.repo.UserWithdrawals(ctx, userID, limit)
}
