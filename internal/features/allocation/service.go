// Package allocation — service.go содержит бизнес-логику движка:
// создание аллокаций из покупки и ежедневный прогон дрип-циклов.
package allocation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/pravino/botgame-sub001/internal/common"
	"github.com/pravino/botgame-sub001/internal/features/tiers"
)

// Service управляет аллокациями и дрип-циклами.
type Service struct {
	repo    *Repository
	catalog *tiers.Catalog
	// Куда уходят невостребованные остатки: admin | treasury
	unclaimedDestination string
	loc                  *time.Location
}

// NewService создаёт новый сервис аллокаций.
func NewService(repo *Repository, catalog *tiers.Catalog, unclaimedDestination string, loc *time.Location) *Service {
	return &Service{
		repo:                 repo,
		catalog:              catalog,
		unclaimedDestination: unclaimedDestination,
		loc:                  loc,
	}
}

// CreateAllocations разбивает подтверждённую покупку тарифа
// на аллокации по играм и сохраняет их.
func (s *Service) CreateAllocations(ctx context.Context, p Purchase) ([]*Allocation, error) {
	if !p.Amount.IsPositive() {
		return nil, common.ErrInvalidAmount
	}
	cfg, err := s.catalog.Resolve(p.TierName)
	if err != nil {
		return nil, err
	}

	allocations := NewAllocations(p, cfg, s.loc)
	if err := s.repo.Insert(ctx, allocations); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"transaction": p.TransactionID,
		"tier":        p.TierName,
		"amount":      p.Amount.String(),
		"allocations": len(allocations),
	}).Info("Аллокации созданы")

	return allocations, nil
}

// RunDripCycle выполняет один дрип-цикл аллокации за день today.
func (s *Service) RunDripCycle(ctx context.Context, id uuid.UUID, today time.Time) (*DripResult, error) {
	// Тариф аллокации неизменен, поэтому его можно разрешить
	// до открытия транзакции
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	cfg, err := s.catalog.Resolve(a.TierName)
	if err != nil {
		return nil, err
	}

	return s.repo.Drip(ctx, id, today, cfg, s.unclaimedDestination, s.loc)
}

// DailySummary — итог прогона всех дрипов за день.
type DailySummary struct {
	Processed  int
	Duplicates int
	Closed     int
	Failed     int
	Released   decimal.Decimal
}

// RunDailyDrips прогоняет дрип-цикл по всем активным аллокациям,
// у которых ещё не было дрипа сегодня. Сбой одной аллокации
// не останавливает остальные: он логируется, и цикл идёт дальше —
// планировщик доберёт недокапанное следующим запуском.
func (s *Service) RunDailyDrips(ctx context.Context, now time.Time) (DailySummary, error) {
	summary := DailySummary{Released: decimal.Zero}

	ids, err := s.repo.DueIDs(ctx, now, s.loc)
	if err != nil {
		return summary, err
	}

	for _, id := range ids {
		res, err := s.RunDripCycle(ctx, id, now)
		if err != nil {
			summary.Failed++
			log.WithError(err).WithField("allocation", id).Error("Сбой дрип-цикла")
			continue
		}

		summary.Processed++
		switch {
		case res.Duplicate:
			summary.Duplicates++
		case res.Closed && res.Released.IsZero():
			summary.Closed++
		default:
			summary.Released = summary.Released.Add(res.Released)
			if res.Closed {
				summary.Closed++
			}
		}
	}

	log.WithFields(log.Fields{
		"processed": summary.Processed,
		"closed":    summary.Closed,
		"failed":    summary.Failed,
		"released":  summary.Released.String(),
	}).Info("Дневной дрип-цикл завершён")

	return summary, nil
}

// PoolBalance возвращает баланс призового пула (тариф, игра).
func (s *Service) PoolBalance(ctx context.Context, tierName, game string) (decimal.Decimal, error) {
	return s.repo.PoolBalance(ctx, tierName, game)
}

// JackpotBalance возвращает баланс джекпот-хранилища тарифа за месяц.
func (s *Service) JackpotBalance(ctx context.Context, tierName string, month time.Time) (decimal.Decimal, error) {
	return s.repo.VaultBalance(ctx, tierName, common.MonthKey(month, s.loc))
}
