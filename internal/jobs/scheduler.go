// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: ежедневный дрип-цикл
// и ночной аудит целостности цепочек журнала.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/pravino/botgame-sub001/internal/config"
	"github.com/pravino/botgame-sub001/internal/features/allocation"
	"github.com/pravino/botgame-sub001/internal/features/ledger"
	"github.com/pravino/botgame-sub001/internal/notify"
)

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron        *cron.Cron
	cfg         *config.Config
	allocations *allocation.Service
	ledger      *ledger.Service
	notifier    notify.Notifier
}

// NewScheduler создаёт планировщик задач в часовом поясе приложения.
// Дрип-цикл и аудит идут по этому поясу: «календарный день» дрипа
// должен совпадать с днём, который видит продукт.
func NewScheduler(cfg *config.Config, allocations *allocation.Service, ledgerService *ledger.Service, notifier notify.Notifier) *Scheduler {
	return &Scheduler{
		cron:        cron.New(cron.WithLocation(cfg.Location())),
		cfg:         cfg,
		allocations: allocations,
		ledger:      ledgerService,
		notifier:    notifier,
	}
}

// Start запускает все фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) {
	// Ежедневный дрип-цикл. Повторный запуск в тот же день безопасен:
	// идемпотентность по (аллокация, календарный день) впитает дубликаты.
	_, err := s.cron.AddFunc(s.cfg.DripCronSpec, func() {
		log.Info("[CRON] Дневной дрип-цикл")
		if _, err := s.allocations.RunDailyDrips(ctx, time.Now()); err != nil {
			log.WithError(err).Error("[CRON] Сбой дрип-цикла")
		}
	})
	if err != nil {
		log.WithError(err).Error("Некорректное расписание дрипа")
	}

	// Ночной аудит цепочек
	_, err = s.cron.AddFunc(s.cfg.AuditCronSpec, func() {
		log.Info("[CRON] Аудит целостности цепочек")
		if err := s.runAudit(ctx); err != nil {
			log.WithError(err).Error("[CRON] Сбой аудита")
		}
	})
	if err != nil {
		log.WithError(err).Error("Некорректное расписание аудита")
	}

	s.cron.Start()
	log.Infof("Планировщик задач запущен (%s)", s.cfg.AppTimezone)
}

// runAudit обходит все счета и верифицирует цепочки.
// Сломанный счёт замораживается (списания блокируются до ручной
// проверки) и о нём уходит алерт. Цепочка никогда не чинится
// автоматически.
func (s *Scheduler) runAudit(ctx context.Context) error {
	accounts, err := s.ledger.Accounts(ctx, s.cfg.AuditBatchSize)
	if err != nil {
		return err
	}

	broken := 0
	for _, account := range accounts {
		res, err := s.ledger.VerifyChain(ctx, account)
		if err != nil {
			log.WithError(err).WithField("account", account).Error("[AUDIT] Ошибка верификации")
			continue
		}
		if res.OK {
			continue
		}

		broken++
		log.WithFields(log.Fields{
			"account": account,
			"index":   res.BrokenIndex,
			"reason":  res.Reason,
		}).Error("[AUDIT] Нарушена целостность цепочки")

		if err := s.ledger.Freeze(ctx, account); err != nil {
			log.WithError(err).WithField("account", account).Error("[AUDIT] Не удалось заморозить счёт")
		}

		text := fmt.Sprintf(
			"⚠️ Нарушена целостность леджера!\nСчёт: %s\nПервая сломанная запись: %d\nПричина: %v\nСчёт заморожен, нужна ручная проверка.",
			account, res.BrokenIndex, res.Reason,
		)
		if err := s.notifier.Alert(ctx, text); err != nil {
			log.WithError(err).Error("[AUDIT] Не удалось отправить алерт")
		}
	}

	log.WithFields(log.Fields{
		"accounts": len(accounts),
		"broken":   broken,
	}).Info("[AUDIT] Аудит завершён")
	return nil
}

// Stop останавливает планировщик, дождавшись текущих задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
