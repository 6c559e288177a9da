package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sangkips/repairshop-api/internal/application/service"
	"github.com/sangkips/repairshop-api/internal/config"
	"github.com/sangkips/repairshop-api/internal/domain/enum"
	"github.com/sangkips/repairshop-api/internal/domain/repository"
	"github.com/sangkips/repairshop-api/pkg/email"
	"go.uber.org/zap"
)

// DigestSender delivers the low-stock digest.
type DigestSender interface {
	SendLowStockDigest(ctx context.Context, to string, threshold int, items []email.LowStockLine) error
}

// Scheduler runs the shop's housekeeping jobs.
type Scheduler struct {
	cron        *cron.Cron
	idempotency repository.IdempotencyRepository
	inventory   *service.InventoryService
	users       repository.UserRepository
	digest      DigestSender
	cfg         config.CronConfig
	logger      *zap.Logger
}

// NewScheduler creates a new scheduler instance. The low-stock digest goes
// to every admin account; with a nil digest it is only logged.
func NewScheduler(
	cfg config.CronConfig,
	location *time.Location,
	idempotency repository.IdempotencyRepository,
	inventory *service.InventoryService,
	users repository.UserRepository,
	digest DigestSender,
	logger *zap.Logger,
) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.UTC
	}

	return &Scheduler{
		cron:        cron.New(cron.WithLocation(location)),
		idempotency: idempotency,
		inventory:   inventory,
		users:       users,
		digest:      digest,
		cfg:         cfg,
		logger:      logger,
	}
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler")

	if s.cfg.IdempotencyPurge != "" {
		if _, err := s.cron.AddFunc(s.cfg.IdempotencyPurge, s.purgeIdempotencyKeys); err != nil {
			s.logger.Error("failed to schedule idempotency purge", zap.String("spec", s.cfg.IdempotencyPurge), zap.Error(err))
		}
	}
	if s.cfg.LowStockDigest != "" {
		if _, err := s.cron.AddFunc(s.cfg.LowStockDigest, s.sendLowStockDigest); err != nil {
			s.logger.Error("failed to schedule low stock digest", zap.String("spec", s.cfg.LowStockDigest), zap.Error(err))
		}
	}

	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) purgeIdempotencyKeys() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.idempotency.DeleteExpired(ctx)
	if err != nil {
		s.logger.Error("failed to purge idempotency keys", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("purged expired idempotency keys", zap.Int64("count", n))
	}
}

func (s *Scheduler) sendLowStockDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	items, err := s.inventory.LowStock(ctx, -1)
	if err != nil {
		s.logger.Error("failed to load low stock items", zap.Error(err))
		return
	}
	if len(items) == 0 {
		return
	}

	lines := make([]email.LowStockLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, email.LowStockLine{Code: it.Code, Name: it.Name, Available: it.Available()})
	}
	s.logger.Warn("stock running low", zap.Int("items", len(lines)), zap.Int("threshold", s.inventory.LowStockThreshold()))

	if s.digest == nil {
		return
	}
	admins, err := s.users.ListByRole(ctx, enum.RoleAdmin)
	if err != nil {
		s.logger.Error("failed to load digest recipients", zap.Error(err))
		return
	}
	for _, admin := range admins {
		if err := s.digest.SendLowStockDigest(ctx, admin.Email, s.inventory.LowStockThreshold(), lines); err != nil {
			s.logger.Error("failed to send low stock digest", zap.String("to", admin.Email), zap.Error(err))
			continue
		}
		s.logger.Info("low stock digest sent", zap.String("to", admin.Email))
	}
}
