package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/starquest/internal/metrics"
)

// StartSettlementScheduler запускает фоновый процесс ежемесячного расчёта процентов.
// Расчёт запускается не чаще одного раза за календарный месяц (UTC).
func (s *Service) StartSettlementScheduler(ctx context.Context) {
	if s.opts.SettlementInterval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(s.opts.SettlementInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.settleIfDue(ctx)
			}
		}
	}()
}

func (s *Service) settleIfDue(ctx context.Context) bool {
	period := s.now().UTC().Format("2006-01")
	if period == s.lastSettled {
		return false
	}

	if err := s.repo.RunMonthlySettlement(ctx); err != nil {
		metrics.SettlementRuns.WithLabelValues(metrics.OutcomeError).Inc()
		s.logger.Error("monthly settlement error", zap.Error(err), zap.String("period", period))
		return false
	}

	metrics.SettlementRuns.WithLabelValues(metrics.OutcomeSuccess).Inc()
	s.logger.Info("monthly settlement completed", zap.String("period", period))
	s.lastSettled = period
	return true
}
