package service

import (
	"context"

	"github.com/okian/clout/internal/domain/model"
	"github.com/okian/clout/internal/domain/verification"
	"github.com/okian/clout/internal/jobs"
)

// VerifyNow runs a full verification pass outside the schedule.
func (s *Service) VerifyNow(ctx context.Context) (verification.RunReport, error) {
	return s.scheduler.RunOnce(ctx, jobs.TriggerAdmin)
}

// RecomputeCapper rebuilds one capper's stats from the verified picks.
func (s *Service) RecomputeCapper(ctx context.Context, capperID string) (model.CapperStats, error) {
	return s.engine.RecomputeCapperStats(ctx, capperID)
}
