package service

import (
	"context"

	"focusflow/internal/clock"
	apperrors "focusflow/internal/errors"
	"focusflow/internal/log"
	"focusflow/internal/model"
	"focusflow/internal/repository"
)

const (
	DefaultRankLimit = 20
	MaxRankLimit     = 100
	weekDays         = 7
)

type StatsService struct {
	repo  *repository.StatsRepository
	clock clock.Clock
}

func NewStatsService(repo *repository.StatsRepository, clk clock.Clock) *StatsService {
	return &StatsService{repo: repo, clock: clk}
}

func (s *StatsService) AddDaily(ctx context.Context, userID string, inc model.StatsIncrement) (*model.DailyStats, *apperrors.APIError) {
	if inc.AddSeconds < 0 {
		return nil, apperrors.BadRequest("invalid_seconds", "addSeconds must not be negative")
	}

	now := s.clock.Now()
	stats, err := s.repo.AddDaily(ctx, userID, clock.VirtualDay(now), inc, now)
	if err != nil {
		log.ErrorErr(log.CatDB, "add daily stats", err, "user", userID)
		return nil, apperrors.Internal("failed to record stats")
	}
	return stats, nil
}

func (s *StatsService) Summary(ctx context.Context, userID string) (*model.StatsSummary, *apperrors.APIError) {
	now := s.clock.Now()
	today := clock.VirtualDay(now)

	daily, err := s.repo.GetDaily(ctx, userID, today)
	if err != nil {
		log.ErrorErr(log.CatDB, "get daily stats", err, "user", userID)
		return nil, apperrors.Internal("failed to load stats")
	}
	weekly, err := s.repo.ListRange(ctx, userID, clock.VirtualDaysBack(now, weekDays-1), today)
	if err != nil {
		log.ErrorErr(log.CatDB, "list weekly stats", err, "user", userID)
		return nil, apperrors.Internal("failed to load stats")
	}

	return &model.StatsSummary{Today: *daily, Weekly: weekly}, nil
}

func (s *StatsService) Ranks(ctx context.Context, period string, limit int) ([]model.RankEntry, *apperrors.APIError) {
	now := s.clock.Now()
	to := clock.VirtualDay(now)

	var from string
	switch period {
	case model.RankPeriodDaily:
		from = to
	case model.RankPeriodWeekly:
		from = clock.VirtualDaysBack(now, weekDays-1)
	default:
		return nil, apperrors.BadRequest("invalid_period", "period must be daily or weekly")
	}

	if limit <= 0 {
		limit = DefaultRankLimit
	}
	if limit > MaxRankLimit {
		limit = MaxRankLimit
	}

	ranks, err := s.repo.Ranks(ctx, from, to, limit)
	if err != nil {
		log.ErrorErr(log.CatDB, "query ranks", err, "period", period)
		return nil, apperrors.Internal("failed to load ranks")
	}
	return ranks, nil
}
