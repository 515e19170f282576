package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/btrade/btrade-backend/internal/app/models/dto"
	"github.com/btrade/btrade-backend/internal/app/repositories"
)

const (
	dashboardCacheKey = "btrade:dashboard:summary"
	dashboardCacheTTL = 5 * time.Minute

	// Months of history for the enrollment chart
	dashboardMonths = 12
)

// DashboardService defines the interface for dashboard aggregate operations
type DashboardService interface {
	GetSummary(ctx context.Context) (*dto.DashboardSummary, error)
	InvalidateSummary(ctx context.Context)
}

// dashboardServiceImpl implements the DashboardService interface
type dashboardServiceImpl struct {
	dashboardRepo *repositories.DashboardRepository
	cache         *redis.Client
	logger        zerolog.Logger
}

// NewDashboardService creates a new dashboard service instance
func NewDashboardService(
	dashboardRepo *repositories.DashboardRepository,
	cache *redis.Client,
	logger zerolog.Logger,
) DashboardService {
	return &dashboardServiceImpl{
		dashboardRepo: dashboardRepo,
		cache:         cache,
		logger:        logger,
	}
}

// GetSummary computes the dashboard aggregates, served from Redis when a
// fresh copy exists. A cache failure falls through to the database.
func (s *dashboardServiceImpl) GetSummary(ctx context.Context) (*dto.DashboardSummary, error) {
	if cached, err := s.cache.Get(ctx, dashboardCacheKey).Bytes(); err == nil {
		summary := &dto.DashboardSummary{}
		if err := json.Unmarshal(cached, summary); err == nil {
			return summary, nil
		}
		s.logger.Warn().Msg("Discarding unreadable cached dashboard summary")
	} else if !errors.Is(err, redis.Nil) {
		s.logger.Warn().Err(err).Msg("Dashboard cache read failed")
	}

	summary, err := s.computeSummary(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(summary); err == nil {
		if err := s.cache.Set(ctx, dashboardCacheKey, data, dashboardCacheTTL).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("Dashboard cache write failed")
		}
	}

	return summary, nil
}

// InvalidateSummary drops the cached aggregates after an enrollment or
// payment mutation
func (s *dashboardServiceImpl) InvalidateSummary(ctx context.Context) {
	if err := s.cache.Del(ctx, dashboardCacheKey).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("Dashboard cache invalidation failed")
	}
}

func (s *dashboardServiceImpl) computeSummary(ctx context.Context) (*dto.DashboardSummary, error) {
	totalUsers, err := s.dashboardRepo.CountUsers(ctx)
	if err != nil {
		return nil, err
	}

	totalCourses, publishedCourses, err := s.dashboardRepo.CountCourses(ctx)
	if err != nil {
		return nil, err
	}

	byStatus, err := s.dashboardRepo.EnrollmentsByStatus(ctx)
	if err != nil {
		return nil, err
	}

	revenue, err := s.dashboardRepo.TotalRevenue(ctx)
	if err != nil {
		return nil, err
	}

	monthly, err := s.dashboardRepo.MonthlyEnrollments(ctx, dashboardMonths)
	if err != nil {
		return nil, err
	}

	return &dto.DashboardSummary{
		TotalUsers:          totalUsers,
		PublishedCourses:    publishedCourses,
		TotalCourses:        totalCourses,
		EnrollmentsByStatus: byStatus,
		Revenue:             revenue,
		MonthlyEnrollments:  monthly,
	}, nil
}
