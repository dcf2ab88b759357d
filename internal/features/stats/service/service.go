package service

import (
	"context"
	stderrors "errors"
	"time"

	"golang.org/x/sync/errgroup"

	"gift-store-backend/internal/common/cache"
	"gift-store-backend/internal/common/errors"
	"gift-store-backend/internal/common/logger"
	"gift-store-backend/internal/features/stats/models"
	"gift-store-backend/internal/features/stats/repository"
)

// Cache is the subset of the Redis cache used for leaderboard pages.
type Cache interface {
	GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func() (interface{}, error)) error
}

type StatsService interface {
	Leaderboard(ctx context.Context, q models.LeaderboardQuery) (*models.LeaderboardResponse, error)
	AdminStats(ctx context.Context) (*models.AdminStats, error)
}

type statsService struct {
	repo     repository.StatsRepository
	cache    Cache
	cacheTTL time.Duration
	now      func() time.Time
}

func NewStatsService(repo repository.StatsRepository, cache Cache, cacheTTL time.Duration) StatsService {
	return &statsService{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

// NormalizePeriod: всё, кроме week, считается за всё время
func NormalizePeriod(p string) string {
	if p == models.PeriodWeek {
		return models.PeriodWeek
	}
	return models.PeriodAll
}

func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return models.DefaultLeaderboardLimit
	case limit > models.MaxLeaderboardLimit:
		return models.MaxLeaderboardLimit
	}
	return limit
}

// StartOfWeek returns Monday 00:00 in t's location.
func StartOfWeek(t time.Time) time.Time {
	day := int(t.Weekday())
	if day == 0 {
		day = 7
	}
	d := StartOfDay(t)
	return d.AddDate(0, 0, -(day - 1))
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func (s *statsService) window(period string) models.Window {
	if period == models.PeriodWeek {
		return models.Window{Since: StartOfWeek(s.now())}
	}
	return models.Window{}
}

func (s *statsService) Leaderboard(ctx context.Context, q models.LeaderboardQuery) (*models.LeaderboardResponse, error) {
	period := NormalizePeriod(q.Period)
	limit := NormalizeLimit(q.Limit)
	w := s.window(period)

	var board []models.LeaderboardEntry
	err := s.cache.GetOrSet(ctx, cache.LeaderboardKey(period, limit), &board, s.cacheTTL, func() (interface{}, error) {
		top, err := s.repo.TopBuyers(ctx, w, limit)
		if err != nil {
			return nil, err
		}
		entries := make([]models.LeaderboardEntry, 0, len(top))
		for i, t := range top {
			entries = append(entries, models.LeaderboardEntry{
				Place:     i + 1,
				UserID:    t.UserID,
				Username:  t.Username,
				AvatarURL: t.AvatarURL,
				TgID:      t.TgID,
				Stars:     t.Stars,
				Gifts:     t.Gifts,
			})
		}
		return entries, nil
	})
	if err != nil {
		return nil, errors.NewDatabaseError("load leaderboard", err)
	}
	if board == nil {
		board = []models.LeaderboardEntry{}
	}

	resp := &models.LeaderboardResponse{OK: true, Leaderboard: board}
	if q.TgID == 0 {
		return resp, nil
	}

	me, err := s.me(ctx, w, q.TgID)
	if err != nil {
		return nil, err
	}
	resp.Me = me
	return resp, nil
}

// me не кэшируется: место пользователя зависит от tg_id
func (s *statsService) me(ctx context.Context, w models.Window, tgID int64) (*models.MeEntry, error) {
	user, err := s.repo.UserByTgID(ctx, tgID)
	if err != nil {
		if stderrors.Is(err, repository.ErrUserNotFound) {
			return nil, nil
		}
		return nil, errors.NewDatabaseError("get leaderboard user", err)
	}

	rank, err := s.repo.Rank(ctx, w, user.ID)
	if err != nil {
		return nil, errors.NewDatabaseError("rank leaderboard user", err)
	}

	return &models.MeEntry{
		Place:     rank.Place,
		Username:  user.Username,
		AvatarURL: user.AvatarURL,
		Stars:     rank.Stars,
		Gifts:     rank.Gifts,
	}, nil
}

func (s *statsService) AdminStats(ctx context.Context) (*models.AdminStats, error) {
	now := s.now()
	today := models.Window{Since: StartOfDay(now)}

	var (
		first      *time.Time
		usersTotal int64
		usersToday int64
		totalAgg   *models.PurchaseTotals
		todayAgg   *models.PurchaseTotals
		topToday   []models.BuyerTotal
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		first, err = s.repo.FirstRegistration(gctx)
		return err
	})
	g.Go(func() (err error) {
		usersTotal, err = s.repo.CountUsers(gctx, models.Window{})
		return err
	})
	g.Go(func() (err error) {
		usersToday, err = s.repo.CountUsers(gctx, today)
		return err
	})
	g.Go(func() (err error) {
		totalAgg, err = s.repo.PurchaseTotals(gctx, models.Window{})
		return err
	})
	g.Go(func() (err error) {
		todayAgg, err = s.repo.PurchaseTotals(gctx, today)
		return err
	})
	g.Go(func() (err error) {
		topToday, err = s.repo.TopBuyers(gctx, today, 1)
		return err
	})
	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("Failed to load admin stats")
		return nil, errors.NewDatabaseError("load stats", err)
	}

	stats := &models.AdminStats{
		DaysOperating: DaysOperating(first, now),
		Total: models.DayTotals{
			GiftsPurchased: totalAgg.GiftsPurchased,
			StarsSpent:     totalAgg.StarsSpent,
			NewUsers:       usersTotal,
		},
		Today: models.DayTotals{
			GiftsPurchased: todayAgg.GiftsPurchased,
			StarsSpent:     todayAgg.StarsSpent,
			NewUsers:       usersToday,
		},
	}
	if len(topToday) > 0 {
		best := topToday[0]
		stats.TopToday = &models.TopBuyer{
			Username:       best.Username,
			AvatarURL:      best.AvatarURL,
			StarsSpent:     best.Stars,
			GiftsPurchased: best.Gifts,
		}
	}
	return stats, nil
}

// DaysOperating считает начатые сутки с первой регистрации, минимум 1
func DaysOperating(first *time.Time, now time.Time) int64 {
	if first == nil {
		return 1
	}
	elapsed := now.Sub(*first)
	days := int64(elapsed / (24 * time.Hour))
	if elapsed%(24*time.Hour) > 0 {
		days++
	}
	if days < 1 {
		return 1
	}
	return days
}
