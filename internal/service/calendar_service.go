package service

import (
	"context"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/clubhub/calendar-service/internal/domain"
	"github.com/clubhub/calendar-service/internal/dto"
	"github.com/clubhub/calendar-service/internal/repository"
	"github.com/clubhub/calendar-service/internal/upstream"
	"github.com/clubhub/calendar-service/pkg/logger"
	"github.com/clubhub/calendar-service/pkg/telemetry"
)

// EventsFetcher lists generic events for a query (server-side filtered).
type EventsFetcher interface {
	List(ctx context.Context, q *dto.CalendarQuery) ([]upstream.EventDTO, error)
}

// GamesFetcher lists the full games collection.
type GamesFetcher interface {
	List(ctx context.Context) ([]upstream.GameDTO, error)
}

// PracticesFetcher lists the full practices collection.
type PracticesFetcher interface {
	List(ctx context.Context) ([]upstream.PracticeDTO, error)
}

// CalendarService produces the unified, time-ordered feed.
type CalendarService interface {
	// List aggregates the three sources for the query's window. On any source
	// failure the whole aggregation fails; no partial feed is ever returned.
	List(ctx context.Context, q *dto.CalendarQuery) (*dto.CalendarFeedResponse, error)
}

// CalendarServiceConfig contains configuration for the calendar service
type CalendarServiceConfig struct {
	// DefaultWindow is the half-width applied to each side of "now" when the
	// caller omits a bound
	DefaultWindow time.Duration
}

type calendarService struct {
	events        EventsFetcher
	games         GamesFetcher
	practices     PracticesFetcher
	cache         repository.CalendarCache
	group         singleflight.Group
	defaultWindow time.Duration
	now           func() time.Time
}

// NewCalendarService creates a new calendar service. cache may be nil, in
// which case every call aggregates fresh.
func NewCalendarService(
	events EventsFetcher,
	games GamesFetcher,
	practices PracticesFetcher,
	cache repository.CalendarCache,
	cfg *CalendarServiceConfig,
) CalendarService {
	window := 30 * 24 * time.Hour
	if cfg != nil && cfg.DefaultWindow > 0 {
		window = cfg.DefaultWindow
	}
	return &calendarService{
		events:        events,
		games:         games,
		practices:     practices,
		cache:         cache,
		defaultWindow: window,
		now:           time.Now,
	}
}

func (s *calendarService) List(ctx context.Context, q *dto.CalendarQuery) (*dto.CalendarFeedResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.calendar.list")
	defer span.End()

	if err := q.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	resolved := s.resolveWindow(q)
	span.SetAttributes(
		attribute.String("calendar.after", resolved.After.Format(time.RFC3339)),
		attribute.String("calendar.before", resolved.Before.Format(time.RFC3339)),
		attribute.String("calendar.program_type", resolved.ProgramType),
	)

	key := resolved.CacheKey()

	if s.cache != nil {
		if events, ok, err := s.cache.Get(ctx, key); err != nil {
			logger.Get().Warn("Calendar cache read failed", zap.Error(err))
		} else if ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return &dto.CalendarFeedResponse{After: resolved.After, Before: resolved.Before, Events: events}, nil
		}
	}

	// Concurrent identical window loads collapse into one upstream fan-out.
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		events, err := s.aggregate(ctx, &resolved)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.Set(ctx, key, events); err != nil {
				logger.Get().Warn("Calendar cache write failed", zap.Error(err))
			}
		}
		return events, nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return &dto.CalendarFeedResponse{
		After:  resolved.After,
		Before: resolved.Before,
		Events: v.([]domain.CalendarEvent),
	}, nil
}

// resolveWindow fills in missing bounds at day precision: one default window
// to each side of now, anchored at UTC midnight.
func (s *calendarService) resolveWindow(q *dto.CalendarQuery) dto.CalendarQuery {
	resolved := *q
	if resolved.After.IsZero() {
		resolved.After = truncateToDay(s.now().Add(-s.defaultWindow))
	}
	if resolved.Before.IsZero() {
		resolved.Before = truncateToDay(s.now().Add(s.defaultWindow))
	}
	return resolved
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// aggregate performs the three-source fan-out and merge. The merge only runs
// once all three fetches resolve; the first failure cancels the rest and
// fails the whole call.
func (s *calendarService) aggregate(ctx context.Context, q *dto.CalendarQuery) ([]domain.CalendarEvent, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.calendar.aggregate")
	defer span.End()

	var (
		eventDTOs    []upstream.EventDTO
		gameDTOs     []upstream.GameDTO
		practiceDTOs []upstream.PracticeDTO
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		eventDTOs, err = s.events.List(gctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		gameDTOs, err = s.games.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		practiceDTOs, err = s.practices.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	merged := make([]domain.CalendarEvent, 0, len(eventDTOs)+len(practiceDTOs)+len(gameDTOs))

	// Generic events are already fully filtered server-side.
	for _, e := range eventDTOs {
		merged = append(merged, normalizeEvent(e))
	}

	// Practices and games come back unfiltered; window and location are
	// applied here, on the start timestamp only, boundaries inclusive.
	if q.ProgramType == "" || q.ProgramType == domain.ProgramTypePractice {
		for _, p := range practiceDTOs {
			start := parseEventTime(p.StartAt)
			if !inWindow(start, q.After, q.Before) {
				continue
			}
			if q.LocationID != "" && p.LocationID != q.LocationID {
				continue
			}
			merged = append(merged, normalizePractice(p))
		}
	}

	if q.ProgramType == "" || q.ProgramType == domain.ProgramTypeGame {
		for _, gm := range gameDTOs {
			start := parseEventTime(gm.StartTime)
			if !inWindow(start, q.After, q.Before) {
				continue
			}
			if q.LocationID != "" && gm.LocationID != q.LocationID {
				continue
			}
			merged = append(merged, normalizeGame(gm))
		}
	}

	// Stable: equal start times keep concatenation order.
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].StartAt.UnixNano() < merged[j].StartAt.UnixNano()
	})

	span.SetAttributes(
		attribute.Int("calendar.events", len(eventDTOs)),
		attribute.Int("calendar.games", len(gameDTOs)),
		attribute.Int("calendar.practices", len(practiceDTOs)),
		attribute.Int("calendar.merged", len(merged)),
	)
	span.SetStatus(codes.Ok, "")
	return merged, nil
}

func inWindow(start, after, before time.Time) bool {
	return !start.Before(after) && !start.After(before)
}
