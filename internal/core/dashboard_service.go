package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/FR-TheFury/medic-ai-sub000/internal/domain/model"
	"github.com/FR-TheFury/medic-ai-sub000/internal/domain/repository"
	"github.com/FR-TheFury/medic-ai-sub000/internal/logger"
)

type DashboardMode string

const (
	ModeLive    DashboardMode = "live"
	ModeCached  DashboardMode = "cached"
	ModeOffline DashboardMode = "offline"
)

const OfflineBanner = "The API is unavailable. Demo data is displayed."

type DashboardQuery struct {
	Start    string
	End      string
	RegionID int
}

func (q DashboardQuery) Key() string {
	return fmt.Sprintf("dashboard|%s|%s|%d", q.Start, q.End, q.RegionID)
}

type DashboardView struct {
	Mode         DashboardMode  `json:"mode"`
	Banner       string         `json:"banner,omitempty"`
	GeneratedAt  time.Time      `json:"generatedAt"`
	Stats        WeeklyStats    `json:"stats"`
	Monthly      []MonthlyPoint `json:"monthly"`
	TopCountries []CountryStat  `json:"topCountries"`
	RecordCount  int            `json:"recordCount"`
}

// DashboardSource is the read side of the catalog the dashboard needs.
type DashboardSource interface {
	Records(ctx context.Context, q RecordQuery) ([]model.Record, error)
	Regions(ctx context.Context) ([]model.Region, error)
	Countries(ctx context.Context) ([]model.Country, error)
}

type Availability interface {
	Active() bool
}

// DashboardService serves live aggregates when the backend is up, the last
// snapshot for the same query when it is not, and demo data otherwise.
type DashboardService struct {
	source    DashboardSource
	monitor   Availability
	snapshots repository.SnapshotStore
	logger    *logger.Logger
	now       func() time.Time
}

func NewDashboardService(source DashboardSource, monitor Availability, snapshots repository.SnapshotStore, log *logger.Logger) *DashboardService {
	return &DashboardService{
		source:    source,
		monitor:   monitor,
		snapshots: snapshots,
		logger:    log.With("component", "dashboard"),
		now:       time.Now,
	}
}

func (s *DashboardService) Load(ctx context.Context, q DashboardQuery) DashboardView {
	if s.monitor.Active() {
		view, err := s.live(ctx, q)
		if err == nil {
			s.saveSnapshot(ctx, q, view)
			return view
		}
		s.logger.Warn("Live dashboard failed, falling back", "query", q.Key(), "error", err)
	}

	if view, ok := s.cached(ctx, q); ok {
		return view
	}
	return MockDashboard(s.now())
}

func (s *DashboardService) live(ctx context.Context, q DashboardQuery) (DashboardView, error) {
	records, err := s.source.Records(ctx, RecordQuery{
		Range:    model.DateRange{Start: q.Start, End: q.End},
		RegionID: q.RegionID,
	})
	if err != nil {
		return DashboardView{}, fmt.Errorf("failed to load records: %w", err)
	}
	regions, err := s.source.Regions(ctx)
	if err != nil {
		return DashboardView{}, fmt.Errorf("failed to load regions: %w", err)
	}
	countries, err := s.source.Countries(ctx)
	if err != nil {
		return DashboardView{}, fmt.Errorf("failed to load countries: %w", err)
	}

	now := s.now()
	return DashboardView{
		Mode:         ModeLive,
		GeneratedAt:  now.UTC(),
		Stats:        ComputeWeeklyStats(records, now),
		Monthly:      GroupByMonth(records),
		TopCountries: TopCountries(records, regions, countries, TopCountriesLimit),
		RecordCount:  len(records),
	}, nil
}

func (s *DashboardService) saveSnapshot(ctx context.Context, q DashboardQuery, view DashboardView) {
	payload, err := json.Marshal(view)
	if err != nil {
		s.logger.Error("Failed to encode dashboard snapshot", "error", err)
		return
	}
	if err := s.snapshots.SaveSnapshot(ctx, q.Key(), payload); err != nil {
		s.logger.Warn("Failed to save dashboard snapshot", "query", q.Key(), "error", err)
	}
}

func (s *DashboardService) cached(ctx context.Context, q DashboardQuery) (DashboardView, bool) {
	snap, err := s.snapshots.LoadSnapshot(ctx, q.Key())
	if err != nil {
		if !errors.Is(err, repository.ErrSnapshotNotFound) {
			s.logger.Warn("Failed to load dashboard snapshot", "query", q.Key(), "error", err)
		}
		return DashboardView{}, false
	}

	var view DashboardView
	if err := json.Unmarshal(snap.Payload, &view); err != nil {
		s.logger.Warn("Dashboard snapshot is corrupt", "query", q.Key(), "error", err)
		return DashboardView{}, false
	}
	view.Mode = ModeCached
	view.Banner = fmt.Sprintf("The API is unavailable. Showing data from %s.", snap.CapturedAt.UTC().Format(time.RFC3339))
	return view, true
}
