package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/yigit/unitime/internal/db"
	"github.com/yigit/unitime/internal/pkg/logger"
)

// Stats are the dashboard counters.
type Stats struct {
	ActiveSessions     int64
	PlannedSessions    int64
	ConfirmedSessions  int64
	CancelledSessions  int64
	ActiveTeachers     int64
	Rooms              int64
	Programs           int64
	PendingUnavailable int64
}

// StatsRepository computes dashboard counters in one round trip.
type StatsRepository struct {
	db db.DBTX
}

func NewStatsRepository(conn db.DBTX) *StatsRepository {
	return &StatsRepository{db: conn}
}

const statsQuery = `
SELECT
	(SELECT COUNT(*) FROM sessions WHERE status <> 'cancelled' AND end_time > $1),
	(SELECT COUNT(*) FROM sessions WHERE status = 'planned'),
	(SELECT COUNT(*) FROM sessions WHERE status = 'confirmed'),
	(SELECT COUNT(*) FROM sessions WHERE status = 'cancelled'),
	(SELECT COUNT(*) FROM teachers WHERE is_active),
	(SELECT COUNT(*) FROM rooms),
	(SELECT COUNT(*) FROM programs),
	(SELECT COUNT(*) FROM unavailabilities WHERE approval_status = 'pending')`

// Get returns the counters. Active sessions are the non-cancelled ones that
// have not ended at now.
func (r *StatsRepository) Get(ctx context.Context, now time.Time) (*Stats, error) {
	s := &Stats{}
	err := r.db.QueryRow(ctx, statsQuery, now).Scan(
		&s.ActiveSessions, &s.PlannedSessions, &s.ConfirmedSessions, &s.CancelledSessions,
		&s.ActiveTeachers, &s.Rooms, &s.Programs, &s.PendingUnavailable)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing stats query")
		return nil, fmt.Errorf("error computing stats: %w", err)
	}
	return s, nil
}
