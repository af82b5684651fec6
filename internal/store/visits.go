package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/sysplan/internal/ir"
)

// Visit records one routine invocation on one entity.
type Visit struct {
	Tick     int64
	Seq      int64
	Routine  ir.RoutineID
	EntityID EntityID
}

// WriteVisit appends a visit to the log.
// Uses ON CONFLICT DO NOTHING for idempotency - rewriting the same
// (tick, seq) is silently ignored.
func (s *Store) WriteVisit(ctx context.Context, v Visit) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO visits (tick, seq, routine, entity_id)
		VALUES (?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, v.Tick, v.Seq, string(v.Routine), v.EntityID.String())
	if err != nil {
		return fmt.Errorf("write visit: %w", err)
	}
	return nil
}

// ReadVisits returns the visits of one tick in invocation order.
//
// Returns an empty slice (not nil) if the tick has no visits.
func (s *Store) ReadVisits(ctx context.Context, tick int64) ([]Visit, error) {
	return s.readVisits(ctx, `
		SELECT tick, seq, routine, entity_id FROM visits
		WHERE tick = ?
		ORDER BY seq ASC
	`, tick)
}

// ReadRoutineVisits returns every visit of one routine across all ticks.
func (s *Store) ReadRoutineVisits(ctx context.Context, routine ir.RoutineID) ([]Visit, error) {
	return s.readVisits(ctx, `
		SELECT tick, seq, routine, entity_id FROM visits
		WHERE routine = ?
		ORDER BY tick ASC, seq ASC
	`, string(routine))
}

// LastTick returns the highest tick in the visits log, or 0 if it is empty.
func (s *Store) LastTick(ctx context.Context) (int64, error) {
	var tick int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(tick), 0) FROM visits`).Scan(&tick); err != nil {
		return 0, fmt.Errorf("read last tick: %w", err)
	}
	return tick, nil
}

func (s *Store) readVisits(ctx context.Context, query string, args ...any) ([]Visit, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query visits: %w", err)
	}
	defer rows.Close()

	visits := []Visit{}
	for rows.Next() {
		var v Visit
		var routine, entity string
		if err := rows.Scan(&v.Tick, &v.Seq, &routine, &entity); err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}
		id, err := uuid.Parse(entity)
		if err != nil {
			return nil, fmt.Errorf("parse visit entity %q: %w", entity, err)
		}
		v.Routine = ir.RoutineID(routine)
		v.EntityID = id
		visits = append(visits, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate visits: %w", err)
	}
	return visits, nil
}
