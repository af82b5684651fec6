package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/sysplan/internal/ir"
)

// Entities runs a query whose first column is an entity id and returns the
// ids in row order. The query is expected to carry its own ORDER BY.
//
// Returns an empty slice (not nil) if no rows match.
func (s *Store) Entities(ctx context.Context, query string, args ...any) ([]EntityID, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}
	defer rows.Close()

	ids := []EntityID{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan entity id: %w", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse entity id %q: %w", raw, err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entities: %w", err)
	}
	return ids, nil
}

// AllEntities returns every live entity id.
// Ordered deterministically: ORDER BY id COLLATE BINARY ASC.
func (s *Store) AllEntities(ctx context.Context) ([]EntityID, error) {
	return s.Entities(ctx, `SELECT id FROM entities ORDER BY id COLLATE BINARY ASC`)
}

// Name returns the fixture name an entity was spawned with.
func (s *Store) Name(ctx context.Context, id EntityID) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM entities WHERE id = ?`, id.String()).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("entity %s not found", id)
	}
	if err != nil {
		return "", fmt.Errorf("read entity name: %w", err)
	}
	return name, nil
}

// Component returns the data of one component of an entity.
// The boolean is false if the entity does not carry the component.
func (s *Store) Component(ctx context.Context, id EntityID, component ir.ComponentID) (map[string]any, bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT data FROM components WHERE entity_id = ? AND component = ?
	`, id.String(), string(component)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read component %s: %w", component, err)
	}

	obj, err := unmarshalData(data)
	if err != nil {
		return nil, false, fmt.Errorf("read component %s: %w", component, err)
	}
	return obj, true, nil
}

// HasTag reports whether an entity carries a tag.
func (s *Store) HasTag(ctx context.Context, id EntityID, tag ir.TagID) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM tags WHERE entity_id = ? AND tag = ?
	`, id.String(), string(tag)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("read tag %s: %w", tag, err)
	}
	return n > 0, nil
}
