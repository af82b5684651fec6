package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/sysplan/internal/ir"
)

// EntityID identifies an entity in the world.
type EntityID = uuid.UUID

// entityNamespace scopes name-derived entity ids.
var entityNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("sysplan/entity/v1"))

// EntityIDFor derives a stable id from a fixture name (UUID v5), so
// scenarios and golden files can refer to entities by name.
func EntityIDFor(name string) EntityID {
	return uuid.NewSHA1(entityNamespace, []byte(name))
}

// Spawn creates an entity with a fresh random id.
func (s *Store) Spawn(ctx context.Context, name string) (EntityID, error) {
	id := uuid.New()
	if err := s.SpawnWithID(ctx, id, name); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// SpawnWithID creates an entity with the given id.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - spawning an existing id
// is silently ignored.
func (s *Store) SpawnWithID(ctx context.Context, id EntityID, name string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entities (id, name)
		VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id.String(), name)
	if err != nil {
		return fmt.Errorf("spawn entity: %w", err)
	}
	return nil
}

// Despawn removes an entity. Its components and tags are removed by
// cascade. Despawning an unknown id is a no-op.
func (s *Store) Despawn(ctx context.Context, id EntityID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM entities WHERE id = ?`, id.String()); err != nil {
		return fmt.Errorf("despawn entity: %w", err)
	}
	return nil
}

// AddComponent attaches a component to an entity, replacing its data if
// the component is already present. data may be nil.
//
// Note: The entity must exist (foreign key constraint).
func (s *Store) AddComponent(ctx context.Context, id EntityID, component ir.ComponentID, data map[string]any) error {
	dataJSON, err := marshalData(data)
	if err != nil {
		return fmt.Errorf("add component %s: %w", component, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO components (entity_id, component, data)
		VALUES (?, ?, ?)
		ON CONFLICT(entity_id, component) DO UPDATE SET data = excluded.data
	`, id.String(), string(component), dataJSON)
	if err != nil {
		return fmt.Errorf("add component %s: %w", component, err)
	}
	return nil
}

// RemoveComponent detaches a component. Removing an absent component is a no-op.
func (s *Store) RemoveComponent(ctx context.Context, id EntityID, component ir.ComponentID) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM components WHERE entity_id = ? AND component = ?
	`, id.String(), string(component))
	if err != nil {
		return fmt.Errorf("remove component %s: %w", component, err)
	}
	return nil
}

// AddTag marks an entity with a tag. Adding a tag twice is a no-op.
//
// Note: The entity must exist (foreign key constraint).
func (s *Store) AddTag(ctx context.Context, id EntityID, tag ir.TagID) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tags (entity_id, tag)
		VALUES (?, ?)
		ON CONFLICT DO NOTHING
	`, id.String(), string(tag))
	if err != nil {
		return fmt.Errorf("add tag %s: %w", tag, err)
	}
	return nil
}

// RemoveTag clears a tag. Removing an absent tag is a no-op.
func (s *Store) RemoveTag(ctx context.Context, id EntityID, tag ir.TagID) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM tags WHERE entity_id = ? AND tag = ?
	`, id.String(), string(tag))
	if err != nil {
		return fmt.Errorf("remove tag %s: %w", tag, err)
	}
	return nil
}
