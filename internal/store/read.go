package store

import (
	"context"
	"fmt"
	"time"
)

// ListCycles returns all recorded cycles, newest first. ID breaks creation
// time ties so the order is deterministic.
//
// Returns an empty slice (not nil) if nothing has been recorded.
func (s *Store) ListCycles(ctx context.Context) ([]Cycle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, scenario, created_at
		FROM cycles
		ORDER BY created_at DESC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query cycles: %w", err)
	}
	defer rows.Close()

	cycles := []Cycle{}
	for rows.Next() {
		var c Cycle
		var createdAt string
		if err := rows.Scan(&c.ID, &c.Scenario, &createdAt); err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		c.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse cycle created_at: %w", err)
		}
		cycles = append(cycles, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cycles: %w", err)
	}

	return cycles, nil
}

// ReadCycle retrieves one cycle and its dispatches in seq order.
// Returns sql.ErrNoRows if the cycle does not exist.
func (s *Store) ReadCycle(ctx context.Context, id string) (Cycle, []Dispatch, error) {
	var c Cycle
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, scenario, created_at
		FROM cycles
		WHERE id = ?
	`, id).Scan(&c.ID, &c.Scenario, &createdAt)
	if err != nil {
		return Cycle{}, nil, fmt.Errorf("read cycle: %w", err)
	}
	c.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Cycle{}, nil, fmt.Errorf("parse cycle created_at: %w", err)
	}

	dispatches, err := s.readDispatches(ctx, id)
	if err != nil {
		return Cycle{}, nil, err
	}

	return c, dispatches, nil
}

func (s *Store) readDispatches(ctx context.Context, cycleID string) ([]Dispatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT cycle_id, seq, sink, event_type, target, detail, user_input
		FROM dispatches
		WHERE cycle_id = ?
		ORDER BY seq ASC
	`, cycleID)
	if err != nil {
		return nil, fmt.Errorf("query dispatches: %w", err)
	}
	defer rows.Close()

	dispatches := []Dispatch{}
	for rows.Next() {
		var d Dispatch
		var userInput int
		if err := rows.Scan(&d.CycleID, &d.Seq, &d.Sink, &d.EventType,
			&d.Target, &d.Detail, &userInput); err != nil {
			return nil, fmt.Errorf("scan dispatch: %w", err)
		}
		d.UserInput = userInput != 0
		dispatches = append(dispatches, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dispatches: %w", err)
	}

	return dispatches, nil
}
