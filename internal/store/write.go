package store

import (
	"context"
	"fmt"
	"time"
)

// WriteCycle inserts a cycle record. Duplicate IDs are silently ignored so
// re-recording a cycle is idempotent.
func (s *Store) WriteCycle(ctx context.Context, c Cycle) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cycles (id, scenario, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		c.ID,
		c.Scenario,
		c.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("write cycle: %w", err)
	}

	return nil
}

// WriteDispatch inserts one trace entry of a cycle. Duplicate (cycle, seq)
// pairs are silently ignored.
//
// The cycle referenced by CycleID must exist (foreign key constraint).
func (s *Store) WriteDispatch(ctx context.Context, d Dispatch) error {
	userInput := 0
	if d.UserInput {
		userInput = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dispatches (cycle_id, seq, sink, event_type, target, detail, user_input)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(cycle_id, seq) DO NOTHING
	`,
		d.CycleID,
		d.Seq,
		d.Sink,
		d.EventType,
		d.Target,
		d.Detail,
		userInput,
	)
	if err != nil {
		return fmt.Errorf("write dispatch: %w", err)
	}

	return nil
}

// WriteTrace records a whole cycle in one transaction: the cycle row plus
// every dispatch. Partial recordings never become visible.
func (s *Store) WriteTrace(ctx context.Context, c Cycle, dispatches []Dispatch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write trace: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO cycles (id, scenario, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, c.ID, c.Scenario, c.CreatedAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("write trace: cycle: %w", err)
	}

	for _, d := range dispatches {
		userInput := 0
		if d.UserInput {
			userInput = 1
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO dispatches (cycle_id, seq, sink, event_type, target, detail, user_input)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(cycle_id, seq) DO NOTHING
		`, c.ID, d.Seq, d.Sink, d.EventType, d.Target, d.Detail, userInput); err != nil {
			return fmt.Errorf("write trace: dispatch seq %d: %w", d.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write trace: commit: %w", err)
	}

	return nil
}
