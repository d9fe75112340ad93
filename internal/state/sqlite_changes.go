package state

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapmodel/pkg/core"
)

// RecordChanges appends the changes of a run in a single transaction.
func (s *SQLiteStore) RecordChanges(runID string, changes []core.Change) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if len(changes) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, c := range changes {
		_, err := tx.Exec(
			`INSERT INTO changes (run_id, seq, action, object, before_value, after_value, detail) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, i, string(c.Action), c.Object, c.Before, c.After, c.Detail,
		)
		if err != nil {
			return fmt.Errorf("failed to record change for %s: %w", c.Object, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Debug("recorded changes", slog.String("run", runID), slog.Int("count", len(changes)))
	return nil
}

// GetChanges returns the changes of a run in the order they were recorded.
func (s *SQLiteStore) GetChanges(runID string) ([]core.Change, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT action, object, before_value, after_value, detail FROM changes WHERE run_id = ? ORDER BY seq`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get changes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var changes []core.Change
	for rows.Next() {
		var c core.Change
		var action string
		if err := rows.Scan(&action, &c.Object, &c.Before, &c.After, &c.Detail); err != nil {
			return nil, fmt.Errorf("failed to scan change: %w", err)
		}
		c.Action = core.ChangeAction(action)
		changes = append(changes, c)
	}

	return changes, rows.Err()
}
