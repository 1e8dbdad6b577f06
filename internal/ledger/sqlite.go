package ledger

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

type SQLiteLedger struct {
	db *sql.DB
}

func NewSQLiteLedger(path string) (*SQLiteLedger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteLedger{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating database: %w", err)
	}

	return s, nil
}

func (s *SQLiteLedger) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS records (
			id TEXT PRIMARY KEY,
			action TEXT NOT NULL,
			entity_type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			actor_id TEXT,
			timestamp DATETIME NOT NULL,
			snapshot BLOB
		);

		CREATE INDEX IF NOT EXISTS idx_records_entity ON records(entity_type, entity_id);
		CREATE INDEX IF NOT EXISTS idx_records_action ON records(action);
		CREATE INDEX IF NOT EXISTS idx_records_timestamp ON records(timestamp);
  	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteLedger) Append(ctx context.Context, r Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO records (id, action, entity_type, entity_id, actor_id, timestamp, snapshot)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, string(r.Action), r.EntityType, r.EntityID, r.ActorID, r.Timestamp.UTC(), r.Snapshot,
	)
	if err != nil {
		return fmt.Errorf("error appending record: %w", err)
	}
	return nil
}

func (s *SQLiteLedger) Query(ctx context.Context, opts Filter) ([]Record, error) {
	query := `SELECT id, action, entity_type, entity_id, actor_id, timestamp, snapshot FROM records WHERE 1=1`
	args := []any{}

	if opts.EntityType != "" {
		query += ` AND entity_type = ?`
		args = append(args, opts.EntityType)
	}
	if opts.EntityID != "" {
		query += ` AND entity_id = ?`
		args = append(args, opts.EntityID)
	}
	if opts.Action != nil {
		query += ` AND action = ?`
		args = append(args, string(*opts.Action))
	}
	if opts.Since != nil {
		query += ` AND timestamp >= ?`
		args = append(args, opts.Since.UTC())
	}

	query += ` ORDER BY timestamp ASC`

	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var action string
		var actorID sql.NullString
		if err := rows.Scan(&r.ID, &action, &r.EntityType, &r.EntityID, &actorID, &r.Timestamp, &r.Snapshot); err != nil {
			return nil, fmt.Errorf("error scanning record: %w", err)
		}
		r.Action = Action(action)
		r.ActorID = actorID.String
		records = append(records, r)
	}

	return records, rows.Err()
}

func (s *SQLiteLedger) Close() error {
	return s.db.Close()
}
