package directory

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/votewatch/election-alerts/internal/models"
)

type SQLiteDirectory struct {
	db *sql.DB
}

func NewSQLiteDirectory(path string) (*SQLiteDirectory, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	d := &SQLiteDirectory{
		db: db,
	}
	if err := d.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating database: %w", err)
	}

	return d, nil
}

func (d *SQLiteDirectory) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			role TEXT NOT NULL,
			parish TEXT,
			phone TEXT,
			email TEXT,
			push_token TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);
		CREATE INDEX IF NOT EXISTS idx_users_parish ON users(parish);
  	`

	_, err := d.db.Exec(schema)
	return err
}

func (d *SQLiteDirectory) UsersByRole(ctx context.Context, role models.Role) ([]models.Recipient, error) {
	return d.query(ctx, `SELECT id, name, role, parish, phone, email, push_token FROM users WHERE role = ?`, string(role))
}

func (d *SQLiteDirectory) UsersByParish(ctx context.Context, parish string) ([]models.Recipient, error) {
	return d.query(ctx, `SELECT id, name, role, parish, phone, email, push_token FROM users WHERE parish = ?`, parish)
}

func (d *SQLiteDirectory) AddUser(ctx context.Context, u models.Recipient) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO users (id, name, role, parish, phone, email, push_token)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, string(u.Role), u.Parish, u.Phone, u.Email, u.PushToken,
	)
	if err != nil {
		return fmt.Errorf("error adding user: %w", err)
	}
	return nil
}

func (d *SQLiteDirectory) query(ctx context.Context, q string, args ...any) ([]models.Recipient, error) {
	rows, err := d.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying users: %w", err)
	}
	defer rows.Close()

	var users []models.Recipient
	for rows.Next() {
		var u models.Recipient
		var role string
		var parish, phone, email, pushToken sql.NullString
		if err := rows.Scan(&u.ID, &u.Name, &role, &parish, &phone, &email, &pushToken); err != nil {
			return nil, fmt.Errorf("error scanning user: %w", err)
		}
		u.Role = models.Role(role)
		u.Parish = parish.String
		u.Phone = phone.String
		u.Email = email.String
		u.PushToken = pushToken.String
		users = append(users, u)
	}

	return users, rows.Err()
}

func (d *SQLiteDirectory) Close() error {
	return d.db.Close()
}
