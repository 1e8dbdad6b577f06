package main

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/votewatch/election-alerts/internal/config"
	"github.com/votewatch/election-alerts/internal/directory"
	"github.com/votewatch/election-alerts/internal/logging"
	"github.com/votewatch/election-alerts/internal/models"
)

// seed-roster loads observer roster rows into the user directory from a CSV
// file: id,name,role,parish,phone,email,push_token
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level)

	if len(os.Args) < 2 {
		logging.Fatalf("usage: seed-roster <roster.csv>")
	}

	f, err := os.Open(os.Args[1])
	if err != nil {
		logging.Fatalf("Failed to open roster file: %v", err)
	}
	defer f.Close()

	dir, err := directory.NewSQLiteDirectory(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize user directory: %v", err)
	}
	defer dir.Close()

	ctx := context.Background()
	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	added := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logging.Fatalf("Failed to read roster file: %v", err)
		}
		if len(row) < 4 {
			slog.Warn("skipping short roster row", "fields", len(row))
			continue
		}

		u := models.Recipient{
			ID:     row[0],
			Name:   row[1],
			Role:   models.Role(row[2]),
			Parish: row[3],
		}
		if len(row) > 4 {
			u.Phone = row[4]
		}
		if len(row) > 5 {
			u.Email = row[5]
		}
		if len(row) > 6 {
			u.PushToken = row[6]
		}

		if err := dir.AddUser(ctx, u); err != nil {
			slog.Error("failed to add user", "id", u.ID, "error", err)
			continue
		}
		added++
	}

	slog.Info("roster seeded", "users", added)
}
