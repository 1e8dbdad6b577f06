package directory

import (
	"context"
	"testing"

	"github.com/votewatch/election-alerts/internal/models"
)

func setupTestDirectory(t *testing.T) *SQLiteDirectory {
	d, err := NewSQLiteDirectory(":memory:")
	if err != nil {
		t.Fatalf("failed to create test directory: %v", err)
	}
	return d
}

func TestSQLiteDirectory_UsersByRole(t *testing.T) {
	d := setupTestDirectory(t)
	defer d.Close()

	ctx := context.Background()

	users := []models.Recipient{
		{ID: "u1", Name: "A. Campbell", Role: models.RoleCoordinator, Parish: "Kingston", Phone: "+18765550001"},
		{ID: "u2", Name: "B. Reid", Role: models.RoleCoordinator, Parish: "Portland", Phone: "+18765550002"},
		{ID: "u3", Name: "C. Brown", Role: models.RoleObserver, Parish: "Kingston", Phone: "+18765550003"},
	}
	for _, u := range users {
		if err := d.AddUser(ctx, u); err != nil {
			t.Fatalf("AddUser failed: %v", err)
		}
	}

	coordinators, err := d.UsersByRole(ctx, models.RoleCoordinator)
	if err != nil {
		t.Fatalf("UsersByRole failed: %v", err)
	}
	if len(coordinators) != 2 {
		t.Errorf("expected 2 coordinators, got %d", len(coordinators))
	}

	admins, err := d.UsersByRole(ctx, models.RoleAdmin)
	if err != nil {
		t.Fatalf("UsersByRole failed: %v", err)
	}
	if len(admins) != 0 {
		t.Errorf("expected 0 admins, got %d", len(admins))
	}
}

func TestSQLiteDirectory_UsersByParish(t *testing.T) {
	d := setupTestDirectory(t)
	defer d.Close()

	ctx := context.Background()

	d.AddUser(ctx, models.Recipient{ID: "u1", Name: "A", Role: models.RoleObserver, Parish: "St. Ann"})
	d.AddUser(ctx, models.Recipient{ID: "u2", Name: "B", Role: models.RoleSupervisor, Parish: "St. Ann", Email: "b@example.org"})
	d.AddUser(ctx, models.Recipient{ID: "u3", Name: "C", Role: models.RoleObserver, Parish: "Clarendon"})

	users, err := d.UsersByParish(ctx, "St. Ann")
	if err != nil {
		t.Fatalf("UsersByParish failed: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("expected 2 users in St. Ann, got %d", len(users))
	}

	for _, u := range users {
		if u.ID == "u2" && u.Email != "b@example.org" {
			t.Errorf("expected email to round-trip, got %q", u.Email)
		}
	}
}
