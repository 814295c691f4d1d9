package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/arklim/social-platform-feed/internal/repository"
)

func profileRows(createdAt time.Time) *pgxmock.Rows {
	fullName := "Alice Example"
	avatar := "https://cdn/avatars/alice.png"
	bio := "hello"
	return pgxmock.NewRows(profileColumns).
		AddRow("user-1", "alice", &fullName, &avatar, &bio, 3, 10, 7, createdAt)
}

func TestProfileRepository_GetByUsername(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewProfileRepository(mock)
	createdAt := time.Now().UTC()

	mock.ExpectQuery(`SELECT .+ FROM feed\.profiles WHERE username = \$1`).
		WithArgs("alice").
		WillReturnRows(profileRows(createdAt))

	profile, err := repo.GetByUsername(context.Background(), " Alice ")
	if err != nil {
		t.Fatalf("GetByUsername returned error: %v", err)
	}

	if profile.Username != "alice" {
		t.Fatalf("unexpected username %q", profile.Username)
	}
	if profile.Counts.Followers != 10 {
		t.Fatalf("unexpected followers count %d", profile.Counts.Followers)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestProfileRepository_GetByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewProfileRepository(mock)

	mock.ExpectQuery(`SELECT .+ FROM feed\.profiles WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(profileColumns))

	_, err = repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNotificationRepository_MarkAllRead(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewNotificationRepository(mock)

	mock.ExpectExec(`UPDATE feed\.notifications SET read = \$1`).
		WithArgs(true, "user-1", false).
		WillReturnResult(pgxmock.NewResult("UPDATE", 4))

	if err := repo.MarkAllRead(context.Background(), "user-1"); err != nil {
		t.Fatalf("MarkAllRead returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
