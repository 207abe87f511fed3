package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propdesk-backend/internal/domain"
	"propdesk-backend/internal/repository"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func TestUserRepository_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	id := uuid.New()
	u := &domain.User{Email: "owner@example.com", PasswordHash: "hash", FullName: "Asha Rao"}
	mock.ExpectQuery("INSERT INTO users").
		WithArgs(u.Email, u.PasswordHash, u.FullName, false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id.String()))

	require.NoError(t, repo.Create(context.Background(), u))
	assert.Equal(t, id, u.ID)
	assert.False(t, u.CreatedAt.IsZero())
}

func TestUserRepository_GetByEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		id := uuid.New()
		now := time.Now()
		mock.ExpectQuery("SELECT (.+) FROM users WHERE LOWER\\(email\\)").
			WithArgs("Owner@Example.com").
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "email_verified", "created_at", "updated_at"}).
				AddRow(id.String(), "owner@example.com", "hash", "Asha Rao", true, now, now))

		u, err := repo.GetByEmail(ctx, "Owner@Example.com")
		require.NoError(t, err)
		assert.Equal(t, id, u.ID)
		assert.True(t, u.EmailVerified)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM users").
			WithArgs("nobody@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.GetByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestUserRepository_MarkEmailVerified(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	id := uuid.New()
	mock.ExpectExec("UPDATE users SET email_verified = TRUE").
		WithArgs(sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkEmailVerified(context.Background(), id)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
