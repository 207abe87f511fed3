package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propdesk-backend/internal/domain"
	"propdesk-backend/internal/repository"
)

var documentRowColumns = []string{"id", "owner_id", "property_id", "lease_id", "file_name", "content_type",
	"size_bytes", "storage_key", "created_at"}

func TestDocumentRepository_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDocumentRepository(db)

	d := &domain.Document{OwnerID: uuid.New(), FileName: "lease.pdf", ContentType: "application/pdf", SizeBytes: 2048, StorageKey: "docs/lease.pdf"}
	mock.ExpectExec("INSERT INTO documents").
		WithArgs(sqlmock.AnyArg(), d.OwnerID, nil, nil, d.FileName, d.ContentType, d.SizeBytes, d.StorageKey, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), d))
	assert.NotEqual(t, uuid.Nil, d.ID)
}

func TestDocumentRepository_GetByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDocumentRepository(db)
	owner, id, property := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = \\$1 AND owner_id = \\$2").
		WithArgs(id, owner).
		WillReturnRows(sqlmock.NewRows(documentRowColumns).
			AddRow(id.String(), owner.String(), property.String(), nil, "lease.pdf", "application/pdf", 2048, "docs/lease.pdf", time.Now()))

	d, err := repo.GetByID(context.Background(), owner, id)
	require.NoError(t, err)
	require.NotNil(t, d.PropertyID)
	assert.Equal(t, property, *d.PropertyID)
	assert.Nil(t, d.LeaseID)
}

func TestDocumentRepository_List(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDocumentRepository(db)
	owner := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM documents WHERE owner_id = \\$1 ORDER BY created_at DESC").
		WithArgs(owner).
		WillReturnRows(sqlmock.NewRows(documentRowColumns))

	out, err := repo.List(context.Background(), owner)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDocumentRepository_Delete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDocumentRepository(db)
	owner, id := uuid.New(), uuid.New()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM documents WHERE id = \\$1 AND owner_id = \\$2").
			WithArgs(id, owner).
			WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, repo.Delete(context.Background(), owner, id))
	})

	t.Run("OtherOwner", func(t *testing.T) {
		other := uuid.New()
		mock.ExpectExec("DELETE FROM documents WHERE id = \\$1 AND owner_id = \\$2").
			WithArgs(id, other).
			WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, repo.Delete(context.Background(), other, id), repository.ErrNotFound)
	})
}
