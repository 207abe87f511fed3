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

var propertyRowColumns = []string{"id", "owner_id", "name", "address", "city", "property_type", "units", "created_at", "updated_at"}

func TestPropertyRepository_GetByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPropertyRepository(db)
	owner, id := uuid.New(), uuid.New()
	now := time.Now()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM properties WHERE id = \\$1 AND owner_id = \\$2").
			WithArgs(id, owner).
			WillReturnRows(sqlmock.NewRows(propertyRowColumns).
				AddRow(id.String(), owner.String(), "Lake View 4B", "", "Pune", "apartment", 1, now, now))

		p, err := repo.GetByID(context.Background(), owner, id)
		require.NoError(t, err)
		assert.Equal(t, owner, p.OwnerID)
		assert.Equal(t, domain.PropertyTypeApartment, p.PropertyType)
	})

	t.Run("OtherOwner", func(t *testing.T) {
		other := uuid.New()
		mock.ExpectQuery("SELECT (.+) FROM properties WHERE id = \\$1 AND owner_id = \\$2").
			WithArgs(id, other).
			WillReturnRows(sqlmock.NewRows(propertyRowColumns))

		_, err := repo.GetByID(context.Background(), other, id)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestPropertyRepository_List(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPropertyRepository(db)
	owner := uuid.New()
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM properties WHERE owner_id = \\$1 ORDER BY name").
		WithArgs(owner).
		WillReturnRows(sqlmock.NewRows(propertyRowColumns).
			AddRow(uuid.NewString(), owner.String(), "Lake View 4B", "12 MG Road", "Pune", "apartment", 1, now, now).
			AddRow(uuid.NewString(), owner.String(), "Shop 7", "", "", "commercial", 2, now, now))

	out, err := repo.List(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 2, out[1].Units)
}

func TestPropertyRepository_Update(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPropertyRepository(db)
	p := &domain.Property{ID: uuid.New(), OwnerID: uuid.New(), Name: "Lake View 4B", PropertyType: domain.PropertyTypeApartment, Units: 1}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec("UPDATE properties SET (.+) WHERE id=\\$7 AND owner_id=\\$8").
			WithArgs(p.Name, "", "", p.PropertyType, 1, sqlmock.AnyArg(), p.ID, p.OwnerID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, repo.Update(context.Background(), p))
	})

	t.Run("OtherOwner", func(t *testing.T) {
		mock.ExpectExec("UPDATE properties").
			WithArgs(p.Name, "", "", p.PropertyType, 1, sqlmock.AnyArg(), p.ID, p.OwnerID).
			WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, repo.Update(context.Background(), p), repository.ErrNotFound)
	})
}

func TestPropertyRepository_Delete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPropertyRepository(db)
	owner, id := uuid.New(), uuid.New()

	mock.ExpectExec("DELETE FROM properties WHERE id = \\$1 AND owner_id = \\$2").
		WithArgs(id, owner).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), owner, id), repository.ErrNotFound)
}
