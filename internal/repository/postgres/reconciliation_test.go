package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propdesk-backend/internal/domain"
	"propdesk-backend/internal/repository"
)

var viewColumns = []string{
	"id", "user_id", "session_id", "payment_id", "bank_transaction_id", "confidence_score",
	"match_status", "matching_reasons", "is_reconciled", "reviewed_by", "reviewed_at", "review_notes",
	"created_at", "updated_at",
	"amount", "payment_date", "method", "reference", "payment_type", "payment_is_reconciled",
	"property_id", "property_name", "tenant_id", "tenant_name",
	"bt_id", "bt_date", "bt_amount", "bt_description", "bt_reference", "bt_type", "bt_created_at",
}

func TestReconciliationRepository_TerminateSession(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReconciliationRepository(db)
	user, session := uuid.New(), uuid.New()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM payment_reconciliations").WithArgs(session, user).WillReturnResult(sqlmock.NewResult(0, 7))
		mock.ExpectExec("DELETE FROM bank_transactions").WithArgs(session, user).WillReturnResult(sqlmock.NewResult(0, 9))
		mock.ExpectExec("UPDATE reconciliation_sessions SET processing_status = 'cancelled'").
			WithArgs(sqlmock.AnyArg(), session, user).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		assert.NoError(t, repo.TerminateSession(context.Background(), user, session))
	})

	t.Run("RollsBackOnFailure", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM payment_reconciliations").WithArgs(session, user).WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec("DELETE FROM bank_transactions").WithArgs(session, user).WillReturnError(errors.New("boom"))
		mock.ExpectRollback()

		assert.Error(t, repo.TerminateSession(context.Background(), user, session))
	})
}

func TestReconciliationRepository_MarkReconciled(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReconciliationRepository(db)

	user := uuid.New()
	recs := []domain.PaymentReconciliation{
		{ID: uuid.New(), PaymentID: uuid.New(), MatchStatus: domain.MatchStatusDefinite},
		{ID: uuid.New(), PaymentID: uuid.New(), MatchStatus: domain.MatchStatusHighConfidence},
	}
	at := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE payment_reconciliations SET is_reconciled = TRUE").
		WithArgs(at, user, pq.Array([]string{recs[0].ID.String(), recs[1].ID.String()})).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("UPDATE payments SET is_reconciled = TRUE").
		WithArgs(at, user, pq.Array([]string{recs[0].PaymentID.String(), recs[1].PaymentID.String()})).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, repo.MarkReconciled(context.Background(), user, recs, at))
	assert.NoError(t, repo.MarkReconciled(context.Background(), user, nil, at))
}

func TestReconciliationRepository_UpsertPattern(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReconciliationRepository(db)

	p := &domain.ReconciliationPattern{
		UserID:                 uuid.New(),
		TenantID:               uuid.New(),
		BankDescriptionPattern: "NEFT AMIT SHARMA RENT",
		ConfidenceBoost:        domain.ConfirmConfidenceBoost,
		TimesConfirmed:         1,
	}
	id := uuid.New()
	mock.ExpectQuery("INSERT INTO reconciliation_patterns (.+) ON CONFLICT \\(user_id, tenant_id, bank_description_pattern\\)").
		WithArgs(p.UserID, p.TenantID, p.BankDescriptionPattern, 10, 1, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id.String()))

	require.NoError(t, repo.UpsertPattern(context.Background(), p))
	assert.Equal(t, id, p.ID)
}

func TestReconciliationRepository_GetView(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReconciliationRepository(db)

	user, id, session, payment := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	now := time.Now()

	t.Run("WithBankTransaction", func(t *testing.T) {
		bank, tenant, property := uuid.New(), uuid.New(), uuid.New()
		mock.ExpectQuery("SELECT (.+) FROM payment_reconciliations pr").
			WithArgs(user, id).
			WillReturnRows(sqlmock.NewRows(viewColumns).AddRow(
				id.String(), user.String(), session.String(), payment.String(), bank.String(), 92,
				"high_confidence", "{amount,date}", false, nil, nil, "",
				now, now,
				"15000.00", now, "bank_transfer", "", "rent", false,
				property.String(), "Lotus Residency", tenant.String(), "Amit Sharma",
				bank.String(), now, "15000.00", "NEFT AMIT SHARMA RENT", "N123", "credit", now))

		v, err := repo.GetView(context.Background(), user, id)
		require.NoError(t, err)
		assert.Equal(t, domain.MatchStatusHighConfidence, v.MatchStatus)
		assert.Equal(t, []string{"amount", "date"}, v.MatchingReasons)
		assert.True(t, v.Tenant.Known)
		assert.Equal(t, "Lotus Residency", v.Property.Name)
		require.NotNil(t, v.BankTransaction)
		assert.Equal(t, bank, v.BankTransaction.ID)
		assert.Equal(t, payment, v.Payment.ID)
	})

	t.Run("UnknownJoins", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM payment_reconciliations pr").
			WithArgs(user, id).
			WillReturnRows(sqlmock.NewRows(viewColumns).AddRow(
				id.String(), user.String(), session.String(), payment.String(), nil, 0,
				"unmatched", "{}", false, nil, nil, "",
				now, now,
				"500.00", now, "cash", "", "other", false,
				nil, nil, nil, nil,
				nil, nil, nil, nil, nil, nil, nil))

		v, err := repo.GetView(context.Background(), user, id)
		require.NoError(t, err)
		assert.Nil(t, v.BankTransactionID)
		assert.Nil(t, v.BankTransaction)
		assert.Equal(t, "Unknown Tenant", v.Tenant.Name)
		assert.Equal(t, "Unknown Property", v.Property.Name)
		assert.False(t, v.Property.Known)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM payment_reconciliations pr").
			WithArgs(user, id).
			WillReturnRows(sqlmock.NewRows(viewColumns))
		_, err := repo.GetView(context.Background(), user, id)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestReconciliationRepository_UpdateSessionStatus(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReconciliationRepository(db)
	user, id := uuid.New(), uuid.New()

	mock.ExpectExec("UPDATE reconciliation_sessions").
		WithArgs(domain.SessionStatusFailed, "parse failed", sqlmock.AnyArg(), id, user).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.UpdateSessionStatus(context.Background(), user, id, domain.SessionStatusFailed, "parse failed"))
}

func TestReconciliationRepository_UpdateReview(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReconciliationRepository(db)
	user, bank := uuid.New(), uuid.New()

	t.Run("Success", func(t *testing.T) {
		rec := &domain.PaymentReconciliation{ID: uuid.New(), UserID: user, BankTransactionID: &bank, MatchStatus: domain.MatchStatusManuallyLinked}
		mock.ExpectExec("UPDATE payment_reconciliations").
			WithArgs(rec.MatchStatus, rec.BankTransactionID, rec.ConfidenceScore, rec.ReviewedBy, rec.ReviewedAt,
				rec.ReviewNotes, sqlmock.AnyArg(), rec.ID, user).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.UpdateReview(context.Background(), rec))
	})

	t.Run("BankLineAlreadyLinked", func(t *testing.T) {
		rec := &domain.PaymentReconciliation{ID: uuid.New(), UserID: user, BankTransactionID: &bank}
		mock.ExpectExec("UPDATE payment_reconciliations").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "payment_reconciliations_bank_idx"})

		err := repo.UpdateReview(context.Background(), rec)
		assert.ErrorIs(t, err, repository.ErrDuplicate)
		assert.Contains(t, err.Error(), "payment_reconciliations_bank_idx")
	})

	t.Run("OtherErrorsPassThrough", func(t *testing.T) {
		rec := &domain.PaymentReconciliation{ID: uuid.New(), UserID: user}
		mock.ExpectExec("UPDATE payment_reconciliations").
			WillReturnError(&pq.Error{Code: "23503"})

		err := repo.UpdateReview(context.Background(), rec)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, repository.ErrDuplicate)
	})
}
