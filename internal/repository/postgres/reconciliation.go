package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"propdesk-backend/internal/domain"
	"propdesk-backend/internal/logger"
	"propdesk-backend/internal/repository"
)

type reconciliationRepository struct {
	db *sql.DB
}

func NewReconciliationRepository(db *sql.DB) repository.ReconciliationRepository {
	return &reconciliationRepository{db: db}
}

const sessionColumns = `id, user_id, file_name, file_size, COALESCE(storage_key, ''), processing_status,
	total_transactions, auto_matched, review_required, unmatched, COALESCE(error_message, ''),
	created_at, updated_at, completed_at`

func scanSession(row rowScanner) (*domain.ReconciliationSession, error) {
	s := &domain.ReconciliationSession{}
	err := row.Scan(&s.ID, &s.UserID, &s.FileName, &s.FileSize, &s.StorageKey, &s.ProcessingStatus,
		&s.TotalTransactions, &s.AutoMatched, &s.ReviewRequired, &s.Unmatched, &s.ErrorMessage,
		&s.CreatedAt, &s.UpdatedAt, &s.CompletedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return s, nil
}

func (r *reconciliationRepository) CreateSession(ctx context.Context, s *domain.ReconciliationSession) error {
	query := `INSERT INTO reconciliation_sessions (user_id, file_name, file_size, processing_status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	if s.ProcessingStatus == "" {
		s.ProcessingStatus = domain.SessionStatusUploaded
	}
	logger.DatabaseCall("INSERT", "reconciliation_sessions", "userID", s.UserID, "file", s.FileName)
	err := r.db.QueryRowContext(ctx, query, s.UserID, s.FileName, s.FileSize, s.ProcessingStatus, s.CreatedAt, s.UpdatedAt).Scan(&s.ID)
	logger.DatabaseResult("INSERT", 1, err, "sessionID", s.ID)
	return err
}

func (r *reconciliationRepository) GetSession(ctx context.Context, userID, id uuid.UUID) (*domain.ReconciliationSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM reconciliation_sessions WHERE id = $1 AND user_id = $2`
	return scanSession(r.db.QueryRowContext(ctx, query, id, userID))
}

func (r *reconciliationRepository) ListSessions(ctx context.Context, userID uuid.UUID) ([]domain.ReconciliationSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM reconciliation_sessions WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ReconciliationSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *reconciliationRepository) SetStorageKey(ctx context.Context, userID, id uuid.UUID, key string) error {
	query := `UPDATE reconciliation_sessions SET storage_key = $1, updated_at = $2 WHERE id = $3 AND user_id = $4`
	return requireRow(r.db.ExecContext(ctx, query, key, time.Now().UTC(), id, userID))
}

func (r *reconciliationRepository) UpdateSessionStatus(ctx context.Context, userID, id uuid.UUID, status domain.SessionStatus, errMsg string) error {
	query := `UPDATE reconciliation_sessions
	          SET processing_status = $1, error_message = NULLIF($2, ''), updated_at = $3,
	              completed_at = CASE WHEN $1 = 'completed' THEN $3 ELSE completed_at END
	          WHERE id = $4 AND user_id = $5`
	logger.DatabaseCall("UPDATE", "reconciliation_sessions", "sessionID", id, "status", status)
	res, err := r.db.ExecContext(ctx, query, status, errMsg, time.Now().UTC(), id, userID)
	err = requireRow(res, err)
	logger.DatabaseResult("UPDATE", 1, err, "sessionID", id)
	return err
}

func (r *reconciliationRepository) RefreshSessionCounts(ctx context.Context, userID, id uuid.UUID) error {
	query := `UPDATE reconciliation_sessions s SET
	              total_transactions = (SELECT count(*) FROM bank_transactions bt WHERE bt.session_id = s.id),
	              auto_matched = (SELECT count(*) FROM payment_reconciliations pr
	                              WHERE pr.session_id = s.id AND pr.match_status IN ('definite_match', 'high_confidence', 'confirmed', 'manually_linked')),
	              review_required = (SELECT count(*) FROM payment_reconciliations pr
	                                 WHERE pr.session_id = s.id AND pr.match_status = 'review_required'),
	              unmatched = (SELECT count(*) FROM payment_reconciliations pr
	                           WHERE pr.session_id = s.id AND pr.match_status IN ('unmatched', 'rejected')),
	              updated_at = $1
	          WHERE s.id = $2 AND s.user_id = $3`
	return requireRow(r.db.ExecContext(ctx, query, time.Now().UTC(), id, userID))
}

func (r *reconciliationRepository) TerminateSession(ctx context.Context, userID, id uuid.UUID) error {
	logger.EnterMethod("reconciliationRepository.TerminateSession", "sessionID", id)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		logger.ExitMethodWithError("reconciliationRepository.TerminateSession", err)
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM payment_reconciliations WHERE session_id = $1 AND user_id = $2`, id, userID); err != nil {
		logger.ExitMethodWithError("reconciliationRepository.TerminateSession", err, "step", "reconciliations")
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM bank_transactions WHERE session_id = $1 AND user_id = $2`, id, userID); err != nil {
		logger.ExitMethodWithError("reconciliationRepository.TerminateSession", err, "step", "bank_transactions")
		return err
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE reconciliation_sessions SET processing_status = 'cancelled', updated_at = $1 WHERE id = $2 AND user_id = $3`,
		time.Now().UTC(), id, userID)
	if err := requireRow(res, err); err != nil {
		logger.ExitMethodWithError("reconciliationRepository.TerminateSession", err, "step", "session")
		return err
	}
	if err := tx.Commit(); err != nil {
		logger.ExitMethodWithError("reconciliationRepository.TerminateSession", err)
		return err
	}
	logger.ExitMethod("reconciliationRepository.TerminateSession", "sessionID", id)
	return nil
}

const viewSelect = `SELECT pr.id, pr.user_id, pr.session_id, pr.payment_id, pr.bank_transaction_id, pr.confidence_score,
	pr.match_status, pr.matching_reasons, pr.is_reconciled, pr.reviewed_by, pr.reviewed_at, COALESCE(pr.review_notes, ''),
	pr.created_at, pr.updated_at,
	p.amount, p.payment_date, p.method, COALESCE(p.reference, ''), p.payment_type, p.is_reconciled,
	pp.id, pp.name, t.id, t.full_name,
	bt.id, bt.transaction_date, bt.amount, bt.description, bt.reference_number, bt.transaction_type, bt.created_at
	FROM payment_reconciliations pr
	JOIN payments p ON p.id = pr.payment_id
	LEFT JOIN leases l ON l.id = p.lease_id
	LEFT JOIN properties pp ON pp.id = l.property_id
	LEFT JOIN tenants t ON t.id = l.tenant_id
	LEFT JOIN bank_transactions bt ON bt.id = pr.bank_transaction_id`

func scanView(row rowScanner) (*domain.ReconciliationView, error) {
	var (
		v                 domain.ReconciliationView
		propertyID        uuid.NullUUID
		propertyName      sql.NullString
		tenantID          uuid.NullUUID
		tenantName        sql.NullString
		bankID            uuid.NullUUID
		bankDate          sql.NullTime
		bankAmount        decimal.NullDecimal
		bankDesc, bankRef sql.NullString
		bankType          sql.NullString
		bankCreated       sql.NullTime
	)
	err := row.Scan(&v.ID, &v.UserID, &v.SessionID, &v.PaymentID, &v.BankTransactionID, &v.ConfidenceScore,
		&v.MatchStatus, pq.Array(&v.MatchingReasons), &v.IsReconciled, &v.ReviewedBy, &v.ReviewedAt, &v.ReviewNotes,
		&v.CreatedAt, &v.UpdatedAt,
		&v.Payment.Amount, &v.Payment.PaymentDate, &v.Payment.Method, &v.Payment.Reference, &v.Payment.PaymentType, &v.Payment.IsReconciled,
		&propertyID, &propertyName, &tenantID, &tenantName,
		&bankID, &bankDate, &bankAmount, &bankDesc, &bankRef, &bankType, &bankCreated)
	if err != nil {
		return nil, mapErr(err)
	}
	v.Payment.ID = v.PaymentID
	v.Property = domain.NewPropertyRef(propertyID, nullString(propertyName))
	v.Tenant = domain.NewTenantRef(tenantID, nullString(tenantName))
	if bankID.Valid {
		v.BankTransaction = &domain.BankTransaction{
			ID:              bankID.UUID,
			SessionID:       v.SessionID,
			UserID:          v.UserID,
			TransactionDate: bankDate.Time,
			Amount:          bankAmount.Decimal,
			Description:     bankDesc.String,
			ReferenceNumber: bankRef.String,
			TransactionType: bankType.String,
			CreatedAt:       bankCreated.Time,
		}
	}
	return &v, nil
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func (r *reconciliationRepository) ListViews(ctx context.Context, userID, sessionID uuid.UUID) ([]domain.ReconciliationView, error) {
	query := viewSelect + ` WHERE pr.user_id = $1 AND pr.session_id = $2 ORDER BY pr.confidence_score DESC, p.payment_date`
	logger.DatabaseCall("SELECT", "payment_reconciliations", "sessionID", sessionID)
	rows, err := r.db.QueryContext(ctx, query, userID, sessionID)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err)
		return nil, err
	}
	defer rows.Close()

	var out []domain.ReconciliationView
	for rows.Next() {
		v, err := scanView(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	logger.DatabaseResult("SELECT", int64(len(out)), rows.Err())
	return out, rows.Err()
}

func (r *reconciliationRepository) GetView(ctx context.Context, userID, id uuid.UUID) (*domain.ReconciliationView, error) {
	query := viewSelect + ` WHERE pr.user_id = $1 AND pr.id = $2`
	return scanView(r.db.QueryRowContext(ctx, query, userID, id))
}

func (r *reconciliationRepository) UpdateReview(ctx context.Context, rec *domain.PaymentReconciliation) error {
	query := `UPDATE payment_reconciliations
	          SET match_status = $1, bank_transaction_id = $2, confidence_score = $3,
	              reviewed_by = $4, reviewed_at = $5, review_notes = $6, updated_at = $7
	          WHERE id = $8 AND user_id = $9`
	rec.UpdatedAt = time.Now().UTC()
	return requireRow(r.db.ExecContext(ctx, query, rec.MatchStatus, rec.BankTransactionID, rec.ConfidenceScore,
		rec.ReviewedBy, rec.ReviewedAt, rec.ReviewNotes, rec.UpdatedAt, rec.ID, rec.UserID))
}

func (r *reconciliationRepository) MarkReconciled(ctx context.Context, userID uuid.UUID, recs []domain.PaymentReconciliation, at time.Time) error {
	if len(recs) == 0 {
		return nil
	}
	recIDs := make([]string, 0, len(recs))
	paymentIDs := make([]string, 0, len(recs))
	for _, rec := range recs {
		recIDs = append(recIDs, rec.ID.String())
		paymentIDs = append(paymentIDs, rec.PaymentID.String())
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	logger.DatabaseCall("UPDATE", "payment_reconciliations", "count", len(recIDs))
	res, err := tx.ExecContext(ctx,
		`UPDATE payment_reconciliations SET is_reconciled = TRUE, updated_at = $1
		 WHERE user_id = $2 AND id = ANY($3::uuid[]) AND match_status IN ('definite_match', 'high_confidence')`,
		at, userID, pq.Array(recIDs))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n != int64(len(recIDs)) {
		return fmt.Errorf("mark reconciled: expected %d rows, updated %d", len(recIDs), n)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE payments SET is_reconciled = TRUE, reconciled_at = $1 WHERE owner_id = $2 AND id = ANY($3::uuid[])`,
		at, userID, pq.Array(paymentIDs)); err != nil {
		return err
	}
	return tx.Commit()
}

const bankColumns = `id, session_id, user_id, transaction_date, amount, COALESCE(description, ''),
	COALESCE(reference_number, ''), COALESCE(transaction_type, ''), created_at`

func scanBank(row rowScanner) (*domain.BankTransaction, error) {
	b := &domain.BankTransaction{}
	err := row.Scan(&b.ID, &b.SessionID, &b.UserID, &b.TransactionDate, &b.Amount, &b.Description,
		&b.ReferenceNumber, &b.TransactionType, &b.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return b, nil
}

func (r *reconciliationRepository) GetBankTransaction(ctx context.Context, userID, id uuid.UUID) (*domain.BankTransaction, error) {
	query := `SELECT ` + bankColumns + ` FROM bank_transactions WHERE id = $1 AND user_id = $2`
	return scanBank(r.db.QueryRowContext(ctx, query, id, userID))
}

func (r *reconciliationRepository) ListUnusedBankTransactions(ctx context.Context, userID, sessionID uuid.UUID) ([]domain.BankTransaction, error) {
	query := `SELECT ` + bankColumns + ` FROM bank_transactions bt
	          WHERE bt.user_id = $1 AND bt.session_id = $2
	            AND NOT EXISTS (SELECT 1 FROM payment_reconciliations pr WHERE pr.bank_transaction_id = bt.id)
	          ORDER BY bt.transaction_date`
	rows, err := r.db.QueryContext(ctx, query, userID, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.BankTransaction
	for rows.Next() {
		b, err := scanBank(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (r *reconciliationRepository) UpsertPattern(ctx context.Context, p *domain.ReconciliationPattern) error {
	query := `INSERT INTO reconciliation_patterns (user_id, tenant_id, bank_description_pattern, confidence_boost, times_confirmed, last_used_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          ON CONFLICT (user_id, tenant_id, bank_description_pattern)
	          DO UPDATE SET confidence_boost = EXCLUDED.confidence_boost,
	                        times_confirmed = EXCLUDED.times_confirmed,
	                        last_used_at = EXCLUDED.last_used_at
	          RETURNING id`
	if p.LastUsedAt.IsZero() {
		p.LastUsedAt = time.Now().UTC()
	}
	return r.db.QueryRowContext(ctx, query, p.UserID, p.TenantID, p.BankDescriptionPattern,
		p.ConfidenceBoost, p.TimesConfirmed, p.LastUsedAt).Scan(&p.ID)
}
