package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"propdesk-backend/internal/apperr"
	"propdesk-backend/internal/domain"
	"propdesk-backend/internal/logger"
	"propdesk-backend/internal/metrics"
	"propdesk-backend/internal/reconcile"
	"propdesk-backend/internal/repository"
	"propdesk-backend/internal/storage"
)

type reconciliationService struct {
	repo     repository.ReconciliationRepository
	store    storage.StorageInterface
	edge     EdgeClient
	notifier NotificationService
	maxBytes int64
	now      func() time.Time
}

// NewReconciliationService wires the review workflow. maxBytes caps uploaded
// statements; zero disables the check.
func NewReconciliationService(repo repository.ReconciliationRepository, store storage.StorageInterface, edge EdgeClient, notifier NotificationService, maxBytes int64) ReconciliationService {
	return &reconciliationService{
		repo:     repo,
		store:    store,
		edge:     edge,
		notifier: notifier,
		maxBytes: maxBytes,
		now:      time.Now,
	}
}

var errBankTxNotFound = apperr.WithMessage(apperr.ErrNotFound, "Bank transaction not found")

func observe(action string, err error) {
	metrics.ReviewActions.WithLabelValues(action, metrics.Outcome(err)).Inc()
}

func (s *reconciliationService) setStatus(ctx context.Context, userID, sessionID uuid.UUID, status domain.SessionStatus, errMsg string) error {
	if err := s.repo.UpdateSessionStatus(ctx, userID, sessionID, status, errMsg); err != nil {
		return err
	}
	metrics.ReconciliationSessions.WithLabelValues(string(status)).Inc()
	return nil
}

// StartSession runs the upload pipeline: create, store, parse, match. The
// first failing step aborts the chain and leaves the session failed.
func (s *reconciliationService) StartSession(ctx context.Context, userID uuid.UUID, fileName string, content []byte) (*StartResult, error) {
	logger.EnterMethod("reconciliationService.StartSession", "userID", userID, "fileName", fileName, "size", len(content))

	name := cleanFileName(fileName)
	if name == "" {
		return nil, invalid("File name is required")
	}
	if len(content) == 0 {
		return nil, invalid("Bank statement is empty")
	}
	if s.maxBytes > 0 && int64(len(content)) > s.maxBytes {
		return nil, invalid(fmt.Sprintf("Bank statement exceeds %d MB", s.maxBytes>>20))
	}

	sess := &domain.ReconciliationSession{
		UserID:           userID,
		FileName:         name,
		FileSize:         int64(len(content)),
		ProcessingStatus: domain.SessionStatusUploaded,
	}
	if err := s.repo.CreateSession(ctx, sess); err != nil {
		logger.ExitMethodWithError("reconciliationService.StartSession", err, "step", "create")
		return nil, repoErr(err, apperr.ErrSessionNotFound)
	}
	metrics.ReconciliationSessions.WithLabelValues(string(domain.SessionStatusUploaded)).Inc()

	key := fmt.Sprintf("bank-statements/%s/%s/%s", userID, sess.ID, name)
	if _, err := s.store.Put(ctx, key, "text/csv", bytes.NewReader(content)); err != nil {
		return nil, s.fail(ctx, sess, "upload", fmt.Errorf("failed to store bank statement: %w", err), apperr.ErrInternal)
	}
	if err := s.repo.SetStorageKey(ctx, userID, sess.ID, key); err != nil {
		return nil, s.fail(ctx, sess, "upload", err, apperr.ErrInternal)
	}
	if err := s.setStatus(ctx, userID, sess.ID, domain.SessionStatusProcessing, ""); err != nil {
		return nil, s.fail(ctx, sess, "status", err, apperr.ErrInternal)
	}

	parsed, err := s.edge.ParseBankStatement(ctx, string(content), sess.ID)
	if err != nil {
		return nil, s.fail(ctx, sess, "parse", err, apperr.ErrUpstream)
	}
	matched, err := s.edge.ReconcilePayments(ctx, sess.ID)
	if err != nil {
		return nil, s.fail(ctx, sess, "reconcile", err, apperr.ErrUpstream)
	}

	if err := s.repo.RefreshSessionCounts(ctx, userID, sess.ID); err != nil {
		logger.Warn("Failed to refresh session counts", "sessionID", sess.ID, "error", err)
	}
	if fresh, err := s.repo.GetSession(ctx, userID, sess.ID); err == nil {
		sess = fresh
	} else {
		sess.ProcessingStatus = domain.SessionStatusProcessing
	}

	result := &StartResult{
		Session:          sess,
		TransactionCount: parsed.TransactionCount,
		Summary: domain.MatchSummary{
			AutoMatched:    matched.Summary.AutoMatched,
			ReviewRequired: matched.Summary.ReviewRequired,
			Unmatched:      matched.Summary.Unmatched,
			TotalPayments:  matched.Summary.TotalPayments,
		},
	}
	s.announce(ctx, sess, result.Summary)

	logger.ExitMethod("reconciliationService.StartSession", "sessionID", sess.ID,
		"transactions", parsed.TransactionCount, "autoMatched", result.Summary.AutoMatched)
	return result, nil
}

// fail marks the session failed with cause's message. The update runs even
// when ctx has been cancelled.
func (s *reconciliationService) fail(ctx context.Context, sess *domain.ReconciliationSession, step string, cause error, kind *apperr.AppError) error {
	logger.ExitMethodWithError("reconciliationService.StartSession", cause, "step", step, "sessionID", sess.ID)
	if err := s.setStatus(context.WithoutCancel(ctx), sess.UserID, sess.ID, domain.SessionStatusFailed, cause.Error()); err != nil {
		logger.Error("Failed to mark session failed", "sessionID", sess.ID, "error", err)
	}
	return apperr.Wrap(apperr.WithMessage(kind, cause.Error()), cause)
}

func (s *reconciliationService) announce(ctx context.Context, sess *domain.ReconciliationSession, sum domain.MatchSummary) {
	if s.notifier == nil {
		return
	}
	n := &domain.Notification{
		UserID: sess.UserID,
		Type:   domain.NotificationReconciliation,
		Title:  "Bank statement processed",
		Message: fmt.Sprintf("%s: %d auto-matched, %d need review, %d unmatched",
			sess.FileName, sum.AutoMatched, sum.ReviewRequired, sum.Unmatched),
		Link: "/reconciliation?session=" + sess.ID.String(),
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		logger.Warn("Failed to create reconciliation notification", "sessionID", sess.ID, "error", err)
	}
}

func (s *reconciliationService) getSession(ctx context.Context, userID, sessionID uuid.UUID) (*domain.ReconciliationSession, error) {
	sess, err := s.repo.GetSession(ctx, userID, sessionID)
	if err != nil {
		return nil, repoErr(err, apperr.ErrSessionNotFound)
	}
	return sess, nil
}

func (s *reconciliationService) LoadSession(ctx context.Context, userID, sessionID uuid.UUID, filter reconcile.ViewFilter) (*SessionDetail, error) {
	sess, err := s.getSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	views, err := s.repo.ListViews(ctx, userID, sessionID)
	if err != nil {
		return nil, repoErr(err, apperr.ErrSessionNotFound)
	}

	visible := reconcile.FilterViews(views, filter)
	rows := make([]MatchRow, 0, len(visible))
	for _, v := range visible {
		rows = append(rows, MatchRow{ReconciliationView: v, TenantMismatch: reconcile.ViewHasTenantMismatch(v)})
	}
	mode := reconcile.ModeFor(sess.ProcessingStatus)
	return &SessionDetail{
		Session:  sess,
		Phase:    reconcile.PhaseFor(sess.ProcessingStatus),
		Mode:     mode,
		ReadOnly: mode == reconcile.ModeReadOnly,
		Summary:  reconcile.Summarize(views),
		Matches:  rows,
	}, nil
}

func (s *reconciliationService) ListSessions(ctx context.Context, userID uuid.UUID) ([]domain.ReconciliationSession, error) {
	sessions, err := s.repo.ListSessions(ctx, userID)
	if err != nil {
		return nil, repoErr(err, apperr.ErrSessionNotFound)
	}
	return sessions, nil
}

// Finalize reconciles every auto-matched row not yet reconciled and closes the
// session when nothing is left for review. It can be repeated.
func (s *reconciliationService) Finalize(ctx context.Context, userID, sessionID uuid.UUID) (res *FinalizeResult, err error) {
	logger.EnterMethod("reconciliationService.Finalize", "userID", userID, "sessionID", sessionID)
	defer func() { observe("finalize", err) }()

	sess, err := s.getSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := reconcile.Guard(sess.ProcessingStatus, reconcile.ActionFinalize); err != nil {
		return nil, err
	}
	views, err := s.repo.ListViews(ctx, userID, sessionID)
	if err != nil {
		return nil, repoErr(err, apperr.ErrSessionNotFound)
	}
	recs := make([]domain.PaymentReconciliation, 0, len(views))
	for _, v := range views {
		recs = append(recs, v.PaymentReconciliation)
	}

	plan := reconcile.PlanFinalize(recs)
	if err := s.repo.MarkReconciled(ctx, userID, plan.ToReconcile, s.now()); err != nil {
		logger.ExitMethodWithError("reconciliationService.Finalize", err)
		return nil, repoErr(err, apperr.ErrMatchNotFound)
	}
	if plan.CompleteSession {
		if err := s.setStatus(ctx, userID, sessionID, domain.SessionStatusCompleted, ""); err != nil {
			return nil, repoErr(err, apperr.ErrSessionNotFound)
		}
	}
	if err := s.repo.RefreshSessionCounts(ctx, userID, sessionID); err != nil {
		logger.Warn("Failed to refresh session counts", "sessionID", sessionID, "error", err)
	}
	if fresh, err := s.repo.GetSession(ctx, userID, sessionID); err == nil {
		sess = fresh
	}

	logger.ExitMethod("reconciliationService.Finalize", "sessionID", sessionID,
		"reconciled", len(plan.ToReconcile), "pendingReview", plan.PendingReview, "completed", plan.CompleteSession)
	return &FinalizeResult{
		Reconciled:    len(plan.ToReconcile),
		PendingReview: plan.PendingReview,
		Completed:     plan.CompleteSession,
		Session:       sess,
	}, nil
}

// Terminate discards the session's bank transactions and matches so the same
// statement can be uploaded again. Payments are not touched.
func (s *reconciliationService) Terminate(ctx context.Context, userID, sessionID uuid.UUID) (err error) {
	defer func() { observe("terminate", err) }()

	sess, err := s.getSession(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	if err := reconcile.Guard(sess.ProcessingStatus, reconcile.ActionTerminate); err != nil {
		return err
	}
	if err := s.repo.TerminateSession(ctx, userID, sessionID); err != nil {
		return repoErr(err, apperr.ErrSessionNotFound)
	}
	metrics.ReconciliationSessions.WithLabelValues(string(domain.SessionStatusCancelled)).Inc()
	logger.Info("Reconciliation session terminated", "sessionID", sessionID, "userID", userID)
	return nil
}

func (s *reconciliationService) SaveForLater(ctx context.Context, userID, sessionID uuid.UUID) (err error) {
	defer func() { observe("save", err) }()

	sess, err := s.getSession(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	if err := reconcile.Guard(sess.ProcessingStatus, reconcile.ActionSave); err != nil {
		return err
	}
	if err := s.setStatus(ctx, userID, sessionID, domain.SessionStatusSaved, ""); err != nil {
		return repoErr(err, apperr.ErrSessionNotFound)
	}
	return nil
}

// reviewable loads a match and checks that its session still accepts review.
func (s *reconciliationService) reviewable(ctx context.Context, userID, recID uuid.UUID) (*domain.ReconciliationView, error) {
	v, err := s.repo.GetView(ctx, userID, recID)
	if err != nil {
		return nil, repoErr(err, apperr.ErrMatchNotFound)
	}
	sess, err := s.getSession(ctx, userID, v.SessionID)
	if err != nil {
		return nil, err
	}
	if err := reconcile.Guard(sess.ProcessingStatus, reconcile.ActionReview); err != nil {
		return nil, err
	}
	if v.IsReconciled {
		return nil, apperr.ErrPaymentReconciled
	}
	return v, nil
}

func (s *reconciliationService) stamp(rec *domain.PaymentReconciliation, userID uuid.UUID, status domain.MatchStatus, notes string) {
	now := s.now()
	reviewer := userID
	rec.MatchStatus = status
	rec.ReviewedBy = &reviewer
	rec.ReviewedAt = &now
	rec.ReviewNotes = notes
	rec.UpdatedAt = now
}

// learn upserts the tenant/description pattern. It needs both a tenant id and
// a description; failures are logged only.
func (s *reconciliationService) learn(ctx context.Context, userID uuid.UUID, tenant domain.TenantRef, description string, boost int) {
	if tenant.ID == nil || description == "" {
		return
	}
	p := &domain.ReconciliationPattern{
		UserID:                 userID,
		TenantID:               *tenant.ID,
		BankDescriptionPattern: description,
		ConfidenceBoost:        boost,
		TimesConfirmed:         1,
		LastUsedAt:             s.now(),
	}
	if err := s.repo.UpsertPattern(ctx, p); err != nil {
		logger.Warn("Failed to store reconciliation pattern", "tenantID", *tenant.ID, "error", err)
	}
}

func (s *reconciliationService) confirm(ctx context.Context, userID uuid.UUID, v *domain.ReconciliationView, notes string) error {
	if v.BankTransactionID == nil {
		return invalid("Nothing to confirm: no bank transaction is linked")
	}
	rec := v.PaymentReconciliation
	s.stamp(&rec, userID, domain.MatchStatusConfirmed, notes)
	if err := s.repo.UpdateReview(ctx, &rec); err != nil {
		return repoErr(err, apperr.ErrMatchNotFound)
	}
	desc := ""
	if v.BankTransaction != nil {
		desc = v.BankTransaction.Description
	}
	s.learn(ctx, userID, v.Tenant, desc, domain.ConfirmConfidenceBoost)
	return nil
}

func (s *reconciliationService) reject(ctx context.Context, userID uuid.UUID, v *domain.ReconciliationView, notes string) error {
	rec := v.PaymentReconciliation
	s.stamp(&rec, userID, domain.MatchStatusRejected, notes)
	rec.BankTransactionID = nil
	return repoErr(s.repo.UpdateReview(ctx, &rec), apperr.ErrMatchNotFound)
}

// afterReview refreshes counters and returns the updated match.
func (s *reconciliationService) afterReview(ctx context.Context, userID uuid.UUID, v *domain.ReconciliationView) (*domain.ReconciliationView, error) {
	if err := s.repo.RefreshSessionCounts(ctx, userID, v.SessionID); err != nil {
		logger.Warn("Failed to refresh session counts", "sessionID", v.SessionID, "error", err)
	}
	fresh, err := s.repo.GetView(ctx, userID, v.ID)
	if err != nil {
		return nil, repoErr(err, apperr.ErrMatchNotFound)
	}
	return fresh, nil
}

func (s *reconciliationService) Confirm(ctx context.Context, userID, recID uuid.UUID, notes string) (view *domain.ReconciliationView, err error) {
	defer func() { observe("confirm", err) }()

	v, err := s.reviewable(ctx, userID, recID)
	if err != nil {
		return nil, err
	}
	if err := s.confirm(ctx, userID, v, notes); err != nil {
		return nil, err
	}
	return s.afterReview(ctx, userID, v)
}

func (s *reconciliationService) Reject(ctx context.Context, userID, recID uuid.UUID, notes string) (view *domain.ReconciliationView, err error) {
	defer func() { observe("reject", err) }()

	v, err := s.reviewable(ctx, userID, recID)
	if err != nil {
		return nil, err
	}
	if err := s.reject(ctx, userID, v, notes); err != nil {
		return nil, err
	}
	return s.afterReview(ctx, userID, v)
}

// ManualLink attaches a bank transaction from the session's unused set.
func (s *reconciliationService) ManualLink(ctx context.Context, userID, recID, bankTxID uuid.UUID, notes string) (view *domain.ReconciliationView, err error) {
	defer func() { observe("manual_link", err) }()

	v, err := s.reviewable(ctx, userID, recID)
	if err != nil {
		return nil, err
	}
	bank, err := s.repo.GetBankTransaction(ctx, userID, bankTxID)
	if err != nil {
		return nil, repoErr(err, errBankTxNotFound)
	}
	if bank.SessionID != v.SessionID {
		return nil, invalid("Bank transaction belongs to another session")
	}
	if v.BankTransactionID == nil || *v.BankTransactionID != bankTxID {
		unused, err := s.repo.ListUnusedBankTransactions(ctx, userID, v.SessionID)
		if err != nil {
			return nil, repoErr(err, apperr.ErrSessionNotFound)
		}
		if !containsBankTx(unused, bankTxID) {
			return nil, apperr.ErrBankTransactionInUse
		}
	}

	rec := v.PaymentReconciliation
	s.stamp(&rec, userID, domain.MatchStatusManuallyLinked, notes)
	linked := bankTxID
	rec.BankTransactionID = &linked
	rec.ConfidenceScore = domain.ManualLinkConfidence
	if err := s.repo.UpdateReview(ctx, &rec); err != nil {
		// a concurrent link took the bank line after the unused check
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Wrap(apperr.ErrBankTransactionInUse, err)
		}
		return nil, repoErr(err, apperr.ErrMatchNotFound)
	}
	s.learn(ctx, userID, v.Tenant, bank.Description, domain.ManualLinkConfidenceBoost)
	return s.afterReview(ctx, userID, v)
}

func containsBankTx(txs []domain.BankTransaction, id uuid.UUID) bool {
	for _, tx := range txs {
		if tx.ID == id {
			return true
		}
	}
	return false
}

func (s *reconciliationService) BulkConfirm(ctx context.Context, userID, sessionID uuid.UUID, sel BulkSelection, notes string) (*BulkResult, error) {
	return s.bulk(ctx, "bulk_confirm", userID, sessionID, sel, func(v *domain.ReconciliationView) error {
		return s.confirm(ctx, userID, v, notes)
	})
}

func (s *reconciliationService) BulkReject(ctx context.Context, userID, sessionID uuid.UUID, sel BulkSelection, notes string) (*BulkResult, error) {
	return s.bulk(ctx, "bulk_reject", userID, sessionID, sel, func(v *domain.ReconciliationView) error {
		return s.reject(ctx, userID, v, notes)
	})
}

// bulk applies fn to each selected match in order. The selection is scoped to
// the rows visible under the caller's tab and search. A failing item is logged
// and counted and the rest still run; only the counts are returned.
func (s *reconciliationService) bulk(ctx context.Context, action string, userID, sessionID uuid.UUID, sel BulkSelection, fn func(v *domain.ReconciliationView) error) (res *BulkResult, err error) {
	logger.EnterMethod("reconciliationService."+action, "userID", userID, "sessionID", sessionID, "count", len(sel.IDs), "all", sel.All)
	defer func() { observe(action, err) }()

	sess, err := s.getSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := reconcile.Guard(sess.ProcessingStatus, reconcile.ActionReview); err != nil {
		return nil, err
	}
	views, err := s.repo.ListViews(ctx, userID, sessionID)
	if err != nil {
		return nil, repoErr(err, apperr.ErrSessionNotFound)
	}
	visible := reconcile.FilterViews(views, sel.Filter)
	byID := make(map[uuid.UUID]*domain.ReconciliationView, len(visible))
	for i := range visible {
		byID[visible[i].ID] = &visible[i]
	}

	selection := reconcile.NewSelection(sel.IDs...)
	if sel.All {
		selection = reconcile.NewSelection()
		selection.ToggleAll(reconcile.VisibleIDs(visible))
	}
	requested := selection.Len()
	selection.ScopeTo(reconcile.VisibleIDs(visible))
	res = &BulkResult{Requested: requested, OutOfView: requested - selection.Len()}
	if res.OutOfView > 0 {
		logger.Warn("Bulk review dropped rows outside the current view", "action", action, "sessionID", sessionID, "dropped", res.OutOfView)
	}

	for _, id := range selection.IDs() {
		if err := bulkItem(byID[id], fn); err != nil {
			res.Failed++
			logger.Warn("Bulk review item failed", "action", action, "reconciliationID", id, "error", err)
			continue
		}
		res.Succeeded++
	}

	if res.Succeeded > 0 {
		if err := s.repo.RefreshSessionCounts(ctx, userID, sessionID); err != nil {
			logger.Warn("Failed to refresh session counts", "sessionID", sessionID, "error", err)
		}
	}
	logger.ExitMethod("reconciliationService."+action, "succeeded", res.Succeeded, "failed", res.Failed, "outOfView", res.OutOfView)
	return res, nil
}

func bulkItem(v *domain.ReconciliationView, fn func(v *domain.ReconciliationView) error) error {
	if v.IsReconciled {
		return apperr.ErrPaymentReconciled
	}
	return fn(v)
}

func (s *reconciliationService) UnusedBankTransactions(ctx context.Context, userID, sessionID uuid.UUID) ([]domain.BankTransaction, error) {
	if _, err := s.getSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	txs, err := s.repo.ListUnusedBankTransactions(ctx, userID, sessionID)
	if err != nil {
		return nil, repoErr(err, apperr.ErrSessionNotFound)
	}
	return txs, nil
}

func (s *reconciliationService) Explain(ctx context.Context, userID, recID uuid.UUID) (*ExplainResult, error) {
	v, err := s.repo.GetView(ctx, userID, recID)
	if err != nil {
		return nil, repoErr(err, apperr.ErrMatchNotFound)
	}
	return &ExplainResult{
		Explanation:    reconcile.Explain(reconcile.InputFromView(*v)),
		TenantMismatch: reconcile.ViewHasTenantMismatch(*v),
	}, nil
}
