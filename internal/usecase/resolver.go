package usecase

import (
	"context"
	"fmt"

	"marketplace-payments/internal/data/entity"
	"marketplace-payments/internal/data/repository"

	"go.uber.org/zap"
)

// resolver is the single path every terminal status change goes through,
// whether driven by a synchronous charge, a webhook or a reconcile poll.
// It serializes concurrent resolutions through conditional updates: one
// caller wins, the rest observe no change.
type resolver struct {
	repo              *repository.Repository
	notifier          Notifier
	maxNotifyAttempts int
	log               *zap.Logger
}

// apply moves txn into the terminal status to. It reports whether this call
// performed the change; a false return with nil error means the transaction
// had already been resolved (or the snapshot status went stale), which
// callers treat as a harmless replay.
func (r *resolver) apply(ctx context.Context, txn *entity.Transaction, to entity.TransactionStatus, receiptNote *string) (bool, error) {
	if !to.Terminal() {
		return false, fmt.Errorf("resolver: %s is not a terminal status", to)
	}
	if !entity.CanTransition(txn.Status, to) {
		return false, nil
	}

	var changed bool
	var err error

	switch to {
	case entity.TransactionStatusSuccess:
		// Status flip, receipt and booking flag commit together.
		changed, err = r.repo.Settlement.SettleSuccess(ctx, txn, receiptNote)
	default:
		changed, err = r.repo.Transaction.UpdateStatusIf(ctx, txn.ID, txn.Status, to)
	}

	if err != nil {
		return false, err
	}
	if !changed {
		r.log.Info("Transaction already resolved, skipping",
			zap.String("reference", txn.Reference),
			zap.String("attempted_status", string(to)),
		)
		return false, nil
	}

	txn.Status = to
	if to == entity.TransactionStatusSuccess {
		txn.PaidToPlatform = true
	}

	go notifyWithRetry(r.notifier, txn, r.maxNotifyAttempts, r.log)

	return true, nil
}
