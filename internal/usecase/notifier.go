package usecase

import (
	"time"

	"marketplace-payments/internal/data/entity"

	"go.uber.org/zap"
)

// Notifier is told about every transaction status change so the owner can
// be informed out of band. Delivery is best effort; a notification failure
// never rolls back the status change it reports.
type Notifier interface {
	NotifyStatusChange(txn *entity.Transaction) error
}

// LogNotifier writes status changes to the log. It stands in until a real
// push/SMS channel is wired.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log.With(zap.String("component", "notifier"))}
}

func (n *LogNotifier) NotifyStatusChange(txn *entity.Transaction) error {
	n.log.Info("Transaction status changed",
		zap.String("transaction_id", txn.ID.String()),
		zap.String("reference", txn.Reference),
		zap.String("user_id", txn.UserID.String()),
		zap.String("status", string(txn.Status)),
	)
	return nil
}

// notifyWithRetry delivers a status-change notification, retrying with an
// increasing delay up to maxAttempts. Runs on the caller's goroutine; call
// it with go.
func notifyWithRetry(notifier Notifier, txn *entity.Transaction, maxAttempts int, log *zap.Logger) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := notifier.NotifyStatusChange(txn)
		if err == nil {
			return
		}

		log.Warn("Status notification failed",
			zap.Error(err),
			zap.String("reference", txn.Reference),
			zap.Int("attempt", attempt),
		)

		if attempt < maxAttempts {
			time.Sleep(time.Duration(attempt) * time.Second)
		}
	}

	log.Error("Status notification abandoned",
		zap.String("reference", txn.Reference),
		zap.Int("attempts", maxAttempts),
	)
}
