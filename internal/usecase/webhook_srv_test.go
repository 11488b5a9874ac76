package usecase

import (
	"context"
	"errors"
	"testing"

	"marketplace-payments/internal/data/entity"
	"marketplace-payments/internal/provider"

	"github.com/google/uuid"
)

// startProcessing creates a momo transaction, initiates it and returns it in
// processing with the given provider reference.
func startProcessing(t *testing.T, env *testEnv, userID uuid.UUID, externalID string) *entity.Transaction {
	t.Helper()
	ctx := context.Background()

	env.momo.initiateRes = &provider.InitiationResult{ExternalID: externalID}

	txn, err := env.service.Create(ctx, userID, momoCreateRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	initiated, err := env.service.Initiate(ctx, userID, txn.ID)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	return initiated
}

func TestHandleWebhookEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("success confirmation settles the transaction", func(t *testing.T) {
		env := newTestEnv()
		user := env.store.addUser(entity.RoleCustomer)
		txn := startProcessing(t, env, user.ID, "ext-1")

		err := env.webhooks.HandleEvent(ctx, &WebhookEvent{
			Method:     entity.MethodMTNMoMo,
			ExternalID: "ext-1",
			RawStatus:  "SUCCESSFUL",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		env.store.mu.Lock()
		stored := env.store.transactions[txn.ID]
		receipt := env.store.receipts[txn.ID]
		env.store.mu.Unlock()

		if stored.Status != entity.TransactionStatusSuccess {
			t.Errorf("expected success, got %s", stored.Status)
		}
		if !stored.PaidToPlatform {
			t.Error("expected paid_to_platform set")
		}
		if receipt == nil {
			t.Error("expected receipt issued")
		}
	})

	t.Run("replayed confirmation is a no-op with one receipt", func(t *testing.T) {
		env := newTestEnv()
		user := env.store.addUser(entity.RoleCustomer)
		txn := startProcessing(t, env, user.ID, "ext-2")

		event := &WebhookEvent{
			Method:     entity.MethodMTNMoMo,
			ExternalID: "ext-2",
			RawStatus:  "SUCCESSFUL",
		}

		for i := 0; i < 3; i++ {
			if err := env.webhooks.HandleEvent(ctx, event); err != nil {
				t.Fatalf("replay %d: unexpected error: %v", i, err)
			}
		}

		env.store.mu.Lock()
		receipt := env.store.receipts[txn.ID]
		status := env.store.transactions[txn.ID].Status
		env.store.mu.Unlock()

		if status != entity.TransactionStatusSuccess {
			t.Errorf("expected success, got %s", status)
		}
		if receipt == nil {
			t.Fatal("expected exactly one receipt")
		}
	})

	t.Run("conflicting confirmation never leaves a terminal state", func(t *testing.T) {
		env := newTestEnv()
		user := env.store.addUser(entity.RoleCustomer)
		txn := startProcessing(t, env, user.ID, "ext-3")

		if err := env.webhooks.HandleEvent(ctx, &WebhookEvent{
			Method:     entity.MethodMTNMoMo,
			ExternalID: "ext-3",
			RawStatus:  "SUCCESSFUL",
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// A late FAILED must not undo the success.
		if err := env.webhooks.HandleEvent(ctx, &WebhookEvent{
			Method:     entity.MethodMTNMoMo,
			ExternalID: "ext-3",
			RawStatus:  "FAILED",
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		env.store.mu.Lock()
		status := env.store.transactions[txn.ID].Status
		env.store.mu.Unlock()
		if status != entity.TransactionStatusSuccess {
			t.Errorf("expected success preserved, got %s", status)
		}
	})

	t.Run("success confirmation after cancellation leaves cancelled", func(t *testing.T) {
		env := newTestEnv()
		user := env.store.addUser(entity.RoleCustomer)

		txn, err := env.service.Create(ctx, user.ID, momoCreateRequest())
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, err := env.service.Cancel(ctx, user.ID, txn.ID); err != nil {
			t.Fatalf("cancel: %v", err)
		}

		// A cancelled transaction never went to the provider, so the event
		// can only match on our reference.
		if err := env.webhooks.HandleEvent(ctx, &WebhookEvent{
			Method:    entity.MethodMTNMoMo,
			Reference: txn.Reference,
			RawStatus: "SUCCESSFUL",
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		env.store.mu.Lock()
		status := env.store.transactions[txn.ID].Status
		receipt := env.store.receipts[txn.ID]
		env.store.mu.Unlock()
		if status != entity.TransactionStatusCancelled {
			t.Errorf("expected cancelled preserved, got %s", status)
		}
		if receipt != nil {
			t.Error("cancelled transaction must not gain a receipt")
		}
	})

	t.Run("failure confirmation marks the transaction failed", func(t *testing.T) {
		env := newTestEnv()
		user := env.store.addUser(entity.RoleCustomer)
		txn := startProcessing(t, env, user.ID, "ext-4")

		if err := env.webhooks.HandleEvent(ctx, &WebhookEvent{
			Method:     entity.MethodMTNMoMo,
			ExternalID: "ext-4",
			RawStatus:  "FAILED",
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		env.store.mu.Lock()
		status := env.store.transactions[txn.ID].Status
		receipt := env.store.receipts[txn.ID]
		env.store.mu.Unlock()

		if status != entity.TransactionStatusFailed {
			t.Errorf("expected failed, got %s", status)
		}
		if receipt != nil {
			t.Error("failed transaction must not have a receipt")
		}
	})

	t.Run("intermediate status carries no state change", func(t *testing.T) {
		env := newTestEnv()
		user := env.store.addUser(entity.RoleCustomer)
		txn := startProcessing(t, env, user.ID, "ext-5")

		if err := env.webhooks.HandleEvent(ctx, &WebhookEvent{
			Method:     entity.MethodMTNMoMo,
			ExternalID: "ext-5",
			RawStatus:  "PENDING",
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		env.store.mu.Lock()
		status := env.store.transactions[txn.ID].Status
		env.store.mu.Unlock()
		if status != entity.TransactionStatusProcessing {
			t.Errorf("expected processing, got %s", status)
		}
	})

	t.Run("unknown reference returns not found", func(t *testing.T) {
		env := newTestEnv()

		err := env.webhooks.HandleEvent(ctx, &WebhookEvent{
			Method:     entity.MethodMTNMoMo,
			ExternalID: "never-seen",
			RawStatus:  "SUCCESSFUL",
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("storage failure surfaces so the provider retries", func(t *testing.T) {
		env := newTestEnv()
		user := env.store.addUser(entity.RoleCustomer)
		txn := startProcessing(t, env, user.ID, "ext-6")

		env.store.mu.Lock()
		env.store.failSettle = true
		env.store.mu.Unlock()

		err := env.webhooks.HandleEvent(ctx, &WebhookEvent{
			Method:     entity.MethodMTNMoMo,
			ExternalID: "ext-6",
			RawStatus:  "SUCCESSFUL",
		})
		if err == nil {
			t.Fatal("expected error when settlement storage fails")
		}

		// The retry after recovery applies cleanly.
		env.store.mu.Lock()
		env.store.failSettle = false
		env.store.mu.Unlock()

		if err := env.webhooks.HandleEvent(ctx, &WebhookEvent{
			Method:     entity.MethodMTNMoMo,
			ExternalID: "ext-6",
			RawStatus:  "SUCCESSFUL",
		}); err != nil {
			t.Fatalf("retry failed: %v", err)
		}

		env.store.mu.Lock()
		status := env.store.transactions[txn.ID].Status
		env.store.mu.Unlock()
		if status != entity.TransactionStatusSuccess {
			t.Errorf("expected success after retry, got %s", status)
		}
	})

	t.Run("lookup by our reference works for providers that echo it", func(t *testing.T) {
		env := newTestEnv()
		user := env.store.addUser(entity.RoleCustomer)
		txn := startProcessing(t, env, user.ID, "ext-7")

		if err := env.webhooks.HandleEvent(ctx, &WebhookEvent{
			Method:    entity.MethodMTNMoMo,
			Reference: txn.Reference,
			RawStatus: "SUCCESSFUL",
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		env.store.mu.Lock()
		status := env.store.transactions[txn.ID].Status
		env.store.mu.Unlock()
		if status != entity.TransactionStatusSuccess {
			t.Errorf("expected success, got %s", status)
		}
	})
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()

	t.Run("processing transaction adopts the provider verdict", func(t *testing.T) {
		env := newTestEnv()
		user := env.store.addUser(entity.RoleCustomer)
		txn := startProcessing(t, env, user.ID, "ext-10")
		env.momo.statusRes = "SUCCESSFUL"

		reconciled, err := env.webhooks.Reconcile(ctx, txn.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reconciled.Status != entity.TransactionStatusSuccess {
			t.Errorf("expected success, got %s", reconciled.Status)
		}
	})

	t.Run("terminal transaction is returned untouched", func(t *testing.T) {
		env := newTestEnv()
		user := env.store.addUser(entity.RoleCustomer)
		txn := startProcessing(t, env, user.ID, "ext-11")

		if err := env.webhooks.HandleEvent(ctx, &WebhookEvent{
			Method:     entity.MethodMTNMoMo,
			ExternalID: "ext-11",
			RawStatus:  "FAILED",
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// Even if the provider would now say SUCCESSFUL, terminal wins.
		env.momo.statusRes = "SUCCESSFUL"

		reconciled, err := env.webhooks.Reconcile(ctx, txn.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reconciled.Status != entity.TransactionStatusFailed {
			t.Errorf("expected failed preserved, got %s", reconciled.Status)
		}
	})

	t.Run("pending transaction has nothing to reconcile", func(t *testing.T) {
		env := newTestEnv()
		user := env.store.addUser(entity.RoleCustomer)
		txn, _ := env.service.Create(ctx, user.ID, momoCreateRequest())

		_, err := env.webhooks.Reconcile(ctx, txn.ID)
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("provider still in flight leaves processing", func(t *testing.T) {
		env := newTestEnv()
		user := env.store.addUser(entity.RoleCustomer)
		txn := startProcessing(t, env, user.ID, "ext-12")
		env.momo.statusRes = "PENDING"

		reconciled, err := env.webhooks.Reconcile(ctx, txn.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reconciled.Status != entity.TransactionStatusProcessing {
			t.Errorf("expected processing, got %s", reconciled.Status)
		}
	})

	t.Run("unknown transaction returns not found", func(t *testing.T) {
		env := newTestEnv()

		_, err := env.webhooks.Reconcile(ctx, uuid.New())
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})
}
