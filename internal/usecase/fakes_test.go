package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"marketplace-payments/internal/data/entity"
	"marketplace-payments/internal/data/repository"
	"marketplace-payments/internal/provider"

	"github.com/google/uuid"
)

// In-memory repository fakes. They mirror the conditional-update semantics
// of the SQL layer so the services' concurrency behavior is observable in
// tests.

type fakeStore struct {
	mu           sync.Mutex
	users        map[uuid.UUID]*entity.User
	sessions     map[uuid.UUID]*entity.Session
	methods      map[uuid.UUID]*entity.PaymentMethod
	transactions map[uuid.UUID]*entity.Transaction
	receipts     map[uuid.UUID]*entity.Receipt // keyed by transaction id
	bookings     map[uuid.UUID]*entity.Booking
	payouts      map[uuid.UUID]*entity.Payout

	failSettle bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:        make(map[uuid.UUID]*entity.User),
		sessions:     make(map[uuid.UUID]*entity.Session),
		methods:      make(map[uuid.UUID]*entity.PaymentMethod),
		transactions: make(map[uuid.UUID]*entity.Transaction),
		receipts:     make(map[uuid.UUID]*entity.Receipt),
		bookings:     make(map[uuid.UUID]*entity.Booking),
		payouts:      make(map[uuid.UUID]*entity.Payout),
	}
}

func (s *fakeStore) repository() *repository.Repository {
	return &repository.Repository{
		User:          &fakeUserRepo{s},
		Session:       &fakeSessionRepo{s},
		PaymentMethod: &fakeMethodRepo{s},
		Transaction:   &fakeTransactionRepo{s},
		Receipt:       &fakeReceiptRepo{s},
		Booking:       &fakeBookingRepo{s},
		Payout:        &fakePayoutRepo{s},
		Settlement:    &fakeSettlementRepo{s},
	}
}

func (s *fakeStore) addMethod(name entity.MethodName, active bool) *entity.PaymentMethod {
	s.mu.Lock()
	defer s.mu.Unlock()
	method := &entity.PaymentMethod{Name: name, IsActive: active}
	method.ID = uuid.New()
	s.methods[method.ID] = method
	return method
}

func (s *fakeStore) addUser(role entity.UserRole) *entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := &entity.User{
		Username: "user-" + uuid.New().String()[:8],
		Email:    uuid.New().String()[:8] + "@example.test",
		Role:     role,
		IsActive: true,
	}
	user.ID = uuid.New()
	s.users[user.ID] = user
	return user
}

func (s *fakeStore) addBooking(userID uuid.UUID) *entity.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	providerID := uuid.New()
	booking := &entity.Booking{
		UserID:      userID,
		TutorID:     &providerID,
		ServiceType: entity.ServiceTutoring,
	}
	booking.ID = uuid.New()
	s.bookings[booking.ID] = booking
	return booking
}

type fakeUserRepo struct{ s *fakeStore }

func (r *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.users[id], nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, user := range r.s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, user := range r.s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, nil
}

type fakeSessionRepo struct{ s *fakeStore }

func (r *fakeSessionRepo) Create(_ context.Context, session *entity.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.sessions[session.Token] = session
	return nil
}

func (r *fakeSessionRepo) FindValidSession(_ context.Context, token string) (*entity.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	parsed, err := uuid.Parse(token)
	if err != nil {
		return nil, nil
	}
	session := r.s.sessions[parsed]
	if session == nil || session.RevokedAt != nil || session.ExpiresAt.Before(time.Now()) {
		return nil, nil
	}
	return session, nil
}

func (r *fakeSessionRepo) Revoke(_ context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	parsed, err := uuid.Parse(token)
	if err != nil {
		return errors.New("session not found or already revoked")
	}
	session := r.s.sessions[parsed]
	if session == nil || session.RevokedAt != nil {
		return errors.New("session not found or already revoked")
	}
	now := time.Now()
	session.RevokedAt = &now
	return nil
}

func (r *fakeSessionRepo) RevokeAllUserSessions(_ context.Context, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	for _, session := range r.s.sessions {
		if session.UserID == userID && session.RevokedAt == nil {
			session.RevokedAt = &now
		}
	}
	return nil
}

type fakeMethodRepo struct{ s *fakeStore }

func (r *fakeMethodRepo) Create(_ context.Context, method *entity.PaymentMethod) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.methods[method.ID] = method
	return nil
}

func (r *fakeMethodRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.PaymentMethod, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.methods[id], nil
}

func (r *fakeMethodRepo) FindByName(_ context.Context, name entity.MethodName) (*entity.PaymentMethod, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, method := range r.s.methods {
		if method.Name == name {
			return method, nil
		}
	}
	return nil, nil
}

func (r *fakeMethodRepo) FindAllActive(_ context.Context) ([]*entity.PaymentMethod, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var methods []*entity.PaymentMethod
	for _, method := range r.s.methods {
		if method.IsActive {
			methods = append(methods, method)
		}
	}
	return methods, nil
}

type fakeTransactionRepo struct{ s *fakeStore }

func (r *fakeTransactionRepo) Create(_ context.Context, txn *entity.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	copied := *txn
	r.s.transactions[txn.ID] = &copied
	return nil
}

func (r *fakeTransactionRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	txn := r.s.transactions[id]
	if txn == nil {
		return nil, nil
	}
	copied := *txn
	return &copied, nil
}

func (r *fakeTransactionRepo) FindByReference(_ context.Context, reference string) (*entity.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, txn := range r.s.transactions {
		if txn.Reference == reference {
			copied := *txn
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeTransactionRepo) FindByExternalID(_ context.Context, externalID string) (*entity.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, txn := range r.s.transactions {
		if txn.ExternalID != nil && *txn.ExternalID == externalID {
			copied := *txn
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeTransactionRepo) FindByUserID(_ context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var txns []*entity.Transaction
	for _, txn := range r.s.transactions {
		if txn.UserID == userID {
			copied := *txn
			txns = append(txns, &copied)
		}
	}
	return txns, nil
}

func (r *fakeTransactionRepo) CountByUserID(_ context.Context, userID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var total int64
	for _, txn := range r.s.transactions {
		if txn.UserID == userID {
			total++
		}
	}
	return total, nil
}

func (r *fakeTransactionRepo) FindAll(_ context.Context, limit, offset int) ([]*entity.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var txns []*entity.Transaction
	for _, txn := range r.s.transactions {
		copied := *txn
		txns = append(txns, &copied)
	}
	return txns, nil
}

func (r *fakeTransactionRepo) CountAll(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.transactions)), nil
}

func (r *fakeTransactionRepo) SetExternalID(_ context.Context, id uuid.UUID, externalID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	txn := r.s.transactions[id]
	if txn == nil {
		return errors.New("transaction not found")
	}
	txn.ExternalID = &externalID
	return nil
}

func (r *fakeTransactionRepo) UpdateStatusIf(_ context.Context, id uuid.UUID, from, to entity.TransactionStatus) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	txn := r.s.transactions[id]
	if txn == nil || txn.Status != from {
		return false, nil
	}
	txn.Status = to
	return true, nil
}

type fakeReceiptRepo struct{ s *fakeStore }

func (r *fakeReceiptRepo) FindByTransactionID(_ context.Context, transactionID uuid.UUID) (*entity.Receipt, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.receipts[transactionID], nil
}

func (r *fakeReceiptRepo) CountByTransactionID(_ context.Context, transactionID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.receipts[transactionID] != nil {
		return 1, nil
	}
	return 0, nil
}

type fakeBookingRepo struct{ s *fakeStore }

func (r *fakeBookingRepo) Create(_ context.Context, booking *entity.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	copied := *booking
	r.s.bookings[booking.ID] = &copied
	return nil
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	booking := r.s.bookings[id]
	if booking == nil {
		return nil, nil
	}
	copied := *booking
	return &copied, nil
}

func (r *fakeBookingRepo) FindByUserID(_ context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var bookings []*entity.Booking
	for _, booking := range r.s.bookings {
		if booking.UserID == userID {
			copied := *booking
			bookings = append(bookings, &copied)
		}
	}
	return bookings, nil
}

func (r *fakeBookingRepo) CountByUserID(_ context.Context, userID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var total int64
	for _, booking := range r.s.bookings {
		if booking.UserID == userID {
			total++
		}
	}
	return total, nil
}

type fakePayoutRepo struct{ s *fakeStore }

func (r *fakePayoutRepo) Create(_ context.Context, payout *entity.Payout) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	copied := *payout
	r.s.payouts[payout.ID] = &copied
	return nil
}

func (r *fakePayoutRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Payout, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	payout := r.s.payouts[id]
	if payout == nil {
		return nil, nil
	}
	copied := *payout
	return &copied, nil
}

func (r *fakePayoutRepo) FindByUserID(_ context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Payout, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var payouts []*entity.Payout
	for _, payout := range r.s.payouts {
		if payout.RecipientID == userID || payout.CreatedBy == userID {
			copied := *payout
			payouts = append(payouts, &copied)
		}
	}
	return payouts, nil
}

func (r *fakePayoutRepo) CountByUserID(_ context.Context, userID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var total int64
	for _, payout := range r.s.payouts {
		if payout.RecipientID == userID || payout.CreatedBy == userID {
			total++
		}
	}
	return total, nil
}

func (r *fakePayoutRepo) FindAll(_ context.Context, limit, offset int) ([]*entity.Payout, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var payouts []*entity.Payout
	for _, payout := range r.s.payouts {
		copied := *payout
		payouts = append(payouts, &copied)
	}
	return payouts, nil
}

func (r *fakePayoutRepo) CountAll(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.payouts)), nil
}

type fakeSettlementRepo struct{ s *fakeStore }

func (r *fakeSettlementRepo) SettleSuccess(_ context.Context, txn *entity.Transaction, receiptNote *string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.failSettle {
		return false, errors.New("settlement storage failure")
	}

	stored := r.s.transactions[txn.ID]
	if stored == nil {
		return false, nil
	}
	if stored.Status != entity.TransactionStatusPending && stored.Status != entity.TransactionStatusProcessing {
		return false, nil
	}

	stored.Status = entity.TransactionStatusSuccess
	stored.PaidToPlatform = true

	if r.s.receipts[txn.ID] == nil {
		r.s.receipts[txn.ID] = &entity.Receipt{
			ID:            uuid.New(),
			TransactionID: txn.ID,
			IssuedAt:      time.Now(),
			Note:          receiptNote,
		}
	}

	if stored.RelatedKind != nil && *stored.RelatedKind == entity.RelatedBooking && stored.RelatedID != nil {
		if booking := r.s.bookings[*stored.RelatedID]; booking != nil {
			booking.PaidToPlatform = true
		}
	}

	return true, nil
}

func (r *fakeSettlementRepo) CreatePaidPayout(_ context.Context, payout *entity.Payout) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	copied := *payout
	r.s.payouts[payout.ID] = &copied
	if booking := r.s.bookings[payout.BookingID]; booking != nil {
		booking.PaidToProvider = true
	}
	return nil
}

func (r *fakeSettlementRepo) MarkPayoutPaid(_ context.Context, payoutID, adminID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	payout := r.s.payouts[payoutID]
	if payout == nil || payout.Status != entity.PayoutStatusPending {
		return false, nil
	}
	payout.Status = entity.PayoutStatusPaid
	payout.PaidByAdmin = &adminID
	if booking := r.s.bookings[payout.BookingID]; booking != nil {
		booking.PaidToProvider = true
	}
	return true, nil
}

// fakeAdapter scripts provider responses for one method.
type fakeAdapter struct {
	name entity.MethodName

	mu            sync.Mutex
	initiateCalls int
	initiateRes   *provider.InitiationResult
	initiateErr   error
	statusRes     string
	statusErr     error
}

func (a *fakeAdapter) Name() entity.MethodName { return a.name }

func (a *fakeAdapter) Initiate(_ context.Context, _ *entity.Transaction) (*provider.InitiationResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.initiateCalls++
	if a.initiateErr != nil {
		return nil, a.initiateErr
	}
	return a.initiateRes, nil
}

func (a *fakeAdapter) CheckStatus(_ context.Context, _ *entity.Transaction) (string, error) {
	if a.statusErr != nil {
		return "", a.statusErr
	}
	return a.statusRes, nil
}

func (a *fakeAdapter) calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.initiateCalls
}

// NormalizeStatus mirrors the mobile money vocabulary, which is enough for
// the scripted raw statuses the tests feed through.
func (a *fakeAdapter) NormalizeStatus(providerStatus string) entity.TransactionStatus {
	switch providerStatus {
	case "SUCCESSFUL", "successful":
		return entity.TransactionStatusSuccess
	case "FAILED", "failed":
		return entity.TransactionStatusFailed
	case "CANCELLED":
		return entity.TransactionStatusCancelled
	default:
		return entity.TransactionStatusProcessing
	}
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []entity.TransactionStatus
	err   error
}

func (n *fakeNotifier) NotifyStatusChange(txn *entity.Transaction) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, txn.Status)
	return n.err
}
