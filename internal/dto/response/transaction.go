package response

import (
	"time"

	"marketplace-payments/internal/data/entity"
)

type TransactionResponse struct {
	ID             string            `json:"id"`
	UserID         string            `json:"user_id"`
	MethodID       string            `json:"method_id"`
	Amount         string            `json:"amount"`
	Currency       string            `json:"currency"`
	Status         string            `json:"status"`
	Reference      string            `json:"reference"`
	ExternalID     *string           `json:"external_id,omitempty"`
	Purpose        string            `json:"purpose"`
	Description    string            `json:"description,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	RelatedKind    *string           `json:"related_kind,omitempty"`
	RelatedID      *string           `json:"related_id,omitempty"`
	PaidToPlatform bool              `json:"paid_to_platform"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

func NewTransactionResponse(txn *entity.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:             txn.ID.String(),
		UserID:         txn.UserID.String(),
		MethodID:       txn.MethodID.String(),
		Amount:         txn.Amount.String(),
		Currency:       txn.Currency,
		Status:         string(txn.Status),
		Reference:      txn.Reference,
		ExternalID:     txn.ExternalID,
		Purpose:        string(txn.Purpose),
		Description:    txn.Description,
		Metadata:       txn.Metadata,
		PaidToPlatform: txn.PaidToPlatform,
		CreatedAt:      txn.CreatedAt,
		UpdatedAt:      txn.UpdatedAt,
	}
	if txn.RelatedKind != nil {
		kind := string(*txn.RelatedKind)
		resp.RelatedKind = &kind
	}
	if txn.RelatedID != nil {
		id := txn.RelatedID.String()
		resp.RelatedID = &id
	}
	return resp
}

func NewTransactionListResponse(txns []*entity.Transaction) []TransactionResponse {
	responses := make([]TransactionResponse, 0, len(txns))
	for _, txn := range txns {
		responses = append(responses, NewTransactionResponse(txn))
	}
	return responses
}

type ReceiptResponse struct {
	ID            string    `json:"id"`
	TransactionID string    `json:"transaction_id"`
	IssuedAt      time.Time `json:"issued_at"`
	Document      *string   `json:"document,omitempty"`
	Note          *string   `json:"note,omitempty"`
}

func NewReceiptResponse(receipt *entity.Receipt) ReceiptResponse {
	return ReceiptResponse{
		ID:            receipt.ID.String(),
		TransactionID: receipt.TransactionID.String(),
		IssuedAt:      receipt.IssuedAt,
		Document:      receipt.Document,
		Note:          receipt.Note,
	}
}

type PaymentMethodResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

func NewPaymentMethodListResponse(methods []*entity.PaymentMethod) []PaymentMethodResponse {
	responses := make([]PaymentMethodResponse, 0, len(methods))
	for _, method := range methods {
		responses = append(responses, PaymentMethodResponse{
			ID:       method.ID.String(),
			Name:     string(method.Name),
			IsActive: method.IsActive,
		})
	}
	return responses
}
