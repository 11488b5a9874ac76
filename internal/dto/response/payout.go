package response

import (
	"time"

	"marketplace-payments/internal/data/entity"
)

type PayoutResponse struct {
	ID          string    `json:"id"`
	RecipientID string    `json:"recipient_id"`
	Amount      string    `json:"amount"`
	Status      string    `json:"status"`
	BookingID   string    `json:"booking_id"`
	PaidByAdmin *string   `json:"paid_by_admin,omitempty"`
	CreatedBy   string    `json:"created_by"`
	Note        *string   `json:"note,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewPayoutResponse(payout *entity.Payout) PayoutResponse {
	resp := PayoutResponse{
		ID:          payout.ID.String(),
		RecipientID: payout.RecipientID.String(),
		Amount:      payout.Amount.String(),
		Status:      string(payout.Status),
		BookingID:   payout.BookingID.String(),
		CreatedBy:   payout.CreatedBy.String(),
		Note:        payout.Note,
		CreatedAt:   payout.CreatedAt,
		UpdatedAt:   payout.UpdatedAt,
	}
	if payout.PaidByAdmin != nil {
		id := payout.PaidByAdmin.String()
		resp.PaidByAdmin = &id
	}
	return resp
}

func NewPayoutListResponse(payouts []*entity.Payout) []PayoutResponse {
	responses := make([]PayoutResponse, 0, len(payouts))
	for _, payout := range payouts {
		responses = append(responses, NewPayoutResponse(payout))
	}
	return responses
}
