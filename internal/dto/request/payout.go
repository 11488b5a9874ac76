package request

type CreatePayoutRequest struct {
	BookingID   string  `json:"booking_id" validate:"required,uuid"`
	RecipientID string  `json:"recipient_id" validate:"required,uuid"`
	Amount      string  `json:"amount" validate:"required"`
	Note        *string `json:"note" validate:"omitempty,max=255"`
}
