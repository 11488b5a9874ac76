package response

import (
	"time"

	"marketplace-payments/internal/data/entity"
)

type BookingResponse struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	TutorID        *string   `json:"tutor_id,omitempty"`
	GuideID        *string   `json:"guide_id,omitempty"`
	ServiceType    string    `json:"service_type"`
	PaidToPlatform bool      `json:"paid_to_platform"`
	PaidToProvider bool      `json:"paid_to_provider"`
	CreatedAt      time.Time `json:"created_at"`
}

func NewBookingResponse(booking *entity.Booking) BookingResponse {
	resp := BookingResponse{
		ID:             booking.ID.String(),
		UserID:         booking.UserID.String(),
		ServiceType:    string(booking.ServiceType),
		PaidToPlatform: booking.PaidToPlatform,
		PaidToProvider: booking.PaidToProvider,
		CreatedAt:      booking.CreatedAt,
	}
	if booking.TutorID != nil {
		id := booking.TutorID.String()
		resp.TutorID = &id
	}
	if booking.GuideID != nil {
		id := booking.GuideID.String()
		resp.GuideID = &id
	}
	return resp
}

func NewBookingListResponse(bookings []*entity.Booking) []BookingResponse {
	responses := make([]BookingResponse, 0, len(bookings))
	for _, booking := range bookings {
		responses = append(responses, NewBookingResponse(booking))
	}
	return responses
}
