package request

type CreateBookingRequest struct {
	TutorID     *string `json:"tutor_id" validate:"omitempty,uuid"`
	GuideID     *string `json:"guide_id" validate:"omitempty,uuid"`
	ServiceType string  `json:"service_type" validate:"required,oneof=tutoring tour_guiding festival"`
}
