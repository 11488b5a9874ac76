package entity

import (
	"github.com/google/uuid"
)

type ServiceType string

const (
	ServiceTutoring    ServiceType = "tutoring"
	ServiceTourGuiding ServiceType = "tour_guiding"
	ServiceFestival    ServiceType = "festival"
)

// Booking is a learner/visitor engagement of a tutor or guide. The two
// settlement flags are independent: PaidToPlatform is flipped when the
// client's transaction succeeds, PaidToProvider when an administrator pays
// out the tutor/guide.
type Booking struct {
	Base
	UserID         uuid.UUID   `db:"user_id"`
	TutorID        *uuid.UUID  `db:"tutor_id"`
	GuideID        *uuid.UUID  `db:"guide_id"`
	ServiceType    ServiceType `db:"service_type"`
	PaidToPlatform bool        `db:"paid_to_platform"`
	PaidToProvider bool        `db:"paid_to_provider"`
}
