package entity

type ExperienceType string

const (
	ExperienceTour          ExperienceType = "tour"
	ExperienceAccommodation ExperienceType = "accommodation"
	ExperienceGuide         ExperienceType = "guide"
)

// Experience is a bookable catalog item. UnitPrice is per adult per day.
type Experience struct {
	Base
	Type        ExperienceType `db:"type"`
	Title       string         `db:"title"`
	Description *string        `db:"description"`
	Location    string         `db:"location"`
	UnitPrice   float64        `db:"unit_price"`
	ImageRef    *string        `db:"image_ref"`
	IsActive    bool           `db:"is_active"`
}
