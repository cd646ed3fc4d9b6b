package wizard

// Step is a wizard state. Steps are traversed in the order below.
type Step string

const (
	StepExperience   Step = "experience"
	StepDates        Step = "dates"
	StepTravelers    Step = "travelers"
	StepSummary      Step = "summary"
	StepPayment      Step = "payment"
	StepConfirmation Step = "confirmation"
)

var stepOrder = []Step{
	StepExperience,
	StepDates,
	StepTravelers,
	StepSummary,
	StepPayment,
	StepConfirmation,
}

func (s Step) index() int {
	for i, step := range stepOrder {
		if step == s {
			return i
		}
	}
	return -1
}

// Steps returns the wizard steps in order.
func Steps() []Step {
	out := make([]Step, len(stepOrder))
	copy(out, stepOrder)
	return out
}

func (s Step) Valid() bool {
	return s.index() >= 0
}

func (s Step) previous() (Step, bool) {
	i := s.index()
	if i <= 0 {
		return s, false
	}
	return stepOrder[i-1], true
}

// ExperienceType classifies catalog items that can be booked.
type ExperienceType string

const (
	ExperienceTour          ExperienceType = "tour"
	ExperienceAccommodation ExperienceType = "accommodation"
	ExperienceGuide         ExperienceType = "guide"
)

func (t ExperienceType) Valid() bool {
	switch t {
	case ExperienceTour, ExperienceAccommodation, ExperienceGuide:
		return true
	}
	return false
}
