package request

type SelectExperienceRequest struct {
	ExperienceID string `json:"experience_id" validate:"required,uuid"`
}

type SelectDateRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

const (
	TravelerAddAdult    = "add_adult"
	TravelerRemoveAdult = "remove_adult"
	TravelerAddChild    = "add_child"
	TravelerRemoveChild = "remove_child"
)

type TravelerRequest struct {
	Action string `json:"action" validate:"required,oneof=add_adult remove_adult add_child remove_child"`
}

// ContactRequest is stored as typed; the travelers gate validates it.
type ContactRequest struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	SpecialRequests string `json:"special_requests"`
}

// PaymentResultRequest is what the payment UI reports after confirming the
// card with the client secret: the intent id on success, an error otherwise.
type PaymentResultRequest struct {
	PaymentIntentID string        `json:"payment_intent_id" validate:"required_without=Error"`
	Error           *PaymentError `json:"error,omitempty"`
}

type PaymentError struct {
	Type        string `json:"type"`
	Code        string `json:"code"`
	DeclineCode string `json:"decline_code"`
	Message     string `json:"message"`
}

type ResumeRequest struct {
	ResumeToken string `json:"resume_token" validate:"required"`
}
