package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type signup struct {
	Name  string `validate:"required,min=2"`
	Email string `validate:"required,email"`
	Kind  string `validate:"oneof=tour guide"`
}

func TestStruct(t *testing.T) {
	assert.Nil(t, Struct(signup{Name: "Amina", Email: "amina@example.com", Kind: "tour"}))

	errs := Struct(signup{Name: "A", Email: "nope", Kind: "cruise"})
	assert.Equal(t, map[string]string{
		"Name":  "Minimum length is 2",
		"Email": "Invalid email format",
		"Kind":  "Must be one of: tour, guide",
	}, errs)
}

func TestFormat(t *testing.T) {
	got := Format(map[string]string{
		"Phone": "This field is required",
		"Email": "Invalid email format",
	})
	assert.Equal(t, "Email: Invalid email format; Phone: This field is required", got)
}
