package land

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// Submission carries the client-supplied registration fields after multipart
// decoding. Field order matters: the first violated rule is the one reported.
type Submission struct {
	Title            string  `validate:"required,min=3,max=100"`
	Type             string  `validate:"required,landtype"`
	ClaimType        string  `validate:"required,claimtype"`
	ExistingRecordID string  `validate:"required"`
	Area             float64 `validate:"required,gt=0"`
	Price            float64 `validate:"gte=0"`
	Location         string  `validate:"required"`
	Description      string  `validate:"omitempty,max=1000"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("landtype", func(fl validator.FieldLevel) bool {
		_, ok := ParseType(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("claimtype", func(fl validator.FieldLevel) bool {
		_, ok := ParseClaimType(fl.Field().String())
		return ok
	})
	return v
}

// ValidationError reports the first violated constraint of a submission.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ValidateSubmission checks the field-level constraints in order and
// short-circuits on the first violation.
func ValidateSubmission(sub Submission) error {
	err := validate.Struct(sub)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	first := verrs[0]
	return &ValidationError{Field: first.Field(), Message: violationMessage(first)}
}

func violationMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "Title":
		if fe.Tag() == "required" {
			return "Land title is required"
		}
		return "Land title must be between 3 and 100 characters"
	case "Type":
		if fe.Tag() == "required" {
			return "Land type is required"
		}
		return "Invalid land type"
	case "ClaimType":
		if fe.Tag() == "required" {
			return "Claim type is required"
		}
		return "Invalid claim type"
	case "ExistingRecordID":
		return "Existing record ID is required"
	case "Area":
		return "Area must be greater than 0"
	case "Price":
		return "Price must be greater than 0"
	case "Location":
		return "Location is required"
	case "Description":
		return "Description must not exceed 1000 characters"
	default:
		return fe.Error()
	}
}
