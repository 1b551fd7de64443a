package student

import (
	"regexp"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/topphysics/core"
)

var (
	phoneTag   = "phone11"
	phoneText  = "{0} must be exactly 11 digits"
	phoneRegex = regexp.MustCompile(`^[0-9]{11}$`)

	parentsPhoneTag  = "nefield"
	parentsPhoneText = "student phone number cannot be the same as parent phone number"
)

// InitValidators registers the student validators on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(phoneTag, phoneValidation)
	core.RegisterCustomTranslation(validate, translator, phoneTag, phoneText)

	core.RegisterCustomTranslation(validate, translator, parentsPhoneTag, parentsPhoneText, true)
}

// phoneValidation only allows phone numbers made of exactly 11 digits (leading zeros kept).
func phoneValidation(fl validator.FieldLevel) bool {
	return phoneRegex.MatchString(fl.Field().String())
}
