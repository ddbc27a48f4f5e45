package core

import (
	"reflect"
	"regexp"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	// custom validation tags & texts
	alphaNumUnderTag   = "alphanum_"
	alphaNumUnderText  = "only alphanumeric characters and underscores are allowed"
	alphaNumUnderRegex = regexp.MustCompile(`^[\w\s]+$`)

	dateYMDTag   = "dateymd"
	dateYMDText  = "invalid date format"
	dateYMDRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

	timeHMTag   = "timehm"
	timeHMText  = "invalid time format"
	timeHMRegex = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d$`)

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"
)

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(alphaNumUnderTag, alphaNumUnderValidation)
	RegisterCustomTranslation(validate, translator, alphaNumUnderTag, alphaNumUnderText)

	_ = validate.RegisterValidation(dateYMDTag, dateYMDValidation)
	RegisterCustomTranslation(validate, translator, dateYMDTag, dateYMDText)

	_ = validate.RegisterValidation(timeHMTag, timeHMValidation)
	RegisterCustomTranslation(validate, translator, timeHMTag, timeHMText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Custom Global Validators

// alphaNumUnderValidation only allows alphanumeric characters and underscores.
func alphaNumUnderValidation(fl validator.FieldLevel) bool {
	return alphaNumUnderRegex.MatchString(fl.Field().String())
}

// dateYMDValidation allows calendar dates in YYYY-MM-DD form.
func dateYMDValidation(fl validator.FieldLevel) bool {
	return dateYMDRegex.MatchString(fl.Field().String())
}

// timeHMValidation allows 24h wall-clock times in H:MM or HH:MM form.
func timeHMValidation(fl validator.FieldLevel) bool {
	return timeHMRegex.MatchString(fl.Field().String())
}
