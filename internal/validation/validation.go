// Package validation wires go-playground/validator for the calendar records
// that are checked before every write. Failures come back bound to a field
// name so the surrounding UI can render them next to the offending input.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/campusops/assessment-hub/internal/domain/calendar"
	"github.com/campusops/assessment-hub/internal/domain/offer"
	"github.com/campusops/assessment-hub/internal/domain/shared"
)

// custom validation tags & texts
const (
	chronologyTag  = "chronology"
	chronologyText = "start date must not be after end date"

	withinParentTag  = "within_parent"
	withinParentText = "date must lie within the parent academic calendar"

	requiredTag  = "required"
	requiredText = "this field is required"
)

// FieldError is a single validation failure bound to a field name.
type FieldError struct {
	Field   string
	Message string
	Kind    error
}

// FieldErrors aggregates all failures of one record.
type FieldErrors []FieldError

// Error implements the error interface.
func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return strings.Join(parts, "; ")
}

// Is matches when any contained failure has the target kind. Keeps
// errors.Is(err, shared.ErrChronologyViolation) working for callers.
func (e FieldErrors) Is(target error) bool {
	if target == shared.ErrValidation {
		return true
	}
	for _, fe := range e {
		if fe.Kind != nil && errors.Is(fe.Kind, target) {
			return true
		}
	}
	return false
}

// Validator validates calendar records before persistence.
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

// New builds a validator with the calendar rules registered.
func New() *Validator {
	validate := validator.New()

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, trans)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerTranslation(validate, trans, requiredTag, requiredText, true)
	registerTranslation(validate, trans, chronologyTag, chronologyText, false)
	registerTranslation(validate, trans, withinParentTag, withinParentText, false)

	validate.RegisterStructValidation(academicCalendarRules, calendar.AcademicCalendar{})
	validate.RegisterStructValidation(offerYearCalendarRules, offer.YearCalendar{})

	return &Validator{validate: validate, trans: trans}
}

// Struct validates a record and returns FieldErrors on failure.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fieldErrs := make(FieldErrors, 0, len(verrs))
	for _, fe := range verrs {
		fieldErrs = append(fieldErrs, FieldError{
			Field:   fe.Field(),
			Message: fe.Translate(v.trans),
			Kind:    kindForFailure(fe),
		})
	}
	return fieldErrs
}

// academicCalendarRules enforces chronology on an academic calendar. The
// mandatory-date rule rides on the `required` field tags.
func academicCalendarRules(sl validator.StructLevel) {
	cal := sl.Current().Interface().(calendar.AcademicCalendar)
	if cal.StartDate != nil && cal.EndDate != nil && cal.StartDate.After(*cal.EndDate) {
		sl.ReportError(cal.EndDate, "end_date", "EndDate", chronologyTag, "")
	}
}

// offerYearCalendarRules enforces chronology and containment within the
// parent academic calendar.
func offerYearCalendarRules(sl validator.StructLevel) {
	oyc := sl.Current().Interface().(offer.YearCalendar)

	if oyc.StartDate != nil && oyc.EndDate != nil && oyc.StartDate.After(*oyc.EndDate) {
		sl.ReportError(oyc.EndDate, "end_date", "EndDate", chronologyTag, "")
	}

	if oyc.AcademicCalendar == nil {
		return
	}
	if oyc.StartDate != nil && !oyc.AcademicCalendar.ContainsDate(*oyc.StartDate) {
		sl.ReportError(oyc.StartDate, "start_date", "StartDate", withinParentTag, "")
	}
	if oyc.EndDate != nil && !oyc.AcademicCalendar.ContainsDate(*oyc.EndDate) {
		sl.ReportError(oyc.EndDate, "end_date", "EndDate", withinParentTag, "")
	}
}

// kindForFailure maps a validator failure onto the domain error taxonomy.
func kindForFailure(fe validator.FieldError) error {
	switch fe.Tag() {
	case chronologyTag:
		return shared.ErrChronologyViolation
	case withinParentTag:
		return shared.ErrDateOutOfParentRange
	case requiredTag:
		if fe.Field() == "start_date" || fe.Field() == "end_date" {
			return shared.ErrMandatoryDateMissing
		}
		return shared.ErrValidation
	default:
		return shared.ErrValidation
	}
}

// registerTranslation registers a custom translation for a validation tag.
func registerTranslation(validate *validator.Validate, trans ut.Translator, tag, text string, override bool) {
	_ = validate.RegisterTranslation(
		tag, trans,
		func(t ut.Translator) error { return t.Add(tag, text, override) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}
