package extractor

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"autoclaim/pkg/utcdate"

	"github.com/go-playground/validator/v10"
)

type shapeTag struct {
	tag   string
	shape *regexp.Regexp
}

var shapeTags = []shapeTag{
	{"pnr", pnrShape},
	{"tcn", tcnShape},
	{"trainno", trainShape},
}

func newValidator() (*validator.Validate, error) {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := registerShapes(v, shapeTags); err != nil {
		return nil, err
	}
	return v, nil
}

// registerShapes adds one validation tag per identifier pattern.
func registerShapes(v *validator.Validate, tags []shapeTag) error {
	for _, t := range tags {
		shape := t.shape
		err := v.RegisterValidation(t.tag, func(fl validator.FieldLevel) bool {
			return shape.MatchString(fl.Field().String())
		})
		if err != nil {
			return fmt.Errorf("register %q validation: %w", t.tag, err)
		}
	}
	return nil
}

// validateBooking is the schema pass run after structural extraction. It
// reports only the first failing field.
func validateBooking(v *validator.Validate, b *ParsedBooking, now time.Time) *ParseError {
	if err := v.Struct(b); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &ParseError{
				Code:     CodeValidationFailed,
				Message:  fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()),
				Field:    fe.Field(),
				RawValue: fmt.Sprint(fe.Value()),
			}
		}
		return &ParseError{Code: CodeValidationFailed, Message: err.Error()}
	}

	earliest := utcdate.AddMonths(utcdate.StartOfDay(now), -12)
	latest := utcdate.AddMonths(utcdate.StartOfDay(now), 12)
	if b.JourneyDate.Before(earliest) || b.JourneyDate.After(latest) {
		return &ParseError{
			Code:     CodeValidationFailed,
			Message:  "journey date is not within one year of today",
			Field:    "journeyDate",
			RawValue: utcdate.FormatISO(b.JourneyDate),
		}
	}
	return nil
}
