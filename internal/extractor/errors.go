package extractor

import (
	"errors"
	"fmt"
)

// Code identifies why an email could not be parsed.
type Code string

const (
	CodeEmptyInput       Code = "EMPTY_INPUT"
	CodeValidationFailed Code = "VALIDATION_FAILED"

	CodeMissingPNR         Code = "MISSING_PNR"
	CodeMissingTCN         Code = "MISSING_TCN"
	CodeMissingTrainNumber Code = "MISSING_TRAIN_NUMBER"
	CodeMissingDate        Code = "MISSING_DATE"
	CodeMissingPassenger   Code = "MISSING_PASSENGER"
	CodeMissingOrigin      Code = "MISSING_ORIGIN"
	CodeMissingDestination Code = "MISSING_DESTINATION"

	CodeInvalidPNR         Code = "INVALID_PNR"
	CodeInvalidTCN         Code = "INVALID_TCN"
	CodeInvalidTrainNumber Code = "INVALID_TRAIN_NUMBER"
	CodeInvalidDate        Code = "INVALID_DATE"
	CodeInvalidPassenger   Code = "INVALID_PASSENGER"
	CodeInvalidOrigin      Code = "INVALID_ORIGIN"
	CodeInvalidDestination Code = "INVALID_DESTINATION"
)

// ParseError is the structured failure returned by Extract. It serializes
// directly as the API error body.
type ParseError struct {
	Code     Code   `json:"code"`
	Message  string `json:"message"`
	Field    string `json:"field,omitempty"`
	RawValue string `json:"rawValue,omitempty"`
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// AsParseError unwraps err into a *ParseError when it is one.
func AsParseError(err error) (*ParseError, bool) {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

func missing(code Code, field, label string) *ParseError {
	return &ParseError{
		Code:    code,
		Message: fmt.Sprintf("could not find %s in email", label),
		Field:   field,
	}
}

func invalid(code Code, field, label, raw string) *ParseError {
	return &ParseError{
		Code:     code,
		Message:  fmt.Sprintf("%s has an unexpected format", label),
		Field:    field,
		RawValue: raw,
	}
}
