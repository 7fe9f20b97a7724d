package errors

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a JSON field name to its messages, in the order they were raised.
type FieldErrors map[string][]string

func (fe FieldErrors) Add(field, message string) {
	fe[field] = append(fe[field], message)
}

func (fe FieldErrors) First(field string) string {
	if msgs := fe[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

const (
	MessageRequired     = "Required"
	MessageInvalidEmail = "Invalid email address."
)

func msgForTag(tag string) string {
	switch tag {
	case "required":
		return MessageRequired
	case "email":
		return MessageInvalidEmail
	case "min":
		return "Value is too short or too small"
	case "max":
		return "Value is too long or too large"
	case "len":
		return "Value must be exact length"
	case "numeric":
		return "Value must be numeric"
	case "alpha":
		return "Value must contain only letters"
	case "alphanum":
		return "Value must contain only letters and numbers"
	case "url":
		return "Invalid URL format"
	case "uri":
		return "Invalid URI format"
	default:
		return "Invalid value"
	}
}

func getJSONFieldName(structType reflect.Type, fieldName string) string {
	field, found := structType.FieldByName(fieldName)
	if !found {
		return fieldName
	}

	jsonTag := field.Tag.Get("json")
	if jsonTag == "" {
		return fieldName
	}

	parts := strings.Split(jsonTag, ",")
	return parts[0]
}

// FormatValidationErrors turns binding errors into FieldErrors keyed by JSON
// field names. It returns an empty map for errors that are not tied to a field,
// such as malformed JSON.
func FormatValidationErrors(err error, model interface{}) FieldErrors {
	fieldErrors := FieldErrors{}

	if err == nil {
		return fieldErrors
	}

	if jsonErr, ok := err.(*json.UnmarshalTypeError); ok && jsonErr.Field != "" {
		fieldErrors.Add(jsonErr.Field, fmt.Sprintf("Expected %s, received %s", jsonErr.Type, jsonErr.Value))
		return fieldErrors
	}

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		var structType reflect.Type
		if model != nil {
			structType = reflect.TypeOf(model)
			if structType.Kind() == reflect.Ptr {
				structType = structType.Elem()
			}
		}

		for _, fieldError := range validationErrors {
			jsonField := fieldError.Field()
			if structType != nil {
				jsonField = getJSONFieldName(structType, fieldError.StructField())
			}

			message := msgForTag(fieldError.Tag())

			if fieldError.Param() != "" {
				switch fieldError.Tag() {
				case "min":
					message = fmt.Sprintf("Must be at least %s characters", fieldError.Param())
				case "max":
					message = fmt.Sprintf("Must not exceed %s characters", fieldError.Param())
				case "len":
					message = fmt.Sprintf("Must be exactly %s characters", fieldError.Param())
				}
			}

			fieldErrors.Add(jsonField, message)
		}
	}

	return fieldErrors
}
