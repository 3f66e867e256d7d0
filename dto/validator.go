package dto

import (
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("nickname", validateNickname)
}

func GetValidator() *validator.Validate {
	return validate
}

// Nicknames are chosen by children and shown on shared screens: 2-30 runes,
// letters (any script, Arabic included), digits, spaces, hyphens.
func validateNickname(fl validator.FieldLevel) bool {
	nickname := fl.Field().String()

	length := utf8.RuneCountInString(nickname)
	if length < 2 || length > 30 {
		return false
	}

	for _, char := range nickname {
		if !unicode.IsLetter(char) && !unicode.IsDigit(char) &&
			char != ' ' && char != '-' && char != '\'' {
			return false
		}
	}

	return true
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func FormatValidationErrors(err error) []ValidationError {
	var errs []ValidationError

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			var message string

			switch fieldError.Tag() {
			case "required":
				message = fieldError.Field() + " is required"
			case "email":
				message = "Invalid email format"
			case "min":
				message = fieldError.Field() + " must be at least " + fieldError.Param()
			case "max":
				message = fieldError.Field() + " must be at most " + fieldError.Param()
			case "oneof":
				message = fieldError.Field() + " must be one of: " + fieldError.Param()
			case "nickname":
				message = "Nickname must be 2-30 characters: letters, digits, spaces or hyphens"
			default:
				message = fieldError.Field() + " is invalid"
			}

			errs = append(errs, ValidationError{
				Field:   fieldError.Field(),
				Message: message,
			})
		}
	}

	return errs
}

type Validator interface {
	Validate() error
}
