package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/isaacpassnav/okea-backend/internal/core/domain"
)

const (
	msgRegisterRequired = "nombre, email y password son requeridos"
	msgLoginRequired    = "email y password son requeridos"
)

// validateInput runs struct-tag validation on in and converts the first
// failure into a *domain.ValidationError. A missing field always wins over
// format problems so clients see one stable message for incomplete payloads.
func validateInput(v *validator.Validate, in any, requiredMsg string) error {
	err := v.Struct(in)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	for _, fe := range ve {
		if fe.Tag() == "required" {
			return domain.NewValidationError(requiredMsg)
		}
	}
	return domain.NewValidationError(fieldError(ve[0]))
}

// fieldError converts a single FieldError into a client-facing message.
func fieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "email":
		return "El email no tiene un formato válido"
	case "min":
		if field == "password" {
			return fmt.Sprintf("La contraseña debe tener al menos %s caracteres", fe.Param())
		}
		return fmt.Sprintf("%s debe tener al menos %s caracteres", field, fe.Param())
	default:
		return fmt.Sprintf("%s no es válido", field)
	}
}

// normalizeEmail trims and lower-cases an address so lookups and uniqueness
// are case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
