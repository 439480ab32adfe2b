// Package inputval validates decoded request payloads.
//
// Struct validation uses go-playground/validator tags. Field names in error
// messages come from the json tag, so callers see the same names they sent.
package inputval

import (
	"errors"
	"fmt"
	"net/mail"
	"reflect"
	"strings"

	"github.com/dalemusser/clubsphere/internal/app/system/apperr"
	"github.com/dalemusser/clubsphere/internal/domain/models"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("email_addr", func(fl validator.FieldLevel) bool {
		return IsValidEmail(fl.Field().String())
	})
	_ = v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
		return primitive.IsValidObjectID(strings.TrimSpace(fl.Field().String()))
	})
	_ = v.RegisterValidation("member_status", func(fl validator.FieldLevel) bool {
		return models.IsValidMembershipStatus(strings.ToLower(strings.TrimSpace(fl.Field().String())))
	})
	_ = v.RegisterValidation("club_status", func(fl validator.FieldLevel) bool {
		return models.IsValidClubStatus(strings.ToLower(strings.TrimSpace(fl.Field().String())))
	})
	_ = v.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		return models.IsValidRole(strings.ToLower(strings.TrimSpace(fl.Field().String())))
	})
	return v
}

// Struct validates s and returns a single validation error describing the
// first failing field, or nil.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Validation("invalid request")
	}
	return apperr.Validation(describe(verrs[0]))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email_addr":
		return field + " must be a valid email address"
	case "objectid":
		return field + " must be a valid id"
	case "member_status":
		return field + " must be one of active, inactive, expired, suspended"
	case "club_status":
		return field + " must be one of pending, approved, rejected, active, inactive"
	case "user_role":
		return field + " must be one of member, manager, admin"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "url":
		return field + " must be a valid URL"
	default:
		return field + " is invalid"
	}
}

// IsValidEmail reports whether s is a bare email address (no display name).
// Single-label domains such as "localhost" are accepted.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " \t\r\n") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	local, domain := s[:at], s[at+1:]
	return validDotAtoms(local) && validDotAtoms(domain)
}

func validDotAtoms(s string) bool {
	return s != "" &&
		!strings.HasPrefix(s, ".") &&
		!strings.HasSuffix(s, ".") &&
		!strings.Contains(s, "..")
}

// ObjectID parses a hex id, returning a validation error naming field.
func ObjectID(field, hex string) (primitive.ObjectID, error) {
	hex = strings.TrimSpace(hex)
	if hex == "" {
		return primitive.NilObjectID, apperr.Validation(field + " is required")
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, apperr.Validation(field + " must be a valid id")
	}
	return id, nil
}

// Email validates and returns a required email parameter.
func Email(field, s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", apperr.Validation(field + " is required")
	}
	if !IsValidEmail(s) {
		return "", apperr.Validation(field + " must be a valid email address")
	}
	return s, nil
}
