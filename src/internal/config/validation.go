package config

import (
	"fmt"
	"net"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var hostnameRegexp = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9.-]*[a-zA-Z0-9])?$`)

// getValidationMessage returns a human-readable message for a validation error
func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "field is required"
	case "min":
		return fmt.Sprintf("must be >= %s", e.Param())
	case "max":
		return fmt.Sprintf("must be <= %s", e.Param())
	case "gte":
		return fmt.Sprintf("must be >= %s", e.Param())
	case "uri":
		return "must be a valid URI or absolute path"
	case "bind_address":
		return "must be an IP address or a hostname (without port)"
	case "banned_id":
		return "must be a non-empty identifier without whitespace"
	default:
		return fmt.Sprintf("validation failed: %s", e.Tag())
	}
}

// ValidationError represents a single validation error with context
type ValidationError struct {
	FieldPath string // Dot-notation field path (e.g., "server.port", "server.banned_ids.0")
	Message   string // Human-readable error message
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("validation failed with %d error(s):\n", len(ve)))
	for i, err := range ve {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.FieldPath, err.Message))
	}
	return sb.String()
}

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Register custom validators
	if err := validate.RegisterValidation("bind_address", validateBindAddress); err != nil {
		panic(err)
	}
	if err := validate.RegisterValidation("banned_id", validateBannedID); err != nil {
		panic(err)
	}

	// Register function to get field name from "toml" tag
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("toml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Custom validator: IP literal (IPv6 optionally bracketed) or hostname
func validateBindAddress(fl validator.FieldLevel) bool {
	return IsValidBindAddress(fl.Field().String())
}

// IsValidBindAddress reports whether value can be used as the listen host.
func IsValidBindAddress(value string) bool {
	if value == "" {
		return false
	}
	if strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]") {
		ip := net.ParseIP(strings.Trim(value, "[]"))
		return ip != nil && ip.To4() == nil
	}
	if net.ParseIP(value) != nil {
		return true
	}
	return len(value) <= 253 && hostnameRegexp.MatchString(value)
}

// Custom validator: banned identifier
func validateBannedID(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return false
	}
	return strings.IndexFunc(value, unicode.IsSpace) == -1
}
