package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ValidateConfig validates the entire configuration and returns all validation errors
func (c *Config) ValidateConfig() error {
	var validationErrors ValidationErrors

	if c.Server == nil {
		validationErrors = append(validationErrors, ValidationError{
			FieldPath: "server",
			Message:   "configuration must contain 'server' section",
		})
		return validationErrors
	}

	if err := validate.Struct(c.Server); err != nil {
		validationErrors = append(validationErrors, convertValidatorErrors(err, "server")...)
	}

	if c.Pages != nil {
		if err := validate.Struct(c.Pages); err != nil {
			validationErrors = append(validationErrors, convertValidatorErrors(err, "pages")...)
		}
	}

	validationErrors = append(validationErrors, c.validateBannedIDs()...)

	if len(validationErrors) > 0 {
		return validationErrors
	}

	return nil
}

func (c *Config) validateBannedIDs() ValidationErrors {
	var validationErrors ValidationErrors
	seen := make(map[string]bool)

	for i, id := range c.Server.BannedIDs {
		if seen[id] {
			validationErrors = append(validationErrors, ValidationError{
				FieldPath: fmt.Sprintf("server.banned_ids.%d", i),
				Message:   fmt.Sprintf("duplicate banned id: %s", id),
			})
		}
		seen[id] = true
	}

	return validationErrors
}

// convertValidatorErrors converts go-playground/validator errors to our ValidationError format
func convertValidatorErrors(err error, fieldPrefix string) ValidationErrors {
	var validationErrors ValidationErrors

	var validatorErrs validator.ValidationErrors
	if errors.As(err, &validatorErrs) {
		for _, e := range validatorErrs {
			fieldPath := fieldPrefix
			if e.Field() != "" {
				// e.Field() returns the TOML tag name because we registered TagNameFunc
				if fieldPrefix != "" {
					fieldPath = fieldPrefix + "." + e.Field()
				} else {
					fieldPath = e.Field()
				}
			}

			validationErrors = append(validationErrors, ValidationError{
				FieldPath: fieldPath,
				Message:   getValidationMessage(e),
			})
		}
	}

	return validationErrors
}
