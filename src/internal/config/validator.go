package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ValidateConfig validates the entire configuration and returns all validation errors
func (c *Config) ValidateConfig() error {
	var validationErrors ValidationErrors

	if c.General == nil {
		validationErrors = append(validationErrors, ValidationError{
			FieldPath: "general",
			Message:   "configuration must contain 'general' section",
		})
		return validationErrors
	}

	if err := validate.Struct(c.General); err != nil {
		validationErrors = append(validationErrors, convertValidatorErrors(err, "general", "")...)
	}

	if len(c.Routers) == 0 {
		validationErrors = append(validationErrors, ValidationError{
			FieldPath: "router",
			Message:   "configuration must contain at least one router",
		})
	} else {
		validationErrors = append(validationErrors, c.validateRouters()...)
	}

	if len(validationErrors) > 0 {
		return validationErrors
	}

	return nil
}

func (c *Config) validateRouters() ValidationErrors {
	var validationErrors ValidationErrors
	seenNames := make(map[string]bool)

	for i, router := range c.Routers {
		itemName := router.Name
		if itemName == "" {
			itemName = fmt.Sprintf("router[%d]", i)
		}

		if err := validate.Struct(router); err != nil {
			validationErrors = append(validationErrors, convertValidatorErrors(err, fmt.Sprintf("router.%d", i), itemName)...)
		}

		if seenNames[router.Name] {
			validationErrors = append(validationErrors, ValidationError{
				ItemName:  itemName,
				FieldPath: "name",
				Message:   fmt.Sprintf("duplicate router name: %s", router.Name),
			})
		}
		seenNames[router.Name] = true

		validationErrors = append(validationErrors, validateActions(itemName, router.Actions)...)
	}

	return validationErrors
}

// validateActions checks the fields each action kind needs.
func validateActions(itemName string, actions []*ActionConfig) ValidationErrors {
	var validationErrors ValidationErrors
	seenNames := make(map[string]bool)

	for j, action := range actions {
		prefix := fmt.Sprintf("action.%d", j)

		if seenNames[action.Name] {
			validationErrors = append(validationErrors, ValidationError{
				ItemName:  itemName,
				FieldPath: prefix + ".name",
				Message:   fmt.Sprintf("duplicate action name: %s", action.Name),
			})
		}
		seenNames[action.Name] = true

		switch action.Kind {
		case ActionKindReconnectInterface:
			if action.Target == "" {
				validationErrors = append(validationErrors, ValidationError{
					ItemName:  itemName,
					FieldPath: prefix + ".target",
					Message:   "interface name is required for reconnect_interface",
				})
			}
		case ActionKindRunScript:
			if action.Command == "" {
				validationErrors = append(validationErrors, ValidationError{
					ItemName:  itemName,
					FieldPath: prefix + ".command",
					Message:   "command is required for run_script",
				})
			}
		case ActionKindSubmitForm:
			if action.Page == "" {
				validationErrors = append(validationErrors, ValidationError{
					ItemName:  itemName,
					FieldPath: prefix + ".page",
					Message:   "page is required for submit_form",
				})
			}
			if action.Target == "" {
				validationErrors = append(validationErrors, ValidationError{
					ItemName:  itemName,
					FieldPath: prefix + ".target",
					Message:   "target is required for submit_form",
				})
			}
		}
	}

	return validationErrors
}

// convertValidatorErrors converts go-playground/validator errors to our ValidationError format
func convertValidatorErrors(err error, fieldPrefix string, itemName string) ValidationErrors {
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
				ItemName:  itemName,
				FieldPath: fieldPath,
				Message:   getValidationMessage(e),
			})
		}
	}

	return validationErrors
}
