package config

import (
	"fmt"
	"net"
	"net/url"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	nameRegexp = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)
)

// getValidationMessage returns a human-readable message for a validation error
func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "field is required"
	case "min":
		return fmt.Sprintf("must be >= %s", e.Param())
	case "max":
		return fmt.Sprintf("must be <= %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	case "router_name":
		return "must start with a lowercase letter and contain only [a-z0-9_-]"
	case "router_host":
		return "must be an http:// or https:// URL with a host and no path, e.g. http://192.168.1.1"
	case "listen_addr":
		return "must be in format 'host:port'"
	case "action_kind":
		return "must be one of: reboot, reconnect_interface, run_script, submit_form"
	default:
		return fmt.Sprintf("validation failed: %s", e.Tag())
	}
}

// ValidationError represents a single validation error with context
type ValidationError struct {
	ItemName  string // For routers/actions: the name of the item (e.g., "home", "reboot")
	FieldPath string // Dot-notation field path (e.g., "router.0.host")
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
		if err.ItemName != "" {
			sb.WriteString(fmt.Sprintf("  %d. [%s] %s: %s\n", i+1, err.ItemName, err.FieldPath, err.Message))
		} else {
			sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.FieldPath, err.Message))
		}
	}
	return sb.String()
}

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Register custom validators
	if err := validate.RegisterValidation("router_name", validateName); err != nil {
		panic(err)
	}
	if err := validate.RegisterValidation("router_host", validateRouterHostTag); err != nil {
		panic(err)
	}
	if err := validate.RegisterValidation("listen_addr", validateListenAddr); err != nil {
		panic(err)
	}
	if err := validate.RegisterValidation("action_kind", validateActionKind); err != nil {
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

func validateName(fl validator.FieldLevel) bool {
	return nameRegexp.MatchString(fl.Field().String())
}

func validateRouterHostTag(fl validator.FieldLevel) bool {
	return ValidateRouterHost(fl.Field().String()) == nil
}

// ValidateRouterHost checks that host is a scheme+authority URL.
func ValidateRouterHost(host string) error {
	u, err := url.Parse(host)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	if strings.Trim(u.Path, "/") != "" || u.RawQuery != "" {
		return fmt.Errorf("host must not contain a path or query")
	}
	return nil
}

func validateListenAddr(fl validator.FieldLevel) bool {
	_, port, err := net.SplitHostPort(fl.Field().String())
	return err == nil && port != ""
}

func validateActionKind(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case ActionKindReboot, ActionKindReconnectInterface, ActionKindRunScript, ActionKindSubmitForm:
		return true
	}
	return false
}
