package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/marmos91/storfiler/pkg/gateway"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// verbs lists the HTTP verbs a method may be routed on.
var verbs = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "PATCH": true, "DELETE": true,
}

// Validate validates the configuration using struct tags and custom rules.
//
// This function uses go-playground/validator for declarative validation
// via struct tags, with additional custom validation for complex rules
// that cannot be expressed in tags.
//
// Note: Log level and verb normalization is handled in ApplyDefaults, not
// here. Validation accepts both cases.
//
// Returns an error describing validation failures.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	if len(cfg.Resources) == 0 {
		return fmt.Errorf("resources: at least one resource must be configured")
	}

	if !cfg.Adapters.HTTP.Enabled {
		return fmt.Errorf("adapters: at least one adapter must be enabled")
	}

	names := make(map[string]bool)
	for i := range cfg.Resources {
		r := &cfg.Resources[i]
		if names[r.Name] {
			return fmt.Errorf("resources[%d]: duplicate resource name %q", i, r.Name)
		}
		names[r.Name] = true

		if err := validateResource(r); err != nil {
			return fmt.Errorf("resources[%d] (%s): %w", i, r.Name, err)
		}
	}

	return nil
}

func validateResource(r *ResourceConfig) error {
	if r.Provider != nil {
		if _, err := decodeProvider(r.Provider); err != nil {
			return fmt.Errorf("provider: %w", err)
		}
	}
	if err := validateEndpoints(&r.EndpointSet, r.Provider != nil); err != nil {
		return err
	}

	routes := make(map[string]bool)
	for j := range r.Methods {
		m := &r.Methods[j]
		verb := strings.ToUpper(m.Verb)

		if !verbs[verb] {
			return fmt.Errorf("methods[%d]: unsupported verb %q", j, m.Verb)
		}
		if _, err := gateway.ParseAction(m.Action); err != nil {
			return fmt.Errorf("methods[%d]: %w", j, err)
		}

		route := verb + " " + m.Path
		if routes[route] {
			return fmt.Errorf("methods[%d]: duplicate route %q", j, route)
		}
		routes[route] = true

		if err := validateEndpoints(&m.EndpointSet, r.Provider != nil); err != nil {
			return fmt.Errorf("methods[%d]: %w", j, err)
		}
	}

	return nil
}

// validateEndpoints checks that every endpoint can reach a provider and that
// every provider section decodes.
func validateEndpoints(set *EndpointSet, inherited bool) error {
	var errs []error
	check := func(field string, e *EndpointConfig) {
		if e == nil {
			return
		}
		if e.Provider == nil {
			if !inherited {
				errs = append(errs, fmt.Errorf("%s %q: no provider and the resource defines none", field, e.Path))
			}
			return
		}
		if _, err := decodeProvider(e.Provider); err != nil {
			errs = append(errs, fmt.Errorf("%s %q: %w", field, e.Path, err))
		}
	}

	check("endpoint", set.Endpoint)
	check("read_endpoint", set.ReadEndpoint)
	check("write_endpoint", set.WriteEndpoint)
	for i := range set.Endpoints {
		check(fmt.Sprintf("endpoints[%d]", i), &set.Endpoints[i])
	}
	for i := range set.ReadEndpoints {
		check(fmt.Sprintf("read_endpoints[%d]", i), &set.ReadEndpoints[i])
	}
	for i := range set.WriteEndpoints {
		check(fmt.Sprintf("write_endpoints[%d]", i), &set.WriteEndpoints[i])
	}

	return errors.Join(errs...)
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		// Return the first validation error with context
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
