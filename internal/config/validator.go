package config

import (
	"errors"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	pilotErrors "github.com/stackpilot/stackpilot/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate
)

// schemaNameRegex restricts the database schema to a plain identifier. The
// name is interpolated into the schema-listing query, so quoting characters
// are rejected up front.
var schemaNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("hostport", func(fl validator.FieldLevel) bool {
			host, port, err := net.SplitHostPort(fl.Field().String())
			if err != nil || host == "" {
				return false
			}
			n, err := strconv.Atoi(port)
			return err == nil && n >= 1 && n <= 65535
		})

		validateInst = v
	})

	return validateInst
}

// Validate performs schema and cross-field validation on the stack
// definition.
func Validate(cfg *Config) error {
	if cfg == nil {
		return pilotErrors.NewValidationError("config", "configuration is nil", nil)
	}

	v := validatorInstance()
	if err := v.Struct(cfg); err != nil {
		return convertValidationError(err)
	}

	seen := make(map[string]struct{}, len(cfg.Services))
	for i, svc := range cfg.Services {
		if _, dup := seen[svc.Name]; dup {
			return pilotErrors.NewValidationError(
				serviceField(i, "name"),
				fmt.Sprintf("duplicate service name %q", svc.Name), nil)
		}
		seen[svc.Name] = struct{}{}

		if svc.HTTP != nil && svc.TCP != nil {
			return pilotErrors.NewValidationError(
				serviceField(i, ""),
				"a service declares either an http or a tcp probe, not both", nil)
		}

		if svc.Match.Kind == "regex" {
			if _, err := regexp.Compile(svc.Match.Pattern); err != nil {
				return pilotErrors.NewValidationError(
					serviceField(i, "match.pattern"),
					fmt.Sprintf("invalid regular expression %q", svc.Match.Pattern), err)
			}
		}
	}

	if cfg.Database != nil {
		if _, known := seen[cfg.Database.Service]; !known {
			return pilotErrors.NewValidationError(
				"database.service",
				fmt.Sprintf("references unknown service %q", cfg.Database.Service), nil)
		}
		if cfg.Database.Schema != "" && !schemaNameRegex.MatchString(cfg.Database.Schema) {
			return pilotErrors.NewValidationError(
				"database.schema",
				fmt.Sprintf("schema name %q is not a plain identifier", cfg.Database.Schema), nil)
		}
	}

	return nil
}

func convertValidationError(err error) error {
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return pilotErrors.NewValidationError("config", "configuration is not validatable", err)
	}

	if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		msg := fmt.Sprintf("failed %q validation", fe.Tag())
		return pilotErrors.NewValidationError(field, msg, err)
	}

	return pilotErrors.NewValidationError("config", err.Error(), err)
}

func serviceField(index int, field string) string {
	if field == "" {
		return fmt.Sprintf("services[%d]", index)
	}
	return fmt.Sprintf("services[%d].%s", index, field)
}
