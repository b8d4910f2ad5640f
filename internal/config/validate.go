package config

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/vango-dev/waypoint/internal/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks field constraints, then builds the route tree and checks
// that the default route exists.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fields validator.ValidationErrors
		if !stderrors.As(err, &fields) {
			return errors.New("W122").Wrap(err)
		}
		msgs := make([]string, 0, len(fields))
		for _, fe := range fields {
			msgs = append(msgs, describe(fe))
		}
		return errors.New("W122").
			WithDetail(strings.Join(msgs, "; ")).
			WithSuggestion("Fix the listed fields in " + c.displayName())
	}

	tree, err := c.BuildTree()
	if err != nil {
		return err
	}
	if c.DefaultRoute != "" {
		if _, ok := tree.SegmentsByName(c.DefaultRoute); !ok {
			return errors.New("W105").
				WithDetail(fmt.Sprintf("defaultRoute %q is not declared.", c.DefaultRoute))
		}
	}
	return nil
}

func (c *Config) displayName() string {
	if c.configPath != "" {
		return c.configPath
	}
	return "the configuration"
}

// describe renders a field error as "field: constraint".
func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s needs at least %s entries", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "startswith":
		return fmt.Sprintf("%s must start with %q", field, fe.Param())
	}
	if fe.Param() != "" {
		return fmt.Sprintf("%s fails %s=%s", field, fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s fails %s", field, fe.Tag())
}
