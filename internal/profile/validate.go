package profile

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("regex_pattern", func(fl validator.FieldLevel) bool {
			_, err := regexp.Compile(fl.Field().String())
			return err == nil
		})
		validate.RegisterStructValidation(profileLevel, Profile{})
		validate.RegisterStructValidation(columnLevel, Column{})
	})
	return validate
}

// profileLevel rejects duplicate names and ordinals.
func profileLevel(sl validator.StructLevel) {
	p := sl.Current().Interface().(Profile)
	names := make(map[string]bool, len(p.Columns))
	ordinals := make(map[int]bool, len(p.Columns))
	for i, c := range p.Columns {
		field := fmt.Sprintf("Columns[%d]", i)
		if names[c.Name] {
			sl.ReportError(c.Name, field+".Name", "Name", "unique_name", c.Name)
		}
		if ordinals[c.Ordinal] {
			sl.ReportError(c.Ordinal, field+".Ordinal", "Ordinal", "unique_ordinal", fmt.Sprint(c.Ordinal))
		}
		names[c.Name] = true
		ordinals[c.Ordinal] = true
	}
}

// columnLevel checks bounds and the enum value list.
func columnLevel(sl validator.StructLevel) {
	c := sl.Current().Interface().(Column)
	if c.Min > c.Max {
		sl.ReportError(c.Min, "Min", "Min", "lte_max", fmt.Sprint(c.Max))
	}
	if c.Type == TypeEnum && len(c.Values) == 0 {
		sl.ReportError(c.Values, "Values", "Values", "enum_values", "")
	}
	if c.Type != TypeEnum && len(c.Values) > 0 {
		sl.ReportError(c.Values, "Values", "Values", "enum_only", string(c.Type))
	}
}

// Validate checks that p is internally consistent.
// All problems are reported together, one per line.
func (p *Profile) Validate() error {
	err := structValidator().Struct(p)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("profile %q: %w", p.Name, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("profile %q: validation failed:\n  - %s", p.Name, strings.Join(msgs, "\n  - "))
}

func describe(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return ns + " is required"
	case "enum_values":
		return ns + " must list the permitted values for an enum column"
	case "min":
		return ns + " must have at least " + fe.Param() + " entry"
	case "gte":
		return ns + " must be >= " + fe.Param()
	case "oneof":
		return fmt.Sprintf("%s %q must be one of: %s", ns, fe.Value(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "regex_pattern":
		return fmt.Sprintf("%s %q is not a valid regular expression", ns, fe.Value())
	case "unique_name":
		return fmt.Sprintf("%s %q is used more than once", ns, fe.Param())
	case "unique_ordinal":
		return fmt.Sprintf("%s %s is used more than once", ns, fe.Param())
	case "lte_max":
		return fmt.Sprintf("%s must be <= max (%s)", ns, fe.Param())
	case "enum_only":
		return fmt.Sprintf("%s are only allowed for enum columns, not %s", ns, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", ns, fe.Tag())
	}
}
