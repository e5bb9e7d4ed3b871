package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Kind classifies why a submission was rejected.
type Kind string

const (
	KindMissingFields Kind = "missing_fields"
	KindInvalidEmail  Kind = "invalid_email"
	KindTooShort      Kind = "too_short"
)

// ValidationError lists the offending fields. Fields never reach the client; they are logged.
type ValidationError struct {
	Kind   Kind
	Fields []string
}

func (e *ValidationError) Error() string {
	labels := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		labels[i] = FieldLabel(f)
	}
	return fmt.Sprintf("%s: %s", e.Kind, strings.Join(labels, ", "))
}

// Schema enumerates the rules for one form type. Field names are payload keys.
type Schema struct {
	Required    []string
	EmailFields []string
	MinLength   map[string]int
	// DateFields are reformatted to "January 5, 2025" when they parse
	DateFields []string
}

// Validator checks payloads against a Schema.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()
	RegisterValidators(v)
	return &Validator{validate: v}
}

// Validate returns a trimmed copy of payload, or a *ValidationError.
// Checks run in order: required, email format, minimum length.
func (v *Validator) Validate(schema Schema, payload map[string]string) (map[string]string, error) {
	clean := make(map[string]string, len(payload))
	for k, val := range payload {
		clean[k] = strings.TrimSpace(val)
	}

	var missing []string
	for _, field := range schema.Required {
		if v.validate.Var(clean[field], "required") != nil {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Kind: KindMissingFields, Fields: missing}
	}

	var badEmail []string
	for _, field := range schema.EmailFields {
		val := clean[field]
		if val == "" {
			continue // optional and absent
		}
		if v.validate.Var(val, "basic_email") != nil {
			badEmail = append(badEmail, field)
		}
	}
	if len(badEmail) > 0 {
		return nil, &ValidationError{Kind: KindInvalidEmail, Fields: badEmail}
	}

	var short []string
	for field, n := range schema.MinLength {
		// validator's min counts runes for strings
		if v.validate.Var(clean[field], fmt.Sprintf("min=%d", n)) != nil {
			short = append(short, field)
		}
	}
	if len(short) > 0 {
		sort.Strings(short)
		return nil, &ValidationError{Kind: KindTooShort, Fields: short}
	}

	for _, field := range schema.DateFields {
		if raw := clean[field]; raw != "" {
			clean[field] = FormatLongDate(raw)
		}
	}

	return clean, nil
}

// FieldLabel returns a readable label for a camelCase payload key.
func FieldLabel(field string) string {
	var result strings.Builder
	for i, r := range field {
		if i == 0 {
			result.WriteString(strings.ToUpper(string(r)))
			continue
		}
		if r >= 'A' && r <= 'Z' {
			result.WriteRune(' ')
		}
		result.WriteRune(r)
	}
	return result.String()
}
