package bridges

import (
	"sort"

	"github.com/aescanero/dago-template-bridge/internal/bridge"
)

// FieldError is one validation message bound to a form field
type FieldError struct {
	Field   string
	Message string
}

// Validation renders the "validation" variable, a map of field names to
// messages, into the field_error block sorted by field.
type Validation struct {
	*bridge.Base
	template string
	errors   []FieldError
}

// NewValidation returns a factory for validation bridges
func NewValidation(template string) bridge.Factory {
	return func(base *bridge.Base) bridge.Page {
		return &Validation{Base: base, template: template}
	}
}

// DefaultTemplate implements bridge.DefaultTemplater
func (v *Validation) DefaultTemplate() (string, error) {
	return v.TemplatePath(v.template)
}

// Init collects the field errors from the variable bag
func (v *Validation) Init() error {
	raw, _ := v.Vars().Get("validation")
	v.errors = fieldErrors(raw)
	return nil
}

// SetBlocks parses one field_error per message
func (v *Validation) SetBlocks() error {
	for _, fe := range v.errors {
		if err := v.SetCurrentBlock("field_error"); err != nil {
			return err
		}
		v.SetVariable("field", v.Escape(fe.Field))
		v.SetVariable("message", v.Escape(fe.Message))
		if err := v.ParseCurrentBlock(); err != nil {
			return err
		}
	}
	return nil
}

// SetGlobalVariables binds validation_count
func (v *Validation) SetGlobalVariables() error {
	v.SetVariable("validation_count", len(v.errors))
	return nil
}

func fieldErrors(raw any) []FieldError {
	byField := make(map[string][]string)
	switch m := raw.(type) {
	case map[string][]string:
		for field, messages := range m {
			byField[field] = messages
		}
	case map[string]string:
		for field, message := range m {
			byField[field] = []string{message}
		}
	case map[string]any:
		for field, messages := range m {
			byField[field] = toStrings(messages)
		}
	}

	fields := make([]string, 0, len(byField))
	for field := range byField {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var out []FieldError
	for _, field := range fields {
		for _, message := range byField[field] {
			out = append(out, FieldError{Field: field, Message: message})
		}
	}
	return out
}
