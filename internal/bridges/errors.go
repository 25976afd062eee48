package bridges

import (
	"github.com/aescanero/dago-template-bridge/internal/bridge"
)

// Errors renders the "errors" variable into the error block
type Errors struct {
	*bridge.Base
	template string
	messages []string
}

// NewErrors returns a factory for error list bridges
func NewErrors(template string) bridge.Factory {
	return func(base *bridge.Base) bridge.Page {
		return &Errors{Base: base, template: template}
	}
}

// DefaultTemplate implements bridge.DefaultTemplater
func (e *Errors) DefaultTemplate() (string, error) {
	return e.TemplatePath(e.template)
}

// Init reads the messages from the variable bag
func (e *Errors) Init() error {
	raw, _ := e.Vars().Get("errors")
	e.messages = toStrings(raw)
	return nil
}

// SetBlocks parses one error block per message
func (e *Errors) SetBlocks() error {
	for _, message := range e.messages {
		if err := e.SetCurrentBlock("error"); err != nil {
			return err
		}
		e.SetVariable("message", e.Escape(message))
		if err := e.ParseCurrentBlock(); err != nil {
			return err
		}
	}
	return nil
}

// SetGlobalVariables binds error_count
func (e *Errors) SetGlobalVariables() error {
	e.SetVariable("error_count", len(e.messages))
	return nil
}
