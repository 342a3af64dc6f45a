// Package validator holds the Gate's decision functions. Everything here is
// pure: functions read a State and an Operation and return a Decision, and
// never perform I/O or retain their inputs.
package validator

import (
	"fmt"

	"jurisgate/internal/model"
)

// Decision is the outcome of validating one operation.
type Decision struct {
	Accepted bool
	Code     model.ErrorCode
	Message  string
	Field    string

	// Set on accepted operations that warrant escalated review.
	RiskNote string
	Trigger  model.ThinkMoreTrigger
}

func accept() Decision { return Decision{Accepted: true} }

func reject(code model.ErrorCode, field, format string, args ...any) Decision {
	return Decision{Code: code, Field: field, Message: fmt.Sprintf(format, args...)}
}

// Escalate returns d tagged with a review trigger.
func (d Decision) Escalate(trigger model.ThinkMoreTrigger, note string) Decision {
	d.Trigger = trigger
	d.RiskNote = note
	return d
}

// ErrorBody converts a rejection into its wire form.
func (d Decision) ErrorBody() *model.ErrorBody {
	if d.Accepted {
		return nil
	}
	return &model.ErrorBody{Code: d.Code, Message: d.Message, Field: d.Field}
}
