package outcome

import (
	"fmt"
	"strings"
)

// DiagnosticID identifies a conversion message template.
type DiagnosticID string

// Diagnostic IDs for resource level handling.
const (
	DiagWrongResourceType DiagnosticID = "RESOURCE_WRONG_TYPE"
	DiagStepAborted       DiagnosticID = "RESOURCE_STEP_ABORTED"
	DiagFieldDropped      DiagnosticID = "FIELD_DROPPED"
	DiagDerivedFromDrop   DiagnosticID = "DERIVED_FROM_DROPPED"
)

// Diagnostic IDs for enableWhen rewriting.
const (
	DiagEnableWhenAnswerKind DiagnosticID = "ENABLE_WHEN_ANSWER_KIND"
	DiagEnableWhenOperator   DiagnosticID = "ENABLE_WHEN_OPERATOR"
	DiagEnableBehaviorAll    DiagnosticID = "ENABLE_BEHAVIOR_ALL"
)

// Diagnostic IDs for answer options and initial values.
const (
	DiagOptionsRelativeRef  DiagnosticID = "OPTIONS_RELATIVE_REFERENCE"
	DiagOptionInitialSelect DiagnosticID = "OPTION_INITIAL_SELECTED"
	DiagOptionValueDropped  DiagnosticID = "OPTION_VALUE_DROPPED"
	DiagInitialMultiple     DiagnosticID = "INITIAL_MULTIPLE"
	DiagInitialNoValue      DiagnosticID = "INITIAL_NO_VALUE"
)

// Diagnostic IDs for item type and answerConstraint mapping.
const (
	DiagTypeBestEffort          DiagnosticID = "TYPE_BEST_EFFORT"
	DiagConstraintWithoutAnswer DiagnosticID = "CONSTRAINT_WITHOUT_ANSWERS"
	DiagConstraintUnsupported   DiagnosticID = "CONSTRAINT_UNSUPPORTED"
)

// DiagnosticTemplate defines a catalog entry.
type DiagnosticTemplate struct {
	ID       DiagnosticID
	Status   Status
	Template string
}

// diagnosticTemplates maps IDs to templates using {placeholder} syntax.
var diagnosticTemplates = map[DiagnosticID]DiagnosticTemplate{
	DiagWrongResourceType: {
		Status:   Warning,
		Template: "Resource type '{type}' is not a Questionnaire; returned unchanged",
	},
	DiagStepAborted: {
		Status:   Aborted,
		Template: "Conversion step {step} aborted: {error}",
	},
	DiagFieldDropped: {
		Status:   Loss,
		Template: "{field} '{value}' has no {target} representation and was dropped",
	},
	DiagDerivedFromDrop: {
		Status:   Loss,
		Template: "derivedFrom ({count} entries) has no {target} representation and was dropped",
	},

	DiagEnableWhenAnswerKind: {
		Status:   Loss,
		Template: "enableWhen on '{question}' compares against a {kind} value, which {target} cannot express; condition dropped",
	},
	DiagEnableWhenOperator: {
		Status:   Loss,
		Template: "enableWhen on '{question}' uses operator '{operator}', which {target} cannot express; condition dropped",
	},
	DiagEnableBehaviorAll: {
		Status:   Loss,
		Template: "enableBehavior 'all' over {count} conditions cannot be expressed in {target}; conditions now combine with 'any'",
	},

	DiagOptionsRelativeRef: {
		Status:   Loss,
		Template: "options reference '{reference}' is not an absolute URL and cannot become answerValueSet; dropped",
	},
	DiagOptionInitialSelect: {
		Status:   Loss,
		Template: "answerOption {index} is marked initialSelected, which {target} cannot express; marker dropped",
	},
	DiagOptionValueDropped: {
		Status:   Loss,
		Template: "{dropped} of {total} answer options have values {target} cannot express and were dropped",
	},
	DiagInitialMultiple: {
		Status:   Loss,
		Template: "{count} initial values present; {target} keeps only the first",
	},
	DiagInitialNoValue: {
		Status:   Loss,
		Template: "initial entry has no recognizable value and was dropped",
	},

	DiagTypeBestEffort: {
		Status:   Warning,
		Template: "answerConstraint '{constraint}' on a coding item has no {target} equivalent; mapped to open-choice",
	},
	DiagConstraintWithoutAnswer: {
		Status:   Loss,
		Template: "answerConstraint '{constraint}' is declared without answerOption or answerValueSet; dropped",
	},
	DiagConstraintUnsupported: {
		Status:   Loss,
		Template: "answerConstraint '{constraint}' on a '{type}' item has no {target} representation; dropped",
	},
}

// FormatDiagnostic renders the template for id with params.
func FormatDiagnostic(id DiagnosticID, params map[string]any) string {
	tmpl, ok := diagnosticTemplates[id]
	if !ok {
		return string(id)
	}
	return formatTemplate(tmpl.Template, params)
}

// GetDiagnosticTemplate returns the template for a diagnostic ID.
func GetDiagnosticTemplate(id DiagnosticID) (DiagnosticTemplate, bool) {
	tmpl, ok := diagnosticTemplates[id]
	if ok {
		tmpl.ID = id
	}
	return tmpl, ok
}

// formatTemplate replaces {placeholder} with values from params.
func formatTemplate(template string, params map[string]any) string {
	result := template
	for key, value := range params {
		placeholder := "{" + key + "}"
		result = strings.ReplaceAll(result, placeholder, fmt.Sprint(value))
	}
	return result
}

// Diagnostic builds a message from the catalog. Unknown IDs produce a
// Warning carrying the raw ID.
func Diagnostic(ctx Context, id DiagnosticID, params map[string]any) Message {
	tmpl, ok := diagnosticTemplates[id]
	if !ok {
		m := NewMessage(ctx, Warning, string(id))
		m.MessageID = string(id)
		return m
	}
	m := NewMessage(ctx, tmpl.Status, formatTemplate(tmpl.Template, params))
	m.MessageID = string(id)
	return m
}

// AddWithID appends a catalog message and merges its status.
func (r *Report) AddWithID(ctx Context, id DiagnosticID, params map[string]any) *Report {
	return r.Add(Diagnostic(ctx, id, params))
}
