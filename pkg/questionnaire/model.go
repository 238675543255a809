// Package questionnaire models a FHIR Questionnaire as the union of the
// STU3, R4, R4B and R5 shapes, with a JSON codec that copies every
// unmodelled property through unchanged.
package questionnaire

import "github.com/gofhir/fhir/r4"

// ResourceTypeQuestionnaire is the resourceType this package models.
const ResourceTypeQuestionnaire = "Questionnaire"

// Item type codes that conversion rewrites.
const (
	TypeChoice     = "choice"
	TypeOpenChoice = "open-choice"
	TypeCoding     = "coding"
)

// enableWhen operators.
const (
	OperatorExists = "exists"
	OperatorEqual  = "="
)

// answerConstraint codes (R5).
const (
	ConstraintOptionsOnly     = "optionsOnly"
	ConstraintOptionsOrString = "optionsOrString"
	ConstraintOptionsOrType   = "optionsOrType"
)

// Document is a parsed resource. Non-Questionnaire resources decode with
// everything except resourceType/id/meta kept in Extra.
type Document struct {
	ResourceType string
	ID           string
	Meta         *Meta
	Extension    []Extension

	// DerivedFrom is R4+.
	DerivedFrom []string
	// VersionAlgorithm is R5 (versionAlgorithmString or versionAlgorithmCoding).
	VersionAlgorithm *Value
	// CopyrightLabel is R5.
	CopyrightLabel string

	Item  []Item
	Extra Fields
}

// ContextID returns the document id, or the resource type when id is empty.
func (d *Document) ContextID() string {
	if d == nil {
		return ""
	}
	if d.ID != "" {
		return d.ID
	}
	return d.ResourceType
}

// IsQuestionnaire reports whether the document is a Questionnaire.
func (d *Document) IsQuestionnaire() bool {
	return d != nil && d.ResourceType == ResourceTypeQuestionnaire
}

// Meta is Resource.meta.
type Meta struct {
	Profile []string
	Tag     []r4.Coding
	Extra   Fields
}

// Item is Questionnaire.item.
type Item struct {
	LinkID string
	Type   string
	Text   string

	EnableWhen     []EnableWhen
	EnableBehavior string

	// Option is the STU3 bare option array.
	Option []AnswerOption
	// Options is the STU3 options reference container.
	Options *ValueSetRef

	AnswerOption     []AnswerOption
	AnswerValueSet   string
	AnswerConstraint string

	// InitialValue is the STU3 scalar initial[x].
	InitialValue *Value
	Initial      []Initial

	DisabledDisplay string

	Extension []Extension
	Item      []Item
	Extra     Fields
}

// ContextID returns the linkId.
func (it Item) ContextID() string {
	return it.LinkID
}

// HasAnswerList reports whether options or a value set are declared in any
// of the dialect shapes.
func (it *Item) HasAnswerList() bool {
	return len(it.AnswerOption) > 0 || it.AnswerValueSet != "" ||
		len(it.Option) > 0 || it.Options != nil
}

// EnableWhen is Questionnaire.item.enableWhen.
type EnableWhen struct {
	Question string
	Operator string
	// HasAnswer is the STU3 existence check.
	HasAnswer *bool
	Answer    *Value
	Extra     Fields
}

// AnswerOption is item.answerOption (R4+) or item.option (STU3).
type AnswerOption struct {
	Value           *Value
	InitialSelected *bool
	Extension       []Extension
	Extra           Fields
}

// Initial is item.initial (R4+).
type Initial struct {
	Value *Value
	Extra Fields
}

// ValueSetRef is the STU3 item.options Reference.
type ValueSetRef struct {
	Reference string
	Extra     Fields
}

// Extension is an Extension element.
type Extension struct {
	URL   string
	Value *Value
	Extra Fields
}
