// Package transform holds the adjacent-version Questionnaire rewrites. Each
// Func converts between two neighbouring FHIR versions and reports what it
// had to drop or approximate; longer conversions chain them.
package transform

import (
	"github.com/gofhir/qconvert"
	"github.com/gofhir/qconvert/pkg/extension"
	"github.com/gofhir/qconvert/pkg/outcome"
	"github.com/gofhir/qconvert/pkg/questionnaire"
)

// Options configures a single step.
type Options struct {
	// PreserveExtensions keeps fields the target cannot express as
	// inter-version extensions, and recovers them when converting back.
	PreserveExtensions bool
}

// Result is the output of a step: the converted document plus the status
// and messages describing the conversion.
type Result struct {
	outcome.Report
	Data *questionnaire.Document
}

// Func converts a document between two adjacent versions. It never modifies
// doc.
type Func func(doc *questionnaire.Document, opts Options) Result

// step carries the state of one adjacent conversion.
type step struct {
	from, to qconvert.FHIRVersion
	opts     Options
	report   outcome.Report
}

// begin clones doc for a step. ok is false when the document is not a
// Questionnaire; res then already holds the pass-through result.
func begin(doc *questionnaire.Document, from, to qconvert.FHIRVersion, opts Options) (*step, *questionnaire.Document, Result, bool) {
	s := &step{from: from, to: to, opts: opts, report: outcome.NewReport()}
	if doc == nil {
		s.report.Add(outcome.NewMessage(outcome.ID(""), outcome.Aborted, "no document to convert"))
		return s, nil, s.result(nil), false
	}
	out := doc.Clone()
	if !out.IsQuestionnaire() {
		s.report.AddWithID(out, outcome.DiagWrongResourceType, map[string]any{"type": out.ResourceType})
		return s, out, s.result(out), false
	}
	return s, out, Result{}, true
}

func (s *step) result(doc *questionnaire.Document) Result {
	return Result{Report: s.report, Data: doc}
}

// note records a catalog message, filling in the target version.
func (s *step) note(ctx outcome.Context, id outcome.DiagnosticID, params map[string]any) {
	if params == nil {
		params = map[string]any{}
	}
	params["target"] = s.to
	s.report.AddWithID(ctx, id, params)
}

// finish applies the rewrites every step shares and returns the result.
func (s *step) finish(doc *questionnaire.Document) Result {
	rewriteProfiles(doc, s.to)
	stripDocument(doc, s.to)
	return s.result(doc)
}

// rewriteProfiles replaces core Questionnaire profiles of any version with
// the target's; other profiles are left alone.
func rewriteProfiles(doc *questionnaire.Document, to qconvert.FHIRVersion) {
	if doc.Meta == nil || len(doc.Meta.Profile) == 0 {
		return
	}
	target := to.ProfileURL()
	out := make([]string, 0, len(doc.Meta.Profile))
	seen := false
	for _, p := range doc.Meta.Profile {
		if isCoreProfile(p) {
			if seen {
				continue
			}
			p, seen = target, true
		}
		out = append(out, p)
	}
	doc.Meta.Profile = out
}

func isCoreProfile(url string) bool {
	for _, v := range []qconvert.FHIRVersion{qconvert.STU3, qconvert.R4, qconvert.R4B, qconvert.R5} {
		if url == v.ProfileURL() {
			return true
		}
	}
	return false
}

// stripDocument removes inter-version extensions tagged with v from every
// element of the tree.
func stripDocument(doc *questionnaire.Document, v qconvert.FHIRVersion) {
	doc.Extension = extension.Strip(doc.Extension, v)
	doc.Item = mapItems(doc.Item, func(it questionnaire.Item) questionnaire.Item {
		it.Extension = extension.Strip(it.Extension, v)
		it.AnswerOption = stripOptions(it.AnswerOption, v)
		it.Option = stripOptions(it.Option, v)
		return it
	})
}

func stripOptions(opts []questionnaire.AnswerOption, v qconvert.FHIRVersion) []questionnaire.AnswerOption {
	for i := range opts {
		opts[i].Extension = extension.Strip(opts[i].Extension, v)
	}
	return opts
}

// mapItems rewrites items pre-order: fn sees a node before its children,
// and the children of fn's result are then rewritten in turn. Sibling order
// and nesting are preserved.
func mapItems(items []questionnaire.Item, fn func(questionnaire.Item) questionnaire.Item) []questionnaire.Item {
	if items == nil {
		return nil
	}
	out := make([]questionnaire.Item, len(items))
	for i, it := range items {
		n := fn(it)
		n.Item = mapItems(n.Item, fn)
		out[i] = n
	}
	return out
}
