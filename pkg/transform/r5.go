package transform

import (
	"github.com/gofhir/qconvert"
	"github.com/gofhir/qconvert/pkg/extension"
	"github.com/gofhir/qconvert/pkg/outcome"
	"github.com/gofhir/qconvert/pkg/questionnaire"
)

// R5-only fields carried by inter-version extensions.
const (
	fieldVersionAlgorithm = "versionAlgorithm"
	fieldCopyrightLabel   = "copyrightLabel"
	fieldAnswerConstraint = "answerConstraint"
	fieldDisabledDisplay  = "disabledDisplay"
)

// R4ToR5 converts R4 to R5.
func R4ToR5(doc *questionnaire.Document, opts Options) Result {
	return toR5(doc, qconvert.R4, opts)
}

// R4BToR5 converts R4B to R5.
func R4BToR5(doc *questionnaire.Document, opts Options) Result {
	return toR5(doc, qconvert.R4B, opts)
}

// R5ToR4 converts R5 to R4.
func R5ToR4(doc *questionnaire.Document, opts Options) Result {
	return fromR5(doc, qconvert.R4, opts)
}

// R5ToR4B converts R5 to R4B.
func R5ToR4B(doc *questionnaire.Document, opts Options) Result {
	return fromR5(doc, qconvert.R4B, opts)
}

func toR5(doc *questionnaire.Document, from qconvert.FHIRVersion, opts Options) Result {
	s, out, res, ok := begin(doc, from, qconvert.R5, opts)
	if !ok {
		return res
	}

	// Recovered values override whatever the document carries.
	if v, ok := extension.Value(out.Extension, qconvert.R5, pathQuestionnaire, fieldVersionAlgorithm); ok {
		out.VersionAlgorithm = v.Clone()
	}
	if v, ok := extension.Value(out.Extension, qconvert.R5, pathQuestionnaire, fieldCopyrightLabel); ok {
		out.CopyrightLabel = v.Text()
	}

	out.Item = mapItems(out.Item, func(it questionnaire.Item) questionnaire.Item {
		switch it.Type {
		case questionnaire.TypeChoice:
			it.Type = questionnaire.TypeCoding
		case questionnaire.TypeOpenChoice:
			it.Type = questionnaire.TypeCoding
			it.AnswerConstraint = questionnaire.ConstraintOptionsOrString
		}
		if v, ok := extension.Value(it.Extension, qconvert.R5, pathItem, fieldAnswerConstraint); ok {
			it.AnswerConstraint = v.Text()
		}
		if v, ok := extension.Value(it.Extension, qconvert.R5, pathItem, fieldDisabledDisplay); ok {
			it.DisabledDisplay = v.Text()
		}
		return it
	})
	return s.finish(out)
}

func fromR5(doc *questionnaire.Document, to qconvert.FHIRVersion, opts Options) Result {
	s, out, res, ok := begin(doc, qconvert.R5, to, opts)
	if !ok {
		return res
	}

	if out.VersionAlgorithm != nil {
		s.keep(out, &out.Extension, pathQuestionnaire, fieldVersionAlgorithm, out.VersionAlgorithm)
		out.VersionAlgorithm = nil
	}
	if out.CopyrightLabel != "" {
		s.keep(out, &out.Extension, pathQuestionnaire, fieldCopyrightLabel, questionnaire.NewString(out.CopyrightLabel))
		out.CopyrightLabel = ""
	}

	out.Item = mapItems(out.Item, s.r5ItemDown)
	return s.finish(out)
}

func (s *step) r5ItemDown(it questionnaire.Item) questionnaire.Item {
	constraint := it.AnswerConstraint
	if it.Type == questionnaire.TypeCoding {
		switch constraint {
		case "", questionnaire.ConstraintOptionsOnly:
			it.Type = questionnaire.TypeChoice
		case questionnaire.ConstraintOptionsOrString:
			it.Type = questionnaire.TypeOpenChoice
		case questionnaire.ConstraintOptionsOrType:
			it.Type = questionnaire.TypeOpenChoice
			s.note(it, outcome.DiagTypeBestEffort, map[string]any{"constraint": constraint})
		}
	}

	if constraint != "" {
		switch {
		case s.opts.PreserveExtensions:
			it.Extension = extension.Add(it.Extension,
				extension.New(qconvert.R5, pathItem+"."+fieldAnswerConstraint, questionnaire.NewCode(constraint)))
		case !it.HasAnswerList():
			s.note(it, outcome.DiagConstraintWithoutAnswer, map[string]any{"constraint": constraint})
		case it.Type != questionnaire.TypeChoice && it.Type != questionnaire.TypeOpenChoice &&
			constraint != questionnaire.ConstraintOptionsOnly:
			s.note(it, outcome.DiagConstraintUnsupported, map[string]any{
				"constraint": constraint,
				"type":       it.Type,
			})
		}
		it.AnswerConstraint = ""
	}

	if it.DisabledDisplay != "" {
		s.keep(it, &it.Extension, pathItem, fieldDisabledDisplay, questionnaire.NewCode(it.DisabledDisplay))
		it.DisabledDisplay = ""
	}
	return it
}

// keep preserves an R5-only field as a 5.0 extension on the owning element,
// or records its loss.
func (s *step) keep(ctx outcome.Context, exts *[]questionnaire.Extension, path, field string, v *questionnaire.Value) {
	if s.opts.PreserveExtensions {
		*exts = extension.Add(*exts, extension.New(qconvert.R5, path+"."+field, v.Clone()))
		return
	}
	s.note(ctx, outcome.DiagFieldDropped, map[string]any{
		"field": field,
		"value": describe(v),
	})
}

func describe(v *questionnaire.Value) string {
	if v.Kind() == questionnaire.KindCoding {
		c := v.Coding()
		if c.Code != nil {
			return *c.Code
		}
	}
	return v.Text()
}
