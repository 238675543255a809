package transform

import (
	"net/url"

	"github.com/gofhir/qconvert"
	"github.com/gofhir/qconvert/pkg/extension"
	"github.com/gofhir/qconvert/pkg/outcome"
	"github.com/gofhir/qconvert/pkg/questionnaire"
)

const (
	pathQuestionnaire = "Questionnaire"
	pathItem          = "Questionnaire.item"
)

// STU3ToR4 converts an STU3 Questionnaire to R4.
func STU3ToR4(doc *questionnaire.Document, opts Options) Result {
	s, out, res, ok := begin(doc, qconvert.STU3, qconvert.R4, opts)
	if !ok {
		return res
	}

	if len(out.DerivedFrom) == 0 {
		for _, v := range extension.Values(out.Extension, qconvert.R4, pathQuestionnaire, "derivedFrom") {
			out.DerivedFrom = append(out.DerivedFrom, v.Text())
		}
	}

	out.Item = mapItems(out.Item, s.stu3ItemToR4)
	return s.finish(out)
}

func (s *step) stu3ItemToR4(it questionnaire.Item) questionnaire.Item {
	it.EnableWhen = s.stu3EnableWhenToR4(it, it.EnableWhen)
	if len(it.EnableWhen) > 1 && it.EnableBehavior == "" {
		it.EnableBehavior = "any"
	}

	if it.Option != nil {
		it.AnswerOption = it.Option
		it.Option = nil
	}

	if it.Options != nil {
		ref := it.Options.Reference
		if isAbsolute(ref) {
			it.AnswerValueSet = ref
		} else {
			s.note(it, outcome.DiagOptionsRelativeRef, map[string]any{"reference": ref})
		}
		it.Options = nil
	}

	if it.InitialValue != nil {
		it.Initial = []questionnaire.Initial{{Value: it.InitialValue}}
		it.InitialValue = nil
	}
	return it
}

func (s *step) stu3EnableWhenToR4(it questionnaire.Item, in []questionnaire.EnableWhen) []questionnaire.EnableWhen {
	var out []questionnaire.EnableWhen
	for _, ew := range in {
		switch {
		case ew.HasAnswer != nil:
			ew.Operator = questionnaire.OperatorExists
			ew.Answer = questionnaire.NewBoolean(*ew.HasAnswer)
			ew.HasAnswer = nil
		case ew.Answer.Kind() == questionnaire.KindURI || ew.Answer.Kind() == questionnaire.KindAttachment:
			s.note(it, outcome.DiagEnableWhenAnswerKind, map[string]any{
				"question": ew.Question,
				"kind":     ew.Answer.Kind(),
			})
			continue
		default:
			ew.Operator = questionnaire.OperatorEqual
		}
		out = append(out, ew)
	}
	return out
}

// R4ToSTU3 converts an R4 Questionnaire to STU3.
func R4ToSTU3(doc *questionnaire.Document, opts Options) Result {
	s, out, res, ok := begin(doc, qconvert.R4, qconvert.STU3, opts)
	if !ok {
		return res
	}

	if len(out.DerivedFrom) > 0 {
		if opts.PreserveExtensions {
			for _, ref := range out.DerivedFrom {
				v, _ := questionnaire.NewText(questionnaire.KindCanonical, ref)
				out.Extension = extension.Add(out.Extension, extension.New(qconvert.R4, pathQuestionnaire+".derivedFrom", v))
			}
		} else {
			s.note(out, outcome.DiagDerivedFromDrop, map[string]any{"count": len(out.DerivedFrom)})
		}
		out.DerivedFrom = nil
	}

	out.Item = mapItems(out.Item, s.r4ItemToSTU3)
	return s.finish(out)
}

func (s *step) r4ItemToSTU3(it questionnaire.Item) questionnaire.Item {
	it.EnableWhen = s.r4EnableWhenToSTU3(it, it.EnableWhen)
	if it.EnableBehavior == "all" && len(it.EnableWhen) > 1 {
		s.note(it, outcome.DiagEnableBehaviorAll, map[string]any{"count": len(it.EnableWhen)})
	}
	it.EnableBehavior = ""

	if it.AnswerValueSet != "" {
		it.Options = &questionnaire.ValueSetRef{Reference: it.AnswerValueSet}
		it.AnswerValueSet = ""
	}

	if it.AnswerOption != nil {
		it.Option = s.r4OptionsToSTU3(it, it.AnswerOption)
		it.AnswerOption = nil
	}

	if len(it.Initial) > 0 {
		if len(it.Initial) > 1 {
			s.note(it, outcome.DiagInitialMultiple, map[string]any{"count": len(it.Initial)})
		}
		if first := it.Initial[0].Value; first.Kind() != questionnaire.KindNone {
			it.InitialValue = first
		} else {
			s.note(it, outcome.DiagInitialNoValue, nil)
		}
	}
	it.Initial = nil
	return it
}

func (s *step) r4EnableWhenToSTU3(it questionnaire.Item, in []questionnaire.EnableWhen) []questionnaire.EnableWhen {
	var out []questionnaire.EnableWhen
	for _, ew := range in {
		switch ew.Operator {
		case questionnaire.OperatorExists:
			has := true
			if ew.Answer.Kind() == questionnaire.KindBoolean {
				has = ew.Answer.Bool()
			}
			ew.HasAnswer = &has
			ew.Answer = nil
		case questionnaire.OperatorEqual:
		default:
			s.note(it, outcome.DiagEnableWhenOperator, map[string]any{
				"question": ew.Question,
				"operator": ew.Operator,
			})
			continue
		}
		ew.Operator = ""
		out = append(out, ew)
	}
	return out
}

// stu3OptionKinds are the value[x] types Questionnaire.item.option allows.
var stu3OptionKinds = map[questionnaire.Kind]bool{
	questionnaire.KindInteger: true,
	questionnaire.KindDate:    true,
	questionnaire.KindTime:    true,
	questionnaire.KindString:  true,
	questionnaire.KindCoding:  true,
}

func (s *step) r4OptionsToSTU3(it questionnaire.Item, in []questionnaire.AnswerOption) []questionnaire.AnswerOption {
	out := make([]questionnaire.AnswerOption, 0, len(in))
	dropped := 0
	for i, opt := range in {
		if !stu3OptionKinds[opt.Value.Kind()] {
			dropped++
			continue
		}
		if opt.InitialSelected != nil && *opt.InitialSelected {
			s.note(it, outcome.DiagOptionInitialSelect, map[string]any{"index": i})
		}
		opt.InitialSelected = nil
		out = append(out, opt)
	}
	if dropped > 0 {
		s.note(it, outcome.DiagOptionValueDropped, map[string]any{"dropped": dropped, "total": len(in)})
	}
	return out
}

// isAbsolute reports whether ref is scheme-qualified.
func isAbsolute(ref string) bool {
	u, err := url.Parse(ref)
	return err == nil && u.Scheme != ""
}
