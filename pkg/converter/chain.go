package converter

import (
	"fmt"
	"time"

	"github.com/gofhir/fhir/r4"

	"github.com/gofhir/qconvert"
	"github.com/gofhir/qconvert/pkg/outcome"
	"github.com/gofhir/qconvert/pkg/questionnaire"
	"github.com/gofhir/qconvert/pkg/transform"
)

// Conversion tag coding.
const (
	TagSystem = "http://hl7.org/fhir/questionnaire-conversion"
)

// Result is the outcome of a conversion.
type Result = transform.Result

// RunChain applies steps in order, each to the previous step's output, and
// merges every step's status and messages. Loss and warnings never stop the
// chain; a step that panics aborts it and the last good document is
// returned unstamped. A completed Questionnaire is stamped once for to.
func RunChain(doc *questionnaire.Document, steps []transform.Func, from, to qconvert.FHIRVersion, o *Options) Result {
	if o == nil {
		o = buildOptions(nil)
	}
	acc := Result{Report: outcome.NewReport(), Data: doc}
	topts := transform.Options{PreserveExtensions: o.PreserveExtensions}
	names := stepNames(o, from, to, len(steps))
	start := time.Now()
	defer func() {
		if o.Metrics != nil {
			o.Metrics.RecordConversion(time.Since(start), acc.Status, len(acc.Messages))
		}
	}()

	for i, step := range steps {
		stepStart := time.Now()
		res, err := runStep(step, acc.Data, topts)
		if o.Metrics != nil {
			o.Metrics.RecordStep(names[i], time.Since(stepStart), len(res.Messages))
		}
		if err != nil {
			o.Logger.Warn("%s: step %d of %d aborted: %v", doc.ContextID(), i+1, len(steps), err)
			acc.AddWithID(doc, outcome.DiagStepAborted, map[string]any{
				"step":  i + 1,
				"error": err,
			})
			return acc
		}
		o.Logger.Debug("%s: step %d of %d status %s, %d messages",
			doc.ContextID(), i+1, len(steps), res.Status, len(res.Messages))
		acc.Absorb(res.Report)
		acc.Data = res.Data
	}

	if acc.Data.IsQuestionnaire() {
		if len(steps) == 0 {
			acc.Data = acc.Data.Clone()
		}
		StampMetadata(acc.Data, from, to, o)
	}
	return acc
}

// stepNames labels each step "FROM->TO" using the registry path, falling
// back to its position when the steps did not come from the registry.
func stepNames(o *Options, from, to qconvert.FHIRVersion, n int) []string {
	names := make([]string, n)
	var path []qconvert.FHIRVersion
	if o.Registry != nil {
		path = o.Registry.Path(from, to)
	}
	for i := range names {
		if len(path) == n+1 {
			names[i] = fmt.Sprintf("%s->%s", path[i], path[i+1])
		} else {
			names[i] = fmt.Sprintf("step %d", i+1)
		}
	}
	return names
}

func runStep(step transform.Func, doc *questionnaire.Document, opts transform.Options) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return step(doc, opts), nil
}

// StampMetadata sets meta.profile to the single target profile and, unless
// disabled, appends the conversion tag. doc is modified in place.
func StampMetadata(doc *questionnaire.Document, from, to qconvert.FHIRVersion, o *Options) {
	if doc == nil {
		return
	}
	if doc.Meta == nil {
		doc.Meta = &questionnaire.Meta{}
	}
	doc.Meta.Profile = []string{to.ProfileURL()}
	if o == nil || o.ConversionTag {
		doc.Meta.Tag = append(doc.Meta.Tag, ConversionTag(from, to))
	}
}

// ConversionTag returns the meta.tag recording a from-to conversion.
func ConversionTag(from, to qconvert.FHIRVersion) r4.Coding {
	system := TagSystem
	code := fmt.Sprintf("%s-to-%s", from, to)
	display := fmt.Sprintf("converted from %s to %s", from, to)
	return r4.Coding{System: &system, Code: &code, Display: &display}
}
