package transform

import (
	"github.com/gofhir/qconvert"
	"github.com/gofhir/qconvert/pkg/questionnaire"
)

// R4ToR4B converts R4 to R4B. The Questionnaire shapes are identical, so
// only the shared rewrites apply.
func R4ToR4B(doc *questionnaire.Document, opts Options) Result {
	return identity(doc, qconvert.R4, qconvert.R4B, opts)
}

// R4BToR4 converts R4B to R4.
func R4BToR4(doc *questionnaire.Document, opts Options) Result {
	return identity(doc, qconvert.R4B, qconvert.R4, opts)
}

func identity(doc *questionnaire.Document, from, to qconvert.FHIRVersion, opts Options) Result {
	s, out, res, ok := begin(doc, from, to, opts)
	if !ok {
		return res
	}
	return s.finish(out)
}
