// Package qconvert converts FHIR Questionnaire resources between the STU3,
// R4, R4B and R5 releases.
//
// Conversion runs as a chain of single-version steps. Each step maps a
// document one release up or down and reports what it could not carry
// across, so a caller always learns whether the result is faithful.
//
// # Quick Start
//
//	import (
//	    "github.com/gofhir/qconvert"
//	    "github.com/gofhir/qconvert/pkg/converter"
//	    "github.com/gofhir/qconvert/pkg/questionnaire"
//	)
//
//	doc, err := questionnaire.Decode(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := converter.Convert(doc, qconvert.STU3, qconvert.R5,
//	    converter.WithPreserveExtensions(true))
//	if err != nil {
//	    log.Fatal(err) // no chain between the versions
//	}
//	for _, m := range res.Messages {
//	    fmt.Println(m.CtxID, m.Text)
//	}
//
// # Status
//
// Every conversion carries one overall status, the worst of all messages:
//
//   - 1 success: nothing was lost
//   - 0 warning: nothing was lost, but something deserves attention
//   - -1 loss: some information could not be represented
//   - -2 aborted: the conversion could not complete
//
// # Packages
//
//   - pkg/questionnaire: the version-neutral document model and JSON codec
//   - pkg/transform: the adjacent-version steps
//   - pkg/registry: the version registry and chain resolver
//   - pkg/converter: chain execution and metadata stamping
//   - pkg/extension: inter-version extensions
//   - pkg/bundle: Bundle traversal
//   - pkg/invariant: FHIRPath checks of converted output
//   - pkg/worker: parallel batch conversion
//
// The qconvert command in cmd/qconvert wraps these for files on disk.
package qconvert
