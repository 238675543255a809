// Package converter converts Questionnaires between FHIR versions by
// running the chain of adjacent steps the registry resolves.
//
// Basic usage:
//
//	res, err := converter.Convert(doc, qconvert.STU3, qconvert.R5)
//	if err != nil {
//	    return err // no chain between the versions
//	}
//	if res.Status == outcome.Loss {
//	    for _, m := range res.Messages {
//	        fmt.Println(m)
//	    }
//	}
package converter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofhir/qconvert"
	"github.com/gofhir/qconvert/pkg/questionnaire"
)

// ErrNoChain is returned when no conversion exists between two versions,
// either because they are equal or because one is unknown.
var ErrNoChain = errors.New("no conversion chain")

// Converter converts a document along a fixed chain.
type Converter func(doc *questionnaire.Document, opts ...Option) Result

// Convert converts doc from one version to another. doc is never modified.
func Convert(doc *questionnaire.Document, from, to qconvert.FHIRVersion, opts ...Option) (Result, error) {
	o := buildOptions(opts)
	steps := o.Registry.ResolveChain(from, to)
	if steps == nil {
		return Result{}, fmt.Errorf("%w: %s to %s", ErrNoChain, from, to)
	}
	o.Logger.Debug("%s: converting along %s", doc.ContextID(), pathString(o, from, to))
	return RunChain(doc, steps, from, to, o), nil
}

// GetConverter returns a Converter for from-to on the default registry, or
// nil when there is no chain.
func GetConverter(from, to qconvert.FHIRVersion) Converter {
	if steps := buildOptions(nil).Registry.ResolveChain(from, to); steps == nil {
		return nil
	}
	return func(doc *questionnaire.Document, opts ...Option) Result {
		// The chain exists, so Convert cannot fail.
		res, _ := Convert(doc, from, to, opts...)
		return res
	}
}

// ConvertJSON decodes data, converts it and encodes the result. Documents
// that did not survive the chain encode as nil.
func ConvertJSON(data []byte, from, to qconvert.FHIRVersion, opts ...Option) ([]byte, Result, error) {
	doc, err := questionnaire.Decode(data)
	if err != nil {
		return nil, Result{}, fmt.Errorf("decode: %w", err)
	}
	res, err := Convert(doc, from, to, opts...)
	if err != nil {
		return nil, res, err
	}
	if res.Data == nil {
		return nil, res, nil
	}
	out, err := questionnaire.Encode(res.Data)
	if err != nil {
		return nil, res, fmt.Errorf("encode: %w", err)
	}
	return out, res, nil
}

func pathString(o *Options, from, to qconvert.FHIRVersion) string {
	path := o.Registry.Path(from, to)
	parts := make([]string, len(path))
	for i, v := range path {
		parts[i] = v.String()
	}
	return strings.Join(parts, " -> ")
}
