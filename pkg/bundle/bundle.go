// Package bundle converts the Questionnaires inside a FHIR Bundle and copies
// every other entry through byte for byte.
package bundle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/buger/jsonparser"

	"github.com/gofhir/qconvert"
	"github.com/gofhir/qconvert/pkg/converter"
	"github.com/gofhir/qconvert/pkg/outcome"
	"github.com/gofhir/qconvert/pkg/questionnaire"
)

// ResourceTypeBundle is the resourceType of a Bundle.
const ResourceTypeBundle = "Bundle"

// EntryResult is the conversion result for a single bundle entry.
type EntryResult struct {
	// Index is the position of the entry in the bundle
	Index int

	// FullURL is the fullUrl of the entry (if present)
	FullURL string

	// ResourceType is the type of resource in the entry
	ResourceType string

	// ResourceID is the id of the resource (if present)
	ResourceID string

	// Converted is false for entries copied through unchanged
	Converted bool

	// Result holds status and messages of a converted entry
	Result converter.Result
}

// Result is the outcome of converting a resource file.
type Result struct {
	// Report merges the status and messages of every converted resource
	outcome.Report

	// Entries lists one result per bundle entry; empty for a lone resource
	Entries []EntryResult
}

// Converter walks Bundles and lone resources.
type Converter struct {
	from, to qconvert.FHIRVersion
	convert  converter.Converter
	opts     []converter.Option
}

// New creates a converter for from-to. It returns converter.ErrNoChain when
// no chain exists.
func New(from, to qconvert.FHIRVersion, opts ...converter.Option) (*Converter, error) {
	conv := converter.GetConverter(from, to)
	if conv == nil {
		return nil, fmt.Errorf("%w: %s to %s", converter.ErrNoChain, from, to)
	}
	return &Converter{from: from, to: to, convert: conv, opts: opts}, nil
}

// Convert converts data, which holds a Bundle or a single resource. A lone
// Questionnaire is converted directly; any other lone resource is returned
// unchanged with a Warning.
func (c *Converter) Convert(ctx context.Context, data []byte) ([]byte, *Result, error) {
	switch questionnaire.ResourceType(data) {
	case ResourceTypeBundle:
		return c.convertBundle(ctx, data)
	case questionnaire.ResourceTypeQuestionnaire:
		out, res, err := c.convertResource(data)
		if err != nil {
			return nil, nil, err
		}
		return out, &Result{Report: res.Report}, nil
	default:
		doc, err := questionnaire.Decode(data)
		if err != nil {
			return nil, nil, err
		}
		rep := outcome.NewReport()
		rep.AddWithID(doc, outcome.DiagWrongResourceType, map[string]any{"type": doc.ResourceType})
		return data, &Result{Report: rep}, nil
	}
}

func (c *Converter) convertResource(data []byte) ([]byte, converter.Result, error) {
	doc, err := questionnaire.Decode(data)
	if err != nil {
		return nil, converter.Result{}, err
	}
	res := c.convert(doc, c.opts...)
	if res.Data == nil {
		return nil, res, errors.New("conversion produced no document")
	}
	out, err := json.Marshal(res.Data)
	if err != nil {
		return nil, res, fmt.Errorf("encode: %w", err)
	}
	return out, res, nil
}

type replacement struct {
	index int
	data  []byte
}

func (c *Converter) convertBundle(ctx context.Context, data []byte) ([]byte, *Result, error) {
	result := &Result{Report: outcome.NewReport()}
	var replacements []replacement
	var walkErr error

	index := 0
	_, err := jsonparser.ArrayEach(data, func(entry []byte, dt jsonparser.ValueType, _ int, _ error) {
		defer func() { index++ }()
		if walkErr != nil {
			return
		}
		if err := ctx.Err(); err != nil {
			walkErr = err
			return
		}

		er := EntryResult{Index: index}
		if dt != jsonparser.Object {
			result.Entries = append(result.Entries, er)
			return
		}
		er.FullURL, _ = jsonparser.GetString(entry, "fullUrl")

		resource, rdt, _, err := jsonparser.Get(entry, "resource")
		if err != nil || rdt != jsonparser.Object {
			result.Entries = append(result.Entries, er)
			return
		}
		er.ResourceType = questionnaire.ResourceType(resource)
		er.ResourceID, _ = jsonparser.GetString(resource, "id")

		if er.ResourceType == questionnaire.ResourceTypeQuestionnaire {
			out, res, err := c.convertResource(resource)
			if err != nil {
				walkErr = fmt.Errorf("entry %d: %w", index, err)
				return
			}
			er.Converted = true
			er.Result = res
			result.Absorb(res.Report)
			replacements = append(replacements, replacement{index: index, data: out})
		}
		result.Entries = append(result.Entries, er)
	}, "entry")
	if walkErr != nil {
		return nil, nil, walkErr
	}
	if err != nil && !errors.Is(err, jsonparser.KeyPathNotFoundError) {
		return nil, nil, fmt.Errorf("read entries: %w", err)
	}

	out := bytes.Clone(data)
	for _, r := range replacements {
		out, err = jsonparser.Set(out, r.data, "entry", "["+strconv.Itoa(r.index)+"]", "resource")
		if err != nil {
			return nil, nil, fmt.Errorf("entry %d: %w", r.index, err)
		}
	}
	return out, result, nil
}
