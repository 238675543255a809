// Package extension encodes fields that have no equivalent in a target FHIR
// version as inter-version extensions, following the HL7 URL convention
// http://hl7.org/fhir/<major.minor>/StructureDefinition/extension-<Path>.
package extension

import (
	"strings"

	"github.com/gofhir/qconvert"
	"github.com/gofhir/qconvert/pkg/questionnaire"
)

const (
	urlBase   = "http://hl7.org/fhir/"
	urlMiddle = "/StructureDefinition/extension-"
)

// Prefix returns the URL prefix shared by every inter-version extension of
// version v.
func Prefix(v qconvert.FHIRVersion) string {
	return urlBase + v.ExtensionTag() + urlMiddle
}

// URL builds the extension URL for a dotted element path. The path is not
// checked against any StructureDefinition.
func URL(v qconvert.FHIRVersion, dottedPath string) string {
	return Prefix(v) + dottedPath
}

// Parse splits an inter-version extension URL into its version and path.
func Parse(url string) (qconvert.FHIRVersion, string, bool) {
	rest, ok := strings.CutPrefix(url, urlBase)
	if !ok {
		return "", "", false
	}
	tag, path, ok := strings.Cut(rest, urlMiddle)
	if !ok || path == "" {
		return "", "", false
	}
	for _, v := range []qconvert.FHIRVersion{qconvert.STU3, qconvert.R4, qconvert.R4B, qconvert.R5} {
		if v.ExtensionTag() == tag {
			return v, path, true
		}
	}
	return "", "", false
}

// New builds an inter-version extension record.
func New(v qconvert.FHIRVersion, dottedPath string, value *questionnaire.Value) questionnaire.Extension {
	return questionnaire.Extension{URL: URL(v, dottedPath), Value: value}
}

// Find returns the extensions whose URL is exactly URL(v, pathPrefix+"."+field)
// for one of fields, in list order.
func Find(exts []questionnaire.Extension, v qconvert.FHIRVersion, pathPrefix string, fields ...string) []questionnaire.Extension {
	if len(exts) == 0 || len(fields) == 0 {
		return nil
	}
	want := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		want[URL(v, pathPrefix+"."+f)] = struct{}{}
	}
	var out []questionnaire.Extension
	for _, e := range exts {
		if _, ok := want[e.URL]; ok {
			out = append(out, e)
		}
	}
	return out
}

// Value returns the value of the last record for pathPrefix.field, so a
// later duplicate wins.
func Value(exts []questionnaire.Extension, v qconvert.FHIRVersion, pathPrefix, field string) (*questionnaire.Value, bool) {
	found := Find(exts, v, pathPrefix, field)
	for i := len(found) - 1; i >= 0; i-- {
		if found[i].Value != nil {
			return found[i].Value, true
		}
	}
	return nil, false
}

// Values returns the value of every record for pathPrefix.field in order.
func Values(exts []questionnaire.Extension, v qconvert.FHIRVersion, pathPrefix, field string) []*questionnaire.Value {
	var out []*questionnaire.Value
	for _, e := range Find(exts, v, pathPrefix, field) {
		if e.Value != nil {
			out = append(out, e.Value)
		}
	}
	return out
}

// Strip returns exts without the inter-version extensions of version v.
// An element must never carry an extension tagged with its own version.
func Strip(exts []questionnaire.Extension, v qconvert.FHIRVersion) []questionnaire.Extension {
	prefix := Prefix(v)
	var out []questionnaire.Extension
	for _, e := range exts {
		if strings.HasPrefix(e.URL, prefix) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Has reports whether exts contains an inter-version extension of version v.
func Has(exts []questionnaire.Extension, v qconvert.FHIRVersion) bool {
	prefix := Prefix(v)
	for _, e := range exts {
		if strings.HasPrefix(e.URL, prefix) {
			return true
		}
	}
	return false
}

// Add appends rec. Duplicates are kept.
func Add(exts []questionnaire.Extension, rec questionnaire.Extension) []questionnaire.Extension {
	return append(exts, rec)
}
