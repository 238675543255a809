package extension

import (
	"testing"

	"github.com/gofhir/qconvert"
	"github.com/gofhir/qconvert/pkg/questionnaire"
)

func TestURL(t *testing.T) {
	got := URL(qconvert.R5, "Questionnaire.item.answerConstraint")
	want := "http://hl7.org/fhir/5.0/StructureDefinition/extension-Questionnaire.item.answerConstraint"
	if got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}
	if got := URL(qconvert.STU3, "a.b"); got != "http://hl7.org/fhir/3.0/StructureDefinition/extension-a.b" {
		t.Errorf("URL(STU3) = %q", got)
	}
}

func TestParse(t *testing.T) {
	v, path, ok := Parse("http://hl7.org/fhir/4.3/StructureDefinition/extension-Questionnaire.copyrightLabel")
	if !ok || v != qconvert.R4B || path != "Questionnaire.copyrightLabel" {
		t.Errorf("Parse() = %v, %q, %v", v, path, ok)
	}
	for _, bad := range []string{
		"http://example.org/ext",
		"http://hl7.org/fhir/9.9/StructureDefinition/extension-X",
		"http://hl7.org/fhir/5.0/StructureDefinition/extension-",
	} {
		if _, _, ok := Parse(bad); ok {
			t.Errorf("Parse(%q) should fail", bad)
		}
	}
}

func sampleExtensions() []questionnaire.Extension {
	return []questionnaire.Extension{
		{URL: "http://example.org/keep", Value: questionnaire.NewString("k")},
		New(qconvert.R5, "Questionnaire.item.answerConstraint", questionnaire.NewCode("optionsOnly")),
		New(qconvert.R5, "Questionnaire.item.disabledDisplay", questionnaire.NewCode("hidden")),
		New(qconvert.R4, "Questionnaire.derivedFrom", questionnaire.NewString("http://x")),
		New(qconvert.R5, "Questionnaire.item.answerConstraint", questionnaire.NewCode("optionsOrType")),
	}
}

func TestFind(t *testing.T) {
	exts := sampleExtensions()

	got := Find(exts, qconvert.R5, "Questionnaire.item", "answerConstraint", "disabledDisplay")
	if len(got) != 3 {
		t.Fatalf("Find() = %d records, want 3", len(got))
	}
	if got[1].Value.Text() != "hidden" {
		t.Errorf("Find() must keep list order, got %q second", got[1].Value.Text())
	}

	if got := Find(exts, qconvert.R4, "Questionnaire.item", "answerConstraint"); len(got) != 0 {
		t.Errorf("version must match exactly, got %d", len(got))
	}
	if got := Find(nil, qconvert.R5, "Questionnaire", "x"); got != nil {
		t.Errorf("Find(nil) = %v", got)
	}
}

func TestValueLastWins(t *testing.T) {
	v, ok := Value(sampleExtensions(), qconvert.R5, "Questionnaire.item", "answerConstraint")
	if !ok || v.Text() != "optionsOrType" {
		t.Errorf("Value() = %v, %v; want last record", v.Text(), ok)
	}
	if _, ok := Value(sampleExtensions(), qconvert.R5, "Questionnaire", "copyrightLabel"); ok {
		t.Error("Value() for absent field should be false")
	}
}

func TestStrip(t *testing.T) {
	exts := sampleExtensions()
	got := Strip(exts, qconvert.R5)
	if len(got) != 2 {
		t.Fatalf("Strip() = %d records, want 2", len(got))
	}
	if Has(got, qconvert.R5) {
		t.Error("Strip() left a 5.0 record")
	}
	if !Has(got, qconvert.R4) {
		t.Error("Strip() removed a record of another version")
	}
	if len(exts) != 5 {
		t.Error("Strip() must not modify its input")
	}
	if Strip(nil, qconvert.R4) != nil {
		t.Error("Strip(nil) should be nil")
	}
}

func TestAddKeepsDuplicates(t *testing.T) {
	rec := New(qconvert.R5, "Questionnaire.copyrightLabel", questionnaire.NewString("c"))
	exts := Add(Add(nil, rec), rec)
	if len(exts) != 2 {
		t.Errorf("Add() = %d records, want 2", len(exts))
	}
}
