package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gofhir/qconvert"
	"github.com/gofhir/qconvert/pkg/extension"
	"github.com/gofhir/qconvert/pkg/outcome"
	"github.com/gofhir/qconvert/pkg/questionnaire"
)

func decode(t *testing.T, src string) *questionnaire.Document {
	t.Helper()
	doc, err := questionnaire.Decode([]byte(src))
	require.NoError(t, err)
	return doc
}

// noExtensions asserts that nothing in the tree carries a v-tagged extension.
func noExtensions(t *testing.T, doc *questionnaire.Document, v qconvert.FHIRVersion) {
	t.Helper()
	assert.False(t, extension.Has(doc.Extension, v), "document carries %s extension", v)
	mapItems(doc.Item, func(it questionnaire.Item) questionnaire.Item {
		assert.False(t, extension.Has(it.Extension, v), "item %s carries %s extension", it.LinkID, v)
		for _, o := range it.AnswerOption {
			assert.False(t, extension.Has(o.Extension, v), "option of %s carries %s extension", it.LinkID, v)
		}
		return it
	})
}

func TestWrongResourceType(t *testing.T) {
	doc := decode(t, `{"resourceType": "Patient", "id": "p1", "active": true}`)

	for name, fn := range map[string]Func{
		"STU3ToR4": STU3ToR4,
		"R4ToSTU3": R4ToSTU3,
		"R4ToR4B":  R4ToR4B,
		"R4ToR5":   R4ToR5,
		"R5ToR4":   R5ToR4,
	} {
		t.Run(name, func(t *testing.T) {
			res := fn(doc, Options{})
			assert.Equal(t, outcome.Warning, res.Status)
			require.Len(t, res.Messages, 1)
			assert.Equal(t, "p1", res.Messages[0].CtxID)
			require.NotNil(t, res.Data)
			assert.Equal(t, "Patient", res.Data.ResourceType)
			assert.NotSame(t, doc, res.Data)
		})
	}
}

func TestNilDocumentAborts(t *testing.T) {
	res := R4ToR5(nil, Options{})
	assert.Equal(t, outcome.Aborted, res.Status)
	assert.Nil(t, res.Data)
}

func TestSTU3ToR4HasAnswer(t *testing.T) {
	doc := decode(t, `{
		"resourceType": "Questionnaire",
		"item": [
			{"linkId": "a", "type": "boolean"},
			{"linkId": "b", "type": "string", "enableWhen": [{"question": "a", "hasAnswer": true}]}
		]
	}`)

	res := STU3ToR4(doc, Options{})
	assert.Equal(t, outcome.Success, res.Status)
	assert.Empty(t, res.Messages)

	ew := res.Data.Item[1].EnableWhen
	require.Len(t, ew, 1)
	assert.Equal(t, "a", ew[0].Question)
	assert.Equal(t, questionnaire.OperatorExists, ew[0].Operator)
	assert.Nil(t, ew[0].HasAnswer)
	assert.Equal(t, questionnaire.KindBoolean, ew[0].Answer.Kind())
	assert.True(t, ew[0].Answer.Bool())

	// input untouched
	assert.NotNil(t, doc.Item[1].EnableWhen[0].HasAnswer)
	assert.Empty(t, doc.Item[1].EnableWhen[0].Operator)
}

func TestSTU3ToR4Fields(t *testing.T) {
	doc := decode(t, `{
		"resourceType": "Questionnaire",
		"id": "q",
		"meta": {"profile": ["http://hl7.org/fhir/3.0/StructureDefinition/Questionnaire", "http://example.org/p"]},
		"item": [
			{"linkId": "c", "type": "choice", "option": [{"valueString": "x"}],
			 "enableWhen": [{"question": "a", "answerString": "y"}, {"question": "b", "answerUri": "http://x"}]},
			{"linkId": "v", "type": "choice", "options": {"reference": "http://example.org/vs"}, "initialString": "z"},
			{"linkId": "r", "type": "choice", "options": {"reference": "#contained"}}
		]
	}`)

	res := STU3ToR4(doc, Options{})
	assert.Equal(t, outcome.Loss, res.Status)

	c := res.Data.Item[0]
	assert.Nil(t, c.Option)
	require.Len(t, c.AnswerOption, 1)
	assert.Equal(t, "x", c.AnswerOption[0].Value.Text())
	require.Len(t, c.EnableWhen, 1, "uri answer cannot be expressed in R4")
	assert.Equal(t, questionnaire.OperatorEqual, c.EnableWhen[0].Operator)
	assert.Empty(t, c.EnableBehavior, "single condition needs no behavior")
	assert.Len(t, res.For("c"), 1)

	v := res.Data.Item[1]
	assert.Equal(t, "http://example.org/vs", v.AnswerValueSet)
	assert.Nil(t, v.Options)
	assert.Nil(t, v.InitialValue)
	require.Len(t, v.Initial, 1)
	assert.Equal(t, "z", v.Initial[0].Value.Text())

	r := res.Data.Item[2]
	assert.Empty(t, r.AnswerValueSet)
	assert.Nil(t, r.Options)
	require.Len(t, res.For("r"), 1)
	assert.Equal(t, outcome.Loss, res.For("r")[0].Status)

	assert.Equal(t, []string{qconvert.R4.ProfileURL(), "http://example.org/p"}, res.Data.Meta.Profile)
}

func TestSTU3ToR4EnableBehavior(t *testing.T) {
	doc := decode(t, `{
		"resourceType": "Questionnaire",
		"item": [{"linkId": "x", "type": "string", "enableWhen": [
			{"question": "a", "hasAnswer": false},
			{"question": "b", "answerInteger": 3}
		]}]
	}`)

	res := STU3ToR4(doc, Options{})
	assert.Equal(t, "any", res.Data.Item[0].EnableBehavior)
	assert.False(t, res.Data.Item[0].EnableWhen[0].Answer.Bool())
}

func TestR4ToSTU3DropsOperator(t *testing.T) {
	doc := decode(t, `{
		"resourceType": "Questionnaire",
		"item": [
			{"linkId": "age", "type": "integer"},
			{"linkId": "adult", "type": "boolean", "enableWhen": [{"question": "age", "operator": ">", "answerInteger": 17}]}
		]
	}`)

	res := R4ToSTU3(doc, Options{})
	assert.Equal(t, outcome.Loss, res.Status)
	require.Len(t, res.Messages, 1)
	assert.Equal(t, "adult", res.Messages[0].CtxID)
	assert.Equal(t, outcome.Loss, res.Messages[0].Status)
	assert.Empty(t, res.Data.Item[1].EnableWhen)
}

func TestR4ToSTU3Fields(t *testing.T) {
	doc := decode(t, `{
		"resourceType": "Questionnaire",
		"derivedFrom": ["http://example.org/Questionnaire/base"],
		"item": [{
			"linkId": "c",
			"type": "choice",
			"enableBehavior": "all",
			"enableWhen": [
				{"question": "a", "operator": "exists", "answerBoolean": false},
				{"question": "b", "operator": "=", "answerString": "y"}
			],
			"answerOption": [
				{"valueString": "x", "initialSelected": true},
				{"valueReference": {"reference": "Patient/1"}}
			],
			"initial": [{"valueString": "x"}, {"valueString": "y"}]
		}, {
			"linkId": "vs", "type": "choice", "answerValueSet": "http://example.org/vs"
		}]
	}`)

	res := R4ToSTU3(doc, Options{})
	assert.Equal(t, outcome.Loss, res.Status)
	assert.Nil(t, res.Data.DerivedFrom)
	assert.Len(t, res.For("Questionnaire"), 1, "derivedFrom loss is reported against the document")

	c := res.Data.Item[0]
	assert.Empty(t, c.EnableBehavior)
	require.Len(t, c.EnableWhen, 2)
	require.NotNil(t, c.EnableWhen[0].HasAnswer)
	assert.False(t, *c.EnableWhen[0].HasAnswer)
	assert.Nil(t, c.EnableWhen[0].Answer)
	assert.Empty(t, c.EnableWhen[1].Operator)
	assert.Equal(t, "y", c.EnableWhen[1].Answer.Text())

	assert.Nil(t, c.AnswerOption)
	require.Len(t, c.Option, 1)
	assert.Nil(t, c.Option[0].InitialSelected)
	assert.Nil(t, c.Initial)
	assert.Equal(t, "x", c.InitialValue.Text())
	// behavior all, initialSelected, reference option, multiple initials
	assert.Len(t, res.For("c"), 4)

	vs := res.Data.Item[1]
	require.NotNil(t, vs.Options)
	assert.Equal(t, "http://example.org/vs", vs.Options.Reference)
	assert.Empty(t, vs.AnswerValueSet)
}

func TestDerivedFromRoundTrip(t *testing.T) {
	doc := decode(t, `{
		"resourceType": "Questionnaire",
		"derivedFrom": ["http://example.org/a", "http://example.org/b"]
	}`)

	down := R4ToSTU3(doc, Options{PreserveExtensions: true})
	assert.Equal(t, outcome.Success, down.Status)
	assert.Nil(t, down.Data.DerivedFrom)
	assert.Len(t, down.Data.Extension, 2)

	up := STU3ToR4(down.Data, Options{PreserveExtensions: true})
	assert.Equal(t, []string{"http://example.org/a", "http://example.org/b"}, up.Data.DerivedFrom)
	noExtensions(t, up.Data, qconvert.R4)
}

func TestR4ToR5ChoiceTypes(t *testing.T) {
	doc := decode(t, `{
		"resourceType": "Questionnaire",
		"item": [
			{"linkId": "c", "type": "choice", "answerOption": [{"valueString": "a"}]},
			{"linkId": "o", "type": "open-choice", "answerValueSet": "http://example.org/vs"}
		]
	}`)

	res := R4ToR5(doc, Options{})
	assert.Equal(t, outcome.Success, res.Status)
	assert.Equal(t, questionnaire.TypeCoding, res.Data.Item[0].Type)
	assert.Empty(t, res.Data.Item[0].AnswerConstraint)
	assert.Len(t, res.Data.Item[0].AnswerOption, 1)
	assert.Equal(t, questionnaire.TypeCoding, res.Data.Item[1].Type)
	assert.Equal(t, questionnaire.ConstraintOptionsOrString, res.Data.Item[1].AnswerConstraint)
}

func TestR5ToR4OptionsOrType(t *testing.T) {
	doc := decode(t, `{
		"resourceType": "Questionnaire",
		"item": [{
			"linkId": "q",
			"type": "coding",
			"answerConstraint": "optionsOrType",
			"answerOption": [{"valueCoding": {"system": "http://example.org", "code": "a"}}]
		}]
	}`)

	res := R5ToR4(doc, Options{})
	assert.Equal(t, outcome.Warning, res.Status)
	require.Len(t, res.Messages, 1)
	assert.Equal(t, outcome.Warning, res.Messages[0].Status)
	assert.Equal(t, "q", res.Messages[0].CtxID)

	it := res.Data.Item[0]
	assert.Equal(t, questionnaire.TypeOpenChoice, it.Type)
	assert.Empty(t, it.AnswerConstraint)
}

func TestR5ToR4Constraints(t *testing.T) {
	doc := decode(t, `{
		"resourceType": "Questionnaire",
		"item": [
			{"linkId": "only", "type": "coding", "answerConstraint": "optionsOnly", "answerValueSet": "http://example.org/vs"},
			{"linkId": "str", "type": "coding", "answerConstraint": "optionsOrString", "answerValueSet": "http://example.org/vs"},
			{"linkId": "bare", "type": "string", "answerConstraint": "optionsOrString"},
			{"linkId": "typed", "type": "integer", "answerConstraint": "optionsOrType", "answerOption": [{"valueInteger": 1}]}
		]
	}`)

	res := R5ToR4(doc, Options{})
	assert.Equal(t, outcome.Loss, res.Status)

	assert.Equal(t, questionnaire.TypeChoice, res.Data.Item[0].Type)
	assert.Empty(t, res.For("only"))
	assert.Equal(t, questionnaire.TypeOpenChoice, res.Data.Item[1].Type)
	assert.Empty(t, res.For("str"))
	require.Len(t, res.For("bare"), 1)
	assert.Equal(t, outcome.Loss, res.For("bare")[0].Status)
	require.Len(t, res.For("typed"), 1)
	assert.Equal(t, outcome.Loss, res.For("typed")[0].Status)

	for _, it := range res.Data.Item {
		assert.Empty(t, it.AnswerConstraint, it.LinkID)
	}
}

const r5Sample = `{
	"resourceType": "Questionnaire",
	"id": "r5",
	"meta": {"profile": ["http://hl7.org/fhir/5.0/StructureDefinition/Questionnaire"]},
	"versionAlgorithmCoding": {"system": "http://hl7.org/fhir/version-algorithm", "code": "semver"},
	"copyrightLabel": "(c) Example 2024",
	"item": [
		{"linkId": "g", "type": "group", "item": [
			{"linkId": "q", "type": "coding", "answerConstraint": "optionsOrType", "disabledDisplay": "protected",
			 "answerOption": [{"valueCoding": {"code": "a"}}]}
		]},
		{"linkId": "plain", "type": "string", "text": "Name"}
	]
}`

func TestR5ExtensionRoundTrip(t *testing.T) {
	doc := decode(t, r5Sample)
	opts := Options{PreserveExtensions: true}

	down := R5ToR4(doc, opts)
	require.NotNil(t, down.Data)
	assert.Nil(t, down.Data.VersionAlgorithm)
	assert.Empty(t, down.Data.CopyrightLabel)
	assert.Len(t, down.Data.Extension, 2)
	q := down.Data.Item[0].Item[0]
	assert.Empty(t, q.AnswerConstraint)
	assert.Empty(t, q.DisabledDisplay)
	assert.Len(t, q.Extension, 2)

	up := R4ToR5(down.Data, opts)
	assert.Equal(t, qconvert.R5.ProfileURL(), up.Data.Meta.Profile[0])
	assert.Equal(t, doc.VersionAlgorithm.Coding(), up.Data.VersionAlgorithm.Coding())
	assert.Equal(t, "(c) Example 2024", up.Data.CopyrightLabel)
	q = up.Data.Item[0].Item[0]
	assert.Equal(t, questionnaire.TypeCoding, q.Type)
	assert.Equal(t, questionnaire.ConstraintOptionsOrType, q.AnswerConstraint)
	assert.Equal(t, "protected", q.DisabledDisplay)
	noExtensions(t, up.Data, qconvert.R5)
}

func TestR5ToR4WithoutPreservation(t *testing.T) {
	res := R5ToR4(decode(t, r5Sample), Options{})

	assert.Equal(t, outcome.Loss, res.Status)
	assert.Empty(t, res.Data.Extension)
	// versionAlgorithm and copyrightLabel
	assert.Len(t, res.For("r5"), 2)
	// best-effort type plus disabledDisplay
	assert.Len(t, res.For("q"), 2)
	assert.Equal(t, 1, res.Count(outcome.Warning))
}

func TestPlainItemRoundTrip(t *testing.T) {
	doc := decode(t, r5Sample)
	plain := doc.Item[1]

	pairs := [][2]Func{
		{R5ToR4, R4ToR5},
		{R5ToR4B, R4BToR5},
	}
	for _, p := range pairs {
		mid := p[0](doc, Options{})
		back := p[1](mid.Data, Options{})
		got := back.Data.Item[1]
		assert.Equal(t, plain.LinkID, got.LinkID)
		assert.Equal(t, plain.Type, got.Type)
		assert.Equal(t, plain.Text, got.Text)
	}

	r4 := decode(t, `{"resourceType": "Questionnaire", "item": [{"linkId": "n", "type": "string", "text": "Name"}]}`)
	back := STU3ToR4(R4ToSTU3(r4, Options{}).Data, Options{})
	assert.Equal(t, outcome.Success, back.Status)
	assert.Equal(t, r4.Item, back.Data.Item)
}

func TestIdentityStep(t *testing.T) {
	doc := decode(t, `{
		"resourceType": "Questionnaire",
		"meta": {"profile": ["http://hl7.org/fhir/4.0/StructureDefinition/Questionnaire"]},
		"extension": [{"url": "http://hl7.org/fhir/4.3/StructureDefinition/extension-Questionnaire.foo", "valueString": "x"}],
		"item": [{"linkId": "a", "type": "choice"}]
	}`)

	res := R4ToR4B(doc, Options{})
	assert.Equal(t, outcome.Success, res.Status)
	assert.Equal(t, []string{qconvert.R4B.ProfileURL()}, res.Data.Meta.Profile)
	assert.Empty(t, res.Data.Extension)
	assert.Equal(t, doc.Item, res.Data.Item)

	back := R4BToR4(res.Data, Options{})
	assert.Equal(t, []string{qconvert.R4.ProfileURL()}, back.Data.Meta.Profile)
}

func TestCoreProfilesCollapse(t *testing.T) {
	doc := decode(t, `{
		"resourceType": "Questionnaire",
		"meta": {"profile": [
			"http://hl7.org/fhir/4.0/StructureDefinition/Questionnaire",
			"http://hl7.org/fhir/4.3/StructureDefinition/Questionnaire"
		]}
	}`)

	res := R4ToR5(doc, Options{})
	assert.Equal(t, []string{qconvert.R5.ProfileURL()}, res.Data.Meta.Profile)
}
