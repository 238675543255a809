package questionnaire

import (
	"bytes"
	"encoding/json"
)

// Encode renders the document as indented JSON.
func Encode(d *Document) ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// objectWriter appends properties to a JSON object in call order.
type objectWriter struct {
	buf bytes.Buffer
	n   int
	err error
}

func newObjectWriter() *objectWriter {
	w := &objectWriter{}
	w.buf.WriteByte('{')
	return w
}

func (w *objectWriter) raw(key string, raw []byte) {
	if w.err != nil {
		return
	}
	if w.n > 0 {
		w.buf.WriteByte(',')
	}
	k, _ := json.Marshal(key)
	w.buf.Write(k)
	w.buf.WriteByte(':')
	w.buf.Write(raw)
	w.n++
}

func (w *objectWriter) value(key string, v any) {
	if w.err != nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		w.err = err
		return
	}
	w.raw(key, raw)
}

func (w *objectWriter) str(key, s string) {
	if s != "" {
		w.value(key, s)
	}
}

func (w *objectWriter) boolPtr(key string, b *bool) {
	if b != nil {
		w.value(key, *b)
	}
}

func (w *objectWriter) choice(prefix string, v *Value) {
	if v.Kind() == KindNone {
		return
	}
	w.value(v.FieldName(prefix), v)
}

func (w *objectWriter) list(key string, n int, v any) {
	if n > 0 {
		w.value(key, v)
	}
}

func (w *objectWriter) extra(f Fields) {
	for _, k := range f.keys {
		w.raw(k, f.vals[k])
	}
}

func (w *objectWriter) bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	w.buf.WriteByte('}')
	return w.buf.Bytes(), nil
}

// MarshalJSON implements json.Marshaler.
func (d Document) MarshalJSON() ([]byte, error) {
	w := newObjectWriter()
	w.str("resourceType", d.ResourceType)
	w.str("id", d.ID)
	if d.Meta != nil {
		w.value("meta", d.Meta)
	}
	w.list("extension", len(d.Extension), d.Extension)
	w.extra(d.Extra)
	w.choice("versionAlgorithm", d.VersionAlgorithm)
	w.list("derivedFrom", len(d.DerivedFrom), d.DerivedFrom)
	w.str("copyrightLabel", d.CopyrightLabel)
	w.list("item", len(d.Item), d.Item)
	return w.bytes()
}

// MarshalJSON implements json.Marshaler.
func (m Meta) MarshalJSON() ([]byte, error) {
	w := newObjectWriter()
	w.extra(m.Extra)
	w.list("profile", len(m.Profile), m.Profile)
	w.list("tag", len(m.Tag), m.Tag)
	return w.bytes()
}

// MarshalJSON implements json.Marshaler.
func (it Item) MarshalJSON() ([]byte, error) {
	w := newObjectWriter()
	w.list("extension", len(it.Extension), it.Extension)
	w.str("linkId", it.LinkID)
	w.str("text", it.Text)
	w.str("type", it.Type)
	w.list("enableWhen", len(it.EnableWhen), it.EnableWhen)
	w.str("enableBehavior", it.EnableBehavior)
	w.str("disabledDisplay", it.DisabledDisplay)
	w.extra(it.Extra)
	w.str("answerConstraint", it.AnswerConstraint)
	w.str("answerValueSet", it.AnswerValueSet)
	w.list("answerOption", len(it.AnswerOption), it.AnswerOption)
	if it.Options != nil {
		w.value("options", it.Options)
	}
	w.list("option", len(it.Option), it.Option)
	w.choice("initial", it.InitialValue)
	w.list("initial", len(it.Initial), it.Initial)
	w.list("item", len(it.Item), it.Item)
	return w.bytes()
}

// MarshalJSON implements json.Marshaler.
func (ew EnableWhen) MarshalJSON() ([]byte, error) {
	w := newObjectWriter()
	w.str("question", ew.Question)
	w.boolPtr("hasAnswer", ew.HasAnswer)
	w.str("operator", ew.Operator)
	w.choice("answer", ew.Answer)
	w.extra(ew.Extra)
	return w.bytes()
}

// MarshalJSON implements json.Marshaler.
func (o AnswerOption) MarshalJSON() ([]byte, error) {
	w := newObjectWriter()
	w.list("extension", len(o.Extension), o.Extension)
	w.choice("value", o.Value)
	w.boolPtr("initialSelected", o.InitialSelected)
	w.extra(o.Extra)
	return w.bytes()
}

// MarshalJSON implements json.Marshaler.
func (in Initial) MarshalJSON() ([]byte, error) {
	w := newObjectWriter()
	w.choice("value", in.Value)
	w.extra(in.Extra)
	return w.bytes()
}

// MarshalJSON implements json.Marshaler.
func (r ValueSetRef) MarshalJSON() ([]byte, error) {
	w := newObjectWriter()
	w.str("reference", r.Reference)
	w.extra(r.Extra)
	return w.bytes()
}

// MarshalJSON implements json.Marshaler.
func (e Extension) MarshalJSON() ([]byte, error) {
	w := newObjectWriter()
	w.str("url", e.URL)
	w.extra(e.Extra)
	w.choice("value", e.Value)
	return w.bytes()
}
