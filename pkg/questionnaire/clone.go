package questionnaire

import "github.com/gofhir/fhir/r4"

// Clone returns a deep copy of the document. Conversion steps work on a
// clone and never write through to the caller's tree.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	return &Document{
		ResourceType:     d.ResourceType,
		ID:               d.ID,
		Meta:             d.Meta.Clone(),
		Extension:        CloneExtensions(d.Extension),
		DerivedFrom:      cloneStrings(d.DerivedFrom),
		VersionAlgorithm: d.VersionAlgorithm.Clone(),
		CopyrightLabel:   d.CopyrightLabel,
		Item:             CloneItems(d.Item),
		Extra:            d.Extra.Clone(),
	}
}

// Clone returns a deep copy of the meta element.
func (m *Meta) Clone() *Meta {
	if m == nil {
		return nil
	}
	out := &Meta{
		Profile: cloneStrings(m.Profile),
		Extra:   m.Extra.Clone(),
	}
	if m.Tag != nil {
		out.Tag = make([]r4.Coding, len(m.Tag))
		for i, t := range m.Tag {
			out.Tag[i] = cloneCoding(t)
		}
	}
	return out
}

// Clone returns a deep copy of the item and its descendants.
func (it Item) Clone() Item {
	out := it
	out.EnableWhen = cloneEnableWhens(it.EnableWhen)
	out.Option = CloneOptions(it.Option)
	if it.Options != nil {
		out.Options = &ValueSetRef{Reference: it.Options.Reference, Extra: it.Options.Extra.Clone()}
	}
	out.AnswerOption = CloneOptions(it.AnswerOption)
	out.InitialValue = it.InitialValue.Clone()
	if it.Initial != nil {
		out.Initial = make([]Initial, len(it.Initial))
		for i, in := range it.Initial {
			out.Initial[i] = Initial{Value: in.Value.Clone(), Extra: in.Extra.Clone()}
		}
	}
	out.Extension = CloneExtensions(it.Extension)
	out.Item = CloneItems(it.Item)
	out.Extra = it.Extra.Clone()
	return out
}

// CloneItems deep-copies an item list.
func CloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	for i := range items {
		out[i] = items[i].Clone()
	}
	return out
}

// CloneOptions deep-copies an answer option list.
func CloneOptions(opts []AnswerOption) []AnswerOption {
	if opts == nil {
		return nil
	}
	out := make([]AnswerOption, len(opts))
	for i, o := range opts {
		out[i] = AnswerOption{
			Value:           o.Value.Clone(),
			InitialSelected: cloneBool(o.InitialSelected),
			Extension:       CloneExtensions(o.Extension),
			Extra:           o.Extra.Clone(),
		}
	}
	return out
}

// CloneExtensions deep-copies an extension list.
func CloneExtensions(exts []Extension) []Extension {
	if exts == nil {
		return nil
	}
	out := make([]Extension, len(exts))
	for i, e := range exts {
		out[i] = Extension{URL: e.URL, Value: e.Value.Clone(), Extra: e.Extra.Clone()}
	}
	return out
}

func cloneEnableWhens(in []EnableWhen) []EnableWhen {
	if in == nil {
		return nil
	}
	out := make([]EnableWhen, len(in))
	for i, ew := range in {
		out[i] = EnableWhen{
			Question:  ew.Question,
			Operator:  ew.Operator,
			HasAnswer: cloneBool(ew.HasAnswer),
			Answer:    ew.Answer.Clone(),
			Extra:     ew.Extra.Clone(),
		}
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}
