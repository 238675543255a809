package questionnaire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/buger/jsonparser"
)

// ErrNotObject is returned when the input is not a JSON object.
var ErrNotObject = errors.New("resource JSON must be an object")

// Decode parses a resource from JSON.
func Decode(data []byte) (*Document, error) {
	doc := &Document{}
	if err := doc.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return doc, nil
}

// ResourceType returns the resourceType property of raw JSON without a full
// decode; empty when absent.
func ResourceType(data []byte) string {
	s, err := jsonparser.GetString(data, "resourceType")
	if err != nil {
		return ""
	}
	return s
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Document) UnmarshalJSON(data []byte) error {
	if err := requireObject(data); err != nil {
		return err
	}
	*d = Document{ResourceType: ResourceType(data)}
	return eachProperty(data, func(key string, value []byte, dt jsonparser.ValueType) error {
		var err error
		switch key {
		case "resourceType":
			d.ResourceType, err = parseString(value, dt)
		case "id":
			d.ID, err = parseString(value, dt)
		case "meta":
			d.Meta = &Meta{}
			err = d.Meta.decode(value)
		case "extension":
			d.Extension, err = decodeExtensions(value)
		}
		if err != nil || isHeaderKey(key) {
			return wrapField(key, err)
		}

		if d.ResourceType != ResourceTypeQuestionnaire {
			return d.keep(key, value, dt)
		}
		switch key {
		case "derivedFrom":
			d.DerivedFrom, err = decodeStrings(value)
		case "copyrightLabel":
			d.CopyrightLabel, err = parseString(value, dt)
		case "item":
			d.Item, err = decodeItems(value)
		default:
			if kind, ok := ParseChoiceKey("versionAlgorithm", key); ok {
				d.VersionAlgorithm, err = decodeValue(kind, value, dt)
				break
			}
			return d.keep(key, value, dt)
		}
		return wrapField(key, err)
	})
}

func (d *Document) keep(key string, value []byte, dt jsonparser.ValueType) error {
	raw, err := rawOf(value, dt)
	if err != nil {
		return wrapField(key, err)
	}
	d.Extra.Set(key, raw)
	return nil
}

// isHeaderKey lists the properties every resource kind shares.
func isHeaderKey(key string) bool {
	switch key {
	case "resourceType", "id", "meta", "extension":
		return true
	}
	return false
}

func (m *Meta) decode(data []byte) error {
	return eachProperty(data, func(key string, value []byte, dt jsonparser.ValueType) error {
		var err error
		switch key {
		case "profile":
			m.Profile, err = decodeStrings(value)
		case "tag":
			err = json.Unmarshal(value, &m.Tag)
		default:
			var raw json.RawMessage
			if raw, err = rawOf(value, dt); err == nil {
				m.Extra.Set(key, raw)
			}
		}
		return wrapField(key, err)
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (it *Item) UnmarshalJSON(data []byte) error {
	if err := requireObject(data); err != nil {
		return err
	}
	*it = Item{}
	return it.decode(data)
}

func decodeItems(data []byte) ([]Item, error) {
	var items []Item
	err := eachElement(data, func(value []byte, _ jsonparser.ValueType) error {
		var it Item
		if err := it.decode(value); err != nil {
			return err
		}
		items = append(items, it)
		return nil
	})
	return items, err
}

func (it *Item) decode(data []byte) error {
	return eachProperty(data, func(key string, value []byte, dt jsonparser.ValueType) error {
		var err error
		switch key {
		case "linkId":
			it.LinkID, err = parseString(value, dt)
		case "type":
			it.Type, err = parseString(value, dt)
		case "text":
			it.Text, err = parseString(value, dt)
		case "enableWhen":
			it.EnableWhen, err = decodeEnableWhens(value)
		case "enableBehavior":
			it.EnableBehavior, err = parseString(value, dt)
		case "option":
			it.Option, err = decodeOptions(value)
		case "options":
			it.Options = &ValueSetRef{}
			err = it.Options.decode(value)
		case "answerOption":
			it.AnswerOption, err = decodeOptions(value)
		case "answerValueSet":
			it.AnswerValueSet, err = parseString(value, dt)
		case "answerConstraint":
			it.AnswerConstraint, err = parseString(value, dt)
		case "initial":
			it.Initial, err = decodeInitials(value)
		case "disabledDisplay":
			it.DisabledDisplay, err = parseString(value, dt)
		case "extension":
			it.Extension, err = decodeExtensions(value)
		case "item":
			it.Item, err = decodeItems(value)
		default:
			if kind, ok := ParseChoiceKey("initial", key); ok {
				it.InitialValue, err = decodeValue(kind, value, dt)
				break
			}
			var raw json.RawMessage
			if raw, err = rawOf(value, dt); err == nil {
				it.Extra.Set(key, raw)
			}
		}
		return wrapField(key, err)
	})
}

func decodeEnableWhens(data []byte) ([]EnableWhen, error) {
	var out []EnableWhen
	err := eachElement(data, func(value []byte, _ jsonparser.ValueType) error {
		var ew EnableWhen
		err := eachProperty(value, func(key string, v []byte, dt jsonparser.ValueType) error {
			var err error
			switch key {
			case "question":
				ew.Question, err = parseString(v, dt)
			case "operator":
				ew.Operator, err = parseString(v, dt)
			case "hasAnswer":
				var b bool
				if b, err = jsonparser.ParseBoolean(v); err == nil {
					ew.HasAnswer = &b
				}
			default:
				if kind, ok := ParseChoiceKey("answer", key); ok {
					ew.Answer, err = decodeValue(kind, v, dt)
					break
				}
				var raw json.RawMessage
				if raw, err = rawOf(v, dt); err == nil {
					ew.Extra.Set(key, raw)
				}
			}
			return wrapField(key, err)
		})
		if err != nil {
			return err
		}
		out = append(out, ew)
		return nil
	})
	return out, err
}

func decodeOptions(data []byte) ([]AnswerOption, error) {
	var out []AnswerOption
	err := eachElement(data, func(value []byte, _ jsonparser.ValueType) error {
		var opt AnswerOption
		err := eachProperty(value, func(key string, v []byte, dt jsonparser.ValueType) error {
			var err error
			switch key {
			case "initialSelected":
				var b bool
				if b, err = jsonparser.ParseBoolean(v); err == nil {
					opt.InitialSelected = &b
				}
			case "extension":
				opt.Extension, err = decodeExtensions(v)
			default:
				if kind, ok := ParseChoiceKey("value", key); ok {
					opt.Value, err = decodeValue(kind, v, dt)
					break
				}
				var raw json.RawMessage
				if raw, err = rawOf(v, dt); err == nil {
					opt.Extra.Set(key, raw)
				}
			}
			return wrapField(key, err)
		})
		if err != nil {
			return err
		}
		out = append(out, opt)
		return nil
	})
	return out, err
}

func decodeInitials(data []byte) ([]Initial, error) {
	var out []Initial
	err := eachElement(data, func(value []byte, _ jsonparser.ValueType) error {
		var in Initial
		err := eachProperty(value, func(key string, v []byte, dt jsonparser.ValueType) error {
			if kind, ok := ParseChoiceKey("value", key); ok {
				var err error
				in.Value, err = decodeValue(kind, v, dt)
				return wrapField(key, err)
			}
			raw, err := rawOf(v, dt)
			if err != nil {
				return wrapField(key, err)
			}
			in.Extra.Set(key, raw)
			return nil
		})
		if err != nil {
			return err
		}
		out = append(out, in)
		return nil
	})
	return out, err
}

func (r *ValueSetRef) decode(data []byte) error {
	return eachProperty(data, func(key string, value []byte, dt jsonparser.ValueType) error {
		if key == "reference" {
			var err error
			r.Reference, err = parseString(value, dt)
			return wrapField(key, err)
		}
		raw, err := rawOf(value, dt)
		if err != nil {
			return wrapField(key, err)
		}
		r.Extra.Set(key, raw)
		return nil
	})
}

func decodeExtensions(data []byte) ([]Extension, error) {
	var out []Extension
	err := eachElement(data, func(value []byte, _ jsonparser.ValueType) error {
		var ext Extension
		err := eachProperty(value, func(key string, v []byte, dt jsonparser.ValueType) error {
			var err error
			switch key {
			case "url":
				ext.URL, err = parseString(v, dt)
			default:
				if kind, ok := ParseChoiceKey("value", key); ok {
					ext.Value, err = decodeValue(kind, v, dt)
					break
				}
				var raw json.RawMessage
				if raw, err = rawOf(v, dt); err == nil {
					ext.Extra.Set(key, raw)
				}
			}
			return wrapField(key, err)
		})
		if err != nil {
			return err
		}
		out = append(out, ext)
		return nil
	})
	return out, err
}

func decodeStrings(data []byte) ([]string, error) {
	var out []string
	err := eachElement(data, func(value []byte, dt jsonparser.ValueType) error {
		s, err := parseString(value, dt)
		if err != nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	return out, err
}

// --- jsonparser helpers ---

func requireObject(data []byte) error {
	_, dt, _, err := jsonparser.Get(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotObject, err)
	}
	if dt != jsonparser.Object {
		return ErrNotObject
	}
	return nil
}

func eachProperty(data []byte, fn func(key string, value []byte, dt jsonparser.ValueType) error) error {
	return jsonparser.ObjectEach(data, func(key, value []byte, dt jsonparser.ValueType, _ int) error {
		if dt == jsonparser.Null {
			return nil
		}
		return fn(string(key), value, dt)
	})
}

func eachElement(data []byte, fn func(value []byte, dt jsonparser.ValueType) error) error {
	var firstErr error
	_, err := jsonparser.ArrayEach(data, func(value []byte, dt jsonparser.ValueType, _ int, err error) {
		if firstErr != nil {
			return
		}
		if err != nil {
			firstErr = err
			return
		}
		firstErr = fn(value, dt)
	})
	if firstErr != nil {
		return firstErr
	}
	return err
}

func parseString(value []byte, dt jsonparser.ValueType) (string, error) {
	if dt != jsonparser.String {
		return "", fmt.Errorf("expected string, got %s", dt)
	}
	return jsonparser.ParseString(value)
}

// rawOf rebuilds the JSON text of a property. jsonparser hands out string
// contents without their quotes.
func rawOf(value []byte, dt jsonparser.ValueType) (json.RawMessage, error) {
	if dt == jsonparser.String {
		s, err := jsonparser.ParseString(value)
		if err != nil {
			return nil, err
		}
		return json.Marshal(s)
	}
	return bytes.Clone(value), nil
}

func wrapField(key string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", key, err)
}
