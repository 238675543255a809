package questionnaire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/gofhir/fhir/r4"
	"github.com/shopspring/decimal"
)

// Kind identifies the member of a choice-type ([x]) value.
type Kind int

// Value kinds used by Questionnaire choice elements across STU3..R5.
const (
	KindNone Kind = iota
	KindBoolean
	KindDecimal
	KindInteger
	KindDate
	KindDateTime
	KindTime
	KindString
	KindURI
	KindCode
	KindCanonical
	KindCoding
	KindQuantity
	KindReference
	KindAttachment
)

// kindSuffixes are the JSON property suffixes, indexed by Kind.
var kindSuffixes = [...]string{
	KindNone:       "",
	KindBoolean:    "Boolean",
	KindDecimal:    "Decimal",
	KindInteger:    "Integer",
	KindDate:       "Date",
	KindDateTime:   "DateTime",
	KindTime:       "Time",
	KindString:     "String",
	KindURI:        "Uri",
	KindCode:       "Code",
	KindCanonical:  "Canonical",
	KindCoding:     "Coding",
	KindQuantity:   "Quantity",
	KindReference:  "Reference",
	KindAttachment: "Attachment",
}

// Suffix returns the JSON suffix of the kind ("Coding", "Uri", ...).
func (k Kind) Suffix() string {
	if k < 0 || int(k) >= len(kindSuffixes) {
		return ""
	}
	return kindSuffixes[k]
}

// String returns the FHIR type name of the kind.
func (k Kind) String() string {
	s := k.Suffix()
	if s == "" {
		return "none"
	}
	switch k {
	case KindCoding, KindQuantity, KindReference, KindAttachment:
		return s
	case KindURI:
		return "uri"
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// textual reports whether the kind is carried as a JSON string.
func (k Kind) textual() bool {
	switch k {
	case KindDate, KindDateTime, KindTime, KindString, KindURI, KindCode, KindCanonical:
		return true
	}
	return false
}

// opaque reports whether the kind is kept as raw JSON.
func (k Kind) opaque() bool {
	return k == KindQuantity || k == KindReference || k == KindAttachment
}

// ParseChoiceKey splits a property name such as "answerCoding" into its kind
// given the element prefix ("answer"). It returns false when key does not
// belong to prefix.
func ParseChoiceKey(prefix, key string) (Kind, bool) {
	if !strings.HasPrefix(key, prefix) || len(key) == len(prefix) {
		return KindNone, false
	}
	suffix := key[len(prefix):]
	for k := KindBoolean; int(k) < len(kindSuffixes); k++ {
		if kindSuffixes[k] == suffix {
			return k, true
		}
	}
	return KindNone, false
}

// Value is a tagged union holding one member of a FHIR choice type. The
// union does not remember its JSON prefix: the same Value renders as
// "initialString" or "valueString" depending on where it is written.
type Value struct {
	kind   Kind
	text   string
	flag   bool
	num    int64
	dec    decimal.Decimal
	coding *r4.Coding
	raw    json.RawMessage
}

// NewBoolean returns a boolean value.
func NewBoolean(b bool) *Value {
	return &Value{kind: KindBoolean, flag: b}
}

// NewInteger returns an integer value.
func NewInteger(i int64) *Value {
	return &Value{kind: KindInteger, num: i}
}

// NewDecimal returns a decimal value.
func NewDecimal(d decimal.Decimal) *Value {
	return &Value{kind: KindDecimal, dec: d}
}

// NewString returns a string value.
func NewString(s string) *Value {
	return &Value{kind: KindString, text: s}
}

// NewCode returns a code value.
func NewCode(s string) *Value {
	return &Value{kind: KindCode, text: s}
}

// NewText returns a value of any string-carried kind (date, uri, ...).
func NewText(kind Kind, s string) (*Value, error) {
	if !kind.textual() {
		return nil, fmt.Errorf("kind %s is not carried as text", kind)
	}
	return &Value{kind: kind, text: s}, nil
}

// NewCoding returns a Coding value.
func NewCoding(c r4.Coding) *Value {
	cp := cloneCoding(c)
	return &Value{kind: KindCoding, coding: &cp}
}

// NewComplex returns a Quantity, Reference or Attachment value from raw JSON.
func NewComplex(kind Kind, raw json.RawMessage) (*Value, error) {
	if !kind.opaque() {
		return nil, fmt.Errorf("kind %s is not a complex kind", kind)
	}
	return &Value{kind: kind, raw: bytes.Clone(raw)}, nil
}

// Kind returns the member kind; KindNone for a nil value.
func (v *Value) Kind() Kind {
	if v == nil {
		return KindNone
	}
	return v.kind
}

// Text returns the payload of string-carried kinds.
func (v *Value) Text() string {
	if v == nil {
		return ""
	}
	return v.text
}

// Bool returns the payload of a boolean value.
func (v *Value) Bool() bool {
	return v != nil && v.flag
}

// Int returns the payload of an integer value.
func (v *Value) Int() int64 {
	if v == nil {
		return 0
	}
	return v.num
}

// Decimal returns the payload of a decimal value.
func (v *Value) Decimal() decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return v.dec
}

// Coding returns a copy of the Coding payload.
func (v *Value) Coding() r4.Coding {
	if v == nil || v.coding == nil {
		return r4.Coding{}
	}
	return cloneCoding(*v.coding)
}

// Raw returns the JSON of complex kinds.
func (v *Value) Raw() json.RawMessage {
	if v == nil {
		return nil
	}
	return v.raw
}

// FieldName returns the JSON property name for this value under prefix.
func (v *Value) FieldName(prefix string) string {
	return prefix + v.Kind().Suffix()
}

// Clone returns a deep copy.
func (v *Value) Clone() *Value {
	if v == nil {
		return nil
	}
	cp := *v
	if v.coding != nil {
		c := cloneCoding(*v.coding)
		cp.coding = &c
	}
	cp.raw = bytes.Clone(v.raw)
	return &cp
}

// MarshalJSON renders the bare member (without property name).
func (v *Value) MarshalJSON() ([]byte, error) {
	switch {
	case v == nil || v.kind == KindNone:
		return []byte("null"), nil
	case v.kind == KindBoolean:
		return []byte(strconv.FormatBool(v.flag)), nil
	case v.kind == KindInteger:
		return []byte(strconv.FormatInt(v.num, 10)), nil
	case v.kind == KindDecimal:
		return []byte(decimalText(v.dec)), nil
	case v.kind.textual():
		return json.Marshal(v.text)
	case v.kind == KindCoding:
		return json.Marshal(v.coding)
	default:
		return v.raw, nil
	}
}

// decimalText keeps the scale of the parsed value ("1.50" stays "1.50").
func decimalText(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}

// decodeValue parses the JSON member of the given kind.
func decodeValue(kind Kind, data []byte, dt jsonparser.ValueType) (*Value, error) {
	switch {
	case kind == KindBoolean:
		b, err := jsonparser.ParseBoolean(data)
		if err != nil {
			return nil, fmt.Errorf("boolean: %w", err)
		}
		return NewBoolean(b), nil
	case kind == KindInteger:
		i, err := jsonparser.ParseInt(data)
		if err != nil {
			return nil, fmt.Errorf("integer: %w", err)
		}
		return NewInteger(i), nil
	case kind == KindDecimal:
		d, err := decimal.NewFromString(string(data))
		if err != nil {
			return nil, fmt.Errorf("decimal: %w", err)
		}
		return NewDecimal(d), nil
	case kind.textual():
		s, err := parseString(data, dt)
		if err != nil {
			return nil, err
		}
		return &Value{kind: kind, text: s}, nil
	case kind == KindCoding:
		var c r4.Coding
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("coding: %w", err)
		}
		return &Value{kind: KindCoding, coding: &c}, nil
	case kind.opaque():
		if dt != jsonparser.Object {
			return nil, fmt.Errorf("%s must be an object", kind)
		}
		return &Value{kind: kind, raw: bytes.Clone(data)}, nil
	}
	return nil, fmt.Errorf("unsupported kind %d", kind)
}

func cloneCoding(c r4.Coding) r4.Coding {
	cp := c
	cp.System = cloneString(c.System)
	cp.Version = cloneString(c.Version)
	cp.Code = cloneString(c.Code)
	cp.Display = cloneString(c.Display)
	return cp
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
