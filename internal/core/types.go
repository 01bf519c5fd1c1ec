// Package core provides the business logic for the leak-lookup search pipeline:
// query caching, response flattening, pagination, selection tracking, and CSV export.
package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// ValueKind tags the scalar variant held by a FieldValue.
type ValueKind int

const (
	KindString ValueKind = iota
	KindNumber
	KindBool
	KindNull
	// KindJSON holds a nested object or array, kept as compact JSON text.
	// Upstream entries are supposed to be flat field maps, but nothing in the
	// contract guarantees it, so nested values are carried through verbatim.
	KindJSON
)

// FieldValue is a tagged scalar from an upstream data entry.
//
// Numbers keep their original JSON text so that exporting "0123" or "1e6"
// round-trips exactly instead of going through float64.
type FieldValue struct {
	Kind ValueKind
	Str  string // KindString
	Num  string // KindNumber, original token text
	Bool bool   // KindBool
	Raw  string // KindJSON, compact JSON text
}

// String renders the value for display and CSV output.
func (v FieldValue) String() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return v.Num
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindJSON:
		return v.Raw
	default:
		return ""
	}
}

// StringValue wraps s as a string-kinded FieldValue.
func StringValue(s string) FieldValue { return FieldValue{Kind: KindString, Str: s} }

// NumberValue wraps the JSON number text n as a number-kinded FieldValue.
func NumberValue(n string) FieldValue { return FieldValue{Kind: KindNumber, Num: n} }

// Field is one named value within a data entry.
type Field struct {
	Name  string
	Value FieldValue
}

// FieldMap is an ordered field-name → value mapping. Order matters: it is the
// order the upstream response listed the fields in, and the display layer
// preserves it.
type FieldMap []Field

// Get returns the value for name and whether it is present.
func (m FieldMap) Get(name string) (FieldValue, bool) {
	for _, f := range m {
		if f.Name == name {
			return f.Value, true
		}
	}
	return FieldValue{}, false
}

// MarshalJSON writes the map as a JSON object preserving field order.
func (m FieldMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		switch f.Value.Kind {
		case KindString:
			s, err := json.Marshal(f.Value.Str)
			if err != nil {
				return nil, err
			}
			buf.Write(s)
		case KindNumber:
			buf.WriteString(f.Value.Num)
		case KindBool:
			if f.Value.Bool {
				buf.WriteString("true")
			} else {
				buf.WriteString("false")
			}
		case KindNull:
			buf.WriteString("null")
		case KindJSON:
			buf.WriteString(f.Value.Raw)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON parses a JSON object into an ordered FieldMap.
func (m *FieldMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	fm, err := parseFieldMap(dec)
	if err != nil {
		return err
	}
	*m = fm
	return nil
}

// EntityGroup is one entity-type group from an upstream response: the type
// name, its data entries in response order, and an optional info-leak note.
type EntityGroup struct {
	Name     string
	Data     []FieldMap
	InfoLeak string
}

// RawResponse is the decoded upstream answer for one query. Groups preserve
// the iteration order of the response's "List" object; entry numbering during
// flattening depends on it.
type RawResponse struct {
	NumOfResults int
	Groups       []EntityGroup
}

// EntityRecord is one flattened row of a response.
//
// EntryNumber is the 1-based position of the record's source group within the
// response, shared by every record of that group. IDs are assigned
// sequentially during flattening and are unique within a batch.
type EntityRecord struct {
	ID          int64
	EntityType  string
	EntryNumber int
	Fields      FieldMap
	InfoLeak    string
}

// SearchPage is the read projection returned for one search request.
type SearchPage struct {
	Query        string
	TotalResults int
	Page         int
	TotalPages   int
	Records      []EntityRecord
	SelectedIDs  []int64
}

// ParseRawResponse decodes raw upstream JSON into a RawResponse, preserving
// the document order of entity-type groups and of fields within each entry.
// encoding/json's map decoding randomizes key order, so this walks the token
// stream instead.
func ParseRawResponse(raw []byte) (*RawResponse, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	if err := expectDelim(dec, '{'); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}

	resp := &RawResponse{}
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		switch key {
		case "NumOfResults":
			var n json.Number
			if err := dec.Decode(&n); err != nil {
				return nil, fmt.Errorf("NumOfResults: %w", err)
			}
			count, err := n.Int64()
			if err != nil {
				return nil, fmt.Errorf("NumOfResults: %w", err)
			}
			resp.NumOfResults = int(count)
		case "List":
			groups, err := parseGroups(dec)
			if err != nil {
				return nil, err
			}
			resp.Groups = groups
		default:
			if err := skipValue(dec); err != nil {
				return nil, err
			}
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	return resp, nil
}

// parseGroups reads the "List" object, one EntityGroup per key in document order.
func parseGroups(dec *json.Decoder) ([]EntityGroup, error) {
	// A null List is treated the same as an absent one.
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	if tok == nil {
		return nil, nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("List: expected object, got %v", tok)
	}

	var groups []EntityGroup
	for dec.More() {
		name, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		group, err := parseGroup(dec, name)
		if err != nil {
			return nil, fmt.Errorf("entity group %q: %w", name, err)
		}
		groups = append(groups, group)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	return groups, nil
}

func parseGroup(dec *json.Decoder, name string) (EntityGroup, error) {
	group := EntityGroup{Name: name}

	if err := expectDelim(dec, '{'); err != nil {
		return group, err
	}
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return group, err
		}
		switch key {
		case "Data":
			entries, err := parseEntries(dec)
			if err != nil {
				return group, err
			}
			group.Data = entries
		case "InfoLeak":
			var rv json.RawMessage
			if err := dec.Decode(&rv); err != nil {
				return group, err
			}
			group.InfoLeak = looseString(rv)
		default:
			if err := skipValue(dec); err != nil {
				return group, err
			}
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return group, err
	}
	return group, nil
}

func parseEntries(dec *json.Decoder) ([]FieldMap, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("Data: %w", err)
	}
	if tok == nil {
		return nil, nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, fmt.Errorf("Data: expected array, got %v", tok)
	}

	var entries []FieldMap
	for dec.More() {
		entry, err := parseFieldMap(dec)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}
	return entries, nil
}

// parseFieldMap reads one JSON object into an ordered FieldMap.
func parseFieldMap(dec *json.Decoder) (FieldMap, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, fmt.Errorf("data entry: %w", err)
	}

	var fields FieldMap
	for dec.More() {
		name, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		var rv json.RawMessage
		if err := dec.Decode(&rv); err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		value, err := classifyValue(rv)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		fields = append(fields, Field{Name: name, Value: value})
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	return fields, nil
}

// classifyValue converts one raw JSON value into a tagged FieldValue based on
// its leading byte.
func classifyValue(rv json.RawMessage) (FieldValue, error) {
	trimmed := bytes.TrimSpace(rv)
	if len(trimmed) == 0 {
		return FieldValue{Kind: KindNull}, nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return FieldValue{}, err
		}
		return FieldValue{Kind: KindString, Str: s}, nil
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err != nil {
			return FieldValue{}, err
		}
		return FieldValue{Kind: KindJSON, Raw: buf.String()}, nil
	case 't':
		return FieldValue{Kind: KindBool, Bool: true}, nil
	case 'f':
		return FieldValue{Kind: KindBool, Bool: false}, nil
	case 'n':
		return FieldValue{Kind: KindNull}, nil
	default:
		return FieldValue{Kind: KindNumber, Num: string(trimmed)}, nil
	}
}

// looseString renders a raw JSON value as a plain string: strings unquote,
// null becomes empty, anything else keeps its compact JSON text.
func looseString(rv json.RawMessage) string {
	v, err := classifyValue(rv)
	if err != nil {
		return string(bytes.TrimSpace(rv))
	}
	return v.String()
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return key, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return fmt.Errorf("unexpected end of JSON input")
		}
		return err
	}
	d, ok := tok.(json.Delim)
	if !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

// skipValue consumes and discards the next JSON value.
func skipValue(dec *json.Decoder) error {
	var rv json.RawMessage
	return dec.Decode(&rv)
}
