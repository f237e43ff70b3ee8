package voice

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ErrUnrecognizedShape is returned by the Parse functions when a raw
// response matches none of the known shapes.
var ErrUnrecognizedShape = errors.New("unrecognized response shape")

// Outputter is implemented by SDK response objects that carry their payload
// in an output field.
type Outputter interface {
	Output() any
}

// VoiceLister is implemented by payload objects exposing a voice list.
type VoiceLister interface {
	VoiceList() []any
}

// StatusReporter is implemented by payload objects exposing a status.
type StatusReporter interface {
	Status() string
}

// VoiceDescriber is implemented by voice-like objects inside a list.
// Implementations may also implement StatusReporter.
type VoiceDescriber interface {
	VoiceID() string
}

// ParseList normalizes a raw list-voices response. Shapes are tried in a
// fixed order: bare sequence, nested output, flat mapping.
func ParseList(raw any) ([]Record, error) {
	records, _, err := ParseListPage(raw)
	return records, err
}

// ParseListPage is ParseList that also returns how many items the page
// held before items without a voice id were dropped. Pagination decisions
// use that count.
func ParseListPage(raw any) ([]Record, int, error) {
	raw = decodeJSON(raw)

	if items, ok := asSequence(raw); ok {
		return recordsFrom(items), len(items), nil
	}
	if out, ok := outputOf(raw); ok {
		if items, ok := voiceListOf(out); ok {
			return recordsFrom(items), len(items), nil
		}
	}
	if items, ok := voiceListOf(raw); ok {
		return recordsFrom(items), len(items), nil
	}
	return nil, 0, fmt.Errorf("%w: %T", ErrUnrecognizedShape, raw)
}

// NormalizeList is ParseList without the error: unrecognized shapes yield
// an empty page.
func NormalizeList(raw any) []Record {
	records, err := ParseList(raw)
	if err != nil {
		return []Record{}
	}
	return records
}

// ParseStatus normalizes a raw query-voice response and also returns the
// raw status string it found.
func ParseStatus(raw any) (Status, string, error) {
	raw = decodeJSON(raw)

	if _, ok := asSequence(raw); ok {
		return StatusUnknown, "", fmt.Errorf("%w: sequence where a status was expected", ErrUnrecognizedShape)
	}
	if out, ok := outputOf(raw); ok {
		if s, ok := statusOf(out); ok {
			return ParseStatusString(s), s, nil
		}
	}
	if s, ok := statusOf(raw); ok {
		return ParseStatusString(s), s, nil
	}
	return StatusUnknown, "", fmt.Errorf("%w: %T", ErrUnrecognizedShape, raw)
}

// NormalizeStatus is ParseStatus without the error: unrecognized shapes
// yield StatusUnknown.
func NormalizeStatus(raw any) Status {
	s, _, _ := ParseStatus(raw)
	return s
}

// ParseVoiceID extracts the voice identifier returned by a create call. It
// accepts a plain or JSON-quoted string, a {voice_id} mapping, the same
// nested under output, or a VoiceDescriber.
func ParseVoiceID(raw any) (string, error) {
	raw = decodeJSON(raw)

	if out, ok := outputOf(raw); ok {
		if id := voiceIDOf(out); id != "" {
			return id, nil
		}
	}
	if id := voiceIDOf(raw); id != "" {
		return id, nil
	}
	return "", fmt.Errorf("%w: no voice id in %T", ErrUnrecognizedShape, raw)
}

func voiceIDOf(v any) string {
	if isNil(v) {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []byte:
		return strings.TrimSpace(string(t))
	case map[string]any:
		return stringField(t, "voice_id")
	case VoiceDescriber:
		return t.VoiceID()
	}
	return ""
}

// decodeJSON turns raw JSON text into generic values so byte-oriented
// backends need no shape knowledge. Anything else passes through.
func decodeJSON(raw any) any {
	var data []byte
	switch t := raw.(type) {
	case json.RawMessage:
		data = t
	case []byte:
		data = t
	case string:
		data = []byte(t)
	default:
		return raw
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return raw
	}
	switch trimmed[0] {
	case '[', '{', '"':
	default:
		return raw
	}

	var decoded any
	if err := json.Unmarshal(trimmed, &decoded); err != nil {
		return raw
	}
	return decoded
}

func asSequence(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []map[string]any:
		items := make([]any, len(t))
		for i := range t {
			items[i] = t[i]
		}
		return items, true
	case []Record:
		items := make([]any, len(t))
		for i := range t {
			items[i] = t[i]
		}
		return items, true
	case []VoiceDescriber:
		items := make([]any, len(t))
		for i := range t {
			items[i] = t[i]
		}
		return items, true
	}
	return nil, false
}

func outputOf(v any) (any, bool) {
	if isNil(v) {
		return nil, false
	}
	switch t := v.(type) {
	case Outputter:
		out := t.Output()
		return out, !isNil(out)
	case map[string]any:
		out, ok := t["output"]
		return out, ok && !isNil(out)
	}
	return nil, false
}

func voiceListOf(v any) ([]any, bool) {
	if isNil(v) {
		return nil, false
	}
	switch t := v.(type) {
	case VoiceLister:
		return t.VoiceList(), true
	case map[string]any:
		list, ok := t["voice_list"]
		if !ok {
			return nil, false
		}
		if list == nil {
			return []any{}, true
		}
		return asSequence(list)
	}
	return nil, false
}

func statusOf(v any) (string, bool) {
	if isNil(v) {
		return "", false
	}
	switch t := v.(type) {
	case StatusReporter:
		return t.Status(), true
	case map[string]any:
		if _, ok := t["status"]; !ok {
			return "", false
		}
		return stringField(t, "status"), true
	}
	return "", false
}

func recordsFrom(items []any) []Record {
	records := make([]Record, 0, len(items))
	for _, item := range items {
		if r, ok := recordFrom(item); ok {
			records = append(records, r)
		}
	}
	return records
}

func recordFrom(item any) (Record, bool) {
	if isNil(item) {
		return Record{}, false
	}
	switch t := item.(type) {
	case Record:
		if t.VoiceID == "" {
			return Record{}, false
		}
		if t.ModelHint == "" {
			t.ModelHint = GuessModel(t.VoiceID)
		}
		if t.Status == "" {
			t.Status = ParseStatusString(t.RawStatus)
		}
		return t, true
	case map[string]any:
		id := stringField(t, "voice_id")
		if id == "" {
			return Record{}, false
		}
		r := NewRecord(id, stringField(t, "status"))
		r.CreatedAt = stringField(t, "gmt_create")
		r.UpdatedAt = stringField(t, "gmt_modified")
		return r, true
	case VoiceDescriber:
		id := t.VoiceID()
		if id == "" {
			return Record{}, false
		}
		var status string
		if sr, ok := item.(StatusReporter); ok {
			status = sr.Status()
		}
		return NewRecord(id, status), true
	}
	return Record{}, false
}

// isNil reports whether v is nil or a typed nil, such as a nil pointer
// stored in an interface. Methods on such values usually panic.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func stringField(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
