package form

import (
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// State is an immutable snapshot of form values keyed by field key.
// Every update returns a new State; the receiver is never modified.
type State struct {
	values map[string]any
}

// NewState copies init into a new State
func NewState(init map[string]any) State {
	values := make(map[string]any, len(init))
	for k, v := range init {
		values[k] = v
	}
	return State{values: values}
}

// Get returns the value stored under key
func (s State) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// String returns the value under key when it is a string
func (s State) String(key string) string {
	v, _ := s.values[key].(string)
	return v
}

// Int returns the value under key when it is an int
func (s State) Int(key string) int {
	v, _ := s.values[key].(int)
	return v
}

// Strings returns the value under key when it is a string list
func (s State) Strings(key string) []string {
	v, _ := s.values[key].([]string)
	return v
}

// With returns a copy of s with key set to v
func (s State) With(key string, v any) State {
	next := NewState(s.values)
	next.values[key] = v
	return next
}

// Without returns a copy of s with key removed
func (s State) Without(key string) State {
	next := NewState(s.values)
	delete(next.values, key)
	return next
}

// Map returns a copy of the underlying values
func (s State) Map() map[string]any {
	return NewState(s.values).values
}

// Keys returns the stored keys in sorted order
func (s State) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s State) Len() int { return len(s.values) }

// FileValue is a selected or persisted file. Data holds an inline data URL
// for a file that has not been uploaded yet; URL and PublicID are set once
// the file lives on the media host or backend.
type FileValue struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	Size     int64  `json:"size,omitempty"`
	Type     string `json:"type,omitempty"`
	Data     string `json:"data,omitempty"`
	URL      string `json:"url,omitempty"`
	PublicID string `json:"public_id,omitempty"`

	// Content keeps the raw bytes for the multipart submit
	Content []byte `json:"-"`
}

// Persisted reports whether the file already has a remote location
func (f FileValue) Persisted() bool { return f.URL != "" }

// Bytes returns the raw file content, decoding the data URL if needed
func (f FileValue) Bytes() ([]byte, error) {
	if f.Content != nil {
		return f.Content, nil
	}
	if f.Data == "" {
		return nil, errors.New("file has no inline content")
	}
	_, payload, ok := strings.Cut(f.Data, ";base64,")
	if !ok {
		return nil, fmt.Errorf("malformed data url for %q", f.Name)
	}
	return base64.StdEncoding.DecodeString(payload)
}

func dataURL(contentType string, content []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(content)
}

// Decode builds a State from loosely typed JSON values, coercing each known
// field to the Go type its kind stores. Unknown keys are kept as they are.
func Decode(fields []Field, raw map[string]any) State {
	s := NewState(raw)
	for _, f := range fields {
		v, ok := raw[f.Desc().Key]
		if !ok || v == nil {
			continue
		}
		d := &decoder{raw: v}
		f.Accept(d)
		s.values[f.Desc().Key] = d.out
	}
	return s
}

type decoder struct {
	raw any
	out any
}

func (d *decoder) str() {
	switch v := d.raw.(type) {
	case string:
		d.out = v
	case float64:
		d.out = fmt.Sprint(v)
	default:
		d.out = d.raw
	}
}

func (d *decoder) date(layouts ...string) {
	if t, ok := d.raw.(time.Time); ok {
		d.out = t
		return
	}
	s, _ := d.raw.(string)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.out = t
			return
		}
	}
	d.out = d.raw
}

func (d *decoder) file() {
	m, ok := d.raw.(map[string]any)
	if !ok {
		d.out = d.raw
		return
	}
	fv := FileValue{}
	fv.ID, _ = m["id"].(string)
	fv.Name, _ = m["name"].(string)
	fv.Type, _ = m["type"].(string)
	fv.Data, _ = m["data"].(string)
	fv.URL, _ = m["url"].(string)
	fv.PublicID, _ = m["public_id"].(string)
	if size, ok := m["size"].(float64); ok {
		fv.Size = int64(size)
	}
	d.out = fv
}

func (d *decoder) boolean() {
	switch v := d.raw.(type) {
	case bool:
		d.out = v
	case string:
		d.out = v == "true"
	default:
		d.out = d.raw
	}
}

func (d *decoder) VisitText(Text)         { d.str() }
func (d *decoder) VisitPassword(Password) { d.str() }
func (d *decoder) VisitTextArea(TextArea) { d.str() }
func (d *decoder) VisitTime(Time)         { d.str() }
func (d *decoder) VisitRadio(Radio)       { d.str() }

func (d *decoder) VisitNumeric(Numeric) {
	switch v := d.raw.(type) {
	case float64:
		d.out = int(v)
	case string:
		d.out = ParseNumeric(v)
	default:
		d.out = d.raw
	}
}

func (d *decoder) VisitSelect(f Select) {
	if !f.Multiple {
		d.str()
		return
	}
	list, ok := d.raw.([]any)
	if !ok {
		d.out = d.raw
		return
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	d.out = out
}

func (d *decoder) VisitDate(Date)           { d.date(DateLayout, time.RFC3339) }
func (d *decoder) VisitDateTime(DateTime)   { d.date(time.RFC3339, DateLayout) }
func (d *decoder) VisitFile(File)           { d.file() }
func (d *decoder) VisitCloudFile(CloudFile) { d.file() }
func (d *decoder) VisitToggle(Toggle)       { d.boolean() }
func (d *decoder) VisitCheckbox(Checkbox)   { d.boolean() }
