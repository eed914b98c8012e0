package form

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// Event is one user action on a control
type Event interface {
	event()
}

// Input is a typed value change on a text-like control
type Input struct{ Value string }

// Choose sets the selection of a select or radio control
type Choose struct{ Values []string }

// Pick sets a date, datetime or time control
type Pick struct{ At time.Time }

// Switch flips a toggle
type Switch struct{ On bool }

// Check sets a checkbox
type Check struct{ Checked bool }

// KeyDown is a key press on a numeric control
type KeyDown struct {
	Key  string
	Ctrl bool
	Meta bool
}

// Paste is a clipboard paste into a control
type Paste struct{ Text string }

// SelectFile is a file picked for a file control
type SelectFile struct {
	Name    string
	Size    int64
	Type    string
	Content []byte
}

// RemoveFile clears a file control
type RemoveFile struct{}

func (Input) event()      {}
func (Choose) event()     {}
func (Pick) event()       {}
func (Switch) event()     {}
func (Check) event()      {}
func (KeyDown) event()    {}
func (Paste) event()      {}
func (SelectFile) event() {}
func (RemoveFile) event() {}

// wireEvent is the JSON shape of an event sent by the browser
type wireEvent struct {
	Type    string   `json:"type"`
	Value   string   `json:"value,omitempty"`
	Values  []string `json:"values,omitempty"`
	At      string   `json:"at,omitempty"`
	On      bool     `json:"on,omitempty"`
	Checked bool     `json:"checked,omitempty"`
	Key     string   `json:"key,omitempty"`
	Ctrl    bool     `json:"ctrl,omitempty"`
	Meta    bool     `json:"meta,omitempty"`
	Text    string   `json:"text,omitempty"`
	Name    string   `json:"name,omitempty"`
	Size    int64    `json:"size,omitempty"`
	MIME    string   `json:"mime,omitempty"`
	Content string   `json:"content,omitempty"` // base64
}

// DecodeEvent parses a browser event message
func DecodeEvent(raw []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}

	switch w.Type {
	case "input":
		return Input{Value: w.Value}, nil
	case "choose":
		return Choose{Values: w.Values}, nil
	case "pick":
		for _, layout := range []string{time.RFC3339, DateLayout, TimeLayout} {
			if t, err := time.Parse(layout, w.At); err == nil {
				return Pick{At: t}, nil
			}
		}
		return nil, fmt.Errorf("decode event: bad time %q", w.At)
	case "switch":
		return Switch{On: w.On}, nil
	case "check":
		return Check{Checked: w.Checked}, nil
	case "keydown":
		return KeyDown{Key: w.Key, Ctrl: w.Ctrl, Meta: w.Meta}, nil
	case "paste":
		return Paste{Text: w.Text}, nil
	case "select_file":
		content, err := base64.StdEncoding.DecodeString(w.Content)
		if err != nil {
			return nil, fmt.Errorf("decode event: file content: %w", err)
		}
		size := w.Size
		if size == 0 {
			size = int64(len(content))
		}
		return SelectFile{Name: w.Name, Size: size, Type: w.MIME, Content: content}, nil
	case "remove_file":
		return RemoveFile{}, nil
	}
	return nil, fmt.Errorf("decode event: unknown type %q", w.Type)
}
