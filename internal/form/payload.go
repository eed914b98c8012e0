package form

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strconv"
	"time"
)

// FilePart is the multipart name used for freshly selected files
const FilePart = "file"

// Payload is an ordered multipart form body
type Payload struct {
	parts []part
}

type part struct {
	key      string
	value    string
	filename string
	mime     string
	content  []byte
}

func NewPayload() *Payload { return &Payload{} }

// Set appends a scalar entry
func (p *Payload) Set(key, value string) *Payload {
	p.parts = append(p.parts, part{key: key, value: value})
	return p
}

// Add appends one entry per value, so arrays arrive as repeated keys
func (p *Payload) Add(key string, values ...string) *Payload {
	for _, v := range values {
		p.Set(key, v)
	}
	return p
}

// JSON appends v encoded as a JSON blob under key
func (p *Payload) JSON(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("payload %s: %w", key, err)
	}
	p.parts = append(p.parts, part{key: key, value: string(b), mime: "application/json", filename: "blob"})
	return nil
}

// Attach appends a binary file part
func (p *Payload) Attach(key, filename, contentType string, content []byte) *Payload {
	p.parts = append(p.parts, part{key: key, filename: filename, mime: contentType, content: content})
	return p
}

// Values returns the scalar entries of key in order
func (p *Payload) Values(key string) []string {
	var out []string
	for _, pt := range p.parts {
		if pt.key == key && pt.content == nil {
			out = append(out, pt.value)
		}
	}
	return out
}

// Has reports whether any part uses key
func (p *Payload) Has(key string) bool {
	for _, pt := range p.parts {
		if pt.key == key {
			return true
		}
	}
	return false
}

// Encode writes the multipart body and returns it with its content type
func (p *Payload) Encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, pt := range p.parts {
		if pt.filename == "" {
			if err := w.WriteField(pt.key, pt.value); err != nil {
				return nil, "", err
			}
			continue
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, pt.key, pt.filename))
		h.Set("Content-Type", pt.mime)
		fw, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		body := pt.content
		if body == nil {
			body = []byte(pt.value)
		}
		if _, err := fw.Write(body); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// BuildPayload converts the values of fields in s into a multipart payload.
// Nil values are left out.
func BuildPayload(fields []Field, s State) (*Payload, error) {
	p := NewPayload()
	for _, f := range fields {
		v, ok := s.Get(f.Desc().Key)
		if !ok || v == nil {
			continue
		}
		enc := &encoder{p: p, key: f.Desc().Key, v: v}
		f.Accept(enc)
		if enc.err != nil {
			return nil, enc.err
		}
	}
	return p, nil
}

type encoder struct {
	p   *Payload
	key string
	v   any
	err error
}

func (e *encoder) scalar() {
	switch x := e.v.(type) {
	case string:
		e.p.Set(e.key, x)
	case int:
		e.p.Set(e.key, strconv.Itoa(x))
	case bool:
		e.p.Set(e.key, strconv.FormatBool(x))
	case time.Time:
		e.p.Set(e.key, x.Format(time.RFC3339))
	case []string:
		e.p.Add(e.key, x...)
	default:
		e.p.Set(e.key, fmt.Sprint(x))
	}
}

func (e *encoder) file() {
	fv, ok := e.v.(FileValue)
	if !ok {
		return
	}
	if fv.Persisted() {
		e.err = e.p.JSON(e.key, fv)
		return
	}
	content, err := fv.Bytes()
	if err != nil {
		e.err = fmt.Errorf("payload %s: %w", e.key, err)
		return
	}
	e.p.Attach(FilePart, fv.Name, fv.Type, content)
}

func (e *encoder) VisitText(Text)           { e.scalar() }
func (e *encoder) VisitPassword(Password)   { e.scalar() }
func (e *encoder) VisitTextArea(TextArea)   { e.scalar() }
func (e *encoder) VisitNumeric(Numeric)     { e.scalar() }
func (e *encoder) VisitSelect(Select)       { e.scalar() }
func (e *encoder) VisitRadio(Radio)         { e.scalar() }
func (e *encoder) VisitTime(Time)           { e.scalar() }
func (e *encoder) VisitDateTime(DateTime)   { e.scalar() }
func (e *encoder) VisitToggle(Toggle)       { e.scalar() }
func (e *encoder) VisitCheckbox(Checkbox)   { e.scalar() }
func (e *encoder) VisitFile(File)           { e.file() }
func (e *encoder) VisitCloudFile(CloudFile) { e.file() }

func (e *encoder) VisitDate(Date) {
	if t, ok := e.v.(time.Time); ok {
		e.p.Set(e.key, t.Format(DateLayout))
		return
	}
	e.scalar()
}
