package form

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cmsadmin/internal/schema"
)

// FieldError is a validation failure on one field
type FieldError struct {
	Key     string `json:"key"`
	Message string `json:"message"`
}

// ValidationErrors collects the failures of one submit attempt
type ValidationErrors []FieldError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, "; ")
}

// RequiredMessage is the message shown for an empty required field
func RequiredMessage(d Descriptor) string {
	label := d.Label
	if label == "" {
		label = "Field"
	}
	return label + " is required"
}

// Empty reports whether v counts as no value. Zero numbers and false are
// values.
func Empty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case []string:
		return len(x) == 0
	case []any:
		return len(x) == 0
	case time.Time:
		return x.IsZero()
	case FileValue:
		return x.URL == "" && x.Data == "" && x.Content == nil
	case *FileValue:
		return x == nil || Empty(*x)
	}
	return false
}

// Validate checks every required field of fields against s.
// It returns ValidationErrors or nil.
func Validate(fields []Field, s State) error {
	var errs ValidationErrors
	for _, f := range fields {
		d := f.Desc()
		if !d.Required {
			continue
		}
		if v, ok := s.Get(d.Key); !ok || Empty(v) {
			errs = append(errs, FieldError{Key: d.Key, Message: RequiredMessage(d)})
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Checker validates value types of a state against a JSON schema derived
// from the field descriptors.
type Checker struct {
	compiler *schema.Compiler
}

func NewChecker(compiler *schema.Compiler) *Checker {
	return &Checker{compiler: compiler}
}

// Check type checks s. Missing keys are not reported here; see Validate.
func (c *Checker) Check(ctx context.Context, fields []Field, s State) error {
	value := make(map[string]any, s.Len())
	for _, f := range fields {
		if v, ok := s.Get(f.Desc().Key); ok && v != nil {
			value[f.Desc().Key] = v
		}
	}
	if err := c.compiler.Validate(ctx, JSONSchema(fields), value); err != nil {
		return fmt.Errorf("form values: %w", err)
	}
	return nil
}

// JSONSchema derives the object schema describing the values fields store
func JSONSchema(fields []Field) map[string]any {
	props := make(map[string]any, len(fields))
	for _, f := range fields {
		sv := &schemaVisitor{}
		f.Accept(sv)
		props[f.Desc().Key] = sv.out
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
	}
}

type schemaVisitor struct {
	out map[string]any
}

func typ(t string) map[string]any { return map[string]any{"type": t} }

var fileSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"name": typ("string"),
		"size": typ("integer"),
		"type": typ("string"),
		"url":  typ("string"),
		"data": typ("string"),
	},
}

func (v *schemaVisitor) VisitText(Text)           { v.out = typ("string") }
func (v *schemaVisitor) VisitPassword(Password)   { v.out = typ("string") }
func (v *schemaVisitor) VisitTextArea(TextArea)   { v.out = typ("string") }
func (v *schemaVisitor) VisitNumeric(Numeric)     { v.out = typ("integer") }
func (v *schemaVisitor) VisitDate(Date)           { v.out = typ("string") }
func (v *schemaVisitor) VisitDateTime(DateTime)   { v.out = typ("string") }
func (v *schemaVisitor) VisitToggle(Toggle)       { v.out = typ("boolean") }
func (v *schemaVisitor) VisitCheckbox(Checkbox)   { v.out = typ("boolean") }
func (v *schemaVisitor) VisitFile(File)           { v.out = fileSchema }
func (v *schemaVisitor) VisitCloudFile(CloudFile) { v.out = fileSchema }

func (v *schemaVisitor) VisitTime(Time) {
	v.out = map[string]any{"type": "string", "pattern": `^\d{2}:\d{2}$`}
}

func (v *schemaVisitor) VisitSelect(f Select) {
	if f.Multiple {
		v.out = map[string]any{"type": "array", "items": typ("string")}
		return
	}
	v.out = typ("string")
}

func (v *schemaVisitor) VisitRadio(f Radio) {
	if len(f.Options) == 0 {
		v.out = typ("string")
		return
	}
	enum := make([]any, len(f.Options))
	for i, o := range f.Options {
		enum[i] = o.Value
	}
	v.out = map[string]any{"type": "string", "enum": enum}
}
