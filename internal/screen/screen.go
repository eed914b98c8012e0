// Package screen declares the editor screens of the dashboard: the fields
// each one shows, the checks that run before submit and how the values are
// encoded for the backend.
package screen

import (
	"errors"
	"sort"

	"cmsadmin/internal/backend"
	"cmsadmin/internal/form"
	"cmsadmin/internal/menu"
	"cmsadmin/internal/model"
)

// Mode tells whether a submit creates a record or updates one
type Mode int

const (
	Create Mode = iota
	Update
)

func (m Mode) String() string {
	if m == Update {
		return "update"
	}
	return "create"
}

// Rule is a cross field check. It returns nil when s passes.
type Rule func(s form.State, mode Mode) *form.FieldError

var ErrUnknownScreen = errors.New("unknown screen")

// Screen describes one editor
type Screen struct {
	Name       string
	Title      string
	Resource   string
	Perm       menu.Permission
	Fields     []form.Field
	Rules      []Rule
	UpdateOnly bool

	// Defaults fills derived values right before encoding
	Defaults func(s form.State) form.State
	// Encode builds a JSON body. Screens without it submit multipart data.
	Encode func(s form.State, mode Mode) any
	// Optional lists required fields that may stay empty on update
	Optional []string
}

// Field returns the descriptor stored under key
func (sc *Screen) Field(key string) (form.Field, bool) {
	for _, f := range sc.Fields {
		if f.Desc().Key == key {
			return f, true
		}
	}
	return nil, false
}

// FieldsFor returns the fields as they apply to mode
func (sc *Screen) FieldsFor(mode Mode) []form.Field {
	if mode != Update || len(sc.Optional) == 0 {
		return sc.Fields
	}
	out := make([]form.Field, len(sc.Fields))
	for i, f := range sc.Fields {
		out[i] = f
		if contains(sc.Optional, f.Desc().Key) {
			out[i] = optional(f)
		}
	}
	return out
}

// Validate runs the required checks and then the screen rules. Every
// failure is reported, not just the first.
func (sc *Screen) Validate(s form.State, mode Mode) error {
	var errs form.ValidationErrors
	if err := form.Validate(sc.FieldsFor(mode), s); err != nil {
		var ve form.ValidationErrors
		if !errors.As(err, &ve) {
			return err
		}
		errs = append(errs, ve...)
	}
	for _, rule := range sc.Rules {
		if fe := rule(s, mode); fe != nil {
			errs = append(errs, *fe)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Prepare applies the screen defaults to s
func (sc *Screen) Prepare(s form.State) form.State {
	if sc.Defaults == nil {
		return s
	}
	return sc.Defaults(s)
}

// Body encodes s for the backend
func (sc *Screen) Body(s form.State, mode Mode) (backend.Body, error) {
	s = sc.Prepare(s)
	if sc.Encode != nil {
		return backend.JSONBody{V: sc.Encode(s, mode)}, nil
	}
	return form.BuildPayload(sc.Fields, s)
}

// WithOptions returns a copy of sc whose choice field key offers opts
func (sc *Screen) WithOptions(key string, opts []form.Option) *Screen {
	cp := *sc
	cp.Fields = make([]form.Field, len(sc.Fields))
	for i, f := range sc.Fields {
		cp.Fields[i] = f
		if f.Desc().Key != key {
			continue
		}
		switch x := f.(type) {
		case form.Select:
			x.Options = opts
			cp.Fields[i] = x
		case form.Radio:
			x.Options = opts
			cp.Fields[i] = x
		}
	}
	return &cp
}

var registry = map[string]*Screen{}

func register(sc *Screen) *Screen {
	registry[sc.Name] = sc
	return sc
}

// Lookup returns the screen called name
func Lookup(name string) (*Screen, error) {
	sc, ok := registry[name]
	if !ok {
		return nil, ErrUnknownScreen
	}
	return sc, nil
}

// Names lists every registered screen
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Allowed reports whether role may open sc
func Allowed(role model.Role, sc *Screen) bool {
	return menu.Can(role, sc.Perm)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func optional(f form.Field) form.Field {
	switch x := f.(type) {
	case form.Text:
		x.Required = false
		return x
	case form.Password:
		x.Required = false
		return x
	case form.TextArea:
		x.Required = false
		return x
	case form.File:
		x.Required = false
		return x
	case form.CloudFile:
		x.Required = false
		return x
	}
	return f
}
