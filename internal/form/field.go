// Package form renders and updates dashboard form fields.
//
// A form is a list of Field descriptors plus an immutable State. Controls are
// produced with Render and every user action is applied through Binder.Apply,
// which returns the replacement State.
package form

// Kind identifies the control a field renders as
type Kind string

const (
	KindText      Kind = "text"
	KindPassword  Kind = "password"
	KindTextArea  Kind = "textarea"
	KindNumeric   Kind = "number"
	KindSelect    Kind = "select"
	KindDate      Kind = "date"
	KindDateTime  Kind = "datetime"
	KindTime      Kind = "time"
	KindFile      Kind = "file"
	KindCloudFile Kind = "file-cloud"
	KindToggle    Kind = "toggle"
	KindRadio     Kind = "radio"
	KindCheckbox  Kind = "checkbox"
)

// Option is one entry of a choice control
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Descriptor holds the attributes shared by every field kind
type Descriptor struct {
	Key         string `json:"key"`
	Label       string `json:"label,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Required    bool   `json:"required,omitempty"`
	Disabled    bool   `json:"disabled,omitempty"`
}

// Desc returns the shared attributes
func (d Descriptor) Desc() Descriptor { return d }

func (Descriptor) field() {}

// Field is a declarative field descriptor. The set of implementations is
// closed; use a Visitor to dispatch on the concrete kind.
type Field interface {
	Desc() Descriptor
	Kind() Kind
	Accept(v Visitor)
	field()
}

// Visitor has one method per field kind. Adding a kind adds a method here, so
// every visitor stops compiling until it handles the new kind.
type Visitor interface {
	VisitText(f Text)
	VisitPassword(f Password)
	VisitTextArea(f TextArea)
	VisitNumeric(f Numeric)
	VisitSelect(f Select)
	VisitDate(f Date)
	VisitDateTime(f DateTime)
	VisitTime(f Time)
	VisitFile(f File)
	VisitCloudFile(f CloudFile)
	VisitToggle(f Toggle)
	VisitRadio(f Radio)
	VisitCheckbox(f Checkbox)
}

type Text struct{ Descriptor }

func (Text) Kind() Kind         { return KindText }
func (f Text) Accept(v Visitor) { v.VisitText(f) }

type Password struct{ Descriptor }

func (Password) Kind() Kind         { return KindPassword }
func (f Password) Accept(v Visitor) { v.VisitPassword(f) }

type TextArea struct {
	Descriptor
	Rows int
}

func (TextArea) Kind() Kind         { return KindTextArea }
func (f TextArea) Accept(v Visitor) { v.VisitTextArea(f) }

// Numeric accepts digits only and stores an int
type Numeric struct{ Descriptor }

func (Numeric) Kind() Kind         { return KindNumeric }
func (f Numeric) Accept(v Visitor) { v.VisitNumeric(f) }

// Select is a single or multi choice list. A multi select without options
// behaves as a free-form tag input.
type Select struct {
	Descriptor
	Options  []Option
	Multiple bool
}

func (Select) Kind() Kind         { return KindSelect }
func (f Select) Accept(v Visitor) { v.VisitSelect(f) }

type Date struct{ Descriptor }

func (Date) Kind() Kind         { return KindDate }
func (f Date) Accept(v Visitor) { v.VisitDate(f) }

type DateTime struct{ Descriptor }

func (DateTime) Kind() Kind         { return KindDateTime }
func (f DateTime) Accept(v Visitor) { v.VisitDateTime(f) }

// Time stores an "HH:mm" string
type Time struct{ Descriptor }

func (Time) Kind() Kind         { return KindTime }
func (f Time) Accept(v Visitor) { v.VisitTime(f) }

// File is read inline and submitted as multipart data
type File struct {
	Descriptor
	AcceptTypes string
	MaxSize     int64
}

func (File) Kind() Kind         { return KindFile }
func (f File) Accept(v Visitor) { v.VisitFile(f) }

// CloudFile is uploaded to the media host as soon as it is selected
type CloudFile struct {
	Descriptor
	AcceptTypes string
	MaxSize     int64
	Folder      string
}

func (CloudFile) Kind() Kind         { return KindCloudFile }
func (f CloudFile) Accept(v Visitor) { v.VisitCloudFile(f) }

type Toggle struct{ Descriptor }

func (Toggle) Kind() Kind         { return KindToggle }
func (f Toggle) Accept(v Visitor) { v.VisitToggle(f) }

type Radio struct {
	Descriptor
	Options []Option
}

func (Radio) Kind() Kind         { return KindRadio }
func (f Radio) Accept(v Visitor) { v.VisitRadio(f) }

type Checkbox struct{ Descriptor }

func (Checkbox) Kind() Kind         { return KindCheckbox }
func (f Checkbox) Accept(v Visitor) { v.VisitCheckbox(f) }
