package form

// Control is the view model of one rendered field
type Control struct {
	Kind        Kind     `json:"kind"`
	Key         string   `json:"key"`
	Label       string   `json:"label,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
	Required    bool     `json:"required,omitempty"`
	Disabled    bool     `json:"disabled,omitempty"`
	Value       any      `json:"value,omitempty"`
	Options     []Option `json:"options,omitempty"`
	Multiple    bool     `json:"multiple,omitempty"`
	Rows        int      `json:"rows,omitempty"`
	Accept      string   `json:"accept,omitempty"`
	SizeHint    string   `json:"sizeHint,omitempty"`
	Uploading   bool     `json:"uploading,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// Render builds the control for f from the current state
func Render(f Field, s State) Control {
	r := &renderer{s: s}
	f.Accept(r)
	return r.c
}

// Render builds the control and reflects the upload state of cloud files.
// A control with an upload in flight is disabled.
func (b *Binder) Render(f Field, s State) Control {
	c := Render(f, s)
	if f.Kind() != KindCloudFile {
		return c
	}
	up := b.Upload(f.Desc().Key)
	if up.Busy() {
		c.Uploading = true
		c.Disabled = true
	}
	if up.Phase() == UploadFailed && up.Err() != nil {
		c.Error = up.Err().Error()
	}
	return c
}

// RenderAll renders fields in order
func (b *Binder) RenderAll(fields []Field, s State) []Control {
	out := make([]Control, 0, len(fields))
	for _, f := range fields {
		out = append(out, b.Render(f, s))
	}
	return out
}

type renderer struct {
	s State
	c Control
}

func (r *renderer) base(kind Kind, d Descriptor) {
	v, _ := r.s.Get(d.Key)
	r.c = Control{
		Kind:        kind,
		Key:         d.Key,
		Label:       d.Label,
		Placeholder: d.Placeholder,
		Required:    d.Required,
		Disabled:    d.Disabled,
		Value:       v,
	}
}

func (r *renderer) VisitText(f Text)         { r.base(KindText, f.Descriptor) }
func (r *renderer) VisitPassword(f Password) { r.base(KindPassword, f.Descriptor) }
func (r *renderer) VisitNumeric(f Numeric)   { r.base(KindNumeric, f.Descriptor) }
func (r *renderer) VisitDate(f Date)         { r.base(KindDate, f.Descriptor) }
func (r *renderer) VisitDateTime(f DateTime) { r.base(KindDateTime, f.Descriptor) }
func (r *renderer) VisitTime(f Time)         { r.base(KindTime, f.Descriptor) }
func (r *renderer) VisitToggle(f Toggle)     { r.base(KindToggle, f.Descriptor) }
func (r *renderer) VisitCheckbox(f Checkbox) { r.base(KindCheckbox, f.Descriptor) }

func (r *renderer) VisitTextArea(f TextArea) {
	r.base(KindTextArea, f.Descriptor)
	r.c.Rows = f.Rows
	if r.c.Rows == 0 {
		r.c.Rows = 3
	}
}

func (r *renderer) VisitSelect(f Select) {
	r.base(KindSelect, f.Descriptor)
	r.c.Options = f.Options
	r.c.Multiple = f.Multiple
}

func (r *renderer) VisitRadio(f Radio) {
	r.base(KindRadio, f.Descriptor)
	r.c.Options = f.Options
}

func (r *renderer) VisitFile(f File) {
	r.base(KindFile, f.Descriptor)
	limit := f.MaxSize
	if limit <= 0 {
		limit = DefaultFileMaxSize
	}
	r.c.Accept = f.AcceptTypes
	r.c.SizeHint = "Max " + FormatSize(limit)
}

func (r *renderer) VisitCloudFile(f CloudFile) {
	r.base(KindCloudFile, f.Descriptor)
	limit := f.MaxSize
	if limit <= 0 {
		limit = DefaultImageMaxSize
	}
	r.c.Accept = f.AcceptTypes
	r.c.SizeHint = "Image max " + FormatSize(limit) + ", Video max " + FormatSize(VideoMaxSize)
}
