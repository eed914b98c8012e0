package form

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"cmsadmin/internal/storage"

	"github.com/google/uuid"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	DefaultFileMaxSize  = 2 * storage.MB
	DefaultImageMaxSize = 10 * storage.MB
	VideoMaxSize        = 100 * storage.MB
	DefaultCloudFolder  = "cms/uploads"
)

var (
	ErrKeyRejected   = errors.New("only digits are allowed")
	ErrPasteBlocked  = errors.New("paste is not allowed in numeric fields")
	ErrEventMismatch = errors.New("event does not apply to this field")
	ErrDisabled      = errors.New("field is disabled")
)

// FileTooLargeError rejects a selected file before it reaches the state
type FileTooLargeError struct {
	Name  string
	Kind  string // "file", "image" or "video"
	Size  int64
	Limit int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("Maximum %s size is %s", e.Kind, FormatSize(e.Limit))
}

// FormatSize renders a byte ceiling the way controls display it
func FormatSize(n int64) string {
	if n >= storage.MB {
		return fmt.Sprintf("%dMB", n/storage.MB)
	}
	return fmt.Sprintf("%dKB", n/1024)
}

// Binder applies events to form state. One Binder serves one form instance
// and owns the upload state of its cloud file controls.
type Binder struct {
	uploader storage.Uploader

	mu      sync.Mutex
	uploads map[string]*Upload
}

func NewBinder(uploader storage.Uploader) *Binder {
	return &Binder{
		uploader: uploader,
		uploads:  make(map[string]*Upload),
	}
}

// Upload returns the upload state machine of the control under key
func (b *Binder) Upload(key string) *Upload {
	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.uploads[key]
	if !ok {
		u = &Upload{}
		b.uploads[key] = u
	}
	return u
}

// Apply applies ev to the control described by f and returns the new state.
// On error the returned state is s unchanged.
func (b *Binder) Apply(ctx context.Context, f Field, s State, ev Event) (State, error) {
	if f.Desc().Disabled {
		return s, ErrDisabled
	}
	a := &applier{ctx: ctx, b: b, s: s, ev: ev, out: s}
	f.Accept(a)
	if a.err != nil {
		return s, a.err
	}
	return a.out, nil
}

type applier struct {
	ctx context.Context
	b   *Binder
	s   State
	ev  Event
	out State
	err error
}

func (a *applier) set(key string, v any) { a.out = a.s.With(key, v) }

func (a *applier) mismatch() { a.err = ErrEventMismatch }

func (a *applier) text(d Descriptor) {
	ev, ok := a.ev.(Input)
	if !ok {
		a.mismatch()
		return
	}
	a.set(d.Key, ev.Value)
}

func (a *applier) VisitText(f Text)         { a.text(f.Descriptor) }
func (a *applier) VisitPassword(f Password) { a.text(f.Descriptor) }
func (a *applier) VisitTextArea(f TextArea) { a.text(f.Descriptor) }

func (a *applier) VisitNumeric(f Numeric) {
	switch ev := a.ev.(type) {
	case KeyDown:
		if !AllowKey(ev) {
			a.err = ErrKeyRejected
		}
	case Paste:
		a.err = ErrPasteBlocked
	case Input:
		a.set(f.Key, ParseNumeric(ev.Value))
	default:
		a.mismatch()
	}
}

func (a *applier) VisitSelect(f Select) {
	ev, ok := a.ev.(Choose)
	if !ok {
		a.mismatch()
		return
	}
	if f.Multiple {
		a.set(f.Key, append([]string{}, ev.Values...))
		return
	}
	if len(ev.Values) == 0 {
		a.out = a.s.Without(f.Key)
		return
	}
	a.set(f.Key, ev.Values[0])
}

func (a *applier) VisitRadio(f Radio) {
	ev, ok := a.ev.(Choose)
	if !ok || len(ev.Values) == 0 {
		a.mismatch()
		return
	}
	a.set(f.Key, ev.Values[0])
}

func (a *applier) pick(key string, format func(p Pick) any) {
	ev, ok := a.ev.(Pick)
	if !ok {
		a.mismatch()
		return
	}
	a.set(key, format(ev))
}

func (a *applier) VisitDate(f Date) {
	a.pick(f.Key, func(p Pick) any {
		y, m, d := p.At.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, p.At.Location())
	})
}

func (a *applier) VisitDateTime(f DateTime) {
	a.pick(f.Key, func(p Pick) any { return p.At })
}

func (a *applier) VisitTime(f Time) {
	a.pick(f.Key, func(p Pick) any { return p.At.Format(TimeLayout) })
}

func (a *applier) VisitToggle(f Toggle) {
	ev, ok := a.ev.(Switch)
	if !ok {
		a.mismatch()
		return
	}
	a.set(f.Key, ev.On)
}

func (a *applier) VisitCheckbox(f Checkbox) {
	ev, ok := a.ev.(Check)
	if !ok {
		a.mismatch()
		return
	}
	a.set(f.Key, ev.Checked)
}

func (a *applier) VisitFile(f File) {
	switch ev := a.ev.(type) {
	case RemoveFile:
		a.set(f.Key, nil)
	case SelectFile:
		limit := f.MaxSize
		if limit <= 0 {
			limit = DefaultFileMaxSize
		}
		policy := storage.ParseAccept(f.AcceptTypes, limit)
		if a.err = checkPolicy(policy, ev, "file"); a.err != nil {
			return
		}
		contentType := ev.Type
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		a.set(f.Key, FileValue{
			ID:      uuid.NewString(),
			Name:    ev.Name,
			Size:    ev.Size,
			Type:    contentType,
			Data:    dataURL(contentType, ev.Content),
			Content: ev.Content,
		})
	default:
		a.mismatch()
	}
}

// CloudPolicy returns the upload constraints of a cloud file control
func CloudPolicy(f CloudFile) *storage.FilePolicy {
	limit := f.MaxSize
	if limit <= 0 {
		limit = DefaultImageMaxSize
	}
	policy := storage.ParseAccept(f.AcceptTypes, limit)
	policy.Family = map[string]int64{"video": VideoMaxSize}
	return policy
}

func (a *applier) VisitCloudFile(f CloudFile) {
	switch ev := a.ev.(type) {
	case RemoveFile:
		if a.b.Upload(f.Key).Busy() {
			a.err = ErrUploadInFlight
			return
		}
		a.set(f.Key, nil)
	case SelectFile:
		a.uploadCloud(f, ev)
	default:
		a.mismatch()
	}
}

func (a *applier) uploadCloud(f CloudFile, ev SelectFile) {
	up := a.b.Upload(f.Key)
	if a.err = up.Begin(); a.err != nil {
		return
	}

	kind := "image"
	if strings.HasPrefix(ev.Type, "video/") {
		kind = "video"
	}
	if a.err = checkPolicy(CloudPolicy(f), ev, kind); a.err != nil {
		up.Fail(a.err)
		return
	}
	if a.b.uploader == nil {
		a.err = errors.New("no media uploader configured")
		up.Fail(a.err)
		return
	}
	if a.err = up.Start(); a.err != nil {
		up.Fail(a.err)
		return
	}

	folder := f.Folder
	if folder == "" {
		folder = DefaultCloudFolder
	}
	res, err := a.b.uploader.Upload(a.ctx, storage.Object{
		Folder:      folder,
		Name:        ev.Name,
		ContentType: ev.Type,
		Size:        ev.Size,
		Body:        bytes.NewReader(ev.Content),
	})
	if err != nil {
		a.err = fmt.Errorf("upload %s: %w", ev.Name, err)
		up.Fail(a.err)
		return
	}

	v := FileValue{
		ID:       uuid.NewString(),
		Name:     ev.Name,
		Size:     ev.Size,
		Type:     ev.Type,
		URL:      res.URL,
		PublicID: res.PublicID,
	}
	up.Finish(v)
	a.set(f.Key, v)
}

func checkPolicy(policy *storage.FilePolicy, ev SelectFile, kind string) error {
	size := ev.Size
	if n := int64(len(ev.Content)); n > size {
		size = n
	}
	err := policy.ValidateFile(ev.Name, ev.Type, size)
	var sizeErr *storage.SizeError
	if errors.As(err, &sizeErr) {
		return &FileTooLargeError{Name: ev.Name, Kind: kind, Size: size, Limit: sizeErr.Limit}
	}
	return err
}
