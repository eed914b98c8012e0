package form

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"cmsadmin/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUploader struct {
	calls   atomic.Int32
	err     error
	started chan struct{}
	release chan struct{}
}

func (u *stubUploader) Upload(ctx context.Context, obj storage.Object) (storage.Uploaded, error) {
	u.calls.Add(1)
	if u.started != nil {
		u.started <- struct{}{}
		<-u.release
	}
	if u.err != nil {
		return storage.Uploaded{}, u.err
	}
	return storage.Uploaded{
		URL:      "https://cdn.example.com/" + obj.Folder + "/" + obj.Name,
		PublicID: obj.Folder + "/" + obj.Name,
	}, nil
}

func (u *stubUploader) Delete(ctx context.Context, publicID string) error { return nil }

func quota() Numeric {
	return Numeric{Descriptor{Key: "quota", Label: "Max Quota", Required: true}}
}

func TestNumeric_KeyFilter(t *testing.T) {
	b := NewBinder(nil)
	ctx := context.Background()
	s := NewState(nil)

	for _, key := range []string{"0", "7", "Backspace", "Delete", "Tab", "ArrowLeft", "ArrowRight"} {
		_, err := b.Apply(ctx, quota(), s, KeyDown{Key: key})
		assert.NoError(t, err, key)
	}
	for _, key := range []string{"a", "e", "-", ".", "+", " ", "Enter"} {
		_, err := b.Apply(ctx, quota(), s, KeyDown{Key: key})
		assert.ErrorIs(t, err, ErrKeyRejected, key)
	}

	_, err := b.Apply(ctx, quota(), s, KeyDown{Key: "a", Ctrl: true})
	assert.NoError(t, err, "select all")
	_, err = b.Apply(ctx, quota(), s, KeyDown{Key: "v", Ctrl: true})
	assert.ErrorIs(t, err, ErrKeyRejected)
	_, err = b.Apply(ctx, quota(), s, KeyDown{Key: "C", Meta: true})
	assert.ErrorIs(t, err, ErrKeyRejected)
}

func TestNumeric_PasteBlocked(t *testing.T) {
	b := NewBinder(nil)
	s := NewState(map[string]any{"quota": 5})

	next, err := b.Apply(context.Background(), quota(), s, Paste{Text: "123"})
	assert.ErrorIs(t, err, ErrPasteBlocked)
	assert.Equal(t, 5, next.Int("quota"))
}

func TestNumeric_Input(t *testing.T) {
	b := NewBinder(nil)
	cases := map[string]int{"42": 42, "": 0, "abc": 0, "12e5": 12, " 7": 7}
	for in, want := range cases {
		s, err := b.Apply(context.Background(), quota(), NewState(nil), Input{Value: in})
		require.NoError(t, err)
		assert.Equal(t, want, s.Int("quota"), in)
	}
}

func TestState_Immutable(t *testing.T) {
	b := NewBinder(nil)
	title := Text{Descriptor{Key: "title"}}
	s0 := NewState(map[string]any{"title": "old"})

	s1, err := b.Apply(context.Background(), title, s0, Input{Value: "new"})
	require.NoError(t, err)
	assert.Equal(t, "old", s0.String("title"))
	assert.Equal(t, "new", s1.String("title"))

	m := s1.Map()
	m["title"] = "mutated"
	assert.Equal(t, "new", s1.String("title"))
}

func TestSelect_MultipleCopiesValues(t *testing.T) {
	b := NewBinder(nil)
	tags := Select{Descriptor: Descriptor{Key: "tags"}, Multiple: true}
	values := []string{"go", "cms"}

	s, err := b.Apply(context.Background(), tags, NewState(nil), Choose{Values: values})
	require.NoError(t, err)
	values[0] = "changed"
	assert.Equal(t, []string{"go", "cms"}, s.Strings("tags"))
}

func TestCheckbox_UsesCheckedFlag(t *testing.T) {
	b := NewBinder(nil)
	f := Checkbox{Descriptor{Key: "is_assestment"}}

	s, err := b.Apply(context.Background(), f, NewState(nil), Check{Checked: true})
	require.NoError(t, err)
	v, _ := s.Get("is_assestment")
	assert.Equal(t, true, v)

	_, err = b.Apply(context.Background(), f, s, Input{Value: "false"})
	assert.ErrorIs(t, err, ErrEventMismatch)
}

func TestPick_DateAndTime(t *testing.T) {
	b := NewBinder(nil)
	at := time.Date(2025, 11, 15, 9, 30, 0, 0, time.UTC)

	s, err := b.Apply(context.Background(), Time{Descriptor{Key: "schedule_start"}}, NewState(nil), Pick{At: at})
	require.NoError(t, err)
	assert.Equal(t, "09:30", s.String("schedule_start"))

	s, err = b.Apply(context.Background(), Date{Descriptor{Key: "schedule_date"}}, s, Pick{At: at})
	require.NoError(t, err)
	v, _ := s.Get("schedule_date")
	assert.Equal(t, time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC), v)
}

func TestDisabledField(t *testing.T) {
	b := NewBinder(nil)
	f := Text{Descriptor{Key: "slug", Disabled: true}}
	_, err := b.Apply(context.Background(), f, NewState(nil), Input{Value: "x"})
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestFile_TooLargeNeverWritten(t *testing.T) {
	b := NewBinder(nil)
	f := File{Descriptor: Descriptor{Key: "banner"}, AcceptTypes: "image/*"}
	s := NewState(nil)

	next, err := b.Apply(context.Background(), f, s, SelectFile{
		Name: "huge.png",
		Size: 3 * storage.MB,
		Type: "image/png",
	})
	var tooLarge *FileTooLargeError
	require.ErrorAs(t, err, &tooLarge)
	assert.Equal(t, int64(DefaultFileMaxSize), tooLarge.Limit)
	assert.Equal(t, "Maximum file size is 2MB", err.Error())
	_, ok := next.Get("banner")
	assert.False(t, ok)
}

func TestFile_MaxSizeOverride(t *testing.T) {
	b := NewBinder(nil)
	f := File{Descriptor: Descriptor{Key: "logo"}, MaxSize: 512 * 1024}

	_, err := b.Apply(context.Background(), f, NewState(nil), SelectFile{Name: "a.png", Size: 600 * 1024, Type: "image/png"})
	assert.EqualError(t, err, "Maximum file size is 512KB")
}

func TestFile_SelectAndRemove(t *testing.T) {
	b := NewBinder(nil)
	f := File{Descriptor: Descriptor{Key: "banner"}}

	s, err := b.Apply(context.Background(), f, NewState(nil), SelectFile{
		Name:    "a.txt",
		Size:    5,
		Type:    "text/plain",
		Content: []byte("hello"),
	})
	require.NoError(t, err)

	v, _ := s.Get("banner")
	fv := v.(FileValue)
	assert.NotEmpty(t, fv.ID)
	assert.Equal(t, "data:text/plain;base64,aGVsbG8=", fv.Data)
	assert.False(t, fv.Persisted())
	raw, err := fv.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(raw))

	s, err = b.Apply(context.Background(), f, s, RemoveFile{})
	require.NoError(t, err)
	v, ok := s.Get("banner")
	assert.True(t, ok)
	assert.Nil(t, v)
}

func cloudField() CloudFile {
	return CloudFile{
		Descriptor:  Descriptor{Key: "main_file", Label: "Main Asset"},
		AcceptTypes: "image/*,video/*",
		Folder:      "executrain/assets",
	}
}

func TestCloudFile_UploadSuccess(t *testing.T) {
	up := &stubUploader{}
	b := NewBinder(up)

	s, err := b.Apply(context.Background(), cloudField(), NewState(nil), SelectFile{
		Name:    "hero.mp4",
		Size:    50 * storage.MB,
		Type:    "video/mp4",
		Content: []byte("video"),
	})
	require.NoError(t, err)

	v, _ := s.Get("main_file")
	fv := v.(FileValue)
	assert.Equal(t, "https://cdn.example.com/executrain/assets/hero.mp4", fv.URL)
	assert.Equal(t, "executrain/assets/hero.mp4", fv.PublicID)
	assert.Equal(t, UploadDone, b.Upload("main_file").Phase())
}

func TestCloudFile_OversizeSkipsUploader(t *testing.T) {
	up := &stubUploader{}
	b := NewBinder(up)

	_, err := b.Apply(context.Background(), cloudField(), NewState(nil), SelectFile{
		Name: "big.png",
		Size: 11 * storage.MB,
		Type: "image/png",
	})
	assert.EqualError(t, err, "Maximum image size is 10MB")
	assert.Equal(t, int32(0), up.calls.Load())
	assert.Equal(t, UploadFailed, b.Upload("main_file").Phase())

	_, err = b.Apply(context.Background(), cloudField(), NewState(nil), SelectFile{
		Name: "long.mp4",
		Size: 101 * storage.MB,
		Type: "video/mp4",
	})
	assert.EqualError(t, err, "Maximum video size is 100MB")
	assert.Equal(t, int32(0), up.calls.Load())
}

func TestCloudFile_FailureLeavesState(t *testing.T) {
	up := &stubUploader{err: errors.New("host unavailable")}
	b := NewBinder(up)
	prev := FileValue{URL: "https://cdn.example.com/old.png"}
	s := NewState(map[string]any{"main_file": prev})

	next, err := b.Apply(context.Background(), cloudField(), s, SelectFile{Name: "a.png", Size: 10, Type: "image/png"})
	assert.ErrorContains(t, err, "host unavailable")
	v, _ := next.Get("main_file")
	assert.Equal(t, prev, v)
	assert.Equal(t, UploadFailed, b.Upload("main_file").Phase())

	c := b.Render(cloudField(), next)
	assert.Contains(t, c.Error, "host unavailable")
}

func TestCloudFile_OneUploadInFlight(t *testing.T) {
	up := &stubUploader{started: make(chan struct{}), release: make(chan struct{})}
	b := NewBinder(up)
	ev := SelectFile{Name: "a.png", Size: 10, Type: "image/png"}

	done := make(chan error, 1)
	go func() {
		_, err := b.Apply(context.Background(), cloudField(), NewState(nil), ev)
		done <- err
	}()
	<-up.started

	assert.True(t, b.Render(cloudField(), NewState(nil)).Uploading)
	assert.True(t, b.Render(cloudField(), NewState(nil)).Disabled)

	_, err := b.Apply(context.Background(), cloudField(), NewState(nil), ev)
	assert.ErrorIs(t, err, ErrUploadInFlight)

	close(up.release)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), up.calls.Load())
	assert.False(t, b.Render(cloudField(), NewState(nil)).Uploading)
}

func TestDecodeEvent(t *testing.T) {
	ev, err := DecodeEvent([]byte(`{"type":"keydown","key":"v","ctrl":true}`))
	require.NoError(t, err)
	assert.Equal(t, KeyDown{Key: "v", Ctrl: true}, ev)

	ev, err = DecodeEvent([]byte(`{"type":"pick","at":"2025-11-15"}`))
	require.NoError(t, err)
	assert.Equal(t, 2025, ev.(Pick).At.Year())

	ev, err = DecodeEvent([]byte(`{"type":"select_file","name":"a.txt","mime":"text/plain","content":"aGVsbG8="}`))
	require.NoError(t, err)
	assert.Equal(t, int64(5), ev.(SelectFile).Size)

	_, err = DecodeEvent([]byte(`{"type":"teleport"}`))
	assert.Error(t, err)
}

func TestDecodeState(t *testing.T) {
	fields := []Field{
		quota(),
		Date{Descriptor{Key: "schedule_date"}},
		Select{Descriptor: Descriptor{Key: "benefits"}, Multiple: true},
		File{Descriptor: Descriptor{Key: "banner"}},
		Checkbox{Descriptor{Key: "is_assestment"}},
	}
	s := Decode(fields, map[string]any{
		"quota":         float64(30),
		"schedule_date": "2025-11-15",
		"benefits":      []any{"Lunch", "Certificate"},
		"banner":        map[string]any{"url": "https://cdn/x.png", "name": "x.png", "size": float64(10)},
		"is_assestment": "true",
		"extra":         "kept",
	})

	assert.Equal(t, 30, s.Int("quota"))
	d, _ := s.Get("schedule_date")
	assert.Equal(t, time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC), d)
	assert.Equal(t, []string{"Lunch", "Certificate"}, s.Strings("benefits"))
	banner, _ := s.Get("banner")
	assert.True(t, banner.(FileValue).Persisted())
	flag, _ := s.Get("is_assestment")
	assert.Equal(t, true, flag)
	assert.Equal(t, "kept", s.String("extra"))
	assert.True(t, strings.HasPrefix(strings.Join(s.Keys(), ","), "banner,benefits"))
}
