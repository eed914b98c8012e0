package form

import (
	"errors"
	"sync"
)

// UploadPhase is the lifecycle position of a cloud file control
type UploadPhase string

const (
	UploadIdle      UploadPhase = "idle"
	UploadSelecting UploadPhase = "selecting"
	UploadUploading UploadPhase = "uploading"
	UploadDone      UploadPhase = "done"
	UploadFailed    UploadPhase = "failed"
)

// ErrUploadInFlight is returned when a file is selected while the previous
// upload of the same control has not finished.
var ErrUploadInFlight = errors.New("an upload is already in progress for this field")

// Upload is the state machine of one cloud file control instance.
//
//	idle|done|failed --Begin--> selecting --Start--> uploading --Finish--> done
//	selecting|uploading --Fail--> failed
type Upload struct {
	mu     sync.Mutex
	phase  UploadPhase
	err    error
	result FileValue
}

func (u *Upload) Phase() UploadPhase {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.phase == "" {
		return UploadIdle
	}
	return u.phase
}

// Busy reports whether the control must reject new selections
func (u *Upload) Busy() bool {
	p := u.Phase()
	return p == UploadSelecting || p == UploadUploading
}

// Err returns the error of the last failed upload
func (u *Upload) Err() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.err
}

// Result returns the value of the last successful upload
func (u *Upload) Result() FileValue {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.result
}

func (u *Upload) Begin() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	switch u.phase {
	case UploadSelecting, UploadUploading:
		return ErrUploadInFlight
	}
	u.phase = UploadSelecting
	u.err = nil
	return nil
}

func (u *Upload) Start() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.phase != UploadSelecting {
		return errors.New("upload: start without selection")
	}
	u.phase = UploadUploading
	return nil
}

func (u *Upload) Finish(v FileValue) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.phase = UploadDone
	u.result = v
}

func (u *Upload) Fail(err error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.phase = UploadFailed
	u.err = err
}
