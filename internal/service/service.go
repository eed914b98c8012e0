package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cmsadmin/internal/form"
	"cmsadmin/internal/menu"
	"cmsadmin/internal/model"
	"cmsadmin/internal/pubsub"
	"cmsadmin/internal/screen"
	"cmsadmin/internal/storage"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

var (
	ErrForbidden       = errors.New("you do not have access to this page")
	ErrUpdateOnly      = errors.New("this screen only edits existing records")
	ErrSubmitInFlight  = errors.New("a save is already in progress for this form")
	ErrUnknownField    = errors.New("unknown field")
	ErrProductRequired = errors.New("product id is required")
	ErrInvalidStatus   = errors.New("invalid applicant status")
	ErrInvalidValues   = errors.New("form values have the wrong type")
	ErrNoImport        = errors.New("schedule import is not available")
)

// Actor is the signed in dashboard user performing an operation
type Actor struct {
	UserID string
	Role   model.Role
}

func (a Actor) can(p menu.Permission) error {
	if !menu.Can(a.Role, p) {
		return ErrForbidden
	}
	return nil
}

type EventBus interface {
	Notify(ctx context.Context, userID string, level pubsub.Level, message string) error
	Changed(ctx context.Context, screen, id, action string) error
}

// RowCounter receives the number of spreadsheet rows at each import stage
type RowCounter interface {
	ImportedRows(stage string, n int)
}

// Binders keeps one form.Binder per open form so the upload state of cloud
// file controls survives between event requests.
type Binders struct {
	uploader storage.Uploader

	mu  sync.Mutex
	lru *expirable.LRU[string, *form.Binder]
}

func NewBinders(uploader storage.Uploader, size int, ttl time.Duration) *Binders {
	return &Binders{
		uploader: uploader,
		lru:      expirable.NewLRU[string, *form.Binder](size, nil, ttl),
	}
}

// FormKey identifies one form instance. New records share the "new" slot.
func FormKey(userID, screenName, recordID string) string {
	if recordID == "" {
		recordID = "new"
	}
	return userID + ":" + screenName + ":" + recordID
}

// For returns the binder of a form instance, creating it on first use
func (b *Binders) For(key string) *form.Binder {
	b.mu.Lock()
	defer b.mu.Unlock()
	if fb, ok := b.lru.Get(key); ok {
		return fb
	}
	fb := form.NewBinder(b.uploader)
	b.lru.Add(key, fb)
	return fb
}

// Drop forgets a form instance after it was saved
func (b *Binders) Drop(key string) {
	b.lru.Remove(key)
}

// inflight refuses a second operation on a key until the first one ends
type inflight struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func newInflight() *inflight {
	return &inflight{keys: make(map[string]struct{})}
}

func (f *inflight) acquire(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, busy := f.keys[key]; busy {
		return false
	}
	f.keys[key] = struct{}{}
	return true
}

func (f *inflight) release(key string) {
	f.mu.Lock()
	delete(f.keys, key)
	f.mu.Unlock()
}

// screenFor resolves a screen and checks the actor may open it
func screenFor(actor Actor, name string) (*screen.Screen, error) {
	sc, err := screen.Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, name)
	}
	if !screen.Allowed(actor.Role, sc) {
		return nil, ErrForbidden
	}
	return sc, nil
}
