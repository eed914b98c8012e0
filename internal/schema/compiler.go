package schema

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	js "github.com/santhosh-tekuri/jsonschema/v5"
)

// Compiler compiles JSON schemas once and keeps them in an expiring LRU
// keyed by the hash of the schema document.
type Compiler struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, *js.Schema]
}

// NewCompilerWithCache creates a new compiler with cache
func NewCompilerWithCache(maxSize int) *Compiler {
	return &Compiler{
		cache: expirable.NewLRU[string, *js.Schema](maxSize, nil, time.Hour),
	}
}

func key(doc []byte) string {
	sum := sha256.Sum256(doc)
	return hex.EncodeToString(sum[:])
}

// Prepare compiles and caches a schema
func (c *Compiler) Prepare(ctx context.Context, schema map[string]any) (*js.Schema, error) {
	doc, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	k := key(doc)
	if compiled, ok := c.cache.Get(k); ok {
		return compiled, nil
	}

	// js.Compiler keeps added resources, so each schema gets a fresh one
	c.mu.Lock()
	defer c.mu.Unlock()
	comp := js.NewCompiler()
	resourceURL := "mem://schema/" + k + ".json"
	if err := comp.AddResource(resourceURL, bytes.NewReader(doc)); err != nil {
		return nil, fmt.Errorf("failed to add resource: %w", err)
	}
	compiled, err := comp.Compile(resourceURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	c.cache.Add(k, compiled)
	return compiled, nil
}

// Validate validates a value against a schema
func (c *Compiler) Validate(ctx context.Context, schema map[string]any, value map[string]any) error {
	compiled, err := c.Prepare(ctx, schema)
	if err != nil {
		return err
	}

	// Round trip through JSON so Go types (ints, time.Time, structs) become
	// the generic values the validator expects.
	valueBytes, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	var valueRaw any
	if err := json.Unmarshal(valueBytes, &valueRaw); err != nil {
		return fmt.Errorf("failed to unmarshal value: %w", err)
	}

	if err := compiled.Validate(valueRaw); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// Len returns the number of cached schemas
func (c *Compiler) Len() int {
	return c.cache.Len()
}
