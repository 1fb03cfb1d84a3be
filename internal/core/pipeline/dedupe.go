package pipeline

import (
	"fmt"
	"strings"
	"sync"
)

// Deduplicator es la interfaz para sistemas de deduplicación.
type Deduplicator interface {
	// Seen marca una key como vista en un keyspace y retorna true si ya existía
	Seen(keyspace, key string) bool
}

// DedupeMode selecciona la estrategia de deduplicación de hechos.
type DedupeMode string

const (
	DedupeOff   DedupeMode = "off"
	DedupeExact DedupeMode = "exact"
	DedupeBloom DedupeMode = "bloom"
)

// ParseDedupeMode interpreta el valor de --dedupe. La cadena vacía equivale a off.
func ParseDedupeMode(s string) (DedupeMode, error) {
	switch mode := DedupeMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case "", DedupeOff:
		return DedupeOff, nil
	case DedupeExact, DedupeBloom:
		return mode, nil
	default:
		return "", fmt.Errorf("modo de deduplicación desconocido %q", s)
	}
}

// NewDeduplicator devuelve el deduplicador del modo pedido, o nil con off.
func NewDeduplicator(mode DedupeMode) Deduplicator {
	switch mode {
	case DedupeExact:
		return NewDedupe()
	case DedupeBloom:
		return NewBloomDedupe()
	default:
		return nil
	}
}

// Dedupe provides exact deduplication using an in-memory map.
//
// No false positives, but memory grows with the number of distinct facts.
// For unbounded captures where an occasional lost duplicate is acceptable,
// use BloomDedupe instead.
type Dedupe struct {
	mu   sync.Mutex
	seen map[string]map[string]struct{}
}

// NewDedupe creates an empty deduplicator ready for use.
func NewDedupe() *Dedupe {
	return &Dedupe{seen: make(map[string]map[string]struct{})}
}

// Seen marks the key within the specified namespace and returns true if it was already seen.
// The pipeline uses the parser name as namespace so that batch runs of
// different parsers never suppress each other's facts.
func (d *Dedupe) Seen(space, key string) bool {
	if d == nil || space == "" || key == "" {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	bucket := d.seen[space]
	if bucket == nil {
		bucket = make(map[string]struct{})
		d.seen[space] = bucket
	}
	if _, ok := bucket[key]; ok {
		return true
	}
	bucket[key] = struct{}{}
	return false
}
