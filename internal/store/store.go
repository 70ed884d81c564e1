// Package store persists briefs by id. The pipeline never assumes a
// particular storage technology; it only sees the BriefStore interface.
package store

import (
	"context"
	"errors"

	"briefcraft/internal/brief"
)

// ErrNotFound reports a brief id with no stored record.
var ErrNotFound = errors.New("brief not found")

// BriefStore is opaque get/set by brief id.
type BriefStore interface {
	Get(ctx context.Context, id string) (*brief.Brief, error)
	Put(ctx context.Context, b *brief.Brief) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
}
