// Package source defines the authoritative schedule source consumed at
// startup and on every refresh tick, plus the built-in implementations.
//
// The source is the sole owner of published fields. Recorded actual times
// are mirrored back to it on a best-effort basis; the in-memory store stays
// authoritative for them.
package source

import (
	"context"
	"errors"
	"time"

	"github.com/fentz26/stageboard/internal/models"
)

// Field names an act's writable column in the source.
type Field string

const (
	FieldStart Field = "actual_start"
	FieldEnd   Field = "actual_end"
)

// ErrActNotFound is returned by WriteActual when the named act is missing
// from the source.
var ErrActNotFound = errors.New("act not found in source")

// Source loads the full ordered schedule and accepts write-through of
// recorded actual times. Load failures are non-fatal to the caller, which
// keeps its last good schedule.
type Source interface {
	Load(ctx context.Context) ([]models.Act, error)

	// WriteActual mirrors a locally recorded actual time back to the
	// source. A nil value clears the field.
	WriteActual(ctx context.Context, act string, field Field, value *time.Time) error
}
