// Package services holds the task and project workflows. Every operation runs in one
// database transaction that is handed down to the audit and assignment helpers.
package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tasktrack-dev/tasktrack/internal/types"
	"gorm.io/gorm"
)

type store struct {
	db        *gorm.DB
	opTimeout time.Duration
}

func newStore(db *gorm.DB, opTimeout time.Duration) store {
	return store{db: db, opTimeout: opTimeout}
}

func (s store) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

// transaction runs fn as one unit of work; any error rolls everything back.
func (s store) transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	return translate(ctx, s.db.WithContext(ctx).Transaction(fn))
}

func (s store) read(ctx context.Context, fn func(tx *gorm.DB) error) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	return translate(ctx, fn(s.db.WithContext(ctx)))
}

func translate(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	var typed *types.Error
	if errors.As(err, &typed) {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return types.Unavailable(err, "storage operation aborted")
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.NotFound("record not found")
	}
	return err
}

func notFoundOr(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.NotFound(format, args...)
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

func distinctIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func joinIDs(ids []uint) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatUint(uint64(id), 10))
	}
	return strings.Join(parts, ", ")
}

func ptr[T any](v T) *T {
	return &v
}
