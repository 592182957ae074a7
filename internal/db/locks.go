package db

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/yigit/unitime/internal/pkg/apperrors"
	"github.com/yigit/unitime/internal/pkg/dberrors"
)

// AcquireAdvisoryLocks takes transaction-scoped advisory locks on keys in
// ascending order. The locks are released by Postgres when tx commits or rolls
// back. A positive timeout bounds the wait through a transaction-local
// lock_timeout.
func AcquireAdvisoryLocks(ctx context.Context, tx pgx.Tx, timeout time.Duration, keys ...int64) error {
	if len(keys) == 0 {
		return nil
	}

	if timeout > 0 {
		ms := strconv.FormatInt(timeout.Milliseconds(), 10)
		if _, err := tx.Exec(ctx, "SELECT set_config('lock_timeout', $1, true)", ms+"ms"); err != nil {
			return fmt.Errorf("failed to set lock timeout: %w", err)
		}
	}

	sorted := append([]int64(nil), keys...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var last int64
	for i, key := range sorted {
		if i > 0 && key == last {
			continue
		}
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", key); err != nil {
			if dberrors.IsLockTimeout(err) {
				return fmt.Errorf("%w: advisory lock %d", apperrors.ErrScheduleBusy, key)
			}
			return fmt.Errorf("failed to acquire advisory lock %d: %w", key, err)
		}
		last = key
	}

	return nil
}
