package probe

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"organtour/pkg/store"
)

// probeKey is written and removed again by the store probe.
const probeKey = "probe.roundtrip"

// Store verifies that the preference store accepts a write and returns it.
func Store(st store.StateStore) Probe {
	return Probe{
		Name:     "preferences",
		Critical: true,
		Check: func(ctx context.Context) error {
			if st == nil {
				return errors.New("no store configured")
			}
			want := strconv.FormatInt(time.Now().UnixNano(), 10)
			if err := st.SetState(ctx, probeKey, want); err != nil {
				return fmt.Errorf("write: %w", err)
			}
			got, ok := st.GetState(ctx, probeKey)
			if !ok || got != want {
				return fmt.Errorf("read back %q, want %q", got, want)
			}
			if err := st.DeleteState(ctx, probeKey); err != nil {
				return fmt.Errorf("cleanup: %w", err)
			}
			return nil
		},
	}
}

// Files runs check on every path and joins the failures. Missing cue files degrade
// the exhibit but do not stop it, so the probe is not critical.
func Files(name string, paths []string, check func(path string) error) Probe {
	return Probe{
		Name: name,
		Check: func(ctx context.Context) error {
			var errs []error
			for _, p := range paths {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := check(p); err != nil {
					errs = append(errs, err)
				}
			}
			return errors.Join(errs...)
		},
	}
}
