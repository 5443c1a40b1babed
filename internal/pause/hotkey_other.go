//go:build !windows

package pause

import "context"

// Listen is unavailable off Windows; the worker logs and runs without a
// pause hotkey.
func Listen(ctx context.Context, spec string, ctrl *Controller) error {
	if _, err := ParseChord(spec); err != nil {
		return err
	}
	return ErrUnsupported
}
