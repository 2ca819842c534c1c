//go:build !linux && !windows

package hostsched

import (
	"context"
	"errors"

	logx "toolshed/pkg/logx"
)

// ErrUnsupported is returned on platforms without a supported host
// scheduler. Interactive runs still work; only scheduling is refused.
var ErrUnsupported = errors.New("hostsched: no host scheduler backend for this OS")

func NewBackend(_ context.Context, _ logx.Logger) (Backend, error) {
	return nil, ErrUnsupported
}
