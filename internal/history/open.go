package history

import (
	"context"
	"errors"
	"strings"

	logx "toolshed/pkg/logx"
)

// Store is the minimal run-history API used by the run paths.
type Store interface {
	Append(ctx context.Context, e Entry) error
	// Recent returns up to limit entries, most recent first; script ""
	// means all scripts.
	Recent(ctx context.Context, script string, limit int) ([]Entry, error)
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if history is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown history driver: " + driver)
	}
}
