package memoryinfra

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/memorai/memorai/pkg/memory"
)

// LocalSnapshotter writes reset dumps into a directory
type LocalSnapshotter struct {
	dir string
	now func() time.Time
}

var _ memory.Snapshotter = (*LocalSnapshotter)(nil)

func NewLocalSnapshotter(dir string) (*LocalSnapshotter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &LocalSnapshotter{dir: dir, now: time.Now}, nil
}

func (l *LocalSnapshotter) Save(ctx context.Context, records []memory.Record) (string, error) {
	data, err := encodeSnapshot(records)
	if err != nil {
		return "", err
	}
	path := filepath.Join(l.dir, snapshotName(l.now()))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}
