package bot

import (
	"context"
	"fmt"
	"log/slog"

	"bdaybot/internal/config"
	"bdaybot/internal/conversation"
	"bdaybot/internal/loader"
	"bdaybot/internal/sheet"
)

// FileSync moves the workbook between the drive and the local path. The
// disk client implements it.
type FileSync interface {
	Download(ctx context.Context, remotePath, localPath string) error
	Upload(ctx context.Context, localPath, remotePath string, overwrite bool) error
}

// Recorder appends confirmed birthdays to the shared workbook and pushes it
// back to the drive. It implements the dialogue's save step.
type Recorder struct {
	cfg    *config.Config
	sync   FileSync
	loader *loader.Loader
	logger *slog.Logger
}

// NewRecorder creates a recorder over the drive client and loader.
func NewRecorder(cfg *config.Config, sync FileSync, ldr *loader.Loader, logger *slog.Logger) *Recorder {
	return &Recorder{
		cfg:    cfg,
		sync:   sync,
		loader: ldr,
		logger: logger.With("component", "recorder"),
	}
}

// Record downloads the current workbook, snapshots it, appends the draft as
// a new row, and uploads the result over the remote file. A successful
// write-back triggers a store refresh so the new entry is queryable at
// once.
func (r *Recorder) Record(ctx context.Context, draft conversation.Draft) error {
	remote := r.cfg.Disk.RemotePath
	local := r.cfg.Disk.LocalPath

	if err := r.sync.Download(ctx, remote, local); err != nil {
		return fmt.Errorf("failed to fetch current workbook: %w", err)
	}

	if err := sheet.Backup(local, r.cfg.Backup.Dir, r.cfg.Backup.Retention, r.logger); err != nil {
		r.logger.WarnContext(ctx, "Workbook backup failed, continuing", "error", err)
	}

	// Column order matches the workbook layout; the third column is unused
	// but present in the file.
	if err := sheet.Append(local, []any{draft.Day, draft.Month, "", draft.Name}); err != nil {
		return fmt.Errorf("failed to append row: %w", err)
	}

	if err := r.sync.Upload(ctx, local, remote, true); err != nil {
		return fmt.Errorf("failed to upload workbook: %w", err)
	}

	r.logger.InfoContext(ctx, "Birthday written back to drive",
		"name", draft.Name, "day", draft.Day, "month", draft.Month)

	r.loader.Load(ctx)
	return nil
}
