package sheet

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"
)

// Append adds one row after the last occupied row of the workbook's first
// sheet and saves the file in place. Used by the add-birthday flow before
// the workbook is uploaded back to the drive.
func Append(path string, row []any) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	target := len(rows) + 1
	for i, value := range row {
		cell, err := excelize.CoordinatesToCellName(i+1, target)
		if err != nil {
			return fmt.Errorf("failed to address cell: %w", err)
		}
		if err := f.SetCellValue(sheets[0], cell, value); err != nil {
			return fmt.Errorf("failed to set cell %s: %w", cell, err)
		}
	}

	if err := f.Save(); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// Backup copies the workbook into dir under a timestamped name and keeps
// only the newest retention backups. Backup failures should not block an
// append; callers log and continue.
func Backup(path, dir string, retention int, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create backup dir: %w", err)
	}

	name := fmt.Sprintf("birthdays_%s.xlsx", time.Now().Format("2006_01_02_15_04_05"))
	if err := copyFile(path, filepath.Join(dir, name)); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to list backup dir: %w", err)
	}

	type backup struct {
		name    string
		modTime time.Time
	}
	var backups []backup
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil || entry.IsDir() {
			continue
		}
		backups = append(backups, backup{name: entry.Name(), modTime: info.ModTime()})
	}
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].modTime.After(backups[j].modTime)
	})

	for _, old := range backups[min(retention, len(backups)):] {
		if err := os.Remove(filepath.Join(dir, old.name)); err != nil {
			logger.Warn("Failed to prune old backup", "file", old.name, "error", err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	return out.Close()
}
