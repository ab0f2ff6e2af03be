package reporter

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aleister1102/mirrorinc/internal/common"
)

// ArchiveResult describes a finished archive.
type ArchiveResult struct {
	Path    string
	Entries int
	Size    int64
}

// Archiver zips an output tree.
type Archiver struct {
	logger zerolog.Logger
}

// NewArchiver creates an archiver.
func NewArchiver(logger zerolog.Logger) *Archiver {
	return &Archiver{
		logger: logger.With().Str("component", "Archiver").Logger(),
	}
}

// ArchivePath returns "<dir>.zip" for an output directory.
func ArchivePath(dir string) string {
	return filepath.Clean(dir) + ArchiveExtension
}

// Archive writes every regular file under srcDir into zipPath. Entry names
// are relative to srcDir and slash separated. The archive is written to a
// temporary file first and renamed into place.
func (a *Archiver) Archive(ctx context.Context, srcDir, zipPath string) (*ArchiveResult, error) {
	tmpPath := zipPath + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return nil, common.NewFilesystemError("create", tmpPath, err)
	}

	entries, err := a.writeEntries(ctx, out, srcDir)
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		a.logger.Error().Err(err).Str("source", srcDir).Msg("Failed to build archive")
		return nil, fmt.Errorf("failed to archive %s: %w", srcDir, err)
	}

	if err := os.Rename(tmpPath, zipPath); err != nil {
		_ = os.Remove(tmpPath)
		return nil, common.NewFilesystemError("rename", zipPath, err)
	}

	result := &ArchiveResult{Path: zipPath, Entries: entries}
	if info, statErr := os.Stat(zipPath); statErr == nil {
		result.Size = info.Size()
	}
	a.logger.Info().Str("path", zipPath).Int("entries", entries).Int64("size", result.Size).Msg("Archive created")
	return result, nil
}

func (a *Archiver) writeEntries(ctx context.Context, out io.Writer, srcDir string) (int, error) {
	zw := zip.NewWriter(out)
	entries := 0

	// WalkDir visits entries in lexical order, so the archive layout is stable.
	walkErr := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if strings.HasPrefix(name, "../") {
			return nil
		}
		if err := addFile(zw, path, name, d); err != nil {
			return err
		}
		entries++
		return nil
	})
	if walkErr != nil {
		_ = zw.Close()
		return entries, walkErr
	}
	return entries, zw.Close()
}

func addFile(zw *zip.Writer, path, name string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}
