// Package video manages the local video library: files saved from
// uploads or YouTube downloads, plus the URL parsing and fetch logic
// for the latter.
package video

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/shortssprint/shortssprint/internal/api"
)

// FileInfo describes one file in the library.
type FileInfo struct {
	Filename string    `json:"filename"`
	Size     int64     `json:"size_bytes"`
	ModTime  time.Time `json:"modified_at"`
}

// Stats summarizes the library.
type Stats struct {
	Files      int   `json:"total_files"`
	TotalBytes int64 `json:"total_size_bytes"`
}

// Store owns the storage directory.
type Store struct {
	dir string
	log zerolog.Logger
}

// NewStore creates the directory if needed.
func NewStore(dir string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create video dir: %w", err)
	}
	return &Store{dir: dir, log: log}, nil
}

// Dir returns the storage directory path.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes content under a timestamped, sanitized name. The write
// goes to a temp file first and is renamed into place so a crashed
// upload never leaves a half-written video behind.
func (s *Store) Save(name string, content io.Reader) (FileInfo, error) {
	final := fmt.Sprintf("%s_%s", time.Now().Format("20060102_150405"), sanitizeFilename(name))
	finalPath := filepath.Join(s.dir, final)

	tmpPath := finalPath + ".tmp-" + uuid.NewString()[:8]
	f, err := os.Create(tmpPath)
	if err != nil {
		return FileInfo{}, fmt.Errorf("create temp file: %w", err)
	}
	n, err := io.Copy(f, content)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpPath)
		return FileInfo{}, fmt.Errorf("write video: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return FileInfo{}, fmt.Errorf("finalize video: %w", err)
	}

	s.log.Info().Str("filename", final).Int64("bytes", n).Msg("video saved")
	return FileInfo{Filename: final, Size: n, ModTime: time.Now()}, nil
}

// Open returns a reader over one stored file.
func (s *Store) Open(name string) (*os.File, error) {
	clean := filepath.Base(name)
	f, err := os.Open(filepath.Join(s.dir, clean))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, api.Errorf(api.KindNotFound, "video %q not found", clean)
		}
		return nil, fmt.Errorf("open video: %w", err)
	}
	return f, nil
}

// Info returns metadata for one file.
func (s *Store) Info(name string) (FileInfo, error) {
	clean := filepath.Base(name)
	st, err := os.Stat(filepath.Join(s.dir, clean))
	if err != nil {
		return FileInfo{}, api.Errorf(api.KindNotFound, "video %q not found", clean)
	}
	return FileInfo{Filename: clean, Size: st.Size(), ModTime: st.ModTime()}, nil
}

// List returns all files, newest first.
func (s *Store) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read video dir: %w", err)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		st, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{Filename: e.Name(), Size: st.Size(), ModTime: st.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].ModTime.After(files[j].ModTime) })
	return files, nil
}

// Stats returns file count and total size.
func (s *Store) Stats() (Stats, error) {
	files, err := s.List()
	if err != nil {
		return Stats{}, err
	}
	var st Stats
	for _, f := range files {
		st.Files++
		st.TotalBytes += f.Size
	}
	return st, nil
}

// Remove deletes one file.
func (s *Store) Remove(name string) error {
	clean := filepath.Base(name)
	if err := os.Remove(filepath.Join(s.dir, clean)); err != nil {
		if os.IsNotExist(err) {
			return api.Errorf(api.KindNotFound, "video %q not found", clean)
		}
		return fmt.Errorf("remove video: %w", err)
	}
	s.log.Info().Str("filename", clean).Msg("video removed")
	return nil
}

// ListOlderThan returns files last modified before the cutoff.
func (s *Store) ListOlderThan(cutoff time.Time) ([]FileInfo, error) {
	files, err := s.List()
	if err != nil {
		return nil, err
	}
	old := files[:0]
	for _, f := range files {
		if f.ModTime.Before(cutoff) {
			old = append(old, f)
		}
	}
	return old, nil
}

// sanitizeFilename strips path separators and characters that trip up
// shells or filesystems, collapsing anything suspect to underscores.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()
	if out == "" || strings.Trim(out, "._") == "" {
		out = "video"
	}
	return out
}
