package knowledge

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sandevgo/teambot/internal/core"
	"github.com/sandevgo/teambot/pkg/conv"
)

var ErrUnsupportedFormat = errors.New("unsupported file format")

// SupportedExtensions lists the file types ImportFile understands.
var SupportedExtensions = []string{".txt", ".md", ".csv", ".html", ".htm"}

func IsSupported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range SupportedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// ImportFile loads a local file into the knowledge base.
func (s *Service) ImportFile(ctx context.Context, path string) (int, error) {
	if !IsSupported(path) {
		return 0, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupportedFormat)
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return s.importReader(ctx, filepath.Base(path), f)
}

func (s *Service) importReader(ctx context.Context, name string, r io.Reader) (int, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		rows, err := readTable(r)
		if err != nil {
			return 0, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		return s.AddTable(ctx, rows, name)

	case ".html", ".htm":
		text, err := conv.HTMLToText(r)
		if err != nil {
			return 0, err
		}
		return s.AddText(ctx, text, name)

	case ".txt", ".md":
		data, err := io.ReadAll(r)
		if err != nil {
			return 0, fmt.Errorf("failed to read %s: %w", name, err)
		}
		return s.AddText(ctx, string(data), name)
	}

	return 0, fmt.Errorf("%s: %w", name, ErrUnsupportedFormat)
}

// readTable returns data rows; the first row is a header.
func readTable(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) <= 1 {
		return nil, nil
	}
	return rows[1:], nil
}

// SaveUpload writes r into the uploads dir under the base of name. An existing
// file is never overwritten: "_copy" is added before the extension instead.
func (s *Service) SaveUpload(name string, r io.Reader) (string, error) {
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) || base == "" {
		return "", fmt.Errorf("invalid file name %q", name)
	}

	if err := os.MkdirAll(s.uploadsDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create uploads dir: %w", err)
	}

	path := filepath.Join(s.uploadsDir, base)
	var (
		f   *os.File
		err error
	)
	for {
		f, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			break
		}
		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("failed to create %s: %w", path, err)
		}
		path = copyName(path)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

func copyName(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_copy" + ext
}

// IngestUpload saves a document sent by a user, imports it and records the
// upload for statistics.
func (s *Service) IngestUpload(ctx context.Context, key core.ConversationKey, name string, r io.Reader) (int, error) {
	if !IsSupported(name) {
		return 0, ErrUnsupportedFormat
	}

	path, err := s.SaveUpload(name, r)
	if err != nil {
		return 0, err
	}

	n, err := s.ImportFile(ctx, path)
	if err != nil {
		return 0, err
	}

	upload := core.Upload{
		Key:       key,
		FileName:  filepath.Base(path),
		FileType:  strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.uploads.RecordUpload(ctx, upload); err != nil {
		return n, fmt.Errorf("failed to record upload: %w", err)
	}
	return n, nil
}
