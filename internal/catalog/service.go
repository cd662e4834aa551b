package catalog

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/andresuchdata/material-tracker/internal/domain"
	"github.com/andresuchdata/material-tracker/internal/repository"
	"github.com/rs/zerolog/log"
)

const defaultSearchLimit = 20

// Source yields the raw bytes of a catalogue spreadsheet and its file name.
type Source interface {
	Fetch(ctx context.Context) (name string, data []byte, err error)
}

// LocalSource reads a catalogue from disk.
type LocalSource struct {
	Path string
}

func (s LocalSource) Fetch(_ context.Context) (string, []byte, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read catalogue %s: %w", s.Path, err)
	}
	return filepath.Base(s.Path), data, nil
}

// DriveSource reads the newest spreadsheet in a Drive folder.
type DriveSource struct {
	Client   *DriveClient
	FolderID string
}

func (s DriveSource) Fetch(ctx context.Context) (string, []byte, error) {
	files, err := s.Client.ListFiles(ctx, s.FolderID)
	if err != nil {
		return "", nil, err
	}

	file, ok := latestSpreadsheet(files)
	if !ok {
		return "", nil, fmt.Errorf("no catalogue spreadsheet in drive folder %s", s.FolderID)
	}

	var buf bytes.Buffer
	if err := s.Client.Download(ctx, file.ID, &buf); err != nil {
		return "", nil, err
	}
	return file.Name, buf.Bytes(), nil
}

// UploadSource wraps a spreadsheet already held in memory.
type UploadSource struct {
	Name string
	Data []byte
}

func (s UploadSource) Fetch(_ context.Context) (string, []byte, error) {
	return s.Name, s.Data, nil
}

type Service struct {
	parts repository.PartRepository
	sheet string
}

func NewService(parts repository.PartRepository, sheet string) *Service {
	return &Service{parts: parts, sheet: sheet}
}

// Parse decodes a spreadsheet by file extension.
func (s *Service) Parse(name string, data []byte) ([]domain.Part, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx":
		return ParseXLSX(bytes.NewReader(data), s.sheet)
	case ".csv":
		return ParseCSV(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("unsupported catalogue format %q", filepath.Ext(name))
	}
}

// ImportCatalog fetches, parses and upserts a catalogue, returning the number of parts written.
func (s *Service) ImportCatalog(ctx context.Context, src Source) (int, error) {
	name, data, err := src.Fetch(ctx)
	if err != nil {
		return 0, err
	}

	parts, err := s.Parse(name, data)
	if err != nil {
		return 0, err
	}

	n, err := s.parts.Upsert(ctx, parts)
	if err != nil {
		return 0, fmt.Errorf("failed to store catalogue: %w", err)
	}

	log.Info().Str("file", name).Int("parts", n).Msg("catalogue imported")
	return n, nil
}

func (s *Service) LookupPart(ctx context.Context, partNumber string) (*domain.Part, error) {
	partNumber = strings.TrimSpace(partNumber)
	if partNumber == "" {
		return nil, domain.ErrNotFound
	}
	return s.parts.Get(ctx, partNumber)
}

func (s *Service) SearchParts(ctx context.Context, query string, limit int) ([]domain.Part, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	return s.parts.Search(ctx, strings.TrimSpace(query), limit)
}
