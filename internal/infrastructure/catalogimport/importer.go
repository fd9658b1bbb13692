package catalogimport

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/facturacion/backend/internal/domain/catalog"
	"github.com/facturacion/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrChecksumMismatch is returned when the data file does not match the manifest
var ErrChecksumMismatch = errors.New("dataset checksum does not match manifest")

// ObjectOpener opens remote dataset locations such as s3://bucket/key
type ObjectOpener interface {
	Open(ctx context.Context, location string) (io.ReadCloser, error)
}

// Report summarizes an import
type Report struct {
	Dataset         catalog.Dataset
	PreviousVersion string
	SkippedRows     int
	Unchanged       bool
}

// Importer validates a dataset and swaps it in as the active reference catalog
type Importer struct {
	repo   catalog.ReferenceRepository
	cache  catalog.HistogramCache
	logger *zap.Logger
	now    func() time.Time
}

// NewImporter creates an importer. cache may be nil.
func NewImporter(repo catalog.ReferenceRepository, cache catalog.HistogramCache, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{repo: repo, cache: cache, logger: logger, now: time.Now}
}

// Checksum returns the hex SHA-256 of data
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Import loads data described by the manifest. Every row is validated
// before anything is written; one invalid row rejects the whole dataset.
// Re-importing the active version with the same checksum is a no-op
// unless force is set.
func (i *Importer) Import(ctx context.Context, m *Manifest, data []byte, force bool) (*Report, error) {
	checksum := Checksum(data)
	if m.SHA256 != "" && m.SHA256 != checksum {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, m.SHA256, checksum)
	}

	entries, skipped, err := i.parse(m, data)
	if err != nil {
		return nil, err
	}

	report := &Report{SkippedRows: skipped}
	var previousKey string
	previous, err := i.repo.ActiveDataset(ctx)
	switch {
	case err == nil:
		report.PreviousVersion = previous.Version
		previousKey = previous.CacheKey()
		if !force && previous.Version == m.Version && previous.Checksum == checksum {
			report.Dataset = *previous
			report.Unchanged = true
			i.logger.Info("Dataset already active, skipping", zap.String("version", m.Version))
			return report, nil
		}
	case errors.Is(err, shared.ErrNotFound):
	default:
		return nil, err
	}

	dataset := &catalog.Dataset{
		Version:    m.Version,
		Source:     m.Source,
		Checksum:   checksum,
		ImportedAt: i.now(),
	}
	if err := i.repo.ReplaceDataset(ctx, dataset, entries); err != nil {
		return nil, err
	}
	report.Dataset = *dataset

	i.invalidate(ctx, previousKey)
	if key := dataset.CacheKey(); key != previousKey {
		i.invalidate(ctx, key)
	}

	i.logger.Info("Reference dataset imported",
		zap.String("version", dataset.Version),
		zap.String("previous_version", report.PreviousVersion),
		zap.Int("rows", dataset.RowCount),
		zap.Int("skipped_rows", skipped),
		zap.String("checksum", checksum))
	return report, nil
}

func (i *Importer) invalidate(ctx context.Context, datasetKey string) {
	if i.cache == nil || datasetKey == "" {
		return
	}
	if err := i.cache.Invalidate(ctx, datasetKey); err != nil {
		i.logger.Warn("Failed to invalidate histogram cache", zap.String("dataset_key", datasetKey), zap.Error(err))
	}
}

func (i *Importer) parse(m *Manifest, data []byte) ([]catalog.ReferenceEntry, int, error) {
	p, err := NewParser(bytes.NewReader(data), WithDelimiter(m.DelimiterRune()))
	if err != nil {
		return nil, 0, err
	}
	if missing := p.MissingHeaders(m.Header(ColumnCode), m.Header(ColumnCategory)); len(missing) > 0 {
		return nil, 0, fmt.Errorf("dataset is missing required columns: %s", strings.Join(missing, ", "))
	}

	var (
		entries []catalog.ReferenceEntry
		skipped int
		errs    ValidationErrors
		seen    = make(map[string]int)
	)
	for {
		row, err := p.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}
		if row.IsEmpty() {
			skipped++
			continue
		}

		raw := row.Get(m.Header(ColumnCode))
		code, err := catalog.NormalizeCode(raw)
		if err != nil {
			errs.add(RowError{Line: row.Line, Column: m.Header(ColumnCode), Message: "invalid classification code", Value: raw})
			continue
		}
		if first, dup := seen[code]; dup {
			errs.add(RowError{Line: row.Line, Column: m.Header(ColumnCode), Message: fmt.Sprintf("duplicate of line %d", first), Value: code})
			continue
		}
		seen[code] = row.Line

		entries = append(entries, catalog.ReferenceEntry{
			Code:                       code,
			OfficialDescription:        row.Get(m.Header(ColumnOfficialDescription)),
			Kind:                       row.Get(m.Header(ColumnKind)),
			Category:                   row.Get(m.Header(ColumnCategory)),
			UsefulLife:                 row.Get(m.Header(ColumnUsefulLife)),
			ImportFlag:                 row.Get(m.Header(ColumnImportFlag)),
			DiscountedGoodsDescription: row.Get(m.Header(ColumnDiscountedGoodsDescription)),
			DatasetVersion:             m.Version,
		})
	}

	if errs.Total > 0 {
		return nil, 0, &errs
	}
	if len(entries) == 0 {
		return nil, 0, errors.New("dataset contains no data rows")
	}
	return entries, skipped, nil
}

// ReadLocation reads a local path or, through remote, an s3:// location
func ReadLocation(ctx context.Context, location string, remote ObjectOpener) ([]byte, error) {
	var rc io.ReadCloser
	if strings.HasPrefix(location, "s3://") {
		if remote == nil {
			return nil, fmt.Errorf("object storage is not configured for %s", location)
		}
		var err error
		if rc, err = remote.Open(ctx, location); err != nil {
			return nil, err
		}
	} else {
		f, err := os.Open(location)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", location, err)
		}
		rc = f
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", location, err)
	}
	return data, nil
}

// ResolveDataFile locates the manifest's data file next to the manifest
func ResolveDataFile(manifestLocation, file string) string {
	if strings.HasPrefix(manifestLocation, "s3://") {
		if strings.HasPrefix(file, "s3://") {
			return file
		}
		dir := path.Dir(strings.TrimPrefix(manifestLocation, "s3://"))
		return "s3://" + path.Join(dir, file)
	}
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(filepath.Dir(manifestLocation), file)
}
