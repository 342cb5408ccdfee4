package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"soltab/internal/csvexport"
	"soltab/internal/domain"
	"soltab/internal/port"
	"soltab/internal/xlsxexport"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatJSON = "json"
)

// Artifact names inside the output directory.
const (
	TablesDir         = "tables"
	QualityReportFile = "quality_report.csv"
	WorkbookFile      = "dataset.xlsx"
	MasterIndexFile   = "master_index.json"
	DatasetFile       = "dataset.json"
	RecordsFile       = "records.json"
)

var contentTypes = map[string]string{
	".csv":  "text/csv; charset=utf-8",
	".json": "application/json",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// Artifact is one written export file.
type Artifact struct {
	// Name is the slash-separated path relative to the output directory.
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Location    string `json:"location,omitempty"`
}

// ExportLocation tells a caller where to fetch an export from.
type ExportLocation struct {
	// URL is set when the export is served from object storage.
	URL string
	// Path is set when the export is served from the local output directory.
	Path        string
	Filename    string
	ContentType string
}

// ExportService writes dataset exports and publishes them.
type ExportService interface {
	Write(ctx context.Context, ds *domain.Dataset, records []*domain.TableRecord) ([]Artifact, error)
	Publish(ctx context.Context, artifacts []Artifact) ([]Artifact, error)
	Locate(ctx context.Context, name string) (*ExportLocation, error)
}

// ExportConfig holds export settings.
type ExportConfig struct {
	OutputDir     string
	Formats       []string
	Prefix        string
	PresignExpiry time.Duration
}

type exportService struct {
	cfg     ExportConfig
	storage port.ObjectStorage
	logger  *zap.Logger
	now     func() time.Time
}

// NewExportService creates an ExportService. storage may be nil, in which
// case exports stay local.
func NewExportService(cfg ExportConfig, storage port.ObjectStorage, logger *zap.Logger) ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &exportService{cfg: cfg, storage: storage, logger: logger, now: time.Now}
}

func (s *exportService) enabled(format string) bool {
	for _, f := range s.cfg.Formats {
		if strings.EqualFold(strings.TrimSpace(f), format) {
			return true
		}
	}
	return false
}

func (s *exportService) Write(ctx context.Context, ds *domain.Dataset, records []*domain.TableRecord) ([]Artifact, error) {
	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	var out []Artifact
	add := func(name string, write func(*bufio.Writer) error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		a, err := s.writeFile(name, write)
		if err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		out = append(out, *a)
		return nil
	}

	if s.enabled(FormatCSV) {
		for i := range ds.Tables {
			m := &ds.Tables[i]
			name := path.Join(TablesDir, csvexport.SanitizeFilename(m.Name)+".csv")
			if err := add(name, func(w *bufio.Writer) error { return writeTableCSV(w, m.Table) }); err != nil {
				return nil, err
			}
		}
		if err := add(QualityReportFile, func(w *bufio.Writer) error { return writeReportCSV(w, records) }); err != nil {
			return nil, err
		}
	}
	if s.enabled(FormatXLSX) {
		if err := add(WorkbookFile, func(w *bufio.Writer) error { return xlsxexport.WriteDataset(w, ds, records) }); err != nil {
			return nil, err
		}
	}
	if s.enabled(FormatJSON) {
		if err := add(MasterIndexFile, func(w *bufio.Writer) error { return writeJSON(w, ds.Index) }); err != nil {
			return nil, err
		}
		if err := add(DatasetFile, func(w *bufio.Writer) error { return writeJSON(w, ds) }); err != nil {
			return nil, err
		}
		if err := add(RecordsFile, func(w *bufio.Writer) error { return writeJSON(w, records) }); err != nil {
			return nil, err
		}
	}

	s.logger.Info("service.ExportService: exports written",
		zap.String("dir", s.cfg.OutputDir),
		zap.Int("artifacts", len(out)),
	)
	return out, nil
}

func (s *exportService) writeFile(name string, write func(*bufio.Writer) error) (*Artifact, error) {
	full := filepath.Join(s.cfg.OutputDir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(full)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := write(w); err != nil {
		return nil, err
	}
	if err := w.Flush(); err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return &Artifact{Name: name, ContentType: contentType(name), Size: info.Size()}, nil
}

func writeTableCSV(w *bufio.Writer, t *domain.Table) error {
	if err := csvexport.WriteBOM(w); err != nil {
		return err
	}
	cw := csvexport.NewWriter(w)
	if t != nil {
		if err := cw.WriteTable(t); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeReportCSV(w *bufio.Writer, records []*domain.TableRecord) error {
	if err := csvexport.WriteBOM(w); err != nil {
		return err
	}
	cw := csvexport.NewWriter(w)
	if err := cw.WriteReportHeader(); err != nil {
		return err
	}
	if err := cw.WriteRecords(records); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON(w *bufio.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func contentType(name string) string {
	if ct, ok := contentTypes[strings.ToLower(path.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Publish uploads artifacts under the configured prefix. On failure the
// objects uploaded so far are removed again.
func (s *exportService) Publish(ctx context.Context, artifacts []Artifact) ([]Artifact, error) {
	if s.storage == nil {
		return nil, domain.ErrStorageNotConfig
	}

	published := make([]Artifact, 0, len(artifacts))
	for _, a := range artifacts {
		data, err := os.ReadFile(filepath.Join(s.cfg.OutputDir, filepath.FromSlash(a.Name)))
		if err != nil {
			s.rollback(published)
			return nil, fmt.Errorf("reading %s: %w", a.Name, err)
		}
		out, err := s.storage.Upload(ctx, port.UploadInput{
			Key:         s.key(a.Name),
			Body:        bytes.NewReader(data),
			ContentType: a.ContentType,
		})
		if err != nil {
			s.rollback(published)
			return nil, fmt.Errorf("publishing %s: %w", a.Name, err)
		}
		a.Location = out.Location
		published = append(published, a)
	}

	s.logger.Info("service.ExportService: exports published",
		zap.String("prefix", s.cfg.Prefix),
		zap.Int("artifacts", len(published)),
	)
	return published, nil
}

func (s *exportService) rollback(published []Artifact) {
	// the request context may already be gone
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, a := range published {
		if err := s.storage.Delete(ctx, s.key(a.Name)); err != nil {
			s.logger.Warn("service.ExportService: rollback delete failed",
				zap.String("artifact", a.Name),
				zap.Error(err),
			)
		}
	}
}

func (s *exportService) key(name string) string {
	if s.cfg.Prefix == "" {
		return name
	}
	return path.Join(s.cfg.Prefix, name)
}

// CleanArtifactName validates a client-supplied artifact name and returns
// its canonical form.
func CleanArtifactName(name string) (string, error) {
	name = strings.TrimPrefix(strings.ReplaceAll(name, `\`, "/"), "/")
	clean := path.Clean(name)
	if name == "" || clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", domain.ErrExportNotFound
	}
	return clean, nil
}

func (s *exportService) Locate(ctx context.Context, name string) (*ExportLocation, error) {
	clean, err := CleanArtifactName(name)
	if err != nil {
		return nil, err
	}
	base := path.Base(clean)
	ext := strings.TrimPrefix(path.Ext(base), ".")
	loc := &ExportLocation{
		Filename:    csvexport.BuildFilename(strings.TrimSuffix(base, path.Ext(base)), ext, s.now()),
		ContentType: contentType(clean),
	}

	if s.storage != nil {
		url, err := s.storage.GetPresignedURL(ctx, s.key(clean), s.cfg.PresignExpiry)
		if err == nil {
			loc.URL = url
			return loc, nil
		}
		s.logger.Warn("service.ExportService: presign failed, falling back to local file",
			zap.String("artifact", clean),
			zap.Error(err),
		)
	}

	full := filepath.Join(s.cfg.OutputDir, filepath.FromSlash(clean))
	info, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrExportNotFound
		}
		return nil, fmt.Errorf("locating %s: %w", clean, err)
	}
	if info.IsDir() {
		return nil, domain.ErrExportNotFound
	}
	loc.Path = full
	return loc, nil
}

// LoadRun reads the dataset and records a previous run wrote to dir.
func LoadRun(dir string) (*domain.Dataset, []*domain.TableRecord, error) {
	var ds domain.Dataset
	if err := readJSON(filepath.Join(dir, DatasetFile), &ds); err != nil {
		return nil, nil, err
	}
	var records []*domain.TableRecord
	if err := readJSON(filepath.Join(dir, RecordsFile), &records); err != nil {
		return nil, nil, err
	}
	return &ds, records, nil
}

func readJSON(name string, v interface{}) error {
	f, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("opening %s: %w", filepath.Base(name), err)
	}
	defer f.Close()
	if err := json.NewDecoder(bufio.NewReader(f)).Decode(v); err != nil {
		return fmt.Errorf("decoding %s: %w", filepath.Base(name), err)
	}
	return nil
}
