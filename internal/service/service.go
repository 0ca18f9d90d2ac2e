// Package service runs validations on behalf of the HTTP layer: it bounds
// concurrency, applies timeouts, attaches profile header checks and persists
// every report.
package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/JonMunkholm/csvlint/internal/csvcheck"
	"github.com/JonMunkholm/csvlint/internal/logging"
	"github.com/JonMunkholm/csvlint/internal/profile"
	"github.com/JonMunkholm/csvlint/internal/store"
	"github.com/google/uuid"
)

// DefaultTimeout bounds a single validation when Config.Timeout is zero.
const DefaultTimeout = 5 * time.Minute

// Config holds the service limits and the default dialect.
type Config struct {
	Options       csvcheck.Options
	MaxLineBytes  int
	MaxFileSize   int64 // 0 means no limit
	Timeout       time.Duration
	MaxConcurrent int
	MaxWaitTime   time.Duration
}

// Service validates uploads and manages stored reports.
type Service struct {
	store    store.ReportStore
	profiles *profile.Registry
	limiter  *Limiter
	cfg      Config
	now      func() time.Time
}

// New creates a Service. A nil registry means no profiles are available.
func New(st store.ReportStore, profiles *profile.Registry, cfg Config) *Service {
	if profiles == nil {
		profiles = profile.NewRegistry()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxLineBytes <= 0 {
		cfg.MaxLineBytes = csvcheck.DefaultMaxLineBytes
	}
	return &Service{
		store:    st,
		profiles: profiles,
		limiter:  NewLimiter(cfg.MaxConcurrent, cfg.MaxWaitTime),
		cfg:      cfg,
		now:      time.Now,
	}
}

// UploadRequest describes one file to validate.
// Empty Separator and nil HasHeader fall back to the service defaults.
type UploadRequest struct {
	FileName    string
	Reader      io.Reader
	Size        int64 // Declared size, 0 if unknown
	Separator   string
	HasHeader   *bool
	ProfileName string
}

// ValidateUpload validates the request's input and stores the report.
//
// Structural defects never fail the call; they are part of the report.
// Errors are returned for bad requests, unreadable input, a busy or timed
// out validation, and storage failures.
func (s *Service) ValidateUpload(ctx context.Context, req UploadRequest) (*store.StoredReport, error) {
	if req.Reader == nil {
		return nil, ErrNoFile
	}
	if s.cfg.MaxFileSize > 0 && req.Size > s.cfg.MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrFileTooLarge, req.Size, s.cfg.MaxFileSize)
	}

	opts, err := s.requestOptions(req)
	if err != nil {
		return nil, err
	}

	validatorOpts := []csvcheck.Option{csvcheck.WithMaxLineBytes(s.cfg.MaxLineBytes)}
	var prof *profile.Profile
	if req.ProfileName != "" {
		prof, err = s.profiles.Get(req.ProfileName)
		if err != nil {
			return nil, err
		}
		validatorOpts = append(validatorOpts, csvcheck.WithHeaderChecker(prof.HeaderChecker(opts.Quote)))
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	id := uuid.New()
	log := logging.WithFields(ctx,
		"report_id", id,
		"file", req.FileName,
		"client_ip", ClientIPFromContext(ctx),
	)
	log.Info("validation started", "size", req.Size, "profile", req.ProfileName)

	// Counted before decoding so BytesRead is the raw upload size.
	counter := csvcheck.NewCountingReader(req.Reader, req.Size)
	report, err := csvcheck.New(opts, validatorOpts...).Validate(ctx, counter)
	if err != nil {
		log.Warn("validation failed", "error", err, "bytes_read", counter.BytesRead)
		return nil, fmt.Errorf("validate %s: %w", req.FileName, err)
	}

	stored := &store.StoredReport{
		ID:        id,
		FileName:  req.FileName,
		Separator: string(opts.Separator),
		HasHeader: opts.HasHeader,
		BytesRead: counter.BytesRead,
		CreatedAt: s.now().UTC(),
		Report:    report,
	}
	if prof != nil {
		stored.ProfileName = prof.Name
	}

	if err := s.store.SaveReport(ctx, stored); err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}

	log.Info("validation completed",
		"rows", report.DataRowCount,
		"fields", report.FieldCount,
		"errors", report.CountBySeverity(csvcheck.SeverityError),
		"warnings", report.CountBySeverity(csvcheck.SeverityWarning),
		"bytes_read", counter.BytesRead,
		"duration_ms", report.Elapsed.Milliseconds(),
	)
	return stored, nil
}

// requestOptions merges request overrides onto the default dialect.
func (s *Service) requestOptions(req UploadRequest) (csvcheck.Options, error) {
	opts := s.cfg.Options
	if opts.Separator == 0 {
		opts = csvcheck.DefaultOptions()
	}
	if opts.Quote == 0 {
		opts.Quote = '"'
	}
	if req.Separator != "" {
		sep, err := csvcheck.ParseSeparator(req.Separator)
		if err != nil {
			return opts, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
		}
		opts.Separator = sep
	}
	if req.HasHeader != nil {
		opts.HasHeader = *req.HasHeader
	}
	if err := opts.Validate(); err != nil {
		return opts, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return opts, nil
}

// GetReport returns a stored report by ID string.
func (s *Service) GetReport(ctx context.Context, id string) (*store.StoredReport, error) {
	reportID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidReportID, id)
	}
	r, err := s.store.GetReport(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return r, nil
}

// ListReports returns the newest report summaries.
func (s *Service) ListReports(ctx context.Context, limit int) ([]store.Summary, error) {
	list, err := s.store.ListReports(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return list, nil
}

// Profiles lists the registered profiles.
func (s *Service) Profiles() []profile.Summary {
	return s.profiles.List()
}

// Profile returns a registered profile by name.
func (s *Service) Profile(name string) (*profile.Profile, error) {
	return s.profiles.Get(name)
}

// LimiterStatus reports validation slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForValidations blocks until running validations finish or ctx ends.
// Call it during shutdown after the HTTP server stops accepting requests.
func (s *Service) WaitForValidations(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
