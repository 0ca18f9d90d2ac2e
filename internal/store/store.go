// Package store persists validation reports.
//
// Two implementations share the ReportStore interface: MemoryStore for
// development and tests, PostgresStore for deployments with DATABASE_URL set.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/JonMunkholm/csvlint/internal/csvcheck"
	"github.com/google/uuid"
)

// ErrReportNotFound is returned when no report has the requested ID.
var ErrReportNotFound = errors.New("report not found")

// StoredReport is a validation report plus the request that produced it.
type StoredReport struct {
	ID          uuid.UUID        `json:"id"`
	FileName    string           `json:"fileName"`
	ProfileName string           `json:"profile,omitempty"`
	Separator   string           `json:"separator"`
	HasHeader   bool             `json:"hasHeader"`
	BytesRead   int64            `json:"bytesRead"`
	CreatedAt   time.Time        `json:"createdAt"`
	Report      *csvcheck.Report `json:"report"`
}

// Summary is the listing form of a stored report.
type Summary struct {
	ID           uuid.UUID `json:"id"`
	FileName     string    `json:"fileName"`
	ProfileName  string    `json:"profile,omitempty"`
	DataRowCount int       `json:"dataRowCount"`
	FieldCount   int       `json:"fieldCount"`
	Errors       int       `json:"errors"`
	Warnings     int       `json:"warnings"`
	Information  int       `json:"information"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Summarize returns the listing form of r.
func (r *StoredReport) Summarize() Summary {
	return Summary{
		ID:           r.ID,
		FileName:     r.FileName,
		ProfileName:  r.ProfileName,
		DataRowCount: r.Report.DataRowCount,
		FieldCount:   r.Report.FieldCount,
		Errors:       r.Report.CountBySeverity(csvcheck.SeverityError),
		Warnings:     r.Report.CountBySeverity(csvcheck.SeverityWarning),
		Information:  r.Report.CountBySeverity(csvcheck.SeverityInformation),
		CreatedAt:    r.CreatedAt,
	}
}

// ReportStore saves and retrieves reports.
type ReportStore interface {
	SaveReport(ctx context.Context, r *StoredReport) error
	GetReport(ctx context.Context, id uuid.UUID) (*StoredReport, error)
	// ListReports returns the newest reports first.
	ListReports(ctx context.Context, limit int) ([]Summary, error)
	// DeleteReportsBefore removes reports created before t and returns how many.
	DeleteReportsBefore(ctx context.Context, t time.Time) (int64, error)
}
