package store

import (
	"context"
	"testing"
	"time"

	"github.com/JonMunkholm/csvlint/internal/csvcheck"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport(name string, created time.Time) *StoredReport {
	return &StoredReport{
		ID:        uuid.New(),
		FileName:  name,
		Separator: ",",
		HasHeader: true,
		CreatedAt: created,
		Report: &csvcheck.Report{
			DataRowCount: 2,
			FieldCount:   3,
			HeaderNames:  []string{"A", "", "C"},
			Messages: []csvcheck.Message{
				{Code: csvcheck.CodeFieldCountMismatch, Severity: csvcheck.SeverityError, Row: 3, Field: -1, Offset: -1},
				{Code: csvcheck.CodeEmptyHeaderName, Severity: csvcheck.SeverityWarning, Row: 1, Field: 2, Offset: -1},
			},
		},
	}
}

func TestMemoryStore_SaveGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	r := sampleReport("a.csv", time.Now())
	require.NoError(t, s.SaveReport(ctx, r))

	got, err := s.GetReport(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r, got)

	_, err = s.GetReport(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrReportNotFound)
}

func TestMemoryStore_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, name := range []string{"old.csv", "mid.csv", "new.csv"} {
		require.NoError(t, s.SaveReport(ctx, sampleReport(name, base.Add(time.Duration(i)*time.Hour))))
	}

	list, err := s.ListReports(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new.csv", list[0].FileName)
	assert.Equal(t, "mid.csv", list[1].FileName)
	assert.Equal(t, 1, list[0].Errors)
	assert.Equal(t, 1, list[0].Warnings)
	assert.Equal(t, 0, list[0].Information)

	all, err := s.ListReports(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMemoryStore_DeleteBefore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now()

	oldReport := sampleReport("old.csv", now.Add(-48*time.Hour))
	newReport := sampleReport("new.csv", now)
	require.NoError(t, s.SaveReport(ctx, oldReport))
	require.NoError(t, s.SaveReport(ctx, newReport))

	n, err := s.DeleteReportsBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.GetReport(ctx, oldReport.ID)
	assert.ErrorIs(t, err, ErrReportNotFound)
	_, err = s.GetReport(ctx, newReport.ID)
	assert.NoError(t, err)
}

func TestMessageRow(t *testing.T) {
	id := uuid.New()
	m := csvcheck.Message{
		Code:      csvcheck.CodeQuotePlacement,
		Severity:  csvcheck.SeverityError,
		Content:   "quote detected outside of a quoted string",
		Kind:      csvcheck.KindStructural,
		Row:       4,
		Field:     2,
		FieldName: "name",
		Offset:    9,
	}

	row := messageRow(id, 7, m)
	require.Len(t, row, len(messageColumns))
	assert.Equal(t, toPgUUID(id), row[0])
	assert.Equal(t, int32(7), row[1])
	assert.Equal(t, int32(2), row[2])
	assert.Equal(t, "error", row[3])
	assert.Equal(t, "structural", row[5])
	assert.Equal(t, "name", row[8])
	assert.Equal(t, int32(9), row[9])
}

func TestToPgText(t *testing.T) {
	assert.False(t, toPgText("").Valid)
	assert.Equal(t, "x", toPgText("x").String)
}
