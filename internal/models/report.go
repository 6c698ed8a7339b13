package models

import "time"

// ReportFormat selects the export artifact encoding.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// Valid reports whether the format is supported.
func (f ReportFormat) Valid() bool {
	return f == ReportFormatCSV || f == ReportFormatPDF
}

// ReportType identifies which view an export renders.
type ReportType string

const (
	ReportTypeDaily   ReportType = "daily"
	ReportTypeMonthly ReportType = "monthly"
)

// ReportStatus tracks an export job through the queue.
type ReportStatus string

const (
	ReportStatusQueued   ReportStatus = "queued"
	ReportStatusRunning  ReportStatus = "running"
	ReportStatusFinished ReportStatus = "finished"
	ReportStatusFailed   ReportStatus = "failed"
)

// ReportJob describes one queued export request.
type ReportJob struct {
	ID        string       `json:"id"`
	Type      ReportType   `json:"type"`
	Format    ReportFormat `json:"format"`
	Date      string       `json:"date,omitempty"`
	Month     string       `json:"month,omitempty"`
	Branch    string       `json:"branch,omitempty"`
	CreatedBy string       `json:"created_by"`
	Status    ReportStatus `json:"status"`
	Error     string       `json:"error,omitempty"`
	Token     string       `json:"token,omitempty"`
	URL       string       `json:"url,omitempty"`
	ExpiresAt time.Time    `json:"expires_at,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
