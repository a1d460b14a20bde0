package models

import "time"

// ReportRun describes one generated subcontractor report kept in history.
type ReportRun struct {
	GeneratedAt time.Time
	ID          string
	ProjectID   string
	OutputPath  string
	GrandTotal  int
}
