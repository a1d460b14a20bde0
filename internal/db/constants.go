package db

const (
	// timeLayout is the UTC timestamp format written to DATETIME columns.
	timeLayout = "2006-01-02 15:04:05"

	// defaultCredentialName keys the single stored token record.
	defaultCredentialName = "default"
)
