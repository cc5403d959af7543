// Package errors provides structured error handling for inkwell.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Content ingestion errors (per-document)
//   - 3XX: Snapshot errors (persisted cache)
//   - 4XX: Query errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryContent indicates per-document ingestion errors.
	CategoryContent Category = "CONTENT"
	// CategorySnapshot indicates persisted snapshot errors.
	CategorySnapshot Category = "SNAPSHOT"
	// CategoryQuery indicates query validation errors.
	CategoryQuery Category = "QUERY"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates an unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates the operation failed but the process can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Content ingestion errors (200-299)
	ErrCodeDocUnreadable   = "ERR_201_DOC_UNREADABLE"
	ErrCodeDocMissingTitle = "ERR_202_DOC_MISSING_TITLE"
	ErrCodeDocBadFront     = "ERR_203_DOC_BAD_FRONTMATTER"
	ErrCodeDocTimeout      = "ERR_204_DOC_TIMEOUT"
	ErrCodeSlugCollision   = "ERR_205_SLUG_COLLISION"

	// Snapshot errors (300-399)
	ErrCodeSnapshotMissing = "ERR_301_SNAPSHOT_MISSING"
	ErrCodeSnapshotCorrupt = "ERR_302_SNAPSHOT_CORRUPT"
	ErrCodeSnapshotWrite   = "ERR_303_SNAPSHOT_WRITE"

	// Query errors (400-499)
	ErrCodeInvalidQuery = "ERR_401_INVALID_QUERY"

	// Internal errors (500-599)
	ErrCodeInternal      = "ERR_501_INTERNAL"
	ErrCodeRebuildFailed = "ERR_502_REBUILD_FAILED"
	ErrCodeIndexFailed   = "ERR_503_INDEX_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryContent
	case '3':
		return CategorySnapshot
	case '4':
		return CategoryQuery
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeRebuildFailed:
		return SeverityFatal
	case ErrCodeSnapshotMissing, ErrCodeSnapshotCorrupt:
		// Both trigger a rebuild rather than failing the caller.
		return SeverityWarning
	}
	return SeverityError
}
