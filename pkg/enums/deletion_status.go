package enums

import "fmt"

// DeletionStatus describes the lifecycle state of a deletion queue entry.
// Transitions are monotonic: pending -> processing -> completed or back to
// pending for a retry, or failed once retries are exhausted.
type DeletionStatus string

const (
	DeletionStatusPending    DeletionStatus = "pending"
	DeletionStatusProcessing DeletionStatus = "processing"
	DeletionStatusCompleted  DeletionStatus = "completed"
	DeletionStatusFailed     DeletionStatus = "failed"
)

var validDeletionStatuses = []DeletionStatus{
	DeletionStatusPending,
	DeletionStatusProcessing,
	DeletionStatusCompleted,
	DeletionStatusFailed,
}

// String returns the literal string for the status.
func (d DeletionStatus) String() string {
	return string(d)
}

// IsValid reports whether the status is known.
func (d DeletionStatus) IsValid() bool {
	for _, candidate := range validDeletionStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the entry is excluded from future drains.
func (d DeletionStatus) IsTerminal() bool {
	return d == DeletionStatusCompleted || d == DeletionStatusFailed
}

// ParseDeletionStatus converts raw input into a DeletionStatus.
func ParseDeletionStatus(value string) (DeletionStatus, error) {
	for _, candidate := range validDeletionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid deletion status %q", value)
}
