// internal/storage/models/base.go
package models

// Status is the settlement outcome stored with a history record.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

func (s Status) Valid() bool {
	return s == StatusSuccess || s == StatusFailed
}
