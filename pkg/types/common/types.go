// Package common defines shared value types used across the platform's public
// and internal APIs.
package common

import (
	"time"
)

// ID is a string alias for UUID v4, used for internal row identity.  The
// operator-facing POI identifier (POI-NNN) is a separate, stable display
// identifier and never changes once assigned.
type ID string

// UserID is a string alias for a user identifier.
type UserID string

// Metadata is an open-ended key-value bag.
type Metadata map[string]interface{}

// BaseEntity carries audit metadata for domain entities and DTOs.
type BaseEntity struct {
	ID        ID        `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

// Pagination defines parameters for paginated requests.
type Pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total,omitempty"`
}

// SortOrder defines the direction of sorting.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ErrorDetail provides structured error information for API responses.
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// APIResponse is the generic wrapper for all API responses.
type APIResponse[T any] struct {
	Success    bool         `json:"success"`
	Data       T            `json:"data,omitempty"`
	Error      *ErrorDetail `json:"error,omitempty"`
	Pagination *Pagination  `json:"pagination,omitempty"`
	RequestID  string       `json:"request_id,omitempty"`
	Timestamp  time.Time    `json:"timestamp"`
}

// DateRange defines a time interval.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}
