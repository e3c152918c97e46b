// Package history persists the outcome of every processed scan so
// users can review what was submitted on their behalf.
package history

import "time"

// Kind distinguishes image scans from audio recordings.
type Kind string

const (
	KindImage Kind = "image"
	KindAudio Kind = "audio"
)

// Record is one processed scan.
type Record struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	Kind          Kind      `json:"kind"`
	EntryID       string    `json:"entregaId,omitempty"`
	Success       bool      `json:"success"`
	Step          string    `json:"step,omitempty"`
	ResponsesSent int       `json:"responsesSent"`
	Detail        string    `json:"detail,omitempty"` // full pipeline result as JSON
	FileURL       string    `json:"fileUrl,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}
