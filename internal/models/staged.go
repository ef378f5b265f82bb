package models

import (
	"time"

	"github.com/lib/pq"
)

// EntryStatus tracks a staged report through pre-screening entry.
type EntryStatus string

const (
	EntryIncomplete EntryStatus = "incomplete"
	EntrySubmitted  EntryStatus = "submitted"
)

// StagedErratum holds a report during entry and RPC screening. Kept in a
// separate table so unscreened reports cannot leak through the public
// surfaces. Incomplete entries older than the configured age are purged by
// a scheduled job.
type StagedErratum struct {
	ID             string         `db:"id" json:"id"`
	EntryStatus    EntryStatus    `db:"entry_status" json:"entry_status"`
	RFCNumber      int            `db:"rfc_number" json:"rfc_number"`
	Section        string         `db:"section" json:"section"`
	OrigText       string         `db:"orig_text" json:"orig_text"`
	CorrectedText  string         `db:"corrected_text" json:"corrected_text"`
	SubmitterName  string         `db:"submitter_name" json:"submitter_name"`
	SubmitterEmail string         `db:"submitter_email" json:"submitter_email"`
	Notes          string         `db:"notes" json:"notes"`
	Formats        pq.StringArray `db:"formats" json:"formats"`
	SubmittedAt    *time.Time     `db:"submitted_at" json:"submitted_at,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
}
