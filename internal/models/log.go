package models

import "time"

// Log is an append-only snapshot of an erratum taken before a state or
// content change. Rows are never updated or deleted.
type Log struct {
	ID            int64      `db:"id" json:"id"`
	ErratumID     int64      `db:"erratum_id" json:"erratum_id"`
	VerifierName  *string    `db:"verifier_name" json:"verifier_name,omitempty"`
	VerifierEmail *string    `db:"verifier_email" json:"verifier_email,omitempty"`
	Status        StatusSlug `db:"status_slug" json:"status"`
	Type          TypeSlug   `db:"erratum_type_slug" json:"erratum_type"`
	EditorEmail   string     `db:"editor_email" json:"editor_email"`
	Section       string     `db:"section" json:"section"`
	OrigText      string     `db:"orig_text" json:"orig_text"`
	CorrectedText string     `db:"corrected_text" json:"corrected_text"`
	Notes         string     `db:"notes" json:"notes"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}
