package models

import (
	"time"

	"github.com/lib/pq"
)

// Stream identifies the publication track an RFC was published on.
type Stream string

const (
	StreamIETF        Stream = "ietf"
	StreamIAB         Stream = "iab"
	StreamIRTF        Stream = "irtf"
	StreamIndependent Stream = "independent"
	StreamEditorial   Stream = "editorial"
	StreamLegacy      Stream = "legacy"
)

// KnownStreams enumerates every valid stream value.
var KnownStreams = []Stream{
	StreamIETF, StreamIAB, StreamIRTF, StreamIndependent, StreamEditorial, StreamLegacy,
}

// StatusSlug identifies the verification state of an erratum.
type StatusSlug string

const (
	StatusReported  StatusSlug = "reported"
	StatusVerified  StatusSlug = "verified"
	StatusRejected  StatusSlug = "rejected"
	StatusHeld      StatusSlug = "held_for_doc_update"
)

// TypeSlug identifies the screening classification of an erratum.
type TypeSlug string

const (
	TypeEditorial TypeSlug = "editorial"
	TypeTechnical TypeSlug = "technical"
)

// StatusName returns the display name for a status slug.
func StatusName(slug StatusSlug) string {
	switch slug {
	case StatusReported:
		return "Reported"
	case StatusVerified:
		return "Verified"
	case StatusRejected:
		return "Rejected"
	case StatusHeld:
		return "Held for Document Update"
	}
	return string(slug)
}

// TypeName returns the display name for a type slug.
func TypeName(slug TypeSlug) string {
	switch slug {
	case TypeEditorial:
		return "Editorial"
	case TypeTechnical:
		return "Technical"
	}
	return string(slug)
}

// Status is a reference row describing a verification state.
type Status struct {
	Slug  StatusSlug `db:"slug" json:"slug"`
	Name  string     `db:"name" json:"name"`
	Desc  string     `db:"description" json:"description,omitempty"`
	Used  bool       `db:"used" json:"used"`
	Order int        `db:"display_order" json:"order"`
}

// ErratumType is a reference row describing a screening classification.
type ErratumType struct {
	Slug  TypeSlug `db:"slug" json:"slug"`
	Name  string   `db:"name" json:"name"`
	Desc  string   `db:"description" json:"description,omitempty"`
	Used  bool     `db:"used" json:"used"`
	Order int      `db:"display_order" json:"order"`
}

// Document formats an erratum can apply to. RFCs published before
// TxtOnlyBoundary exist only as plain text, so reports against them are
// pinned to FormatTXT.
const (
	FormatHTML = "HTML"
	FormatPDF  = "PDF"
	FormatTXT  = "TXT"

	TxtOnlyBoundary = 8650
)

// Erratum is the canonical correction record against a published RFC.
type Erratum struct {
	ID             int64          `db:"id" json:"id"`
	RFCNumber      int            `db:"rfc_number" json:"rfc_number"`
	Status         StatusSlug     `db:"status_slug" json:"status"`
	Type           *TypeSlug      `db:"erratum_type_slug" json:"erratum_type,omitempty"`
	Section        string         `db:"section" json:"section"`
	OrigText       string         `db:"orig_text" json:"orig_text"`
	CorrectedText  string         `db:"corrected_text" json:"corrected_text"`
	SubmitterName  string         `db:"submitter_name" json:"submitter_name"`
	SubmitterEmail string         `db:"submitter_email" json:"submitter_email"`
	Notes          string         `db:"notes" json:"notes"`
	Formats        pq.StringArray `db:"formats" json:"formats"`
	SubmittedAt    *time.Time     `db:"submitted_at" json:"submitted_at,omitempty"`
	VerifierName   *string        `db:"verifier_name" json:"verifier_name,omitempty"`
	VerifierEmail  *string        `db:"verifier_email" json:"verifier_email,omitempty"`
	VerifiedAt     *time.Time     `db:"verified_at" json:"verified_at,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// TypeOrEmpty returns the classification slug, or "" for an unscreened row.
func (e *Erratum) TypeOrEmpty() TypeSlug {
	if e.Type == nil {
		return ""
	}
	return *e.Type
}

// ErratumFilter captures the public search criteria.
type ErratumFilter struct {
	RFCNumber     *int
	ErratumID     *int64
	Status        string // slug, or "any" / "verified_reported"
	Area          string
	Type          string
	GroupAcronym  string
	SubmitterName string
	Stream        string
	DatePrefix    string // YYYY, YYYY-MM or YYYY-MM-DD
	Limit         int
	Offset        int
}

// ClassifyEdits carries content corrections a verifier may apply while
// classifying. Nil fields leave the stored value untouched.
type ClassifyEdits struct {
	Section       *string
	OrigText      *string
	CorrectedText *string
	Notes         *string
}
