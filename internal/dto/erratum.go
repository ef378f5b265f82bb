package dto

// SearchQuery mirrors the public errata search form. The stream values are
// the upper/mixed-case tokens long present in bookmarked query strings.
type SearchQuery struct {
	RFCNumber     *int   `form:"rfc_number"`
	ErratumID     *int64 `form:"errata_id"`
	Status        string `form:"status"`
	Area          string `form:"area"`
	Type          string `form:"errata_type"`
	GroupAcronym  string `form:"wg_acronym"`
	SubmitterName string `form:"submitter_name"`
	Stream        string `form:"stream"`
	Date          string `form:"date"`
	Page          int    `form:"page"`
	PageSize      int    `form:"page_size"`
}

// ClassifyRequest carries a verifier's decision plus optional content edits.
type ClassifyRequest struct {
	Status        string  `json:"status" validate:"required,oneof=verified rejected held_for_doc_update"`
	Section       *string `json:"section"`
	OrigText      *string `json:"orig_text"`
	CorrectedText *string `json:"corrected_text"`
	Notes         *string `json:"notes"`
}

// ErratumJSONRow is one record of the legacy errata.json corpus export. The
// key names (including the hyphen in doc-id) are consumed downstream and
// must not change.
type ErratumJSONRow struct {
	ErrataID        string `json:"errata_id"`
	DocID           string `json:"doc-id"`
	StatusCode      string `json:"errata_status_code"`
	TypeCode        string `json:"errata_type_code"`
	Section         string `json:"section"`
	OrigText        string `json:"orig_text"`
	CorrectText     string `json:"correct_text"`
	Notes           string `json:"notes"`
	SubmitDate      string `json:"submit_date"`
	SubmitterName   string `json:"submitter_name"`
	VerifierID      string `json:"verifier_id"`
	VerifierName    string `json:"verifier_name"`
	UpdateDate      string `json:"update_date"`
}
