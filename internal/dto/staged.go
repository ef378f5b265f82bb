package dto

// CreateStagedRequest opens a new report entry against an RFC.
type CreateStagedRequest struct {
	RFCNumber      int      `json:"rfc_number" validate:"required,gt=0"`
	Section        string   `json:"section"`
	OrigText       string   `json:"orig_text"`
	CorrectedText  string   `json:"corrected_text"`
	SubmitterName  string   `json:"submitter_name" validate:"max=80"`
	SubmitterEmail string   `json:"submitter_email" validate:"omitempty,email"`
	Notes          string   `json:"notes"`
	Formats        []string `json:"formats" validate:"dive,oneof=HTML PDF TXT"`
}

// UpdateStagedRequest patches an incomplete report entry. Nil fields keep
// the stored value.
type UpdateStagedRequest struct {
	Section        *string   `json:"section"`
	OrigText       *string   `json:"orig_text"`
	CorrectedText  *string   `json:"corrected_text"`
	SubmitterName  *string   `json:"submitter_name" validate:"omitempty,max=80"`
	SubmitterEmail *string   `json:"submitter_email" validate:"omitempty,email"`
	Notes          *string   `json:"notes"`
	Formats        *[]string `json:"formats" validate:"omitempty,dive,oneof=HTML PDF TXT"`
}

// ConvertStagedRequest screens a submitted report into a canonical erratum.
type ConvertStagedRequest struct {
	ErratumType string `json:"erratum_type" validate:"required,oneof=editorial technical"`
}
