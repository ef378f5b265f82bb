package models

import "github.com/lib/pq"

// RfcMetadata is reference data about a published RFC, synced from the
// datatracker. Read-only inside this service apart from the sync upsert.
type RfcMetadata struct {
	RFCNumber        int            `db:"rfc_number" json:"rfc_number"`
	Title            string         `db:"title" json:"title"`
	DraftName        string         `db:"draft_name" json:"draft_name,omitempty"`
	PublicationYear  int            `db:"publication_year" json:"publication_year"`
	PublicationMonth int            `db:"publication_month" json:"publication_month"`
	AuthorNames      string         `db:"author_names" json:"author_names"`
	AuthorEmails     pq.StringArray `db:"author_emails" json:"author_emails"`
	ShepherdEmail    string         `db:"shepherd_email" json:"shepherd_email,omitempty"`
	DocADEmail       string         `db:"doc_ad_email" json:"doc_ad_email,omitempty"`
	AreaADEmails     pq.StringArray `db:"area_ad_emails" json:"area_ad_emails"`
	StdLevel         string         `db:"std_level" json:"std_level,omitempty"`
	GroupAcronym     string         `db:"group_acronym" json:"group_acronym,omitempty"`
	GroupName        string         `db:"group_name" json:"group_name,omitempty"`
	GroupListEmail   string         `db:"group_list_email" json:"group_list_email,omitempty"`
	AreaAcronym      string         `db:"area_acronym" json:"area_acronym,omitempty"`
	AreaAssignment   string         `db:"area_assignment" json:"area_assignment,omitempty"`
	Stream           Stream         `db:"stream" json:"stream"`
	ObsoletedBy      string         `db:"obsoleted_by" json:"obsoleted_by,omitempty"`
	UpdatedBy        string         `db:"updated_by" json:"updated_by,omitempty"`
}

// HasWorkingGroup reports whether the RFC came out of a working group. The
// datatracker sync records "none" for individual submissions.
func (m *RfcMetadata) HasWorkingGroup() bool {
	return m.GroupAcronym != "" && m.GroupAcronym != "none"
}
