package dto

// UpsertRfcMetadataRequest is the payload the external sync job feeds into
// the metadata table. Author and AD addresses are validated with strict
// header parsing before storage.
type UpsertRfcMetadataRequest struct {
	RFCNumber        int      `json:"rfc_number" validate:"required,gt=0"`
	Title            string   `json:"title" validate:"required"`
	DraftName        string   `json:"draft_name"`
	PublicationYear  int      `json:"publication_year" validate:"required"`
	PublicationMonth int      `json:"publication_month" validate:"required,min=1,max=12"`
	AuthorNames      string   `json:"author_names"`
	AuthorEmails     []string `json:"author_emails"`
	ShepherdEmail    string   `json:"shepherd_email"`
	DocADEmail       string   `json:"doc_ad_email"`
	AreaADEmails     []string `json:"area_ad_emails"`
	StdLevel         string   `json:"std_level"`
	GroupAcronym     string   `json:"group_acronym"`
	GroupName        string   `json:"group_name"`
	GroupListEmail   string   `json:"group_list_email"`
	AreaAcronym      string   `json:"area_acronym"`
	AreaAssignment   string   `json:"area_assignment"`
	Stream           string   `json:"stream" validate:"required,oneof=ietf iab irtf independent editorial legacy"`
	ObsoletedBy      string   `json:"obsoleted_by"`
	UpdatedBy        string   `json:"updated_by"`
}
