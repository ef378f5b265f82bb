package service

import (
	"fmt"
	"sort"

	"github.com/ietf-tools/errata-api/internal/models"
	"github.com/ietf-tools/errata-api/pkg/config"
	appErrors "github.com/ietf-tools/errata-api/pkg/errors"
)

// Event identifies which notification is being addressed.
type Event string

const (
	EventSubmitted  Event = "submitted"
	EventClassified Event = "classified"
)

// Well-known escalation mailboxes.
const (
	AddrIESG     = "iesg@ietf.org"
	AddrIAB      = "iab@iab.org"
	AddrIABChair = "chair@iab.org"
	AddrIRSG     = "irsg@irtf.org"
	AddrISE      = "rfc-ise@rfc-editor.org"
	AddrRSAB     = "rsab@rfc-editor.org"
	AddrIANA     = "iana@iana.org"
)

// recipientKind names a slot in the address templates that is resolved
// against the concrete erratum and RFC metadata at call time.
type recipientKind int

const (
	refAuthors recipientKind = iota
	refSubmitter
	refVerifier
	refDocAd
	refAreaAds
	refShepherd
	refGroupList
	refEditor
	refLiteral
)

type recipientRef struct {
	kind    recipientKind
	address string
}

func authors() recipientRef   { return recipientRef{kind: refAuthors} }
func submitter() recipientRef { return recipientRef{kind: refSubmitter} }
func verifier() recipientRef  { return recipientRef{kind: refVerifier} }
func docAd() recipientRef     { return recipientRef{kind: refDocAd} }
func areaAds() recipientRef   { return recipientRef{kind: refAreaAds} }
func shepherd() recipientRef  { return recipientRef{kind: refShepherd} }
func groupList() recipientRef { return recipientRef{kind: refGroupList} }
func editor() recipientRef    { return recipientRef{kind: refEditor} }
func literal(addr string) recipientRef {
	return recipientRef{kind: refLiteral, address: addr}
}

type recipientRule struct {
	to []recipientRef
	cc []recipientRef
}

type ruleKey struct {
	event     Event
	technical bool
	stream    models.Stream
	wg        bool // set only for the ietf/technical/submitted split
}

// recipientRules is the full notification matrix: event × classification ×
// stream. Empty resolved addresses are dropped, so conditional slots
// (group list, shepherd, document AD) need no guards here. A wrong entry in
// this table is a silent process failure, which is why the matrix is spelled
// out cell by cell instead of being computed.
var recipientRules = map[ruleKey]recipientRule{
	// New technical erratum reported.
	{EventSubmitted, true, models.StreamLegacy, false}: {
		to: refs(literal(AddrIESG)),
		cc: refs(submitter()),
	},
	{EventSubmitted, true, models.StreamIETF, true}: {
		to: refs(authors(), docAd(), areaAds(), shepherd()),
		cc: refs(submitter(), groupList()),
	},
	{EventSubmitted, true, models.StreamIETF, false}: {
		to: refs(literal(AddrIESG), authors()),
		cc: refs(submitter()),
	},
	{EventSubmitted, true, models.StreamIAB, false}: {
		to: refs(authors(), literal(AddrIAB)),
		cc: refs(submitter()),
	},
	{EventSubmitted, true, models.StreamIRTF, false}: {
		to: refs(authors(), literal(AddrIRSG)),
		cc: refs(submitter(), groupList()),
	},
	{EventSubmitted, true, models.StreamIndependent, false}: {
		to: refs(authors(), literal(AddrISE)),
		cc: refs(submitter()),
	},
	{EventSubmitted, true, models.StreamEditorial, false}: {
		to: refs(authors(), literal(AddrRSAB)),
		cc: refs(submitter(), groupList()),
	},

	// New editorial erratum reported: the RPC triages these itself, so the
	// streams only get a courtesy copy.
	{EventSubmitted, false, models.StreamLegacy, false}: {
		to: refs(editor()),
		cc: refs(submitter()),
	},
	{EventSubmitted, false, models.StreamIETF, false}: {
		to: refs(editor()),
		cc: refs(submitter(), authors(), groupList()),
	},
	{EventSubmitted, false, models.StreamIAB, false}: {
		to: refs(editor()),
		cc: refs(submitter(), authors(), literal(AddrIAB)),
	},
	{EventSubmitted, false, models.StreamIRTF, false}: {
		to: refs(editor()),
		cc: refs(submitter(), authors(), groupList()),
	},
	{EventSubmitted, false, models.StreamIndependent, false}: {
		to: refs(editor()),
		cc: refs(submitter(), literal(AddrISE), authors()),
	},
	{EventSubmitted, false, models.StreamEditorial, false}: {
		to: refs(editor()),
		cc: refs(submitter(), authors(), groupList()),
	},

	// Technical erratum classified.
	{EventClassified, true, models.StreamLegacy, false}: {
		to: refs(submitter(), authors()),
		cc: refs(verifier(), literal(AddrIESG)),
	},
	{EventClassified, true, models.StreamIETF, false}: {
		to: refs(submitter(), authors()),
		cc: refs(verifier(), literal(AddrIESG), groupList(), literal(AddrIANA)),
	},
	{EventClassified, true, models.StreamIAB, false}: {
		to: refs(submitter(), authors()),
		cc: refs(verifier(), literal(AddrIAB), literal(AddrIABChair)),
	},
	{EventClassified, true, models.StreamIRTF, false}: {
		to: refs(submitter(), authors()),
		cc: refs(verifier(), literal(AddrIRSG), groupList(), literal(AddrIANA)),
	},
	{EventClassified, true, models.StreamIndependent, false}: {
		to: refs(submitter(), authors()),
		cc: refs(verifier(), literal(AddrISE), shepherd(), literal(AddrIANA)),
	},
	{EventClassified, true, models.StreamEditorial, false}: {
		to: refs(submitter(), authors()),
		cc: refs(verifier(), literal(AddrRSAB), groupList(), literal(AddrIANA)),
	},

	// Editorial erratum classified. Legacy is the odd one out: authors are
	// only copied, not addressed.
	{EventClassified, false, models.StreamLegacy, false}: {
		to: refs(submitter()),
		cc: refs(authors(), verifier(), literal(AddrIESG), literal(AddrIANA)),
	},
	{EventClassified, false, models.StreamIETF, false}: {
		to: refs(submitter(), authors()),
		cc: refs(verifier(), literal(AddrIESG), groupList(), literal(AddrIANA)),
	},
	{EventClassified, false, models.StreamIAB, false}: {
		to: refs(submitter(), authors()),
		cc: refs(verifier(), literal(AddrIAB), literal(AddrIABChair)),
	},
	{EventClassified, false, models.StreamIRTF, false}: {
		to: refs(submitter(), authors()),
		cc: refs(verifier(), literal(AddrIRSG), groupList(), literal(AddrIANA)),
	},
	{EventClassified, false, models.StreamIndependent, false}: {
		to: refs(submitter(), authors()),
		cc: refs(verifier(), literal(AddrISE), literal(AddrIANA)),
	},
	{EventClassified, false, models.StreamEditorial, false}: {
		to: refs(submitter(), authors()),
		cc: refs(verifier(), literal(AddrRSAB), groupList(), literal(AddrIANA)),
	},
}

func refs(r ...recipientRef) []recipientRef { return r }

// RecipientService computes notification address sets. It is a pure
// function of the (erratum, metadata, event) snapshot.
type RecipientService struct {
	editorAddress string
}

// NewRecipientService constructs the resolver. editorAddress is the
// RFC Editor mailbox copied on every notification.
func NewRecipientService(cfg config.MailConfig) *RecipientService {
	return &RecipientService{editorAddress: cfg.EditorAddress}
}

// Resolve returns deduplicated to/cc sets for the given event. The RFC
// Editor mailbox is always present in cc. Empty addresses never appear in
// either set. An unknown stream or a missing classification is a data
// corruption defect, not a resolvable case.
func (s *RecipientService) Resolve(erratum *models.Erratum, meta *models.RfcMetadata, event Event) (to []string, cc []string, err error) {
	if erratum == nil || meta == nil {
		return nil, nil, appErrors.Clone(appErrors.ErrInternal, "recipient resolution needs erratum and metadata")
	}
	erratumType := erratum.TypeOrEmpty()
	if erratumType == "" {
		return nil, nil, appErrors.Clone(appErrors.ErrInternal,
			fmt.Sprintf("erratum %d has no classification", erratum.ID))
	}

	key := ruleKey{
		event:     event,
		technical: erratumType == models.TypeTechnical,
		stream:    meta.Stream,
	}
	if key.event == EventSubmitted && key.technical && key.stream == models.StreamIETF {
		key.wg = meta.HasWorkingGroup()
	}

	rule, ok := recipientRules[key]
	if !ok {
		return nil, nil, appErrors.Clone(appErrors.ErrInternal,
			fmt.Sprintf("no notification rule for stream %q", meta.Stream))
	}

	to = s.expand(rule.to, erratum, meta)
	cc = s.expand(append(append([]recipientRef{}, rule.cc...), editor()), erratum, meta)
	return to, cc, nil
}

func (s *RecipientService) expand(template []recipientRef, erratum *models.Erratum, meta *models.RfcMetadata) []string {
	set := make(map[string]struct{})
	add := func(addr string) {
		if addr != "" {
			set[addr] = struct{}{}
		}
	}
	for _, ref := range template {
		switch ref.kind {
		case refAuthors:
			for _, addr := range meta.AuthorEmails {
				add(addr)
			}
		case refSubmitter:
			add(erratum.SubmitterEmail)
		case refVerifier:
			if erratum.VerifierEmail != nil {
				add(*erratum.VerifierEmail)
			}
		case refDocAd:
			add(meta.DocADEmail)
		case refAreaAds:
			for _, addr := range meta.AreaADEmails {
				add(addr)
			}
		case refShepherd:
			add(meta.ShepherdEmail)
		case refGroupList:
			add(meta.GroupListEmail)
		case refEditor:
			add(s.editorAddress)
		case refLiteral:
			add(ref.address)
		}
	}
	result := make([]string, 0, len(set))
	for addr := range set {
		result = append(result, addr)
	}
	sort.Strings(result)
	return result
}
