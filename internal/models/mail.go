package models

import (
	"time"

	"github.com/lib/pq"
)

// MailMessage is an outbound notification record. The addressing decision
// is made synchronously; delivery and retries happen on the dispatch queue.
type MailMessage struct {
	ID        string         `db:"id" json:"id"`
	ErratumID *int64         `db:"erratum_id" json:"erratum_id,omitempty"`
	To        pq.StringArray `db:"to_addresses" json:"to"`
	Cc        pq.StringArray `db:"cc_addresses" json:"cc"`
	Subject   string         `db:"subject" json:"subject"`
	Body      string         `db:"body" json:"body"`
	Sender    string         `db:"sender" json:"sender"`
	Sent      bool           `db:"sent" json:"sent"`
	Attempts  int            `db:"attempts" json:"attempts"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}
