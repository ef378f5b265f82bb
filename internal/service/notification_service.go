package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ietf-tools/errata-api/internal/models"
	"github.com/ietf-tools/errata-api/pkg/config"
	appErrors "github.com/ietf-tools/errata-api/pkg/errors"
	"github.com/ietf-tools/errata-api/pkg/jobs"
)

// JobTypeMailDispatch is the job type carried on the dispatch queue.
const JobTypeMailDispatch = "mail_dispatch"

type mailStore interface {
	Create(ctx context.Context, msg *models.MailMessage) error
	GetByID(ctx context.Context, id string) (*models.MailMessage, error)
	MarkSent(ctx context.Context, id string) error
	RecordAttempt(ctx context.Context, id string) error
}

// Sender delivers a composed message to the mail infrastructure.
type Sender interface {
	Send(ctx context.Context, msg *models.MailMessage) error
}

// LogSender writes outbound messages to the log instead of delivering
// them. Used in development and as the default until SMTP is wired in.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender constructs a LogSender.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

// Send logs the message and reports success.
func (s *LogSender) Send(_ context.Context, msg *models.MailMessage) error {
	s.logger.Info("outbound notification",
		zap.String("mail_id", msg.ID),
		zap.Strings("to", msg.To),
		zap.Strings("cc", msg.Cc),
		zap.String("subject", msg.Subject))
	return nil
}

type dispatcher interface {
	Enqueue(job jobs.Job) error
}

type notificationObserver interface {
	ObserveNotification(event Event)
}

var submittedBody = template.Must(template.New("submitted").Parse(
	`The following errata report has been submitted for RFC{{.RFCNumber}},
"{{.Title}}".

--------------------------------------
You may review the report below and at:
{{.BaseURL}}/errata/{{.ErratumID}}

--------------------------------------
Type: {{.TypeName}}
Reported by: {{.SubmitterName}} <{{.SubmitterEmail}}>

Section: {{.Section}}

Original Text
-------------
{{.OrigText}}

Corrected Text
--------------
{{.CorrectedText}}

Notes
-----
{{.Notes}}

Instructions:
-------------
This erratum is currently posted as "Reported". (If it is spam, it
will be removed shortly by the RFC Production Center.) Please
use "Reply All" to discuss whether it should be verified or
rejected. When a decision is reached, the verifying party
will log in to change the status and edit the report, if necessary.
`))

var classifiedBody = template.Must(template.New("classified").Parse(
	`The following errata report has been {{.StatusVerb}} for RFC{{.RFCNumber}},
"{{.Title}}".

--------------------------------------
You may review the report below and at:
{{.BaseURL}}/errata/{{.ErratumID}}

--------------------------------------
Status: {{.StatusName}}
Type: {{.TypeName}}

Reported by: {{.SubmitterName}} <{{.SubmitterEmail}}>
{{if .VerifierName}}Verified by: {{.VerifierName}} <{{.VerifierEmail}}>
{{end}}
Section: {{.Section}}

Original Text
-------------
{{.OrigText}}

Corrected Text
--------------
{{.CorrectedText}}

Notes
-----
{{.Notes}}
`))

type bodyData struct {
	RFCNumber      int
	Title          string
	BaseURL        string
	ErratumID      int64
	StatusName     string
	StatusVerb     string
	TypeName       string
	SubmitterName  string
	SubmitterEmail string
	VerifierName   string
	VerifierEmail  string
	Section        string
	OrigText       string
	CorrectedText  string
	Notes          string
}

// NotificationService composes notifications, persists them and hands them
// to the dispatch queue. Composition is synchronous so the addressing
// decision is made against the same snapshot the caller acted on; delivery
// and retries are asynchronous.
type NotificationService struct {
	mail       mailStore
	recipients *RecipientService
	sender     Sender
	dispatch   dispatcher
	metrics    notificationObserver
	baseURL    string
	from       string
	logger     *zap.Logger
	now        func() time.Time
}

// NewNotificationService constructs the service. The dispatcher is attached
// later via SetDispatcher because the queue's handler is this service.
func NewNotificationService(mail mailStore, recipients *RecipientService, sender Sender, metrics notificationObserver, cfg *config.Config, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		mail:       mail,
		recipients: recipients,
		sender:     sender,
		metrics:    metrics,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		from:       cfg.Mail.SenderAddress,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetDispatcher attaches the queue that HandleDispatch consumes from.
func (s *NotificationService) SetDispatcher(d dispatcher) {
	s.dispatch = d
}

// Notify composes and persists the notification for the given event, then
// enqueues it for delivery. The persisted row is the source of truth; a
// failed enqueue leaves the row unsent for a later sweep rather than losing
// the message.
func (s *NotificationService) Notify(ctx context.Context, erratum *models.Erratum, meta *models.RfcMetadata, event Event, senderEmail string) error {
	to, cc, err := s.recipients.Resolve(erratum, meta, event)
	if err != nil {
		return err
	}

	subject, body, err := s.compose(erratum, meta, event)
	if err != nil {
		return err
	}

	from := s.from
	if senderEmail != "" {
		from = senderEmail
	}
	erratumID := erratum.ID
	msg := &models.MailMessage{
		ID:        uuid.NewString(),
		ErratumID: &erratumID,
		To:        to,
		Cc:        cc,
		Subject:   subject,
		Body:      body,
		Sender:    from,
		CreatedAt: s.now(),
	}
	if err := s.mail.Create(ctx, msg); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist notification")
	}
	if s.metrics != nil {
		s.metrics.ObserveNotification(event)
	}

	if s.dispatch == nil {
		s.logger.Warn("no dispatcher attached, notification left unsent",
			zap.String("mail_id", msg.ID))
		return nil
	}
	if err := s.dispatch.Enqueue(jobs.Job{
		ID:      msg.ID,
		Type:    JobTypeMailDispatch,
		Payload: msg.ID,
	}); err != nil {
		s.logger.Error("failed to enqueue notification",
			zap.String("mail_id", msg.ID), zap.Error(err))
	}
	return nil
}

// HandleDispatch is the queue handler. It reloads the message so redelivery
// after a retry always works from stored state, and skips rows already
// marked sent so a duplicate enqueue cannot double-send.
func (s *NotificationService) HandleDispatch(ctx context.Context, job jobs.Job) error {
	mailID, ok := job.Payload.(string)
	if !ok {
		s.logger.Error("dispatch job carries no mail id", zap.String("job_id", job.ID))
		return nil
	}

	msg, err := s.mail.GetByID(ctx, mailID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("dispatch job for missing message", zap.String("mail_id", mailID))
			return nil
		}
		return err
	}
	if msg.Sent {
		return nil
	}

	if err := s.sender.Send(ctx, msg); err != nil {
		if recordErr := s.mail.RecordAttempt(ctx, mailID); recordErr != nil {
			s.logger.Error("failed to record delivery attempt",
				zap.String("mail_id", mailID), zap.Error(recordErr))
		}
		return err
	}
	return s.mail.MarkSent(ctx, mailID)
}

func (s *NotificationService) compose(erratum *models.Erratum, meta *models.RfcMetadata, event Event) (subject, body string, err error) {
	typeName := models.TypeName(erratum.TypeOrEmpty())
	data := bodyData{
		RFCNumber:      erratum.RFCNumber,
		Title:          meta.Title,
		BaseURL:        s.baseURL,
		ErratumID:      erratum.ID,
		StatusName:     models.StatusName(erratum.Status),
		TypeName:       typeName,
		SubmitterName:  erratum.SubmitterName,
		SubmitterEmail: erratum.SubmitterEmail,
		Section:        erratum.Section,
		OrigText:       erratum.OrigText,
		CorrectedText:  erratum.CorrectedText,
		Notes:          erratum.Notes,
	}
	if erratum.VerifierName != nil {
		data.VerifierName = *erratum.VerifierName
	}
	if erratum.VerifierEmail != nil {
		data.VerifierEmail = *erratum.VerifierEmail
	}

	var buf strings.Builder
	switch event {
	case EventSubmitted:
		subject = fmt.Sprintf("[%s Errata Reported] RFC%d (%d)", typeName, erratum.RFCNumber, erratum.ID)
		err = submittedBody.Execute(&buf, data)
	case EventClassified:
		data.StatusVerb = statusVerb(erratum.Status)
		subject = fmt.Sprintf("[Errata %s] RFC%d (%d)", models.StatusName(erratum.Status), erratum.RFCNumber, erratum.ID)
		err = classifiedBody.Execute(&buf, data)
	default:
		return "", "", appErrors.Clone(appErrors.ErrInternal, fmt.Sprintf("unknown notification event %q", event))
	}
	if err != nil {
		return "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render notification body")
	}
	return subject, buf.String(), nil
}

func statusVerb(status models.StatusSlug) string {
	switch status {
	case models.StatusVerified:
		return "verified"
	case models.StatusRejected:
		return "rejected"
	case models.StatusHeld:
		return "held for document update"
	}
	return string(status)
}
