package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ietf-tools/errata-api/internal/models"
	"github.com/ietf-tools/errata-api/pkg/config"
	"github.com/ietf-tools/errata-api/pkg/jobs"
)

type mailStoreStub struct {
	messages map[string]*models.MailMessage
}

func newMailStoreStub() *mailStoreStub {
	return &mailStoreStub{messages: make(map[string]*models.MailMessage)}
}

func (s *mailStoreStub) Create(ctx context.Context, msg *models.MailMessage) error {
	clone := *msg
	s.messages[msg.ID] = &clone
	return nil
}

func (s *mailStoreStub) GetByID(ctx context.Context, id string) (*models.MailMessage, error) {
	msg, ok := s.messages[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *msg
	return &clone, nil
}

func (s *mailStoreStub) MarkSent(ctx context.Context, id string) error {
	msg, ok := s.messages[id]
	if !ok {
		return sql.ErrNoRows
	}
	msg.Sent = true
	msg.Attempts++
	return nil
}

func (s *mailStoreStub) RecordAttempt(ctx context.Context, id string) error {
	msg, ok := s.messages[id]
	if !ok {
		return sql.ErrNoRows
	}
	msg.Attempts++
	return nil
}

type senderStub struct {
	sent []string
	err  error
}

func (s *senderStub) Send(ctx context.Context, msg *models.MailMessage) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg.ID)
	return nil
}

type dispatcherStub struct {
	jobs []jobs.Job
	err  error
}

func (d *dispatcherStub) Enqueue(job jobs.Job) error {
	if d.err != nil {
		return d.err
	}
	d.jobs = append(d.jobs, job)
	return nil
}

type notificationObserverStub struct {
	events []Event
}

func (s *notificationObserverStub) ObserveNotification(event Event) {
	s.events = append(s.events, event)
}

func notificationFixture() (*NotificationService, *mailStoreStub, *senderStub, *dispatcherStub) {
	mail := newMailStoreStub()
	sender := &senderStub{}
	dispatch := &dispatcherStub{}
	cfg := &config.Config{
		BaseURL: "https://errata.rfc-editor.org",
		Mail: config.MailConfig{
			SenderAddress: "rfc-editor@rfc-editor.org",
			EditorAddress: "rfc-editor@rfc-editor.org",
		},
	}
	svc := NewNotificationService(mail, NewRecipientService(cfg.Mail), sender, &notificationObserverStub{}, cfg, nil)
	svc.SetDispatcher(dispatch)
	return svc, mail, sender, dispatch
}

func TestNotifyPersistsAndEnqueues(t *testing.T) {
	svc, mail, _, dispatch := notificationFixture()
	erratum := technicalErratum()
	meta := &models.RfcMetadata{Stream: models.StreamLegacy, Title: "A Protocol"}

	err := svc.Notify(context.Background(), erratum, meta, EventSubmitted, "")
	require.NoError(t, err)
	require.Len(t, mail.messages, 1)
	require.Len(t, dispatch.jobs, 1)

	for _, msg := range mail.messages {
		assert.Equal(t, "[Technical Errata Reported] RFC9000 (7141)", msg.Subject)
		assert.Equal(t, []string{AddrIESG}, []string(msg.To))
		assert.Contains(t, []string(msg.Cc), testEditorAddr)
		assert.Contains(t, msg.Body, "RFC9000")
		assert.Contains(t, msg.Body, "https://errata.rfc-editor.org/errata/7141")
		assert.False(t, msg.Sent)
		assert.Equal(t, msg.ID, dispatch.jobs[0].Payload)
	}
}

func TestNotifyCountsComposedNotifications(t *testing.T) {
	svc, _, _, _ := notificationFixture()
	observer := &notificationObserverStub{}
	svc.metrics = observer
	meta := &models.RfcMetadata{Stream: models.StreamLegacy, Title: "A Protocol"}

	require.NoError(t, svc.Notify(context.Background(), technicalErratum(), meta, EventSubmitted, ""))
	assert.Equal(t, []Event{EventSubmitted}, observer.events)

	// An unresolvable notification is never persisted, so it is not counted.
	orphan := technicalErratum()
	orphan.Type = nil
	require.Error(t, svc.Notify(context.Background(), orphan, &models.RfcMetadata{Stream: models.StreamIETF}, EventSubmitted, ""))
	assert.Len(t, observer.events, 1)
}

func TestNotifyClassifiedSubject(t *testing.T) {
	svc, mail, _, _ := notificationFixture()
	erratum := technicalErratum()
	erratum.Status = models.StatusHeld
	verifier := "verifier@ietf.org"
	erratum.VerifierEmail = &verifier
	meta := &models.RfcMetadata{Stream: models.StreamLegacy, Title: "A Protocol"}

	err := svc.Notify(context.Background(), erratum, meta, EventClassified, verifier)
	require.NoError(t, err)
	for _, msg := range mail.messages {
		assert.Equal(t, "[Errata Held for Document Update] RFC9000 (7141)", msg.Subject)
		assert.Equal(t, verifier, msg.Sender)
	}
}

func TestNotifyFailsOnUnresolvableRecipients(t *testing.T) {
	svc, mail, _, _ := notificationFixture()
	erratum := technicalErratum()
	erratum.Type = nil
	meta := &models.RfcMetadata{Stream: models.StreamIETF}

	err := svc.Notify(context.Background(), erratum, meta, EventSubmitted, "")
	require.Error(t, err)
	assert.Empty(t, mail.messages)
}

func TestHandleDispatchMarksSent(t *testing.T) {
	svc, mail, sender, dispatch := notificationFixture()
	meta := &models.RfcMetadata{Stream: models.StreamLegacy}
	require.NoError(t, svc.Notify(context.Background(), technicalErratum(), meta, EventSubmitted, ""))

	job := dispatch.jobs[0]
	require.NoError(t, svc.HandleDispatch(context.Background(), job))
	require.Len(t, sender.sent, 1)
	msg, err := mail.GetByID(context.Background(), sender.sent[0])
	require.NoError(t, err)
	assert.True(t, msg.Sent)

	// Redelivery of the same job does not double-send.
	require.NoError(t, svc.HandleDispatch(context.Background(), job))
	assert.Len(t, sender.sent, 1)
}

func TestHandleDispatchRecordsFailedAttempt(t *testing.T) {
	svc, mail, sender, dispatch := notificationFixture()
	meta := &models.RfcMetadata{Stream: models.StreamLegacy}
	require.NoError(t, svc.Notify(context.Background(), technicalErratum(), meta, EventSubmitted, ""))

	sender.err = errors.New("smtp down")
	job := dispatch.jobs[0]
	require.Error(t, svc.HandleDispatch(context.Background(), job))

	msg, err := mail.GetByID(context.Background(), job.Payload.(string))
	require.NoError(t, err)
	assert.False(t, msg.Sent)
	assert.Equal(t, 1, msg.Attempts)
}

func TestHandleDispatchMissingMessage(t *testing.T) {
	svc, _, _, _ := notificationFixture()
	err := svc.HandleDispatch(context.Background(), jobs.Job{ID: "x", Type: JobTypeMailDispatch, Payload: "missing"})
	require.NoError(t, err)
}
