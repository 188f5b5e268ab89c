package campaign

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rsvphq/guestlist/internal/models"
	"github.com/rsvphq/guestlist/pkg/mail"
	"github.com/rsvphq/guestlist/pkg/metrics"
)

// Recorder appends a send record to an RSVP's email history after a
// successful delivery.
type Recorder interface {
	RecordEmailSent(ctx context.Context, rsvpID string, record models.EmailRecord) error
}

// DispatcherConfig carries the static inputs of the dispatcher.
type DispatcherConfig struct {
	BaseURL  string
	From     string
	Defaults Defaults
	Clock    func() time.Time
}

// SendResult reports what the dispatcher actually sent.
type SendResult struct {
	Kind string
}

// Dispatcher composes and delivers one campaign email per call. The kind is
// derived from the RSVP's state, never chosen by the caller.
type Dispatcher struct {
	mailer   mail.Mailer
	codec    *TokenCodec
	recorder Recorder
	baseURL  string
	from     string
	defaults Defaults
	now      func() time.Time
}

// NewDispatcher wires a dispatcher from its collaborators.
func NewDispatcher(mailer mail.Mailer, codec *TokenCodec, recorder Recorder, cfg DispatcherConfig) (*Dispatcher, error) {
	if mailer == nil {
		return nil, errors.New("dispatcher: mailer is required")
	}
	if codec == nil {
		return nil, errors.New("dispatcher: token codec is required")
	}
	if recorder == nil {
		return nil, errors.New("dispatcher: recorder is required")
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &Dispatcher{
		mailer:   mailer,
		codec:    codec,
		recorder: recorder,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		from:     cfg.From,
		defaults: cfg.Defaults,
		now:      clock,
	}, nil
}

// DeriveKind picks the email kind from the RSVP's current state: cancelled
// guests get a re-invitation, guests who already received any email get a
// reminder, everyone else gets the initial confirmation.
func (d *Dispatcher) DeriveKind(rsvp *models.RSVP) string {
	if rsvp.Status == models.RSVPStatusCancelled {
		return models.EmailKindReinvitation
	}
	if len(rsvp.History()) > 0 {
		return models.EmailKindReminder
	}
	return models.EmailKindConfirmation
}

// Send renders and delivers the email for one RSVP, then records the send in
// the RSVP's history. On a transport failure the history stays untouched.
func (d *Dispatcher) Send(ctx context.Context, rsvp *models.RSVP, event *models.Event) (SendResult, error) {
	if rsvp == nil || event == nil {
		return SendResult{}, errors.New("dispatcher: rsvp and event are required")
	}

	kind := d.DeriveKind(rsvp)

	token := d.codec.Generate(rsvp.ID, rsvp.Email)
	manageURL := fmt.Sprintf("%s/cancel/%s?token=%s", d.baseURL, rsvp.ID, token)

	body, err := renderEmail(kind, rsvp, event, d.defaults, manageURL, d.baseURL)
	if err != nil {
		metrics.EmailsSent.WithLabelValues(kind, "error").Inc()
		return SendResult{}, err
	}

	err = d.mailer.Send(ctx, mail.Message{
		From:    d.from,
		To:      []string{rsvp.Email},
		Subject: Subject(kind, event.Title),
		Body:    body,
		HTML:    true,
	})
	if err != nil {
		metrics.EmailsSent.WithLabelValues(kind, "failure").Inc()
		return SendResult{}, fmt.Errorf("dispatcher: send %s to %s: %w", kind, rsvp.Email, err)
	}

	record := models.EmailRecord{SentAt: d.now(), Type: kind}
	if err := d.recorder.RecordEmailSent(ctx, rsvp.ID, record); err != nil {
		metrics.EmailsSent.WithLabelValues(kind, "error").Inc()
		return SendResult{}, fmt.Errorf("dispatcher: record send: %w", err)
	}

	metrics.EmailsSent.WithLabelValues(kind, "success").Inc()
	return SendResult{Kind: kind}, nil
}
