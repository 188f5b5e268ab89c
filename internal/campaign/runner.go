package campaign

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/rsvphq/guestlist/internal/models"
	"github.com/rsvphq/guestlist/pkg/logger"

	"go.uber.org/zap"
)

// Default pacing for bulk sends.
const (
	DefaultSendDelay   = 100 * time.Millisecond
	DefaultBatchBudget = 5 * time.Minute
)

// RunnerConfig tunes bulk campaign pacing.
type RunnerConfig struct {
	SendDelay   time.Duration
	BatchBudget time.Duration
	Clock       func() time.Time
	Sleep       func(time.Duration)
}

// Report summarises a bulk run. A recipient skipped by the batch budget is
// neither sent nor failed; it shows up in Errors as a note.
type Report struct {
	Sent   int      `json:"sent"`
	Failed int      `json:"failed"`
	Errors []string `json:"errors,omitempty"`
}

// Runner walks a list of RSVPs and dispatches one email per recipient,
// pacing sends and stopping at the wall-clock budget. Individual failures
// never abort the batch.
type Runner struct {
	db         *gorm.DB
	dispatcher *Dispatcher
	delay      time.Duration
	budget     time.Duration
	now        func() time.Time
	sleep      func(time.Duration)
}

// NewRunner constructs a bulk campaign runner.
func NewRunner(db *gorm.DB, dispatcher *Dispatcher, cfg RunnerConfig) (*Runner, error) {
	if db == nil {
		return nil, errors.New("runner: db is required")
	}
	if dispatcher == nil {
		return nil, errors.New("runner: dispatcher is required")
	}

	delay := cfg.SendDelay
	if delay <= 0 {
		delay = DefaultSendDelay
	}

	budget := cfg.BatchBudget
	if budget <= 0 {
		budget = DefaultBatchBudget
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	sleep := time.Sleep
	if cfg.Sleep != nil {
		sleep = cfg.Sleep
	}

	return &Runner{
		db:         db,
		dispatcher: dispatcher,
		delay:      delay,
		budget:     budget,
		now:        clock,
		sleep:      sleep,
	}, nil
}

// SendBatch dispatches emails to the requested RSVPs of one event, in the
// order the ids were given. Repeated ids are sent once; the loaded records
// are not refreshed between sends, so a second pass over the same id would
// derive the kind from stale history.
func (r *Runner) SendBatch(ctx context.Context, eventID string, rsvpIDs []string) (Report, error) {
	rsvpIDs = dedupeIDs(rsvpIDs)

	var event models.Event
	err := r.db.WithContext(ctx).Where("id = ?", eventID).Take(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Report{}, fmt.Errorf("runner: event %s not found", eventID)
	}
	if err != nil {
		return Report{}, fmt.Errorf("runner: load event: %w", err)
	}

	var rsvps []models.RSVP
	if err := r.db.WithContext(ctx).
		Where("event_id = ? AND id IN ?", eventID, rsvpIDs).
		Find(&rsvps).Error; err != nil {
		return Report{}, fmt.Errorf("runner: load rsvps: %w", err)
	}

	byID := make(map[string]*models.RSVP, len(rsvps))
	for i := range rsvps {
		byID[rsvps[i].ID] = &rsvps[i]
	}

	log := logger.WithModule("campaign")
	start := r.now()

	var report Report
	for i, id := range rsvpIDs {
		if elapsed := r.now().Sub(start); elapsed > r.budget {
			skipped := len(rsvpIDs) - i
			report.Errors = append(report.Errors,
				fmt.Sprintf("batch budget exhausted after %s, %d recipients skipped", elapsed.Round(time.Second), skipped))
			log.Warn("bulk send stopped at budget",
				zap.String("event_id", eventID),
				zap.Int("skipped", skipped))
			break
		}

		rsvp, ok := byID[id]
		if !ok {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("rsvp %s: not found for event", id))
			continue
		}

		if _, err := r.dispatcher.Send(ctx, rsvp, &event); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("rsvp %s: %v", id, err))
		} else {
			report.Sent++
		}

		if i < len(rsvpIDs)-1 {
			r.sleep(r.delay)
		}
	}

	log.Info("bulk send finished",
		zap.String("event_id", eventID),
		zap.Int("sent", report.Sent),
		zap.Int("failed", report.Failed))

	return report, nil
}

// dedupeIDs drops repeated ids while keeping first-occurrence order.
func dedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
