package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRSVPHistoryEmpty(t *testing.T) {
	rsvp := RSVP{}
	require.Empty(t, rsvp.History())
	require.False(t, rsvp.HasSend(EmailKindConfirmation))
}

func TestRSVPAppendHistoryKeepsOrder(t *testing.T) {
	rsvp := RSVP{}

	first := EmailRecord{SentAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), Type: EmailKindConfirmation}
	raw, err := rsvp.AppendHistory(first)
	require.NoError(t, err)
	rsvp.EmailHistory = raw

	second := EmailRecord{SentAt: time.Date(2025, 3, 8, 10, 0, 0, 0, time.UTC), Type: EmailKindReminder}
	raw, err = rsvp.AppendHistory(second)
	require.NoError(t, err)
	rsvp.EmailHistory = raw

	records := rsvp.History()
	require.Len(t, records, 2)
	require.Equal(t, EmailKindConfirmation, records[0].Type)
	require.Equal(t, EmailKindReminder, records[1].Type)

	require.True(t, rsvp.HasSend(EmailKindReminder))
	require.False(t, rsvp.HasSend(EmailKindReinvitation))
}

func TestRSVPHistoryIgnoresCorruptColumn(t *testing.T) {
	rsvp := RSVP{EmailHistory: []byte("{not json")}
	require.Empty(t, rsvp.History())
}
