package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xela07ax/sentinel-secops/internal/domain"
)

type fakeEventProvider struct {
	event *domain.Event
	err   error
}

func (f fakeEventProvider) GetEvent(context.Context, string) (*domain.Event, error) {
	return f.event, f.err
}

type fakeAdvisor struct {
	text string
	err  error
}

func (f fakeAdvisor) Advise(context.Context, domain.Event) (string, error) {
	return f.text, f.err
}

func TestAdviseOnEvent_ReturnsAdvisorText(t *testing.T) {
	svc := NewAdviceService(
		fakeEventProvider{event: &domain.Event{ID: "e-1", Subtype: "DDoS"}},
		fakeAdvisor{text: "rate-limit the source"},
	)

	resp, err := svc.AdviseOnEvent(context.Background(), "e-1")
	require.NoError(t, err)
	assert.Equal(t, "e-1", resp.EventID)
	assert.Equal(t, "DDoS", resp.Subtype)
	assert.Equal(t, "rate-limit the source", resp.Advice)
	assert.False(t, resp.Degraded)
}

func TestAdviseOnEvent_DegradesWhenAdvisorDown(t *testing.T) {
	svc := NewAdviceService(
		fakeEventProvider{event: &domain.Event{ID: "e-1", Subtype: "Flood"}},
		fakeAdvisor{err: errors.New("circuit open")},
	)

	resp, err := svc.AdviseOnEvent(context.Background(), "e-1")
	require.NoError(t, err, "advisor outage must not surface as an error")
	assert.True(t, resp.Degraded)
	assert.NotEmpty(t, resp.Advice)
}

func TestAdviseOnEvent_MissingEventIsError(t *testing.T) {
	svc := NewAdviceService(
		fakeEventProvider{err: errors.New("not found")},
		fakeAdvisor{text: "irrelevant"},
	)

	_, err := svc.AdviseOnEvent(context.Background(), "nope")
	require.Error(t, err)
}
