package scheduler

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giygas/israeldrugs-mcp/entities"
	"github.com/giygas/israeldrugs-mcp/registry/registrytest"
)

type recordingProbe struct {
	mu        sync.Mutex
	successes int
	failures  []error
}

func (p *recordingProbe) RecordSuccess(time.Time, time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.successes++
}

func (p *recordingProbe) RecordFailure(_ time.Time, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures = append(p.failures, err)
}

func (p *recordingProbe) counts() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.successes, len(p.failures)
}

func TestProbeOnce_Success(t *testing.T) {
	fake := &registrytest.Fake{}
	probe := &recordingProbe{}
	s := NewScheduler(fake, probe, time.Minute)

	s.probeOnce()

	ok, failed := probe.counts()
	assert.Equal(t, 1, ok)
	assert.Zero(t, failed)

	calls := fake.CallsTo("autocomplete")
	require.Len(t, calls, 1)
	assert.Equal(t, probeTerm, calls[0].Suggest.Term)
}

func TestProbeOnce_Failure(t *testing.T) {
	upstream := &entities.UpstreamError{Op: "Autocomplete", Err: errors.New("503")}
	fake := &registrytest.Fake{
		AutocompleteFunc: func(entities.AutocompleteParams) ([]string, error) {
			return nil, upstream
		},
	}
	probe := &recordingProbe{}
	s := NewScheduler(fake, probe, time.Minute)

	s.probeOnce()

	ok, failed := probe.counts()
	assert.Zero(t, ok)
	require.Equal(t, 1, failed)
	assert.ErrorIs(t, probe.failures[0], entities.ErrUpstreamUnavailable)
}

func TestStart_RunsImmediatelyAndStops(t *testing.T) {
	fake := &registrytest.Fake{}
	probe := &recordingProbe{}
	s := NewScheduler(fake, probe, time.Hour)

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool {
		ok, _ := probe.counts()
		return ok >= 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, s.scheduler.Len())
}

func TestStart_RejectsNonPositiveInterval(t *testing.T) {
	s := NewScheduler(&registrytest.Fake{}, &recordingProbe{}, 0)
	assert.Error(t, s.Start())
}

func TestNewScheduler_TimeoutBoundedByInterval(t *testing.T) {
	assert.Equal(t, 30*time.Second, NewScheduler(nil, nil, 10*time.Minute).timeout)
	assert.Equal(t, 5*time.Second, NewScheduler(nil, nil, 5*time.Second).timeout)
}
