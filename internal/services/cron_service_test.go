package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPurger struct {
	calls int
	err   error
}

func (p *countingPurger) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	p.calls++
	return 3, p.err
}

func TestCronService_Schedule(t *testing.T) {
	purger := &countingPurger{}
	svc := NewCronService(purger, testLogger())

	require.NoError(t, svc.Start("0 */15 * * * *"))
	defer svc.Stop()

	assert.Equal(t, 1, svc.JobCount())
}

func TestCronService_InvalidSchedule(t *testing.T) {
	svc := NewCronService(&countingPurger{}, testLogger())

	err := svc.Start("every now and then")

	assert.Error(t, err)
	assert.Equal(t, 0, svc.JobCount())
}

func TestCronService_PurgeJob(t *testing.T) {
	purger := &countingPurger{}
	svc := NewCronService(purger, testLogger())

	svc.purgeSessionsJob()
	purger.err = errors.New("connection refused")
	svc.purgeSessionsJob()

	assert.Equal(t, 2, purger.calls)
}
