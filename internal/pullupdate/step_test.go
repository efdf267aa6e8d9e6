package pullupdate

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStepState(t *testing.T) {
	s := NewStepState(StepLoad)
	assert.Equal(t, StepStatusPending, s.GetStatus())
	assert.Zero(t, s.Duration())

	s.Start()
	assert.Equal(t, StepStatusActive, s.GetStatus())
	time.Sleep(time.Millisecond)
	assert.Positive(t, s.Duration())

	s.Fail(errors.New("boom"))
	assert.Equal(t, StepStatusFailed, s.GetStatus())
	assert.EqualError(t, s.Error, "boom")
	d := s.Duration()
	assert.Equal(t, d, s.Duration(), "duration is fixed once the step ends")

	skipped := NewStepState(StepNotify)
	skipped.Skip("notifications disabled")
	assert.Equal(t, StepStatusSkipped, skipped.GetStatus())
	assert.Equal(t, "notifications disabled", skipped.Message)
}

func TestResult(t *testing.T) {
	start := time.Date(2024, 3, 7, 14, 0, 0, 0, time.UTC)
	r := &Result{StartedAt: start}
	assert.Zero(t, r.Duration())

	r.FinishedAt = start.Add(90 * time.Second)
	assert.Equal(t, 90*time.Second, r.Duration())

	r.Steps = []*StepState{NewStepState(StepLoad), NewStepState(StepClean)}
	assert.Equal(t, StepClean, r.Step(StepClean).ID)
	assert.Nil(t, r.Step(StepUpload))
}
