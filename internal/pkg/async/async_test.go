package async

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunPreservesTaskOrder(t *testing.T) {
	tasks := []Task{
		{Name: "first", Fn: func() (interface{}, error) { return 1, nil }},
		{Name: "second", Fn: func() (interface{}, error) { return 2, nil }},
		{Name: "third", Fn: func() (interface{}, error) { return 3, nil }},
	}

	outcomes := Run(tasks, 2)
	require.Len(t, outcomes, 3)
	assert.Equal(t, "first", outcomes[0].Name)
	assert.Equal(t, 1, outcomes[0].Value)
	assert.Equal(t, "second", outcomes[1].Name)
	assert.Equal(t, 2, outcomes[1].Value)
	assert.Equal(t, "third", outcomes[2].Name)
	assert.Equal(t, 3, outcomes[2].Value)
}

func TestRunReportsErrors(t *testing.T) {
	failure := errors.New("query timed out")
	tasks := []Task{
		{Name: "ok", Fn: func() (interface{}, error) { return "fine", nil }},
		{Name: "bad", Fn: func() (interface{}, error) { return nil, failure }},
	}

	outcomes := Run(tasks, 0)
	require.Len(t, outcomes, 2)
	assert.NoError(t, outcomes[0].Err)
	assert.ErrorIs(t, outcomes[1].Err, failure)
	assert.Nil(t, outcomes[1].Value)
}

func TestRunRecoversPanics(t *testing.T) {
	tasks := []Task{
		{Name: "boom", Fn: func() (interface{}, error) { panic("nope") }},
		{Name: "ok", Fn: func() (interface{}, error) { return 42, nil }},
	}

	outcomes := Run(tasks, 1)
	require.Len(t, outcomes, 2)
	assert.Error(t, outcomes[0].Err)
	assert.Contains(t, outcomes[0].Err.Error(), "boom")
	assert.Equal(t, 42, outcomes[1].Value)
}

func TestRunBoundsConcurrency(t *testing.T) {
	var running, peak int32
	fn := func() (interface{}, error) {
		current := atomic.AddInt32(&running, 1)
		for {
			observed := atomic.LoadInt32(&peak)
			if current <= observed || atomic.CompareAndSwapInt32(&peak, observed, current) {
				break
			}
		}
		atomic.AddInt32(&running, -1)
		return nil, nil
	}

	tasks := make([]Task, 16)
	for i := range tasks {
		tasks[i] = Task{Name: "n", Fn: fn}
	}

	Run(tasks, 2)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}
