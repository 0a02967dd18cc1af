package framework

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type closeRecorder struct {
	closed int
}

func (c *closeRecorder) Close() error {
	c.closed++
	return nil
}

func TestRunnerWait(t *testing.T) {
	errBroken := errors.New("broken")
	r := NewRunner()
	r.Go(
		NamedRun("ok", RunFunc(func(context.Context) error { return nil })),
		NamedRun("canceled", RunFunc(func(context.Context) error { return context.Canceled })),
		NamedRun("broken", RunFunc(func(context.Context) error { return errBroken })),
	)
	err := r.Wait()
	require.ErrorIs(t, err, errBroken)
	require.Equal(t, "broken: broken", err.Error())
	require.Len(t, r.Runners, 3)
}

func TestRunnerNoError(t *testing.T) {
	r := NewRunner()
	r.Go(RunFunc(func(context.Context) error { return nil }))
	require.NoError(t, r.Wait())
}

func TestRunWithContextCloser(t *testing.T) {
	closer := &closeRecorder{}
	require.NoError(t, RunWithContextCloser(context.Background(), closer, func() error { return nil }))
	require.Equal(t, 1, closer.closed)

	ctx, cancel := context.WithCancel(context.Background())
	block := make(chan struct{})
	closer = &closeRecorder{}
	go cancel()
	err := RunWithContextCancel(ctx, func() {
		closer.Close()
		close(block)
	}, func() error {
		<-block
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, closer.closed)
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil).Aggregate())
	e1, e2 := errors.New("e1"), errors.New("e2")
	err := errs.Add(e1, nil, e2).Aggregate()
	require.Equal(t, "Multiple errors:\ne1\ne2", err.Error())
	require.ErrorIs(t, err, e2)
}
