package job

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/harrison-roh/image-classification-wizard/wizardapp/failure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitTimeout = 5 * time.Second

type memRecorder struct {
	mutex sync.Mutex
	jobs  []Job
}

func (m *memRecorder) Record(j Job) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.jobs = append(m.jobs, j)
	return nil
}

func (m *memRecorder) Jobs() []Job {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([]Job(nil), m.jobs...)
}

func waitFor(t *testing.T, ch <-chan Job) Job {
	t.Helper()
	select {
	case j := <-ch:
		return j
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for job callback")
	}
	return Job{}
}

func callbacks() (Callbacks, <-chan Job, <-chan Job) {
	succeeded := make(chan Job, 1)
	failed := make(chan Job, 1)
	return Callbacks{
		OnSuccess: func(j Job) { succeeded <- j },
		OnFailure: func(j Job, err error) { failed <- j },
	}, succeeded, failed
}

func TestSubmitCompletes(t *testing.T) {
	o := New(context.Background(), nil)
	assert.Equal(t, Idle, o.State())

	cb, succeeded, _ := callbacks()
	j, err := o.Submit(Package, "p", func(ctx context.Context, stop *StopFlag) error {
		return nil
	}, cb)
	require.NoError(t, err)
	assert.Equal(t, Running, j.State)
	assert.Len(t, j.ID, 8)

	done := waitFor(t, succeeded)
	assert.Equal(t, Completed, done.State)
	assert.Equal(t, j.ID, done.ID)
	assert.Equal(t, Idle, o.State())

	last, ok := o.Last()
	require.True(t, ok)
	assert.Equal(t, Completed, last.State)
}

func TestSubmitBusy(t *testing.T) {
	o := New(context.Background(), nil)
	release := make(chan struct{})

	cb, succeeded, _ := callbacks()
	_, err := o.Submit(Compile, "p", func(ctx context.Context, stop *StopFlag) error {
		<-release
		return nil
	}, cb)
	require.NoError(t, err)

	_, err = o.Submit(Train, "p", func(ctx context.Context, stop *StopFlag) error { return nil }, Callbacks{})
	assert.True(t, errors.Is(err, ErrBusy))
	assert.True(t, failure.IsState(err))

	current, ok := o.Current()
	require.True(t, ok)
	assert.Equal(t, Compile, current.Kind)

	close(release)
	waitFor(t, succeeded)

	cb2, succeeded2, _ := callbacks()
	_, err = o.Submit(Train, "p", func(ctx context.Context, stop *StopFlag) error { return nil }, cb2)
	require.NoError(t, err)
	waitFor(t, succeeded2)
}

func TestSubmitAfterFailure(t *testing.T) {
	rec := &memRecorder{}
	o := New(context.Background(), rec)

	var gotErr error
	failed := make(chan Job, 1)
	_, err := o.Submit(Train, "p", func(ctx context.Context, stop *StopFlag) error {
		return errors.New("trainer exploded")
	}, Callbacks{
		OnFailure: func(j Job, err error) {
			gotErr = err
			failed <- j
		},
	})
	require.NoError(t, err)

	j := waitFor(t, failed)
	assert.Equal(t, Failed, j.State)
	assert.Contains(t, j.Err, "trainer exploded")
	assert.True(t, failure.IsJob(gotErr))
	assert.Equal(t, Idle, o.State())
	require.Len(t, rec.Jobs(), 1)
	assert.Equal(t, Failed, rec.Jobs()[0].State)

	cb, succeeded, _ := callbacks()
	_, err = o.Submit(Train, "p", func(ctx context.Context, stop *StopFlag) error { return nil }, cb)
	require.NoError(t, err)
	waitFor(t, succeeded)
}

func TestPanicBecomesFailure(t *testing.T) {
	o := New(context.Background(), nil)

	cb, _, failed := callbacks()
	_, err := o.Submit(Package, "p", func(ctx context.Context, stop *StopFlag) error {
		panic("packager crashed")
	}, cb)
	require.NoError(t, err)

	j := waitFor(t, failed)
	assert.Equal(t, Failed, j.State)
	assert.Contains(t, j.Err, "packager crashed")
	assert.Equal(t, Idle, o.State())
}

func TestRequestStopIsCooperative(t *testing.T) {
	o := New(context.Background(), nil)
	assert.False(t, o.RequestStop())

	polled := make(chan struct{})
	cb, succeeded, _ := callbacks()
	_, err := o.Submit(Train, "p", func(ctx context.Context, stop *StopFlag) error {
		close(polled)
		for !stop.IsSet() {
			time.Sleep(time.Millisecond)
		}
		return nil
	}, cb)
	require.NoError(t, err)

	<-polled
	// 중지 요청 후에도 작업이 스스로 끝날 때까지 Running
	assert.Equal(t, Running, o.State())
	assert.True(t, o.RequestStop())

	j := waitFor(t, succeeded)
	assert.Equal(t, Completed, j.State)
	assert.True(t, j.Stopping)
}

func TestRequestStopIgnoresNonTrain(t *testing.T) {
	o := New(context.Background(), nil)
	release := make(chan struct{})

	cb, succeeded, _ := callbacks()
	_, err := o.Submit(Package, "p", func(ctx context.Context, stop *StopFlag) error {
		<-release
		if stop.IsSet() {
			return errors.New("unexpected stop")
		}
		return nil
	}, cb)
	require.NoError(t, err)

	assert.False(t, o.RequestStop())
	close(release)
	waitFor(t, succeeded)
}

func TestWait(t *testing.T) {
	o := New(context.Background(), nil)
	require.NoError(t, o.Wait(context.Background()))

	release := make(chan struct{})
	_, err := o.Submit(Train, "p", func(ctx context.Context, stop *StopFlag) error {
		<-release
		return nil
	}, Callbacks{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, o.Wait(ctx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, o.Wait(context.Background()))
	assert.Equal(t, Idle, o.State())
}

func TestParseKind(t *testing.T) {
	k, ok := ParseKind("train")
	assert.True(t, ok)
	assert.Equal(t, Train, k)

	_, ok = ParseKind("deploy")
	assert.False(t, ok)
}

func TestStateIsFinished(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{Idle, false},
		{Running, false},
		{Completed, true},
		{Failed, true},
	}

	for _, test := range tests {
		if result := test.state.IsFinished(); result != test.expected {
			t.Errorf("State(%s).IsFinished() = %v, expected %v", test.state, result, test.expected)
		}
	}
}
