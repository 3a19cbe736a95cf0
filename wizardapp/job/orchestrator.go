package job

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/harrison-roh/image-classification-wizard/wizardapp/failure"
)

var ErrBusy = errors.New("another job is running")

// Work 백그라운드에서 실행할 작업. stop 은 학습 작업에서만 의미가 있다
type Work func(ctx context.Context, stop *StopFlag) error

// Callbacks 작업 종료 시 호출되는 함수. Orchestrator 가 Idle 로 돌아간 뒤 호출된다
type Callbacks struct {
	OnSuccess func(j Job)
	OnFailure func(j Job, err error)
}

// Recorder 종료된 작업 기록
type Recorder interface {
	Record(j Job) error
}

// Orchestrator 단일 작업 실행기
type Orchestrator struct {
	mutex   sync.Mutex
	current *running
	last    *Job

	ctx      context.Context
	recorder Recorder
}

type running struct {
	job  Job
	stop StopFlag
	done chan struct{}
}

// New Orchestrator 생성. ctx 는 모든 작업에 전달되며, recorder 는 nil 이어도 된다
func New(ctx context.Context, recorder Recorder) *Orchestrator {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Orchestrator{
		ctx:      ctx,
		recorder: recorder,
	}
}

// Submit 실행 중인 작업이 없으면 work 를 백그라운드에서 실행
func (o *Orchestrator) Submit(kind Kind, project string, work Work, cb Callbacks) (Job, error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if o.current != nil {
		return Job{}, failure.State(fmt.Sprintf("submit %s", kind), fmt.Errorf("%w: %s(%s)", ErrBusy, o.current.job.Kind, o.current.job.ID))
	}

	r := &running{
		job: Job{
			ID:        uuid.New().String()[:8],
			Kind:      kind,
			Project:   project,
			State:     Running,
			StartedAt: time.Now(),
		},
		done: make(chan struct{}),
	}
	o.current = r

	log.Printf("Job %s(%s) started for %s", r.job.ID, kind, project)
	go o.run(r, work, cb)

	return r.job, nil
}

func (o *Orchestrator) run(r *running, work Work, cb Callbacks) {
	err := o.execute(r, work)

	o.mutex.Lock()
	r.job.FinishedAt = time.Now()
	if err != nil {
		r.job.State = Failed
		r.job.Err = err.Error()
	} else {
		r.job.State = Completed
	}
	r.job.Stopping = r.stop.IsSet()
	finished := r.job
	o.last = &finished
	o.current = nil
	o.mutex.Unlock()
	close(r.done)

	if err != nil {
		log.Printf("Job %s(%s) failed after %s: %s", finished.ID, finished.Kind, finished.Elapsed(), err)
	} else {
		log.Printf("Job %s(%s) completed after %s", finished.ID, finished.Kind, finished.Elapsed())
	}

	if o.recorder != nil {
		if err := o.recorder.Record(finished); err != nil {
			log.Printf("Fail to record job %s: %s", finished.ID, err)
		}
	}

	if err != nil {
		if cb.OnFailure != nil {
			cb.OnFailure(finished, err)
		}
	} else if cb.OnSuccess != nil {
		cb.OnSuccess(finished)
	}
}

// panic 도 작업 실패로 처리
func (o *Orchestrator) execute(r *running, work Work) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &failure.JobFailure{Kind: string(r.job.Kind), Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	if err := work(o.ctx, &r.stop); err != nil {
		return &failure.JobFailure{Kind: string(r.job.Kind), Err: err}
	}
	return nil
}

// RequestStop 실행 중인 학습 작업에 중지 요청. 그 외에는 아무것도 하지 않는다
func (o *Orchestrator) RequestStop() bool {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if o.current == nil || o.current.job.Kind != Train {
		return false
	}

	o.current.stop.Set()
	o.current.job.Stopping = true
	log.Printf("Stop requested for job %s", o.current.job.ID)

	return true
}

// State 실행 중이면 Running, 아니면 Idle
func (o *Orchestrator) State() State {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if o.current != nil {
		return Running
	}
	return Idle
}

// Current 실행 중인 작업
func (o *Orchestrator) Current() (Job, bool) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if o.current == nil {
		return Job{}, false
	}
	return o.current.job, true
}

// Last 가장 최근에 종료된 작업
func (o *Orchestrator) Last() (Job, bool) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if o.last == nil {
		return Job{}, false
	}
	return *o.last, true
}

// Wait 실행 중인 작업이 끝날 때까지 대기
func (o *Orchestrator) Wait(ctx context.Context) error {
	o.mutex.Lock()
	r := o.current
	o.mutex.Unlock()

	if r == nil {
		return nil
	}

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
