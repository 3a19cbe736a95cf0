// Package job 백그라운드 작업(데이터셋 변환, 그래프 컴파일, 학습) 실행 관리
//
// 시스템 전체에서 동시에 하나의 작업만 실행된다. 학습 작업의 중지는 협조적으로
// 이루어지며, 작업은 StopFlag 를 주기적으로 확인하고 스스로 종료해야 한다.
package job

import (
	"sync/atomic"
	"time"
)

// Kind 작업 종류
type Kind string

const (
	Package Kind = "package"
	Compile Kind = "compile"
	Train   Kind = "train"
)

// ParseKind 문자열을 Kind 로 변환
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case Package, Compile, Train:
		return Kind(s), true
	}
	return "", false
}

// State 작업 상태
type State string

const (
	Idle      State = "Idle"
	Running   State = "Running"
	Completed State = "Completed"
	Failed    State = "Failed"
)

// IsFinished 종료된 상태인지 확인
func (s State) IsFinished() bool {
	return s == Completed || s == Failed
}

// StopFlag 협조적 중지 요청 플래그
type StopFlag struct {
	v int32
}

// Set 중지 요청
func (f *StopFlag) Set() {
	atomic.StoreInt32(&f.v, 1)
}

// IsSet 중지 요청 여부
func (f *StopFlag) IsSet() bool {
	return atomic.LoadInt32(&f.v) == 1
}

// Job 작업 정보. Orchestrator 가 반환하는 값은 사본이다
type Job struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	Project    string    `json:"project"`
	State      State     `json:"state"`
	Err        string    `json:"error,omitempty"`
	Stopping   bool      `json:"stopping"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt,omitempty"`
}

// Elapsed 작업 수행 시간
func (j Job) Elapsed() time.Duration {
	if j.FinishedAt.IsZero() {
		return time.Since(j.StartedAt)
	}
	return j.FinishedAt.Sub(j.StartedAt)
}
