// Package failure 위저드 코어가 반환하는 에러 분류
//
// 각 패키지는 sentinel 에러(예: job.ErrBusy)를 정의하고, 호출자에게 돌려줄 때
// 아래 타입 중 하나로 감싼다. errors.Is 로 원인을, errors.As 로 분류를 확인한다.
package failure

import (
	"errors"
	"fmt"
)

// ValidationError 작업 제출 전에 동기적으로 확인되는 입력 오류
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("Invalid input: %s", e.Reason)
	}
	return fmt.Sprintf("Invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// StateError 현재 상태로는 수행할 수 없는 요청 (Busy, IndexOutOfRange, NotFound)
type StateError struct {
	Op  string
	Err error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *StateError) Unwrap() error {
	return e.Err
}

// JobFailure 백그라운드 작업 내부에서 발생한 오류
type JobFailure struct {
	Kind string
	Err  error
}

func (e *JobFailure) Error() string {
	return fmt.Sprintf("%s job failed: %s", e.Kind, e.Err)
}

func (e *JobFailure) Unwrap() error {
	return e.Err
}

// StorageFault 파일시스템 삭제/정리 실패. best-effort 이므로 롤백하지 않는다
type StorageFault struct {
	Path string
	Err  error
}

func (e *StorageFault) Error() string {
	return fmt.Sprintf("Storage fault on %s: %s", e.Path, e.Err)
}

func (e *StorageFault) Unwrap() error {
	return e.Err
}

// Invalid ValidationError 생성
func Invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// State StateError 생성
func State(op string, err error) error {
	return &StateError{Op: op, Err: err}
}

// Storage StorageFault 생성
func Storage(path string, err error) error {
	return &StorageFault{Path: path, Err: err}
}

// IsValidation err 가 ValidationError 인지 확인
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsState err 가 StateError 인지 확인
func IsState(err error) bool {
	var s *StateError
	return errors.As(err, &s)
}

// IsStorage err 가 StorageFault 인지 확인
func IsStorage(err error) bool {
	var s *StorageFault
	return errors.As(err, &s)
}

// IsJob err 가 JobFailure 인지 확인
func IsJob(err error) bool {
	var j *JobFailure
	return errors.As(err, &j)
}
