// Package dataset 프로젝트의 데이터셋 경로 관리
//
// 원본 샘플 디렉토리(Source)와 학습 프레임워크 형식으로 변환된 데이터셋(Packaged)을
// 학습(Train)/검증(Validation) 용도별로 구분하여 순서대로 보관한다.
package dataset

import (
	"errors"
	"fmt"

	"github.com/harrison-roh/image-classification-wizard/wizardapp/constants"
)

// Kind 데이터셋 종류
type Kind string

// Mode 데이터셋 용도
type Mode string

const (
	Source   Kind = "source"
	Packaged Kind = "packaged"

	Train      Mode = "train"
	Validation Mode = "validation"
)

var ErrIndexOutOfRange = errors.New("index out of range")

// Kinds 데이터셋 종류 목록
func Kinds() []Kind {
	return []Kind{Source, Packaged}
}

// Modes 데이터셋 용도 목록
func Modes() []Mode {
	return []Mode{Train, Validation}
}

// ParseKind 문자열을 Kind 로 변환
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case Source, Packaged:
		return Kind(s), nil
	}
	return "", fmt.Errorf("Unknown dataset kind: %s", s)
}

// ParseMode 문자열을 Mode 로 변환
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case Train, Validation:
		return Mode(s), nil
	}
	return "", fmt.Errorf("Unknown dataset mode: %s", s)
}

type key struct {
	kind Kind
	mode Mode
}

// Registry (Kind, Mode) 별 경로 목록. 동시 사용에 안전하지 않다
type Registry struct {
	buckets map[key][]string
}

// New 빈 Registry 생성
func New() *Registry {
	return &Registry{
		buckets: make(map[key][]string),
	}
}

// Add 경로를 목록 끝에 추가 (중복 허용)
func (r *Registry) Add(kind Kind, mode Mode, path string) {
	k := key{kind, mode}
	r.buckets[k] = append(r.buckets[k], path)
}

// RemoveAt index 위치의 경로 삭제
func (r *Registry) RemoveAt(kind Kind, mode Mode, index int) error {
	k := key{kind, mode}
	paths := r.buckets[k]
	if index < 0 || index >= len(paths) {
		return fmt.Errorf("%w: %d of %d (%s/%s)", ErrIndexOutOfRange, index, len(paths), kind, mode)
	}

	updated := make([]string, 0, len(paths)-1)
	updated = append(updated, paths[:index]...)
	updated = append(updated, paths[index+1:]...)
	r.buckets[k] = updated

	return nil
}

// List 경로 목록의 복사본 반환
func (r *Registry) List(kind Kind, mode Mode) []string {
	paths := r.buckets[key{kind, mode}]
	list := make([]string, len(paths))
	copy(list, paths)
	return list
}

// Truncate 앞의 n 개만 남기고 삭제
func (r *Registry) Truncate(kind Kind, mode Mode, n int) {
	k := key{kind, mode}
	paths := r.buckets[k]
	if n < 0 {
		n = 0
	}
	if n >= len(paths) {
		return
	}

	kept := make([]string, n)
	copy(kept, paths[:n])
	r.buckets[k] = kept
}

// Len 경로 수
func (r *Registry) Len(kind Kind, mode Mode) int {
	return len(r.buckets[key{kind, mode}])
}

// DerivePackagedName 다음에 추가될 변환 데이터셋의 파일명
func (r *Registry) DerivePackagedName(mode Mode) string {
	return fmt.Sprintf("%s.%d.%s", mode, r.Len(Packaged, mode), constants.DatasetExt)
}

// Clear 모든 목록 비우기
func (r *Registry) Clear() {
	r.buckets = make(map[key][]string)
}

// Paths 용도별 경로 목록
type Paths struct {
	Train      []string `yaml:"train" json:"train"`
	Validation []string `yaml:"validation" json:"validation"`
}

// Snapshot 저장용 Registry 사본
type Snapshot struct {
	Source   Paths `yaml:"source" json:"source"`
	Packaged Paths `yaml:"packaged" json:"packaged"`
}

// Snapshot 현재 내용의 사본 생성
func (r *Registry) Snapshot() Snapshot {
	return Snapshot{
		Source: Paths{
			Train:      r.List(Source, Train),
			Validation: r.List(Source, Validation),
		},
		Packaged: Paths{
			Train:      r.List(Packaged, Train),
			Validation: r.List(Packaged, Validation),
		},
	}
}

// Restore 기존 내용을 버리고 s 로 다시 구성
func (r *Registry) Restore(s Snapshot) {
	r.Clear()
	for _, kind := range Kinds() {
		for _, mode := range Modes() {
			for _, p := range s.Get(kind, mode) {
				r.Add(kind, mode, p)
			}
		}
	}
}

// Get kind/mode 에 해당하는 목록
func (s Snapshot) Get(kind Kind, mode Mode) []string {
	p := s.Source
	if kind == Packaged {
		p = s.Packaged
	}
	if mode == Validation {
		return p.Validation
	}
	return p.Train
}
