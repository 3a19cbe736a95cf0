// Package category 라벨 알파벳 카탈로그와 샘플 파일명 기반 카테고리 추론
package category

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/harrison-roh/image-classification-wizard/wizardapp/constants"
)

var (
	ErrNoLabelsObserved   = errors.New("no labels observed in sample names")
	ErrNoMatchingCategory = errors.New("no matching category")
)

// Result 카테고리 추론 결과
type Result struct {
	Tag         Tag      `json:"category"`
	LabelLength int      `json:"labelLength"`
	Observed    []string `json:"observed"`
}

// Infer dir 의 앞쪽 샘플 파일명으로 카테고리를 추론
func Infer(dir, delim string) (Result, error) {
	d, err := os.Open(dir)
	if err != nil {
		return Result{}, err
	}
	defer d.Close()

	// os.ReadDir 은 이름순으로 정렬하므로 파일시스템 순서를 그대로 쓰기 위해 직접 읽는다
	entries, err := d.ReadDir(constants.MaxInferSamples)
	if err != nil && !errors.Is(err, io.EOF) {
		return Result{}, fmt.Errorf("Fail to read samples(%s): %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}

	return InferNames(names, delim)
}

// InferNames 파일명 목록으로 카테고리를 추론
func InferNames(names []string, delim string) (Result, error) {
	if delim == "" {
		delim = constants.DefaultLabelDelimiter
	}
	if len(names) > constants.MaxInferSamples {
		names = names[:constants.MaxInferSamples]
	}

	labelLength := -1
	observed := make(map[rune]struct{})
	for _, name := range names {
		idx := strings.Index(name, delim)
		if idx < 0 {
			continue
		}

		label := []rune(name[:idx])
		labelLength = len(label)
		for _, r := range label {
			observed[r] = struct{}{}
		}
	}

	if labelLength < 0 {
		return Result{LabelLength: -1}, ErrNoLabelsObserved
	}

	chars := make([]string, 0, len(observed))
	for r := range observed {
		chars = append(chars, string(r))
	}
	sort.Strings(chars)

	tag, ok := closest(observed)
	if !ok {
		return Result{LabelLength: labelLength, Observed: chars},
			fmt.Errorf("%w: %s", ErrNoMatchingCategory, strings.Join(chars, ""))
	}

	return Result{
		Tag:         tag,
		LabelLength: labelLength,
		Observed:    chars,
	}, nil
}

// 관측 문자를 모두 포함하는 항목 중 남는 문자가 가장 적은 항목. 동률이면 먼저 선언된 항목
func closest(observed map[rune]struct{}) (Tag, bool) {
	var (
		best   Tag
		excess = -1
	)

	for _, e := range catalog {
		if !superset(e, observed) {
			continue
		}
		if diff := e.Size() - len(observed); excess < 0 || diff < excess {
			best = e.Tag
			excess = diff
		}
	}

	return best, excess >= 0
}

func superset(e Entry, observed map[rune]struct{}) bool {
	for r := range observed {
		if !e.Contains(r) {
			return false
		}
	}
	return true
}
