// Package shape CNN 출력 크기와 라벨 수의 나눗셈 조건 검사
package shape

import (
	"errors"
	"fmt"

	"github.com/harrison-roh/image-classification-wizard/wizardapp/failure"
	"github.com/harrison-roh/image-classification-wizard/wizardapp/network"
)

var (
	ErrDivisionByZero = errors.New("label count is zero")
	ErrShapeMismatch  = errors.New("shape mismatch")
)

// Size 이미지 크기
type Size struct {
	W int
	H int
}

// MismatchError 디코더 입력 크기가 라벨 수로 나누어지지 않음
type MismatchError struct {
	Total      int
	LabelCount int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("Shape[1] = %d must divide the label count = %d", e.Total, e.LabelCount)
}

func (e *MismatchError) Unwrap() error {
	return ErrShapeMismatch
}

// Total CNN 출력의 Shape[1] 계산
func Total(resize Size, stride, multiplier int) int {
	return ceilDiv(resize.W, stride) * ceilDiv(resize.H, stride) * multiplier
}

// Validate Shape[1] 이 labelCount 로 나누어지는지 검사
func Validate(resize Size, stride, multiplier, labelCount int) error {
	if labelCount == 0 {
		return ErrDivisionByZero
	}
	if stride <= 0 {
		return fmt.Errorf("Invalid stride: %d", stride)
	}

	total := Total(resize, stride, multiplier)
	if total%labelCount != 0 {
		return &MismatchError{Total: total, LabelCount: labelCount}
	}

	return nil
}

// ValidateNetwork cnn 의 출력 형태 테이블을 사용하여 검사
func ValidateNetwork(cnn network.CNN, resize Size, labelCount int) error {
	s, ok := network.OutputShape(cnn)
	if !ok {
		return failure.Invalid("cnn", "unknown network %q", cnn)
	}

	if err := Validate(resize, s.Stride, s.Multiplier, labelCount); err != nil {
		return &failure.ValidationError{Field: "maxLabelNum", Reason: err.Error(), Err: err}
	}

	return nil
}

func ceilDiv(a, b int) int {
	if a%b == 0 {
		return a / b
	}
	if (a < 0) != (b < 0) {
		return a / b
	}
	return a/b + 1
}
