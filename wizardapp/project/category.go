package project

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/harrison-roh/image-classification-wizard/wizardapp/category"
)

// CategorySpec 카탈로그 태그 또는 명시적 문자 목록 중 하나
type CategorySpec struct {
	Tag   category.Tag
	Chars []string
}

// TagCategory 카탈로그 태그로 CategorySpec 생성
func TagCategory(tag category.Tag) CategorySpec {
	return CategorySpec{Tag: tag}
}

// CustomCategory 문자 목록으로 CategorySpec 생성
func CustomCategory(chars ...string) CategorySpec {
	if chars == nil {
		chars = []string{}
	}
	return CategorySpec{Chars: chars}
}

// IsCustom 명시적 문자 목록인지 확인
func (c CategorySpec) IsCustom() bool {
	return c.Chars != nil
}

// Validate 태그는 카탈로그에 있어야 하고, 목록은 비어있지 않고 중복이 없어야 한다
func (c CategorySpec) Validate() error {
	if !c.IsCustom() {
		if _, ok := category.Lookup(c.Tag); !ok {
			return fmt.Errorf("Unknown category: %q", c.Tag)
		}
		return nil
	}

	if len(c.Chars) == 0 {
		return errors.New("Customized category must not be empty")
	}

	seen := make(map[string]struct{}, len(c.Chars))
	for _, ch := range c.Chars {
		if ch == "" {
			return errors.New("Customized category contains an empty item")
		}
		if _, ok := seen[ch]; ok {
			return fmt.Errorf("Duplicated category item: %q", ch)
		}
		seen[ch] = struct{}{}
	}

	return nil
}

// Size 알파벳 크기
func (c CategorySpec) Size() int {
	if c.IsCustom() {
		return len(c.Chars)
	}
	if e, ok := category.Lookup(c.Tag); ok {
		return e.Size()
	}
	return 0
}

// MarshalYAML 태그는 문자열로, 목록은 시퀀스로 저장
func (c CategorySpec) MarshalYAML() (interface{}, error) {
	if c.IsCustom() {
		return c.Chars, nil
	}
	return string(c.Tag), nil
}

// UnmarshalYAML 문자열이면 태그, 시퀀스면 목록
func (c *CategorySpec) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var tag string
	if err := unmarshal(&tag); err == nil {
		*c = TagCategory(category.Tag(tag))
		return nil
	}

	var chars []string
	if err := unmarshal(&chars); err != nil {
		return fmt.Errorf("category must be a tag or a list of characters: %w", err)
	}
	*c = CustomCategory(chars...)

	return nil
}

// MarshalJSON API 응답에서도 같은 형태를 사용
func (c CategorySpec) MarshalJSON() ([]byte, error) {
	if c.IsCustom() {
		return json.Marshal(c.Chars)
	}
	return json.Marshal(string(c.Tag))
}

// UnmarshalJSON 문자열이면 태그, 배열이면 목록
func (c *CategorySpec) UnmarshalJSON(b []byte) error {
	var tag string
	if err := json.Unmarshal(b, &tag); err == nil {
		*c = TagCategory(category.Tag(tag))
		return nil
	}

	var chars []string
	if err := json.Unmarshal(b, &chars); err != nil {
		return fmt.Errorf("category must be a tag or a list of characters: %w", err)
	}
	*c = CustomCategory(chars...)

	return nil
}
