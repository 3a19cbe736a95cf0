package category

import "sort"

// Tag 카탈로그에 등록된 알파벳 이름
type Tag string

const (
	Numeric           Tag = "NUMERIC"
	Alphanumeric      Tag = "ALPHANUMERIC"
	AlphanumericLower Tag = "ALPHANUMERIC_LOWER"
	AlphanumericUpper Tag = "ALPHANUMERIC_UPPER"
	AlphabetLower     Tag = "ALPHABET_LOWER"
	AlphabetUpper     Tag = "ALPHABET_UPPER"
	Alphabet          Tag = "ALPHABET"
	Arithmetic        Tag = "ARITHMETIC"
	Float             Tag = "FLOAT"

	// Customized 명시적 문자 목록을 뜻하는 UI 용 태그. 카탈로그 항목이 아니다
	Customized Tag = "CUSTOMIZED"
)

const (
	digits     = "0123456789"
	lowerAlpha = "abcdefghijklmnopqrstuvwxyz"
	upperAlpha = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	operators  = "+-×÷()="
)

// Entry 카탈로그 항목
type Entry struct {
	Tag   Tag
	chars map[rune]struct{}
}

// Size 알파벳의 문자 수
func (e Entry) Size() int {
	return len(e.chars)
}

// Contains r 이 알파벳에 포함되는지 확인
func (e Entry) Contains(r rune) bool {
	_, ok := e.chars[r]
	return ok
}

// Chars 정렬된 문자 목록
func (e Entry) Chars() []string {
	chars := make([]string, 0, len(e.chars))
	for r := range e.chars {
		chars = append(chars, string(r))
	}
	sort.Strings(chars)
	return chars
}

func newEntry(tag Tag, sets ...string) Entry {
	chars := make(map[rune]struct{})
	for _, set := range sets {
		for _, r := range set {
			chars[r] = struct{}{}
		}
	}
	return Entry{Tag: tag, chars: chars}
}

// 선언 순서가 추론 시 동률 처리 순서
var catalog = []Entry{
	newEntry(Numeric, digits),
	newEntry(Alphanumeric, digits, lowerAlpha, upperAlpha),
	newEntry(AlphanumericLower, digits, lowerAlpha),
	newEntry(AlphanumericUpper, digits, upperAlpha),
	newEntry(AlphabetLower, lowerAlpha),
	newEntry(AlphabetUpper, upperAlpha),
	newEntry(Alphabet, lowerAlpha, upperAlpha),
	newEntry(Arithmetic, digits, operators),
	newEntry(Float, digits, "."),
}

// Lookup tag 에 해당하는 카탈로그 항목 반환
func Lookup(tag Tag) (Entry, bool) {
	for _, e := range catalog {
		if e.Tag == tag {
			return e, true
		}
	}
	return Entry{}, false
}

// Tags 선언 순서의 카탈로그 태그 목록
func Tags() []Tag {
	tags := make([]Tag, len(catalog))
	for i, e := range catalog {
		tags[i] = e.Tag
	}
	return tags
}

// Catalog 선언 순서의 카탈로그 항목 목록
func Catalog() []Entry {
	entries := make([]Entry, len(catalog))
	copy(entries, catalog)
	return entries
}
