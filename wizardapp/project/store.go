package project

import (
	"errors"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/harrison-roh/image-classification-wizard/wizardapp/constants"
	"github.com/harrison-roh/image-classification-wizard/wizardapp/failure"
	"gopkg.in/yaml.v2"
)

var ErrNotFound = errors.New("project not found")

// ParseError 저장된 설정을 해석할 수 없음. 부분 복구하지 않는다
type ParseError struct {
	Name string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("Fail to parse config of %s: %s", e.Name, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Store 프로젝트 설정 저장소. <Root>/<name>/model.yaml
type Store struct {
	Root string
}

// NewStore root 디렉토리를 생성하고 Store 반환
func NewStore(root string) (*Store, error) {
	if root == "" {
		root = constants.ProjectsPath
	}
	if err := os.MkdirAll(root, os.ModePerm); err != nil {
		return nil, err
	}

	return &Store{Root: root}, nil
}

// ValidateName 디렉토리 이름으로 사용할 수 있는 프로젝트 이름인지 확인
func ValidateName(name string) error {
	if name == "" {
		return failure.Invalid("name", "project name is empty")
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\:*?"<>|`) {
		return failure.Invalid("name", "%q is not a directory-safe name", name)
	}
	if strings.TrimSpace(name) != name {
		return failure.Invalid("name", "%q has leading or trailing spaces", name)
	}
	return nil
}

// Path 프로젝트 디렉토리
func (s *Store) Path(name string) string {
	return path.Join(s.Root, name)
}

// ConfigPath 설정 파일 경로
func (s *Store) ConfigPath(name string) string {
	return path.Join(s.Root, name, constants.ConfigFile)
}

// DatasetDir 변환 데이터셋 디렉토리
func (s *Store) DatasetDir(name string) string {
	return path.Join(s.Root, name, constants.DatasetDir)
}

// ModelDir 학습 기록 디렉토리
func (s *Store) ModelDir(name string) string {
	return path.Join(s.Root, name, constants.ModelDir)
}

// GraphPath 컴파일된 그래프 파일 경로
func (s *Store) GraphPath(name string) string {
	return path.Join(s.Root, name, constants.GraphDir, fmt.Sprintf("%s.%s", name, constants.GraphExt))
}

// Save 설정 전체를 덮어쓴다
func (s *Store) Save(c *Config) error {
	if err := ValidateName(c.Name); err != nil {
		return err
	}

	dir := s.Path(c.Name)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return err
	}

	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("Fail to encode config of %s: %w", c.Name, err)
	}

	tmp, err := ioutil.TempFile(dir, constants.ConfigFile+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), s.ConfigPath(c.Name))
}

// Load 저장된 설정 읽기
func (s *Store) Load(name string) (*Config, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	b, err := ioutil.ReadFile(s.ConfigPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, failure.State("load "+name, ErrNotFound)
		}
		return nil, err
	}

	var c Config
	if err := yaml.UnmarshalStrict(b, &c); err != nil {
		return nil, &ParseError{Name: name, Err: err}
	}
	if c.Name != name {
		return nil, &ParseError{Name: name, Err: fmt.Errorf("Not matched project name[%s] in configuration[%s]", name, c.Name)}
	}
	if err := c.Validate(); err != nil {
		return nil, &ParseError{Name: name, Err: err}
	}

	return &c, nil
}

// Exists 설정이 저장되어 있는지 확인
func (s *Store) Exists(name string) bool {
	if ValidateName(name) != nil {
		return false
	}
	_, err := os.Stat(s.ConfigPath(name))
	return err == nil
}

// List 프로젝트 이름 목록
func (s *Store) List() ([]string, error) {
	dirs, err := ioutil.ReadDir(s.Root)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		if dir.IsDir() {
			names = append(names, dir.Name())
		}
	}
	sort.Strings(names)

	return names, nil
}

// Delete 프로젝트 디렉토리 전체 삭제
func (s *Store) Delete(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if _, err := os.Stat(s.Path(name)); os.IsNotExist(err) {
		return failure.State("delete "+name, ErrNotFound)
	}

	return removeAll(s.Path(name))
}

// ResetHistory 학습 기록 삭제
func (s *Store) ResetHistory(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	return removeAll(s.ModelDir(name))
}

// ClearDataset 변환 데이터셋 삭제
func (s *Store) ClearDataset(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	return removeAll(s.DatasetDir(name))
}

// ModelRecords 학습 기록 디렉토리의 항목 수
func (s *Store) ModelRecords(name string) (int, error) {
	entries, err := ioutil.ReadDir(s.ModelDir(name))
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

func removeAll(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		log.Printf("Fail to remove %s: %s", dir, err)
		return failure.Storage(filepath.Clean(dir), err)
	}
	return nil
}
