// Package wizard 프로젝트 설정, 데이터셋 목록, 백그라운드 작업을 묶어 관리하는 컨트롤러
//
// 활성 프로젝트와 그 데이터셋 목록은 하나의 mutex 로 보호된다. 작업은 제출 시점의
// 설정 사본을 받으므로 이후의 편집은 실행 중인 작업에 영향을 주지 않는다.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/harrison-roh/image-classification-wizard/wizardapp/constants"
	"github.com/harrison-roh/image-classification-wizard/wizardapp/dataset"
	"github.com/harrison-roh/image-classification-wizard/wizardapp/failure"
	"github.com/harrison-roh/image-classification-wizard/wizardapp/job"
	"github.com/harrison-roh/image-classification-wizard/wizardapp/network"
	"github.com/harrison-roh/image-classification-wizard/wizardapp/project"
	"github.com/harrison-roh/image-classification-wizard/wizardapp/sample"
	"github.com/harrison-roh/image-classification-wizard/wizardapp/shape"
)

// ErrNoProject 활성 프로젝트가 없음
var ErrNoProject = errors.New("no active project")

// Packager 원본 샘플을 학습 프레임워크의 데이터셋 형식으로 변환
type Packager interface {
	Package(ctx context.Context, cfg *project.Config, sources, outputs dataset.Paths) error
}

// Trainer 그래프 컴파일과 학습 수행
type Trainer interface {
	Compile(ctx context.Context, cfg *project.Config, graphPath string) error
	Train(ctx context.Context, cfg *project.Config, stop *job.StopFlag) error
}

// VerifyFunc 컴파일된 그래프 파일 검증
type VerifyFunc func(graphPath string) error

// Config Wizard 설정
type Config struct {
	Store        *project.Store
	Orchestrator *job.Orchestrator
	Packager     Packager
	Trainer      Trainer
	Verify       VerifyFunc
}

// Wizard 활성 프로젝트 컨트롤러
type Wizard struct {
	mutex sync.Mutex

	store    *project.Store
	orch     *job.Orchestrator
	packager Packager
	trainer  Trainer
	verify   VerifyFunc

	current  *project.Config
	registry *dataset.Registry
}

// AddResult 데이터셋 경로 추가 결과
type AddResult struct {
	Added     []string         `json:"added"`
	Sample    *sample.Info     `json:"sample,omitempty"`
	SampleErr string           `json:"sampleError,omitempty"`
	Datasets  dataset.Snapshot `json:"datasets"`
}

// New Wizard 생성
func New(cfg Config) (*Wizard, error) {
	if cfg.Store == nil {
		return nil, errors.New("Empty project store")
	}
	if cfg.Orchestrator == nil {
		cfg.Orchestrator = job.New(context.Background(), nil)
	}

	return &Wizard{
		store:    cfg.Store,
		orch:     cfg.Orchestrator,
		packager: cfg.Packager,
		trainer:  cfg.Trainer,
		verify:   cfg.Verify,
		registry: dataset.New(),
	}, nil
}

// Projects 저장된 프로젝트 목록
func (w *Wizard) Projects() ([]string, error) {
	return w.store.List()
}

// Open 프로젝트를 활성화. 없으면 기본 설정으로 생성하며, decorate 가 true 이면
// 네트워크 구성 접미사를 이름에 붙인다
func (w *Wizard) Open(name string, decorate bool) (*project.Config, bool, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if err := project.ValidateName(name); err != nil {
		return nil, false, err
	}

	if !w.store.Exists(name) {
		cfg := project.Default(name)
		if decorate {
			cfg.Name = project.DecorateName(name, cfg)
		}
		if w.store.Exists(cfg.Name) {
			if err := w.load(cfg.Name); err != nil {
				return nil, false, err
			}
			return w.snapshot(), false, nil
		}

		w.current = cfg
		w.initRegistry()
		if err := w.save(); err != nil {
			w.current = nil
			w.registry.Clear()
			return nil, false, err
		}
		log.Printf("Create project: %s", cfg.Name)

		return w.snapshot(), true, nil
	}

	if err := w.load(name); err != nil {
		return nil, false, err
	}

	return w.snapshot(), false, nil
}

// 새 프로젝트는 원본 목록 없이 첫 번째 변환 데이터셋 경로로 시작한다
func (w *Wizard) initRegistry() {
	w.registry.Clear()
	for _, mode := range dataset.Modes() {
		w.registry.Add(dataset.Packaged, mode, w.packagedPath(w.current.Name, mode))
	}
}

func (w *Wizard) packagedPath(name string, mode dataset.Mode) string {
	return filepath.Join(w.store.DatasetDir(name), w.registry.DerivePackagedName(mode))
}

func (w *Wizard) load(name string) error {
	cfg, err := w.store.Load(name)
	if err != nil {
		return err
	}

	w.current = cfg
	w.registry.Restore(cfg.Datasets)
	log.Printf("Load project: %s", name)

	return nil
}

// use name 프로젝트를 활성 프로젝트로 전환. mutex 를 잡은 상태에서 호출
func (w *Wizard) use(name string) error {
	if w.current != nil && w.current.Name == name {
		return nil
	}
	if err := project.ValidateName(name); err != nil {
		return err
	}
	return w.load(name)
}

func (w *Wizard) save() error {
	if w.current == nil {
		return failure.State("save", ErrNoProject)
	}
	w.current.Datasets = w.registry.Snapshot()
	return w.store.Save(w.current)
}

// snapshot 활성 프로젝트 설정의 사본
func (w *Wizard) snapshot() *project.Config {
	if w.current == nil {
		return nil
	}
	c := *w.current
	c.Datasets = w.registry.Snapshot()
	return &c
}

// Active 활성 프로젝트 이름
func (w *Wizard) Active() (string, bool) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.current == nil {
		return "", false
	}
	return w.current.Name, true
}

// Get 프로젝트 설정 반환
func (w *Wizard) Get(name string) (*project.Config, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if err := w.use(name); err != nil {
		return nil, err
	}
	return w.snapshot(), nil
}

// Update 설정 편집 내용을 저장. 데이터셋 목록은 Registry 의 내용을 유지한다
func (w *Wizard) Update(name string, edit *project.Config) (*project.Config, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if err := w.use(name); err != nil {
		return nil, err
	}

	updated := *edit
	updated.Name = name
	updated.Datasets = w.registry.Snapshot()
	updated.NeuralNet.Loss = network.DefaultLoss(updated.NeuralNet.Recurrent, updated.NeuralNet.Loss)
	if err := updated.Validate(); err != nil {
		return nil, err
	}

	prev := w.current
	w.current = &updated
	if err := w.save(); err != nil {
		w.current = prev
		return nil, err
	}

	return w.snapshot(), nil
}

// Datasets 데이터셋 목록
func (w *Wizard) Datasets(name string) (dataset.Snapshot, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if err := w.use(name); err != nil {
		return dataset.Snapshot{}, err
	}
	return w.registry.Snapshot(), nil
}

// AddDataset 데이터셋 경로 추가. 원본 경로는 첫 항목이 디렉토리이면 하위 디렉토리들을
// 각각 추가하고, 목록이 비어있었다면 첫 경로의 샘플로 카테고리와 이미지 크기를 설정한다
func (w *Wizard) AddDataset(name string, kind dataset.Kind, mode dataset.Mode, path string) (AddResult, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if err := w.use(name); err != nil {
		return AddResult{}, err
	}

	if kind == dataset.Packaged {
		if path == "" {
			return AddResult{}, failure.Invalid("path", "empty dataset path")
		}
		w.registry.Add(kind, mode, path)
		if err := w.save(); err != nil {
			return AddResult{}, err
		}
		return AddResult{Added: []string{path}, Datasets: w.registry.Snapshot()}, nil
	}

	paths, err := browse(path)
	if err != nil {
		return AddResult{}, err
	}

	var res AddResult
	if w.registry.Len(kind, mode) == 0 {
		if info, err := sample.Probe(paths[0], w.current.Model.LabelDelimiter); err != nil {
			log.Printf("Fail to probe sample %s: %s", paths[0], err)
			res.SampleErr = err.Error()
		} else {
			w.applySample(info)
			res.Sample = &info
		}
	}

	for _, p := range paths {
		w.registry.Add(kind, mode, p)
	}
	res.Added = paths

	if err := w.save(); err != nil {
		return AddResult{}, err
	}
	res.Datasets = w.registry.Snapshot()

	return res, nil
}

func (w *Wizard) applySample(info sample.Info) {
	m := &w.current.Model
	m.Category = project.TagCategory(info.Category)
	m.ImageSize = project.Size{W: info.Width, H: info.Height}
	m.Resize = project.Size{W: info.Width, H: info.Height}
	if info.LabelLength > 0 {
		m.MaxLabelNum = info.LabelLength
	}
}

// browse path 가 하위 디렉토리를 가지면 그 목록, 아니면 path 자신. 파일시스템 순서를 따른다
func browse(path string) ([]string, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, failure.Invalid("path", "cannot access %s: %s", path, err)
	}
	if !st.IsDir() {
		return nil, failure.Invalid("path", "%s is not a directory", path)
	}

	d, err := os.Open(path)
	if err != nil {
		return nil, failure.Invalid("path", "cannot read %s: %s", path, err)
	}
	defer d.Close()

	entries, err := d.ReadDir(-1)
	if err != nil {
		return nil, failure.Invalid("path", "cannot read %s: %s", path, err)
	}

	var subs []string
	for _, e := range entries {
		if !e.IsDir() {
			break
		}
		subs = append(subs, filepath.Join(path, e.Name()))
	}
	if len(subs) == 0 {
		return []string{path}, nil
	}

	return subs, nil
}

// RemoveDataset index 위치의 경로 삭제
func (w *Wizard) RemoveDataset(name string, kind dataset.Kind, mode dataset.Mode, index int) (dataset.Snapshot, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if err := w.use(name); err != nil {
		return dataset.Snapshot{}, err
	}

	if err := w.registry.RemoveAt(kind, mode, index); err != nil {
		return dataset.Snapshot{}, failure.State("remove dataset", err)
	}
	if err := w.save(); err != nil {
		return dataset.Snapshot{}, err
	}

	return w.registry.Snapshot(), nil
}

func (w *Wizard) checkIdle(op string) error {
	if w.orch.State() == job.Running {
		return failure.State(op, job.ErrBusy)
	}
	return nil
}

// DeleteProject 프로젝트와 디스크의 상태를 삭제
func (w *Wizard) DeleteProject(name string) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if err := w.checkIdle("delete " + name); err != nil {
		return err
	}
	if err := w.store.Delete(name); err != nil {
		return err
	}

	if w.current != nil && w.current.Name == name {
		w.current = nil
		w.registry.Clear()
	}
	log.Printf("Delete project: %s", name)

	return nil
}

// ResetHistory 학습 기록 삭제
func (w *Wizard) ResetHistory(name string) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if err := w.checkIdle("reset history of " + name); err != nil {
		return err
	}
	if err := w.use(name); err != nil {
		return err
	}

	return w.store.ResetHistory(name)
}

// ClearDataset 변환된 데이터셋 파일 삭제
func (w *Wizard) ClearDataset(name string) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if err := w.checkIdle("clear dataset of " + name); err != nil {
		return err
	}
	if err := w.use(name); err != nil {
		return err
	}
	if err := w.store.ClearDataset(name); err != nil {
		return err
	}

	// 첫 번째 변환 데이터셋 경로만 남긴다
	for _, mode := range dataset.Modes() {
		w.registry.Truncate(dataset.Packaged, mode, 1)
		if w.registry.Len(dataset.Packaged, mode) == 0 {
			w.registry.Add(dataset.Packaged, mode, w.packagedPath(name, mode))
		}
	}

	return w.save()
}

// MakeDataset 원본 샘플을 변환 데이터셋 경로로 변환하는 작업 시작
func (w *Wizard) MakeDataset(name string) (job.Job, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if err := w.checkIdle("make dataset"); err != nil {
		return job.Job{}, err
	}
	if err := w.use(name); err != nil {
		return job.Job{}, err
	}
	if w.packager == nil {
		return job.Job{}, failure.State("make dataset", errors.New("no packager"))
	}
	if err := w.save(); err != nil {
		return job.Job{}, err
	}

	if w.registry.Len(dataset.Source, dataset.Train) < 1 {
		return job.Job{}, failure.Invalid("datasets", "%s sample set has not been added", dataset.Train)
	}
	for _, mode := range dataset.Modes() {
		if w.registry.Len(dataset.Packaged, mode) == 0 {
			w.registry.Add(dataset.Packaged, mode, w.packagedPath(name, mode))
		}
	}
	if err := w.save(); err != nil {
		return job.Job{}, err
	}

	cfg := w.snapshot()
	sources := cfg.Datasets.Source
	outputs := cfg.Datasets.Packaged
	packager := w.packager

	return w.orch.Submit(job.Package, name, func(ctx context.Context, _ *job.StopFlag) error {
		return packager.Package(ctx, cfg, sources, outputs)
	}, w.callbacks())
}

// AttachDataset 기존 변환 데이터셋에 dir 의 샘플을 새 파일로 추가하는 작업 시작.
// 검증 세트 크기가 0 이면 검증용 파일은 만들지 않는다
func (w *Wizard) AttachDataset(name, dir string) (job.Job, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if err := w.checkIdle("attach dataset"); err != nil {
		return job.Job{}, err
	}
	if err := w.use(name); err != nil {
		return job.Job{}, err
	}
	if w.packager == nil {
		return job.Job{}, failure.State("attach dataset", errors.New("no packager"))
	}
	if dir == "" {
		return job.Job{}, failure.Invalid("path", "empty sample directory")
	}
	if err := w.checkDataset(); err != nil {
		return job.Job{}, err
	}

	var outputs dataset.Paths
	for _, mode := range dataset.Modes() {
		if mode == dataset.Validation && w.current.Trains.ValidationSetNum == 0 {
			continue
		}
		p := w.packagedPath(name, mode)
		w.registry.Add(dataset.Packaged, mode, p)
		if mode == dataset.Train {
			outputs.Train = append(outputs.Train, p)
		} else {
			outputs.Validation = append(outputs.Validation, p)
		}
	}
	if err := w.save(); err != nil {
		return job.Job{}, err
	}

	cfg := w.snapshot()
	sources := dataset.Paths{Train: []string{dir}}
	packager := w.packager

	return w.orch.Submit(job.Package, name, func(ctx context.Context, _ *job.StopFlag) error {
		return packager.Package(ctx, cfg, sources, outputs)
	}, w.callbacks())
}

// checkDataset 변환 데이터셋 경로가 정의되어 있고 모두 존재하는지 확인
func (w *Wizard) checkDataset() error {
	for _, mode := range dataset.Modes() {
		paths := w.registry.List(dataset.Packaged, mode)
		if len(paths) == 0 {
			return failure.Invalid("datasets", "%s set not defined", mode)
		}
		for _, p := range paths {
			if _, err := os.Stat(p); err != nil {
				return failure.Invalid("datasets", "%s set path %s does not exist, make dataset first", mode, p)
			}
		}
	}
	return nil
}

// Compile 학습 기록으로부터 그래프를 컴파일하는 작업 시작
func (w *Wizard) Compile(name string) (job.Job, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if err := w.checkIdle("compile"); err != nil {
		return job.Job{}, err
	}
	if err := w.use(name); err != nil {
		return job.Job{}, err
	}
	if w.trainer == nil {
		return job.Job{}, failure.State("compile", errors.New("no trainer"))
	}

	records, err := w.store.ModelRecords(name)
	if err != nil || records < constants.MinModelRecords {
		return job.Job{}, failure.Invalid("model", "no training record to compile for %s", name)
	}

	cfg := w.snapshot()
	graphPath := w.store.GraphPath(name)
	trainer := w.trainer
	verify := w.verify

	return w.orch.Submit(job.Compile, name, func(ctx context.Context, _ *job.StopFlag) error {
		if err := os.MkdirAll(filepath.Dir(graphPath), os.ModePerm); err != nil {
			return failure.Storage(graphPath, err)
		}
		if err := trainer.Compile(ctx, cfg, graphPath); err != nil {
			return err
		}
		if verify != nil {
			if err := verify(graphPath); err != nil {
				return fmt.Errorf("Invalid compiled graph: %w", err)
			}
		}
		return nil
	}, w.callbacks())
}

// StartTraining 학습 작업 시작. 네트워크 출력 크기와 라벨 수, 데이터셋 존재 여부를
// 먼저 확인한다
func (w *Wizard) StartTraining(name string) (job.Job, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if err := w.checkIdle("train"); err != nil {
		return job.Job{}, err
	}
	if err := w.use(name); err != nil {
		return job.Job{}, err
	}
	if w.trainer == nil {
		return job.Job{}, failure.State("train", errors.New("no trainer"))
	}

	m := w.current.Model
	if err := shape.ValidateNetwork(w.current.NeuralNet.CNN, m.Resize.Shape(), m.MaxLabelNum); err != nil {
		return job.Job{}, err
	}
	if err := w.save(); err != nil {
		return job.Job{}, err
	}
	if err := w.checkDataset(); err != nil {
		return job.Job{}, err
	}

	cfg := w.snapshot()
	trainer := w.trainer

	return w.orch.Submit(job.Train, name, func(ctx context.Context, stop *job.StopFlag) error {
		return trainer.Train(ctx, cfg, stop)
	}, w.callbacks())
}

// StopTraining 실행 중인 학습에 중지 요청
func (w *Wizard) StopTraining() bool {
	return w.orch.RequestStop()
}

// Jobs 실행 중인 작업과 마지막으로 종료된 작업
func (w *Wizard) Jobs() (current *job.Job, last *job.Job) {
	if j, ok := w.orch.Current(); ok {
		current = &j
	}
	if j, ok := w.orch.Last(); ok {
		last = &j
	}
	return current, last
}

func (w *Wizard) callbacks() job.Callbacks {
	return job.Callbacks{
		OnSuccess: func(j job.Job) {
			log.Printf("%s of %s finished in %s", j.Kind, j.Project, j.Elapsed())
		},
		OnFailure: func(j job.Job, err error) {
			log.Printf("%s of %s failed: %s", j.Kind, j.Project, err)
		},
	}
}
