// Package project 프로젝트 학습 설정과 설정 저장소
package project

import (
	"fmt"
	"strings"

	"github.com/harrison-roh/image-classification-wizard/wizardapp/category"
	"github.com/harrison-roh/image-classification-wizard/wizardapp/constants"
	"github.com/harrison-roh/image-classification-wizard/wizardapp/dataset"
	"github.com/harrison-roh/image-classification-wizard/wizardapp/failure"
	"github.com/harrison-roh/image-classification-wizard/wizardapp/network"
	"github.com/harrison-roh/image-classification-wizard/wizardapp/shape"
)

// Size 이미지 크기. -1 은 미설정
type Size struct {
	W int `yaml:"w" json:"w"`
	H int `yaml:"h" json:"h"`
}

// Shape shape 패키지의 Size 로 변환
func (s Size) Shape() shape.Size {
	return shape.Size{W: s.W, H: s.H}
}

// System 실행 환경 설정
type System struct {
	MemoryUsage float64 `yaml:"memoryUsage" json:"memoryUsage"`
}

// NeuralNet 네트워크 구성
type NeuralNet struct {
	CNN          network.CNN       `yaml:"cnnNetwork" json:"cnnNetwork"`
	Recurrent    network.Recurrent `yaml:"recurrentNetwork" json:"recurrentNetwork"`
	UnitsNum     int               `yaml:"unitsNum" json:"unitsNum"`
	Loss         network.Loss      `yaml:"lossFunction" json:"lossFunction"`
	Optimizer    network.Optimizer `yaml:"optimizer" json:"optimizer"`
	LearningRate float64           `yaml:"learningRate" json:"learningRate"`
}

// Model 입력 이미지와 라벨 설정
type Model struct {
	Category       CategorySpec `yaml:"category" json:"category"`
	ImageSize      Size         `yaml:"imageSize" json:"imageSize"`
	Resize         Size         `yaml:"resize" json:"resize"`
	ImageChannel   int          `yaml:"imageChannel" json:"imageChannel"`
	MaxLabelNum    int          `yaml:"maxLabelNum" json:"maxLabelNum"`
	LabelDelimiter string       `yaml:"labelDelimiter" json:"labelDelimiter"`
}

// Trains 학습 종료 조건과 배치 설정
type Trains struct {
	EndAcc              float64 `yaml:"endAcc" json:"endAcc"`
	EndCost             float64 `yaml:"endCost" json:"endCost"`
	EndEpochs           int     `yaml:"endEpochs" json:"endEpochs"`
	BatchSize           int     `yaml:"batchSize" json:"batchSize"`
	ValidationBatchSize int     `yaml:"validationBatchSize" json:"validationBatchSize"`
	ValidationSetNum    int     `yaml:"validationSetNum" json:"validationSetNum"`
	SavedSteps          int     `yaml:"savedSteps" json:"savedSteps"`
	ValidationSteps     int     `yaml:"validationSteps" json:"validationSteps"`
}

// Augmentation 데이터 증강 설정. 정수/실수 항목의 -1 은 사용 안함
type Augmentation struct {
	Binaryzation     int     `yaml:"binaryzation" json:"binaryzation"`
	MedianBlur       int     `yaml:"medianBlur" json:"medianBlur"`
	GaussianBlur     int     `yaml:"gaussianBlur" json:"gaussianBlur"`
	EqualizeHist     bool    `yaml:"equalizeHist" json:"equalizeHist"`
	Laplace          bool    `yaml:"laplace" json:"laplace"`
	WarpPerspective  bool    `yaml:"warpPerspective" json:"warpPerspective"`
	Rotate           int     `yaml:"rotate" json:"rotate"`
	PepperNoise      float64 `yaml:"pepperNoise" json:"pepperNoise"`
	Brightness       bool    `yaml:"brightness" json:"brightness"`
	Saturation       bool    `yaml:"saturation" json:"saturation"`
	Hue              bool    `yaml:"hue" json:"hue"`
	Gamma            bool    `yaml:"gamma" json:"gamma"`
	ChannelSwap      bool    `yaml:"channelSwap" json:"channelSwap"`
	RandomBlank      int     `yaml:"randomBlank" json:"randomBlank"`
	RandomTransition int     `yaml:"randomTransition" json:"randomTransition"`
}

// Pretreatment 전처리 설정. 정수 항목의 -1 은 사용 안함
type Pretreatment struct {
	Binaryzation        int  `yaml:"binaryzation" json:"binaryzation"`
	ReplaceTransparent  bool `yaml:"replaceTransparent" json:"replaceTransparent"`
	HorizontalStitching bool `yaml:"horizontalStitching" json:"horizontalStitching"`
	ConcatFrames        int  `yaml:"concatFrames" json:"concatFrames"`
	BlendFrames         int  `yaml:"blendFrames" json:"blendFrames"`
}

// Config 프로젝트 설정 전체
type Config struct {
	Name             string           `yaml:"name" json:"name"`
	System           System           `yaml:"system" json:"system"`
	NeuralNet        NeuralNet        `yaml:"neuralNet" json:"neuralNet"`
	Model            Model            `yaml:"model" json:"model"`
	Trains           Trains           `yaml:"trains" json:"trains"`
	Datasets         dataset.Snapshot `yaml:"datasets" json:"datasets"`
	DataAugmentation Augmentation     `yaml:"dataAugmentation" json:"dataAugmentation"`
	Pretreatment     Pretreatment     `yaml:"pretreatment" json:"pretreatment"`
}

// Default 새 프로젝트의 기본 설정
func Default(name string) *Config {
	return &Config{
		Name:   name,
		System: System{MemoryUsage: 0.7},
		NeuralNet: NeuralNet{
			CNN:          network.CNNX,
			Recurrent:    network.LSTM,
			UnitsNum:     64,
			Loss:         network.CTC,
			Optimizer:    network.AdaBound,
			LearningRate: 0.001,
		},
		Model: Model{
			Category:       TagCategory(category.Numeric),
			ImageSize:      Size{W: -1, H: -1},
			Resize:         Size{W: 150, H: 50},
			ImageChannel:   1,
			MaxLabelNum:    1,
			LabelDelimiter: constants.DefaultLabelDelimiter,
		},
		Trains: Trains{
			EndAcc:              0.95,
			EndCost:             0.5,
			EndEpochs:           2,
			BatchSize:           64,
			ValidationBatchSize: 300,
			ValidationSetNum:    300,
			SavedSteps:          100,
			ValidationSteps:     500,
		},
		Datasets: dataset.New().Snapshot(),
		DataAugmentation: Augmentation{
			Binaryzation:     -1,
			MedianBlur:       -1,
			GaussianBlur:     -1,
			Rotate:           -1,
			PepperNoise:      -1,
			RandomBlank:      -1,
			RandomTransition: -1,
		},
		Pretreatment: Pretreatment{
			Binaryzation: -1,
			ConcatFrames: -1,
			BlendFrames:  -1,
		},
	}
}

// Validate 설정값의 불변 조건 검사
func (c *Config) Validate() error {
	if err := ValidateName(c.Name); err != nil {
		return err
	}

	if m := c.System.MemoryUsage; m <= 0 || m > 1 {
		return failure.Invalid("memoryUsage", "must be in (0, 1], got %v", m)
	}

	nn := c.NeuralNet
	if !nn.CNN.Valid() {
		return failure.Invalid("cnnNetwork", "unknown network %q", nn.CNN)
	}
	if !nn.Recurrent.Valid() {
		return failure.Invalid("recurrentNetwork", "unknown network %q", nn.Recurrent)
	}
	if nn.UnitsNum <= 0 {
		return failure.Invalid("unitsNum", "must be positive, got %d", nn.UnitsNum)
	}
	if !nn.Loss.Valid() {
		return failure.Invalid("lossFunction", "unknown loss %q", nn.Loss)
	}
	if !nn.Optimizer.Valid() {
		return failure.Invalid("optimizer", "unknown optimizer %q", nn.Optimizer)
	}
	if nn.LearningRate <= 0 {
		return failure.Invalid("learningRate", "must be positive, got %v", nn.LearningRate)
	}

	m := c.Model
	if err := m.Category.Validate(); err != nil {
		return &failure.ValidationError{Field: "category", Reason: err.Error(), Err: err}
	}
	if m.Resize.W <= 0 || m.Resize.H <= 0 {
		return failure.Invalid("resize", "dimensions must be positive, got [%d, %d]", m.Resize.W, m.Resize.H)
	}
	if !(m.ImageSize.W == -1 && m.ImageSize.H == -1) && (m.ImageSize.W <= 0 || m.ImageSize.H <= 0) {
		return failure.Invalid("imageSize", "must be [-1, -1] or positive, got [%d, %d]", m.ImageSize.W, m.ImageSize.H)
	}
	if m.ImageChannel != 1 && m.ImageChannel != 3 {
		return failure.Invalid("imageChannel", "must be 1 or 3, got %d", m.ImageChannel)
	}
	if m.MaxLabelNum <= 0 {
		return failure.Invalid("maxLabelNum", "must be positive, got %d", m.MaxLabelNum)
	}

	t := c.Trains
	if t.EndAcc <= 0 || t.EndAcc > 1 {
		return failure.Invalid("endAcc", "must be in (0, 1], got %v", t.EndAcc)
	}
	if t.EndCost < 0 {
		return failure.Invalid("endCost", "must not be negative, got %v", t.EndCost)
	}
	if t.EndEpochs < 0 {
		return failure.Invalid("endEpochs", "must not be negative, got %d", t.EndEpochs)
	}
	if t.BatchSize <= 0 {
		return failure.Invalid("batchSize", "must be positive, got %d", t.BatchSize)
	}
	if t.ValidationBatchSize <= 0 {
		return failure.Invalid("validationBatchSize", "must be positive, got %d", t.ValidationBatchSize)
	}
	if t.ValidationSetNum < 0 {
		return failure.Invalid("validationSetNum", "must not be negative, got %d", t.ValidationSetNum)
	}

	return nil
}

// EffectiveValidationBatchSize 변환된 검증 데이터셋이 하나 이하이면 검증 세트 크기로 제한
func (c *Config) EffectiveValidationBatchSize() int {
	size := c.Trains.ValidationBatchSize
	if len(c.Datasets.Packaged.Validation) > 1 {
		return size
	}
	if c.Trains.ValidationSetNum > 0 && c.Trains.ValidationSetNum < size {
		return c.Trains.ValidationSetNum
	}
	return size
}

// NameSuffix 네트워크 구성을 나타내는 프로젝트 이름 접미사
func (c *Config) NameSuffix() string {
	return fmt.Sprintf("-%s-%s-H%d-%s-C%d",
		c.NeuralNet.CNN,
		c.NeuralNet.Recurrent,
		c.NeuralNet.UnitsNum,
		c.NeuralNet.Loss,
		c.Model.ImageChannel,
	)
}

// DecorateName base 에 네트워크 구성 접미사를 붙인다. 이미 붙어 있으면 그대로 반환
func DecorateName(base string, c *Config) string {
	suffix := c.NameSuffix()
	if strings.HasSuffix(base, suffix) {
		return base
	}
	return base + suffix
}
