// Package network 학습 네트워크 구성 요소 목록과 CNN 출력 형태 테이블
package network

// CNN CNN 네트워크 종류
type CNN string

// Recurrent 순환 네트워크 종류
type Recurrent string

// Loss 손실 함수
type Loss string

// Optimizer 최적화 알고리즘
type Optimizer string

const (
	CNNX        CNN = "CNNX"
	CNN5        CNN = "CNN5"
	ResNetTiny  CNN = "ResNetTiny"
	ResNet50    CNN = "ResNet50"
	DenseNet    CNN = "DenseNet"
	MobileNetV2 CNN = "MobileNetV2"
)

const (
	NoRecurrent Recurrent = "NoRecurrent"
	LSTM        Recurrent = "LSTM"
	BiLSTM      Recurrent = "BiLSTM"
	GRU         Recurrent = "GRU"
	BiGRU       Recurrent = "BiGRU"
	LSTMcuDNN   Recurrent = "LSTMcuDNN"
	BiLSTMcuDNN Recurrent = "BiLSTMcuDNN"
	GRUcuDNN    Recurrent = "GRUcuDNN"
)

const (
	CTC          Loss = "CTC"
	CrossEntropy Loss = "CrossEntropy"
)

const (
	AdaBound Optimizer = "AdaBound"
	Adam     Optimizer = "Adam"
	Momentum Optimizer = "Momentum"
	SGD      Optimizer = "SGD"
	AdaGrad  Optimizer = "AdaGrad"
	RMSProp  Optimizer = "RMSProp"
)

// Shape CNN 출력의 다운샘플링 비율과 채널 배수
type Shape struct {
	Stride     int `json:"stride"`
	Multiplier int `json:"multiplier"`
}

var outputShapes = map[CNN]Shape{
	CNNX:        {Stride: 8, Multiplier: 64},
	CNN5:        {Stride: 16, Multiplier: 64},
	ResNetTiny:  {Stride: 16, Multiplier: 1024},
	ResNet50:    {Stride: 16, Multiplier: 1024},
	DenseNet:    {Stride: 8, Multiplier: 2048},
	MobileNetV2: {Stride: 16, Multiplier: 1280},
}

// OutputShape cnn 의 출력 형태 반환
func OutputShape(cnn CNN) (Shape, bool) {
	s, ok := outputShapes[cnn]
	return s, ok
}

// CNNs 선택 가능한 CNN 목록
func CNNs() []CNN {
	return []CNN{CNNX, CNN5, ResNetTiny, ResNet50, DenseNet, MobileNetV2}
}

// Recurrents 선택 가능한 순환 네트워크 목록
func Recurrents() []Recurrent {
	return []Recurrent{NoRecurrent, LSTM, BiLSTM, GRU, BiGRU, LSTMcuDNN, BiLSTMcuDNN, GRUcuDNN}
}

// Losses 선택 가능한 손실 함수 목록
func Losses() []Loss {
	return []Loss{CTC, CrossEntropy}
}

// Optimizers 선택 가능한 최적화 알고리즘 목록
func Optimizers() []Optimizer {
	return []Optimizer{AdaBound, Adam, Momentum, SGD, AdaGrad, RMSProp}
}

// Valid 목록에 있는 CNN 인지 확인
func (c CNN) Valid() bool {
	_, ok := outputShapes[c]
	return ok
}

// Valid 목록에 있는 순환 네트워크인지 확인
func (r Recurrent) Valid() bool {
	for _, v := range Recurrents() {
		if v == r {
			return true
		}
	}
	return false
}

// Valid 목록에 있는 손실 함수인지 확인
func (l Loss) Valid() bool {
	return l == CTC || l == CrossEntropy
}

// Valid 목록에 있는 최적화 알고리즘인지 확인
func (o Optimizer) Valid() bool {
	for _, v := range Optimizers() {
		if v == o {
			return true
		}
	}
	return false
}

// DefaultLoss 순환 네트워크가 없으면 CTC 대신 CrossEntropy 를 사용
func DefaultLoss(r Recurrent, current Loss) Loss {
	if r == NoRecurrent {
		return CrossEntropy
	}
	return current
}
