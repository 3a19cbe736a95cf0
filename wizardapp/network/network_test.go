package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutputShape(t *testing.T) {
	for _, cnn := range CNNs() {
		s, ok := OutputShape(cnn)
		assert.True(t, ok, cnn)
		assert.Positive(t, s.Stride)
		assert.Positive(t, s.Multiplier)
	}

	s, _ := OutputShape(CNNX)
	assert.Equal(t, Shape{Stride: 8, Multiplier: 64}, s)

	_, ok := OutputShape("VGG")
	assert.False(t, ok)
}

func TestValid(t *testing.T) {
	assert.True(t, CNN5.Valid())
	assert.False(t, CNN("cnn5").Valid())
	assert.True(t, BiGRU.Valid())
	assert.False(t, Recurrent("RNN").Valid())
	assert.True(t, CTC.Valid())
	assert.False(t, Loss("MSE").Valid())
	assert.True(t, RMSProp.Valid())
	assert.False(t, Optimizer("Lion").Valid())
}

func TestDefaultLoss(t *testing.T) {
	assert.Equal(t, CrossEntropy, DefaultLoss(NoRecurrent, CTC))
	assert.Equal(t, CTC, DefaultLoss(LSTM, CTC))
}
