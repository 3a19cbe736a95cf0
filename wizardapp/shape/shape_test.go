package shape

import (
	"errors"
	"testing"

	"github.com/harrison-roh/image-classification-wizard/wizardapp/failure"
	"github.com/harrison-roh/image-classification-wizard/wizardapp/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	resize := Size{W: 150, H: 50}

	assert.Equal(t, 19*7*64, Total(resize, 8, 64))
	assert.NoError(t, Validate(resize, 8, 64, 4))

	err := Validate(resize, 8, 64, 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrShapeMismatch))

	var mismatch *MismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, 8512, mismatch.Total)
	assert.Equal(t, 5, mismatch.LabelCount)
}

func TestValidateDivisionByZero(t *testing.T) {
	err := Validate(Size{W: 150, H: 50}, 8, 64, 0)
	assert.True(t, errors.Is(err, ErrDivisionByZero))
}

func TestValidateExactDivision(t *testing.T) {
	// 160/16=10, 64/16=4 올림 없음
	assert.Equal(t, 10*4*64, Total(Size{W: 160, H: 64}, 16, 64))
}

func TestValidateNetwork(t *testing.T) {
	assert.NoError(t, ValidateNetwork(network.CNNX, Size{W: 150, H: 50}, 4))

	err := ValidateNetwork(network.CNNX, Size{W: 150, H: 50}, 5)
	assert.True(t, failure.IsValidation(err))
	assert.True(t, errors.Is(err, ErrShapeMismatch))

	err = ValidateNetwork("VGG", Size{W: 150, H: 50}, 4)
	assert.True(t, failure.IsValidation(err))
}
