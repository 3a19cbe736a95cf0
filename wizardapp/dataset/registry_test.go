package dataset

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddListOrder(t *testing.T) {
	r := New()
	r.Add(Source, Train, "/data/b")
	r.Add(Source, Train, "/data/a")
	r.Add(Source, Train, "/data/b")

	assert.Equal(t, []string{"/data/b", "/data/a", "/data/b"}, r.List(Source, Train))
	assert.Empty(t, r.List(Source, Validation))
	assert.Empty(t, r.List(Packaged, Train))
}

func TestListReturnsCopy(t *testing.T) {
	r := New()
	r.Add(Source, Train, "/data/a")

	list := r.List(Source, Train)
	list[0] = "changed"
	assert.Equal(t, []string{"/data/a"}, r.List(Source, Train))
}

func TestRemoveAt(t *testing.T) {
	r := New()
	r.Add(Packaged, Validation, "v0")
	r.Add(Packaged, Validation, "v1")
	r.Add(Packaged, Validation, "v2")

	require.NoError(t, r.RemoveAt(Packaged, Validation, 1))
	assert.Equal(t, []string{"v0", "v2"}, r.List(Packaged, Validation))

	for _, index := range []int{2, 5, -1} {
		err := r.RemoveAt(Packaged, Validation, index)
		assert.True(t, errors.Is(err, ErrIndexOutOfRange), index)
		assert.Equal(t, []string{"v0", "v2"}, r.List(Packaged, Validation))
	}

	err := r.RemoveAt(Source, Train, 0)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
}

func TestDerivePackagedName(t *testing.T) {
	r := New()
	assert.Equal(t, "train.0.tfrecords", r.DerivePackagedName(Train))

	r.Add(Packaged, Train, "train.0.tfrecords")
	assert.Equal(t, "train.1.tfrecords", r.DerivePackagedName(Train))
	assert.Equal(t, "validation.0.tfrecords", r.DerivePackagedName(Validation))

	// Source 목록은 영향을 주지 않는다
	r.Add(Source, Validation, "/data/v")
	assert.Equal(t, "validation.0.tfrecords", r.DerivePackagedName(Validation))
}

func TestClear(t *testing.T) {
	r := New()
	for _, kind := range Kinds() {
		for _, mode := range Modes() {
			r.Add(kind, mode, "x")
		}
	}

	r.Clear()
	for _, kind := range Kinds() {
		for _, mode := range Modes() {
			assert.Zero(t, r.Len(kind, mode))
		}
	}
}

func TestSnapshotRestore(t *testing.T) {
	r := New()
	r.Add(Source, Train, "/src/t")
	r.Add(Source, Validation, "/src/v")
	r.Add(Packaged, Train, "/pkg/train.0.tfrecords")
	r.Add(Packaged, Train, "/pkg/train.1.tfrecords")

	s := r.Snapshot()
	assert.Equal(t, []string{"/pkg/train.0.tfrecords", "/pkg/train.1.tfrecords"}, s.Get(Packaged, Train))
	assert.Equal(t, []string{"/src/v"}, s.Get(Source, Validation))

	other := New()
	other.Add(Packaged, Validation, "stale")
	other.Restore(s)
	assert.Equal(t, s, other.Snapshot())
	assert.Zero(t, other.Len(Packaged, Validation))
}

func TestTruncate(t *testing.T) {
	r := New()
	for _, p := range []string{"train.0.tfrecords", "train.1.tfrecords", "train.2.tfrecords"} {
		r.Add(Packaged, Train, p)
	}
	r.Add(Packaged, Validation, "validation.0.tfrecords")

	r.Truncate(Packaged, Train, 1)
	assert.Equal(t, []string{"train.0.tfrecords"}, r.List(Packaged, Train))
	assert.Equal(t, "train.1.tfrecords", r.DerivePackagedName(Train))

	r.Truncate(Packaged, Validation, 5)
	assert.Equal(t, []string{"validation.0.tfrecords"}, r.List(Packaged, Validation))

	r.Truncate(Packaged, Validation, -1)
	assert.Zero(t, r.Len(Packaged, Validation))
}

func TestParse(t *testing.T) {
	kind, err := ParseKind("packaged")
	require.NoError(t, err)
	assert.Equal(t, Packaged, kind)

	_, err = ParseKind("raw")
	assert.Error(t, err)

	mode, err := ParseMode("validation")
	require.NoError(t, err)
	assert.Equal(t, Validation, mode)

	_, err = ParseMode("test")
	assert.Error(t, err)
}
