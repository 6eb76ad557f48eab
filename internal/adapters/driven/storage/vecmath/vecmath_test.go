package vecmath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	vec := []float32{0, 1.5, -2.25, 3e-7}

	blob := Encode(vec)
	assert.Len(t, blob, 16)

	got, err := Decode(blob)
	require.NoError(t, err)
	assert.Equal(t, vec, got)
}

func TestEncodeDecode_Empty(t *testing.T) {
	assert.Nil(t, Encode(nil))

	got, err := Decode(nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDecode_BadLength(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not multiple of 4")
}

func TestSquaredL2(t *testing.T) {
	assert.InDelta(t, 25.0, SquaredL2([]float32{0, 0}, []float32{3, 4}), 1e-4)
	assert.InDelta(t, 0.0, SquaredL2([]float32{1, 2}, []float32{1, 2}), 1e-9)
}

func TestIsZero(t *testing.T) {
	assert.True(t, IsZero(make([]float32, 4)))
	assert.True(t, IsZero(nil))
	assert.False(t, IsZero([]float32{0, 0.1}))
}

func TestNearest(t *testing.T) {
	centroids := [][]float32{{0, 0}, {10, 10}, {-10, 5}}

	assert.Equal(t, 1, Nearest(centroids, []float32{9, 8}))
	assert.Equal(t, 0, Nearest(centroids, []float32{1, -1}))
	assert.Equal(t, -1, Nearest(nil, []float32{1, 1}))
	assert.Equal(t, []int{2, 0}, NearestN(centroids, []float32{-6, 3}, 2))
	assert.Len(t, NearestN(centroids, []float32{0, 0}, 10), 3)
}

func TestTrainKMeans_SeparatesClusters(t *testing.T) {
	var vectors [][]float32
	for i := 0; i < 20; i++ {
		d := float32(i%5) * 0.01
		vectors = append(vectors, []float32{d, d}, []float32{100 + d, 100 - d})
	}

	centroids, err := TrainKMeans(vectors, 2, 0, 42)
	require.NoError(t, err)
	require.Len(t, centroids, 2)

	low := Nearest(centroids, []float32{0, 0})
	high := Nearest(centroids, []float32{100, 100})
	assert.NotEqual(t, low, high)
	assert.InDelta(t, 0.02, centroids[low][0], 0.05)
	assert.InDelta(t, 100.02, centroids[high][0], 0.05)
}

func TestTrainKMeans_Deterministic(t *testing.T) {
	vectors := [][]float32{{1, 0}, {0, 1}, {5, 5}, {6, 5}, {9, 0}, {0, 9}}

	a, err := TrainKMeans(vectors, 3, 10, 7)
	require.NoError(t, err)
	b, err := TrainKMeans(vectors, 3, 10, 7)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestTrainKMeans_TooFew(t *testing.T) {
	_, err := TrainKMeans([][]float32{{1}}, 2, 0, 1)
	assert.ErrorIs(t, err, ErrTooFewVectors)

	_, err = TrainKMeans(nil, 0, 0, 1)
	assert.ErrorIs(t, err, ErrTooFewVectors)
}
