package inference

import (
	"testing"

	"github.com/mattn/go-tflite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetInputFloat32(t *testing.T) {
	data := []float32{0, 0.5, 1}
	dst := make([]float32, 3)

	require.NoError(t, setInput(tflite.Float32, dst, nil, data))
	assert.Equal(t, data, dst)
}

func TestSetInputUInt8(t *testing.T) {
	// Preprocess 결과 v/255를 원래 픽셀값으로 복원
	data := []float32{0, 1.0 / 255, 127.0 / 255, 128.0 / 255, 254.0 / 255, 1}
	dst := make([]uint8, len(data))

	require.NoError(t, setInput(tflite.UInt8, nil, dst, data))
	assert.Equal(t, []uint8{0, 1, 127, 128, 254, 255}, dst)
}

func TestSetInputUnsupported(t *testing.T) {
	assert.Error(t, setInput(tflite.Int32, nil, nil, []float32{1}))
}

func TestGetScores(t *testing.T) {
	f32 := []float32{0.1, 0.7, 0.2}
	scores, err := getScores(tflite.Float32, f32, nil)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.7, 0.2}, scores)

	// 반환값은 출력 텐서 버퍼와 분리
	f32[0] = 9
	assert.Equal(t, float32(0.1), scores[0])

	scores, err = getScores(tflite.UInt8, nil, []uint8{0, 51, 255})
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0.2, 1}, scores)
	assert.Equal(t, 2, Argmax(scores))

	_, err = getScores(tflite.Int32, nil, nil)
	assert.Error(t, err)
}
