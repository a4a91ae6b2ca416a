package inference

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const typeFake = "fake"

type fakeBackend struct {
	mutex  sync.Mutex
	scores []float32
	err    error
	runs   int
	closed bool
}

func (b *fakeBackend) run(input *Tensor) ([]float32, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.runs++
	if b.err != nil {
		return nil, b.err
	}
	return b.scores, nil
}

func (b *fakeBackend) close() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.closed = true
}

var (
	fakeScores []float32
	fakeErr    error
	fakeOpened []*fakeBackend
)

func init() {
	backends[typeFake] = func(modelPath string, cfg modelConfig) (backend, error) {
		if fakeErr != nil {
			return nil, fakeErr
		}
		b := &fakeBackend{scores: fakeScores}
		fakeOpened = append(fakeOpened, b)
		return b, nil
	}
}

func resetFake(t *testing.T, scores []float32) {
	t.Helper()
	fakeScores = scores
	fakeErr = nil
	fakeOpened = nil
}

func writeModelConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))
}

func newModelDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeModelConfig(t, dir, "name: pests\ntype: fake\ndescription: test model\n")
	return dir
}

func solidImage(w, h int, c color.Color) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func scoresWithMax(n, idx int) []float32 {
	scores := make([]float32, n)
	for i := range scores {
		scores[i] = 0.01
	}
	scores[idx] = 0.9
	return scores
}

func TestPredictBeforeLoad(t *testing.T) {
	i := New(Config{ModelPath: newModelDir(t)})

	_, err := i.Predict(solidImage(4, 4, color.White))
	assert.ErrorIs(t, err, ErrModelNotLoaded)
	assert.Equal(t, "ready", i.Status())
	assert.False(t, i.Loaded())
}

func TestLoadAndPredict(t *testing.T) {
	resetFake(t, scoresWithMax(11, 3))

	i := New(Config{ModelPath: newModelDir(t), TopK: 3})
	require.NoError(t, i.Load())
	assert.Equal(t, "run", i.Status())
	assert.True(t, i.Loaded())

	p, err := i.Predict(solidImage(10, 10, color.Black))
	require.NoError(t, err)
	assert.Equal(t, "CitrusCanker", p.Label)
	assert.Equal(t, 3, p.Index)
	assert.InDelta(t, 0.9, p.Prob, 1e-6)
	require.Len(t, p.Top, 3)
	assert.Equal(t, "CitrusCanker", p.Top[0].Label)
	assert.Equal(t, "Armyworms", p.Top[1].Label)

	info := i.GetModel()
	assert.Equal(t, "pests", info.Name)
	assert.Equal(t, "fake", info.Type)
	assert.Equal(t, "test model", info.Description)
	assert.Equal(t, []int32{224, 224, 3}, info.InputShape)
	assert.Len(t, info.Labels, 11)
	assert.Empty(t, info.Error)
}

func TestPredictLabelOutOfRange(t *testing.T) {
	resetFake(t, scoresWithMax(12, 11))

	i := New(Config{ModelPath: newModelDir(t)})
	require.NoError(t, i.Load())

	_, err := i.Predict(solidImage(4, 4, color.White))
	assert.ErrorIs(t, err, ErrLabelOutOfRange)
}

func TestPredictBackendError(t *testing.T) {
	resetFake(t, nil)

	i := New(Config{ModelPath: newModelDir(t)})
	require.NoError(t, i.Load())
	fakeOpened[0].err = errors.New("boom")

	_, err := i.Predict(solidImage(4, 4, color.White))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrModelNotLoaded)
}

func TestLoadFailureDisablesPrediction(t *testing.T) {
	resetFake(t, scoresWithMax(11, 0))

	dir := t.TempDir()
	i := New(Config{ModelPath: dir})
	i.Start()

	assert.Eventually(t, func() bool {
		return i.Status() == "failed"
	}, time.Second, 5*time.Millisecond)

	// 모델 파일이 나중에 생겨도 자동으로 재시도하지 않음
	writeModelConfig(t, dir, "type: fake\n")
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, "failed", i.Status())
	assert.NotEmpty(t, i.GetModel().Error)
	_, err := i.Predict(solidImage(4, 4, color.White))
	assert.ErrorIs(t, err, ErrModelNotLoaded)

	require.NoError(t, i.Load())
	assert.Equal(t, "run", i.Status())
	assert.Empty(t, i.GetModel().Error)
}

func TestReloadFailureKeepsModel(t *testing.T) {
	resetFake(t, scoresWithMax(11, 10))

	dir := newModelDir(t)
	i := New(Config{ModelPath: dir})
	require.NoError(t, i.Load())

	writeModelConfig(t, dir, "type: [broken\n")
	assert.Error(t, i.Load())
	assert.Equal(t, "run", i.Status())
	assert.NotEmpty(t, i.GetModel().Error)

	p, err := i.Predict(solidImage(4, 4, color.White))
	require.NoError(t, err)
	assert.Equal(t, "Tomato_Hornworms", p.Label)
	assert.False(t, fakeOpened[0].closed)
}

func TestReloadClosesPreviousModel(t *testing.T) {
	resetFake(t, scoresWithMax(11, 1))

	i := New(Config{ModelPath: newModelDir(t)})
	require.NoError(t, i.Load())
	require.NoError(t, i.Load())

	require.Len(t, fakeOpened, 2)
	assert.True(t, fakeOpened[0].closed)
	assert.False(t, fakeOpened[1].closed)

	i.Destroy()
	assert.True(t, fakeOpened[1].closed)
	assert.False(t, i.Loaded())
}

func TestLoadBackendError(t *testing.T) {
	resetFake(t, nil)
	fakeErr = errors.New("cannot open")

	i := New(Config{ModelPath: newModelDir(t)})
	assert.Error(t, i.Load())
	assert.Equal(t, "failed", i.Status())
}

func TestReadModelConfig(t *testing.T) {
	dir := t.TempDir()

	writeModelConfig(t, dir, "type: tflite\n")
	cfg, err := readModelConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(dir), cfg.Name)
	assert.Equal(t, "model_unquant.tflite", cfg.File)
	assert.Equal(t, 4, cfg.Threads)

	writeModelConfig(t, dir, "type: savedmodel\ninputOperationName: serving_default_image\n")
	cfg, err = readModelConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"serve"}, cfg.Tags)
	assert.Equal(t, "serving_default_image", cfg.InputOperationName)
	assert.Equal(t, "StatefulPartitionedCall", cfg.OutputOperationName)

	writeModelConfig(t, dir, "type: keras\n")
	_, err = readModelConfig(dir)
	assert.Error(t, err)

	writeModelConfig(t, dir, "type: onnx\ninputShape: [299, 299, 3]\n")
	_, err = readModelConfig(dir)
	assert.Error(t, err)
}
