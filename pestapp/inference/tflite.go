package inference

import (
	"errors"
	"fmt"
	"path"
	"sync"

	"github.com/harrison-roh/pest-image-classification/pestapp/constants"
	"github.com/mattn/go-tflite"
)

// Interpreter는 동시 호출을 지원하지 않으므로 run을 직렬화
type tfliteBackend struct {
	mutex  sync.Mutex
	model  *tflite.Model
	interp *tflite.Interpreter
}

func openTFLite(modelPath string, cfg modelConfig) (backend, error) {
	mFile := path.Join(modelPath, cfg.File)

	model := tflite.NewModelFromFile(mFile)
	if model == nil {
		return nil, fmt.Errorf("Cannot load model: %s", mFile)
	}

	options := tflite.NewInterpreterOptions()
	defer options.Delete()
	options.SetNumThread(cfg.Threads)

	interp := tflite.NewInterpreter(model, options)
	if interp == nil {
		model.Delete()
		return nil, errors.New("Cannot create interpreter")
	}

	if status := interp.AllocateTensors(); status != tflite.OK {
		interp.Delete()
		model.Delete()
		return nil, fmt.Errorf("Allocate failed: %v", status)
	}

	input := interp.GetInputTensor(0)
	if input.NumDims() != 4 ||
		input.Dim(1) != constants.ImageHeight ||
		input.Dim(2) != constants.ImageWidth ||
		input.Dim(3) != constants.ImageChannels {
		shape := getTensorShape(input)
		interp.Delete()
		model.Delete()
		return nil, fmt.Errorf("Unsupported input shape: %v", shape)
	}

	return &tfliteBackend{
		model:  model,
		interp: interp,
	}, nil
}

func getTensorShape(tensor *tflite.Tensor) []int {
	shape := []int{}
	for idx := 0; idx < tensor.NumDims(); idx++ {
		shape = append(shape, tensor.Dim(idx))
	}
	return shape
}

func (b *tfliteBackend) run(input *Tensor) ([]float32, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	in := b.interp.GetInputTensor(0)
	if err := setInput(in.Type(), in.Float32s(), in.UInt8s(), input.Data); err != nil {
		return nil, err
	}

	if status := b.interp.Invoke(); status != tflite.OK {
		return nil, fmt.Errorf("Invoke failed: %v", status)
	}

	output := b.interp.GetOutputTensor(0)
	scores, err := getScores(output.Type(), output.Float32s(), output.UInt8s())
	if err != nil {
		return nil, err
	}

	return scores, nil
}

// setInput 입력 텐서 타입에 맞춰 값을 기록
// 양자화 모델은 [0, 255] 원래 픽셀값을 입력으로 사용
func setInput(typ tflite.TensorType, f32 []float32, u8 []uint8, data []float32) error {
	switch typ {
	case tflite.Float32:
		copy(f32, data)
	case tflite.UInt8:
		for i, v := range data {
			u8[i] = uint8(v*255 + 0.5)
		}
	default:
		return fmt.Errorf("Unsupported input type: %v", typ)
	}

	return nil
}

// getScores 출력 텐서를 [0, 1] 범위의 점수로 변환
func getScores(typ tflite.TensorType, f32 []float32, u8 []uint8) ([]float32, error) {
	switch typ {
	case tflite.Float32:
		scores := make([]float32, len(f32))
		copy(scores, f32)
		return scores, nil
	case tflite.UInt8:
		scores := make([]float32, len(u8))
		for i, v := range u8 {
			scores[i] = float32(v) / 255
		}
		return scores, nil
	default:
		return nil, fmt.Errorf("Unsupported output type: %v", typ)
	}
}

func (b *tfliteBackend) close() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.interp.Delete()
	b.model.Delete()
}
