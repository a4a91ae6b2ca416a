package inference

import (
	"fmt"
	"log"
	"path"
	"sync"

	"github.com/harrison-roh/pest-image-classification/pestapp/constants"
	ort "github.com/yalue/onnxruntime_go"
)

var (
	ortOnce sync.Once
	ortErr  error
)

// ONNX Runtime 환경은 프로세스 전역으로 한 번만 초기화
func initONNXEnvironment(sharedLibrary string) error {
	ortOnce.Do(func() {
		if sharedLibrary != "" {
			ort.SetSharedLibraryPath(sharedLibrary)
		}
		ortErr = ort.InitializeEnvironment()
	})

	return ortErr
}

func destroyONNXEnvironment() {
	if !ort.IsInitialized() {
		return
	}
	if err := ort.DestroyEnvironment(); err != nil {
		log.Printf("Fail to destroy ONNX environment: %s", err)
	}
}

// 입출력 텐서가 세션에 바인딩되어 있으므로 run을 직렬화
type onnxBackend struct {
	mutex   sync.Mutex
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

func openONNX(modelPath string, cfg modelConfig) (backend, error) {
	if err := initONNXEnvironment(cfg.SharedLibrary); err != nil {
		return nil, fmt.Errorf("Fail to initialize ONNX environment: %w", err)
	}

	outputShape := cfg.OutputShape
	if len(outputShape) == 0 {
		outputShape = []int64{1, int64(len(constants.ClassLabels))}
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(
		1,
		int64(constants.ImageHeight),
		int64(constants.ImageWidth),
		int64(constants.ImageChannels),
	))
	if err != nil {
		return nil, fmt.Errorf("Fail to create input tensor: %w", err)
	}

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(outputShape...))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("Fail to create output tensor: %w", err)
	}

	mFile := path.Join(modelPath, cfg.File)
	session, err := ort.NewAdvancedSession(mFile,
		[]string{cfg.InputOperationName}, []string{cfg.OutputOperationName},
		[]ort.ArbitraryTensor{input}, []ort.ArbitraryTensor{output},
		nil)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("Fail to create ONNX session: %w", err)
	}

	return &onnxBackend{
		session: session,
		input:   input,
		output:  output,
	}, nil
}

func (b *onnxBackend) run(input *Tensor) ([]float32, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	copy(b.input.GetData(), input.Data)

	if err := b.session.Run(); err != nil {
		return nil, fmt.Errorf("ONNX run failed: %w", err)
	}

	out := b.output.GetData()
	scores := make([]float32, len(out))
	copy(scores, out)

	return scores, nil
}

func (b *onnxBackend) close() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.session.Destroy()
	b.input.Destroy()
	b.output.Destroy()
}
