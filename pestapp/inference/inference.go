package inference

import (
	"fmt"
	"image"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/harrison-roh/pest-image-classification/pestapp/constants"
)

// Config 이미지 추론 모델 설정정보
type Config struct {
	ModelPath string
	TopK      int
}

const (
	modelStatusReady = iota
	modelStatusLoading
	modelStatusRun
	modelStatusFailed
)

// Inference 해충 이미지 추론 모델 관리
// 모델은 한 번 로드되면 변경되지 않으며, 재로드 시 통째로 교체됨
type Inference struct {
	modelPath string
	labels    []string
	topK      int

	status    int32
	loadMutex sync.Mutex

	rwMutex sync.RWMutex
	model   *iModel
	loadErr error
}

// iModel 로드된 추론 모델
type iModel struct {
	cfg     modelConfig
	backend backend
}

// ModelInfo 추론 모델 정보
type ModelInfo struct {
	Status      string   `json:"status"`
	Path        string   `json:"path"`
	Name        string   `json:"name,omitempty"`
	Type        string   `json:"type,omitempty"`
	InputShape  []int32  `json:"inputShape,omitempty"`
	Labels      []string `json:"labels"`
	Description string   `json:"description,omitempty"`
	Error       string   `json:"error,omitempty"`
}

func loadModel(modelPath string) (*iModel, error) {
	cfg, err := readModelConfig(modelPath)
	if err != nil {
		return nil, err
	}

	open := backends[cfg.Type]
	b, err := open(modelPath, cfg)
	if err != nil {
		return nil, err
	}

	return &iModel{
		cfg:     cfg,
		backend: b,
	}, nil
}

// Start 백그라운드에서 모델을 한 번 로드
// 실패하면 로그만 남기고 재시도하지 않음
func (i *Inference) Start() {
	go func() {
		_ = i.Load()
	}()
}

// Load 모델을 (재)로드
// 재로드에 실패하면 기존 모델을 그대로 유지
func (i *Inference) Load() error {
	if !i.loadMutex.TryLock() {
		return ErrModelLoading
	}
	defer i.loadMutex.Unlock()

	prev := atomic.SwapInt32(&i.status, modelStatusLoading)

	m, err := loadModel(i.modelPath)
	if err != nil {
		log.Printf("Failed to load model(%s): %s", i.modelPath, err)

		i.rwMutex.Lock()
		i.loadErr = err
		i.rwMutex.Unlock()

		if prev == modelStatusRun {
			atomic.StoreInt32(&i.status, modelStatusRun)
		} else {
			atomic.StoreInt32(&i.status, modelStatusFailed)
		}
		return err
	}

	i.rwMutex.Lock()
	old := i.model
	i.model = m
	i.loadErr = nil
	i.rwMutex.Unlock()

	// 쓰기 lock을 잡았다 놓았으므로 이전 모델을 사용하는 추론은 없음
	if old != nil {
		old.backend.close()
	}

	// Setting status should always be last
	atomic.StoreInt32(&i.status, modelStatusRun)
	log.Printf("Model loaded successfully: %s (%s)", m.cfg.Name, m.cfg.Type)

	return nil
}

// Loaded 추론 가능한 모델이 있는지 여부
func (i *Inference) Loaded() bool {
	i.rwMutex.RLock()
	defer i.rwMutex.RUnlock()

	return i.model != nil
}

// Status 모델 상태 문자열 반환
func (i *Inference) Status() string {
	switch atomic.LoadInt32(&i.status) {
	case modelStatusReady:
		return "ready"
	case modelStatusLoading:
		return "loading"
	case modelStatusRun:
		return "run"
	case modelStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// GetModel 추론 모델 정보 반환
func (i *Inference) GetModel() ModelInfo {
	i.rwMutex.RLock()
	defer i.rwMutex.RUnlock()

	labels := make([]string, len(i.labels))
	copy(labels, i.labels)

	info := ModelInfo{
		Status: i.Status(),
		Path:   i.modelPath,
		Labels: labels,
	}

	if i.model != nil {
		info.Name = i.model.cfg.Name
		info.Type = i.model.cfg.Type
		info.InputShape = i.model.cfg.InputShape
		info.Description = i.model.cfg.Description
	}
	if i.loadErr != nil {
		info.Error = i.loadErr.Error()
	}

	return info
}

// Predict 이미지를 전처리 후 추론하여 라벨 반환
func (i *Inference) Predict(img image.Image) (*Prediction, error) {
	i.rwMutex.RLock()
	defer i.rwMutex.RUnlock()

	if i.model == nil {
		return nil, ErrModelNotLoaded
	}

	input := Preprocess(img)

	t0 := time.Now()
	scores, err := i.model.backend.run(input)
	if err != nil {
		return nil, fmt.Errorf("Inference failed: %w", err)
	}
	log.Printf("Prediction output(%s): %v", time.Since(t0), scores)

	p, err := classify(scores, i.labels, i.topK)
	if err != nil {
		return nil, err
	}
	log.Printf("Predicted class: %s", p.Label)

	return p, nil
}

// Destroy 추론 모델 해제
func (i *Inference) Destroy() {
	i.rwMutex.Lock()
	m := i.model
	i.model = nil
	i.rwMutex.Unlock()

	if m != nil {
		m.backend.close()
	}
	destroyONNXEnvironment()
}

// New 이미지 추론 모델 관리자 생성, 모델 로드는 Start 또는 Load로 수행
func New(c Config) *Inference {
	modelPath := c.ModelPath
	if modelPath == "" {
		modelPath = constants.DefaultModelPath
	}

	topK := c.TopK
	if topK <= 0 {
		topK = constants.DefaultTopK
	}

	return &Inference{
		modelPath: modelPath,
		labels:    constants.ClassLabels,
		topK:      topK,
		status:    modelStatusReady,
	}
}
