package session

import (
	"errors"
	"image"
	"log"
	"sync"
	"time"

	"github.com/harrison-roh/pest-image-classification/pestapp/inference"
)

// ErrNoImage 선택된 이미지가 없음
var ErrNoImage = errors.New("Image not selected")

// Predictor 이미지 추론기
type Predictor interface {
	Loaded() bool
	Predict(img image.Image) (*inference.Prediction, error)
}

// Session 사용자별 상태, 선택된 이미지와 마지막 추론 결과
type Session struct {
	ID string

	mutex      sync.Mutex
	image      string
	preview    string
	prediction *inference.Prediction
	lastSeen   time.Time
}

// State 세션 상태 스냅샷
type State struct {
	HasImage   bool                  `json:"hasImage"`
	Image      string                `json:"image,omitempty"`
	Preview    string                `json:"-"`
	Prediction *inference.Prediction `json:"prediction,omitempty"`
}

// SetImage 이미지를 교체, 이전 이미지는 남기지 않음
func (s *Session) SetImage(dataURL, preview string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.image = dataURL
	s.preview = preview
}

// Image 선택된 이미지의 data URL 반환
func (s *Session) Image() (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.image == "" {
		return "", ErrNoImage
	}
	return s.image, nil
}

// SetPrediction 추론 결과를 덮어씀
func (s *Session) SetPrediction(p *inference.Prediction) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.prediction = p
}

// State 현재 상태 반환
func (s *Session) State() State {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return State{
		HasImage:   s.image != "",
		Image:      s.image,
		Preview:    s.preview,
		Prediction: s.prediction,
	}
}

// Predict 선택된 이미지를 추론하고 결과를 저장
// 모델이나 이미지가 없으면 상태를 바꾸지 않고 에러 반환
func (s *Session) Predict(p Predictor) (*inference.Prediction, error) {
	if !p.Loaded() {
		log.Printf("Session %s: model not loaded", s.ID)
		return nil, inference.ErrModelNotLoaded
	}

	dataURL, err := s.Image()
	if err != nil {
		log.Printf("Session %s: image not selected", s.ID)
		return nil, err
	}

	img, err := DecodeImage(dataURL)
	if err != nil {
		return nil, err
	}

	pred, err := p.Predict(img)
	if err != nil {
		return nil, err
	}
	s.SetPrediction(pred)

	return pred, nil
}

func (s *Session) touch(now time.Time) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.lastSeen = now
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return now.Sub(s.lastSeen)
}
