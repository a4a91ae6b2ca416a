package inference

import (
	"errors"
	"fmt"
	"log"
	"sort"
)

var (
	// ErrModelNotLoaded 추론 모델이 아직 로드되지 않았거나 로드에 실패함
	ErrModelNotLoaded = errors.New("Model not loaded")
	// ErrModelLoading 모델 로드가 이미 진행 중
	ErrModelLoading = errors.New("Model is currently loading")
	// ErrLabelOutOfRange 모델 출력 인덱스가 라벨 목록 범위를 벗어남
	ErrLabelOutOfRange = errors.New("Predicted index out of label range")
)

// InferLabel 이미지 추론 항목
type InferLabel struct {
	Index int     `json:"index"`
	Prob  float32 `json:"probability"`
	Label string  `json:"label"`
}

// Prediction 이미지 추론 결과
type Prediction struct {
	Label string       `json:"label"`
	Index int          `json:"index"`
	Prob  float32      `json:"probability"`
	Top   []InferLabel `json:"top"`
}

// Argmax 최대값의 인덱스 반환, 같은 값이 여러 개면 가장 앞의 인덱스
// 빈 벡터는 -1
func Argmax(scores []float32) int {
	if len(scores) == 0 {
		return -1
	}

	idx, best := 0, scores[0]
	for i, v := range scores {
		if v > best {
			idx, best = i, v
		}
	}

	return idx
}

// LabelOf 인덱스에 해당하는 라벨 반환
func LabelOf(labels []string, idx int) (string, error) {
	if idx < 0 || idx >= len(labels) {
		return "", fmt.Errorf("%w: index %d, %d labels", ErrLabelOutOfRange, idx, len(labels))
	}

	return labels[idx], nil
}

func classify(scores []float32, labels []string, k int) (*Prediction, error) {
	idx := Argmax(scores)
	if idx < 0 {
		return nil, errors.New("Empty prediction output")
	}

	if len(scores) != len(labels) {
		log.Printf("The number of labels(%d) and predicted scores(%d) does not match", len(labels), len(scores))
	}

	label, err := LabelOf(labels, idx)
	if err != nil {
		return nil, err
	}

	return &Prediction{
		Label: label,
		Index: idx,
		Prob:  scores[idx],
		Top:   topK(scores, labels, k),
	}, nil
}

type sortByProb []InferLabel

func (s sortByProb) Len() int {
	return len(s)
}

func (s sortByProb) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
}

func (s sortByProb) Less(i, j int) bool {
	return s[i].Prob > s[j].Prob
}

func topK(scores []float32, labels []string, k int) []InferLabel {
	var infers []InferLabel
	for idx, prob := range scores {
		if idx >= len(labels) {
			break
		}

		infers = append(infers, InferLabel{
			Index: idx,
			Prob:  prob,
			Label: labels[idx],
		})
	}
	sort.Stable(sortByProb(infers))

	if k <= 0 || k > len(infers) {
		k = len(infers)
	}

	return infers[:k]
}
