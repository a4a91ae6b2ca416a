package inference

// 모델 형식별 추론 실행기
type backend interface {
	// run 입력 텐서로 forward pass 수행 후 첫 번째 배치의 점수 벡터 반환
	run(input *Tensor) ([]float32, error)
	close()
}

type backendOpener func(modelPath string, cfg modelConfig) (backend, error)

var backends = map[string]backendOpener{
	typeSavedModel: openSavedModel,
	typeGraph:      openFrozenGraph,
	typeTFLite:     openTFLite,
	typeONNX:       openONNX,
}
