package inference

import (
	"fmt"
	"log"
	"os"
	"path"

	tf "github.com/wamuir/graft/tensorflow"
)

type tfBackend struct {
	session *tf.Session
	input   tf.Output
	output  tf.Output
}

func openSavedModel(modelPath string, cfg modelConfig) (backend, error) {
	exportDir := modelPath
	if cfg.File != "" {
		exportDir = path.Join(modelPath, cfg.File)
	}

	tfModel, err := tf.LoadSavedModel(exportDir, cfg.Tags, nil)
	if err != nil {
		return nil, fmt.Errorf("Fail to load saved model: %s: %w", exportDir, err)
	}

	b, err := newTFBackend(tfModel.Graph, tfModel.Session, cfg)
	if err != nil {
		tfModel.Session.Close()
		return nil, err
	}

	return b, nil
}

func openFrozenGraph(modelPath string, cfg modelConfig) (backend, error) {
	var (
		mByte   []byte
		graph   *tf.Graph
		session *tf.Session
		err     error
	)

	mFile := path.Join(modelPath, cfg.File)
	if mByte, err = os.ReadFile(mFile); err != nil {
		return nil, fmt.Errorf("Fail to read model: %s: %w", mFile, err)
	}

	graph = tf.NewGraph()
	if err := graph.Import(mByte, ""); err != nil {
		return nil, fmt.Errorf("Fail to import model: %w", err)
	}

	if session, err = tf.NewSession(graph, nil); err != nil {
		return nil, fmt.Errorf("Fail to make model session: %w", err)
	}

	b, err := newTFBackend(graph, session, cfg)
	if err != nil {
		session.Close()
		return nil, err
	}

	return b, nil
}

func newTFBackend(graph *tf.Graph, session *tf.Session, cfg modelConfig) (*tfBackend, error) {
	input := graph.Operation(cfg.InputOperationName)
	if input == nil {
		return nil, fmt.Errorf("Cannot find input operation: %s", cfg.InputOperationName)
	}

	output := graph.Operation(cfg.OutputOperationName)
	if output == nil {
		return nil, fmt.Errorf("Cannot find output operation: %s", cfg.OutputOperationName)
	}

	return &tfBackend{
		session: session,
		input:   input.Output(0),
		output:  output.Output(0),
	}, nil
}

func (b *tfBackend) run(input *Tensor) ([]float32, error) {
	var (
		inputImage *tf.Tensor
		results    []*tf.Tensor
		err        error
	)

	if inputImage, err = tf.NewTensor(input.Batch()); err != nil {
		return nil, err
	}

	if results, err = b.session.Run(
		map[tf.Output]*tf.Tensor{
			b.input: inputImage,
		},
		[]tf.Output{
			b.output,
		},
		nil,
	); err != nil {
		return nil, err
	}

	probabilities, ok := results[0].Value().([][]float32)
	if !ok || len(probabilities) == 0 {
		return nil, fmt.Errorf("Unexpected output: %T", results[0].Value())
	}

	return probabilities[0], nil
}

func (b *tfBackend) close() {
	if err := b.session.Close(); err != nil {
		log.Printf("Fail to close session: %s", err)
	}
}
