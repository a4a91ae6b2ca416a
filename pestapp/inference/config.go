package inference

import (
	"fmt"
	"os"
	"path"

	"github.com/harrison-roh/pest-image-classification/pestapp/constants"
	"gopkg.in/yaml.v2"
)

const (
	typeSavedModel = "savedmodel"
	typeGraph      = "graph"
	typeTFLite     = "tflite"
	typeONNX       = "onnx"
)

// 모델 디렉토리의 config.yaml
type modelConfig struct {
	Name                string   `yaml:"name"`
	Type                string   `yaml:"type"`
	File                string   `yaml:"file"`
	Tags                []string `yaml:"tags"`
	InputShape          []int32  `yaml:"inputShape"`
	InputOperationName  string   `yaml:"inputOperationName"`
	OutputOperationName string   `yaml:"outputOperationName"`
	OutputShape         []int64  `yaml:"outputShape"`
	Threads             int      `yaml:"threads"`
	SharedLibrary       string   `yaml:"sharedLibrary"`
	Description         string   `yaml:"description"`
}

var defaultModelConfigs = map[string]modelConfig{
	typeSavedModel: {
		Tags:                []string{"serve"},
		InputOperationName:  "serving_default_input_1",
		OutputOperationName: "StatefulPartitionedCall",
	},
	typeGraph: {
		File:                "model.pb",
		InputOperationName:  "input",
		OutputOperationName: "output",
	},
	typeTFLite: {
		File:    "model_unquant.tflite",
		Threads: 4,
	},
	typeONNX: {
		File:                "model.onnx",
		InputOperationName:  "input",
		OutputOperationName: "output",
	},
}

func readModelConfig(modelPath string) (modelConfig, error) {
	var (
		cfgBytes []byte
		cfg      modelConfig
		err      error
	)

	cfgFile := path.Join(modelPath, constants.ModelConfigFile)
	if cfgBytes, err = os.ReadFile(cfgFile); err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(cfgBytes, &cfg); err != nil {
		return cfg, fmt.Errorf("Fail to parse %s: %w", cfgFile, err)
	}

	def, ok := defaultModelConfigs[cfg.Type]
	if !ok {
		if _, registered := backends[cfg.Type]; !registered {
			return cfg, fmt.Errorf("Unknown model type: %q", cfg.Type)
		}
	}

	if cfg.Name == "" {
		cfg.Name = path.Base(modelPath)
	}
	if cfg.File == "" {
		cfg.File = def.File
	}
	if len(cfg.Tags) == 0 {
		cfg.Tags = def.Tags
	}
	if cfg.InputOperationName == "" {
		cfg.InputOperationName = def.InputOperationName
	}
	if cfg.OutputOperationName == "" {
		cfg.OutputOperationName = def.OutputOperationName
	}
	if cfg.Threads <= 0 {
		cfg.Threads = def.Threads
	}

	if len(cfg.InputShape) == 0 {
		cfg.InputShape = []int32{
			int32(constants.ImageHeight),
			int32(constants.ImageWidth),
			int32(constants.ImageChannels),
		}
	} else if !isInputShape(cfg.InputShape) {
		return cfg, fmt.Errorf("Unsupported input shape: %v", cfg.InputShape)
	}

	return cfg, nil
}

func isInputShape(shape []int32) bool {
	return len(shape) == 3 &&
		int(shape[0]) == constants.ImageHeight &&
		int(shape[1]) == constants.ImageWidth &&
		int(shape[2]) == constants.ImageChannels
}
