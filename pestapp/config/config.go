package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/harrison-roh/pest-image-classification/pestapp/constants"
	"github.com/spf13/viper"
)

// Config 서비스 설정정보
type Config struct {
	Server  ServerConfig
	Model   ModelConfig
	Session SessionConfig
}

// ServerConfig http 서버 설정
type ServerConfig struct {
	Addr               string
	Mode               string
	MaxMultipartMemory int64         `mapstructure:"max_multipart_memory"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout"`
}

// ModelConfig 추론 모델 설정
type ModelConfig struct {
	Path string
	TopK int `mapstructure:"top_k"`
}

// SessionConfig 사용자 세션 설정
type SessionConfig struct {
	Cookie string
	MaxAge time.Duration `mapstructure:"max_age"`
}

// Load 설정 파일과 환경변수(PESTAPP_ 접두어)로부터 설정을 읽음
// cfgPath가 비어 있으면 PESTAPP_CONFIG, 그 다음 현재 디렉토리의 pestapp.yaml을 찾음
func Load(cfgPath string) (Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", ":18080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.max_multipart_memory", int64(8<<20))
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("model.path", constants.DefaultModelPath)
	v.SetDefault("model.top_k", constants.DefaultTopK)
	v.SetDefault("session.cookie", "pestapp_session")
	v.SetDefault("session.max_age", 24*time.Hour)

	if cfgPath == "" {
		cfgPath = os.Getenv("PESTAPP_CONFIG")
	}

	explicit := cfgPath != ""
	if explicit {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("pestapp")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("PESTAPP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if c.Model.TopK <= 0 {
		c.Model.TopK = constants.DefaultTopK
	}

	return c, nil
}
