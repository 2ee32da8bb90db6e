// Package config는 viper 기반 설정 로딩을 제공합니다.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config 인터페이스는 설정 값에 액세스하기 위한 메서드를 정의합니다.
type Config interface {
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetFloat64(key string) float64
	IsSet(key string) bool
	// Unmarshal은 전체 설정을 구조체로 디코딩합니다 (mapstructure 태그 사용).
	Unmarshal(out interface{}) error
}

type viperConfig struct {
	v *viper.Viper
}

func (c *viperConfig) GetString(key string) string {
	return c.v.GetString(key)
}

func (c *viperConfig) GetInt(key string) int {
	return c.v.GetInt(key)
}

func (c *viperConfig) GetBool(key string) bool {
	return c.v.GetBool(key)
}

func (c *viperConfig) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

func (c *viperConfig) IsSet(key string) bool {
	return c.v.IsSet(key)
}

func (c *viperConfig) Unmarshal(out interface{}) error {
	if err := c.v.Unmarshal(out); err != nil {
		return fmt.Errorf("설정 디코딩 실패: %w", err)
	}
	return nil
}

// 설정 디렉토리 경로
const configDir = "configs"

// Option은 Load 동작을 조정합니다.
type Option func(v *viper.Viper)

// WithDefaults는 설정 파일과 환경 변수가 없을 때 사용할 기본값을 등록합니다.
func WithDefaults(defaults map[string]interface{}) Option {
	return func(v *viper.Viper) {
		for key, value := range defaults {
			v.SetDefault(key, value)
		}
	}
}

// Load는 서비스 이름에 해당하는 설정 파일을 로드합니다.
//
// 탐색 순서: $CONFIG_PATH, configs/{APP_ENV}, configs/example.
// 환경 변수는 {SERVICE}_{SECTION}_{KEY} 형태로 파일 값을 덮어씁니다.
func Load(serviceName string, opts ...Option) (Config, error) {
	v := viper.New()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}

	v.SetConfigType("yaml")
	v.SetEnvPrefix(strings.ToUpper(serviceName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, opt := range opts {
		opt(v)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = filepath.Join(configDir, env)
	}

	v.SetConfigName(serviceName)
	v.AddConfigPath(configPath)
	v.AddConfigPath(filepath.Join(configDir, "example"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("설정 파일 로드 실패: %w", err)
	}

	return &viperConfig{v: v}, nil
}
