package fedrelay

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
)

type Config struct {
	Coordinator CoordinatorConfig `toml:"coordinator"`
	Contributor ContributorConfig `toml:"contributor"`
	Privacy     PrivacyConfig     `toml:"privacy"`
}

type CoordinatorConfig struct {
	URL             string `toml:"url"`
	TLSVerification bool   `toml:"tls_verification"`
}

type ContributorConfig struct {
	ID string `toml:"id"`
}

type PrivacyConfig struct {
	Epsilon    float64 `toml:"epsilon"`
	Delta      float64 `toml:"delta"`
	L2NormClip float64 `toml:"l2_norm_clip"`
	SampleRate float64 `toml:"sample_rate"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	tree, err := toml.Load(string(data))
	if err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	var cfg Config
	if err := tree.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}
