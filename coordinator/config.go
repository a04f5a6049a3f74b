package coordinator

import (
	"errors"
	"fmt"
	"time"
)

// Config carries the aggregation settings of one coordinator instance.
type Config struct {
	LearningRate  float64       `env:"LEARNING_RATE"  envDefault:"0.1"`
	MaxRetries    uint          `env:"MAX_RETRIES"    envDefault:"3"`
	RetryInterval time.Duration `env:"RETRY_INTERVAL" envDefault:"1s"`
	BackupEnabled bool          `env:"BACKUP_ENABLED" envDefault:"true"`
	AnnounceTopic string        `env:"ANNOUNCE_TOPIC" envDefault:"fedrelay/rounds"`
}

func (c Config) Validate() error {
	if c.LearningRate <= 0 || c.LearningRate > 1 {
		return fmt.Errorf("learning rate must be in (0, 1], got %g", c.LearningRate)
	}
	if c.MaxRetries < 1 {
		return errors.New("max retries must be at least 1")
	}
	if c.RetryInterval <= 0 {
		return errors.New("retry interval must be positive")
	}

	return nil
}
