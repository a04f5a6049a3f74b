package fedrelayd

import (
	"net/url"
	"time"

	"github.com/absmach/supermq/pkg/server"

	"github.com/absmach/fedrelay/coordinator"
)

const (
	DefHTTPPort      = "7070"
	EnvPrefixHTTP    = "COORDINATOR_HTTP_"
	EnvPrefixService = "COORDINATOR_"
	PathEnv          = ".env"
)

type EnvConfig struct {
	LogLevel             string        `env:"COORDINATOR_LOG_LEVEL"              envDefault:"info"`
	InstanceID           string        `env:"COORDINATOR_INSTANCE_ID"`
	Store                string        `env:"COORDINATOR_STORE"                  envDefault:"memory"`
	RelayURL             string        `env:"COORDINATOR_RELAY_URL"              envDefault:"http://localhost:9090"`
	RelayTLSVerification bool          `env:"COORDINATOR_RELAY_TLS_VERIFICATION" envDefault:"true"`
	BadgerDir            string        `env:"COORDINATOR_BADGER_DIR"             envDefault:"./fedrelay-badger"`
	RedisURL             string        `env:"COORDINATOR_REDIS_URL"              envDefault:"redis://localhost:6379/0"`
	HistoryDir           string        `env:"COORDINATOR_HISTORY_DIR"`
	BackupDir            string        `env:"COORDINATOR_BACKUP_DIR"`
	MQTTAddress          string        `env:"COORDINATOR_MQTT_ADDRESS"`
	MQTTQoS              uint8         `env:"COORDINATOR_MQTT_QOS"               envDefault:"2"`
	MQTTUsername         string        `env:"COORDINATOR_MQTT_USERNAME"`
	MQTTPassword         string        `env:"COORDINATOR_MQTT_PASSWORD"`
	MQTTTimeout          time.Duration `env:"COORDINATOR_MQTT_TIMEOUT"           envDefault:"30s"`
	OTELURL              url.URL       `env:"COORDINATOR_OTEL_URL"`
	TraceRatio           float64       `env:"COORDINATOR_TRACE_RATIO"            envDefault:"0"`
}

// ServiceConfig translates the parsed environment into the runtime config
// StartCoordinator expects.
func (ec EnvConfig) ServiceConfig(agg coordinator.Config, srv server.Config) Config {
	return Config{
		LogLevel:             ec.LogLevel,
		InstanceID:           ec.InstanceID,
		Store:                ec.Store,
		RelayURL:             ec.RelayURL,
		RelayTLSVerification: ec.RelayTLSVerification,
		BadgerDir:            ec.BadgerDir,
		RedisURL:             ec.RedisURL,
		HistoryDir:           ec.HistoryDir,
		BackupDir:            ec.BackupDir,
		MQTTAddress:          ec.MQTTAddress,
		MQTTQoS:              ec.MQTTQoS,
		MQTTUsername:         ec.MQTTUsername,
		MQTTPassword:         ec.MQTTPassword,
		MQTTTimeout:          ec.MQTTTimeout,
		Aggregation:          agg,
		Server:               srv,
		OTELURL:              ec.OTELURL,
		TraceRatio:           ec.TraceRatio,
	}
}
