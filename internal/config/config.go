package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Attribution periods, in seasons. Baseline is [BaselineStartYear,
	// SplitYear), comparison is [SplitYear, EndYear).
	BaselineStartYear int
	SplitYear         int
	EndYear           int
	ExtremeCategory   int
	AttributionAlpha  float64

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	mapboxTimeoutStr := sharedcfg.EnvOrDefault("MAPBOX_TIMEOUT", "5s")
	mapboxTimeout, err2 := time.ParseDuration(mapboxTimeoutStr)
	if err2 != nil || mapboxTimeout <= 0 {
		return nil, errors.New("invalid MAPBOX_TIMEOUT")
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	periods, err := parsePeriods()
	if err != nil {
		return nil, err
	}

	extreme, err := parseInt("EXTREME_CATEGORY", 3)
	if err != nil {
		return nil, err
	}

	alpha, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("ATTRIBUTION_ALPHA", "0.05"), 64)
	if err != nil {
		return nil, errors.New("invalid ATTRIBUTION_ALPHA")
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "raw-cyclone-tracks"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "segmented-cyclone-tracks"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "storm-attribution"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		BaselineStartYear: periods[0],
		SplitYear:         periods[1],
		EndYear:           periods[2],
		ExtremeCategory:   extreme,
		AttributionAlpha:  alpha,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS is required")
	}
	if c.KafkaSourceTopic == "" {
		return errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if c.KafkaSinkTopic == "" {
		return errors.New("KAFKA_SINK_TOPIC is required")
	}
	if c.BaselineStartYear >= c.SplitYear || c.SplitYear >= c.EndYear {
		return fmt.Errorf("attribution periods must satisfy BASELINE_START_YEAR < SPLIT_YEAR < END_YEAR, got %d, %d, %d",
			c.BaselineStartYear, c.SplitYear, c.EndYear)
	}
	if c.ExtremeCategory < 0 || c.ExtremeCategory > 5 {
		return errors.New("EXTREME_CATEGORY must be between 0 and 5")
	}
	if c.AttributionAlpha <= 0 || c.AttributionAlpha >= 1 {
		return errors.New("ATTRIBUTION_ALPHA must be between 0 and 1 (exclusive)")
	}
	if c.MapboxEnabled && c.MapboxToken == "" {
		return errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	return nil
}

func parsePeriods() ([3]int, error) {
	var years [3]int
	keys := [3]string{"BASELINE_START_YEAR", "SPLIT_YEAR", "END_YEAR"}
	defaults := [3]int{1950, 1985, 2020}
	for i, key := range keys {
		v, err := parseInt(key, defaults[i])
		if err != nil {
			return years, err
		}
		years[i] = v
	}
	return years, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
