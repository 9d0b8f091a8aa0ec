package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go-ekyc-gateway/faces"
	"go-ekyc-gateway/logging"
	"go-ekyc-gateway/metrics"
	"go-ekyc-gateway/ocr"
	"go-ekyc-gateway/pipeline"
	redis "go-ekyc-gateway/redis"
	"go-ekyc-gateway/storage"
)

type Config struct {
	ServerConfig ServerConfig `json:"server_config"`
	LogLevel     string       `json:"log_level,omitempty"`

	JwtPrivateKeyPath    string `json:"jwt_private_key_path"`
	IssuerId             string `json:"issuer_id"`
	ReceiptValidityHours int    `json:"receipt_validity_hours,omitempty"`

	DetectionServiceUrl string   `json:"detection_service_url"`
	OcrLanguages        []string `json:"ocr_languages,omitempty"`
	LivenessThreshold   float64  `json:"liveness_threshold,omitempty"`
	PaddingPolicy       string   `json:"padding_policy,omitempty"`

	SessionStorageType  string                    `json:"session_storage_type"`
	RedisConfig         redis.RedisConfig         `json:"redis_config,omitempty"`
	RedisSentinelConfig redis.RedisSentinelConfig `json:"redis_sentinel_config,omitempty"`

	SubmissionStoreType string `json:"submission_store_type"`
	PostgresDsn         string `json:"postgres_dsn,omitempty"`
}

func main() {
	configPath := flag.String("config", "", "Path for the config.json to use")
	flag.Parse()

	if *configPath == "" {
		fatal("please provide a config path using the --config flag", nil)
	}

	config, err := readConfigFile(*configPath)
	if err != nil {
		fatal("failed to read config file", err)
	}

	logging.InitLogger(config.LogLevel)
	slog.Info("Using config", "path", *configPath)
	slog.Info("Hosting on", "host", config.ServerConfig.Host, "port", config.ServerConfig.Port)

	validity := 24 * time.Hour
	if config.ReceiptValidityHours > 0 {
		validity = time.Duration(config.ReceiptValidityHours) * time.Hour
	}

	jwtCreator, err := NewReceiptJwtCreator(config.JwtPrivateKeyPath, config.IssuerId, validity)
	if err != nil {
		fatal("failed to instantiate jwt creator", err)
	}

	tokenStorage, err := createTokenStorage(&config)
	if err != nil {
		fatal("failed to instantiate token storage", err)
	}

	store, err := createSubmissionStore(&config)
	if err != nil {
		fatal("failed to instantiate submission store", err)
	}

	detectionClient := faces.NewHTTPDetectionClient(config.DetectionServiceUrl)
	if err := detectionClient.HealthCheck(); err != nil {
		slog.Warn("Face detection service not reachable at startup", "url", config.DetectionServiceUrl, "error", err)
	}

	padding, err := parsePaddingPolicy(config.PaddingPolicy)
	if err != nil {
		fatal("invalid padding policy", err)
	}

	submissionPipeline := pipeline.New(ocr.NewTesseractEngine(), detectionClient, pipeline.Config{
		ReferenceYear:     time.Now().Year(),
		LivenessThreshold: config.LivenessThreshold,
		Padding:           padding,
		OCRLanguages:      config.OcrLanguages,
	})

	serverState := ServerState{
		tokenStorage: tokenStorage,
		pipeline:     submissionPipelineImpl{pipeline: submissionPipeline},
		store:        store,
		jwtCreator:   jwtCreator,
		metrics:      metrics.New(),
	}

	server, err := NewServer(&serverState, config.ServerConfig)
	if err != nil {
		fatal("failed to create server", err)
	}

	err = server.ListenAndServe()
	if err != nil {
		fatal("failed to listen and serve", err)
	}
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}

func readConfigFile(path string) (Config, error) {
	configBytes, err := os.ReadFile(path)

	if err != nil {
		return Config{}, err
	}

	var config Config
	err = json.Unmarshal(configBytes, &config)

	if err != nil {
		return Config{}, err
	}

	return config, nil
}

func parsePaddingPolicy(name string) (faces.PaddingPolicy, error) {
	switch name {
	case "", "symmetric":
		return faces.PaddingSymmetric, nil
	case "tight":
		return faces.PaddingTight, nil
	}
	return faces.PaddingSymmetric, fmt.Errorf("%v is not a valid padding policy", name)
}

func createTokenStorage(config *Config) (TokenStorage, error) {
	if config.SessionStorageType == "redis" {
		slog.Info("Using redis token storage")
		client, err := redis.NewRedisClient(&config.RedisConfig)
		if err != nil {
			return nil, err
		}
		return NewRedisTokenStorage(client, config.RedisConfig.Namespace), nil
	}
	if config.SessionStorageType == "redis_sentinel" {
		slog.Info("Using redis sentinel token storage")
		client, err := redis.NewRedisSentinelClient(&config.RedisSentinelConfig)
		if err != nil {
			return nil, err
		}
		return NewRedisTokenStorage(client, config.RedisSentinelConfig.Namespace), nil
	}
	if config.SessionStorageType == "memory" {
		slog.Info("Using in memory token storage")
		return NewInMemoryTokenStorage(), nil
	}
	return nil, fmt.Errorf("%v is not a valid session storage type", config.SessionStorageType)
}

func createSubmissionStore(config *Config) (storage.SubmissionStore, error) {
	if config.SubmissionStoreType == "postgres" {
		slog.Info("Using postgres submission store")
		return storage.NewPostgresSubmissionStore(config.PostgresDsn)
	}
	if config.SubmissionStoreType == "memory" {
		slog.Info("Using in memory submission store")
		return storage.NewInMemorySubmissionStore(), nil
	}
	return nil, fmt.Errorf("%v is not a valid submission store type", config.SubmissionStoreType)
}
