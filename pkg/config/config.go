package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Narrows  NarrowsConfig
	Graphiti GraphitiConfig
	LLM      LLMConfig
	Pipeline PipelineConfig
}

// ServerConfig holds the admin HTTP server configuration
type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	ShutdownTimeout int
	WorkerCount     int
}

// DatabaseConfig holds database configuration for the job ledger
type DatabaseConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	SSLMode     string
	MaxConns    int
	MinConns    int
	AutoMigrate bool
}

// RedisConfig holds Redis configuration for the episode work queue
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Queue    string
}

// StorageConfig holds object storage configuration for transcript fetches
type StorageConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	UseSSL          bool
}

// NarrowsConfig holds the Narrows metadata API configuration
type NarrowsConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// GraphitiConfig holds the knowledge-graph ingestion endpoint configuration
type GraphitiConfig struct {
	BaseURL string
	APIKey  string
	GroupID string
	Timeout time.Duration
}

// LLMConfig holds the generation service configuration
type LLMConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// PipelineConfig holds tuning knobs for the segmentation pipeline.
// Chunk sizing and the break-point ratio are deliberately configuration,
// not constants.
type PipelineConfig struct {
	BlockCharBudget   int
	ChunkMaxChars     int
	ChunkBreakRatio   float64
	InterChapterDelay time.Duration
	InterSubmitDelay  time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Host:            getEnv("HOST", "0.0.0.0"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			ShutdownTimeout: getEnvAsInt("SHUTDOWN_TIMEOUT", 10),
			WorkerCount:     getEnvAsInt("WORKER_COUNT", 2),
		},
		Database: DatabaseConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnv("DB_PORT", "5432"),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			Name:        getEnv("DB_NAME", "podgraph"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			MaxConns:    getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:    getEnvAsInt("DB_MIN_CONNS", 5),
			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", false),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Queue:    getEnv("REDIS_QUEUE", "podgraph:episodes"),
		},
		Storage: StorageConfig{
			Endpoint:        getEnv("STORAGE_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getEnv("STORAGE_ACCESS_KEY", "minioadmin"),
			SecretAccessKey: getEnv("STORAGE_SECRET_KEY", "minioadmin"),
			BucketName:      getEnv("STORAGE_BUCKET", "podgraph-media"),
			UseSSL:          getEnvAsBool("STORAGE_USE_SSL", false),
		},
		Narrows: NarrowsConfig{
			BaseURL: getEnv("NARROWS_API_URL", "http://localhost:8090"),
			APIKey:  getEnv("NARROWS_API_KEY", ""),
			Timeout: getEnvAsDuration("NARROWS_TIMEOUT", "30s"),
		},
		Graphiti: GraphitiConfig{
			BaseURL: getEnv("GRAPHITI_API_URL", "http://localhost:8091"),
			APIKey:  getEnv("GRAPHITI_API_KEY", ""),
			GroupID: getEnv("GRAPHITI_GROUP_ID", "podgraph"),
			Timeout: getEnvAsDuration("GRAPHITI_TIMEOUT", "60s"),
		},
		LLM: LLMConfig{
			APIKey:      getEnv("LLM_API_KEY", ""),
			BaseURL:     getEnv("LLM_API_URL", "https://api.groq.com"),
			Model:       getEnv("LLM_MODEL", "llama-3.1-70b-versatile"),
			Temperature: getEnvAsFloat("LLM_TEMPERATURE", 0.3),
			MaxTokens:   getEnvAsInt("LLM_MAX_TOKENS", 8000),
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", "120s"),
		},
		Pipeline: PipelineConfig{
			BlockCharBudget:   getEnvAsInt("PIPELINE_BLOCK_CHAR_BUDGET", 4000),
			ChunkMaxChars:     getEnvAsInt("PIPELINE_CHUNK_MAX_CHARS", 5000),
			ChunkBreakRatio:   getEnvAsFloat("PIPELINE_CHUNK_BREAK_RATIO", 0.7),
			InterChapterDelay: getEnvAsDuration("PIPELINE_INTER_CHAPTER_DELAY", "200ms"),
			InterSubmitDelay:  getEnvAsDuration("PIPELINE_INTER_SUBMIT_DELAY", "50ms"),
		},
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Pipeline.BlockCharBudget <= 0 {
		return fmt.Errorf("PIPELINE_BLOCK_CHAR_BUDGET must be positive")
	}
	if c.Pipeline.ChunkMaxChars <= 0 {
		return fmt.Errorf("PIPELINE_CHUNK_MAX_CHARS must be positive")
	}
	if c.Pipeline.ChunkBreakRatio <= 0 || c.Pipeline.ChunkBreakRatio >= 1 {
		return fmt.Errorf("PIPELINE_CHUNK_BREAK_RATIO must be between 0 and 1")
	}
	if c.Server.WorkerCount <= 0 {
		return fmt.Errorf("WORKER_COUNT must be positive")
	}
	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}
