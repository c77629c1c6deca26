package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const ENV_FILE = ".env"
const CONFIG_FILE = "config.yaml"

type AppConfig struct {
	Logging     LoggingConfig     `yaml:"logging"`
	Server      ServerConfig      `yaml:"server"`
	Mongo       MongoConfig       `yaml:"mongo"`
	Kafka       KafkaConfig       `yaml:"kafka"`
	Aggregation AggregationConfig `yaml:"aggregation"`
	Clustering  ClusteringConfig  `yaml:"clustering"`
	Scoring     ScoringConfig     `yaml:"scoring"`
	Cache       CacheConfig       `yaml:"cache"`
	Sources     []SourceConfig    `yaml:"sources"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type ServerConfig struct {
	Addr               string   `yaml:"addr"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

type MongoConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type KafkaConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Brokers    string `yaml:"brokers"`
	GroupID    string `yaml:"group_id"`
	Partitions int    `yaml:"partitions"`
}

// AggregationConfig bounds a single live aggregation run.
type AggregationConfig struct {
	PerSourceLimit int           `yaml:"per_source_limit"`
	SourceTimeout  time.Duration `yaml:"source_timeout"`
	RunDeadline    time.Duration `yaml:"run_deadline"`
	PageSize       int           `yaml:"page_size"`
	MaxPageSize    int           `yaml:"max_page_size"`
	UserAgent      string        `yaml:"user_agent"`

	// RefreshInterval is how often the aggregate worker materializes the general feed.
	RefreshInterval time.Duration `yaml:"refresh_interval"`

	// MaterializedMaxAge limits how old stored clusters may be before the
	// general path falls back to a live run.
	MaterializedMaxAge time.Duration `yaml:"materialized_max_age"`
	ClusterRetention   time.Duration `yaml:"cluster_retention"`
}

// ClusteringConfig tunes story grouping. Bypass turns every article into its own cluster.
type ClusteringConfig struct {
	Bypass              bool          `yaml:"bypass"`
	SimilarityThreshold float64       `yaml:"similarity_threshold"`
	RecencyWindow       time.Duration `yaml:"recency_window"`
}

type ScoringConfig struct {
	RecencyWeight   float64       `yaml:"recency_weight"`
	DiversityWeight float64       `yaml:"diversity_weight"`
	PersonalWeight  float64       `yaml:"personal_weight"`
	HalfLife        time.Duration `yaml:"half_life"`
	DiversityCap    int           `yaml:"diversity_cap"`
}

// CacheConfig selects the snapshot store. Backend is "memory", "mongo" or
// "sqlite"; SQLitePath defaults to the user cache directory.
type CacheConfig struct {
	Backend          string        `yaml:"backend"`
	StalenessCeiling time.Duration `yaml:"staleness_ceiling"`
	SQLitePath       string        `yaml:"sqlite_path"`
}

// SourceConfig is a single feed source. Format is "rss" or "json".
type SourceConfig struct {
	Name      string `yaml:"name"`
	Endpoint  string `yaml:"endpoint"`
	Format    string `yaml:"format"`
	Language  string `yaml:"language"`
	APIKeyEnv string `yaml:"api_key_env"`
}

var config *AppConfig

func InitApp() {
	// load environment variables
	godotenv.Load(filepath.Join(GetBasePath(), ENV_FILE))

	c, err := Load(filepath.Join(GetBasePath(), CONFIG_FILE))
	if err != nil {
		panic(err)
	}
	config = c
}

// Load reads a config file, applies environment overrides and fills defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var c AppConfig
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	c.applyEnv()
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func GetConfig() AppConfig {
	if config == nil {
		InitApp()
	}

	return *config
}

func (c *AppConfig) applyEnv() {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		c.Mongo.URI = v
	}
	if v := os.Getenv("MONGO_DB_NAME"); v != "" {
		c.Mongo.Database = v
	}
	if v := os.Getenv("KAFKA_BOOTSTRAP_SERVERS"); v != "" {
		c.Kafka.Brokers = v
	}
	if v := os.Getenv("KAFKA_GROUP_ID"); v != "" {
		c.Kafka.GroupID = v
	}
}

// ApplyDefaults fills every unset tunable.
func (c *AppConfig) ApplyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if len(c.Server.CORSAllowedOrigins) == 0 {
		c.Server.CORSAllowedOrigins = []string{"*"}
	}
	if c.Mongo.URI == "" {
		c.Mongo.URI = "mongodb://localhost:27017"
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "newspulse"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "news-pulse"
	}
	if c.Kafka.Partitions <= 0 {
		c.Kafka.Partitions = 3
	}

	a := &c.Aggregation
	if a.PerSourceLimit <= 0 {
		a.PerSourceLimit = 5
	}
	if a.SourceTimeout <= 0 {
		a.SourceTimeout = 8 * time.Second
	}
	if a.RunDeadline <= 0 {
		a.RunDeadline = 15 * time.Second
	}
	if a.PageSize <= 0 {
		a.PageSize = 20
	}
	if a.MaxPageSize <= 0 {
		a.MaxPageSize = 100
	}
	if a.RefreshInterval <= 0 {
		a.RefreshInterval = 10 * time.Minute
	}
	if a.MaterializedMaxAge <= 0 {
		a.MaterializedMaxAge = 10 * time.Minute
	}
	if a.ClusterRetention <= 0 {
		a.ClusterRetention = 48 * time.Hour
	}

	if c.Clustering.SimilarityThreshold <= 0 {
		c.Clustering.SimilarityThreshold = 0.6
	}
	if c.Clustering.RecencyWindow <= 0 {
		c.Clustering.RecencyWindow = 48 * time.Hour
	}

	s := &c.Scoring
	if s.RecencyWeight <= 0 && s.DiversityWeight <= 0 {
		s.RecencyWeight = 0.6
		s.DiversityWeight = 0.4
	}
	if s.PersonalWeight <= 0 {
		s.PersonalWeight = 0.3
	}
	if s.HalfLife <= 0 {
		s.HalfLife = 12 * time.Hour
	}
	if s.DiversityCap <= 0 {
		s.DiversityCap = 5
	}

	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.StalenessCeiling <= 0 {
		c.Cache.StalenessCeiling = 5 * time.Minute
	}
	if c.Cache.SQLitePath == "" {
		c.Cache.SQLitePath = DefaultSQLitePath()
	}

	for i := range c.Sources {
		c.Sources[i].Format = strings.ToLower(strings.TrimSpace(c.Sources[i].Format))
		if c.Sources[i].Format == "" {
			c.Sources[i].Format = "rss"
		}
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *AppConfig) Validate() error {
	if c.Clustering.SimilarityThreshold > 1 {
		return fmt.Errorf("clustering.similarity_threshold must be within (0,1], got %v", c.Clustering.SimilarityThreshold)
	}
	switch c.Cache.Backend {
	case "memory", "mongo", "sqlite":
	default:
		return fmt.Errorf("cache.backend must be memory, mongo or sqlite, got %q", c.Cache.Backend)
	}
	seen := map[string]bool{}
	for _, s := range c.Sources {
		if s.Name == "" || s.Endpoint == "" {
			return fmt.Errorf("source requires name and endpoint: %+v", s)
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate source name %q", s.Name)
		}
		seen[s.Name] = true
		if s.Format != "rss" && s.Format != "json" {
			return fmt.Errorf("source %s: unsupported format %q", s.Name, s.Format)
		}
	}
	return nil
}

func DefaultSQLitePath() string {
	return filepath.Join(xdg.CacheHome, "news-pulse", "snapshots.db")
}

func GetBasePath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		cfgPath := filepath.Join(dir, CONFIG_FILE)
		if info, err := os.Stat(cfgPath); err == nil && !info.IsDir() {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
