package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store backends for CV and skill data.
const (
	StoreMemory        = "memory"
	StorePostgres      = "postgres"
	StoreElasticsearch = "elasticsearch"
)

// Object store backends for transient export artifacts.
const (
	ObjectStoreLocal = "local"
	ObjectStoreS3    = "s3"
)

// Config holds application configuration.
type Config struct {
	Env              string
	Port             string
	URIPrefix        string
	CORSAllowOrigin  []string
	DatabaseURL      string
	DB               DBConfig
	Store            string
	Elasticsearch    ElasticsearchConfig
	Redis            RedisConfig
	SkillCacheTTL    time.Duration
	TemplatePath     string
	ExportTmpDir     string
	ObjectStoreType  string
	S3               S3Config
	ExportRateLimit  float64
	ExportRateBurst  int
	AuthRequired     bool
	JWTSecret        string
	LogLevel         string
	OTelEnabled      bool
	OTelSamplerRatio float64
}

// DBConfig tunes the Postgres connection pool. Zero values keep the
// defaults of the db package.
type DBConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
	ApplicationName string
}

// ElasticsearchConfig configures the search store.
type ElasticsearchConfig struct {
	Addresses  []string
	Username   string
	Password   string
	CVIndex    string
	SkillIndex string
}

// S3Config configures the S3 object store used when OBJECT_STORE=s3.
type S3Config struct {
	Region   string
	Bucket   string
	Prefix   string
	KMSKeyID string
}

// RedisConfig configures the skill catalog cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Load reads configuration from .env files and environment variables with
// sensible defaults.
func Load() Config {
	loadEnvFiles(".env", "cmd/.env")
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("URI_PREFIX", "")
	v.SetDefault("CORS_ALLOW_ORIGINS", "http://localhost:5173")
	v.SetDefault("CV_STORE", "")
	v.SetDefault("ELASTICSEARCH_ADDRESSES", "http://localhost:9200")
	v.SetDefault("ELASTICSEARCH_CV_INDEX", "cvs")
	v.SetDefault("ELASTICSEARCH_SKILL_INDEX", "skills")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SKILL_CACHE_TTL", "5m")
	v.SetDefault("EXPORT_TMP_DIR", "./data/export")
	v.SetDefault("OBJECT_STORE", ObjectStoreLocal)
	v.SetDefault("S3_PREFIX", "exports/")
	v.SetDefault("EXPORT_RATE_LIMIT", 1.0)
	v.SetDefault("EXPORT_RATE_BURST", 5)
	v.SetDefault("AUTH_REQUIRED", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_SAMPLER_RATIO", 1.0)
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) Config {
	env := normalizeEnv(v.GetString("ENV"))
	dbURL := strings.TrimSpace(v.GetString("DATABASE_URL"))
	store := normalizeStore(v.GetString("CV_STORE"), dbURL)

	if env == "production" && store == StorePostgres && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}
	secret := v.GetString("JWT_SECRET")
	if env == "production" && v.GetBool("AUTH_REQUIRED") && secret == "" {
		log.Printf("JWT_SECRET is required when AUTH_REQUIRED is set")
	}

	ttl := v.GetDuration("SKILL_CACHE_TTL")
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	objectStore := normalizeObjectStore(v.GetString("OBJECT_STORE"))
	if objectStore == ObjectStoreS3 && strings.TrimSpace(v.GetString("S3_BUCKET")) == "" {
		log.Printf("S3_BUCKET is empty; falling back to local object store")
		objectStore = ObjectStoreLocal
	}

	ratio := v.GetFloat64("OTEL_SAMPLER_RATIO")
	if ratio < 0 || ratio > 1 {
		ratio = 1
	}

	return Config{
		Env:             env,
		Port:            v.GetString("PORT"),
		URIPrefix:       strings.TrimRight(strings.TrimSpace(v.GetString("URI_PREFIX")), "/"),
		CORSAllowOrigin: splitAndTrim(v.GetString("CORS_ALLOW_ORIGINS")),
		DatabaseURL:     dbURL,
		DB: DBConfig{
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
			ConnMaxIdleTime: v.GetDuration("DB_CONN_MAX_IDLE_TIME"),
			PingTimeout:     v.GetDuration("DB_PING_TIMEOUT"),
			ApplicationName: strings.TrimSpace(v.GetString("DB_APPLICATION_NAME")),
		},
		Store: store,
		Elasticsearch: ElasticsearchConfig{
			Addresses:  splitAndTrim(v.GetString("ELASTICSEARCH_ADDRESSES")),
			Username:   v.GetString("ELASTICSEARCH_USERNAME"),
			Password:   v.GetString("ELASTICSEARCH_PASSWORD"),
			CVIndex:    v.GetString("ELASTICSEARCH_CV_INDEX"),
			SkillIndex: v.GetString("ELASTICSEARCH_SKILL_INDEX"),
		},
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(v.GetString("REDIS_ADDR")),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		SkillCacheTTL:   ttl,
		TemplatePath:    strings.TrimSpace(v.GetString("TEMPLATE_PATH")),
		ExportTmpDir:    v.GetString("EXPORT_TMP_DIR"),
		ObjectStoreType: objectStore,
		S3: S3Config{
			Region:   strings.TrimSpace(v.GetString("AWS_REGION")),
			Bucket:   strings.TrimSpace(v.GetString("S3_BUCKET")),
			Prefix:   v.GetString("S3_PREFIX"),
			KMSKeyID: v.GetString("S3_KMS_KEY_ID"),
		},
		ExportRateLimit:  v.GetFloat64("EXPORT_RATE_LIMIT"),
		ExportRateBurst:  v.GetInt("EXPORT_RATE_BURST"),
		AuthRequired:     v.GetBool("AUTH_REQUIRED"),
		JWTSecret:        secret,
		LogLevel:         strings.ToLower(strings.TrimSpace(v.GetString("LOG_LEVEL"))),
		OTelEnabled:      v.GetBool("OTEL_ENABLED"),
		OTelSamplerRatio: ratio,
	}
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

// normalizeStore picks the CV and skill backend. Without an explicit choice
// postgres is used when a database URL is configured.
func normalizeStore(raw, dbURL string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "postgres", "pg":
		return StorePostgres
	case "elasticsearch", "es":
		return StoreElasticsearch
	case "memory":
		return StoreMemory
	}
	if dbURL != "" {
		return StorePostgres
	}
	return StoreMemory
}

func normalizeObjectStore(raw string) string {
	if strings.ToLower(strings.TrimSpace(raw)) == ObjectStoreS3 {
		return ObjectStoreS3
	}
	return ObjectStoreLocal
}
