package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Scoring   ScoringConfig   `mapstructure:"scoring"`
	Checks    ChecksConfig    `mapstructure:"checks"`
	Inference InferenceConfig `mapstructure:"inference"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
	Debug       bool   `mapstructure:"debug"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	HTTPPort        int           `mapstructure:"http_port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

type RedisConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
	TLS       bool   `mapstructure:"tls"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	RequestsPerHour   int  `mapstructure:"requests_per_hour"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	TimeFormat string `mapstructure:"time_format"`
}

// ScoringConfig centralizes every scoring constant used by the analyzers so
// the weights can be tuned without touching analyzer code.
type ScoringConfig struct {
	Text     TextScoringConfig     `mapstructure:"text"`
	URL      URLScoringConfig      `mapstructure:"url"`
	Combined CombinedScoringConfig `mapstructure:"combined"`
}

type TextScoringConfig struct {
	KeywordWeight      float64 `mapstructure:"keyword_weight"`
	KeywordScoreCap    float64 `mapstructure:"keyword_score_cap"`
	UrgencyBonus       float64 `mapstructure:"urgency_bonus"`
	FinancialBonus     float64 `mapstructure:"financial_bonus"`
	ActionBonus        float64 `mapstructure:"action_bonus"`
	ScoreCap           float64 `mapstructure:"score_cap"`
	FlagThreshold      float64 `mapstructure:"flag_threshold"`
	ModelFlagThreshold float64 `mapstructure:"model_flag_threshold"`
}

type URLScoringConfig struct {
	IPAddress          float64 `mapstructure:"ip_address"`
	Shortener          float64 `mapstructure:"shortener"`
	TrustedDomain      float64 `mapstructure:"trusted_domain"`
	ExcessSubdomains   float64 `mapstructure:"excess_subdomains"`
	SuspiciousKeyword  float64 `mapstructure:"suspicious_keyword"`
	LongDomain         float64 `mapstructure:"long_domain"`
	ExcessHyphens      float64 `mapstructure:"excess_hyphens"`
	Base64Payload      float64 `mapstructure:"base64_payload"`
	RiskyExtension     float64 `mapstructure:"risky_extension"`
	LongURL            float64 `mapstructure:"long_url"`
	ManyRedirects      float64 `mapstructure:"many_redirects"`
	SomeRedirects      float64 `mapstructure:"some_redirects"`
	SingleRedirect     float64 `mapstructure:"single_redirect"`
	SuspiciousRedirect float64 `mapstructure:"suspicious_redirect"`
	VeryNewDomain      float64 `mapstructure:"very_new_domain"`
	RecentDomain       float64 `mapstructure:"recent_domain"`
	EstablishedDomain  float64 `mapstructure:"established_domain"`
	NXDomain           float64 `mapstructure:"nxdomain"`
	SuspiciousIP       float64 `mapstructure:"suspicious_ip"`
	MissingMX          float64 `mapstructure:"missing_mx"`
	HighThreshold      float64 `mapstructure:"high_threshold"`
	MediumThreshold    float64 `mapstructure:"medium_threshold"`
	LowThreshold       float64 `mapstructure:"low_threshold"`
	BaseConfidence     float64 `mapstructure:"base_confidence"`
	ConfidenceStep     float64 `mapstructure:"confidence_step"`
	ConfidenceCap      float64 `mapstructure:"confidence_cap"`
}

type CombinedScoringConfig struct {
	TextWeight        float64 `mapstructure:"text_weight"`
	URLWeight         float64 `mapstructure:"url_weight"`
	MultiVectorBonus  float64 `mapstructure:"multi_vector_bonus"`
	BonusURLThreshold float64 `mapstructure:"bonus_url_threshold"`
	FlaggedTextFloor  float64 `mapstructure:"flagged_text_floor"`
	CriticalThreshold float64 `mapstructure:"critical_threshold"`
	HighThreshold     float64 `mapstructure:"high_threshold"`
	MediumThreshold   float64 `mapstructure:"medium_threshold"`
	LowThreshold      float64 `mapstructure:"low_threshold"`
	ThreatThreshold   float64 `mapstructure:"threat_threshold"`
}

// ChecksConfig controls the network-dependent URL checks.
type ChecksConfig struct {
	RedirectsEnabled bool          `mapstructure:"redirects_enabled"`
	DomainAgeEnabled bool          `mapstructure:"domain_age_enabled"`
	DNSEnabled       bool          `mapstructure:"dns_enabled"`
	RedirectTimeout  time.Duration `mapstructure:"redirect_timeout"`
	MaxRedirects     int           `mapstructure:"max_redirects"`
	WhoisTimeout     time.Duration `mapstructure:"whois_timeout"`
	DNSTimeout       time.Duration `mapstructure:"dns_timeout"`
	AnalysisTimeout  time.Duration `mapstructure:"analysis_timeout"`
	CacheTTL         time.Duration `mapstructure:"cache_ttl"`
}

// InferenceConfig points at an optional remote text-classification service.
type InferenceConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	URL     string        `mapstructure:"url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DefaultScoringConfig returns the canonical scoring constants.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Text: TextScoringConfig{
			KeywordWeight:      0.15,
			KeywordScoreCap:    0.7,
			UrgencyBonus:       0.2,
			FinancialBonus:     0.2,
			ActionBonus:        0.15,
			ScoreCap:           0.95,
			FlagThreshold:      0.5,
			ModelFlagThreshold: 0.6,
		},
		URL: URLScoringConfig{
			IPAddress:          0.4,
			Shortener:          0.3,
			TrustedDomain:      -0.2,
			ExcessSubdomains:   0.2,
			SuspiciousKeyword:  0.15,
			LongDomain:         0.1,
			ExcessHyphens:      0.1,
			Base64Payload:      0.2,
			RiskyExtension:     0.3,
			LongURL:            0.1,
			ManyRedirects:      0.3,
			SomeRedirects:      0.15,
			SingleRedirect:     0.05,
			SuspiciousRedirect: 0.2,
			VeryNewDomain:      0.3,
			RecentDomain:       0.15,
			EstablishedDomain:  -0.1,
			NXDomain:           0.4,
			SuspiciousIP:       0.2,
			MissingMX:          0.05,
			HighThreshold:      0.7,
			MediumThreshold:    0.4,
			LowThreshold:       0.2,
			BaseConfidence:     0.6,
			ConfidenceStep:     0.05,
			ConfidenceCap:      0.95,
		},
		Combined: CombinedScoringConfig{
			TextWeight:        0.6,
			URLWeight:         0.4,
			MultiVectorBonus:  0.2,
			BonusURLThreshold: 0.4,
			FlaggedTextFloor:  0.7,
			CriticalThreshold: 0.8,
			HighThreshold:     0.6,
			MediumThreshold:   0.4,
			LowThreshold:      0.2,
			ThreatThreshold:   0.5,
		},
	}
}

// DefaultChecksConfig returns check settings suitable for production use.
func DefaultChecksConfig() ChecksConfig {
	return ChecksConfig{
		RedirectsEnabled: true,
		DomainAgeEnabled: true,
		DNSEnabled:       true,
		RedirectTimeout:  5 * time.Second,
		MaxRedirects:     10,
		WhoisTimeout:     10 * time.Second,
		DNSTimeout:       5 * time.Second,
		AnalysisTimeout:  30 * time.Second,
		CacheTTL:         time.Hour,
	}
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/phishguard")
	}

	setDefaults(v)

	// Environment variables
	v.SetEnvPrefix("PHISHGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind nested env vars explicitly (viper doesn't auto-bind nested struct fields)
	v.BindEnv("server.http_port", "PHISHGUARD_SERVER_HTTP_PORT")
	v.BindEnv("redis.enabled", "PHISHGUARD_REDIS_ENABLED")
	v.BindEnv("redis.host", "PHISHGUARD_REDIS_HOST")
	v.BindEnv("redis.port", "PHISHGUARD_REDIS_PORT")
	v.BindEnv("redis.password", "PHISHGUARD_REDIS_PASSWORD")
	v.BindEnv("redis.tls", "PHISHGUARD_REDIS_TLS")
	v.BindEnv("database.enabled", "PHISHGUARD_DATABASE_ENABLED")
	v.BindEnv("database.host", "PHISHGUARD_DATABASE_HOST")
	v.BindEnv("database.port", "PHISHGUARD_DATABASE_PORT")
	v.BindEnv("database.user", "PHISHGUARD_DATABASE_USER")
	v.BindEnv("database.password", "PHISHGUARD_DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "PHISHGUARD_DATABASE_DBNAME")
	v.BindEnv("database.sslmode", "PHISHGUARD_DATABASE_SSLMODE")
	v.BindEnv("inference.enabled", "PHISHGUARD_INFERENCE_ENABLED")
	v.BindEnv("inference.url", "PHISHGUARD_INFERENCE_URL")
	v.BindEnv("inference.api_key", "PHISHGUARD_INFERENCE_API_KEY")
	v.BindEnv("app.environment", "PHISHGUARD_APP_ENVIRONMENT")

	// The config file is optional; defaults plus env vars are enough to run.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadDefault loads configuration with default path
func LoadDefault() (*Config, error) {
	return Load("")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "phishguard")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "2.0.0")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "phishguard")
	v.SetDefault("database.dbname", "phishguard")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "phishguard:")

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Accept", "Content-Type", "X-Request-ID"})
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("ratelimit.enabled", false)
	v.SetDefault("ratelimit.requests_per_minute", 60)
	v.SetDefault("ratelimit.requests_per_hour", 1000)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")

	v.SetDefault("inference.enabled", false)
	v.SetDefault("inference.timeout", "10s")

	sc := DefaultScoringConfig()
	v.SetDefault("scoring.text.keyword_weight", sc.Text.KeywordWeight)
	v.SetDefault("scoring.text.keyword_score_cap", sc.Text.KeywordScoreCap)
	v.SetDefault("scoring.text.urgency_bonus", sc.Text.UrgencyBonus)
	v.SetDefault("scoring.text.financial_bonus", sc.Text.FinancialBonus)
	v.SetDefault("scoring.text.action_bonus", sc.Text.ActionBonus)
	v.SetDefault("scoring.text.score_cap", sc.Text.ScoreCap)
	v.SetDefault("scoring.text.flag_threshold", sc.Text.FlagThreshold)
	v.SetDefault("scoring.text.model_flag_threshold", sc.Text.ModelFlagThreshold)
	v.SetDefault("scoring.url.ip_address", sc.URL.IPAddress)
	v.SetDefault("scoring.url.shortener", sc.URL.Shortener)
	v.SetDefault("scoring.url.trusted_domain", sc.URL.TrustedDomain)
	v.SetDefault("scoring.url.excess_subdomains", sc.URL.ExcessSubdomains)
	v.SetDefault("scoring.url.suspicious_keyword", sc.URL.SuspiciousKeyword)
	v.SetDefault("scoring.url.long_domain", sc.URL.LongDomain)
	v.SetDefault("scoring.url.excess_hyphens", sc.URL.ExcessHyphens)
	v.SetDefault("scoring.url.base64_payload", sc.URL.Base64Payload)
	v.SetDefault("scoring.url.risky_extension", sc.URL.RiskyExtension)
	v.SetDefault("scoring.url.long_url", sc.URL.LongURL)
	v.SetDefault("scoring.url.many_redirects", sc.URL.ManyRedirects)
	v.SetDefault("scoring.url.some_redirects", sc.URL.SomeRedirects)
	v.SetDefault("scoring.url.single_redirect", sc.URL.SingleRedirect)
	v.SetDefault("scoring.url.suspicious_redirect", sc.URL.SuspiciousRedirect)
	v.SetDefault("scoring.url.very_new_domain", sc.URL.VeryNewDomain)
	v.SetDefault("scoring.url.recent_domain", sc.URL.RecentDomain)
	v.SetDefault("scoring.url.established_domain", sc.URL.EstablishedDomain)
	v.SetDefault("scoring.url.nxdomain", sc.URL.NXDomain)
	v.SetDefault("scoring.url.suspicious_ip", sc.URL.SuspiciousIP)
	v.SetDefault("scoring.url.missing_mx", sc.URL.MissingMX)
	v.SetDefault("scoring.url.high_threshold", sc.URL.HighThreshold)
	v.SetDefault("scoring.url.medium_threshold", sc.URL.MediumThreshold)
	v.SetDefault("scoring.url.low_threshold", sc.URL.LowThreshold)
	v.SetDefault("scoring.url.base_confidence", sc.URL.BaseConfidence)
	v.SetDefault("scoring.url.confidence_step", sc.URL.ConfidenceStep)
	v.SetDefault("scoring.url.confidence_cap", sc.URL.ConfidenceCap)
	v.SetDefault("scoring.combined.text_weight", sc.Combined.TextWeight)
	v.SetDefault("scoring.combined.url_weight", sc.Combined.URLWeight)
	v.SetDefault("scoring.combined.multi_vector_bonus", sc.Combined.MultiVectorBonus)
	v.SetDefault("scoring.combined.bonus_url_threshold", sc.Combined.BonusURLThreshold)
	v.SetDefault("scoring.combined.flagged_text_floor", sc.Combined.FlaggedTextFloor)
	v.SetDefault("scoring.combined.critical_threshold", sc.Combined.CriticalThreshold)
	v.SetDefault("scoring.combined.high_threshold", sc.Combined.HighThreshold)
	v.SetDefault("scoring.combined.medium_threshold", sc.Combined.MediumThreshold)
	v.SetDefault("scoring.combined.low_threshold", sc.Combined.LowThreshold)
	v.SetDefault("scoring.combined.threat_threshold", sc.Combined.ThreatThreshold)

	cc := DefaultChecksConfig()
	v.SetDefault("checks.redirects_enabled", cc.RedirectsEnabled)
	v.SetDefault("checks.domain_age_enabled", cc.DomainAgeEnabled)
	v.SetDefault("checks.dns_enabled", cc.DNSEnabled)
	v.SetDefault("checks.redirect_timeout", "5s")
	v.SetDefault("checks.max_redirects", cc.MaxRedirects)
	v.SetDefault("checks.whois_timeout", "10s")
	v.SetDefault("checks.dns_timeout", "5s")
	v.SetDefault("checks.analysis_timeout", "30s")
	v.SetDefault("checks.cache_ttl", "1h")
}
