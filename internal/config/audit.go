package config

import "time"

const (
	// MaxWorkers is the upper bound of the link checker pool
	MaxWorkers = 20
	// MaxLinksCap bounds link sampling regardless of configuration
	MaxLinksCap = 200
)

// AuditConfig holds the engine defaults applied when an invocation leaves an option unset
type AuditConfig struct {
	Workers             int
	MaxLinks            int
	FastMode            bool
	Timeout             time.Duration
	MaxRedirects        int
	MaxBodyBytes        int64
	HostRate            float64
	HostBurst           int
	InternalShare       float64
	UserAgent           string
	AllowPrivateTargets bool
}

// ScoringConfig holds the deduction per severity and the weight per category
type ScoringConfig struct {
	DeductHigh   int
	DeductMedium int
	DeductLow    int
	Weights      map[string]float64
}

// NewAuditConfig creates an AuditConfig with defaults
func NewAuditConfig() AuditConfig {
	return AuditConfig{
		Workers:             GetIntEnv("AUDIT_WORKERS", 10),
		MaxLinks:            GetIntEnv("AUDIT_MAX_LINKS", 25),
		FastMode:            GetBoolEnv("AUDIT_FAST_MODE", false),
		Timeout:             GetDurationEnv("AUDIT_TIMEOUT", 3*time.Second),
		MaxRedirects:        GetIntEnv("AUDIT_MAX_REDIRECTS", 5),
		MaxBodyBytes:        GetInt64Env("AUDIT_MAX_BODY_BYTES", 10<<20),
		HostRate:            GetFloatEnv("AUDIT_HOST_RATE", 20),
		HostBurst:           GetIntEnv("AUDIT_HOST_BURST", 10),
		InternalShare:       GetFloatEnv("AUDIT_INTERNAL_SHARE", 0.6),
		UserAgent:           GetEnv("AUDIT_USER_AGENT", "seoaudit/1.0 (+https://github.com/seoaudit)"),
		AllowPrivateTargets: GetBoolEnv("AUDIT_ALLOW_PRIVATE_TARGETS", false),
	}
}

// NewScoringConfig creates a ScoringConfig with defaults
func NewScoringConfig() ScoringConfig {
	return ScoringConfig{
		DeductHigh:   GetIntEnv("SCORE_DEDUCT_HIGH", 20),
		DeductMedium: GetIntEnv("SCORE_DEDUCT_MEDIUM", 10),
		DeductLow:    GetIntEnv("SCORE_DEDUCT_LOW", 5),
		Weights: map[string]float64{
			"technical":   GetFloatEnv("SCORE_WEIGHT_TECHNICAL", 0.25),
			"performance": GetFloatEnv("SCORE_WEIGHT_PERFORMANCE", 0.15),
			"mobile":      GetFloatEnv("SCORE_WEIGHT_MOBILE", 0.10),
			"security":    GetFloatEnv("SCORE_WEIGHT_SECURITY", 0.15),
			"social":      GetFloatEnv("SCORE_WEIGHT_SOCIAL", 0.10),
			"robots":      GetFloatEnv("SCORE_WEIGHT_ROBOTS", 0.10),
			"links":       GetFloatEnv("SCORE_WEIGHT_LINKS", 0.15),
		},
	}
}

// Config holds all configuration for the auditor service
type Config struct {
	Service    ServiceConfig
	HTTP       HTTPServerConfig
	HTTPClient HTTPClientConfig
	Metrics    MetricsConfig
	Tracing    TracingConfig
	NATS       NATSConfig
	Audit      AuditConfig
	Scoring    ScoringConfig
}

// Load loads the configuration for the auditor service
func Load() *Config {
	return &Config{
		Service:    NewServiceConfig("auditor"),
		HTTP:       NewHTTPServerConfig(":8080"),
		HTTPClient: NewHTTPClientConfig(),
		Metrics:    NewMetricsConfig("9091"),
		Tracing:    NewTracingConfig("auditor"),
		NATS:       NewNATSConfig(),
		Audit:      NewAuditConfig(),
		Scoring:    NewScoringConfig(),
	}
}

// ProgressConfig holds all configuration for the progress relay service
type ProgressConfig struct {
	Service   ServiceConfig
	HTTP      HTTPServerConfig
	Metrics   MetricsConfig
	Tracing   TracingConfig
	NATS      NATSConfig
	WebSocket WebSocketConfig
}

// LoadProgress loads the configuration for the progress relay service
func LoadProgress() *ProgressConfig {
	return &ProgressConfig{
		Service:   NewServiceConfig("progress"),
		HTTP:      NewHTTPServerConfig(":8081"),
		Metrics:   NewMetricsConfig("9092"),
		Tracing:   NewTracingConfig("progress"),
		NATS:      NewNATSConfig(),
		WebSocket: NewWebSocketConfig(),
	}
}
