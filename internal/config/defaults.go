package config

// DefaultConfig returns the development defaults. Production deployments
// are expected to override environment, index_ttl_minutes and jwt_secret.
func DefaultConfig() *Config {
	return &Config{
		Environment:       EnvDevelopment,
		Port:              8080,
		DataDir:           "data",
		ContentDir:        "content",
		CDNBaseURL:        "",
		APIBaseURL:        "http://localhost:8080",
		IndexTTLMinutes:   0,
		TransitionMillis:  250,
		ContentCacheLimit: 256,
		AutoApproveUsers:  false,
		AllowAllOrigins:   true,
	}
}

// ProductionDefaults overlays the values that differ in production:
// a ten minute index TTL and strict CORS.
func ProductionDefaults() *Config {
	cfg := DefaultConfig()
	cfg.Environment = EnvProduction
	cfg.IndexTTLMinutes = 10
	cfg.AllowAllOrigins = false
	return cfg
}
