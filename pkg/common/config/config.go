package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	ServerHost          string
	MatchingServicePort string
	ImportServicePort   string
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration

	// Database
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Kafka
	KafkaBrokers      []string
	KafkaCatalogTopic string

	// Vocabulary
	VocabularyPath string

	// Matching
	PersonalizedPageSize int
	BrowsePageSize       int

	// Import connectors
	EuropePMCBaseURL      string
	ClinicalTrialsBaseURL string
	ORCIDBaseURL          string
	ORCIDTokenURL         string
	ORCIDClientID         string
	ORCIDClientSecret     string
	ORCIDResearcherIDs    []string
	ImportTimeout         time.Duration
	ImportMaxPerConnector int
	ImportCacheTTL        time.Duration

	// Summary generator
	SummaryAPIKey    string
	SummaryBaseURL   string
	SummaryModelName string
	SummaryMaxChars  int
}

func Load() *Config {
	return &Config{
		ServerHost:          getEnv("SERVER_HOST", "0.0.0.0"),
		MatchingServicePort: getEnv("MATCHING_SERVICE_PORT", "8080"),
		ImportServicePort:   getEnv("IMPORT_SERVICE_PORT", "8081"),
		ReadTimeout:         getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:        getDuration("WRITE_TIMEOUT", 30*time.Second),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "trialbridge"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "trialbridge123"),
		PostgresDB:       getEnv("POSTGRES_DB", "trialbridge"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		KafkaBrokers:      getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaCatalogTopic: getEnv("KAFKA_CATALOG_TOPIC", "catalog.events"),

		VocabularyPath: getEnv("VOCABULARY_PATH", ""),

		PersonalizedPageSize: getIntEnv("PERSONALIZED_PAGE_SIZE", 20),
		BrowsePageSize:       getIntEnv("BROWSE_PAGE_SIZE", 50),

		EuropePMCBaseURL:      getEnv("EUROPEPMC_BASE_URL", "https://www.ebi.ac.uk/europepmc/webservices/rest"),
		ClinicalTrialsBaseURL: getEnv("CLINICALTRIALS_BASE_URL", "https://clinicaltrials.gov"),
		ORCIDBaseURL:          getEnv("ORCID_BASE_URL", "https://pub.orcid.org"),
		ORCIDTokenURL:         getEnv("ORCID_TOKEN_URL", "https://orcid.org/oauth/token"),
		ORCIDClientID:         getEnv("ORCID_CLIENT_ID", ""),
		ORCIDClientSecret:     getEnv("ORCID_CLIENT_SECRET", ""),
		ORCIDResearcherIDs:    getStringSliceEnv("ORCID_RESEARCHER_IDS", nil),
		ImportTimeout:         getDuration("IMPORT_TIMEOUT", 10*time.Second),
		ImportMaxPerConnector: getIntEnv("IMPORT_MAX_PER_CONNECTOR", 5),
		ImportCacheTTL:        getDuration("IMPORT_CACHE_TTL", 15*time.Minute),

		SummaryAPIKey:    getEnv("SUMMARY_API_KEY", ""),
		SummaryBaseURL:   getEnv("SUMMARY_BASE_URL", "https://api.openai.com/v1"),
		SummaryModelName: getEnv("SUMMARY_MODEL_NAME", "gpt-4o-mini"),
		SummaryMaxChars:  getIntEnv("SUMMARY_MAX_CHARS", 240),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
