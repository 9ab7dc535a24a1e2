package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port                   string        `mapstructure:"PORT"`
	Env                    string        `mapstructure:"ENV"`
	CORSOrigins            []string      `mapstructure:"CORS_ORIGINS"`
	JWTSigningKey          string        `mapstructure:"JWT_SIGNING_KEY"`
	SessionTTL             time.Duration `mapstructure:"SESSION_TTL"`
	StaffPassphrase        string        `mapstructure:"STAFF_PASSPHRASE"`
	DefaultClinicID        string        `mapstructure:"DEFAULT_CLINIC_ID"`
	DefaultConsultationFee float64       `mapstructure:"DEFAULT_CONSULTATION_FEE"`
	SeedPatients           int           `mapstructure:"SEED_PATIENTS"`
	SeedRandom             int64         `mapstructure:"SEED_RANDOM"`
}

// devSigningKey signs session tokens in development when JWT_SIGNING_KEY is unset.
const devSigningKey = "eternal-branch-development-signing-key"

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("SESSION_TTL", "12h")
	v.SetDefault("STAFF_PASSPHRASE", "password123")
	v.SetDefault("DEFAULT_CLINIC_ID", "clinic-1")
	v.SetDefault("DEFAULT_CONSULTATION_FEE", 150)
	v.SetDefault("SEED_PATIENTS", 0)
	v.SetDefault("SEED_RANDOM", 0)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("JWT_SIGNING_KEY")
	v.BindEnv("SESSION_TTL")
	v.BindEnv("STAFF_PASSPHRASE")
	v.BindEnv("DEFAULT_CLINIC_ID")
	v.BindEnv("DEFAULT_CONSULTATION_FEE")
	v.BindEnv("SEED_PATIENTS")
	v.BindEnv("SEED_RANDOM")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.JWTSigningKey == "" && cfg.IsDev() {
		cfg.JWTSigningKey = devSigningKey
	}

	if cfg.IsDev() {
		log.Println("WARNING: ============================================================")
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: Requests without a session token get superadmin access.")
		log.Println("WARNING: Set ENV=production and JWT_SIGNING_KEY before exposing it.")
		log.Println("WARNING: ============================================================")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Outside development a
// JWT signing key of at least 32 bytes is required.
func (c *Config) Validate() error {
	if !c.IsDev() {
		if c.JWTSigningKey == "" {
			return fmt.Errorf("JWT_SIGNING_KEY is required when ENV=%q", c.Env)
		}
		if len(c.JWTSigningKey) < 32 {
			return fmt.Errorf("JWT_SIGNING_KEY must be at least 32 bytes, got %d", len(c.JWTSigningKey))
		}
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.StaffPassphrase == "" {
		return fmt.Errorf("STAFF_PASSPHRASE must not be empty")
	}
	if c.DefaultConsultationFee < 0 {
		return fmt.Errorf("DEFAULT_CONSULTATION_FEE must not be negative, got %v", c.DefaultConsultationFee)
	}
	if c.SeedPatients < 0 {
		return fmt.Errorf("SEED_PATIENTS must not be negative, got %d", c.SeedPatients)
	}
	return nil
}
