package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode     string `mapstructure:"mode"`
	Dotenv   string `mapstructure:"dotenv"`
	Handlers struct {
		Prometheus struct {
			Port string `mapstructure:"port"`
		} `mapstructure:"prometheus"`
	} `mapstructure:"handlers"`
	Repositories struct {
		Postgres struct {
			Host              string `mapstructure:"host"`
			Password          string `mapstructure:"password"`
			Port              string `mapstructure:"port"`
			Username          string `mapstructure:"username"`
			DB                string `mapstructure:"db"`
			SSLMODE           string `mapstructure:"SSLMODE"`
			MAXCONWAITINGTIME int    `mapstructure:"MAXCONWAITINGTIME"`
		} `mapstructure:"postgres"`
	} `mapstructure:"repositories"`
	Server struct {
		HTTPPort   string        `mapstructure:"HTTPPort"`
		Timeout    time.Duration `mapstructure:"HTTPTimeout"`
		BackendURL string        `mapstructure:"backendURL"`
	} `mapstructure:"server"`
	JWT  JWTConfig          `mapstructure:"jwt"`
	ML   MachineLearningCfg `mapstructure:"ml"`
	HERE struct {
		APIKey      string        `mapstructure:"apiKey"`
		GeocodeURL  string        `mapstructure:"geocodeURL"`
		DiscoverURL string        `mapstructure:"discoverURL"`
		Timeout     time.Duration `mapstructure:"timeout"`
		CacheTTL    time.Duration `mapstructure:"cacheTTL"`
	} `mapstructure:"here"`
	GCP struct {
		// Credential is the base64 encoded service-account JSON.
		Credential string `mapstructure:"credential"`
		Bucket     string `mapstructure:"bucket"`
	} `mapstructure:"gcp"`
	Mail struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
	} `mapstructure:"mail"`
	Bot struct {
		Provider     string `mapstructure:"provider"`
		GeminiAPIKey string `mapstructure:"geminiAPIKey"`
		GeminiModel  string `mapstructure:"geminiModel"`
	} `mapstructure:"bot"`
	Observability struct {
		ServiceName string `mapstructure:"serviceName"`
	} `mapstructure:"observability"`
}

type JWTConfig struct {
	SecretKey        string        `mapstructure:"secretKey"`
	Issuer           string        `mapstructure:"issuer"`
	AccessTokenTTL   time.Duration `mapstructure:"accessTokenTTL"`
	RefreshTokenTTL  time.Duration `mapstructure:"refreshTokenTTL"`
	VerifyEmailTTL   time.Duration `mapstructure:"verifyEmailTTL"`
	ResetPasswordTTL time.Duration `mapstructure:"resetPasswordTTL"`
}

type MachineLearningCfg struct {
	BaseURL string        `mapstructure:"baseURL"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	// Add file-based config paths
	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")
	v.AddConfigPath("/usr/local/bin")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	// REPOSITORIES_POSTGRES_PASSWORD overrides repositories.postgres.password, etc.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Try to load file-based config
	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %s", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %s", err)
	}
	if config.JWT.SecretKey == "" {
		return Config{}, fmt.Errorf("jwt.secretKey must be set")
	}
	fmt.Println("Successfully loaded app configs...")
	return config, nil
}
