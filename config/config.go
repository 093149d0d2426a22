package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/FACorreiaa/go-trip-budget/internal/types"
)

//go:embed config.yml
var embeddedConfig []byte

type JWTConfig struct {
	SecretKey string `mapstructure:"secretKey"`
	Issuer    string `mapstructure:"issuer"`
	Audience  string `mapstructure:"audience"`
}

// PlannerConfig bounds the editing engine and holds the base cost records of
// each travel style, in major currency units.
type PlannerConfig struct {
	MaxDays            int                                   `mapstructure:"maxDays"`
	DefaultDays        int                                   `mapstructure:"defaultDays"`
	SessionTTL         time.Duration                         `mapstructure:"sessionTTL"`
	ConfirmationTTL    time.Duration                         `mapstructure:"confirmationTTL"`
	DefaultTravelStyle types.TravelStyle                     `mapstructure:"defaultTravelStyle"`
	TravelStyles       map[types.TravelStyle]types.BaseCosts `mapstructure:"travelStyles"`
}

// BaseCosts returns the record for style, falling back to the default style.
func (p PlannerConfig) BaseCosts(style types.TravelStyle) types.BaseCosts {
	if b, ok := p.TravelStyles[style]; ok {
		return b
	}
	return p.TravelStyles[p.DefaultTravelStyle]
}

type GeocodingConfig struct {
	BaseURL           string        `mapstructure:"baseURL"`
	UserAgent         string        `mapstructure:"userAgent"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requestsPerSecond"`
	CacheTTL          time.Duration `mapstructure:"cacheTTL"`
	BatchConcurrency  int           `mapstructure:"batchConcurrency"`
	BatchMaxSize      int           `mapstructure:"batchMaxSize"`
}

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
		HTTPPort string        `mapstructure:"HTTPPort"`
		Timeout  time.Duration `mapstructure:"HTTPTimeout"`
	} `mapstructure:"server"`
	CORS struct {
		AllowedOrigins []string `mapstructure:"allowedOrigins"`
	} `mapstructure:"cors"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Planner   PlannerConfig   `mapstructure:"planner"`
	Geocoding GeocodingConfig `mapstructure:"geocoding"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")
	v.AddConfigPath("/usr/local/bin")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	// TRIP_JWT_SECRETKEY overrides jwt.secretKey, and so on.
	v.SetEnvPrefix("trip")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err = config.Validate(); err != nil {
		return Config{}, err
	}
	fmt.Println("Successfully loaded app configs...")
	return config, nil
}

// Validate fills planner defaults and rejects unusable travel style tables.
func (c *Config) Validate() error {
	if c.Planner.MaxDays <= 0 {
		c.Planner.MaxDays = 30
	}
	if c.Planner.DefaultDays <= 0 {
		c.Planner.DefaultDays = 3
	}
	if c.Planner.SessionTTL <= 0 {
		c.Planner.SessionTTL = time.Hour
	}
	if c.Planner.ConfirmationTTL <= 0 {
		c.Planner.ConfirmationTTL = 5 * time.Minute
	}
	if c.Planner.DefaultTravelStyle == "" {
		c.Planner.DefaultTravelStyle = types.TravelStyleMidRange
	}
	if !c.Planner.DefaultTravelStyle.Valid() {
		return fmt.Errorf("invalid planner.defaultTravelStyle %q", c.Planner.DefaultTravelStyle)
	}
	for style := range c.Planner.TravelStyles {
		if !style.Valid() {
			return fmt.Errorf("invalid travel style %q in planner.travelStyles", style)
		}
	}
	if _, ok := c.Planner.TravelStyles[c.Planner.DefaultTravelStyle]; !ok {
		return fmt.Errorf("planner.travelStyles has no entry for default style %q", c.Planner.DefaultTravelStyle)
	}
	if c.Geocoding.BatchConcurrency <= 0 {
		c.Geocoding.BatchConcurrency = 1
	}
	if c.Geocoding.BatchMaxSize <= 0 {
		c.Geocoding.BatchMaxSize = 25
	}
	return nil
}
