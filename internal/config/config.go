// Package config loads service settings from defaults, an optional config
// file, environment variables and command line flags, in increasing order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cmsadmin/internal/storage"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Addr       string
	BackendURL string
	RedisAddr  string
	JWTSecret  string

	// Browser origins allowed to open the notification socket; empty allows any
	AllowedOrigins []string

	BackendTimeout time.Duration
	CacheSize      int
	CacheTTL       time.Duration
	PreviewTTL     time.Duration

	// Local upload fallback when no bucket is configured
	UploadDir string
	PublicURL string

	S3 storage.S3Config
}

// UseS3 reports whether cloud uploads go to a bucket
func (c *Config) UseS3() bool { return c.S3.Bucket != "" }

var defaults = map[string]any{
	"addr":            ":8080",
	"backend_url":     "http://localhost:3000/api",
	"redis_addr":      "",
	"jwt_secret":      "",
	"allowed_origins": []string{},
	"backend_timeout": "30s",
	"cache_size":      256,
	"cache_ttl":       "30s",
	"preview_ttl":     "30m",
	"upload_dir":      "./uploads",
	"public_url":      "http://localhost:8080",
	"s3.region":       "us-east-1",
	"s3.endpoint":     "",
	"s3.access_key":   "",
	"s3.secret_key":   "",
	"s3.bucket":       "",
	"s3.public_url":   "",
}

// Flags registers the command line overrides on fs
func Flags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a config file (yaml, json or toml)")
	fs.String("addr", "", "listen address")
	fs.String("backend-url", "", "base URL of the content API")
	fs.String("redis-addr", "", "redis address; empty keeps previews in memory")
}

var flagKeys = map[string]string{
	"addr":        "addr",
	"backend-url": "backend_url",
	"redis-addr":  "redis_addr",
}

// Load resolves the configuration. fs may be nil when no flags apply.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for flag, key := range flagKeys {
			if f := fs.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
		if f := fs.Lookup("config"); f != nil && f.Value.String() != "" {
			v.SetConfigFile(f.Value.String())
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{
		Addr:           v.GetString("addr"),
		BackendURL:     v.GetString("backend_url"),
		RedisAddr:      v.GetString("redis_addr"),
		JWTSecret:      v.GetString("jwt_secret"),
		AllowedOrigins: v.GetStringSlice("allowed_origins"),
		BackendTimeout: v.GetDuration("backend_timeout"),
		CacheSize:      v.GetInt("cache_size"),
		CacheTTL:       v.GetDuration("cache_ttl"),
		PreviewTTL:     v.GetDuration("preview_ttl"),
		UploadDir:      v.GetString("upload_dir"),
		PublicURL:      v.GetString("public_url"),
		S3: storage.S3Config{
			Region:        v.GetString("s3.region"),
			Endpoint:      v.GetString("s3.endpoint"),
			AccessKey:     v.GetString("s3.access_key"),
			SecretKey:     v.GetString("s3.secret_key"),
			Bucket:        v.GetString("s3.bucket"),
			PublicBaseURL: v.GetString("s3.public_url"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.BackendURL == "" {
		errs = append(errs, errors.New("backend url is required"))
	}
	if c.CacheSize <= 0 {
		errs = append(errs, errors.New("cache size must be positive"))
	}
	if c.PreviewTTL <= 0 {
		errs = append(errs, errors.New("preview ttl must be positive"))
	}
	if c.BackendTimeout <= 0 {
		errs = append(errs, errors.New("backend timeout must be positive"))
	}
	return errors.Join(errs...)
}
