// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	configPath     = pflag.String("config", ".", "Directory to look for config.toml in")
	validLogLevels = []string{"debug", "info", "warn", "error", "fatal"}
)

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(*configPath)

	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "app_log_level")

	v.BindEnv("host.port", "host_port")
	v.BindEnv("host.cors_origins", "host_cors_origins")

	v.BindEnv("media.root", "media_root")
	v.BindEnv("media.thumbnail_cache", "media_thumbnail_cache")
	v.BindEnv("media.probe_timeout", "media_probe_timeout")

	v.BindEnv("db.path", "db_path")

	v.BindEnv("jwt.secret", "jwt_secret")
	v.BindEnv("jwt.ttl_hours", "jwt_ttl_hours")

	v.BindEnv("admin.username", "admin_username")
	v.BindEnv("admin.password", "admin_password")

	v.BindEnv("ffmpeg.path", "ffmpeg_path")
	v.BindEnv("ffmpeg.ffprobe_path", "ffmpeg_ffprobe_path")

	v.BindEnv("upload.max_size", "upload_max_size")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.cors_origins", []string{"http://localhost:5173"})

	v.SetDefault("media.thumbnail_cache", "thumbcache")
	v.SetDefault("media.probe_timeout", "5s")

	v.SetDefault("db.path", "users.db")

	v.SetDefault("jwt.ttl_hours", 72)

	v.SetDefault("admin.username", "admin")

	v.SetDefault("ffmpeg.path", "ffmpeg")
	v.SetDefault("ffmpeg.ffprobe_path", "ffprobe")

	// Max upload size in MiB
	v.SetDefault("upload.max_size", 500)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); ok {
			return errors.New("config.toml file is missing")
		}

		return fmt.Errorf("failed to read config file, %w", err)
	}

	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	root := v.GetString("media.root")
	if root == "" {
		return errors.New("media.root must point at the directory to serve")
	}

	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve media.root, %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("media.root is not accessible, %w", err)
	}

	if !info.IsDir() {
		return errors.New("media.root must be a directory")
	}
	v.Set("media.root", root)

	if v.GetString("jwt.secret") == "" {
		fmt.Println("WARNING: You haven't set a JWT secret, so it has been generated for you. Please set it as an environment variable or in the config.toml file.\nYour random JWT secret:\n\n" + genSecret() + "\n\nPaste it into your config.toml file.")
		os.Exit(0)
	}

	if v.GetInt("jwt.ttl_hours") <= 0 {
		return errors.New("jwt.ttl_hours must be bigger than 0")
	}

	if v.GetString("admin.password") == "" {
		return errors.New("admin.password must be set so the first admin account can be created")
	}

	if v.GetDuration("media.probe_timeout") <= 0 {
		return errors.New("media.probe_timeout must be a positive duration")
	}

	if v.GetInt("upload.max_size") <= 0 {
		return errors.New("upload.max_size must be bigger than 0")
	}

	if err := os.MkdirAll(v.GetString("media.thumbnail_cache"), 0o755); err != nil {
		return fmt.Errorf("failed to create thumbnail cache directory, %w", err)
	}

	v.Set("upload.max_size", v.GetInt64("upload.max_size")<<20)
	return nil
}
