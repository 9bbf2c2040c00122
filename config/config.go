// Package config handles startup configuration: where the sounds live,
// where to listen, cookie keys and the knobs on uploads.  This is used by
// both clicktunesd and clicktunesadmin.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"maze.io/x/duration"
)

const (
	StoreBolt     = "bolt"
	StorePostgres = "postgres"
)

// Viper-based config loader.  Reads ~/.clicktunes (YAML) if present; any key
// can be overridden with CLICKTUNES_<KEY>.
func Init() {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	setDefaults(home)
	viper.SetConfigType("yaml")
	viper.SetConfigName(".clicktunes")
	viper.AddConfigPath(home)
	if err := viper.ReadInConfig(); err != nil { // missing file is fine
		zap.S().Infof("viper can't read config file: %v", err)
	}
	zap.S().Infof("using %s store, listen address %s", Store(), ListenAddress())
}

func setDefaults(home string) {
	viper.SetEnvPrefix("clicktunes")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("listen_address", ":8080")
	viper.SetDefault("store", StoreBolt)
	viper.SetDefault("bolt_path", filepath.Join(home, ".clicktunes.db"))
	viper.SetDefault("db_url", "")
	viper.SetDefault("sql_connector", "pgx")
	viper.SetDefault("manifest", "")
	viper.SetDefault("sounds_dir", "")
	viper.SetDefault("allowed_origins", []string{})
	viper.SetDefault("cookie_hash_key", "")
	viper.SetDefault("cookie_block_key", "")
	viper.SetDefault("secure_cookies", false)
	viper.SetDefault("session_cache_size", 1024)
	viper.SetDefault("sound_cache_size", 64)
	viper.SetDefault("static_max_age", "1h")
	viper.SetDefault("upload_limit", 5<<20)
	viper.SetDefault("add_rate", 1.0)
	viper.SetDefault("add_burst", 5)
	viper.SetDefault("probe_uploads", true)
	viper.SetDefault("filter_debounce", "300ms")
	viper.SetDefault("log_development", false)
}

func ListenAddress() string {
	return viper.GetString("listen_address")
}

// Store names the sound store backend, StoreBolt or StorePostgres.
func Store() string {
	return strings.ToLower(viper.GetString("store"))
}

func BoltPath() string {
	return viper.GetString("bolt_path")
}

func DBURL() string {
	return viper.GetString("db_url")
}

func SQLConnector() string {
	return viper.GetString("sql_connector")
}

// Manifest is a file path or http(s) URL for buttons.json.  Empty means
// the copy built into the binary.
func Manifest() string {
	return viper.GetString("manifest")
}

// SoundsDir is a directory served under /sounds/ for manifest clips.
func SoundsDir() string {
	return viper.GetString("sounds_dir")
}

// AllowedOrigins lists origins permitted to call the API cross-origin.
func AllowedOrigins() []string {
	return viper.GetStringSlice("allowed_origins")
}

func CookieHashKey() string {
	return viper.GetString("cookie_hash_key")
}

func CookieBlockKey() string {
	return viper.GetString("cookie_block_key")
}

func SecureCookies() bool {
	return viper.GetBool("secure_cookies")
}

func SessionCacheSize() int {
	return viper.GetInt("session_cache_size")
}

func SoundCacheSize() int {
	return viper.GetInt("sound_cache_size")
}

// StaticMaxAge accepts the long-form units ("1d", "2w") as well as
// anything time.ParseDuration does.  Unparseable values fall back to an
// hour.
func StaticMaxAge() time.Duration {
	s := viper.GetString("static_max_age")
	d, err := duration.ParseDuration(s)
	if err != nil {
		zap.S().Warnf("can't parse static_max_age %q: %v", s, err)
		return time.Hour
	}
	return time.Duration(d)
}

func UploadLimit() int64 {
	return viper.GetInt64("upload_limit")
}

// AddRate is the number of sound additions per second allowed per client.
func AddRate() float64 {
	return viper.GetFloat64("add_rate")
}

func AddBurst() int {
	return viper.GetInt("add_burst")
}

func ProbeUploads() bool {
	return viper.GetBool("probe_uploads")
}

func FilterDebounce() time.Duration {
	return viper.GetDuration("filter_debounce")
}

func LogDevelopment() bool {
	return viper.GetBool("log_development")
}
