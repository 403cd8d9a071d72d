package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL        string
	PgDSN         string
	FromBlock     uint64
	ToBlock       uint64
	Addresses     []string
	Topic0        []string
	BatchSize     uint64
	Cursor        string
	CursorEnabled bool
	MaxRetries    int
	RetryBackoff  time.Duration
	PollTimeout   time.Duration
	QueueSize     int
	FetchBalances bool
	DropJournal   string
	Prices        map[string]float64
	LogLevel      string
}

// Load merges config file, environment variables, and flags into Config.
// Environment variables use the ETHPARSER prefix with dashes as
// underscores.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ETHPARSER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("batch-size", uint64(2000))
	v.SetDefault("cursor", "./data/cursor.json")
	v.SetDefault("cursor-enabled", true)
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("poll-timeout", time.Second)
	v.SetDefault("queue-size", 100)
	v.SetDefault("drop-journal", "./data/drops.jsonl")
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:        v.GetString("rpc"),
		PgDSN:         v.GetString("pg-dsn"),
		FromBlock:     v.GetUint64("from"),
		ToBlock:       v.GetUint64("to"),
		Addresses:     getStringSlice(v, "address"),
		Topic0:        getStringSlice(v, "topic0"),
		BatchSize:     v.GetUint64("batch-size"),
		Cursor:        v.GetString("cursor"),
		CursorEnabled: v.GetBool("cursor-enabled"),
		MaxRetries:    v.GetInt("max-retries"),
		RetryBackoff:  v.GetDuration("retry-backoff"),
		PollTimeout:   v.GetDuration("poll-timeout"),
		QueueSize:     v.GetInt("queue-size"),
		FetchBalances: v.GetBool("fetch-balances"),
		DropJournal:   v.GetString("drop-journal"),
		Prices:        getPrices(v, "prices"),
		LogLevel:      v.GetString("log-level"),
	}

	return cfg, nil
}

// getPrices reads a token->USD map from the config file, or from a
// comma-separated addr=price flag value.
func getPrices(v *viper.Viper, key string) map[string]float64 {
	if !v.IsSet(key) {
		return nil
	}

	switch typed := v.Get(key).(type) {
	case map[string]interface{}:
		out := make(map[string]float64, len(typed))
		for token := range typed {
			out[strings.ToLower(token)] = v.GetFloat64(key + "." + token)
		}
		return out
	case string:
		out := make(map[string]float64)
		for _, pair := range splitAndClean(typed) {
			parts := strings.SplitN(pair, "=", 2)
			if len(parts) != 2 {
				continue
			}
			var price float64
			if _, err := fmt.Sscanf(parts[1], "%g", &price); err != nil {
				continue
			}
			out[strings.ToLower(strings.TrimSpace(parts[0]))] = price
		}
		return out
	default:
		return nil
	}
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
