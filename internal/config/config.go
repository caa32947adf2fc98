package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	Listen       string
	AssetA       string
	AssetB       string
	PoolAddress  string
	Faucet       string
	FaucetAmount string
	EventsOut    string
	PgDSN        string
	LogLevel     string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SWAPD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("listen", ":8080")
	v.SetDefault("asset-a", "0x0000000000000000000000000000000000000aaa")
	v.SetDefault("asset-b", "0x0000000000000000000000000000000000000bbb")
	v.SetDefault("pool-address", "0x0000000000000000000000000000000000000001")
	v.SetDefault("faucet-amount", "0")
	v.SetDefault("events-out", "./data/pool_events.jsonl")
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
		Listen:       v.GetString("listen"),
		AssetA:       v.GetString("asset-a"),
		AssetB:       v.GetString("asset-b"),
		PoolAddress:  v.GetString("pool-address"),
		Faucet:       v.GetString("faucet"),
		FaucetAmount: v.GetString("faucet-amount"),
		EventsOut:    v.GetString("events-out"),
		PgDSN:        v.GetString("pg-dsn"),
		LogLevel:     v.GetString("log-level"),
	}

	return cfg, nil
}
