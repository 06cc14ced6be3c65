package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Replay holds configuration for the replay command, loaded from flags,
// env, or config file.
type Replay struct {
	OpsPath           string
	Out               string
	PGDSN             string
	Checkpoint        string
	CheckpointEnabled bool
	BatchSize         int
	Controller        string
	FeeRecipient      string
	ProtocolFee       string
	LogLevel          string
}

// LoadReplay merges config file, environment variables, and flags.
func LoadReplay(cfgFile string, flags *pflag.FlagSet) (Replay, error) {
	v := viper.New()
	v.SetEnvPrefix("POOL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("out", "./data/trades.jsonl")
	v.SetDefault("checkpoint", "./data/checkpoint.json")
	v.SetDefault("checkpoint-enabled", true)
	v.SetDefault("batch-size", 100)
	v.SetDefault("protocol-fee", "0")
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Replay{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Replay{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Replay{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Replay{
		OpsPath:           v.GetString("ops"),
		Out:               v.GetString("out"),
		PGDSN:             v.GetString("pg-dsn"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		BatchSize:         v.GetInt("batch-size"),
		Controller:        v.GetString("controller"),
		FeeRecipient:      v.GetString("fee-recipient"),
		ProtocolFee:       v.GetString("protocol-fee"),
		LogLevel:          v.GetString("log-level"),
	}

	return cfg, nil
}
