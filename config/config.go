package config

import (
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Config struct {
	Api    ApiConf    `mapstructure:"api"`
	Log    LogConf    `mapstructure:"log"`
	Db     DbConf     `mapstructure:"db"`
	Chain  ChainConf  `mapstructure:"chain"`
	Faucet FaucetConf `mapstructure:"faucet"`
	Bonus  BonusConf  `mapstructure:"bonus"`
	Worker WorkerConf `mapstructure:"worker"`
}

type ApiConf struct {
	Port string `mapstructure:"port"`
}

type LogConf struct {
	Level string `mapstructure:"level"`
	Mode  string `mapstructure:"mode"` // console or json
}

type DbConf struct {
	Dsn string `mapstructure:"dsn"`
}

type ChainConf struct {
	Endpoint          string        `mapstructure:"endpoint"`
	FaucetPrivateKey  string        `mapstructure:"faucet_private_key"`
	FogoMint          string        `mapstructure:"fogo_mint"`
	FogoDecimals      uint8         `mapstructure:"fogo_decimals"`
	BonusMint         string        `mapstructure:"bonus_mint"`
	BonusDecimals     uint8         `mapstructure:"bonus_decimals"`
	SecondaryMint     string        `mapstructure:"secondary_mint"`
	SecondaryDecimals uint8         `mapstructure:"secondary_decimals"`
	CheckTimeout      time.Duration `mapstructure:"check_timeout"`
	MaxTxnScan        int           `mapstructure:"max_txn_scan"`
}

// TierConf maps a transaction-count bracket lower bound to a claim amount.
type TierConf struct {
	MinTxnCount int64   `mapstructure:"min_txn_count"`
	Amount      float64 `mapstructure:"amount"`
}

type FaucetConf struct {
	DailyLimit     float64       `mapstructure:"daily_limit"`
	InitialBalance float64       `mapstructure:"initial_balance"`
	BalanceCeiling float64       `mapstructure:"balance_ceiling"`
	MinTxnCount    int64         `mapstructure:"min_txn_count"`
	Tiers          []TierConf    `mapstructure:"tiers"`
	Cooldown       time.Duration `mapstructure:"cooldown"`
}

type BonusConf struct {
	Enabled        bool    `mapstructure:"enabled"`
	ConversionRate float64 `mapstructure:"conversion_rate"`
}

type WorkerConf struct {
	SettleInterval  time.Duration `mapstructure:"settle_interval"`
	PendingDeadline time.Duration `mapstructure:"pending_deadline"`
	StatsCacheTTL   time.Duration `mapstructure:"stats_cache_ttl"`
}

func UnmarshalConfig(configFilePath string) (*Config, error) {
	viper.SetConfigFile(configFilePath)
	if err := viper.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "read config file")
	}

	var c Config
	if err := viper.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c.Api.Port == "" {
		return errors.New("api.port is required")
	}
	if c.Db.Dsn == "" {
		return errors.New("db.dsn is required")
	}
	if c.Chain.Endpoint == "" {
		return errors.New("chain.endpoint is required")
	}
	if c.Faucet.DailyLimit <= 0 {
		return errors.New("faucet.daily_limit must be positive")
	}
	if c.Faucet.MinTxnCount <= 0 {
		return errors.New("faucet.min_txn_count must be positive")
	}
	if len(c.Faucet.Tiers) == 0 {
		return errors.New("faucet.tiers must not be empty")
	}
	for i := 1; i < len(c.Faucet.Tiers); i++ {
		if c.Faucet.Tiers[i].MinTxnCount <= c.Faucet.Tiers[i-1].MinTxnCount {
			return errors.New("faucet.tiers must be sorted by min_txn_count ascending")
		}
	}
	if c.Faucet.Tiers[0].MinTxnCount != c.Faucet.MinTxnCount {
		return errors.New("first tier must start at faucet.min_txn_count")
	}
	if c.Faucet.Cooldown <= 0 {
		c.Faucet.Cooldown = 24 * time.Hour
	}
	if c.Chain.CheckTimeout <= 0 {
		c.Chain.CheckTimeout = 12 * time.Second
	}
	if c.Chain.MaxTxnScan <= 0 {
		c.Chain.MaxTxnScan = 5000
	}
	// Deployments where the secondary token is the bonus token may omit its
	// decimals.
	if c.Chain.SecondaryDecimals == 0 {
		c.Chain.SecondaryDecimals = c.Chain.BonusDecimals
	}
	if c.Worker.SettleInterval <= 0 {
		c.Worker.SettleInterval = time.Minute
	}
	if c.Worker.PendingDeadline <= 0 {
		c.Worker.PendingDeadline = 10 * time.Minute
	}
	if c.Worker.StatsCacheTTL <= 0 {
		c.Worker.StatsCacheTTL = 5 * time.Second
	}
	return nil
}
