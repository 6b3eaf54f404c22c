package config

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"proof_of_existence/internal/middleware"
	"proof_of_existence/internal/repository"
	"proof_of_existence/internal/rewards"
	"proof_of_existence/internal/service"
	"proof_of_existence/pkg/auth"
	"proof_of_existence/pkg/chain"
	"proof_of_existence/pkg/notify"
	"proof_of_existence/pkg/storage"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	configPath   = "./"
	configName   = "config"
	configFormat = "yaml"
)

type Config struct {
	Database repository.Config `yaml:"database"`
	Server   ServerConfig      `yaml:"server"`
	Auth     auth.Config       `yaml:"auth"`

	Rewards RewardsConfig `yaml:"rewards"`
	Session SessionConfig `yaml:"session"`
	Pricing PricingConfig `yaml:"pricing"`
	Streak  StreakConfig  `yaml:"streak"`

	Storage   storage.Config             `yaml:"storage"`
	Chain     chain.Config               `yaml:"chain"`
	Scheduler SchedulerConfig            `yaml:"scheduler"`
	RateLimit middleware.RateLimitConfig `yaml:"rateLimit"`
	Notify    notify.Config              `yaml:"notify"`

	CronSecret string `yaml:"cronSecret"`
	LogLevel   string `yaml:"logLevel"`
	LogFormat  string `yaml:"logFormat"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	// TrustedProxies may set X-Forwarded-For. Empty trusts no proxy.
	TrustedProxies []string `yaml:"trustedProxies"`
}

// RewardsConfig amounts are decimal strings in TIME26 wei.
type RewardsConfig struct {
	BasePerSecond           string `yaml:"basePerSecond"`
	ExclusiveBonusPerSecond string `yaml:"exclusiveBonusPerSecond"`
	DailyBudget             string `yaml:"dailyBudget"`
}

type SessionConfig struct {
	MinDuration int `yaml:"minDuration"`
	MaxDuration int `yaml:"maxDuration"`
	MinPoints   int `yaml:"minPoints"`
}

type PricingConfig struct {
	BaseFee        string `yaml:"baseFee"`
	PricePerSecond string `yaml:"pricePerSecond"`
}

// StreakConfig overrides the default streak ladder when set.
type StreakConfig struct {
	BaseReward string   `yaml:"baseReward"`
	Bonuses    []string `yaml:"bonuses"`
}

type SchedulerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	SettleAt string `yaml:"settleAt"`
}

func LoadConfig() (*Config, error) {
	return LoadConfigFile("")
}

// LoadConfigFile reads the given file, or ./config.yaml when file is empty.
func LoadConfigFile(file string) (*Config, error) {
	v := viper.New()
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(configPath)
	}
	v.SetConfigType(configFormat)

	v.AutomaticEnv()
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func parseWei(name, value string) (*big.Int, error) {
	if value == "" {
		return new(big.Int), nil
	}
	n, ok := new(big.Int).SetString(value, 10)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("invalid %s %q", name, value)
	}
	return n, nil
}

func parseDecimal(name, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil || d.IsNegative() {
		return decimal.Zero, fmt.Errorf("invalid %s %q", name, value)
	}
	return d, nil
}

func (c RewardsConfig) Rates() (rewards.Rates, error) {
	base, err := parseWei("rewards.basePerSecond", c.BasePerSecond)
	if err != nil {
		return rewards.Rates{}, err
	}
	bonus, err := parseWei("rewards.exclusiveBonusPerSecond", c.ExclusiveBonusPerSecond)
	if err != nil {
		return rewards.Rates{}, err
	}
	budget, err := parseWei("rewards.dailyBudget", c.DailyBudget)
	if err != nil {
		return rewards.Rates{}, err
	}

	return rewards.Rates{
		BasePerSecond:           base,
		ExclusiveBonusPerSecond: bonus,
		DailyBudget:             budget,
	}, nil
}

// Rules fills unset thresholds from the defaults.
func (c SessionConfig) Rules() service.SessionRules {
	rules := service.DefaultSessionRules()
	if c.MinDuration > 0 {
		rules.MinDuration = c.MinDuration
	}
	if c.MaxDuration > 0 {
		rules.MaxDuration = c.MaxDuration
	}
	if c.MinPoints > 0 {
		rules.MinPoints = c.MinPoints
	}
	return rules
}

func (c PricingConfig) Rules() (service.PricingRules, error) {
	baseFee, err := parseDecimal("pricing.baseFee", c.BaseFee)
	if err != nil {
		return service.PricingRules{}, err
	}
	perSecond, err := parseDecimal("pricing.pricePerSecond", c.PricePerSecond)
	if err != nil {
		return service.PricingRules{}, err
	}

	return service.PricingRules{
		BaseFee:        baseFee,
		PricePerSecond: perSecond,
	}, nil
}

func (c StreakConfig) Rules() (service.StreakRules, error) {
	rules := service.DefaultStreakRules()

	if c.BaseReward != "" {
		base, err := parseDecimal("streak.baseReward", c.BaseReward)
		if err != nil {
			return service.StreakRules{}, err
		}
		rules.BaseReward = base
	}

	if len(c.Bonuses) > 0 {
		bonuses := make([]decimal.Decimal, len(c.Bonuses))
		for i, b := range c.Bonuses {
			d, err := parseDecimal(fmt.Sprintf("streak.bonuses[%d]", i), b)
			if err != nil {
				return service.StreakRules{}, err
			}
			bonuses[i] = d
		}
		rules.Bonuses = bonuses
	}

	return rules, nil
}

// SettleTime parses SettleAt as HH:MM in UTC. It defaults to 00:05.
func (c SchedulerConfig) SettleTime() (hour, minute uint, err error) {
	if c.SettleAt == "" {
		return 0, 5, nil
	}
	t, err := time.Parse("15:04", c.SettleAt)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid scheduler.settleAt %q", c.SettleAt)
	}
	return uint(t.Hour()), uint(t.Minute()), nil
}
