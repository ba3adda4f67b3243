package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"oneof=development production test"`
	DataDir     string `yaml:"data_dir" default:"data" validate:"required"`
	CacheDir    string `yaml:"cache_dir" default:".cache" validate:"required"`
	Log         struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	HTTP struct {
		Timeout      time.Duration `yaml:"timeout" default:"20s"`
		UserAgent    string        `yaml:"user_agent" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"`
		Referer      string        `yaml:"referer" default:"https://quote.eastmoney.com/"`
		InsecureTLS  bool          `yaml:"insecure_tls"`
		RequestGap   time.Duration `yaml:"request_gap" default:"300ms"`
		Jitter       time.Duration `yaml:"jitter" default:"150ms"`
		Retries      int           `yaml:"retries" default:"2" validate:"gte=0,lte=5"`
		RetryBackoff time.Duration `yaml:"retry_backoff" default:"500ms"`
	} `yaml:"http"`
	Sources struct {
		DataCenterURL   string `yaml:"datacenter_url" default:"https://datacenter.eastmoney.com/api/data/v1/get" validate:"url"`
		KlineURL        string `yaml:"kline_url" default:"https://push2his.eastmoney.com/api/qt/stock/kline/get" validate:"url"`
		QuoteURL        string `yaml:"quote_url" default:"https://push2.eastmoney.com/api/qt/ulist.np/get" validate:"url"`
		ListURL         string `yaml:"list_url" default:"https://82.push2.eastmoney.com/api/qt/clist/get" validate:"url"`
		CSIndexURL      string `yaml:"csindex_url" default:"https://www.csindex.com.cn/csindex-home/perf/get-index-yield-item" validate:"url"`
		FundEstimateURL string `yaml:"fund_estimate_url" default:"https://api.fund.eastmoney.com/FundGuZhi/GetFundGZList" validate:"url"`
		FundNAVURL      string `yaml:"fund_nav_url" default:"https://api.fund.eastmoney.com/f10/lsjz" validate:"url"`
		FundPurchaseURL string `yaml:"fund_purchase_url" default:"https://fund.eastmoney.com/Data/Fund_JJJZ_Data.aspx" validate:"url"`
		SinaDividendURL string `yaml:"sina_dividend_url" default:"https://vip.stock.finance.sina.com.cn/corp/go.php/vISSUE_ShareBonus/stockid/%s.phtml"`
		FundReferer     string `yaml:"fund_referer" default:"https://fund.eastmoney.com/"`
	} `yaml:"sources"`
	Bond struct {
		Years        int     `yaml:"years" default:"10" validate:"gte=1"`
		Horizon      int     `yaml:"horizon" default:"126" validate:"gte=1"`
		CarryRate    float64 `yaml:"carry_rate" default:"2.0"`
		MinDuration  float64 `yaml:"min_duration" default:"5"`
		MaxDuration  float64 `yaml:"max_duration" default:"10"`
		TSFile       string  `yaml:"ts_file" default:"bondReports.ts"`
		HistoryLimit int     `yaml:"history_limit" default:"0"`
	} `yaml:"bond"`
	Dividend struct {
		IndexCode         string  `yaml:"index_code" default:"000922"`
		BondYieldFallback float64 `yaml:"bond_yield_fallback" default:"1.7"`
		HistoryLimit      int     `yaml:"history_limit" default:"100" validate:"gte=1"`
		TSFile            string  `yaml:"ts_file" default:"dividendData.ts"`
	} `yaml:"dividend"`
	LOF struct {
		NAVLookupLimit  int     `yaml:"nav_lookup_limit" default:"30"`
		LowLiquidityWan float64 `yaml:"low_liquidity_wan" default:"500"`
		HistoryDays     int     `yaml:"history_days" default:"60"`
		TSFile          string  `yaml:"ts_file" default:"lof_data.ts"`
	} `yaml:"lof"`
	Push struct {
		WebhookURL    string        `yaml:"webhook_url"`
		LOFWebhookURL string        `yaml:"lof_webhook_url"`
		Timeout       time.Duration `yaml:"timeout" default:"10s"`
		TopLOF        int           `yaml:"top_lof" default:"5"`
	} `yaml:"push"`
	Schedule struct {
		Bond     string `yaml:"bond" default:"0 30 18 * * 1-5"`
		Dividend string `yaml:"dividend" default:"0 40 18 * * 1-5"`
		LOF      string `yaml:"lof" default:"0 50 14 * * 1-5"`
		Daily    string `yaml:"daily" default:"0 0 19 * * 1-5"`
		Alert    string `yaml:"alert" default:"0 */30 9-15 * * 1-5"`
	} `yaml:"schedule"`
	Server struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		// Per-client token bucket on /api; zero burst disables limiting.
		RateBurst  int     `yaml:"rate_burst" default:"20" validate:"gte=0"`
		RatePerSec float64 `yaml:"rate_per_sec" default:"5" validate:"gte=0"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"xllucky"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"xllucky.scores"`
		LogTopic     string   `yaml:"log_topic" default:"xllucky.logs"`
		RequiredAcks int      `yaml:"required_acks" default:"1"`
		Compression  string   `yaml:"compression" default:"snappy" validate:"oneof=none gzip snappy lz4 zstd"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			BatchTimeout time.Duration `yaml:"batch_timeout" default:"50ms"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID  string `yaml:"group_id" default:"xllucky-serve"`
			MinBytes int    `yaml:"min_bytes" default:"1"`
			MaxBytes int    `yaml:"max_bytes" default:"1048576"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled     bool          `yaml:"enabled"`
		Host        string        `yaml:"host" default:"localhost"`
		Port        int           `yaml:"port" default:"9000"`
		Database    string        `yaml:"database" default:"xllucky"`
		User        string        `yaml:"user" default:"default"`
		Password    string        `yaml:"password"`
		UseHTTP     bool          `yaml:"use_http"`
		DialTimeout time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout time.Duration `yaml:"read_timeout" default:"30s"`
	} `yaml:"clickhouse"`
}

var validate = validator.New()

// Default returns a config populated only from struct defaults.
func Default() *Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return &c
}

// Load reads and parses a YAML configuration file. A missing file yields the
// defaults so one-shot jobs run without any setup.
func Load(path string) (*Config, error) {
	c := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, c); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads .env (if present), the YAML file and then applies
// environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	envFile := ".env"
	if path != "" {
		envFile = filepath.Join(filepath.Dir(path), "..", ".env")
	}
	for _, f := range []string{envFile, ".env"} {
		if _, err := os.Stat(f); err == nil {
			if err := godotenv.Load(f); err != nil {
				return nil, fmt.Errorf("load env file: %w", err)
			}
			break
		}
	}

	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("XLL_WEBHOOK_URL"); v != "" {
		c.Push.WebhookURL = v
	}
	if v := os.Getenv("XLL_LOF_WEBHOOK_URL"); v != "" {
		c.Push.LOFWebhookURL = v
	}
	if v := os.Getenv("XLL_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("XLL_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("XLL_REDIS_ADDR"); v != "" {
		c.Redis.Enabled = true
		c.Redis.Addr = v
	}
	if v := os.Getenv("XLL_KAFKA_BROKERS"); v != "" {
		c.Kafka.Enabled = true
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("XLL_CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Enabled = true
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("XLL_SERVER_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("XLL_SERVER_PORT: %w", err)
		}
		c.Server.Port = p
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks struct tags plus cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	if c.Bond.MinDuration > c.Bond.MaxDuration {
		return fmt.Errorf("bond.min_duration must not exceed bond.max_duration")
	}
	if !strings.Contains(c.Sources.SinaDividendURL, "%s") {
		return fmt.Errorf("sources.sina_dividend_url must contain a %%s placeholder for the stock code")
	}
	return nil
}

// DataPath joins name under the data directory.
func (c *Config) DataPath(name string) string {
	return filepath.Join(c.DataDir, name)
}

// CachePath joins name under the cache directory.
func (c *Config) CachePath(name string) string {
	return filepath.Join(c.CacheDir, name)
}
