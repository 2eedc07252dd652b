package config

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Email     EmailConfig     `mapstructure:"email"`
	Log       LogConfig       `mapstructure:"log"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	ZakatTax  ZakatTaxConfig  `mapstructure:"zakat_tax"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    string `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
	BaseURL string `mapstructure:"base_url"`
}

// DatabaseConfig 数据库配置，driver 支持 postgres / mysql
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	Charset  string `mapstructure:"charset"`
	LogLevel string `mapstructure:"log_level"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	Secret      string        `mapstructure:"secret"`
	ExpireHours int           `mapstructure:"expire_hours"`
	ExpireTime  time.Duration `mapstructure:"-"`
}

// EmailConfig 邮件配置
type EmailConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	From      string `mapstructure:"from"`
	ContactTo string `mapstructure:"contact_to"` // 联系表单收件人
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json | text
}

// ProviderConfig 第三方接口通用配置
type ProviderConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	APIHost        string `mapstructure:"api_host"`
	Model          string `mapstructure:"model"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// Timeout 请求超时，未配置时为 10 秒
func (p ProviderConfig) Timeout() time.Duration {
	if p.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// ProvidersConfig 行情、汇率与 AI 接口配置
type ProvidersConfig struct {
	Polygon  ProviderConfig `mapstructure:"polygon"`
	Gold     ProviderConfig `mapstructure:"gold"`
	Currency ProviderConfig `mapstructure:"currency"`
	OpenAI   ProviderConfig `mapstructure:"openai"`
}

// SchedulerConfig 定时任务配置（cron 表达式，支持秒字段）
type SchedulerConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	PriceRefreshCron string `mapstructure:"price_refresh_cron"`
	AssetRefreshCron string `mapstructure:"asset_refresh_cron"`
	RecurringCron    string `mapstructure:"recurring_roll_cron"`
}

// ZakatTaxConfig 天课/所得税参数
type ZakatTaxConfig struct {
	FiscalYearStart string  `mapstructure:"fiscal_year_start"`
	FiscalYearEnd   string  `mapstructure:"fiscal_year_end"`
	NisaabTola      float64 `mapstructure:"nisaab_tola"`
}

// FiscalWindow 解析财年区间 [start, end)
func (z ZakatTaxConfig) FiscalWindow() (time.Time, time.Time, error) {
	start, err := time.ParseInLocation("2006-01-02", z.FiscalYearStart, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("fiscal_year_start 格式错误: %w", err)
	}
	end, err := time.ParseInLocation("2006-01-02", z.FiscalYearEnd, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("fiscal_year_end 格式错误: %w", err)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("财年结束日期必须晚于开始日期")
	}
	return start, end, nil
}

var (
	// GlobalConfig 全局配置实例
	GlobalConfig *Config
)

// LoadConfig 加载配置
// 优先级: 环境变量 > 外部配置文件 > 嵌入的默认配置
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(bytes.NewReader(DefaultConfigYAML)); err != nil {
		return nil, fmt.Errorf("读取内置配置失败: %w", err)
	}
	logrus.Debug("已加载内置默认配置")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.MergeInConfig(); err != nil {
			logrus.Warnf("无法读取指定配置文件 %s: %v", configPath, err)
		} else {
			logrus.Infof("已合并外部配置文件: %s", configPath)
		}
	} else {
		externalViper := viper.New()
		externalViper.SetConfigName("config")
		externalViper.SetConfigType("yaml")
		externalViper.AddConfigPath(".")
		externalViper.AddConfigPath("./config")
		externalViper.AddConfigPath("/etc/fintrack")
		externalViper.AddConfigPath("$HOME/.fintrack")

		if err := externalViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(externalViper.AllSettings()); err != nil {
				logrus.Warnf("合并外部配置失败: %v", err)
			} else {
				logrus.Infof("已合并外部配置文件: %s", externalViper.ConfigFileUsed())
			}
		}
	}

	v.SetEnvPrefix("FINTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if cfg.JWT.ExpireHours <= 0 {
		cfg.JWT.ExpireHours = 24
	}
	cfg.JWT.ExpireTime = time.Duration(cfg.JWT.ExpireHours) * time.Hour

	if cfg.ZakatTax.NisaabTola <= 0 {
		cfg.ZakatTax.NisaabTola = 7.5
	}
	if _, _, err := cfg.ZakatTax.FiscalWindow(); err != nil {
		return nil, err
	}

	GlobalConfig = &cfg

	return &cfg, nil
}

// MustLoadConfig 加载配置，失败则 panic
func MustLoadConfig(configPath string) *Config {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		panic(fmt.Sprintf("加载配置失败: %v", err))
	}
	return cfg
}

// GetConfig 获取全局配置
func GetConfig() *Config {
	if GlobalConfig == nil {
		panic("配置未初始化，请先调用 LoadConfig")
	}
	return GlobalConfig
}

// PrintConfig 打印当前配置（隐藏敏感信息）
func PrintConfig() {
	if GlobalConfig == nil {
		return
	}
	logrus.WithFields(logrus.Fields{
		"port":      GlobalConfig.Server.Port,
		"mode":      GlobalConfig.Server.Mode,
		"db_driver": GlobalConfig.Database.Driver,
		"db":        fmt.Sprintf("%s@%s:%s/%s", GlobalConfig.Database.Username, GlobalConfig.Database.Host, GlobalConfig.Database.Port, GlobalConfig.Database.DBName),
		"email":     GlobalConfig.Email.Enabled,
		"scheduler": GlobalConfig.Scheduler.Enabled,
		"fiscal":    GlobalConfig.ZakatTax.FiscalYearStart + " ~ " + GlobalConfig.ZakatTax.FiscalYearEnd,
	}).Info("当前配置")
}
