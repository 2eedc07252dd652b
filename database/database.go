package database

import (
	"fmt"
	"strings"

	"fintrack/config"
	"fintrack/models"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Dialector 根据配置选择数据库驱动，postgres 使用 lib/pq
func Dialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "postgres", "postgresql":
		sslMode := cfg.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.DBName, sslMode)
		return postgres.New(postgres.Config{DriverName: "postgres", DSN: dsn}), nil
	case "mysql":
		charset := cfg.Charset
		if charset == "" {
			charset = "utf8mb4"
		}
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=UTC",
			cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.DBName, charset)
		return mysql.Open(dsn), nil
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", cfg.Driver)
	}
}

// gormLogLevel 将配置中的日志级别映射为 gorm 日志级别
func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// Init 初始化数据库连接
func Init(cfg *config.Config) error {
	dialector, err := Dialector(cfg.Database)
	if err != nil {
		return err
	}

	DB, err = gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel(cfg.Database.LogLevel)),
	})
	if err != nil {
		return fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	if err := DB.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Transaction{},
		&models.Budget{},
		&models.AssetType{},
		&models.Asset{},
		&models.RecurringPayment{},
		&models.CalendarEvent{},
		&models.GoldPriceHistory{},
		&models.StockPriceHistory{},
		&models.CurrencyExchangeHistory{},
		&models.ChatMessage{},
		&models.ContactMessage{},
	); err != nil {
		return err
	}

	if err := Seed(DB); err != nil {
		return err
	}

	logrus.WithField("driver", cfg.Database.Driver).Info("数据库初始化成功")
	return nil
}

// Seed 初始化资产类型与默认类别（仅当表为空时）
func Seed(db *gorm.DB) error {
	var typeCount int64
	db.Model(&models.AssetType{}).Count(&typeCount)
	if typeCount == 0 {
		var types []models.AssetType
		for _, name := range models.DefaultAssetTypes() {
			types = append(types, models.AssetType{Name: name})
		}
		if err := db.Create(&types).Error; err != nil {
			return fmt.Errorf("初始化资产类型失败: %w", err)
		}
	}

	var catCount int64
	db.Model(&models.Category{}).Count(&catCount)
	if catCount == 0 {
		var cats []models.Category
		for _, name := range models.DefaultCategories() {
			cats = append(cats, models.Category{Name: name})
		}
		if err := db.Create(&cats).Error; err != nil {
			return fmt.Errorf("初始化类别失败: %w", err)
		}
	}
	return nil
}

// GetDB 获取数据库连接
func GetDB() *gorm.DB {
	return DB
}
