package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

const (
	AssetTypeGold     = "gold"
	AssetTypeCash     = "cash"
	AssetTypeStock    = "stock"
	AssetTypeCurrency = "currency"
)

// DefaultAssetTypes 初始化时写入的资产类型
func DefaultAssetTypes() []string {
	return []string{AssetTypeGold, AssetTypeCash, AssetTypeStock, AssetTypeCurrency}
}

// AssetType 资产类型
type AssetType struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"size:30;not null;uniqueIndex"`
}

func (AssetType) TableName() string {
	return "asset_types"
}

// AssetDetails 资产元数据，以 JSON 文本存储
type AssetDetails struct {
	Unit     string `json:"unit,omitempty"`     // 黄金：tola / gram
	Ticker   string `json:"ticker,omitempty"`   // 股票代码
	Currency string `json:"currency,omitempty"` // 外币代码
	Name     string `json:"name,omitempty"`
}

// Value 实现 driver.Valuer
func (d AssetDetails) Value() (driver.Value, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现 sql.Scanner
func (d *AssetDetails) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*d = AssetDetails{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("asset_details: 不支持的类型 %T", value)
	}
	if len(raw) == 0 {
		*d = AssetDetails{}
		return nil
	}
	return json.Unmarshal(raw, d)
}

// Asset 用户资产
type Asset struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	UserID          uint           `json:"user_id" gorm:"index;not null"`
	AssetTypeID     uint           `json:"asset_type_id" gorm:"index;not null"`
	AssetType       *AssetType     `json:"asset_type,omitempty" gorm:"foreignKey:AssetTypeID"`
	Quantity        float64        `json:"quantity" gorm:"type:decimal(18,4);not null"`
	PurchaseValue   float64        `json:"purchase_value" gorm:"type:decimal(14,2);not null"`
	CurrentValue    float64        `json:"current_value" gorm:"type:decimal(14,2);not null"`
	AcquiredOn      *time.Time     `json:"acquired_on,omitempty" gorm:"type:date"`
	AssetDetails    AssetDetails   `json:"asset_details" gorm:"type:text"`
	LastRefreshedAt *time.Time     `json:"last_refreshed_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Asset) TableName() string {
	return "assets"
}
