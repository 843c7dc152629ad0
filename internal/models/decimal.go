package models

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Decimal 统一数值类型（保留 2 位小数），用于折扣值与价格字段
type Decimal struct {
	decimal.Decimal
}

// NewDecimal 从 decimal 创建数值
func NewDecimal(value decimal.Decimal) Decimal {
	return Decimal{Decimal: value.Round(2)}
}

// NewDecimalFromFloat 从 float 创建数值
func NewDecimalFromFloat(value float64) Decimal {
	return Decimal{Decimal: decimal.NewFromFloat(value).Round(2)}
}

// MarshalJSON 统一输出去除末尾零的字符串
func (d Decimal) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Decimal.Round(2).String())
}

// UnmarshalJSON 解析数值（字符串或数字）
func (d *Decimal) UnmarshalJSON(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		parsed, err := decimal.NewFromString(s)
		if err != nil {
			return err
		}
		d.Decimal = parsed.Round(2)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	d.Decimal = decimal.NewFromFloat(f).Round(2)
	return nil
}

// Value 用于数据库写入
func (d Decimal) Value() (driver.Value, error) {
	return d.Decimal.Round(2).Value()
}

// Scan 用于数据库读取
func (d *Decimal) Scan(value interface{}) error {
	if err := d.Decimal.Scan(value); err != nil {
		return err
	}
	d.Decimal = d.Decimal.Round(2)
	return nil
}

// String 返回去除末尾零的格式
func (d Decimal) String() string {
	return d.Decimal.Round(2).String()
}
