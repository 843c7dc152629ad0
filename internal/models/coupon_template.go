package models

import (
	"time"

	"gorm.io/gorm"
)

// CouponTemplate 券模板表
type CouponTemplate struct {
	ID            uint           `gorm:"primarykey" json:"id"`                           // 主键
	Name          string         `gorm:"not null" json:"name"`                           // 券种名称
	Description   string         `gorm:"type:text" json:"description"`                   // 描述
	DiscountType  string         `gorm:"not null" json:"discount_type"`                  // 折扣类型（percentage/fixed）
	DiscountValue Decimal        `gorm:"type:decimal(20,2);not null" json:"discount_value"` // 折扣值（折数或金额）
	OriginalPrice *Decimal       `gorm:"type:decimal(20,2)" json:"original_price"`       // 原价（仅用于展示立省金额）
	CreditAmount  *int           `json:"credit_amount"`                                  // 额度（仅展示）
	RedirectURL   string         `gorm:"default:''" json:"redirect_url"`                 // 领取后跳转链接
	SortOrder     int            `gorm:"not null;default:0;index" json:"sort_order"`     // 展示权重（升序）
	Status        string         `gorm:"not null;default:'active';index" json:"status"`  // 状态（active/inactive）
	ValidFrom     time.Time      `gorm:"index" json:"valid_from"`                        // 领取开始时间
	ValidUntil    time.Time      `gorm:"index" json:"valid_until"`                       // 领取结束时间
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                        // 创建时间
	UpdatedAt     time.Time      `gorm:"index" json:"updated_at"`                        // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                 // 软删除时间
}

// TableName 指定表名
func (CouponTemplate) TableName() string {
	return "coupon_templates"
}
