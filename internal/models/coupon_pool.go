package models

import (
	"time"

	"gorm.io/gorm"
)

// CouponPoolEntry 券码池表，一行对应一个可发放的券码
type CouponPoolEntry struct {
	ID         uint           `gorm:"primarykey" json:"id"`                             // 主键
	TemplateID uint           `gorm:"index;not null" json:"template_id"`                // 券模板ID
	Code       string         `gorm:"uniqueIndex;not null" json:"code"`                 // 券码
	Status     string         `gorm:"index;not null;default:'available'" json:"status"` // 状态（available/claimed）
	ClaimedBy  string         `gorm:"index;default:''" json:"claimed_by,omitempty"`     // 领取人邮箱
	ClaimedAt  *time.Time     `gorm:"index" json:"claimed_at,omitempty"`                // 领取时间
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`                          // 创建时间
	UpdatedAt  time.Time      `gorm:"index" json:"updated_at"`                          // 更新时间
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`                                   // 软删除时间

	Template *CouponTemplate `gorm:"foreignKey:TemplateID" json:"template,omitempty"` // 模板信息
}

// TableName 指定表名
func (CouponPoolEntry) TableName() string {
	return "coupon_pool_entries"
}
