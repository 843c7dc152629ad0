package service

import (
	"github.com/coupon-next/internal/constants"
	"github.com/coupon-next/internal/models"
)

// FormatDiscount 渲染折扣展示文案。
// percentage 渲染为“8.5折”，fixed 渲染为“¥50”，数值去除末尾零。
func FormatDiscount(discountType string, value models.Decimal) string {
	switch discountType {
	case constants.DiscountTypeFixed:
		return "¥" + value.String()
	default:
		return value.String() + "折"
	}
}
