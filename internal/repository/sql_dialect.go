package repository

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// dbDialectName 获取数据库方言名称，默认按 sqlite 处理。
func dbDialectName(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	name := strings.ToLower(strings.TrimSpace(db.Dialector.Name()))
	if name == "" {
		return "sqlite"
	}
	return name
}

// allocationLockClauses 返回分配候选行查询使用的行锁子句。
// postgres 下使用 FOR UPDATE SKIP LOCKED，避免并发领取互相阻塞；
// sqlite 不支持 SELECT ... FOR UPDATE，依赖单写事务加条件更新兜底。
func allocationLockClauses(db *gorm.DB) []clause.Expression {
	switch dbDialectName(db) {
	case "postgres", "postgresql":
		return []clause.Expression{clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}}
	default:
		return nil
	}
}
