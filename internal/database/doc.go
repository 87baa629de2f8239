// Package database 按 config.DatabaseConfig 打开 GORM 连接（postgres、mysql、纯 Go sqlite），
// 并提供连接池设置、健康检查与事务辅助。审计存储通过它获得 *gorm.DB。
package database
