// Package schemastore 按名称保存 Schema 文档，使同一份 Schema 可以在进程之间共享。
//
// 存储的是规范化后的文档形式（{title, properties, required}），读回后经
// schema.Normalize 得到与写入时完全一致的字段列表。提供 Redis 与内存两种实现。
package schemastore
