/*
Package schema 将调用方声明的输出 Schema 归一化为有序的字段规格列表。

# 概述

无论 Schema 来自 Go 结构体类型、普通文档（JSON / YAML / map）还是已归一化的
Definition，最终都化为同一个 Definition：字段名唯一、必填集合是字段集合的子集，
违反时返回 INVALID_SCHEMA_FORMAT 错误。

# 主要类型

  - Definition / Field：归一化后的字段列表，保持声明顺序
  - Document：可传输、可持久化的 {properties, required} 文档，JSON 与 YAML 均保留键顺序
  - Generator：通过反射从结构体生成 Definition，支持 json 与 jsonschema 标签，按类型 LRU 缓存
  - Registry：至多一个活动 Definition，读写由 RWMutex 保护

# 字段顺序

  - 结构体：字段声明顺序
  - JSON / YAML 文本：文档中的键顺序
  - map[string]any：按字段名字典序

# 典型用法

	type Invoice struct {
		Number string  `json:"number" jsonschema:"required,description=Invoice number"`
		Total  float64 `json:"total"`
	}

	reg := schema.NewRegistry()
	_ = reg.Set(reflect.TypeOf(Invoice{}))
	def, _ := reg.Get()
	doc := def.Document() // 可序列化后重新 Normalize
*/
package schema
