/*
Package main 提供 llmschema 命令行入口。

# 子命令

  - generate  按 Schema 生成一次结构化响应，输出 JSON
  - batch     逐行读取提示词并发生成，按输入顺序输出 JSON Lines
  - schema    在 Redis 中保存、读取、列出、删除命名 Schema
  - version   显示构建信息

配置加载顺序为默认值、YAML 文件、LLMSCHEMA_ 前缀的环境变量；
启动时会先读取当前目录下的 .env。启用 metrics 时会在独立端口暴露
Prometheus 指标，启用 database 时每次尝试都会写入审计表。
*/
package main
