// Package tlsutil 提供 Provider HTTP 客户端与 Redis 连接共用的 TLS 设置（TLS 1.2+，仅 AEAD 密码套件）。
package tlsutil
