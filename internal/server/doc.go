/*
包 server 管理 Prometheus 指标端点的 HTTP 监听生命周期。

Manager 包装 net/http.Server：Start 非阻塞地绑定端口并开始服务，
BoundAddr 返回实际监听地址（便于使用 ":0"），Shutdown 在超时内优雅关闭。
运行期错误通过 Errors 通道传出。
*/
package server
