package core

import "context"

// ListStore 是推荐结果缓存的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 遵循依赖倒置原则：领域层定义接口，基础设施层实现接口
//
// 实现：
//   - store.RedisStore：生产环境，Pipeline 批量写
//   - store.MemoryStore：测试用内存实现
type ListStore interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// GetList 读取 key 对应的有序 ID 列表。
	// key 不存在时返回空列表（区别于连接失败返回的 UNAVAILABLE 错误）；
	// 无法解析的条目被丢弃，不影响列表中其余条目。
	GetList(ctx context.Context, key string) ([]int64, error)

	// ReplaceLists 批量覆盖写入：对每个 key 先清除旧值，
	// 新列表非空时写入有序列表并设置过期时间，空列表则让 key 保持缺失。
	// 所有写入缓冲为一次批量提交；崩溃导致的部分写入可以接受，
	// 下一次批次运行会全量覆盖。
	ReplaceLists(ctx context.Context, lists map[string][]int64, ttlSeconds int) error

	// Ping 探活（读侧健康检查用）
	Ping(ctx context.Context) error

	// Close 关闭连接/释放资源
	Close() error
}
