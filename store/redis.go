// Package store 提供推荐结果缓存（core.ListStore）的各后端实现。
// 接口定义在 core 包，此包只含实现。
package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/UlicaLi/recommend-system/core"
)

// RedisStore 是 Redis 实现的 ListStore，生产环境使用。
// 批量写走单条 Pipeline，减少网络往返。
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 建立连接并探活。
func NewRedisStore(addr string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeUnavailable,
			fmt.Sprintf("store: connect redis %s: %v", addr, err))
	}
	return &RedisStore{client: client}, nil
}

func (r *RedisStore) Name() string { return "redis" }

// GetList 读取整个列表（LRANGE 0 -1）并逐项解析为 int64。
// key 不存在时 LRANGE 返回空，视为"无数据"而非错误；无法解析的条目丢弃。
func (r *RedisStore) GetList(ctx context.Context, key string) ([]int64, error) {
	members, err := r.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeUnavailable,
			fmt.Sprintf("store: lrange %s: %v", key, err))
	}
	return parseMembers(members), nil
}

// parseMembers 将 Redis 列表成员逐项解析为 int64，无法解析的条目丢弃，
// 不影响列表中其余条目。
func parseMembers(members []string) []int64 {
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		if id, err := strconv.ParseInt(m, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// ReplaceLists 以覆盖语义批量写入：每个 key 先 DEL，非空列表再 RPUSH + EXPIRE。
// 空列表只删不写，key 保持缺失（读侧将缺失与"空"同等对待）。
// 整个批次缓冲为一条 Pipeline；删除到重写之间的短暂空窗可被读侧接受。
func (r *RedisStore) ReplaceLists(ctx context.Context, lists map[string][]int64, ttlSeconds int) error {
	pipe := r.client.Pipeline()
	expiration := time.Duration(ttlSeconds) * time.Second

	for key, ids := range lists {
		pipe.Del(ctx, key)
		if len(ids) == 0 {
			continue
		}
		values := make([]interface{}, len(ids))
		for i, id := range ids {
			values[i] = id
		}
		pipe.RPush(ctx, key, values...)
		pipe.Expire(ctx, key, expiration)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return core.NewDomainError(core.ModuleStore, core.ErrorCodePublishFailure,
			fmt.Sprintf("store: pipeline exec: %v", err))
	}
	return nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return core.NewDomainError(core.ModuleStore, core.ErrorCodeUnavailable,
			fmt.Sprintf("store: ping: %v", err))
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

// 确保 RedisStore 实现了 core.ListStore 接口
var _ core.ListStore = (*RedisStore)(nil)
