package core

import "fmt"

// 缓存 key 模式。离线任务写入、读侧 API 读取的双方必须严格一致：
//
//	{prefix}user:{user_id}:history   场景A 常用工具
//	{prefix}user:{user_id}:discovery 场景B 猜你喜欢
//	{prefix}item:{item_id}:related   场景C 相关推荐
//	{prefix}global:popular           全局热门（冷启动兜底）
//
// prefix 默认为 "rec:sys:"。

// UserHistoryKey 返回用户常用工具列表的缓存 key。
func UserHistoryKey(prefix string, userID int64) string {
	return fmt.Sprintf("%suser:%d:history", prefix, userID)
}

// UserDiscoveryKey 返回用户猜你喜欢列表的缓存 key。
func UserDiscoveryKey(prefix string, userID int64) string {
	return fmt.Sprintf("%suser:%d:discovery", prefix, userID)
}

// ItemRelatedKey 返回物品相关推荐列表的缓存 key。
func ItemRelatedKey(prefix string, itemID int64) string {
	return fmt.Sprintf("%sitem:%d:related", prefix, itemID)
}

// GlobalPopularKey 返回全局热门列表的缓存 key。
func GlobalPopularKey(prefix string) string {
	return prefix + "global:popular"
}
