// Package api 是读侧 HTTP 接口：对缓存中推荐列表的薄路由层，从不触碰离线管线。
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/UlicaLi/recommend-system/core"
)

// Server 持有缓存连接与 key 前缀。
type Server struct {
	store  core.ListStore
	prefix string
}

// NewServer 创建读侧服务。
func NewServer(store core.ListStore, keyPrefix string) *Server {
	return &Server{store: store, prefix: keyPrefix}
}

// Router 组装路由。
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/recommend/history/{userID}", s.handleHistory)
	r.Get("/recommend/discovery/{userID}", s.handleDiscovery)
	r.Get("/recommend/related/{itemID}", s.handleRelated)
	r.Get("/health", s.handleHealth)
	return r
}

// handleHistory 返回用户的常用工具推荐；用户无历史时返回全局热门（冷启动兜底）。
func (s *Server) handleHistory(w http.ResponseWriter, req *http.Request) {
	userID, ok := parseID(w, req, "userID")
	if !ok {
		return
	}
	s.serveWithFallback(w, req, core.UserHistoryKey(s.prefix, userID))
}

// handleDiscovery 返回用户的猜你喜欢推荐；新用户无法计算时返回全局热门。
func (s *Server) handleDiscovery(w http.ResponseWriter, req *http.Request) {
	userID, ok := parseID(w, req, "userID")
	if !ok {
		return
	}
	s.serveWithFallback(w, req, core.UserDiscoveryKey(s.prefix, userID))
}

// handleRelated 返回物品的相关推荐。没有兜底：空列表本身是合法结果。
func (s *Server) handleRelated(w http.ResponseWriter, req *http.Request) {
	itemID, ok := parseID(w, req, "itemID")
	if !ok {
		return
	}
	ids, err := s.store.GetList(req.Context(), core.ItemRelatedKey(s.prefix, itemID))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ids)
}

// handleHealth 探活缓存连接。
func (s *Server) handleHealth(w http.ResponseWriter, req *http.Request) {
	if err := s.store.Ping(req.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "error",
			"detail": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"store":  s.store.Name(),
	})
}

// serveWithFallback 读取主 key，列表缺失或为空时回退到全局热门。
// 缓存故障返回 503："服务不可用"必须区别于"还没有推荐"（空列表）。
func (s *Server) serveWithFallback(w http.ResponseWriter, req *http.Request, key string) {
	ctx := req.Context()
	ids, err := s.store.GetList(ctx, key)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if len(ids) == 0 {
		ids, err = s.fallbackPopular(ctx)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, ids)
}

func (s *Server) fallbackPopular(ctx context.Context) ([]int64, error) {
	return s.store.GetList(ctx, core.GlobalPopularKey(s.prefix))
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("读取推荐缓存失败")
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{
		"status": "error",
		"detail": "recommendation cache unavailable",
	})
}

// parseID 解析路径上的正整数 ID；非法时直接回写 400。
func parseID(w http.ResponseWriter, req *http.Request, param string) (int64, bool) {
	raw := chi.URLParam(req, param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"status": "error",
			"detail": "id must be a positive integer",
		})
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if ids, ok := v.([]int64); ok && ids == nil {
		v = []int64{} // 空列表序列化为 []，不输出 null
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("写响应失败")
	}
}
