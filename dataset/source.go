package dataset

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/UlicaLi/recommend-system/core"
)

// Interaction 是一条原始浏览事件，从数据源读出后只在本批次内存活。
type Interaction struct {
	UserID    int64
	ItemID    int64
	VisitedAt time.Time
}

// Source 是交互数据源的查询契约：返回 since 之后、未删除的浏览事件。
// 这是数据源需要暴露的唯一查询形态。
type Source interface {
	Fetch(ctx context.Context, since time.Time) ([]Interaction, error)
}

// BrowseHistory 是浏览历史表的 gorm 模型。
// DeletedAt 软删除字段使 gorm 自动追加 deleted_at IS NULL 过滤。
type BrowseHistory struct {
	UserID    int64          `gorm:"column:user_id"`
	ObjectID  int64          `gorm:"column:object_id"`
	VisitedAt time.Time      `gorm:"column:visited_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at"`
}

// TableName 指定表名。
func (BrowseHistory) TableName() string { return "pre_browser_histories" }

// GormSource 是 MySQL 实现的 Source。
// 连接由调用方显式构造并传入，生命周期也由调用方负责关闭。
type GormSource struct {
	db *gorm.DB
}

// NewGormSource 用已建立的 gorm 连接创建数据源。
func NewGormSource(db *gorm.DB) *GormSource {
	return &GormSource{db: db}
}

// OpenMySQL 建立 MySQL 连接。gorm 自带日志静音，查询失败统一走领域错误。
func OpenMySQL(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, core.NewDomainError(core.ModuleDataset, core.ErrorCodeSourceUnavailable,
			fmt.Sprintf("dataset: open mysql: %v", err))
	}
	return db, nil
}

// CloseDB 关闭 gorm 底层的连接池。
func CloseDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Fetch 一次同步读出窗口内全部有效事件（单点查询，不做流式）。
func (s *GormSource) Fetch(ctx context.Context, since time.Time) ([]Interaction, error) {
	var rows []BrowseHistory
	err := s.db.WithContext(ctx).
		Select("user_id", "object_id", "visited_at").
		Where("visited_at >= ?", since).
		Find(&rows).Error
	if err != nil {
		return nil, core.NewDomainError(core.ModuleDataset, core.ErrorCodeSourceUnavailable,
			fmt.Sprintf("dataset: query browse histories: %v", err))
	}

	out := make([]Interaction, 0, len(rows))
	for _, r := range rows {
		out = append(out, Interaction{
			UserID:    r.UserID,
			ItemID:    r.ObjectID,
			VisitedAt: r.VisitedAt,
		})
	}
	return out, nil
}

var _ Source = (*GormSource)(nil)
