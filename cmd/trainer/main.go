// trainer 是离线批次任务入口：全量重训模型并全量覆盖缓存，跑完即退出。
package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/UlicaLi/recommend-system/config"
	"github.com/UlicaLi/recommend-system/core"
	"github.com/UlicaLi/recommend-system/dataset"
	"github.com/UlicaLi/recommend-system/pipeline"
	"github.com/UlicaLi/recommend-system/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("配置加载失败")
	}
	setupLogger(cfg.LogLevel)

	db, err := dataset.OpenMySQL(cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("数据库连接失败")
	}
	defer func() {
		if err := dataset.CloseDB(db); err != nil {
			log.Warn().Err(err).Msg("关闭数据库连接失败")
		}
	}()

	cache, err := store.NewRedisStore(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatal().Err(err).Msg("Redis 连接失败")
	}
	defer cache.Close()

	job := &pipeline.Job{
		Cfg:    cfg,
		Source: dataset.NewGormSource(db),
		Store:  cache,
	}
	if err := job.Run(context.Background()); err != nil {
		if core.IsFatal(err) {
			log.Error().Err(err).Msg("批次任务中止")
		} else {
			log.Error().Err(err).Msg("批次任务失败")
		}
		os.Exit(1)
	}
}

func setupLogger(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}
