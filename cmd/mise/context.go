package main

import (
	"fmt"
	"sync"

	"mise-planner/internal/app"
	"mise-planner/internal/core/cache"
	"mise-planner/internal/infrastructure/config"
	"mise-planner/internal/infrastructure/database"
	"mise-planner/internal/pkg/common"

	"gorm.io/gorm"
)

type commandContext struct {
	jsonFlag   bool
	loadConfig func() (*config.Config, error)

	once     sync.Once
	config   *config.Config
	db       *gorm.DB
	store    cache.Store
	services *app.Services
	err      error
}

func newCommandContext(loadConfig func() (*config.Config, error)) *commandContext {
	return &commandContext{loadConfig: loadConfig}
}

// loadCLIConfig 讀取設定並把日誌導向 stderr
func loadCLIConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	common.InitConsoleLogger(cfg.LogLevel)
	return cfg, nil
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag
}

// ensureServices 第一次使用時載入設定並開啟資料庫與快取
func (c *commandContext) ensureServices() (*app.Services, error) {
	c.once.Do(func() {
		cfg, err := c.loadConfig()
		if err != nil {
			c.err = err
			return
		}
		c.config = cfg

		db, err := database.Open(cfg.Database)
		if err != nil {
			c.err = fmt.Errorf("open database: %w", err)
			return
		}
		c.db = db

		store, err := cache.New(cfg.Cache)
		if err != nil {
			c.err = fmt.Errorf("open cache: %w", err)
			return
		}
		c.store = store

		c.services, c.err = app.NewServices(cfg, db, store)
	})
	return c.services, c.err
}

// requireCatalog 需要目錄 API 的命令使用
func (c *commandContext) requireCatalog() (*app.Services, error) {
	svc, err := c.ensureServices()
	if err != nil {
		return nil, err
	}
	if svc.CatalogErr != nil {
		return nil, fmt.Errorf("%w (set HFRESH_API_TOKEN)", svc.CatalogErr)
	}
	return svc, nil
}

// close 釋放資料庫與快取，可重複呼叫
func (c *commandContext) close() {
	if c.store != nil {
		_ = c.store.Close()
		c.store = nil
	}
	if c.db != nil {
		database.Close(c.db)
		c.db = nil
	}
	common.Sync()
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
