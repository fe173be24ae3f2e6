package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"github.com/boehs/truthsocial/config"
	"github.com/boehs/truthsocial/internal/model"
)

// InitDB 按配置打开数据库连接
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: glogger.Default.LogMode(glogger.Silent)}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Database.Driver {
	case "postgres":
		db, err = gorm.Open(postgres.Open(cfg.Database.DSN), gormCfg)
	case "sqlite", "":
		db, err = gorm.Open(sqlite.Open(cfg.Database.DSN), gormCfg)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
	if err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate 建表（本地/测试用；生产走迁移工具）
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Account{},
		&model.Status{},
		&model.StatusMention{},
		&model.StatusTag{},
		&model.Follow{},
		&model.FollowRequest{},
		&model.Fan{},
		&model.Block{},
		&model.Mute{},
		&model.DomainBlock{},
		&model.ConversationMute{},
		&model.List{},
		&model.ListAccount{},
		&model.FeedEntry{},
		&model.AccountConversation{},
		&model.Notification{},
		&model.GroupedNotification{},
		&model.Preference{},
	)
}
