package db

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gitee.com/czyczk/attested-reveal/internal/models/sqlmodel"
)

// OpenMySQL 连接 MySQL 数据库。`autoMigrate` 为 true 时同步开发网络的表结构。
func OpenMySQL(dsn string, autoMigrate bool) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, errors.Wrap(err, "无法连接数据库")
	}

	if autoMigrate {
		if err := db.AutoMigrate(sqlmodel.AllModels()...); err != nil {
			return nil, errors.Wrap(err, "无法同步数据库表结构")
		}
		log.Infoln("数据库表结构已同步")
	}

	return db, nil
}
