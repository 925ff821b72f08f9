package database

import (
	"Orion_Tube/internal/model"

	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open 按driver选择gorm方言
// mysql DSN形如：用户名:密码@tcp(地址:端口)/数据库名?charset=utf8mb4&parseTime=True&loc=Local
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "mysql":
		dialector = mysql.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, errors.Errorf("不支持的数据库驱动: %s", driver)
	}

	// TranslateError打开后，唯一键冲突统一翻译成gorm.ErrDuplicatedKey
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "无法连接到%s数据库", driver)
	}

	if driver == "sqlite" {
		// sqlite只允许一个写者，连接池限制为1，事务之间自然串行
		sqlDB, err := db.DB()
		if err != nil {
			return nil, errors.Wrap(err, "获取sqlite连接池失败")
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Migrate 没有表就建表，没有列就加列；不会删除和修改已有列
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(&model.User{}, &model.Video{}, &model.VideoVote{}, &model.MediaFailure{})
	return errors.Wrap(err, "数据库迁移失败")
}
