package appinit

import (
	"fmt"

	errors "github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"gitee.com/czyczk/attested-reveal/internal/db"
	"gitee.com/czyczk/attested-reveal/internal/devnet"
)

// SetupDevnet builds a development network from the devnet config. The returned func releases the store.
func SetupDevnet(info *DevnetInfo) (network *devnet.Network, closeFunc func() error, err error) {
	cfg := devnet.Config{
		Verifier:         info.Verifier,
		PropagationDelay: info.PropagationDelay,
		RequestFreshness: info.RequestFreshness,
	}

	if info.MasterKey != "" {
		cfg.MasterKey, err = LoadSM2PrivateKey(info.MasterKey)
		if err != nil {
			return
		}
	}

	cfg.Validators, err = LoadSM2PrivateKeys(info.Validators)
	if err != nil {
		return
	}
	if len(cfg.Validators) == 0 {
		log.Warnln("未配置协同验证者，解密结果将不带证明")
	}

	var store devnet.Store
	closeFunc = func() error { return nil }
	switch info.Store.Type {
	case "memory":
		store = devnet.NewMemStore()
	case "mysql":
		if info.MasterKey == "" {
			log.Warnln("使用 MySQL 存储但未指定主密钥，重启后已有密文将无法解密")
		}

		conn, openErr := db.OpenMySQL(info.Store.DSN, info.Store.AutoMigrate)
		if openErr != nil {
			err = openErr
			return
		}

		sqlDB, dbErr := conn.DB()
		if dbErr != nil {
			err = errors.Wrap(dbErr, "无法获取数据库连接池")
			return
		}

		store = devnet.NewGormStore(conn)
		closeFunc = sqlDB.Close
	default:
		err = fmt.Errorf("无法识别的存储类型 '%v'", info.Store.Type)
		return
	}

	network, err = devnet.NewNetwork(cfg, store, nil)
	if err != nil {
		_ = closeFunc()
		return
	}

	log.Infof("开发网络已就绪：作用域 '%v'，%v 个协同验证者，存储 %v", info.Verifier, len(cfg.Validators), info.Store.Type)
	return
}
