package db

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gitee.com/czyczk/attested-reveal/internal/models/sqlmodel"
	"gitee.com/czyczk/attested-reveal/pkg/errorcode"
)

// SaveAccessGrantToDB 将解密授权保存到指定的数据库中。重复授权不会推迟已有授权的可见时间。
func SaveAccessGrantToDB(grant *sqlmodel.AccessGrant, db *gorm.DB) error {
	dbResult := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "handle"}, {Name: "grantee"}},
		DoNothing: true,
	}).Create(grant)
	if dbResult.Error != nil {
		return errors.Wrap(dbResult.Error, "无法将解密授权存入数据库")
	}

	return nil
}

// GetAccessGrantFromDB 从数据库中读取 `grantee` 对 `handle` 的解密授权。
func GetAccessGrantFromDB(handle string, grantee string, db *gorm.DB) (*sqlmodel.AccessGrant, error) {
	var grantDB sqlmodel.AccessGrant
	dbResult := db.Where("handle = ? AND grantee = ?", handle, grantee).Take(&grantDB)
	if dbResult.Error != nil {
		if errors.Is(dbResult.Error, gorm.ErrRecordNotFound) {
			return nil, errorcode.ErrorNotFound
		} else {
			return nil, errors.Wrap(dbResult.Error, "无法从数据库中获取解密授权")
		}
	}

	return &grantDB, nil
}
