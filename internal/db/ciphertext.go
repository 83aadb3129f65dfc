package db

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gitee.com/czyczk/attested-reveal/internal/models/sqlmodel"
	"gitee.com/czyczk/attested-reveal/pkg/errorcode"
)

// SaveCiphertextToDB 将密文保存到指定的数据库中。句柄已存在时覆盖。
func SaveCiphertextToDB(ciphertext *sqlmodel.Ciphertext, db *gorm.DB) error {
	dbResult := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "handle"}},
		UpdateAll: true,
	}).Create(ciphertext)
	if dbResult.Error != nil {
		return errors.Wrap(dbResult.Error, "无法将密文存入数据库")
	}

	return nil
}

// GetCiphertextFromDB 从数据库中读取指定句柄的密文。
func GetCiphertextFromDB(handle string, db *gorm.DB) (*sqlmodel.Ciphertext, error) {
	var ciphertextDB sqlmodel.Ciphertext
	dbResult := db.Where("handle = ?", handle).Take(&ciphertextDB)
	if dbResult.Error != nil {
		if errors.Is(dbResult.Error, gorm.ErrRecordNotFound) {
			return nil, errorcode.ErrorNotFound
		} else {
			return nil, errors.Wrap(dbResult.Error, "无法从数据库中获取密文")
		}
	}

	return &ciphertextDB, nil
}
