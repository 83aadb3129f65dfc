package db

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gitee.com/czyczk/attested-reveal/internal/models/sqlmodel"
	"gitee.com/czyczk/attested-reveal/pkg/errorcode"
)

// SaveSlotToDB 写入或覆盖一个状态槽。
func SaveSlotToDB(slot *sqlmodel.Slot, db *gorm.DB) error {
	dbResult := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		UpdateAll: true,
	}).Create(slot)
	if dbResult.Error != nil {
		return errors.Wrap(dbResult.Error, "无法将状态槽存入数据库")
	}

	return nil
}

// GetSlotFromDB 从数据库中读取指定名称的状态槽。
func GetSlotFromDB(name string, db *gorm.DB) (*sqlmodel.Slot, error) {
	var slotDB sqlmodel.Slot
	dbResult := db.Where("name = ?", name).Take(&slotDB)
	if dbResult.Error != nil {
		if errors.Is(dbResult.Error, gorm.ErrRecordNotFound) {
			return nil, errorcode.ErrorNotFound
		} else {
			return nil, errors.Wrap(dbResult.Error, "无法从数据库中获取状态槽")
		}
	}

	return &slotDB, nil
}
