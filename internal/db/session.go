package db

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gitee.com/czyczk/attested-reveal/internal/models/sqlmodel"
	"gitee.com/czyczk/attested-reveal/pkg/errorcode"
)

// GetSessionNonceFromDB 读取所有者当前的会话 nonce。从未吊销过的所有者的 nonce 为 0。
func GetSessionNonceFromDB(owner string, db *gorm.DB) (uint64, error) {
	var nonceDB sqlmodel.SessionNonce
	dbResult := db.Where("owner = ?", owner).Take(&nonceDB)
	if dbResult.Error != nil {
		if errors.Is(dbResult.Error, gorm.ErrRecordNotFound) {
			return 0, nil
		} else {
			return 0, errors.Wrap(dbResult.Error, "无法从数据库中获取会话 nonce")
		}
	}

	return nonceDB.Nonce, nil
}

// BumpSessionNonceInDB 将所有者的会话 nonce 加一并返回新值。
func BumpSessionNonceInDB(owner string, db *gorm.DB) (uint64, error) {
	var ret uint64
	err := db.Transaction(func(tx *gorm.DB) error {
		dbResult := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"nonce": gorm.Expr("nonce + 1")}),
		}).Create(&sqlmodel.SessionNonce{Owner: owner, Nonce: 1})
		if dbResult.Error != nil {
			return errors.Wrap(dbResult.Error, "无法递增会话 nonce")
		}

		nonce, err := GetSessionNonceFromDB(owner, tx)
		if err != nil {
			return err
		}

		ret = nonce
		return nil
	})

	return ret, err
}

// SaveVoucherToDB 将网络签发的会话凭证保存到指定的数据库中。
func SaveVoucherToDB(voucher *sqlmodel.Voucher, db *gorm.DB) error {
	dbResult := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(voucher)
	if dbResult.Error != nil {
		return errors.Wrap(dbResult.Error, "无法将会话凭证存入数据库")
	}

	return nil
}

// GetVoucherFromDB 从数据库中读取指定 ID 的会话凭证。
func GetVoucherFromDB(id int64, db *gorm.DB) (*sqlmodel.Voucher, error) {
	var voucherDB sqlmodel.Voucher
	dbResult := db.Where("id = ?", id).Take(&voucherDB)
	if dbResult.Error != nil {
		if errors.Is(dbResult.Error, gorm.ErrRecordNotFound) {
			return nil, errorcode.ErrorNotFound
		} else {
			return nil, errors.Wrap(dbResult.Error, "无法从数据库中获取会话凭证")
		}
	}

	return &voucherDB, nil
}
