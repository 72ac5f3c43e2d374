package repository

import (
	"gorm.io/gorm"

	"paw-advisor-go/internal/model"
)

// AdviceRecordRepository 接口定义了问答记录的持久化操作。
type AdviceRecordRepository interface {
	Create(record *model.AdviceRecord) error
	FindByUser(userID uint, offset, limit int) ([]model.AdviceRecord, int64, error)
}

type adviceRecordRepository struct {
	db *gorm.DB
}

// NewAdviceRecordRepository 创建一个新的 AdviceRecordRepository 实例。
func NewAdviceRecordRepository(db *gorm.DB) AdviceRecordRepository {
	return &adviceRecordRepository{db: db}
}

func (r *adviceRecordRepository) Create(record *model.AdviceRecord) error {
	return r.db.Create(record).Error
}

// FindByUser 分页检索某用户的历史问答记录，按时间倒序。
func (r *adviceRecordRepository) FindByUser(userID uint, offset, limit int) ([]model.AdviceRecord, int64, error) {
	var records []model.AdviceRecord
	var total int64

	db := r.db.Model(&model.AdviceRecord{}).Where("user_id = ?", userID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&records).Error
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}
