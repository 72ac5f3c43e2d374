package repository

import (
	"gorm.io/gorm"

	"paw-advisor-go/internal/model"
)

// PetRepository 接口定义了宠物档案的持久化操作。
type PetRepository interface {
	Create(pet *model.PetProfile) error
	FindByID(petID uint) (*model.PetProfile, error)
	FindByOwner(ownerID uint) ([]model.PetProfile, error)
	CountByOwner(ownerID uint) (int64, error)
	Update(pet *model.PetProfile) error
	Delete(petID uint) error
	DeleteByOwner(ownerID uint) error
}

// petRepository 是 PetRepository 接口的 GORM 实现。
type petRepository struct {
	db *gorm.DB
}

// NewPetRepository 创建一个新的 PetRepository 实例。
func NewPetRepository(db *gorm.DB) PetRepository {
	return &petRepository{db: db}
}

func (r *petRepository) Create(pet *model.PetProfile) error {
	return r.db.Create(pet).Error
}

func (r *petRepository) FindByID(petID uint) (*model.PetProfile, error) {
	var pet model.PetProfile
	err := r.db.First(&pet, petID).Error
	if err != nil {
		return nil, err
	}
	return &pet, nil
}

func (r *petRepository) FindByOwner(ownerID uint) ([]model.PetProfile, error) {
	var pets []model.PetProfile
	err := r.db.Where("owner_id = ?", ownerID).Find(&pets).Error
	return pets, err
}

func (r *petRepository) CountByOwner(ownerID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.PetProfile{}).Where("owner_id = ?", ownerID).Count(&count).Error
	return count, err
}

func (r *petRepository) Update(pet *model.PetProfile) error {
	return r.db.Save(pet).Error
}

func (r *petRepository) Delete(petID uint) error {
	return r.db.Delete(&model.PetProfile{}, petID).Error
}

func (r *petRepository) DeleteByOwner(ownerID uint) error {
	return r.db.Where("owner_id = ?", ownerID).Delete(&model.PetProfile{}).Error
}
