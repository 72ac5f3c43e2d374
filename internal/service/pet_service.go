package service

import (
	"errors"

	"paw-advisor-go/internal/model"
	"paw-advisor-go/internal/repository"

	"gorm.io/gorm"
)

// ErrPetNotFound 表示宠物档案不存在或不属于当前用户。
var ErrPetNotFound = errors.New("pet profile not found")

// PetService 接口定义了宠物档案相关的业务操作。
// 所有读写都校验档案归属，用户只能操作自己名下的档案。
type PetService interface {
	Create(ownerID uint, pet *model.PetProfile) error
	Get(ownerID, petID uint) (*model.PetProfile, error)
	List(ownerID uint) ([]model.PetProfile, error)
	Update(ownerID uint, pet *model.PetProfile) error
	Delete(ownerID, petID uint) error
}

type petService struct {
	petRepo repository.PetRepository
}

// NewPetService 创建一个新的 PetService 实例。
func NewPetService(petRepo repository.PetRepository) PetService {
	return &petService{petRepo: petRepo}
}

func (s *petService) Create(ownerID uint, pet *model.PetProfile) error {
	pet.OwnerID = ownerID
	return s.petRepo.Create(pet)
}

func (s *petService) Get(ownerID, petID uint) (*model.PetProfile, error) {
	pet, err := s.petRepo.FindByID(petID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPetNotFound
		}
		return nil, err
	}
	if pet.OwnerID != ownerID {
		return nil, ErrPetNotFound
	}
	return pet, nil
}

func (s *petService) List(ownerID uint) ([]model.PetProfile, error) {
	return s.petRepo.FindByOwner(ownerID)
}

func (s *petService) Update(ownerID uint, pet *model.PetProfile) error {
	existing, err := s.Get(ownerID, pet.ID)
	if err != nil {
		return err
	}
	pet.OwnerID = existing.OwnerID
	pet.CreatedAt = existing.CreatedAt
	return s.petRepo.Update(pet)
}

func (s *petService) Delete(ownerID, petID uint) error {
	if _, err := s.Get(ownerID, petID); err != nil {
		return err
	}
	return s.petRepo.Delete(petID)
}
