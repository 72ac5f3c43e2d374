package model

import (
	"fmt"
	"strings"
	"time"
)

// PetProfile 对应于数据库中的 'pet_profiles' 表。
// 档案信息作为自由文本上下文参与系统提示合成与缓存指纹计算。
type PetProfile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OwnerID   uint      `gorm:"index;not null" json:"ownerId"`
	Name      string    `gorm:"type:varchar(64);not null" json:"name"`
	Species   string    `gorm:"type:varchar(32);not null" json:"species"`
	Breed     string    `gorm:"type:varchar(64)" json:"breed"`
	Age       int       `json:"age"`
	Gender    string    `gorm:"type:varchar(16)" json:"gender"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (PetProfile) TableName() string {
	return "pet_profiles"
}

// Descriptor 返回参与指纹计算的档案描述符。
// 同一档案字段组合总是得到同一描述符，名字等与问答语义无关的字段不参与。
func (p *PetProfile) Descriptor() string {
	if p == nil {
		return ""
	}
	parts := []string{strings.ToLower(p.Species)}
	if p.Breed != "" {
		parts = append(parts, strings.ToLower(p.Breed))
	}
	if p.Age > 0 {
		parts = append(parts, fmt.Sprintf("%dy", p.Age))
	}
	if p.Gender != "" {
		parts = append(parts, strings.ToLower(p.Gender))
	}
	return strings.Join(parts, "/")
}
