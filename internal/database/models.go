package database

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User 表示系统中的账号信息。
type User struct {
	gorm.Model
	Username     string `gorm:"uniqueIndex;size:64"`
	PasswordHash string `gorm:"size:255"`
	Cards        []Card `gorm:"constraint:OnDelete:CASCADE"`
	// ActiveCardID 记录用户当前正在编辑的名片，登录后直接恢复。
	ActiveCardID *uint
}

// Card 表示用户创建的数字名片。
// Content 是完整的名片文档（JSONB），结构见 internal/card。
type Card struct {
	gorm.Model
	Title            string         `gorm:"size:255"`
	Content          datatypes.JSON `gorm:"type:jsonb"`
	UserID           uint           `gorm:"index"`
	User             User           `gorm:"constraint:OnDelete:CASCADE"`
	PdfUrl           string         `gorm:"size:512"`
	PreviewImageURL  string         `gorm:"size:512"`
	PreviewObjectKey string         `gorm:"size:512"`
	Status           string         `gorm:"size:32"`
}
