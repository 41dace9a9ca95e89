package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/invoicing_backend/config"
	"bitbucket.org/mmdatafocus/invoicing_backend/utils"
	"gorm.io/gorm"
)

// AuthUser identifies an edit-access grantee by WhatsApp number. Users are
// created lazily on first successful OTP verification.
type AuthUser struct {
	ID             int       `gorm:"primary_key" json:"id"`
	UserId         string    `gorm:"size:64;uniqueIndex;not null" json:"user_id"`
	WhatsappNumber string    `gorm:"size:32;uniqueIndex;not null" json:"whatsapp_number"`
	Name           string    `gorm:"size:255" json:"name"`
	Role           string    `gorm:"size:32;default:customer" json:"role"`
	Active         *bool     `gorm:"default:true" json:"active"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// GetOrCreateUserByWhatsApp looks a user up by normalized number, creating
// a customer-role record when none exists yet.
func GetOrCreateUserByWhatsApp(ctx context.Context, whatsappNumber string, name string) (*AuthUser, error) {
	db := config.GetDB()

	normalized := utils.FormatPhoneNumber(whatsappNumber)
	if normalized == "" {
		return nil, utils.ErrorValidation
	}

	var user AuthUser
	err := db.WithContext(ctx).Where("whatsapp_number = ?", normalized).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = AuthUser{
		UserId:         "user_" + utils.RandomHex(8),
		WhatsappNumber: normalized,
		Name:           name,
		Role:           "customer",
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
