package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/invoicing_backend/config"
	"bitbucket.org/mmdatafocus/invoicing_backend/utils"
	"gorm.io/gorm"
)

type Customer struct {
	ID         int       `gorm:"primary_key" json:"id"`
	CustomerId string    `gorm:"size:64;uniqueIndex;not null" json:"customer_id"`
	Name       string    `gorm:"size:255;not null;index" json:"name" binding:"required"`
	Phone      string    `gorm:"size:64" json:"phone"`
	Email      string    `gorm:"size:255" json:"email"`
	Address    string    `gorm:"type:text" json:"address"`
	CreatedBy  string    `gorm:"size:64" json:"created_by"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// findOrCreateCustomer resolves an existing customer by exact name match and
// creates one otherwise. Name matching is deliberately weak (legacy
// behavior): two unrelated customers sharing a name will be merged. Runs
// inside the caller's transaction.
func findOrCreateCustomer(ctx context.Context, tx *gorm.DB, name string, phone string, address string, createdBy string) (*Customer, error) {
	var customer Customer
	err := tx.WithContext(ctx).Where("name = ?", name).First(&customer).Error
	if err == nil {
		return &customer, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	customer = Customer{
		CustomerId: "cust_" + utils.RandomHex(4),
		Name:       name,
		Phone:      phone,
		Address:    address,
		CreatedBy:  createdBy,
	}
	if err := tx.WithContext(ctx).Create(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func GetCustomer(ctx context.Context, id int) (*Customer, error) {
	db := config.GetDB()
	var customer Customer
	if err := db.WithContext(ctx).First(&customer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &customer, nil
}
