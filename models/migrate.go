package models

import (
	"bitbucket.org/mmdatafocus/invoicing_backend/config"
	"bitbucket.org/mmdatafocus/invoicing_backend/utils"
)

func MigrateTable() {
	db := config.GetDB()
	err := db.AutoMigrate(
		&Customer{},
		&Package{},
		&Voucher{},
		&InvoiceTemplate{},
		&Invoice{},
		&InvoiceItem{},
		&InvoicePayment{},
		&AuthUser{},
		&AuditLog{},
	)
	utils.ErrorPanic(err)
}
