package models

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"bitbucket.org/mmdatafocus/invoicing_backend/config"
	"bitbucket.org/mmdatafocus/invoicing_backend/utils"
	"gorm.io/gorm"
)

const invoiceNumberMaxRetries = 3

// nextInvoiceNumber picks the next number in the PREFIX-NNNNNN sequence by
// scanning the current maximum inside the caller's transaction. Rows whose
// suffix is not numeric are ignored so a single imported legacy number
// cannot poison the sequence.
func nextInvoiceNumber(ctx context.Context, tx *gorm.DB) (string, error) {
	prefix := config.InvoiceNumberPrefix()
	width := config.InvoiceNumberLength()

	var numbers []string
	err := tx.WithContext(ctx).Model(&Invoice{}).
		Where("invoice_number LIKE ?", prefix+"-%").
		Pluck("invoice_number", &numbers).Error
	if err != nil {
		return "", err
	}

	maxSuffix := 0
	for _, number := range numbers {
		suffix := strings.TrimPrefix(number, prefix+"-")
		n, perr := strconv.Atoi(suffix)
		if perr != nil {
			continue
		}
		if n > maxSuffix {
			maxSuffix = n
		}
	}

	return formatInvoiceNumber(prefix, maxSuffix+1, width), nil
}

func formatInvoiceNumber(prefix string, n int, width int) string {
	return fmt.Sprintf("%s-%0*d", prefix, width, n)
}

// createInvoiceWithNumberRetry inserts the invoice, regenerating the number
// on a unique-key collision. Two concurrent creations can compute the same
// next number; the unique index on invoice_number arbitrates and the loser
// retries with a fresh scan. After the retry budget the caller gets a
// conflict error rather than a corrupted sequence.
func createInvoiceWithNumberRetry(ctx context.Context, tx *gorm.DB, invoice *Invoice) error {
	for attempt := 0; attempt < invoiceNumberMaxRetries; attempt++ {
		err := tx.WithContext(ctx).Create(invoice).Error
		if err == nil {
			return nil
		}
		if !isDuplicateKeyError(err) {
			return err
		}
		number, nerr := nextInvoiceNumber(ctx, tx)
		if nerr != nil {
			return nerr
		}
		invoice.InvoiceNumber = number
	}
	return utils.ErrorConflict
}

func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// MySQL 1062 without gorm error translation enabled.
	return strings.Contains(err.Error(), "Duplicate entry")
}
