package workflow

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/invoicing_backend/config"
	"bitbucket.org/mmdatafocus/invoicing_backend/models"
	"bitbucket.org/mmdatafocus/invoicing_backend/utils"
	"github.com/sirupsen/logrus"
)

// OtpStore keeps hashed one-time codes, keyed by phone number, with a TTL.
type OtpStore interface {
	Save(phone string, hashedCode string, ttl time.Duration) error
	Get(phone string) (string, bool, error)
	Delete(phone string) error
}

type redisOtpStore struct{}

func (redisOtpStore) Save(phone string, hashedCode string, ttl time.Duration) error {
	return config.SetRedisValue("edit_otp:"+phone, hashedCode, ttl)
}

func (redisOtpStore) Get(phone string) (string, bool, error) {
	return config.GetRedisValue("edit_otp:" + phone)
}

func (redisOtpStore) Delete(phone string) error {
	return config.RemoveRedisKey("edit_otp:" + phone)
}

// EditAccessWorkflow runs the OTP challenge that upgrades a share-link
// holder to a scoped edit credential.
type EditAccessWorkflow struct {
	sender CodeSender
	store  OtpStore

	resolveInvoice  func(ctx context.Context, token string) (*models.Invoice, error)
	getOrCreateUser func(ctx context.Context, phone string, name string) (*models.AuthUser, error)
}

func NewEditAccessWorkflow(sender CodeSender) *EditAccessWorkflow {
	return &EditAccessWorkflow{
		sender:          sender,
		store:           redisOtpStore{},
		resolveInvoice:  models.GetInvoiceByShareToken,
		getOrCreateUser: models.GetOrCreateUserByWhatsApp,
	}
}

// RequestEditAccess verifies the caller holds a live share token and claims
// the invoice's phone number, then sends a one-time code to that number.
// An invoice with no phone on record accepts any claimed number; otherwise a
// mismatch returns the same forbidden error regardless of why, so a caller
// cannot learn whether a phone number matches.
func (w *EditAccessWorkflow) RequestEditAccess(ctx context.Context, token string, phone string) error {
	logger := config.GetLogger()

	invoice, err := w.resolveInvoice(ctx, token)
	if err != nil {
		return err
	}

	claimed := utils.FormatPhoneNumber(phone)
	if claimed == "" {
		return utils.ErrorForbidden
	}
	onRecord := utils.FormatPhoneNumber(invoice.CustomerPhoneSnapshot)
	if onRecord != "" && claimed != onRecord {
		return utils.ErrorForbidden
	}

	code := utils.GenerateOtp(config.OtpLength())
	hashed, err := utils.HashCode(code)
	if err != nil {
		return err
	}

	ttl := time.Duration(config.OtpExpireSeconds()) * time.Second
	if err := w.store.Save(claimed, string(hashed), ttl); err != nil {
		return err
	}

	if err := w.sender.SendOTP(ctx, claimed, code); err != nil {
		// Undelivered codes must not linger as valid credentials.
		_ = w.store.Delete(claimed)
		config.LogError(logger, "workflow", "RequestEditAccess", "send otp", nil, err)
		return fmt.Errorf("failed to send verification code")
	}

	logger.WithFields(logrus.Fields{"invoice_id": invoice.InvoiceId}).Info("edit access code sent")
	return nil
}

// VerifyEditAccess consumes the one-time code and returns a one-hour JWT
// scoped to editing this single invoice. The code is deleted on success;
// replaying it fails.
func (w *EditAccessWorkflow) VerifyEditAccess(ctx context.Context, token string, phone string, code string) (string, error) {
	invoice, err := w.resolveInvoice(ctx, token)
	if err != nil {
		return "", err
	}

	claimed := utils.FormatPhoneNumber(phone)
	if claimed == "" {
		return "", utils.ErrorForbidden
	}
	onRecord := utils.FormatPhoneNumber(invoice.CustomerPhoneSnapshot)
	if onRecord != "" && claimed != onRecord {
		return "", utils.ErrorForbidden
	}

	hashed, found, err := w.store.Get(claimed)
	if err != nil {
		return "", err
	}
	if !found {
		return "", utils.ErrorForbidden
	}
	if err := utils.CompareCode(hashed, code); err != nil {
		return "", utils.ErrorForbidden
	}
	if err := w.store.Delete(claimed); err != nil {
		return "", err
	}

	user, err := w.getOrCreateUser(ctx, claimed, invoice.CustomerNameSnapshot)
	if err != nil {
		return "", err
	}

	return utils.JwtGenerateEditGrant(user.UserId, invoice.InvoiceId)
}
