package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/invoicing_backend/models"
	"bitbucket.org/mmdatafocus/invoicing_backend/utils"
)

type fakeSender struct {
	sentTo   string
	sentCode string
	fail     bool
}

func (f *fakeSender) SendOTP(ctx context.Context, phone string, code string) error {
	if f.fail {
		return errors.New("gateway down")
	}
	f.sentTo = phone
	f.sentCode = code
	return nil
}

type memOtpStore struct {
	codes map[string]string
}

func newMemOtpStore() *memOtpStore {
	return &memOtpStore{codes: map[string]string{}}
}

func (s *memOtpStore) Save(phone string, hashedCode string, ttl time.Duration) error {
	s.codes[phone] = hashedCode
	return nil
}

func (s *memOtpStore) Get(phone string) (string, bool, error) {
	v, ok := s.codes[phone]
	return v, ok, nil
}

func (s *memOtpStore) Delete(phone string) error {
	delete(s.codes, phone)
	return nil
}

func testWorkflow(sender CodeSender, store OtpStore, invoicePhone string) *EditAccessWorkflow {
	return &EditAccessWorkflow{
		sender: sender,
		store:  store,
		resolveInvoice: func(ctx context.Context, token string) (*models.Invoice, error) {
			if token != "good-token" {
				return nil, utils.ErrorRecordNotFound
			}
			return &models.Invoice{
				InvoiceId:             "inv_test01",
				CustomerNameSnapshot:  "Acme Sdn Bhd",
				CustomerPhoneSnapshot: invoicePhone,
			}, nil
		},
		getOrCreateUser: func(ctx context.Context, phone string, name string) (*models.AuthUser, error) {
			return &models.AuthUser{UserId: "user_test01", WhatsappNumber: phone, Name: name}, nil
		},
	}
}

func TestRequestEditAccessSendsCode(t *testing.T) {
	sender := &fakeSender{}
	store := newMemOtpStore()
	w := testWorkflow(sender, store, "+60 12-345 6789")

	err := w.RequestEditAccess(context.Background(), "good-token", "60123456789")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if sender.sentCode == "" {
		t.Fatal("no code sent")
	}
	if sender.sentTo != "60123456789" {
		t.Errorf("sent to %q, want normalized number", sender.sentTo)
	}

	stored, ok, _ := store.Get("60123456789")
	if !ok {
		t.Fatal("no code stored")
	}
	if stored == sender.sentCode {
		t.Fatal("code stored in clear text")
	}
}

func TestRequestEditAccessUnknownToken(t *testing.T) {
	w := testWorkflow(&fakeSender{}, newMemOtpStore(), "60123456789")

	err := w.RequestEditAccess(context.Background(), "bad-token", "60123456789")
	if !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("err = %v, want record not found", err)
	}
}

func TestRequestEditAccessPhoneMismatch(t *testing.T) {
	sender := &fakeSender{}
	w := testWorkflow(sender, newMemOtpStore(), "60123456789")

	err := w.RequestEditAccess(context.Background(), "good-token", "60999999999")
	if !errors.Is(err, utils.ErrorForbidden) {
		t.Fatalf("err = %v, want forbidden", err)
	}
	if sender.sentCode != "" {
		t.Fatal("code sent despite mismatch")
	}
}

func TestRequestEditAccessNoPhoneOnRecordAllowsAnyNumber(t *testing.T) {
	sender := &fakeSender{}
	store := newMemOtpStore()
	w := testWorkflow(sender, store, "")

	err := w.RequestEditAccess(context.Background(), "good-token", "60123456789")
	if err != nil {
		t.Fatalf("request with no phone on record must be allowed, got %v", err)
	}
	if sender.sentTo != "60123456789" {
		t.Errorf("code sent to %q, want the claimed number", sender.sentTo)
	}
	if _, ok, _ := store.Get("60123456789"); !ok {
		t.Fatal("no code stored for the claimed number")
	}
}

func TestVerifyEditAccessNoPhoneOnRecord(t *testing.T) {
	sender := &fakeSender{}
	store := newMemOtpStore()
	w := testWorkflow(sender, store, "")

	if err := w.RequestEditAccess(context.Background(), "good-token", "60123456789"); err != nil {
		t.Fatalf("request: %v", err)
	}
	grant, err := w.VerifyEditAccess(context.Background(), "good-token", "60123456789", sender.sentCode)
	if err != nil {
		t.Fatalf("verify with no phone on record must succeed, got %v", err)
	}
	if _, err := utils.JwtValidate(grant); err != nil {
		t.Fatalf("grant does not validate: %v", err)
	}
}

func TestRequestEditAccessEmptyClaimedPhone(t *testing.T) {
	w := testWorkflow(&fakeSender{}, newMemOtpStore(), "")

	err := w.RequestEditAccess(context.Background(), "good-token", "")
	if !errors.Is(err, utils.ErrorForbidden) {
		t.Fatalf("err = %v, want forbidden", err)
	}
}

func TestRequestEditAccessDeliveryFailureClearsCode(t *testing.T) {
	store := newMemOtpStore()
	w := testWorkflow(&fakeSender{fail: true}, store, "60123456789")

	err := w.RequestEditAccess(context.Background(), "good-token", "60123456789")
	if err == nil {
		t.Fatal("delivery failure not surfaced")
	}
	if _, ok, _ := store.Get("60123456789"); ok {
		t.Fatal("undelivered code left in store")
	}
}

func TestVerifyEditAccessHappyPath(t *testing.T) {
	sender := &fakeSender{}
	store := newMemOtpStore()
	w := testWorkflow(sender, store, "60123456789")

	if err := w.RequestEditAccess(context.Background(), "good-token", "60123456789"); err != nil {
		t.Fatalf("request: %v", err)
	}

	grant, err := w.VerifyEditAccess(context.Background(), "good-token", "60123456789", sender.sentCode)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	claims, err := utils.JwtValidate(grant)
	if err != nil {
		t.Fatalf("grant does not validate: %v", err)
	}
	if claims.EditInvoice != "inv_test01" {
		t.Errorf("edit_invoice = %q, want inv_test01", claims.EditInvoice)
	}
	if claims.Scope != utils.EditGrantScope {
		t.Errorf("scope = %q, want %q", claims.Scope, utils.EditGrantScope)
	}

	// The code is consumed; replaying it fails.
	if _, err := w.VerifyEditAccess(context.Background(), "good-token", "60123456789", sender.sentCode); !errors.Is(err, utils.ErrorForbidden) {
		t.Fatalf("replay err = %v, want forbidden", err)
	}
}

func TestVerifyEditAccessWrongCode(t *testing.T) {
	sender := &fakeSender{}
	store := newMemOtpStore()
	w := testWorkflow(sender, store, "60123456789")

	if err := w.RequestEditAccess(context.Background(), "good-token", "60123456789"); err != nil {
		t.Fatalf("request: %v", err)
	}

	_, err := w.VerifyEditAccess(context.Background(), "good-token", "60123456789", "000000")
	if !errors.Is(err, utils.ErrorForbidden) {
		t.Fatalf("err = %v, want forbidden", err)
	}

	// A wrong guess does not consume the stored code.
	if _, ok, _ := store.Get("60123456789"); !ok {
		t.Fatal("stored code deleted by wrong guess")
	}
}
