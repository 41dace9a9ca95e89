package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"bitbucket.org/mmdatafocus/invoicing_backend/config"
	"bitbucket.org/mmdatafocus/invoicing_backend/utils"
	"github.com/sirupsen/logrus"
)

// CodeSender delivers one-time codes out of band. The production
// implementation posts to the WhatsApp gateway; tests substitute a fake.
type CodeSender interface {
	SendOTP(ctx context.Context, phone string, code string) error
}

// WhatsAppClient talks to the internal WhatsApp gateway service.
type WhatsAppClient struct {
	baseUrl string
	client  *http.Client
}

func NewWhatsAppClient() *WhatsAppClient {
	return &WhatsAppClient{
		baseUrl: config.WhatsAppApiUrl(),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type whatsAppMessage struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

func (w *WhatsAppClient) send(ctx context.Context, phone string, message string) error {
	if w.baseUrl == "" {
		return fmt.Errorf("whatsapp gateway not configured")
	}

	body, err := json.Marshal(whatsAppMessage{Phone: utils.FormatPhoneE164(phone), Message: message})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseUrl+"/send", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("whatsapp gateway returned %d", resp.StatusCode)
	}
	return nil
}

func (w *WhatsAppClient) SendOTP(ctx context.Context, phone string, code string) error {
	message := fmt.Sprintf("Your verification code is %s. It expires in %d minutes. Do not share this code with anyone.",
		code, config.OtpExpireSeconds()/60)
	return w.send(ctx, phone, message)
}

// SendInvoiceNotification shares the public view link with the customer.
func (w *WhatsAppClient) SendInvoiceNotification(ctx context.Context, phone string, invoiceNumber string, viewUrl string) error {
	message := fmt.Sprintf("Your invoice %s is ready. View it here: %s", invoiceNumber, viewUrl)
	return w.send(ctx, phone, message)
}

// CheckStatus pings the gateway health endpoint.
func (w *WhatsAppClient) CheckStatus(ctx context.Context) error {
	if w.baseUrl == "" {
		return fmt.Errorf("whatsapp gateway not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseUrl+"/status", nil)
	if err != nil {
		return err
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		config.GetLogger().WithFields(logrus.Fields{"status": resp.StatusCode}).Error("whatsapp gateway unhealthy")
		return fmt.Errorf("whatsapp gateway returned %d", resp.StatusCode)
	}
	return nil
}
