package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"storefront_back_end/internal/config"
	"storefront_back_end/internal/logging"
	"storefront_back_end/internal/models"
)

// Mailer sends transactional e-mail over SMTP. A nil *Mailer drops every message.
type Mailer struct {
	cfg      config.Config
	settings config.StoreSettings
}

func NewMailer(cfg config.Config, settings config.StoreSettings) *Mailer {
	if !cfg.MailEnabled() {
		return nil
	}
	return &Mailer{cfg: cfg, settings: settings}
}

// Attachment is an optional file sent with a message.
type Attachment struct {
	Name string
	Data []byte
}

func (m *Mailer) Send(ctx context.Context, to, subject, htmlBody string, attachments ...Attachment) error {
	if m == nil {
		return nil
	}
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.MailFrom); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)
	for _, a := range attachments {
		if len(a.Data) > 0 {
			msg.AttachReader(a.Name, bytes.NewReader(a.Data))
		}
	}

	client, err := mail.NewClient(m.cfg.SMTPHost,
		mail.WithPort(m.cfg.SMTPPort),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(m.cfg.SMTPUsername),
		mail.WithPassword(m.cfg.SMTPPassword),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	logging.L().Info("📤 Sending e-mail", zap.String("to", to), zap.String("subject", subject))
	return client.DialAndSendWithContext(ctx, msg)
}

// Go runs fn in the background with its own timeout, logging failures.
func (m *Mailer) Go(what string, fn func(ctx context.Context) error) {
	if m == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := fn(ctx); err != nil {
			logging.L().Error("❌ E-mail failed", zap.String("mail", what), zap.Error(err))
			return
		}
		logging.L().Info("📧 E-mail sent", zap.String("mail", what))
	}()
}

func (m *Mailer) view(order *models.Order, customer, email string) orderView {
	return orderView{
		Store:    m.settings,
		Order:    order,
		Customer: customerName(customer, order),
		Email:    email,
		BaseURL:  m.cfg.BaseURL,
	}
}

func (m *Mailer) OrderConfirmation(ctx context.Context, to, customer string, order *models.Order, invoicePDF []byte) error {
	v := m.view(order, customer, to)
	v.Title = "Order confirmation"
	body, err := render("order_confirmation.html", v)
	if err != nil {
		return fmt.Errorf("render confirmation: %w", err)
	}
	subject := fmt.Sprintf("✅ Order %s confirmed - %s", order.OrderNumber, m.settings.StoreName)
	return m.Send(ctx, to, subject, body, Attachment{Name: "invoice-" + order.OrderNumber + ".pdf", Data: invoicePDF})
}

func (m *Mailer) OrderStatus(ctx context.Context, to, customer string, order *models.Order) error {
	v := m.view(order, customer, to)
	v.Title = "Order update"
	body, err := render("order_status.html", v)
	if err != nil {
		return fmt.Errorf("render status: %w", err)
	}
	return m.Send(ctx, to, statusSubject(m.settings.StoreName, order.Status), body)
}

func (m *Mailer) Welcome(ctx context.Context, to, name string) error {
	v := orderView{Title: "Welcome", Store: m.settings, Customer: name, BaseURL: m.cfg.BaseURL}
	if v.Customer == "" {
		v.Customer = "there"
	}
	body, err := render("welcome.html", v)
	if err != nil {
		return fmt.Errorf("render welcome: %w", err)
	}
	return m.Send(ctx, to, "🎉 Welcome to "+m.settings.StoreName, body)
}

func customerName(name string, order *models.Order) string {
	if name != "" {
		return name
	}
	if order != nil && order.ShippingAddress.FullName != "" {
		return order.ShippingAddress.FullName
	}
	return "there"
}
