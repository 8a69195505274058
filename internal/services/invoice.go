package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/skip2/go-qrcode"

	"storefront_back_end/internal/config"
	"storefront_back_end/internal/models"
)

// Invoices renders printable invoices as HTML and, through headless Chrome, as PDF.
type Invoices struct {
	settings config.StoreSettings
	timeout  time.Duration
}

func NewInvoices(settings config.StoreSettings) *Invoices {
	return &Invoices{settings: settings, timeout: 30 * time.Second}
}

// QRCode encodes the order number as a PNG data URI.
func QRCode(content string) (template.URL, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)), nil
}

func (inv *Invoices) HTML(order *models.Order, email string) (string, error) {
	qr, err := QRCode(order.OrderNumber)
	if err != nil {
		return "", fmt.Errorf("qr code: %w", err)
	}
	return render("invoice.html", orderView{
		Title:  "Invoice " + order.OrderNumber,
		Store:  inv.settings,
		Order:  order,
		Email:  email,
		QRCode: qr,
	})
}

// PDF prints the invoice HTML with a fresh headless Chrome.
func (inv *Invoices) PDF(ctx context.Context, order *models.Order, email string) ([]byte, error) {
	html, err := inv.HTML(order, email)
	if err != nil {
		return nil, err
	}
	return PrintPDF(ctx, html, inv.timeout)
}

func PrintPDF(ctx context.Context, html string, timeout time.Duration) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, timeout)
	defer cancelTimeout()

	var pdf []byte
	err := chromedp.Run(taskCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return pdf, nil
}
