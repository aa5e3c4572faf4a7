package worker

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/AndreyProgger/Test-task2/internal/models"
)

type Mailer struct {
	From   string
	dialer *gomail.Dialer
}

func NewMailer(host string, port int, user, pass, from string) *Mailer {
	return &Mailer{
		From:   from,
		dialer: gomail.NewDialer(host, port, user, pass),
	}
}

// SendOrderDetails emails the order report to its owner with the PDF attached.
func (m *Mailer) SendOrderDetails(to string, order *models.Order, pdfPath string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", fmt.Sprintf("Order #%d details", order.ID))
	msg.SetBody("text/plain", fmt.Sprintf(
		"Your order #%d from %s is attached as a PDF report.",
		order.ID, order.CreatedAt.Format("2006-01-02"),
	))
	msg.Attach(pdfPath)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
