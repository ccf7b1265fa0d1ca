package notification

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/wneessen/go-mail"

	"github.com/brizzinck/tyutyun-shop/internal/config"
	"github.com/brizzinck/tyutyun-shop/internal/order/domain"
)

const activationTmpl = `<!DOCTYPE html>
<html>
<body>
  <h2>Tyutyun Shop</h2>
  <p>Please activate your account:</p>
  <p><a href="{{.Link}}">Activate account</a></p>
</body>
</html>`

const confirmationTmpl = `<!DOCTYPE html>
<html>
<body>
  <h2>Order #{{.OrderID}}</h2>
  <h3>Shipping</h3>
  <p>{{.FirstName}} {{.LastName}}, {{.Address}}</p>
  <p>{{.PhoneNumber}} / {{.Email}}</p>
  <h3>Items</h3>
  <table>
    <tr><th>Product</th><th>Quantity</th><th>Size</th><th>Total</th></tr>
    {{range .Items}}<tr><td>{{.ProductName}}</td><td>{{.Quantity}}</td><td>{{.Size}}</td><td>{{money .LineTotal}}</td></tr>
    {{end}}
  </table>
  <p><strong>Total: {{money .TotalCents}}</strong></p>
</body>
</html>`

// Mailer sends transactional mail over SMTP with STARTTLS.
type Mailer struct {
	log          *slog.Logger
	client       *mail.Client
	from         string
	activation   *template.Template
	confirmation *template.Template
}

func NewMailer(log *slog.Logger, cfg config.SMTP) (*Mailer, error) {
	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}

	funcs := template.FuncMap{"money": formatMoney}
	return &Mailer{
		log:          log,
		client:       client,
		from:         cfg.From,
		activation:   template.Must(template.New("activation").Parse(activationTmpl)),
		confirmation: template.Must(template.New("confirmation").Funcs(funcs).Parse(confirmationTmpl)),
	}, nil
}

// OrderConfirmation renders and sends the confirmation for a committed
// order. The caller treats any error as non-fatal.
func (m *Mailer) OrderConfirmation(ctx context.Context, details domain.OrderDetails) error {
	var body bytes.Buffer
	if err := m.confirmation.Execute(&body, details); err != nil {
		return fmt.Errorf("render confirmation: %w", err)
	}
	return m.send(ctx, details.Email, fmt.Sprintf("Order #%d confirmed - Tyutyun Shop", details.OrderID), body.String())
}

func (m *Mailer) ActivationLink(ctx context.Context, email, link string) error {
	var body bytes.Buffer
	if err := m.activation.Execute(&body, struct{ Link string }{Link: link}); err != nil {
		return fmt.Errorf("render activation: %w", err)
	}
	return m.send(ctx, email, "Account activation - Tyutyun Shop", body.String())
}

func (m *Mailer) send(ctx context.Context, to, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	m.log.Info("mail sent", "to", to, "subject", subject)
	return nil
}

func formatMoney(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
