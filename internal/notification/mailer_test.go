package notification

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brizzinck/tyutyun-shop/internal/config"
	"github.com/brizzinck/tyutyun-shop/internal/order/domain"
)

func newTestMailer(t *testing.T) *Mailer {
	t.Helper()
	m, err := NewMailer(slog.Default(), config.SMTP{
		Host: "localhost",
		Port: 587,
		From: "Tyutyun Shop <tyutyun-shop@yacode.dev>",
	})
	require.NoError(t, err)
	return m
}

func TestConfirmationTemplateRendersOrder(t *testing.T) {
	m := newTestMailer(t)

	var body bytes.Buffer
	err := m.confirmation.Execute(&body, domain.OrderDetails{
		OrderID:     42,
		TotalCents:  2500,
		Address:     "Kyiv, Khreshchatyk 1",
		FirstName:   "Taras",
		LastName:    "S",
		PhoneNumber: "+380000000000",
		Email:       "taras@example.com",
		Items: []domain.PlacedItem{
			{ProductName: "Hoodie", Quantity: 2, Size: "M", LineTotal: 2000},
			{ProductName: "Cap", Quantity: 1, Size: "single", LineTotal: 500},
		},
	})
	require.NoError(t, err)

	html := body.String()
	assert.Contains(t, html, "Order #42")
	assert.Contains(t, html, "Hoodie")
	assert.Contains(t, html, "<td>2</td>")
	assert.Contains(t, html, "20.00")
	assert.Contains(t, html, "Total: 25.00")
	assert.Contains(t, html, "Kyiv, Khreshchatyk 1")
}

func TestActivationTemplateRendersLink(t *testing.T) {
	m := newTestMailer(t)

	var body bytes.Buffer
	err := m.activation.Execute(&body, struct{ Link string }{
		Link: "http://127.0.0.1:8181/api/registration?token=abc",
	})
	require.NoError(t, err)
	assert.Contains(t, body.String(), `href="http://127.0.0.1:8181/api/registration?token=abc"`)
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "0.05", formatMoney(5))
	assert.Equal(t, "12.00", formatMoney(1200))
	assert.Equal(t, "12.34", formatMoney(1234))
}
