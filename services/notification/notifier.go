package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/MarcGrol/menucheckout/lib/myhttpclient"
)

type Item struct {
	Name           string
	Quantity       int
	UnitPriceCents int64
}

type OrderConfirmation struct {
	OrderUID      string
	StoreName     string
	CustomerName  string
	Phone         string
	Items         []Item
	TotalCents    int64
	PaymentMethod string
	Delivery      bool
}

//go:generate mockgen -source=notifier.go -package notification -destination notifier_mock.go Notifier
type Notifier interface {
	SendOrderConfirmation(c context.Context, confirmation OrderConfirmation) error
}

type messageRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

type notifier struct {
	baseURL    string
	httpClient myhttpclient.HTTPSender
	printer    *message.Printer
}

func New(baseURL string, httpClient myhttpclient.HTTPSender) Notifier {
	return &notifier{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		printer:    message.NewPrinter(language.BrazilianPortuguese),
	}
}

func (n *notifier) SendOrderConfirmation(c context.Context, confirmation OrderConfirmation) error {
	if confirmation.Phone == "" {
		return fmt.Errorf("no phone number to notify for order %s", confirmation.OrderUID)
	}

	body, err := json.Marshal(messageRequest{
		To:   confirmation.Phone,
		Text: n.composeText(confirmation),
	})
	if err != nil {
		return fmt.Errorf("error marshalling notification: %s", err)
	}

	status, _, err := n.httpClient.Send(c, http.MethodPost, n.baseURL+"/messages", body)
	if err != nil {
		return fmt.Errorf("error sending notification for order %s: %w", confirmation.OrderUID, err)
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("error sending notification for order %s: http-status %d", confirmation.OrderUID, status)
	}
	return nil
}

func (n *notifier) composeText(confirmation OrderConfirmation) string {
	how := "para retirada"
	if confirmation.Delivery {
		how = "para entrega"
	}

	text := strings.Builder{}
	text.WriteString(n.printer.Sprintf("Olá %s! Seu pedido %s em %s foi recebido %s.",
		confirmation.CustomerName,
		confirmation.OrderUID,
		confirmation.StoreName,
		how,
	))
	for _, item := range confirmation.Items {
		text.WriteString(n.printer.Sprintf("\n%dx %s %s", item.Quantity, item.Name, n.formatMoney(int64(item.Quantity)*item.UnitPriceCents)))
	}
	text.WriteString(n.printer.Sprintf("\nTotal: %s (%s).", n.formatMoney(confirmation.TotalCents), confirmation.PaymentMethod))
	return text.String()
}

// formatMoney renders cents as Brazilian reais, e.g. 4250 as "R$ 42,50".
func (n *notifier) formatMoney(cents int64) string {
	return n.printer.Sprint(currency.Symbol(currency.BRL.Amount(float64(cents) / 100)))
}
