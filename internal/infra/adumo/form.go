package adumo

import (
	"strconv"
	"strings"

	"ascendancy-backend/internal/domain/billing"
	"ascendancy-backend/internal/shared/apperr"
)

type FormPayment struct {
	MerchantReference string
	Amount            int64 // cents charged now
	Description       string
	Customer          billing.Contact
	// Recurring is set for deposit plans; the gateway shows the monthly
	// commitment on the hosted form.
	Recurring *RecurringPlan
}

type RecurringPlan struct {
	MonthlyAmount int64
	Cycles        int
}

type ReturnURLs struct {
	Success string
	Failed  string
	Notify  string
}

// VirtualForm is what the browser posts to the hosted payment page.
type VirtualForm struct {
	URL    string            `json:"url"`
	Fields map[string]string `json:"formFields"`
}

func (c *Client) BuildVirtualForm(p FormPayment, urls ReturnURLs) (VirtualForm, error) {
	if p.MerchantReference == "" || p.Amount <= 0 {
		return VirtualForm{}, apperr.ValidationErr("Payment is incomplete.", nil)
	}
	if c.cfg.FormURL == "" || c.cfg.Secret == "" {
		return VirtualForm{}, apperr.ConfigurationErr(errMissingFormConfig)
	}

	token, err := c.SignFormAssertion(p.MerchantReference, p.Amount)
	if err != nil {
		return VirtualForm{}, apperr.Wrap(err)
	}

	amount := FormatMajorUnits(p.Amount)
	first, last := splitName(p.Customer.Name)
	fields := map[string]string{
		"MerchantID":            c.cfg.MerchantID,
		"ApplicationID":         c.cfg.ApplicationID,
		"MerchantReference":     p.MerchantReference,
		"Amount":                amount,
		"txtCurrencyCode":       c.currency(),
		"Token":                 token,
		"RedirectSuccessfulURL": urls.Success,
		"RedirectFailedURL":     urls.Failed,
		"NotificationURL":       urls.Notify,
		"Item1Description":      p.Description,
		"Item1Quantity":         "1",
		"Item1Amount":           amount,
		"CustomerFirstName":     first,
		"CustomerLastName":      last,
		"CustomerEmail":         p.Customer.Email,
		"CustomerPhone":         p.Customer.Phone,
	}

	if p.Recurring != nil {
		fields["Recurring"] = "true"
		fields["RecurringAmount"] = FormatMajorUnits(p.Recurring.MonthlyAmount)
		fields["RecurringCycles"] = strconv.Itoa(p.Recurring.Cycles)
		fields["RecurringFrequency"] = "MONTHLY"
	}

	return VirtualForm{URL: c.cfg.FormURL, Fields: fields}, nil
}

func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
