package adumo

import (
	"context"
	"strings"
	"time"

	"ascendancy-backend/internal/shared/apperr"
)

type CardNetwork string

const (
	NetworkVisa       CardNetwork = "visa"
	NetworkMastercard CardNetwork = "mastercard"
	NetworkAmex       CardNetwork = "amex"
	NetworkDiscover   CardNetwork = "discover"
	NetworkUnknown    CardNetwork = ""
)

type CardDetails struct {
	Number      string
	HolderName  string
	ExpiryMonth int
	ExpiryYear  int
	CVV         string
}

type CardTokens struct {
	CardToken    string
	ProfileToken string
	Brand        CardNetwork
	Last4        string
	ExpiryMonth  int
	ExpiryYear   int
	HolderName   string
}

// Validate checks card fields before anything leaves the process. The
// returned error is a validation AppError with one entry per bad field.
func (d CardDetails) Validate(now time.Time) error {
	fields := map[string]string{}

	if strings.TrimSpace(d.HolderName) == "" {
		fields["holderName"] = "is required"
	}

	number := normalizeCardNumber(d.Number)
	network := DetectCardNetwork(number)
	switch {
	case len(number) < 12 || len(number) > 19 || !isDigits(number):
		fields["cardNumber"] = "must be 12 to 19 digits"
	case !ValidLuhn(number):
		fields["cardNumber"] = "failed checksum"
	case network == NetworkUnknown:
		fields["cardNumber"] = "card network not supported"
	}

	year := normalizeYear(d.ExpiryYear)
	switch {
	case d.ExpiryMonth < 1 || d.ExpiryMonth > 12:
		fields["expiryMonth"] = "must be between 1 and 12"
	case year < now.Year() || (year == now.Year() && d.ExpiryMonth < int(now.Month())):
		fields["expiryYear"] = "card has expired"
	}

	cvvLen := 3
	if network == NetworkAmex {
		cvvLen = 4
	}
	if len(d.CVV) != cvvLen || !isDigits(d.CVV) {
		fields["cvv"] = "invalid security code"
	}

	if len(fields) > 0 {
		return apperr.ValidationErr("Card details are invalid.", fields)
	}
	return nil
}

// ValidLuhn reports whether a digit string passes the Luhn checksum.
func ValidLuhn(number string) bool {
	if number == "" {
		return false
	}
	sum := 0
	parity := len(number) % 2
	for i, r := range number {
		if r < '0' || r > '9' {
			return false
		}
		digit := int(r - '0')
		if i%2 == parity {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
	}
	return sum%10 == 0
}

func DetectCardNetwork(number string) CardNetwork {
	number = normalizeCardNumber(number)
	if len(number) < 2 {
		return NetworkUnknown
	}
	prefix2 := number[:2]
	switch {
	case prefix2 == "34" || prefix2 == "37":
		return NetworkAmex
	case number[0] == '4':
		return NetworkVisa
	case prefix2 >= "51" && prefix2 <= "55", prefix2 >= "22" && prefix2 <= "27":
		return NetworkMastercard
	case prefix2 >= "60" && prefix2 <= "65":
		return NetworkDiscover
	}
	return NetworkUnknown
}

func normalizeCardNumber(n string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(n))
}

func normalizeYear(y int) int {
	if y >= 0 && y < 100 {
		return 2000 + y
	}
	return y
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

type tokenizeRequest struct {
	MerchantUID    string `json:"merchantUid"`
	ApplicationUID string `json:"applicationUid"`
	CardNumber     string `json:"cardNumber"`
	CardHolderName string `json:"cardHolderName"`
	ExpiryMonth    int    `json:"expiryMonth"`
	ExpiryYear     int    `json:"expiryYear"`
	CVV            string `json:"cvv"`
	SaveCard       bool   `json:"saveCardDetails"`
}

type tokenizeResponse struct {
	Token        string `json:"token"`
	CardToken    string `json:"cardToken"`
	ProfileUID   string `json:"profileUid"`
	ProfileToken string `json:"profileToken"`
}

// TokenizeCard exchanges raw card details for a reusable card token and
// profile token.
func (c *Client) TokenizeCard(ctx context.Context, d CardDetails) (CardTokens, error) {
	if err := d.Validate(c.now()); err != nil {
		return CardTokens{}, err
	}

	number := normalizeCardNumber(d.Number)
	year := normalizeYear(d.ExpiryYear)

	var resp tokenizeResponse
	err := c.doJSON(ctx, "tokenize", tokenizePath, tokenizeRequest{
		MerchantUID:    c.cfg.MerchantID,
		ApplicationUID: c.cfg.ApplicationID,
		CardNumber:     number,
		CardHolderName: strings.TrimSpace(d.HolderName),
		ExpiryMonth:    d.ExpiryMonth,
		ExpiryYear:     year,
		CVV:            d.CVV,
		SaveCard:       true,
	}, &resp)
	if err != nil {
		return CardTokens{}, err
	}

	out := CardTokens{
		CardToken:    firstNonEmpty(resp.CardToken, resp.Token),
		ProfileToken: firstNonEmpty(resp.ProfileToken, resp.ProfileUID),
		Brand:        DetectCardNetwork(number),
		Last4:        number[len(number)-4:],
		ExpiryMonth:  d.ExpiryMonth,
		ExpiryYear:   year,
		HolderName:   strings.TrimSpace(d.HolderName),
	}
	if out.CardToken == "" {
		return CardTokens{}, apperr.GatewayErr(0, ErrMissingCardToken)
	}
	return out, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
