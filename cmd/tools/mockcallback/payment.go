package main

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"ascendancy-backend/internal/infra/adumo"
)

type paymentOptions struct {
	Secret        string
	MerchantID    string
	ApplicationID string
	Reference     string
	Amount        string
	Status        string
	Result        int
	TxIndex       string
	Channel       string
}

func paymentCmd() *cobra.Command {
	var o paymentOptions

	cmd := &cobra.Command{
		Use:   "payment",
		Short: "Sign a payment result and post it to the webhook or return URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			base, _ := cmd.Flags().GetString("base-url")
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			req, err := buildPaymentRequest(base, o, time.Now())
			if err != nil {
				return err
			}
			return send(cmd, req, dryRun)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.Secret, "secret", os.Getenv("ADUMO_SECRET"), "Shared assertion secret")
	f.StringVar(&o.MerchantID, "merchant", os.Getenv("ADUMO_MERCHANT_ID"), "Merchant uid (cuid)")
	f.StringVar(&o.ApplicationID, "application", os.Getenv("ADUMO_APPLICATION_ID"), "Application uid (auid)")
	f.StringVar(&o.Reference, "ref", "", "Merchant reference of the payment")
	f.StringVar(&o.Amount, "amount", "", "Amount in rand, e.g. 3000.00")
	f.StringVar(&o.Status, "status", "SUCCESS", "Gateway status text")
	f.IntVar(&o.Result, "result", adumo.ResultSuccess, "Result code (0 success, 1 warning, -1 failed)")
	f.StringVar(&o.TxIndex, "tx-index", "", "Transaction index, random when empty")
	f.StringVar(&o.Channel, "channel", "webhook", "webhook or return")
	_ = cmd.MarkFlagRequired("ref")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func buildPaymentRequest(base string, o paymentOptions, now time.Time) (*http.Request, error) {
	if o.Secret == "" {
		return nil, fmt.Errorf("secret not provided and ADUMO_SECRET not set")
	}
	amount, err := decimal.NewFromString(o.Amount)
	if err != nil {
		return nil, fmt.Errorf("amount: %w", err)
	}
	if o.TxIndex == "" {
		o.TxIndex = uuid.NewString()
	}

	result := o.Result
	token, err := adumo.SignResultAssertion(o.Secret, adumo.ResultClaims{
		MerchantID:        o.MerchantID,
		ApplicationID:     o.ApplicationID,
		MerchantReference: o.Reference,
		Amount:            decimal.NewNullDecimal(amount),
		Result:            &result,
		Status:            o.Status,
		TransactionIndex:  adumo.FlexString(o.TxIndex),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    o.ApplicationID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
			ID:        uuid.NewString(),
		},
	})
	if err != nil {
		return nil, err
	}

	base = strings.TrimRight(base, "/")
	switch o.Channel {
	case "webhook":
		form := url.Values{"jwt": {token}}
		req, err := http.NewRequest(http.MethodPost, base+"/api/payment-webhook", strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	case "return":
		return http.NewRequest(http.MethodGet, base+"/payment-return?"+url.Values{"_jwt": {token}}.Encode(), nil)
	default:
		return nil, fmt.Errorf("unknown channel %q", o.Channel)
	}
}
