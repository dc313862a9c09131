package billing

import (
	"encoding/json"
	"errors"
	"fmt"

	"ascendancy-backend/internal/domain/plans"

	"gorm.io/datatypes"
)

type Method string

const (
	MethodLumpSum        Method = "lump_sum"
	MethodDepositMonthly Method = "deposit_monthly"
)

func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodLumpSum, MethodDepositMonthly:
		return Method(s), nil
	}
	return "", fmt.Errorf("unsupported payment method %q", s)
}

// Intent is what the investor asked to pay for. It is either a
// LumpSumIntent or a DepositMonthlyIntent.
type Intent interface {
	Method() Method
	TierKey() string
	// ChargeAmount is what the hosted form collects right now (minor units).
	ChargeAmount() int64
	isIntent()
}

type LumpSumIntent struct {
	Tier   string
	Amount int64
}

func (i LumpSumIntent) Method() Method      { return MethodLumpSum }
func (i LumpSumIntent) TierKey() string     { return i.Tier }
func (i LumpSumIntent) ChargeAmount() int64 { return i.Amount }
func (LumpSumIntent) isIntent()             {}

type DepositMonthlyIntent struct {
	Tier          string
	DepositAmount int64
	MonthlyAmount int64
	TotalMonths   int
}

func (i DepositMonthlyIntent) Method() Method      { return MethodDepositMonthly }
func (i DepositMonthlyIntent) TierKey() string     { return i.Tier }
func (i DepositMonthlyIntent) ChargeAmount() int64 { return i.DepositAmount }
func (DepositMonthlyIntent) isIntent()             {}

// NewIntent prices an intent from the tier catalog.
func NewIntent(t plans.Tier, m Method) (Intent, error) {
	switch m {
	case MethodLumpSum:
		return LumpSumIntent{Tier: t.Key, Amount: t.LumpSum}, nil
	case MethodDepositMonthly:
		return DepositMonthlyIntent{
			Tier:          t.Key,
			DepositAmount: t.Deposit,
			MonthlyAmount: t.MonthlyAmount,
			TotalMonths:   t.TotalMonths,
		}, nil
	}
	return nil, fmt.Errorf("unsupported payment method %q", m)
}

// Contact is the signup snapshot taken when the intent was created.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// PaymentData is the JSON envelope persisted on Payment.PaymentData.
type PaymentData struct {
	Kind              Method  `json:"kind"`
	Tier              string  `json:"tier"`
	Amount            int64   `json:"amount,omitempty"`
	DepositAmount     int64   `json:"depositAmount,omitempty"`
	MonthlyAmount     int64   `json:"monthlyAmount,omitempty"`
	TotalMonths       int     `json:"totalMonths,omitempty"`
	MerchantReference string  `json:"merchantReference"`
	Contact           Contact `json:"contact"`
}

func EncodePaymentData(intent Intent, merchantRef string, contact Contact) (datatypes.JSON, error) {
	d := PaymentData{
		Kind:              intent.Method(),
		Tier:              intent.TierKey(),
		MerchantReference: merchantRef,
		Contact:           contact,
	}
	switch v := intent.(type) {
	case LumpSumIntent:
		d.Amount = v.Amount
	case DepositMonthlyIntent:
		d.DepositAmount = v.DepositAmount
		d.MonthlyAmount = v.MonthlyAmount
		d.TotalMonths = v.TotalMonths
	default:
		return nil, fmt.Errorf("unknown intent type %T", intent)
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

var ErrNoIntent = errors.New("payment data carries no intent")

func DecodePaymentData(raw datatypes.JSON) (PaymentData, error) {
	var d PaymentData
	if len(raw) == 0 {
		return d, ErrNoIntent
	}
	if err := json.Unmarshal(raw, &d); err != nil {
		return d, fmt.Errorf("decode payment data: %w", err)
	}
	return d, nil
}

func DecodeIntent(raw datatypes.JSON) (Intent, error) {
	d, err := DecodePaymentData(raw)
	if err != nil {
		return nil, err
	}
	switch d.Kind {
	case MethodLumpSum:
		return LumpSumIntent{Tier: d.Tier, Amount: d.Amount}, nil
	case MethodDepositMonthly:
		return DepositMonthlyIntent{
			Tier:          d.Tier,
			DepositAmount: d.DepositAmount,
			MonthlyAmount: d.MonthlyAmount,
			TotalMonths:   d.TotalMonths,
		}, nil
	}
	return nil, fmt.Errorf("%w: kind %q", ErrNoIntent, d.Kind)
}
