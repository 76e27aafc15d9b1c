package withdrawal

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Method selects which payment details variant a withdrawal carries.
type Method string

// Supported payout methods.
const (
	MethodMobileMoney  Method = "mobile_money"
	MethodBankCard     Method = "bank_card"
	MethodBankTransfer Method = "bank_transfer"
)

// ParseMethod validates a wire string as a Method.
func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case MethodMobileMoney, MethodBankCard, MethodBankTransfer:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown method %q", ErrInvalidPaymentDetails, s)
	}
}

// String returns the wire representation.
func (m Method) String() string {
	return string(m)
}

// Details is the tagged union of payout destination details. The concrete
// variant must match the declared Method on the request.
type Details interface {
	Method() Method
	Validate() error
}

// MobileMoneyDetails is the mobile_money variant.
type MobileMoneyDetails struct {
	Phone      string `json:"phone" validate:"required,e164"`
	Operator   string `json:"operator" validate:"required"`
	Country    string `json:"country" validate:"required,iso3166_1_alpha2"`
	HolderName string `json:"holder_name,omitempty"`
}

// Method implements Details.
func (d MobileMoneyDetails) Method() Method { return MethodMobileMoney }

// Validate implements Details.
func (d MobileMoneyDetails) Validate() error {
	if strings.TrimSpace(d.Phone) == "" {
		return fmt.Errorf("%w: mobile money phone is required", ErrInvalidPaymentDetails)
	}
	if strings.TrimSpace(d.Operator) == "" {
		return fmt.Errorf("%w: mobile money operator is required", ErrInvalidPaymentDetails)
	}
	if len(d.Country) != 2 {
		return fmt.Errorf("%w: country must be a 2-letter code", ErrInvalidPaymentDetails)
	}
	return nil
}

// BankCardDetails is the bank_card variant. Only a masked card number is
// ever stored.
type BankCardDetails struct {
	MaskedNumber string `json:"masked_number" validate:"required"`
	HolderName   string `json:"holder_name" validate:"required"`
	Expiry       string `json:"expiry,omitempty"`
}

// Method implements Details.
func (d BankCardDetails) Method() Method { return MethodBankCard }

// Validate implements Details.
func (d BankCardDetails) Validate() error {
	if strings.TrimSpace(d.MaskedNumber) == "" {
		return fmt.Errorf("%w: card number is required", ErrInvalidPaymentDetails)
	}
	// Reject anything that looks like an unmasked PAN.
	digits := 0
	for _, r := range d.MaskedNumber {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits > 10 {
		return fmt.Errorf("%w: card number must be masked", ErrInvalidPaymentDetails)
	}
	if strings.TrimSpace(d.HolderName) == "" {
		return fmt.Errorf("%w: card holder name is required", ErrInvalidPaymentDetails)
	}
	return nil
}

// BankTransferDetails is the bank_transfer variant.
type BankTransferDetails struct {
	AccountNumber string `json:"account_number" validate:"required"`
	BankName      string `json:"bank_name" validate:"required"`
	HolderName    string `json:"holder_name" validate:"required"`
	IBAN          string `json:"iban,omitempty"`
	SWIFT         string `json:"swift,omitempty"`
}

// Method implements Details.
func (d BankTransferDetails) Method() Method { return MethodBankTransfer }

// Validate implements Details.
func (d BankTransferDetails) Validate() error {
	if strings.TrimSpace(d.AccountNumber) == "" {
		return fmt.Errorf("%w: account number is required", ErrInvalidPaymentDetails)
	}
	if strings.TrimSpace(d.BankName) == "" {
		return fmt.Errorf("%w: bank name is required", ErrInvalidPaymentDetails)
	}
	if strings.TrimSpace(d.HolderName) == "" {
		return fmt.Errorf("%w: account holder name is required", ErrInvalidPaymentDetails)
	}
	return nil
}

// MarshalDetails serializes a details variant for storage.
func MarshalDetails(d Details) ([]byte, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: details are required", ErrInvalidPaymentDetails)
	}
	return json.Marshal(d)
}

// UnmarshalDetails hydrates the variant selected by method from its
// stored JSON form.
func UnmarshalDetails(method Method, data []byte) (Details, error) {
	switch method {
	case MethodMobileMoney:
		var d MobileMoneyDetails
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPaymentDetails, err)
		}
		return d, nil
	case MethodBankCard:
		var d BankCardDetails
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPaymentDetails, err)
		}
		return d, nil
	case MethodBankTransfer:
		var d BankTransferDetails
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPaymentDetails, err)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("%w: unknown method %q", ErrInvalidPaymentDetails, method)
	}
}
