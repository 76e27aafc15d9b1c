package money

// Code represents an ISO 4217 currency code (e.g., "USD", "KES").
type Code string

// Currency codes the platform settles in.
const (
	USD Code = "USD" // US Dollar
	EUR Code = "EUR" // Euro
	GBP Code = "GBP" // British Pound
	KES Code = "KES" // Kenyan Shilling
	NGN Code = "NGN" // Nigerian Naira
	BDT Code = "BDT" // Bangladeshi Taka
)

// DefaultCode is the currency used when a store does not declare one.
var DefaultCode = USD

// IsValid checks if the currency code is three uppercase letters.
func (c Code) IsValid() bool {
	if len(c) != 3 {
		return false
	}
	return c[0] >= 'A' && c[0] <= 'Z' &&
		c[1] >= 'A' && c[1] <= 'Z' &&
		c[2] >= 'A' && c[2] <= 'Z'
}

// String returns the string representation of the currency code.
func (c Code) String() string {
	return string(c)
}
