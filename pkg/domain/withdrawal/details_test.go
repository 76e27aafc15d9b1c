package withdrawal_test

import (
	"testing"

	"github.com/sellerhub/payouts/pkg/domain/withdrawal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMethod(t *testing.T) {
	t.Parallel()
	for _, s := range []string{"mobile_money", "bank_card", "bank_transfer"} {
		m, err := withdrawal.ParseMethod(s)
		require.NoError(t, err)
		assert.Equal(t, s, m.String())
	}

	_, err := withdrawal.ParseMethod("paypal")
	assert.ErrorIs(t, err, withdrawal.ErrInvalidPaymentDetails)
}

func TestDetailsValidate(t *testing.T) {
	t.Parallel()

	t.Run("mobile money", func(t *testing.T) {
		ok := withdrawal.MobileMoneyDetails{Phone: "+8801711111111", Operator: "bkash", Country: "BD"}
		assert.NoError(t, ok.Validate())

		assert.Error(t, withdrawal.MobileMoneyDetails{Operator: "bkash", Country: "BD"}.Validate())
		assert.Error(t, withdrawal.MobileMoneyDetails{Phone: "+8801711111111", Country: "BD"}.Validate())
		assert.Error(t, withdrawal.MobileMoneyDetails{Phone: "+8801711111111", Operator: "bkash", Country: "BGD"}.Validate())
	})

	t.Run("bank card", func(t *testing.T) {
		ok := withdrawal.BankCardDetails{MaskedNumber: "**** **** **** 4242", HolderName: "A. Seller"}
		assert.NoError(t, ok.Validate())

		assert.Error(t, withdrawal.BankCardDetails{HolderName: "A. Seller"}.Validate())
		assert.Error(t, withdrawal.BankCardDetails{MaskedNumber: "**** 4242"}.Validate())

		unmasked := withdrawal.BankCardDetails{MaskedNumber: "4242424242424242", HolderName: "A. Seller"}
		assert.Error(t, unmasked.Validate(), "raw PAN must be rejected")
	})

	t.Run("bank transfer", func(t *testing.T) {
		ok := withdrawal.BankTransferDetails{
			AccountNumber: "0011223344",
			BankName:      "Equity Bank",
			HolderName:    "A. Seller",
			SWIFT:         "EQBLKENA",
		}
		assert.NoError(t, ok.Validate())

		assert.Error(t, withdrawal.BankTransferDetails{BankName: "Equity", HolderName: "A"}.Validate())
		assert.Error(t, withdrawal.BankTransferDetails{AccountNumber: "1", HolderName: "A"}.Validate())
		assert.Error(t, withdrawal.BankTransferDetails{AccountNumber: "1", BankName: "Equity"}.Validate())
	})
}

func TestDetailsRoundTrip(t *testing.T) {
	t.Parallel()
	src := withdrawal.BankTransferDetails{
		AccountNumber: "0011223344",
		BankName:      "Equity Bank",
		HolderName:    "A. Seller",
		IBAN:          "KE93EQBL0011223344",
	}
	raw, err := withdrawal.MarshalDetails(src)
	require.NoError(t, err)

	got, err := withdrawal.UnmarshalDetails(withdrawal.MethodBankTransfer, raw)
	require.NoError(t, err)
	assert.Equal(t, src, got)
	assert.Equal(t, withdrawal.MethodBankTransfer, got.Method())
}

func TestUnmarshalDetails_UnknownMethod(t *testing.T) {
	t.Parallel()
	_, err := withdrawal.UnmarshalDetails(withdrawal.Method("crypto"), []byte(`{}`))
	assert.ErrorIs(t, err, withdrawal.ErrInvalidPaymentDetails)
}

func TestMarshalDetails_Nil(t *testing.T) {
	t.Parallel()
	_, err := withdrawal.MarshalDetails(nil)
	assert.ErrorIs(t, err, withdrawal.ErrInvalidPaymentDetails)
}
