package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecRoundTrip(t *testing.T) {
	in := &PaymentRequest{
		SenderAccount:   "self",
		ReceiverAccount: "ACC002",
		ReceiverBank:    "Bank2",
		Amount:          "150.25",
		PaymentID:       "p-1",
	}

	b, err := Codec{}.Marshal(in)
	require.NoError(t, err)

	out := &PaymentRequest{}
	require.NoError(t, Codec{}.Unmarshal(b, out))
	assert.Equal(t, in, out)
}

func TestCodecName(t *testing.T) {
	assert.Equal(t, CodecName, Codec{}.Name())
}

func TestParseAmount(t *testing.T) {
	testCases := []struct {
		name    string
		amount  string
		wantErr bool
	}{
		{name: "positive", amount: "150.25"},
		{name: "integer", amount: "1"},
		{name: "zero", amount: "0", wantErr: true},
		{name: "negative", amount: "-10", wantErr: true},
		{name: "malformed", amount: "ten", wantErr: true},
		{name: "empty", amount: "", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := ParseAmount(tc.amount)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.amount, d.String())
		})
	}
}

func TestTransactionKindValid(t *testing.T) {
	assert.True(t, KindDebit.Valid())
	assert.True(t, KindCredit.Valid())
	assert.False(t, TransactionKind("transfer").Valid())
	assert.False(t, TransactionKind("").Valid())
}
