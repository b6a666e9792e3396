package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func signPayload(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	secret := "test-webhook-secret"

	tests := []struct {
		name      string
		orderID   string
		paymentID string
		signature string
		want      bool
	}{
		{
			name:      "valid signature",
			orderID:   "bill-42-1700000000",
			paymentID: "pay_9zX",
			signature: signPayload(secret, "bill-42-1700000000", "pay_9zX"),
			want:      true,
		},
		{
			name:      "signature for a different order",
			orderID:   "bill-42-1700000000",
			paymentID: "pay_9zX",
			signature: signPayload(secret, "bill-43-1700000000", "pay_9zX"),
			want:      false,
		},
		{
			name:      "tampered payment id",
			orderID:   "bill-42-1700000000",
			paymentID: "pay_other",
			signature: signPayload(secret, "bill-42-1700000000", "pay_9zX"),
			want:      false,
		},
		{
			name:      "empty signature",
			orderID:   "bill-42-1700000000",
			paymentID: "pay_9zX",
			signature: "",
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VerifySignature(secret, tt.orderID, tt.paymentID, tt.signature)
			if got != tt.want {
				t.Errorf("VerifySignature() = %v; want %v", got, tt.want)
			}
		})
	}
}
