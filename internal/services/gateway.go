package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
)

// GatewayService wraps the payment gateway client. Order creation and status
// checks go to the gateway; only the settlement outcome reaches the ledger.
type GatewayService struct {
	SnapClient    snap.Client
	CoreClient    coreapi.Client
	webhookSecret string
}

func NewGatewayService() *GatewayService {
	serverKey := os.Getenv("MIDTRANS_SERVER_KEY")
	clientKey := os.Getenv("MIDTRANS_CLIENT_KEY")
	envStr := os.Getenv("MIDTRANS_IS_PRODUCTION")

	env := midtrans.Sandbox
	if envStr == "true" {
		env = midtrans.Production
	}

	var s snap.Client
	s.New(serverKey, env)

	var c coreapi.Client
	c.New(serverKey, env)

	midtrans.ServerKey = serverKey
	midtrans.ClientKey = clientKey
	midtrans.Environment = env

	secret := os.Getenv("GATEWAY_WEBHOOK_SECRET")
	if secret == "" {
		secret = serverKey
	}

	return &GatewayService{
		SnapClient:    s,
		CoreClient:    c,
		webhookSecret: secret,
	}
}

// CreateTransaction creates a gateway checkout for one demand bill and
// returns the redirect URL and token
func (s *GatewayService) CreateTransaction(orderID string, amount int64, param *snap.Request) (*snap.Response, error) {
	if param == nil {
		param = &snap.Request{
			TransactionDetails: midtrans.TransactionDetails{
				OrderID:  orderID,
				GrossAmt: amount,
			},
		}
	} else {
		if param.TransactionDetails.OrderID == "" {
			param.TransactionDetails.OrderID = orderID
		}
		if param.TransactionDetails.GrossAmt == 0 {
			param.TransactionDetails.GrossAmt = amount
		}
	}

	resp, err := s.SnapClient.CreateTransaction(param)
	if err != nil {
		return nil, fmt.Errorf("gateway create transaction error: %v", err)
	}

	return resp, nil
}

// CheckTransaction fetches the gateway-side status of an order
func (s *GatewayService) CheckTransaction(orderID string) (*coreapi.TransactionStatusResponse, error) {
	resp, err := s.CoreClient.CheckTransaction(orderID)
	if err != nil {
		return nil, fmt.Errorf("gateway check transaction error: %v", err)
	}
	return resp, nil
}

// CancelTransaction cancels a pending gateway order
func (s *GatewayService) CancelTransaction(orderID string) error {
	_, err := s.CoreClient.CancelTransaction(orderID)
	if err != nil {
		return fmt.Errorf("gateway cancel transaction error: %v", err)
	}
	return nil
}

// VerifyWebhookSignature checks the notification's integrity. The gateway
// signs HMAC-SHA256 over "{orderId}|{paymentId}" with the shared secret; a
// mismatch means the payload must be rejected without any mutation.
func (s *GatewayService) VerifyWebhookSignature(orderID, paymentID, signature string) bool {
	return VerifySignature(s.webhookSecret, orderID, paymentID, signature)
}

// VerifySignature is the pure form of the webhook check, comparing in
// constant time.
func VerifySignature(secret, orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s|%s", orderID, paymentID)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
