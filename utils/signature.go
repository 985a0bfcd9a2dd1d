package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignHMAC returns the hex HMAC-SHA256 of payload
func SignHMAC(payload, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyHMAC validates a hex signature using HMAC-SHA256 in constant time
func VerifyHMAC(payload, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	expected := mac.Sum(nil)

	sigBytes, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(expected, sigBytes)
}

// VerifyPaymentSignature checks a gateway checkout signature, which signs "orderId|paymentId"
func VerifyPaymentSignature(orderID, paymentID, signature, secret string) error {
	if !VerifyHMAC(orderID+"|"+paymentID, signature, secret) {
		return ErrInvalidSignature
	}
	return nil
}
