// Package payu implements the merchant side of the PayU integration: the
// keyed SHA-512 hash protocol and the verify_payment polling client.
//
// The hash strings are bit-exact per the processor contract. Field order,
// the pipe delimiter and the count of reserved empty udf positions must not
// change: any deviation silently breaks every payment confirmation.
package payu

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strings"
)

// reservedUDFs is the number of empty user-defined fields the contract
// reserves between the payer email and the salt (and mirrored in responses).
const reservedUDFs = 10

// RequestFields are the values hashed into an outbound checkout request.
// Amount and ProductInfo must be the canonical catalog strings, already
// formatted exactly as they will appear in the form post.
type RequestFields struct {
	Key         string
	TxnID       string
	Amount      string
	ProductInfo string
	FirstName   string
	Email       string
}

// RequestHash computes the checkout authorization hash:
//
//	sha512(key|txnid|amount|productinfo|firstname|email|udf1..udf10|SALT)
func RequestHash(f RequestFields, salt string) string {
	parts := make([]string, 0, 7+reservedUDFs)
	parts = append(parts, f.Key, f.TxnID, f.Amount, f.ProductInfo, f.FirstName, f.Email)
	for i := 0; i < reservedUDFs; i++ {
		parts = append(parts, "")
	}
	parts = append(parts, salt)
	return digest(parts)
}

// ResponseFields are the values hashed into an inbound callback, in the
// processor's reversed order.
type ResponseFields struct {
	Status      string
	TxnID       string
	Amount      string
	ProductInfo string
	FirstName   string
	Email       string
}

// VerifyResponseHash recomputes the callback hash
//
//	sha512(SALT|status|udf10..udf1|email|firstname|productinfo|amount|txnid|key)
//
// and compares it to the hash the processor supplied. A mismatch means the
// callback is forged or tampered with and must be rejected.
func VerifyResponseHash(key, salt string, f ResponseFields, supplied string) bool {
	parts := make([]string, 0, 8+reservedUDFs)
	parts = append(parts, salt, f.Status)
	for i := 0; i < reservedUDFs; i++ {
		parts = append(parts, "")
	}
	parts = append(parts, f.Email, f.FirstName, f.ProductInfo, f.Amount, f.TxnID, key)
	want := digest(parts)
	return hmac.Equal([]byte(want), []byte(strings.ToLower(supplied)))
}

// CommandHash signs a server-to-server API command:
//
//	sha512(key|command|var1|SALT)
func CommandHash(key, command, var1, salt string) string {
	return digest([]string{key, command, var1, salt})
}

func digest(parts []string) string {
	sum := sha512.Sum512([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
