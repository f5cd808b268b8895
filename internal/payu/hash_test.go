package payu

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey  = "gtKFFx"
	testSalt = "eCwWELxi"
)

func testRequest() RequestFields {
	return RequestFields{
		Key:         testKey,
		TxnID:       "2024-12-25_1000AM",
		Amount:      "300.00",
		ProductInfo: "Kundali Matching",
		FirstName:   "Asha Rao",
		Email:       "asha@example.com",
	}
}

func testResponse() ResponseFields {
	return ResponseFields{
		Status:      "success",
		TxnID:       "2024-12-25_1000AM",
		Amount:      "300.00",
		ProductInfo: "Kundali Matching",
		FirstName:   "Asha Rao",
		Email:       "asha@example.com",
	}
}

// Vectors computed from the processor's documented concatenation
// (key|txnid|amount|productinfo|firstname|email|udf1..udf10|SALT and its
// reverse). If either of these breaks, the integration breaks.
func TestKnownVectors(t *testing.T) {
	assert.Equal(t,
		"82b94eb34e3d54e651ab0124c74d2e426a093900d954e0a4ec31dba4b75b3a55b0c0b8988eea3a9658b214c122874965990886dc3687749f6262148f99ca7241",
		RequestHash(testRequest(), testSalt))

	assert.True(t, VerifyResponseHash(testKey, testSalt, testResponse(),
		"8eee59177edb6749a1c6546cec6f08334ab375c555b1934ca21ce921ed6c41ca048b46d81442e73f80fb00473bb0312949e36ca104f9ef3b3a553cea02207eb2"))

	assert.Equal(t,
		"2409209374acf8d93935e88bc267499b71bebde37fc866267e41c4069325061efce64d19c8f0f39272c98dbaea3aa3abeaed89ae8176bcb26ad72b2492210ffc",
		CommandHash(testKey, "verify_payment", "2024-12-25_1000AM", testSalt))
}

func TestVerifyResponseHashTamper(t *testing.T) {
	f := testResponse()
	// Build a genuine response hash the way the processor would.
	genuine := responseDigest(testKey, testSalt, f)
	require.True(t, VerifyResponseHash(testKey, testSalt, f, genuine))

	t.Run("flipped hash character", func(t *testing.T) {
		b := []byte(genuine)
		if b[0] == 'a' {
			b[0] = 'b'
		} else {
			b[0] = 'a'
		}
		assert.False(t, VerifyResponseHash(testKey, testSalt, f, string(b)))
	})

	t.Run("tampered amount", func(t *testing.T) {
		g := f
		g.Amount = "1.00"
		assert.False(t, VerifyResponseHash(testKey, testSalt, g, genuine))
	})

	t.Run("tampered status", func(t *testing.T) {
		g := f
		g.Status = "failure"
		assert.False(t, VerifyResponseHash(testKey, testSalt, g, genuine))
	})

	t.Run("wrong salt", func(t *testing.T) {
		assert.False(t, VerifyResponseHash(testKey, "wrong", f, genuine))
	})

	t.Run("uppercase hex accepted", func(t *testing.T) {
		assert.True(t, VerifyResponseHash(testKey, testSalt, f, strings.ToUpper(genuine)))
	})
}

// responseDigest mirrors the processor-side computation for tests.
func responseDigest(key, salt string, f ResponseFields) string {
	parts := []string{salt, f.Status}
	for i := 0; i < reservedUDFs; i++ {
		parts = append(parts, "")
	}
	parts = append(parts, f.Email, f.FirstName, f.ProductInfo, f.Amount, f.TxnID, key)
	return digest(parts)
}

func TestRequestHashSensitivity(t *testing.T) {
	base := RequestHash(testRequest(), testSalt)
	mutations := []func(*RequestFields){
		func(f *RequestFields) { f.Amount = "300.0" },
		func(f *RequestFields) { f.TxnID = "2024-12-25_1100AM" },
		func(f *RequestFields) { f.ProductInfo = "Kundali Reading" },
		func(f *RequestFields) { f.Email = "other@example.com" },
		func(f *RequestFields) { f.FirstName = "A" },
		func(f *RequestFields) { f.Key = "other" },
	}
	for _, mutate := range mutations {
		f := testRequest()
		mutate(&f)
		assert.NotEqual(t, base, RequestHash(f, testSalt))
	}
	assert.NotEqual(t, base, RequestHash(testRequest(), "othersalt"))
}
