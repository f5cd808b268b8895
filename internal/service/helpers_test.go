package service

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mannat244/AstroApp/internal/payu"
	"github.com/mannat244/AstroApp/internal/ratelimit"
	"github.com/mannat244/AstroApp/internal/repository"
)

const (
	testKey  = "gtKFFx"
	testSalt = "eCwWELxi"
)

func newTestRepo(t *testing.T) *repository.BookingRepo {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := repository.NewBookingRepo(db)
	require.NoError(t, repo.Migrate())
	return repo
}

// fakePublisher records published events in order.
type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	Key     string
	Payload any
}

func (f *fakePublisher) PublishJSON(_ context.Context, key string, v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{Key: key, Payload: v})
	return nil
}

func (f *fakePublisher) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	for i, e := range f.events {
		out[i] = e.Key
	}
	return out
}

// fakeVerifier plays the processor's verify_payment API.
type fakeVerifier struct {
	mu     sync.Mutex
	status payu.TxnStatus
	err    error
	calls  int
}

func (f *fakeVerifier) VerifyPayment(_ context.Context, txnid string) (payu.TxnStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return payu.TxnStatus{}, f.err
	}
	ts := f.status
	if ts.TxnID == "" {
		ts.TxnID = txnid
	}
	return ts, nil
}

func newBookingSvc(repo *repository.BookingRepo, pub EventPublisher) *BookingSvc {
	return NewBookingSvc(repo, ratelimit.New(100, time.Minute), pub, PayUConfig{
		MerchantKey: testKey,
		Salt:        testSalt,
		CheckoutURL: payu.TestCheckoutURL,
		SuccessURL:  "https://astro.example/payment/success",
		FailureURL:  "https://astro.example/payment/failure",
	})
}

// processorResponseHash builds the hash exactly as the processor signs its
// callbacks: SALT|status|udf10..udf1|email|firstname|productinfo|amount|txnid|key.
func processorResponseHash(status, txnid, amount, productinfo, firstname, email string) string {
	parts := []string{testSalt, status}
	for i := 0; i < 10; i++ {
		parts = append(parts, "")
	}
	parts = append(parts, email, firstname, productinfo, amount, txnid, testKey)
	sum := sha512.Sum512([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
