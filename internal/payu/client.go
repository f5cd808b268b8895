package payu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// Hosted checkout endpoints; the form post with the request hash goes here.
	LiveCheckoutURL = "https://secure.payu.in/_payment"
	TestCheckoutURL = "https://test.payu.in/_payment"

	// Merchant web-service endpoints for verify_payment.
	liveVerifyURL = "https://info.payu.in/merchant/postservice.php?form=2"
	testVerifyURL = "https://test.payu.in/merchant/postservice?form=2"

	cmdVerifyPayment = "verify_payment"
)

var ErrVerifyUnavailable = errors.New("payu verify_payment unavailable")

// TxnStatus is the processor's authoritative view of one transaction.
type TxnStatus struct {
	TxnID        string `json:"txnid"`
	Status       string `json:"status"` // success | failure | pending
	MihPayID     string `json:"mihpayid"`
	Mode         string `json:"mode"`
	Amount       string `json:"amt"`
	ErrorMessage string `json:"error_Message"`
}

func (s TxnStatus) Success() bool { return strings.EqualFold(s.Status, "success") }
func (s TxnStatus) Failure() bool { return strings.EqualFold(s.Status, "failure") }

// Client talks to the processor's merchant API. The merchant salt never
// leaves the process; every request carries a command hash instead.
type Client struct {
	key  string
	salt string
	url  string
	hc   *http.Client
}

func NewClient(key, salt string, test bool, timeout time.Duration) *Client {
	u := liveVerifyURL
	if test {
		u = testVerifyURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{key: key, salt: salt, url: u, hc: &http.Client{Timeout: timeout}}
}

// WithURL overrides the verify endpoint; used by tests.
func (c *Client) WithURL(u string) *Client {
	c.url = u
	return c
}

type verifyEnvelope struct {
	Status             int                        `json:"status"`
	Msg                string                     `json:"msg"`
	TransactionDetails map[string]json.RawMessage `json:"transaction_details"`
}

// VerifyPayment polls the processor for the authoritative status of txnid.
// A transport or decode failure is transient: the caller may retry, but must
// never treat it as success.
func (c *Client) VerifyPayment(ctx context.Context, txnid string) (TxnStatus, error) {
	form := url.Values{}
	form.Set("key", c.key)
	form.Set("command", cmdVerifyPayment)
	form.Set("var1", txnid)
	form.Set("hash", CommandHash(c.key, cmdVerifyPayment, txnid, c.salt))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		return TxnStatus{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.hc.Do(req)
	if err != nil {
		return TxnStatus{}, fmt.Errorf("%w: %v", ErrVerifyUnavailable, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return TxnStatus{}, fmt.Errorf("%w: read body: %v", ErrVerifyUnavailable, err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return TxnStatus{}, fmt.Errorf("%w: http %d: %s", ErrVerifyUnavailable, res.StatusCode, body)
	}

	var env verifyEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return TxnStatus{}, fmt.Errorf("%w: decode: %v", ErrVerifyUnavailable, err)
	}
	if env.Status != 1 {
		return TxnStatus{}, fmt.Errorf("%w: envelope status %d (%s)", ErrVerifyUnavailable, env.Status, env.Msg)
	}
	raw, ok := env.TransactionDetails[txnid]
	if !ok {
		return TxnStatus{}, fmt.Errorf("%w: no details for %s", ErrVerifyUnavailable, txnid)
	}
	var ts TxnStatus
	if err := json.Unmarshal(raw, &ts); err != nil {
		return TxnStatus{}, fmt.Errorf("%w: decode details: %v", ErrVerifyUnavailable, err)
	}
	if ts.TxnID == "" {
		ts.TxnID = txnid
	}
	return ts, nil
}
