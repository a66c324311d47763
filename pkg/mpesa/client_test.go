package mpesa

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jkimani/campus-delivery-backend/pkg/config"
)

type stubDoer struct {
	responses map[string]*http.Response
	requests  []*http.Request
}

func (s *stubDoer) Do(req *http.Request) (*http.Response, error) {
	s.requests = append(s.requests, req)
	for path, resp := range s.responses {
		if strings.Contains(req.URL.Path, path) {
			return resp, nil
		}
	}
	return &http.Response{StatusCode: http.StatusNotFound, Body: io.NopCloser(bytes.NewReader(nil))}, nil
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func testClient(t *testing.T, doer *stubDoer) *Client {
	t.Helper()
	client, err := NewClient(config.MpesaConfig{
		BaseURL:         "https://sandbox.example",
		ConsumerKey:     "key",
		ConsumerSecret:  "secret",
		ShortCode:       "174379",
		Passkey:         "passkey",
		CallbackURL:     "https://api.example/callback",
		TransactionType: "CustomerPayBillOnline",
	})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	client.http = doer
	client.now = func() time.Time { return time.Date(2025, 9, 1, 12, 30, 0, 0, time.UTC) }
	return client
}

func TestSTKPushSendsSignedRequest(t *testing.T) {
	doer := &stubDoer{responses: map[string]*http.Response{
		"/oauth/":   jsonResponse(200, `{"access_token":"tok-1","expires_in":"3599"}`),
		"/stkpush/": jsonResponse(200, `{"MerchantRequestID":"m-1","CheckoutRequestID":"ws_CO_123","ResponseCode":"0","ResponseDescription":"Accepted"}`),
	}}
	client := testClient(t, doer)

	resp, err := client.STKPush(context.Background(), "254712345678", decimal.NewFromInt(250), "CAMPUS-1", "order payment")
	if err != nil {
		t.Fatalf("STKPush returned error: %v", err)
	}
	if resp.CheckoutRequestID != "ws_CO_123" {
		t.Fatalf("unexpected checkout request id %q", resp.CheckoutRequestID)
	}

	if len(doer.requests) != 2 {
		t.Fatalf("expected token + push requests, got %d", len(doer.requests))
	}
	push := doer.requests[1]
	if got := push.Header.Get("Authorization"); got != "Bearer tok-1" {
		t.Fatalf("unexpected auth header %q", got)
	}

	var body STKPushRequest
	raw, _ := io.ReadAll(push.Body)
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decode request body: %v", err)
	}
	if body.Timestamp != "20250901123000" {
		t.Fatalf("unexpected timestamp %q", body.Timestamp)
	}
	if body.Password != stkPassword("174379", "passkey", "20250901123000") {
		t.Fatalf("unexpected password %q", body.Password)
	}
	if body.Amount != "250" {
		t.Fatalf("expected whole-shilling amount, got %q", body.Amount)
	}
}

func TestSTKPushRejectsDeclinedResponse(t *testing.T) {
	doer := &stubDoer{responses: map[string]*http.Response{
		"/oauth/":   jsonResponse(200, `{"access_token":"tok-1"}`),
		"/stkpush/": jsonResponse(200, `{"ResponseCode":"1","ResponseDescription":"Insufficient funds"}`),
	}}
	client := testClient(t, doer)

	_, err := client.STKPush(context.Background(), "254712345678", decimal.NewFromInt(100), "CAMPUS-1", "order payment")
	if err == nil || !strings.Contains(err.Error(), "declined") {
		t.Fatalf("expected declined error, got %v", err)
	}
}

func TestTokenIsCachedAcrossCalls(t *testing.T) {
	doer := &stubDoer{responses: map[string]*http.Response{
		"/oauth/": jsonResponse(200, `{"access_token":"tok-1","expires_in":"3599"}`),
	}}
	client := testClient(t, doer)

	if _, err := client.token(context.Background()); err != nil {
		t.Fatalf("first token call failed: %v", err)
	}
	if _, err := client.token(context.Background()); err != nil {
		t.Fatalf("second token call failed: %v", err)
	}
	if len(doer.requests) != 1 {
		t.Fatalf("expected single token request, got %d", len(doer.requests))
	}
}

func TestCallbackMetadataExtraction(t *testing.T) {
	raw := `{
		"Body": {
			"stkCallback": {
				"MerchantRequestID": "m-1",
				"CheckoutRequestID": "ws_CO_123",
				"ResultCode": 0,
				"ResultDesc": "The service request is processed successfully.",
				"CallbackMetadata": {
					"Item": [
						{"Name": "Amount", "Value": 250.00},
						{"Name": "MpesaReceiptNumber", "Value": "QHX12345"},
						{"Name": "PhoneNumber", "Value": 254712345678}
					]
				}
			}
		}
	}`

	var envelope CallbackEnvelope
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		t.Fatalf("decode callback: %v", err)
	}

	cb := envelope.Body.StkCallback
	if !cb.Succeeded() {
		t.Fatal("expected success callback")
	}
	if got := cb.Receipt(); got != "QHX12345" {
		t.Fatalf("unexpected receipt %q", got)
	}
	if got := cb.MetadataString("PhoneNumber"); got != "254712345678" {
		t.Fatalf("unexpected phone %q", got)
	}
	amount, ok := cb.Amount()
	if !ok || !amount.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("unexpected amount %s (ok=%v)", amount, ok)
	}
}

func TestCallbackFailureHasNoMetadata(t *testing.T) {
	raw := `{"Body":{"stkCallback":{"MerchantRequestID":"m-2","CheckoutRequestID":"ws_CO_456","ResultCode":1032,"ResultDesc":"Request cancelled by user."}}}`

	var envelope CallbackEnvelope
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		t.Fatalf("decode callback: %v", err)
	}

	cb := envelope.Body.StkCallback
	if cb.Succeeded() {
		t.Fatal("expected failure callback")
	}
	if got := cb.Receipt(); got != "" {
		t.Fatalf("expected empty receipt, got %q", got)
	}
	if _, ok := cb.Amount(); ok {
		t.Fatal("expected no amount without metadata")
	}
}
