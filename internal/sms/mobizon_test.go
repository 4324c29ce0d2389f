package sms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"centavo/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(config.SMSConfig{APIKey: "test-key", Sender: "centavo"}, zap.NewNop())
	c.baseURL = srv.URL
	return c
}

func TestDeliverCodeSendsFormFields(t *testing.T) {
	var gotForm map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		gotForm = map[string]string{
			"apiKey":    r.PostFormValue("apiKey"),
			"recipient": r.PostFormValue("recipient"),
			"text":      r.PostFormValue("text"),
			"from":      r.PostFormValue("from"),
		}
		w.Write([]byte(`{"code":0,"data":{"messageId":"msg-1"}}`))
	})

	if err := c.DeliverCode(context.Background(), "5511912345678", "seu código: 123456"); err != nil {
		t.Fatalf("DeliverCode: %v", err)
	}
	if gotForm["apiKey"] != "test-key" || gotForm["from"] != "centavo" {
		t.Errorf("credentials = %+v", gotForm)
	}
	if gotForm["recipient"] != "5511912345678" || gotForm["text"] != "seu código: 123456" {
		t.Errorf("payload = %+v", gotForm)
	}
}

func TestDeliverCodeGatewayErrorCode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"code":4,"data":{}}`))
	})

	if err := c.DeliverCode(context.Background(), "5511912345678", "oi"); err == nil {
		t.Fatal("no error for a non-zero gateway code")
	}
}

func TestDeliverCodeDryRunSkipsGateway(t *testing.T) {
	called := false
	c := newTestClient(t, func(http.ResponseWriter, *http.Request) {
		called = true
	})
	c.dryRun = true

	if err := c.DeliverCode(context.Background(), "5511912345678", "oi"); err != nil {
		t.Fatalf("DeliverCode: %v", err)
	}
	if called {
		t.Error("dry-run hit the gateway")
	}
}
