package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "123:abc"

type fakeBotAPI struct {
	mu       sync.Mutex
	requests map[string]map[string]string
	replies  map[string]string
}

func newFakeBotAPI(t *testing.T) (*fakeBotAPI, *httptest.Server) {
	f := &fakeBotAPI{
		requests: map[string]map[string]string{},
		replies: map[string]string{
			"getMe": `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Store","username":"store_bot"}}`,
		},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]

		form := map[string]string{}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}

		f.mu.Lock()
		f.requests[method] = form
		reply, ok := f.replies[method]
		f.mu.Unlock()

		if !ok {
			reply = `{"ok":false,"error_code":404,"description":"Not Found: method not found"}`
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeBotAPI) reply(method, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[method] = body
}

func (f *fakeBotAPI) request(method string) map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[method]
}

func newTestClient(t *testing.T) (*Client, *fakeBotAPI) {
	f, srv := newFakeBotAPI(t)
	c, err := NewClientWithEndpoint(testToken, srv.URL+"/bot%s/%s", srv.Client())
	require.NoError(t, err)
	return c, f
}

func TestCreateInvoiceLink(t *testing.T) {
	c, f := newTestClient(t)
	f.reply("createInvoiceLink", `{"ok":true,"result":"https://t.me/$abcDEF"}`)

	link, err := c.CreateInvoiceLink(context.Background(), Invoice{
		Title:   "Rocket",
		Payload: "gift_3_1700000000000",
		Amount:  0,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://t.me/$abcDEF", link)

	req := f.request("createInvoiceLink")
	assert.Equal(t, "XTR", req["currency"])
	assert.Equal(t, "gift_3_1700000000000", req["payload"])
	assert.Equal(t, "Rocket", req["description"])

	var prices []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(req["prices"]), &prices))
	require.Len(t, prices, 1)
	assert.Equal(t, "Rocket", prices[0]["label"])
	assert.Equal(t, float64(1), prices[0]["amount"])
}

func TestCreateInvoiceLink_Rejected(t *testing.T) {
	c, f := newTestClient(t)
	f.reply("createInvoiceLink", `{"ok":false,"error_code":400,"description":"Bad Request: CURRENCY_INVALID"}`)

	_, err := c.CreateInvoiceLink(context.Background(), Invoice{Title: "Rocket", Payload: "gift_3_1", Amount: 10})
	require.Error(t, err)

	var ue *UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, 400, ue.Code)
	assert.Equal(t, "Bad Request: CURRENCY_INVALID", ue.Description)
	assert.Equal(t, "Bad Request: CURRENCY_INVALID", ue.Details()["description"])
}

func TestAnswerPreCheckoutQuery(t *testing.T) {
	c, f := newTestClient(t)
	f.reply("answerPreCheckoutQuery", `{"ok":true,"result":true}`)

	require.NoError(t, c.AnswerPreCheckoutQuery(context.Background(), "q-1", true, ""))

	req := f.request("answerPreCheckoutQuery")
	assert.Equal(t, "q-1", req["pre_checkout_query_id"])
	assert.Equal(t, "true", req["ok"])
}

func TestRefundStarPayment(t *testing.T) {
	c, f := newTestClient(t)
	f.reply("refundStarPayment", `{"ok":true,"result":true}`)

	require.NoError(t, c.RefundStarPayment(context.Background(), 777, "charge-1"))

	req := f.request("refundStarPayment")
	assert.Equal(t, "777", req["user_id"])
	assert.Equal(t, "charge-1", req["telegram_payment_charge_id"])
}

func TestCanceledContext(t *testing.T) {
	c, _ := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.CreateInvoiceLink(ctx, Invoice{Title: "x", Payload: "p", Amount: 1})
	assert.ErrorIs(t, err, context.Canceled)
}
