package tron

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testContract  = "41a614f803b6fd780986a42c78ec9c7f77e6ded13c"
	testRecipient = "41b3dcf27c251da9363f1a4e225777e62e5c5b9f44"
)

func paddedTopic(hexAddr string) string {
	return strings.Repeat("0", 24) + strings.TrimPrefix(hexAddr, "41")
}

func transferInfo(txID string, amountSun int64) map[string]interface{} {
	return map[string]interface{}{
		"id":      txID,
		"receipt": map[string]string{"result": "SUCCESS"},
		"log": []map[string]interface{}{
			{
				"address": strings.TrimPrefix(testContract, "41"),
				"topics": []string{
					transferTopic,
					paddedTopic("41aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
					paddedTopic(testRecipient),
				},
				"data": fmt.Sprintf("%064x", amountSun),
			},
		},
	}
}

func newTestClient(t *testing.T, response interface{}) *Client {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, transactionInfoPath, r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("TRON-PRO-API-KEY"))
		json.NewEncoder(w).Encode(response)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(&Config{
		BaseURL:         srv.URL,
		APIKey:          "test-key",
		ContractAddress: testContract,
	}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestConfirmTransfer_Confirmed(t *testing.T) {
	// 150.25 USDT = 150250000 in base units
	client := newTestClient(t, transferInfo("tx-1", 150250000))

	conf, err := client.ConfirmTransfer(context.Background(), "tx-1",
		testRecipient, decimal.RequireFromString("150.25"))
	require.NoError(t, err)

	assert.True(t, conf.Confirmed)
	assert.Empty(t, conf.Reason)
	assert.Equal(t, testRecipient, conf.Recipient)
	assert.True(t, conf.Amount.Equal(decimal.RequireFromString("150.25")))
}

func TestConfirmTransfer_AmountMismatch(t *testing.T) {
	client := newTestClient(t, transferInfo("tx-2", 100000000))

	conf, err := client.ConfirmTransfer(context.Background(), "tx-2",
		testRecipient, decimal.RequireFromString("150.25"))
	require.NoError(t, err)

	assert.False(t, conf.Confirmed)
	assert.Contains(t, conf.Reason, "amount mismatch")
}

func TestConfirmTransfer_WrongRecipient(t *testing.T) {
	client := newTestClient(t, transferInfo("tx-3", 150250000))

	conf, err := client.ConfirmTransfer(context.Background(), "tx-3",
		"41cccccccccccccccccccccccccccccccccccccccc", decimal.RequireFromString("150.25"))
	require.NoError(t, err)

	assert.False(t, conf.Confirmed)
	assert.Equal(t, "recipient does not match", conf.Reason)
}

func TestConfirmTransfer_WrongContract(t *testing.T) {
	info := transferInfo("tx-4", 150250000)
	info["log"].([]map[string]interface{})[0]["address"] = "deadbeefdeadbeefdeadbeefdeadbeefdeadbeef"

	client := newTestClient(t, info)

	conf, err := client.ConfirmTransfer(context.Background(), "tx-4",
		testRecipient, decimal.RequireFromString("150.25"))
	require.NoError(t, err)

	assert.False(t, conf.Confirmed)
	assert.Contains(t, conf.Reason, "no token transfer event")
}

func TestConfirmTransfer_FailedTransaction(t *testing.T) {
	client := newTestClient(t, map[string]interface{}{
		"id":      "tx-5",
		"receipt": map[string]string{"result": "REVERT"},
	})

	conf, err := client.ConfirmTransfer(context.Background(), "tx-5",
		testRecipient, decimal.RequireFromString("1.00"))
	require.NoError(t, err)

	assert.False(t, conf.Confirmed)
	assert.Contains(t, conf.Reason, "REVERT")
}

func TestConfirmTransfer_NotFound(t *testing.T) {
	// TronGrid returns an empty object for unknown transaction ids
	client := newTestClient(t, map[string]interface{}{})

	conf, err := client.ConfirmTransfer(context.Background(), "tx-missing",
		testRecipient, decimal.RequireFromString("1.00"))
	require.NoError(t, err)

	assert.False(t, conf.Confirmed)
	assert.Equal(t, "transaction not found", conf.Reason)
}

func TestConfirmTransfer_RequiresTxID(t *testing.T) {
	client := newTestClient(t, map[string]interface{}{})

	_, err := client.ConfirmTransfer(context.Background(), "",
		testRecipient, decimal.Zero)
	require.Error(t, err)
}

func TestDecodeTransfer(t *testing.T) {
	log := &txLog{
		Topics: []string{
			transferTopic,
			paddedTopic("41aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
			paddedTopic(testRecipient),
		},
		Data: fmt.Sprintf("%064x", int64(1)),
	}

	recipient, amount, err := decodeTransfer(log)
	require.NoError(t, err)
	assert.Equal(t, testRecipient, recipient)
	assert.True(t, amount.Equal(decimal.RequireFromString("0.000001")))
}
