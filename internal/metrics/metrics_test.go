package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/berfenger/pi30bridge/pkg/pi30"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionMetrics(t *testing.T) {

	assert := assert.New(t)

	reg := NewRegistry()
	m := NewTransactionMetrics(reg)

	dev, err := pi30.NewTestDevice(pi30.ReplyACK)
	require.NoError(t, err)
	defer dev.Close()

	client := pi30.NewClient(pi30.ClientOptions{}, nil, m.Instrument())
	assert.Equal(pi30.Accepted, client.Transact(pi30.Encode("QPI"), dev.Host(), dev.Port()))
	assert.Equal(pi30.Accepted, client.Transact(pi30.Encode("QMOD"), dev.Host(), dev.Port()))

	assert.Equal(2.0, testutil.ToFloat64(m.Transactions.WithLabelValues("accepted")))
	assert.Equal(0.0, testutil.ToFloat64(m.Transactions.WithLabelValues("rejected")))
	assert.Equal(3, testutil.CollectAndCount(m.StageSeconds), "connect, write and read stages")
}

func TestHandler(t *testing.T) {

	assert := assert.New(t)

	reg := NewRegistry()
	m := NewTransactionMetrics(reg)
	m.Transactions.WithLabelValues("communication_error").Inc()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	assert.Equal(200, rec.Code)
	assert.Contains(string(body), `pi30_transactions_total{outcome="communication_error"} 1`)
	assert.Contains(string(body), "go_goroutines")
}
