package whatsappsvc

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/topphysics/core"
	logsvc "github.com/trezcool/topphysics/services/logger"
)

func newTestGateway(url string) core.Messenger {
	conf := &core.Config{WhatsApp: core.WhatsAppConfig{URL: url, Token: "tkn"}}
	logger := logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), conf)
	logger.Enable(false)
	return NewGatewayService(conf, logger)
}

func TestGatewayService_Send(t *testing.T) {
	var got gatewayMessage
	var auth string
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(status)
	}))
	defer srv.Close()

	svc := newTestGateway(srv.URL)
	msg := core.Message{To: "01112345678", Body: "hello"}

	require.NoError(t, svc.Send(context.Background(), msg))
	assert.Equal(t, "Bearer tkn", auth)
	assert.Equal(t, gatewayMessage{To: "201112345678", Type: "text", Text: "hello"}, got)

	status = http.StatusBadGateway
	assert.Error(t, svc.Send(context.Background(), msg))

	status = http.StatusOK
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, svc.Send(ctx, msg), "request must carry the caller context")
}

func TestGatewayService_NotConfigured(t *testing.T) {
	assert.Equal(t, ErrNotConfigured, newTestGateway("").Send(context.Background(), core.Message{}))
}

func TestConsoleService(t *testing.T) {
	svc := NewConsoleService(log.New(ioutil.Discard, "", 0), true)
	require.NoError(t, svc.Send(context.Background(), core.Message{To: "1", Body: "a"}))
	require.NoError(t, svc.Send(context.Background(), core.Message{To: "2", Body: "b"}))
	assert.Len(t, svc.Sent(), 2)
	svc.Reset()
	assert.Empty(t, svc.Sent())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, svc.Send(ctx, core.Message{}))
}
