package whatsappsvc

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/topphysics/core"
)

var (
	endpoint = "/messages"

	ErrNotConfigured = errors.New("whatsapp gateway is not configured")
)

type (
	gatewayService struct {
		baseURL string
		token   string
		client  *rest.Client
		logger  core.Logger
	}

	gatewayMessage struct {
		To   string `json:"to"`
		Type string `json:"type"`
		Text string `json:"text"`
	}
)

var _ core.Messenger = (*gatewayService)(nil)

// NewGatewayService returns a Messenger posting messages to the WhatsApp HTTP gateway at conf.WhatsApp.URL.
func NewGatewayService(conf *core.Config, logger core.Logger) core.Messenger {
	return &gatewayService{
		baseURL: conf.WhatsApp.URL,
		token:   conf.WhatsApp.Token,
		client:  &rest.Client{HTTPClient: &http.Client{Timeout: 15 * time.Second}},
		logger:  logger,
	}
}

// internationalize turns a local 11-digit number (01xxxxxxxxx) into its +20 form.
func internationalize(phone string) string {
	if len(phone) == 11 && phone[0] == '0' {
		return "2" + phone
	}
	return phone
}

func (svc *gatewayService) Send(ctx context.Context, msg core.Message) error {
	if svc.baseURL == "" {
		return ErrNotConfigured
	}

	body, err := json.Marshal(gatewayMessage{To: internationalize(msg.To), Type: "text", Text: msg.Body})
	if err != nil {
		return errors.Wrap(err, "encoding whatsapp message")
	}
	req := rest.Request{
		Method:  rest.Post,
		BaseURL: svc.baseURL + endpoint,
		Headers: map[string]string{
			"Authorization": "Bearer " + svc.token,
			"Content-Type":  "application/json",
		},
		Body: body,
	}

	httpReq, err := rest.BuildRequestObject(req)
	if err != nil {
		return errors.Wrap(err, "building whatsapp request")
	}
	httpRes, err := svc.client.MakeRequest(httpReq.WithContext(ctx))
	if err != nil {
		return errors.Wrap(err, "sending whatsapp message")
	}
	res, err := rest.BuildResponse(httpRes)
	if err != nil {
		return errors.Wrap(err, "reading whatsapp response")
	}
	if res.StatusCode >= http.StatusBadRequest {
		svc.logger.Error("sending whatsapp message", map[string]interface{}{"status": res.StatusCode, "body": res.Body})
		return errors.Errorf("whatsapp gateway responded with status %d", res.StatusCode)
	}
	return nil
}
