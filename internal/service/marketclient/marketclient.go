package marketclient

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/RajshekharX12/as/internal/pkg/errs"
	"github.com/RajshekharX12/as/internal/service/marketclient/config"
)

const (
	methodAvailableOffers = "getAvailableGifts"
	methodSendOffer       = "sendGift"
	methodBalance         = "getMyStarBalance"
)

// JSON ответ маркета
type MarketAnswer struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
	ErrorCode   int             `json:"error_code"`
}

type sendRequest struct {
	UserID    string `json:"user_id"`
	GiftID    string `json:"gift_id"`
	Text      string `json:"text,omitempty"`
	IsPrivate bool   `json:"is_private"`
}

type balanceResult struct {
	StarCount int64 `json:"star_count"`
}

type MarketClient interface {
	// сырой список предложений, разбор в feed
	GetAvailableOffers(ctx context.Context) ([]byte, error)
	SendOffer(ctx context.Context, recipient string, offerID string, text string) error
	GetBalance(ctx context.Context) (int64, error)
}

type marketClient struct {
	client  *resty.Client
	baseURL string
}

func NewMarketClient(cfg config.Config) MarketClient {
	client := resty.New().SetTimeout(cfg.Timeout)
	return &marketClient{
		client:  client,
		baseURL: cfg.MarketAddr + "/bot" + cfg.BotToken + "/",
	}
}

func (client *marketClient) GetAvailableOffers(ctx context.Context) ([]byte, error) {
	result, err := client.call(ctx, methodAvailableOffers, nil)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (client *marketClient) SendOffer(ctx context.Context, recipient string, offerID string, text string) error {
	_, err := client.call(ctx, methodSendOffer, sendRequest{
		UserID:    recipient,
		GiftID:    offerID,
		Text:      text,
		IsPrivate: true,
	})
	return err
}

func (client *marketClient) GetBalance(ctx context.Context) (int64, error) {
	result, err := client.call(ctx, methodBalance, nil)
	if err != nil {
		return 0, err
	}
	var balance balanceResult
	if err := json.Unmarshal(result, &balance); err != nil {
		return 0, errs.Wrap(err, methodBalance)
	}
	return balance.StarCount, nil
}

func (client *marketClient) call(ctx context.Context, method string, body any) (json.RawMessage, error) {
	setreq := client.client.R().SetContext(ctx)
	setreq.Method = http.MethodPost
	setreq.URL = client.baseURL + method
	if body != nil {
		setreq.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	setresp, err := setreq.Send()
	if err != nil {
		return nil, err
	}

	var answer MarketAnswer
	if err := json.Unmarshal(setresp.Body(), &answer); err != nil {
		return nil, errs.Newf("%s request status: %d", method, setresp.StatusCode())
	}
	if !answer.OK {
		return nil, errs.Newf("%s failed: status %d: %s", method, setresp.StatusCode(), answer.Description)
	}
	return answer.Result, nil
}
