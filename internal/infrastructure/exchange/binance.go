package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/vitos/perp_leverage_bot/internal/domain"
)

const (
	BinanceFuturesBaseURL = "https://fapi.binance.com"
	BinanceFuturesWSURL   = "wss://fstream.binance.com/ws"

	BinanceTestnetBaseURL = "https://testnet.binancefuture.com"
	BinanceTestnetWSURL   = "wss://stream.binancefuture.com/ws"

	recvWindow = 5000

	// defaultStep is the fallback quantity step when exchangeInfo is
	// unavailable; matches BTCUSDT.
	defaultStep = 0.001
)

// marginInsufficientCode is Binance futures error -2019. Detection is by
// code, never by matching message text.
const marginInsufficientCode = -2019

// BinanceAdapter implements domain.Exchange against Binance USDT-M futures.
type BinanceAdapter struct {
	apiKey    string
	apiSecret string
	baseURL   string
	wsURL     string
	client    *http.Client

	wsConn    *websocket.Conn
	wsDone    chan struct{}
	callbacks []func(symbol string, price float64)

	steps map[string]float64 // symbol -> LOT_SIZE step
	mu    sync.Mutex
}

func NewBinanceAdapter(apiKey, apiSecret, baseURL, wsURL string) *BinanceAdapter {
	if baseURL == "" {
		baseURL = BinanceFuturesBaseURL
	}
	if wsURL == "" {
		wsURL = BinanceFuturesWSURL
	}
	return &BinanceAdapter{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		baseURL:   baseURL,
		wsURL:     wsURL,
		client:    &http.Client{Timeout: 10 * time.Second},
		wsDone:    make(chan struct{}),
		steps:     make(map[string]float64),
	}
}

// --- REST API ---

func (b *BinanceAdapter) sign(query string) string {
	h := hmac.New(sha256.New, []byte(b.apiSecret))
	h.Write([]byte(query))
	return hex.EncodeToString(h.Sum(nil))
}

type apiError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// sendSigned issues an authenticated request. params must not yet contain
// timestamp or signature.
func (b *BinanceAdapter) sendSigned(ctx context.Context, method, path string, params url.Values) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	params.Set("recvWindow", strconv.Itoa(recvWindow))

	query := params.Encode()
	query += "&signature=" + b.sign(query)

	var reqURL string
	var body io.Reader
	if method == http.MethodGet {
		reqURL = b.baseURL + path + "?" + query
	} else {
		reqURL = b.baseURL + path
		body = strings.NewReader(query)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-MBX-APIKEY", b.apiKey)
	if method != http.MethodGet {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Code == marginInsufficientCode {
			return nil, fmt.Errorf("binance %d: %w", apiErr.Code, domain.ErrMarginInsufficient)
		}
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

func (b *BinanceAdapter) sendPublic(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

// Init loads symbol filters so precision rounding works without a network
// call per cycle. Best called once at startup.
func (b *BinanceAdapter) Init(ctx context.Context, symbol string) error {
	resp, err := b.sendPublic(ctx, "/fapi/v1/exchangeInfo?symbol="+symbol)
	if err != nil {
		return err
	}

	var result struct {
		Symbols []struct {
			Symbol  string `json:"symbol"`
			Filters []struct {
				FilterType string `json:"filterType"`
				StepSize   string `json:"stepSize"`
			} `json:"filters"`
		} `json:"symbols"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return err
	}

	for _, s := range result.Symbols {
		for _, f := range s.Filters {
			if f.FilterType != "LOT_SIZE" {
				continue
			}
			step, err := strconv.ParseFloat(f.StepSize, 64)
			if err != nil || step <= 0 {
				continue
			}
			b.mu.Lock()
			b.steps[s.Symbol] = step
			b.mu.Unlock()
		}
	}
	return nil
}

func (b *BinanceAdapter) FetchEquity(ctx context.Context) (float64, error) {
	resp, err := b.sendSigned(ctx, http.MethodGet, "/fapi/v2/account", nil)
	if err != nil {
		return 0, err
	}

	var result struct {
		TotalMarginBalance string `json:"totalMarginBalance"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return 0, err
	}
	return strconv.ParseFloat(result.TotalMarginBalance, 64)
}

func (b *BinanceAdapter) FetchPosition(ctx context.Context, symbol string) (*domain.Position, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	resp, err := b.sendSigned(ctx, http.MethodGet, "/fapi/v2/positionRisk", params)
	if err != nil {
		return nil, err
	}

	var list []struct {
		Symbol           string `json:"symbol"`
		PositionAmt      string `json:"positionAmt"`
		EntryPrice       string `json:"entryPrice"`
		UnRealizedProfit string `json:"unRealizedProfit"`
		Notional         string `json:"notional"`
		Leverage         string `json:"leverage"`
	}
	if err := json.Unmarshal(resp, &list); err != nil {
		return nil, err
	}

	flat := &domain.Position{Symbol: symbol, Side: domain.SideNone}
	for _, p := range list {
		if p.Symbol != symbol {
			continue
		}
		amt, _ := strconv.ParseFloat(p.PositionAmt, 64)
		if amt == 0 {
			return flat, nil
		}
		entry, _ := strconv.ParseFloat(p.EntryPrice, 64)
		unrealized, _ := strconv.ParseFloat(p.UnRealizedProfit, 64)
		notional, _ := strconv.ParseFloat(p.Notional, 64)
		leverage, _ := strconv.ParseFloat(p.Leverage, 64)

		side := domain.SideLong
		if amt < 0 {
			side = domain.SideShort
		}
		return &domain.Position{
			Symbol:        symbol,
			Side:          side,
			Contracts:     math.Abs(amt),
			Notional:      math.Abs(notional),
			EntryPrice:    entry,
			UnrealizedPnL: unrealized,
			Leverage:      leverage,
		}, nil
	}
	return flat, nil
}

func (b *BinanceAdapter) FetchLastPrice(ctx context.Context, symbol string) (float64, error) {
	resp, err := b.sendPublic(ctx, "/fapi/v1/ticker/price?symbol="+symbol)
	if err != nil {
		return 0, err
	}

	var result struct {
		Price string `json:"price"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return 0, err
	}
	return strconv.ParseFloat(result.Price, 64)
}

func (b *BinanceAdapter) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("leverage", strconv.Itoa(leverage))
	_, err := b.sendSigned(ctx, http.MethodPost, "/fapi/v1/leverage", params)
	return err
}

func (b *BinanceAdapter) CreateMarketOrder(ctx context.Context, symbol string, side domain.OrderSide, quantity float64, reduceOnly bool) (*domain.OrderFill, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("side", string(side))
	params.Set("type", "MARKET")
	params.Set("quantity", strconv.FormatFloat(quantity, 'f', -1, 64))
	params.Set("newClientOrderId", "plb-"+uuid.NewString())
	// RESULT makes the response carry the fill instead of just an ack.
	params.Set("newOrderRespType", "RESULT")
	if reduceOnly {
		params.Set("reduceOnly", "true")
	}

	resp, err := b.sendSigned(ctx, http.MethodPost, "/fapi/v1/order", params)
	if err != nil {
		return nil, err
	}

	var result struct {
		OrderID     int64  `json:"orderId"`
		ExecutedQty string `json:"executedQty"`
		AvgPrice    string `json:"avgPrice"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, err
	}

	filled, _ := strconv.ParseFloat(result.ExecutedQty, 64)
	avgPrice, _ := strconv.ParseFloat(result.AvgPrice, 64)
	if filled == 0 {
		filled = quantity
	}

	// The order endpoint does not report commission; the caller falls back
	// to its commission model when FeeCost is 0.
	return &domain.OrderFill{
		OrderID:        strconv.FormatInt(result.OrderID, 10),
		FilledQuantity: filled,
		AvgPrice:       avgPrice,
		FeeCost:        0,
	}, nil
}

func (b *BinanceAdapter) PrecisionStep(symbol string) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if step, ok := b.steps[symbol]; ok {
		return step
	}
	return defaultStep
}

func (b *BinanceAdapter) RoundToPrecision(symbol string, quantity float64) float64 {
	step := b.PrecisionStep(symbol)
	return math.Floor(quantity/step+1e-9) * step
}

// --- Websocket ---

// OnPriceUpdate registers a callback for mark-price updates. Register before
// ConnectWS.
func (b *BinanceAdapter) OnPriceUpdate(callback func(symbol string, price float64)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.callbacks = append(b.callbacks, callback)
}

// ConnectWS subscribes to the mark-price stream for the given symbols and
// starts the read loop.
func (b *BinanceAdapter) ConnectWS(symbols []string) error {
	conn, _, err := websocket.DefaultDialer.Dial(b.wsURL, nil)
	if err != nil {
		return fmt.Errorf("ws dial: %w", err)
	}
	b.wsConn = conn

	params := make([]string, 0, len(symbols))
	for _, s := range symbols {
		params = append(params, strings.ToLower(s)+"@markPrice@1s")
	}
	sub := map[string]interface{}{
		"method": "SUBSCRIBE",
		"params": params,
		"id":     1,
	}
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return fmt.Errorf("ws subscribe: %w", err)
	}

	go b.readLoop()
	return nil
}

func (b *BinanceAdapter) readLoop() {
	for {
		select {
		case <-b.wsDone:
			return
		default:
		}

		_, message, err := b.wsConn.ReadMessage()
		if err != nil {
			return
		}

		var event struct {
			Event  string `json:"e"`
			Symbol string `json:"s"`
			Price  string `json:"p"`
		}
		if err := json.Unmarshal(message, &event); err != nil {
			continue
		}
		if event.Event != "markPriceUpdate" {
			continue
		}
		price, err := strconv.ParseFloat(event.Price, 64)
		if err != nil || price <= 0 {
			continue
		}

		b.mu.Lock()
		callbacks := make([]func(string, float64), len(b.callbacks))
		copy(callbacks, b.callbacks)
		b.mu.Unlock()

		for _, cb := range callbacks {
			cb(event.Symbol, price)
		}
	}
}

func (b *BinanceAdapter) Close() {
	close(b.wsDone)
	if b.wsConn != nil {
		b.wsConn.Close()
	}
}
