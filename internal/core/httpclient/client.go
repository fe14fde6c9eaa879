package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"mise-planner/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	DefaultMinInterval = 1100 * time.Millisecond
	DefaultMaxRetries  = 3
	DefaultBackoff     = 800 * time.Millisecond
)

// Options 客戶端設定
type Options struct {
	MinInterval time.Duration
	MaxRetries  int
	Backoff     time.Duration
	Timeout     time.Duration
	// Now 與 Sleep 為空時使用真實時鐘
	Now   func() time.Time
	Sleep SleepFunc
}

// DefaultOptions 預設設定：間隔 1.1 秒，429 時最多重試 3 次
func DefaultOptions() Options {
	return Options{
		MinInterval: DefaultMinInterval,
		MaxRetries:  DefaultMaxRetries,
		Backoff:     DefaultBackoff,
	}
}

// Request 單次請求參數
type Request struct {
	Headers map[string]string
	Query   url.Values
}

// Response 上游回應
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
	URL        string
}

// OK 是否為 2xx
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client 節流並在 429 時退避重試的 HTTP 客戶端
type Client struct {
	rc         *resty.Client
	pacer      *Pacer
	maxRetries int
	backoff    time.Duration
	sleep      SleepFunc
}

// New 創建客戶端，每個客戶端擁有自己的 Pacer
func New(opts Options) *Client {
	rc := resty.New()
	if opts.Timeout > 0 {
		rc.SetTimeout(opts.Timeout)
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = SleepContext
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	return &Client{
		rc:         rc,
		pacer:      NewPacer(opts.MinInterval).WithClock(opts.Now, sleep),
		maxRetries: opts.MaxRetries,
		backoff:    opts.Backoff,
		sleep:      sleep,
	}
}

// Get 發送 GET 請求
func (c *Client) Get(ctx context.Context, rawURL string, req Request) (*Response, error) {
	return c.Do(ctx, http.MethodGet, rawURL, req)
}

// Do 節流一次後發送請求；收到 429 時以 backoff、2×backoff、4×backoff… 等待重試，
// 重試用盡後原樣返回最後一個回應。只有傳輸錯誤會返回 error。
func (c *Client) Do(ctx context.Context, method, rawURL string, req Request) (*Response, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	host := hostOf(rawURL)
	for attempt := 0; ; attempt++ {
		start := time.Now()
		r := c.rc.R().SetContext(ctx).SetHeaders(req.Headers)
		if len(req.Query) > 0 {
			r.SetQueryParamsFromValues(req.Query)
		}
		res, err := r.Execute(method, rawURL)
		if err != nil {
			common.LogUpstreamCall(host, 0, time.Since(start), err)
			return nil, fmt.Errorf("%s %s: %w", method, host, err)
		}
		common.LogUpstreamCall(host, res.StatusCode(), time.Since(start), nil)

		resp := &Response{
			StatusCode: res.StatusCode(),
			Body:       res.Body(),
			Header:     res.Header(),
			URL:        rawURL,
		}
		if resp.StatusCode != http.StatusTooManyRequests || attempt >= c.maxRetries {
			return resp, nil
		}

		wait := c.backoff << attempt
		common.LogWarn("上游限流，等待後重試",
			zap.String("host", host),
			zap.Int("attempt", attempt+1),
			zap.Duration("wait", wait),
		)
		if err := c.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
