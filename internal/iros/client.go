package iros

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// retryWaitTime 은 전송 재시도 백오프의 초기 대기 시간.
	retryWaitTime = 500 * time.Millisecond
	// retryMaxWaitTime 은 전송 재시도 백오프의 최대 대기 시간.
	retryMaxWaitTime = 5 * time.Second
	// maxRedirects 는 따라갈 리다이렉트 최대 횟수.
	maxRedirects = 5
)

// ClientOptions 는 포털 클라이언트 설정이다.
type ClientOptions struct {
	BaseURL string
	// ProxyURL 이 비어 있지 않으면 모든 요청이 이 포워드 프록시를 경유한다.
	// 포털이 일부 발신 IP를 차단하므로 운영 환경에서는 필수다.
	ProxyURL string
	Timeout  time.Duration
	// RetryMax 는 일시적 전송 장애(네트워크 오류, 429, 5xx)에 대한
	// 재시도 횟수. 프로토콜 계층 오류는 재시도하지 않는다.
	RetryMax int
	// SearchResultLimit 은 주소 검색 결과 건수 상한.
	SearchResultLimit int
	Logger            *slog.Logger
	// OnResponse 는 포털 응답마다 호출되는 관측 훅. 메트릭 수집용으로 쓴다.
	OnResponse func(statusCode int, latency time.Duration)
}

// Client 는 등기소 포털에 대한 세션 클라이언트이다.
// 쿠키는 인스턴스가 아니라 호출마다 전달되는 Session이 소유하므로
// Client 자체는 상태를 갖지 않으며 여러 고루틴에서 공유해도 안전하다.
type Client struct {
	http        *resty.Client
	baseURL     string
	userAgent   string
	searchLimit int
	logger      *slog.Logger
	onResponse  func(statusCode int, latency time.Duration)
}

// NewClient 는 포털 클라이언트를 생성한다.
// User-Agent는 인스턴스마다 무작위로 한 번 생성한다.
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("포털 BaseURL이 비어 있습니다")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.SearchResultLimit <= 0 {
		opts.SearchResultLimit = 100
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ua := randomUserAgent()

	client := resty.New()
	client.SetBaseURL(opts.BaseURL)
	client.SetTimeout(opts.Timeout)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(maxRedirects))
	// 쿠키는 Session.Jar가 직접 관리한다. resty의 자동 쿠키 관리는 끈다.
	client.SetCookieJar(nil)
	client.SetHeader("User-Agent", ua)
	client.SetHeader("Accept", "application/json")
	client.SetHeader("Accept-Language", "ko-KR,ko;q=0.8,en-US;q=0.5,en;q=0.3")

	if opts.ProxyURL != "" {
		client.SetProxy(opts.ProxyURL)
	}

	if opts.RetryMax > 0 {
		client.SetRetryCount(opts.RetryMax)
		client.SetRetryWaitTime(retryWaitTime)
		client.SetRetryMaxWaitTime(retryMaxWaitTime)
		client.AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == 429 || r.StatusCode() >= 500
		})
	}

	return &Client{
		http:        client,
		baseURL:     opts.BaseURL,
		userAgent:   ua,
		searchLimit: opts.SearchResultLimit,
		logger:      logger,
		onResponse:  opts.OnResponse,
	}, nil
}

// UserAgent 는 이 인스턴스가 사용하는 User-Agent를 반환한다.
func (c *Client) UserAgent() string {
	return c.userAgent
}

// postJSON 은 포털에 JSON POST 요청을 보내고 원문 응답 본문을 반환한다.
// 세션의 쿠키를 Cookie 헤더로 싣고, 응답의 Set-Cookie를 세션에 수확한다.
// 네트워크 장애 또는 2xx/3xx 밖의 상태는 *TransportError로 반환한다.
func (c *Client) postJSON(ctx context.Context, s *Session, path, submissionID string, body any) ([]byte, error) {
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", `application/json; charset="UTF-8"`).
		SetHeader("Referer", c.baseURL+"/index.jsp").
		SetHeader("Origin", c.baseURL).
		SetHeader("submissionid", submissionID).
		SetBody(body)

	if s != nil && s.Jar.Len() > 0 {
		req.SetHeader("Cookie", s.Jar.Header())
	}

	c.logger.Info("포털 요청",
		slog.String("method", "POST"),
		slog.String("path", path),
		slog.String("submission_id", submissionID),
	)

	resp, err := req.Post(path)
	if err != nil {
		c.logger.Error("포털 요청에 실패했습니다",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, &TransportError{URL: path, Err: err}
	}

	if s != nil {
		if setCookies := resp.Header().Values("Set-Cookie"); len(setCookies) > 0 {
			s.Jar.Harvest(setCookies)
		}
	}

	if c.onResponse != nil {
		c.onResponse(resp.StatusCode(), resp.Time())
	}

	c.logger.Info("포털 응답",
		slog.String("path", path),
		slog.Int("http_status", resp.StatusCode()),
		slog.Int("body_bytes", len(resp.Body())),
		slog.Float64("duration_ms", float64(resp.Time().Milliseconds())),
	)

	// 리다이렉트는 따라가므로 여기 도달한 3xx는 정상 취급, 4xx부터 전송 오류.
	if resp.StatusCode() >= 400 {
		return nil, &TransportError{URL: path, StatusCode: resp.StatusCode()}
	}

	return resp.Body(), nil
}
