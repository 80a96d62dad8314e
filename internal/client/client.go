package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/kgkhs001/BrighamWomensApp/internal/form"
	"github.com/kgkhs001/BrighamWomensApp/internal/model"
	"github.com/kgkhs001/BrighamWomensApp/internal/repository"
	"github.com/kgkhs001/BrighamWomensApp/internal/service"
	"github.com/sirupsen/logrus"
)

const defaultTimeout = 10 * time.Second

// TokenSource 提供 Bearer 令牌，令牌的获取和刷新由身份提供方负责
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	// Refresh 在服务端返回 401 后调用，返回新的令牌
	Refresh(ctx context.Context) (string, error)
}

// StaticToken 固定令牌，Refresh 返回同一个值
type StaticToken string

// Token 返回令牌
func (t StaticToken) Token(context.Context) (string, error) { return string(t), nil }

// Refresh 返回同一个令牌
func (t StaticToken) Refresh(context.Context) (string, error) { return string(t), nil }

// APIError 服务端返回的结构化错误
type APIError struct {
	StatusCode int               `json:"code"`
	Kind       string            `json:"error"`
	Message    string            `json:"message"`
	Detail     string            `json:"detail"`
	Fields     []form.FieldError `json:"fields"`
	Retryable  bool              `json:"retryable"`
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%d %s: %s (%s)", e.StatusCode, e.Kind, e.Message, e.Detail)
	}
	return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Kind, e.Message)
}

// IsNotFound 判断是否为 404
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsRetryable 判断错误是否可以重试（认证、存储、限流）
func IsRetryable(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Retryable
}

// Client 服务请求门户的 HTTP 客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	timeout    time.Duration
	logger     *logrus.Logger
}

// Option 客户端选项
type Option func(*Client)

// WithHTTPClient 使用自定义 http.Client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithTokenSource 设置令牌来源
func WithTokenSource(tokens TokenSource) Option {
	return func(c *Client) { c.tokens = tokens }
}

// WithTimeout 设置单次调用超时
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.timeout = timeout }
}

// WithLogger 设置日志
func WithLogger(logger *logrus.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New 创建客户端，baseURL 形如 http://localhost:8080
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		timeout:    defaultTimeout,
		logger:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// call 单次 API 调用
type call struct {
	method  string
	path    string
	query   url.Values
	body    interface{}
	headers map[string]string
	out     interface{}
}

// do 发送请求；401 时刷新令牌并重试一次
func (c *Client) do(ctx context.Context, cl call) (http.Header, error) {
	var payload []byte
	if cl.body != nil {
		var err error
		if payload, err = json.Marshal(cl.body); err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
	}

	token := ""
	if c.tokens != nil {
		var err error
		if token, err = c.tokens.Token(ctx); err != nil {
			return nil, fmt.Errorf("failed to get token: %w", err)
		}
	}

	header, err := c.send(ctx, cl, payload, token)
	var apiErr *APIError
	if c.tokens != nil && errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		c.logger.WithField("path", cl.path).Debug("token rejected, refreshing")
		if token, err = c.tokens.Refresh(ctx); err != nil {
			return nil, fmt.Errorf("failed to refresh token: %w", err)
		}
		header, err = c.send(ctx, cl, payload, token)
	}
	return header, err
}

func (c *Client) send(ctx context.Context, cl call, payload []byte, token string) (http.Header, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range cl.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", cl.method, cl.path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return resp.Header, decodeAPIError(resp)
	}
	if cl.out != nil {
		if err := json.NewDecoder(resp.Body).Decode(cl.out); err != nil {
			return resp.Header, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.Header, nil
}

// decodeAPIError 解析结构化错误体，无法解析时保留状态码
func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Kind == "" {
		apiErr = &APIError{Kind: "unknown", Message: strings.TrimSpace(string(data))}
	}
	apiErr.StatusCode = resp.StatusCode
	return apiErr
}

// envelope Success 响应格式
type envelope[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// Submit 提交表单，返回通用记录 ID
func (c *Client) Submit(ctx context.Context, requestType model.RequestType, body interface{}, idempotencyKey string) (uint, error) {
	route := requestType.Route()
	if route == "" {
		return 0, fmt.Errorf("unknown request type %q", requestType)
	}

	headers := map[string]string{}
	if idempotencyKey != "" {
		headers["Idempotency-Key"] = idempotencyKey
	}
	header, err := c.do(ctx, call{method: http.MethodPost, path: "/api/" + route, body: body, headers: headers})
	if err != nil {
		return 0, err
	}

	id, err := strconv.ParseUint(header.Get("X-Service-Request-ID"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("missing service request id in response: %w", err)
	}
	return uint(id), nil
}

// FetchAll 获取看板行
func (c *Client) FetchAll(ctx context.Context, filter repository.RequestFilter) ([]repository.RequestRow, error) {
	query := url.Values{}
	if filter.Type != "" {
		query.Set("type", filter.Type.Route())
	}
	if filter.Status != "" {
		query.Set("status", string(filter.Status))
	}
	if filter.Priority != "" {
		query.Set("priority", string(filter.Priority))
	}
	if filter.Page > 0 {
		query.Set("page", strconv.Itoa(filter.Page))
		query.Set("page_size", strconv.Itoa(filter.PageSize))
	}

	var rows []repository.RequestRow
	if _, err := c.do(ctx, call{method: http.MethodGet, path: "/api/fetchAll", query: query, out: &rows}); err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateStatus 更新状态
func (c *Client) UpdateStatus(ctx context.Context, id uint, status model.Status) error {
	_, err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/api/fetchAll/update",
		body:   service.UpdateStatusRequest{ID: id, Status: status},
	})
	return err
}

// Delete 删除通用记录及其明细
func (c *Client) Delete(ctx context.Context, id uint) error {
	_, err := c.do(ctx, call{method: http.MethodDelete, path: "/api/fetchAll/" + strconv.FormatUint(uint64(id), 10)})
	return err
}

// GetNum 查询库存数量
func (c *Client) GetNum(ctx context.Context, name string) (*service.StockLevel, error) {
	var level service.StockLevel
	query := url.Values{"name": {name}}
	if _, err := c.do(ctx, call{method: http.MethodGet, path: "/api/inventory/getNum", query: query, out: &level}); err != nil {
		return nil, err
	}
	return &level, nil
}

// History 状态变更历史
func (c *Client) History(ctx context.Context, id uint) ([]model.StatusHistoryModel, error) {
	var resp envelope[[]model.StatusHistoryModel]
	path := "/api/fetchAll/" + strconv.FormatUint(uint64(id), 10) + "/history"
	if _, err := c.do(ctx, call{method: http.MethodGet, path: path, out: &resp}); err != nil {
		return nil, err
	}
	return resp.Data, nil
}
