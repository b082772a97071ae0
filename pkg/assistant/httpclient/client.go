package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ai-knowledge-client/internal/dto"
	"ai-knowledge-client/pkg/assistant"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName     = "ai-knowledge-client/assistant"
	maxDetailBytes = 512
)

type Client struct {
	BaseURL string
	Token   string
	Client  *http.Client

	tracer trace.Tracer
}

// Ensure Client implements assistant.API
var _ assistant.API = &Client{}

type Option func(*Client)

// WithToken attaches "Authorization: Bearer <token>" to every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.Token = token
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.Client = httpClient
	}
}

func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout: timeout,
		},
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// --- Interface Implementation ---

func (c *Client) Ping(ctx context.Context) (string, error) {
	var res dto.BannerResponse
	if err := c.doJSON(ctx, "ping", http.MethodGet, "/", nil, &res); err != nil {
		return "", err
	}
	return res.Message, nil
}

func (c *Client) ListDocuments(ctx context.Context) ([]dto.DocumentResponse, error) {
	var docs []dto.DocumentResponse
	if err := c.doJSON(ctx, "list documents", http.MethodGet, "/documents", nil, &docs); err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []dto.DocumentResponse{}
	}
	return docs, nil
}

func (c *Client) UploadDocument(ctx context.Context, filename string, content io.Reader) (*dto.UploadDocumentResponse, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("read upload %s: %w", filename, err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	var res dto.UploadDocumentResponse
	if err := c.do(ctx, "upload document", http.MethodPost, "/upload", &body, writer.FormDataContentType(), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	return c.doJSON(ctx, "delete document", http.MethodDelete, "/documents/"+url.PathEscape(id), nil, nil)
}

func (c *Client) SendChat(ctx context.Context, request dto.SendChatRequest) (*dto.SendChatResponse, error) {
	var res dto.SendChatResponse
	if err := c.doJSON(ctx, "send chat", http.MethodPost, "/chat", request, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) GetMemory(ctx context.Context, target string) (*dto.MemoryDocumentResponse, error) {
	var res dto.MemoryDocumentResponse
	if err := c.doJSON(ctx, "get memory", http.MethodGet, "/memory/"+url.PathEscape(target), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Reset(ctx context.Context) error {
	return c.doJSON(ctx, "reset", http.MethodDelete, "/reset", nil, nil)
}

// --- Transport ---

func (c *Client) doJSON(ctx context.Context, op, method, path string, payload interface{}, out interface{}) error {
	var body io.Reader
	contentType := ""
	if payload != nil {
		payloadBytes, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		body = bytes.NewReader(payloadBytes)
		contentType = "application/json"
	}
	return c.do(ctx, op, method, path, body, contentType, out)
}

func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string, out interface{}) error {
	ctx, span := c.tracer.Start(ctx, "assistant."+strings.ReplaceAll(op, " ", "_"),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		),
	)
	defer span.End()

	err := c.roundTrip(ctx, span, op, method, path, body, contentType, out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, span trace.Span, op, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &assistant.APIError{
			Operation:  op,
			StatusCode: resp.StatusCode,
			Detail:     extractDetail(bodyBytes),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("%s: %w: %w", op, assistant.ErrMalformedResponse, err)
	}
	return nil
}

// extractDetail reads {"detail": "..."} and otherwise falls back to the trimmed body.
func extractDetail(body []byte) string {
	var errBody dto.ErrorResponse
	if err := json.Unmarshal(body, &errBody); err == nil && errBody.Detail != "" {
		return errBody.Detail
	}
	detail := strings.TrimSpace(string(body))
	if len(detail) > maxDetailBytes {
		detail = detail[:maxDetailBytes]
	}
	return detail
}
