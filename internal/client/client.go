package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yukikurage/lost-and-found-api/internal/dto"
	apierrors "github.com/yukikurage/lost-and-found-api/internal/errors"
)

var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// Error is an API error response. It unwraps to one of the sentinel errors
// above so callers can use errors.Is.
type Error struct {
	Status  int
	Code    string
	Message string
	kind    error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s (HTTP %d)", e.kind, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.Message)
}

func (e *Error) Unwrap() error { return e.kind }

// Client talks to the JSON surface of the lost-and-found API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// WithHTTPClient replaces the underlying http.Client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// SetToken sets the bearer token sent with every request.
func (c *Client) SetToken(token string) { c.token = token }

// Token returns the current bearer token.
func (c *Client) Token() string { return c.token }

// ItemFields holds the editable item fields. Nil fields are omitted.
type ItemFields struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	Location    *string `json:"location,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// Image is a file attached to a create or update request.
type Image struct {
	Filename string
	Content  io.Reader
}

// ListOptions filters an item listing. Zero values are not sent.
type ListOptions struct {
	Category string
	Status   string
	Mine     bool
	Page     int
	Limit    int
}

// ItemPage is one page of a listing plus the total number of matches.
type ItemPage struct {
	Items []dto.ItemDTO
	Total int64
}

func (c *Client) Register(ctx context.Context, username, email, password, role string) (*dto.UserDTO, error) {
	payload := map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}
	if role != "" {
		payload["role"] = role
	}

	var user dto.UserDTO
	if err := c.doJSON(ctx, http.MethodPost, "/register", payload, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login authenticates and keeps the returned token for later calls.
func (c *Client) Login(ctx context.Context, username, password string) (*dto.LoginResponse, error) {
	var resp dto.LoginResponse
	payload := map[string]string{"username": username, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/login", payload, &resp); err != nil {
		return nil, err
	}
	c.token = resp.Token
	return &resp, nil
}

func (c *Client) Me(ctx context.Context) (*dto.UserDTO, error) {
	var user dto.UserDTO
	if err := c.doJSON(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) ListItems(ctx context.Context, opts ListOptions) (*ItemPage, error) {
	query := url.Values{}
	if opts.Category != "" {
		query.Set("category", opts.Category)
	}
	if opts.Status != "" {
		query.Set("status", opts.Status)
	}
	if opts.Mine {
		query.Set("mine", "true")
	}
	if opts.Page > 0 {
		query.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	path := "/items"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	req, err := c.newRequest(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	page := &ItemPage{}
	header, err := c.do(req, &page.Items)
	if err != nil {
		return nil, err
	}
	if total := header.Get("X-Total-Count"); total != "" {
		page.Total, _ = strconv.ParseInt(total, 10, 64)
	} else {
		page.Total = int64(len(page.Items))
	}
	return page, nil
}

func (c *Client) GetItem(ctx context.Context, id uint64) (*dto.ItemDTO, error) {
	var item dto.ItemDTO
	if err := c.doJSON(ctx, http.MethodGet, itemPath(id), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem reports an item. With an image the request is sent as
// multipart form data.
func (c *Client) CreateItem(ctx context.Context, fields ItemFields, image *Image) (*dto.ItemDTO, error) {
	return c.sendItem(ctx, http.MethodPost, "/items", fields, image)
}

func (c *Client) UpdateItem(ctx context.Context, id uint64, fields ItemFields, image *Image) (*dto.ItemDTO, error) {
	return c.sendItem(ctx, http.MethodPut, itemPath(id), fields, image)
}

func (c *Client) UpdateStatus(ctx context.Context, id uint64, status string) (*dto.ItemDTO, error) {
	return c.UpdateItem(ctx, id, ItemFields{Status: &status}, nil)
}

func (c *Client) DeleteItem(ctx context.Context, id uint64) error {
	var resp dto.MessageResponse
	return c.doJSON(ctx, http.MethodDelete, itemPath(id), nil, &resp)
}

func (c *Client) sendItem(ctx context.Context, method, path string, fields ItemFields, image *Image) (*dto.ItemDTO, error) {
	var item dto.ItemDTO
	if image == nil {
		if err := c.doJSON(ctx, method, path, fields, &item); err != nil {
			return nil, err
		}
		return &item, nil
	}

	body, contentType, err := multipartBody(fields, image)
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, method, path, body, contentType)
	if err != nil {
		return nil, err
	}
	if _, err := c.do(req, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func multipartBody(fields ItemFields, image *Image) (io.Reader, string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, value := range map[string]*string{
		"title":       fields.Title,
		"description": fields.Description,
		"category":    fields.Category,
		"location":    fields.Location,
		"status":      fields.Status,
	} {
		if value == nil {
			continue
		}
		if err := mw.WriteField(name, *value); err != nil {
			return nil, "", fmt.Errorf("writing form field: %w", err)
		}
	}
	part, err := mw.CreateFormFile("image", image.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("creating image part: %w", err)
	}
	if _, err := io.Copy(part, image.Content); err != nil {
		return nil, "", fmt.Errorf("copying image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart body: %w", err)
	}
	return &body, mw.FormDataContentType(), nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	contentType := ""
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(buf)
		contentType = "application/json"
	}
	req, err := c.newRequest(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}
	_, err = c.do(req, out)
	return err
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) (http.Header, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, decodeError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.Header, nil
}

func decodeError(resp *http.Response) error {
	apiErr := &Error{Status: resp.StatusCode, kind: kindForStatus(resp.StatusCode)}

	var body apierrors.APIError
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err == nil {
		apiErr.Code = body.Code
		apiErr.Message = body.Message
	}
	return apiErr
}

func kindForStatus(status int) error {
	switch status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusBadRequest, http.StatusUnsupportedMediaType, http.StatusRequestEntityTooLarge:
		return ErrInvalidArgument
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return ErrUpstreamUnavailable
	default:
		return fmt.Errorf("unexpected status %d", status)
	}
}

func itemPath(id uint64) string {
	return "/items/" + strconv.FormatUint(id, 10)
}
