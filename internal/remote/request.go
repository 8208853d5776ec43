package remote

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/resume-analyzer/internal/logger"
)

const (
	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"
	contentEncoding = "gzip"
	requestIDHeader = "X-Request-ID"
)

// File is an uploadable artifact.
type File interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// Part is a single file field of a multipart request. Repeating a Field name
// produces a repeated multipart field.
type Part struct {
	Field string
	File  File
}

// Get issues a GET request and decodes the response into target.
func (c *Client) Get(ctx context.Context, path string, target any) error {
	return c.do(ctx, http.MethodGet, path, nil, "", target)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any, target any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request body: %w", err)
	}

	return c.do(ctx, http.MethodPost, path, bytes.NewReader(data), contentTypeJSON, target)
}

// PostForm issues a POST request with a form-encoded body.
func (c *Client) PostForm(ctx context.Context, path string, form url.Values, target any) error {
	return c.do(ctx, http.MethodPost, path, strings.NewReader(form.Encode()), contentTypeForm, target)
}

// PostMultipart issues a POST request with the given file parts.
func (c *Client) PostMultipart(ctx context.Context, path string, parts []Part, target any) error {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	for _, part := range parts {
		if err := writeFilePart(w, part); err != nil {
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}

	return c.do(ctx, http.MethodPost, path, &b, w.FormDataContentType(), target)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, target any) error {
	return c.do(ctx, http.MethodDelete, path, nil, "", target)
}

func writeFilePart(w *multipart.Writer, part Part) error {
	if part.File == nil {
		return fmt.Errorf("multipart field %s has no file", part.Field)
	}

	src, err := part.File.Open()
	if err != nil {
		return fmt.Errorf("opening %s: %w", part.File.Name(), err)
	}
	defer src.Close()

	field, err := w.CreateFormFile(part.Field, part.File.Name())
	if err != nil {
		return err
	}

	if _, err = io.Copy(field, src); err != nil {
		return fmt.Errorf("reading %s: %w", part.File.Name(), err)
	}

	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, target any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return err
	}

	requestID := c.setHeaders(req)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	log := c.logger.With(zap.String(logger.FieldRequestID, requestID))
	log.Debug("make request", zap.String("method", method), zap.String("url", req.URL.String()))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		log.Debug("request failed", zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	data, err := readBody(resp)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newAPIError(resp, data)
		log.Debug("bad status from remote", zap.Int("status", resp.StatusCode), zap.String("detail", apiErr.Detail))
		return apiErr
	}

	if target == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	return decode(data, target)
}

// setHeaders attaches the common headers and returns the request id. The
// Authorization header is set only when a credential is present.
func (c *Client) setHeaders(req *http.Request) string {
	if c.credentials != nil {
		if credential := c.credentials.Credential(); credential != "" {
			req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", credential))
		}
	}

	requestID := uuid.NewString()
	req.Header.Set(requestIDHeader, requestID)
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", contentTypeJSON)
	req.Header.Set("Accept-Encoding", contentEncoding)

	return requestID
}

func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	return io.ReadAll(reader)
}

// decode unmarshals JSON loosely: numeric strings such as "85.00" decode into
// float fields, which the remote uses interchangeably with numbers.
func decode(data []byte, target any) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	if p, ok := target.(*any); ok {
		*p = raw
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}

	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

// segment escapes a single path segment such as a username or a job label.
func segment(s string) string {
	return url.PathEscape(s)
}
