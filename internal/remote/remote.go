package remote

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/resume-analyzer/internal/logger"
)

const (
	DefaultBaseURL = "http://127.0.0.1:8000"
	userAgent      = "spigell/resume-analyzer"
)

// CredentialSource supplies the bearer credential for each call.
// An empty string means no credential.
type CredentialSource interface {
	Credential() string
}

type Client struct {
	credentials CredentialSource
	logger      *zap.Logger
	HTTPClient  *http.Client
	UserAgent   string
	BaseURL     string
}

// New builds a client against the default base URL. The credential source is
// consulted on every request, so session changes apply to the next call.
func New(credentials CredentialSource, log *zap.Logger) *Client {
	return &Client{
		credentials: credentials,
		BaseURL:     DefaultBaseURL,
		// Zero timeout keeps the transport default.
		HTTPClient: &http.Client{},
		logger:     logger.WithComponent(log, "remote"),
		UserAgent:  userAgent,
	}
}

func (c *Client) url(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + path
}
