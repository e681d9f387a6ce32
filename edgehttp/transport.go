package edgehttp

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"golang.org/x/exp/maps"

	"github.com/edgetelemetry/go-edge-sdk/subsystems/edgetypes"
)

const (
	// DefaultBaseURI is the default collection endpoint.
	DefaultBaseURI = "https://edge.edgetelemetry.com"
	// DefaultRequestTimeout is the default bound on a whole request/response exchange.
	DefaultRequestTimeout = 10 * time.Second

	interactPath = "/ee/v1/interact"
)

// Transport is the default NetworkTransport over net/http.
type Transport struct {
	client  *http.Client
	baseURI string
	headers http.Header
	loggers ldlog.Loggers
}

// TransportOption is a configuration option for NewTransport.
type TransportOption func(*Transport)

// BaseURI sets the collection endpoint base URI. The default is DefaultBaseURI.
func BaseURI(uri string) TransportOption {
	return func(t *Transport) { t.baseURI = uri }
}

// RequestTimeout bounds the whole request/response exchange. The default is
// DefaultRequestTimeout.
func RequestTimeout(timeout time.Duration) TransportOption {
	return func(t *Transport) { t.client.Timeout = timeout }
}

// HTTPClient replaces the underlying HTTP client, for hosts that need custom TLS or proxy
// behavior.
func HTTPClient(client *http.Client) TransportOption {
	return func(t *Transport) { t.client = client }
}

// Header adds a header to every request.
func Header(name, value string) TransportOption {
	return func(t *Transport) { t.headers.Set(name, value) }
}

// Loggers sets the log destination.
func Loggers(loggers ldlog.Loggers) TransportOption {
	return func(t *Transport) { t.loggers = loggers }
}

// NewTransport creates a Transport with the given options.
func NewTransport(options ...TransportOption) *Transport {
	t := &Transport{
		client:  &http.Client{Timeout: DefaultRequestTimeout},
		baseURI: DefaultBaseURI,
		headers: make(http.Header),
		loggers: ldlog.NewDisabledLoggers(),
	}
	for _, o := range options {
		o(t)
	}
	return t
}

//nolint:revive // no doc comment for standard method
func (t *Transport) Send(ctx context.Context, request edgetypes.HitRequest) edgetypes.HitResult {
	query := url.Values{
		"configId":  {request.ConfigID},
		"requestId": {request.RequestID},
	}
	uri := t.baseURI + interactPath + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uri, bytes.NewReader(request.Body))
	if err != nil {
		t.loggers.Errorf("Unable to create request; most likely a bad base URI: %s", err)
		return edgetypes.HitResult{Outcome: edgetypes.HitOutcomeUnreachable}
	}
	req.Header = maps.Clone(t.headers)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return edgetypes.HitResult{Outcome: edgetypes.HitOutcomeTimeout}
		}
		return edgetypes.HitResult{Outcome: edgetypes.HitOutcomeUnreachable}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	body, readErr := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode/100 == 2:
		if readErr != nil {
			// the response was lost mid-read, so delivery is unconfirmed; report it as a
			// transient failure so the record is retried
			return edgetypes.HitResult{Outcome: edgetypes.HitOutcomeUnreachable}
		}
		return edgetypes.HitResult{Outcome: edgetypes.HitOutcomeSuccess, StatusCode: resp.StatusCode, Body: body}
	case resp.StatusCode/100 == 4 && isRecoverableClientError(resp.StatusCode):
		return edgetypes.HitResult{Outcome: edgetypes.HitOutcomeServerError, StatusCode: resp.StatusCode}
	case resp.StatusCode/100 == 4:
		return edgetypes.HitResult{Outcome: edgetypes.HitOutcomeClientError, StatusCode: resp.StatusCode, Body: body}
	default:
		return edgetypes.HitResult{Outcome: edgetypes.HitOutcomeServerError, StatusCode: resp.StatusCode}
	}
}

// isRecoverableClientError reports the 4xx statuses that represent transient conditions rather
// than a structurally invalid request.
func isRecoverableClientError(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	default:
		return false
	}
}
