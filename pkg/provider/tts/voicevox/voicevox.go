// Package voicevox provides a tts.Synthesizer backed by a running VOICEVOX
// engine (https://voicevox.hiroshiba.jp/) over its HTTP API.
//
// Synthesis is a two-step exchange: POST /audio_query builds an editable
// query for the text and style, the client overwrites its prosody scales,
// and POST /synthesis renders the query to a WAV file. The speaker catalog
// comes from GET /speakers.
//
// Typical usage:
//
//	c, err := voicevox.New("http://127.0.0.1:50021", voicevox.WithTimeout(30*time.Second))
//	speakers, err := c.Speakers(ctx)
//	wav, err := c.Synthesize(ctx, "こんにちは", 3, tts.DefaultProsody())
package voicevox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/MrWong99/scriptvox/pkg/provider/tts"
)

// Compile-time interface assertion.
var _ tts.Synthesizer = (*Client)(nil)

const (
	// DefaultBaseURL is where a locally started engine listens.
	DefaultBaseURL = "http://127.0.0.1:50021"

	defaultTimeout = 30 * time.Second

	speakersEndpoint   = "/speakers"
	audioQueryEndpoint = "/audio_query"
	synthesisEndpoint  = "/synthesis"
	versionEndpoint    = "/version"

	// maxErrorBody bounds how much of an error response is quoted.
	maxErrorBody = 512
)

// ErrSynthesis is wrapped by every error returned from an engine exchange,
// so callers can tell engine failures apart from context cancellation with
// errors.Is.
var ErrSynthesis = errors.New("voicevox: synthesis request failed")

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithTimeout sets the per-request HTTP timeout. Defaults to 30 s.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the HTTP client, e.g. to install an instrumented
// transport. The configured timeout is kept unless hc sets its own.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc.Timeout == 0 {
			hc.Timeout = c.httpClient.Timeout
		}
		c.httpClient = hc
	}
}

// Client implements tts.Synthesizer against the VOICEVOX engine HTTP API.
// It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client for the engine at baseURL. An empty baseURL selects
// [DefaultBaseURL].
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("voicevox: invalid base URL %q", baseURL)
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// BaseURL returns the engine address the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// speakerResponse is one element of the GET /speakers array.
type speakerResponse struct {
	Name        string          `json:"name"`
	SpeakerUUID string          `json:"speaker_uuid"`
	Styles      []styleResponse `json:"styles"`
}

type styleResponse struct {
	ID   *int   `json:"id"`
	Name string `json:"name"`
}

// Speakers retrieves the engine's speaker catalog. Styles without an id are
// dropped.
func (c *Client) Speakers(ctx context.Context) ([]tts.Speaker, error) {
	body, err := c.do(ctx, http.MethodGet, speakersEndpoint, nil, nil, "application/json")
	if err != nil {
		return nil, err
	}

	var raw []speakerResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode speakers: %v", ErrSynthesis, err)
	}

	speakers := make([]tts.Speaker, 0, len(raw))
	for _, r := range raw {
		sp := tts.Speaker{Name: r.Name, UUID: r.SpeakerUUID}
		for _, st := range r.Styles {
			if st.ID == nil {
				continue
			}
			sp.Styles = append(sp.Styles, tts.Style{ID: *st.ID, Name: st.Name})
		}
		speakers = append(speakers, sp)
	}
	return speakers, nil
}

// Synthesize renders text with styleID and returns the engine's WAV output.
func (c *Client) Synthesize(ctx context.Context, text string, styleID int, prosody tts.Prosody) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, tts.ErrEmptyText
	}
	speaker := strconv.Itoa(styleID)

	queryParams := url.Values{}
	queryParams.Set("text", text)
	queryParams.Set("speaker", speaker)
	raw, err := c.do(ctx, http.MethodPost, audioQueryEndpoint, queryParams, nil, "application/json")
	if err != nil {
		return nil, err
	}

	// The query carries engine-specific fields (accent phrases, mora data)
	// that must round-trip untouched; only the scales are overwritten.
	var query map[string]any
	if err := json.Unmarshal(raw, &query); err != nil {
		return nil, fmt.Errorf("%w: decode audio query: %v", ErrSynthesis, err)
	}
	applyProsody(query, prosody)
	payload, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("voicevox: marshal audio query: %w", err)
	}

	synthParams := url.Values{}
	synthParams.Set("speaker", speaker)
	synthParams.Set("enable_interrogative_upspeak", strconv.FormatBool(prosody.Upspeak))
	return c.do(ctx, http.MethodPost, synthesisEndpoint, synthParams, payload, "audio/wav")
}

// Version returns the engine version string. Used as a readiness probe.
func (c *Client) Version(ctx context.Context) (string, error) {
	body, err := c.do(ctx, http.MethodGet, versionEndpoint, nil, nil, "application/json")
	if err != nil {
		return "", err
	}
	var v string
	if err := json.Unmarshal(body, &v); err != nil {
		return strings.TrimSpace(string(body)), nil
	}
	return v, nil
}

func applyProsody(query map[string]any, p tts.Prosody) {
	query["speedScale"] = p.Speed
	query["pitchScale"] = p.Pitch
	query["intonationScale"] = p.Intonation
	query["volumeScale"] = p.Volume
}

// do performs one engine request and returns the response body. Non-2xx
// statuses and transport failures are wrapped with ErrSynthesis; context
// cancellation is returned as the context error.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, body []byte, accept string) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, rd)
	if err != nil {
		return nil, fmt.Errorf("voicevox: create %s request: %w", path, err)
	}
	req.Header.Set("Accept", accept)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s %s: %v", ErrSynthesis, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: %s %s returned status %d: %s",
			ErrSynthesis, method, path, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s response: %v", ErrSynthesis, path, err)
	}
	return out, nil
}
