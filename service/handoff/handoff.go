package handoff

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/viant/crewflow/internal/clock"
	"github.com/viant/crewflow/model"
	"github.com/viant/crewflow/runtime/run"
	"github.com/viant/crewflow/tracing"
	"github.com/viant/scy"
	_ "github.com/viant/scy/kms/blowfish"
)

// ErrNoToken is reported when neither a token nor a secret is configured.
var ErrNoToken = errors.New("handoff bearer token not configured")

// Service posts completed runs to the downstream kickoff endpoint.
type Service struct {
	config *Config
	client *http.Client
	scy    *scy.Service
}

// Option customises a Service.
type Option func(s *Service)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Service) { s.client = client }
}

// New creates a handoff service.
func New(config *Config, opts ...Option) *Service {
	ret := &Service{config: config, client: http.DefaultClient, scy: scy.New()}
	ret.config.Init()
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Config returns the effective configuration.
func (s *Service) Config() *Config { return s.config }

// Deliver posts payload and reports the outcome. It never returns an error;
// failures are recorded on the outcome with the HandoffError kind.
func (s *Service) Deliver(ctx context.Context, payload *Payload) (outcome *run.HandoffOutcome) {
	endpoint := s.config.Endpoint()
	outcome = &run.HandoffOutcome{URL: endpoint}
	ctx, span := tracing.StartSpan(ctx, "handoff.kickoff", tracing.KindClient)
	span.WithAttributes(map[string]string{"http.url": endpoint})
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handoff panic: %v", r)
		}
		outcome.At = clock.Now()
		if err != nil {
			outcome.Delivered = false
			outcome.Kind = string(model.KindHandoff)
			outcome.Error = err.Error()
		}
		tracing.EndSpan(span, err)
	}()

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()
	var token string
	if token, err = s.token(ctx); err != nil {
		return outcome
	}
	var body []byte
	if body, err = json.Marshal(payload); err != nil {
		return outcome
	}
	var request *http.Request
	if request, err = http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body)); err != nil {
		return outcome
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Authorization", "Bearer "+token)
	response, err := s.client.Do(request)
	if err != nil {
		return outcome
	}
	defer response.Body.Close()
	outcome.StatusCode = response.StatusCode
	span.SetStatusFromHTTPCode(response.StatusCode)
	data, _ := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	if response.StatusCode < 200 || response.StatusCode > 299 {
		err = fmt.Errorf("kickoff returned %d: %s", response.StatusCode, strings.TrimSpace(string(data)))
		return outcome
	}
	outcome.Delivered = true
	outcome.KickoffID = kickoffID(data)
	return outcome
}

func kickoffID(data []byte) string {
	reply := struct {
		KickoffID string `json:"kickoff_id"`
		ID        string `json:"id"`
	}{}
	if err := json.Unmarshal(data, &reply); err != nil {
		return ""
	}
	if reply.KickoffID != "" {
		return reply.KickoffID
	}
	return reply.ID
}

func (s *Service) token(ctx context.Context) (string, error) {
	if s.config.BearerToken != "" {
		return s.config.BearerToken, nil
	}
	if s.config.SecretURL == "" {
		return "", ErrNoToken
	}
	resource := scy.NewResource(nil, s.config.SecretURL, s.config.SecretKey)
	secret, err := s.scy.Load(ctx, resource)
	if err != nil {
		return "", fmt.Errorf("failed to load handoff secret from %s: %w", s.config.SecretURL, err)
	}
	token := strings.TrimSpace(secret.String())
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// StoreToken encrypts token with key and stores it at URL, producing a
// secret that Deliver can resolve through Config.SecretURL.
func StoreToken(ctx context.Context, URL, key, token string) error {
	if key == "" {
		key = DefaultKey
	}
	resource := scy.NewResource(nil, URL, key)
	secret := scy.NewSecret(token, resource)
	if err := scy.New().Store(ctx, secret); err != nil {
		return fmt.Errorf("failed to store handoff secret at %s: %w", URL, err)
	}
	return nil
}
