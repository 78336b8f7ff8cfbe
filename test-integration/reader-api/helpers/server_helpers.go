package helpers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	json "github.com/goccy/go-json"
	"github.com/onsi/gomega"

	readerapp "github.com/qianmo517/reader/internal/app"
	"github.com/qianmo517/reader/internal/config"
)

// Envelope is the response body of every operation endpoint
type Envelope struct {
	IsSuccess bool            `json:"isSuccess"`
	Data      json.RawMessage `json:"data,omitempty"`
	ErrCode   string          `json:"errCode,omitempty"`
	Msg       string          `json:"msg,omitempty"`
}

// SourceList is the data of GET /source/list
type SourceList struct {
	Fingerprint string       `json:"fingerprint"`
	Sources     []TestSource `json:"sources"`
}

// ServerTestHelper manages the reader API server lifecycle for testing
type ServerTestHelper struct {
	ctx        context.Context
	configPath string
	baseURL    string
	address    string
	httpClient *http.Client
	app        *readerapp.ReaderApp
}

// NewServerTestHelper creates a new server test helper listening on a free port
func NewServerTestHelper(ctx context.Context, configPath string) (*ServerTestHelper, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to find a free port: %w", err)
	}
	address := listener.Addr().String()
	if err := listener.Close(); err != nil {
		return nil, err
	}

	return &ServerTestHelper{
		ctx:        ctx,
		configPath: configPath,
		address:    address,
		baseURL:    "http://" + address,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// StartServer starts the reader API server programmatically
func (s *ServerTestHelper) StartServer() error {
	cfg, err := config.LoadConfig(config.WithConfigPath(s.configPath))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	app, err := readerapp.NewReaderApp(s.ctx,
		readerapp.WithConfig(cfg),
		readerapp.WithAddress(s.address),
	)
	if err != nil {
		return fmt.Errorf("failed to build app: %w", err)
	}
	s.app = app

	go func() {
		if err := app.Start(); err != nil {
			// The test fails when it tries to connect
			fmt.Fprintf(os.Stderr, "Server start failed: %v\n", err)
		}
	}()

	return nil
}

// StopServer gracefully stops the reader API server
func (s *ServerTestHelper) StopServer() error {
	if s.app != nil {
		return s.app.Stop(5 * time.Second)
	}
	return nil
}

// WaitForServerLive waits until the server accepts requests
func (s *ServerTestHelper) WaitForServerLive(timeout time.Duration) {
	s.waitFor("/health", timeout)
}

// WaitForServerReady waits until the registry has been loaded
func (s *ServerTestHelper) WaitForServerReady(timeout time.Duration) {
	s.waitFor("/readiness", timeout)
}

func (s *ServerTestHelper) waitFor(path string, timeout time.Duration) {
	gomega.Eventually(func() error {
		resp, err := s.httpClient.Get(s.baseURL + path)
		if err != nil {
			return err
		}
		defer func() {
			_ = resp.Body.Close()
		}()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("server returned status %d", resp.StatusCode)
		}
		return nil
	}, timeout, 100*time.Millisecond).Should(gomega.Succeed(), "Server should answer "+path)
}

// Get makes a GET request and decodes the envelope
func (s *ServerTestHelper) Get(path string) Envelope {
	resp, err := s.httpClient.Get(s.baseURL + path)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	return decodeEnvelope(resp)
}

// Post makes a POST request with a JSON body and decodes the envelope
func (s *ServerTestHelper) Post(path string, body any) Envelope {
	var payload []byte
	switch b := body.(type) {
	case string:
		payload = []byte(b)
	default:
		var err error
		payload, err = json.Marshal(b)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
	}

	resp, err := s.httpClient.Post(s.baseURL+path, "application/json", bytes.NewReader(payload))
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	return decodeEnvelope(resp)
}

// GetSources returns the registry listing
func (s *ServerTestHelper) GetSources() SourceList {
	env := s.Get("/source/list")
	gomega.Expect(env.IsSuccess).To(gomega.BeTrue(), env.Msg)

	var list SourceList
	gomega.Expect(json.Unmarshal(env.Data, &list)).To(gomega.Succeed())
	return list
}

// WaitForSources waits until the registry holds exactly count sources
func (s *ServerTestHelper) WaitForSources(count int, timeout time.Duration) []TestSource {
	var list SourceList
	gomega.Eventually(func() int {
		list = s.GetSources()
		return len(list.Sources)
	}, timeout, 100*time.Millisecond).Should(gomega.Equal(count))
	return list.Sources
}

// GetStatus returns the raw sync status document
func (s *ServerTestHelper) GetStatus() map[string]any {
	resp, err := s.httpClient.Get(s.baseURL + "/status")
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	defer func() {
		_ = resp.Body.Close()
	}()
	gomega.Expect(resp.StatusCode).To(gomega.Equal(http.StatusOK))

	var status map[string]any
	gomega.Expect(json.NewDecoder(resp.Body).Decode(&status)).To(gomega.Succeed())
	return status
}

// GetBaseURL returns the base URL of the server
func (s *ServerTestHelper) GetBaseURL() string {
	return s.baseURL
}

func decodeEnvelope(resp *http.Response) Envelope {
	defer func() {
		_ = resp.Body.Close()
	}()
	gomega.Expect(resp.StatusCode).To(gomega.Equal(http.StatusOK), "operations always answer 200")

	body, err := io.ReadAll(resp.Body)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())

	var env Envelope
	gomega.Expect(json.Unmarshal(body, &env)).To(gomega.Succeed(), string(body))
	return env
}
