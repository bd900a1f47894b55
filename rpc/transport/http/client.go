package http

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/skv/rpc/common"
	"github.com/ValentinKolb/skv/rpc/transport"
)

func NewHttpClientTransport() transport.IRPCClientTransport {
	return &httpClientTransport{}
}

type httpClientTransport struct {
	serverURLs []*url.URL
	client     *http.Client
	counter    uint32
	retryCount int
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (transport *httpClientTransport) Connect(config common.ClientConfig) error {
	if len(config.Transport.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}

	parsedURLs := make([]*url.URL, len(config.Transport.Endpoints))
	for i, server := range config.Transport.Endpoints {
		parsedURL, err := url.Parse(strings.TrimRight(server, "/"))
		if err != nil {
			return err
		}
		if parsedURL.Scheme == "" || parsedURL.Host == "" {
			return fmt.Errorf("invalid http endpoint %q (expected e.g. http://localhost:8080)", server)
		}
		parsedURLs[i] = parsedURL
	}

	timeout := time.Duration(config.TimeoutSecond) * time.Second
	transport.client = &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: max(10, config.Transport.ConnectionsPerEndpoint),
			IdleConnTimeout:     90 * time.Second,
		},
	}
	transport.serverURLs = parsedURLs
	transport.counter = 0
	transport.retryCount = max(1, config.Transport.RetryCount)

	return nil
}

func (transport *httpClientTransport) Send(shardId uint64, req []byte) (resp []byte, err error) {
	if transport.client == nil {
		return nil, fmt.Errorf("http transport not initialized")
	}

	for i := 0; i < transport.retryCount; i++ {
		// Select the next server via round-robin
		idx := atomic.AddUint32(&transport.counter, 1) % uint32(len(transport.serverURLs))
		requestURL := fmt.Sprintf("%s/%d", transport.serverURLs[idx].String(), shardId)

		resp, err = transport.post(requestURL, req)
		if err == nil {
			return resp, nil
		}
		Logger.Debugf("Request attempt %d/%d failed: %v", i+1, transport.retryCount, err)
	}
	return nil, err
}

func (transport *httpClientTransport) Close() error {
	if transport.client != nil {
		transport.client.CloseIdleConnections()
	}

	transport.client = nil
	transport.serverURLs = nil

	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// post performs a single request, the body reader is created per attempt
func (transport *httpClientTransport) post(requestURL string, req []byte) ([]byte, error) {
	httpResponse, err := transport.client.Post(requestURL, "application/octet-stream", bytes.NewReader(req))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := httpResponse.Body.Close(); err != nil {
			Logger.Errorf("Failed to close response body: %v", err)
		}
	}()

	if httpResponse.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http error: %s", httpResponse.Status)
	}

	return io.ReadAll(httpResponse.Body)
}
