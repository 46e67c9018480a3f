package supabase

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// MockHTTPClient is a test implementation that records requests and returns mocked responses
type MockHTTPClient struct {
	mu sync.Mutex

	// Map of "METHOD URL" to mock response
	MockResponses map[string]MockResponse
	// Recorded requests
	RecordedRequests []RequestRecord
	// Err, when set, is returned by every call instead of a response
	Err error
}

// MockResponse represents a mocked HTTP response
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
}

// RequestRecord records a request made to the mock client
type RequestRecord struct {
	Method  string
	URL     string
	Headers http.Header
	Body    string
}

// NewMockHTTPClient creates a new mock HTTP client
func NewMockHTTPClient() *MockHTTPClient {
	return &MockHTTPClient{
		MockResponses:    make(map[string]MockResponse),
		RecordedRequests: make([]RequestRecord, 0),
	}
}

// Do records the request and returns a mocked response
func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record := RequestRecord{
		Method:  req.Method,
		URL:     req.URL.String(),
		Headers: req.Header.Clone(),
	}
	if req.Body != nil {
		bodyBytes, _ := io.ReadAll(req.Body)
		record.Body = string(bodyBytes)
		req.Body = io.NopCloser(strings.NewReader(record.Body))
	}
	m.RecordedRequests = append(m.RecordedRequests, record)

	if m.Err != nil {
		return nil, m.Err
	}

	if response, exists := m.MockResponses[key(req.Method, req.URL.String())]; exists {
		statusCode := response.StatusCode
		if statusCode == 0 {
			statusCode = http.StatusOK
		}

		mockResp := &http.Response{
			StatusCode: statusCode,
			Status:     fmt.Sprintf("%d %s", statusCode, http.StatusText(statusCode)),
			Header:     make(http.Header),
			Body:       io.NopCloser(strings.NewReader(response.Body)),
			Request:    req,
		}
		for k, v := range response.Headers {
			mockResp.Header.Set(k, v)
		}
		return mockResp, nil
	}

	// Default response - 404 Not Found
	return &http.Response{
		StatusCode: http.StatusNotFound,
		Status:     fmt.Sprintf("%d %s", http.StatusNotFound, http.StatusText(http.StatusNotFound)),
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(`{"msg":"Not Found"}`)),
		Request:    req,
	}, nil
}

// SetMockResponse sets a mock response for a method and URL
func (m *MockHTTPClient) SetMockResponse(method, url string, response MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.MockResponses[key(method, url)] = response
}

// SetJSONMockResponse sets a mock JSON response for a method and URL
func (m *MockHTTPClient) SetJSONMockResponse(method, url string, statusCode int, body interface{}) error {
	jsonBytes, err := json.Marshal(body)
	if err != nil {
		return err
	}

	m.SetMockResponse(method, url, MockResponse{
		StatusCode: statusCode,
		Body:       string(jsonBytes),
		Headers:    map[string]string{"Content-Type": "application/json"},
	})
	return nil
}

// GetRecordedRequests returns all recorded requests
func (m *MockHTTPClient) GetRecordedRequests() []RequestRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]RequestRecord, len(m.RecordedRequests))
	copy(out, m.RecordedRequests)
	return out
}

// LastRequest returns the most recent request, if any
func (m *MockHTTPClient) LastRequest() (RequestRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.RecordedRequests) == 0 {
		return RequestRecord{}, false
	}
	return m.RecordedRequests[len(m.RecordedRequests)-1], true
}

// AssertRequestMade checks if a request was made to a specific URL
func (m *MockHTTPClient) AssertRequestMade(method, url string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, record := range m.RecordedRequests {
		if record.Method == method && record.URL == url {
			return true
		}
	}
	return false
}

func key(method, url string) string {
	return method + " " + url
}
