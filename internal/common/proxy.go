package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	OK                  int = 200
	BAD_GATEWAY         int = 502
	SERVICE_UNAVAILABLE int = 503
)

// What we keep from an HTTP exchange: the status code, the raw body
// and any cookies the server wants us to store
type Reply struct {
	StatusCode int
	Body       []byte
	Cookies    []*http.Cookie
}

// The proxy performs the outbound HTTP requests, bounding each of them
// with a timeout and asking the rate limiter for permission first.
// A returned error always means the request never produced a response
// (connection failure or timeout); HTTP error codes come back in the Reply
type Proxy struct {
	header      map[string]string
	client      http.Client
	rateLimiter *RateLimiter
}

func NewProxy(header map[string]string, timeout time.Duration, restrictions []Restriction) Proxy {
	return Proxy{header, http.Client{Timeout: timeout}, NewRateLimiter(restrictions)}
}

// Perform a GET request to the provided url, indicating if it is vital
func (proxy *Proxy) Get(url string, vital bool) (Reply, error) {

	request, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return Reply{}, fmt.Errorf("could not create request for url %s: %w", url, err)
	}
	return proxy.do(request, vital)
}

// Perform a POST request with a JSON payload to the provided url.
// Any provided cookies are attached to the request
func (proxy *Proxy) PostJSON(url string, payload any, cookies []*http.Cookie, vital bool) (Reply, error) {

	body, err := json.Marshal(payload)
	if err != nil {
		return Reply{}, fmt.Errorf("could not encode payload for url %s: %w", url, err)
	}
	request, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Reply{}, fmt.Errorf("could not create request for url %s: %w", url, err)
	}
	request.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		request.AddCookie(cookie)
	}
	return proxy.do(request, vital)
}

func (proxy *Proxy) do(request *http.Request, vital bool) (Reply, error) {

	// Ask for permission to execute the request
	// and wait if necessary
	if !proxy.rateLimiter.Allowed(vital) {
		log.Warn().Msg("Rate limiter is not allowing the request")
		return Reply{}, fmt.Errorf("rate limiter rejected request to %s", request.URL)
	}

	for key, value := range proxy.header {
		request.Header.Set(key, value)
	}

	res, err := proxy.client.Do(request)
	if err != nil {
		return Reply{}, fmt.Errorf("could not perform request to %s: %w", request.URL, err)
	}
	defer res.Body.Close()

	stream, err := io.ReadAll(res.Body)
	if err != nil {
		return Reply{}, fmt.Errorf("could not extract the response for url %s: %w", request.URL, err)
	}
	log.Debug().Msg(fmt.Sprintf("%d %s", res.StatusCode, request.URL))

	return Reply{StatusCode: res.StatusCode, Body: stream, Cookies: res.Cookies()}, nil
}
