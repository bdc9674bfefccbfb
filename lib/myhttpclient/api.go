package myhttpclient

import (
	"context"
	"time"
)

type RequestOption func(r *requestOptions)

type requestOptions struct {
	headers map[string]string
}

func WithHeader(key, value string) RequestOption {
	return func(r *requestOptions) {
		r.headers[key] = value
	}
}

func WithBearerToken(token string) RequestOption {
	return WithHeader("Authorization", "Bearer "+token)
}

//go:generate mockgen -source=api.go -package myhttpclient -destination http_sender_mock.go HTTPSender
type HTTPSender interface {
	Send(c context.Context, method string, url string, body []byte, opts ...RequestOption) (int, []byte, error)
}

func New(timeout time.Duration) HTTPSender {
	return newJSONHTTPClient(timeout)
}
