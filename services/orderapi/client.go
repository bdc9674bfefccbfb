package orderapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/MarcGrol/menucheckout/lib/myhttpclient"
)

//go:generate mockgen -source=client.go -package orderapi -destination client_mock.go Client
type Client interface {
	CreateOrder(c context.Context, accessToken string, req CreateOrderRequest) (CreateOrderResponse, error)
	GetStore(c context.Context, storeUID string) (Store, error)
	ListAddresses(c context.Context, customerUID string, accessToken string) ([]Address, error)
	SaveAddress(c context.Context, customerUID string, accessToken string, address Address) (Address, error)
}

type client struct {
	baseURL    string
	httpClient myhttpclient.HTTPSender
}

func New(baseURL string, httpClient myhttpclient.HTTPSender) Client {
	return &client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// CreateOrder places an order. Account orders carry the access token of the customer; guest orders pass an empty one.
func (cl *client) CreateOrder(c context.Context, accessToken string, req CreateOrderRequest) (CreateOrderResponse, error) {
	opts := []myhttpclient.RequestOption{}
	if accessToken != "" {
		opts = append(opts, myhttpclient.WithBearerToken(accessToken))
	}

	resp := CreateOrderResponse{}
	err := cl.call(c, http.MethodPost, fmt.Sprintf("/stores/%s/orders", url.PathEscape(req.StoreUID)), req, &resp, opts...)
	if err != nil {
		return CreateOrderResponse{}, err
	}
	if resp.Identify == "" {
		return CreateOrderResponse{}, fmt.Errorf("backend did not return an order identifier")
	}
	return resp, nil
}

func (cl *client) GetStore(c context.Context, storeUID string) (Store, error) {
	resp := Store{}
	err := cl.call(c, http.MethodGet, fmt.Sprintf("/stores/%s", url.PathEscape(storeUID)), nil, &resp)
	if err != nil {
		return Store{}, err
	}
	return resp, nil
}

func (cl *client) ListAddresses(c context.Context, customerUID string, accessToken string) ([]Address, error) {
	resp := []Address{}
	err := cl.call(c, http.MethodGet, fmt.Sprintf("/customers/%s/addresses", url.PathEscape(customerUID)), nil, &resp,
		myhttpclient.WithBearerToken(accessToken))
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (cl *client) SaveAddress(c context.Context, customerUID string, accessToken string, address Address) (Address, error) {
	resp := Address{}
	err := cl.call(c, http.MethodPost, fmt.Sprintf("/customers/%s/addresses", url.PathEscape(customerUID)), address, &resp,
		myhttpclient.WithBearerToken(accessToken))
	if err != nil {
		return Address{}, err
	}
	return resp, nil
}

func (cl *client) call(c context.Context, method string, path string, req any, resp any, opts ...myhttpclient.RequestOption) error {
	var body []byte
	if req != nil {
		var err error
		body, err = json.Marshal(req)
		if err != nil {
			return fmt.Errorf("error marshalling request for %s %s: %s", method, path, err)
		}
	}

	status, respBody, err := cl.httpClient.Send(c, method, cl.baseURL+path, body, opts...)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return &APIError{Status: status, Message: extractMessage(respBody)}
	}

	if resp != nil && len(respBody) > 0 {
		err = json.Unmarshal(respBody, resp)
		if err != nil {
			return fmt.Errorf("error parsing response of %s %s: %s", method, path, err)
		}
	}
	return nil
}

func extractMessage(body []byte) string {
	errResp := struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}{}
	if json.Unmarshal(body, &errResp) == nil {
		if errResp.Message != "" {
			return errResp.Message
		}
		if errResp.Error != "" {
			return errResp.Error
		}
	}
	return strings.TrimSpace(string(body))
}
