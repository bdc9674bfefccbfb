package magiclink

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/MarcGrol/menucheckout/lib/myhttpclient"
)

//go:generate mockgen -source=client.go -package magiclink -destination client_mock.go Client
type Client interface {
	RequestLink(c context.Context, req LinkRequest) error
	Verify(c context.Context, token string, codeVerifier string) (VerifyResponse, error)
	Profile(c context.Context, accessToken string) (User, error)
}

type VerifyResponse struct {
	AccessToken string `json:"accessToken"`
	User        User   `json:"user"`
}

type verifyRequest struct {
	Token        string `json:"token"`
	CodeVerifier string `json:"codeVerifier,omitempty"`
}

type errorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

type client struct {
	baseURL    string
	httpClient myhttpclient.HTTPSender
}

func NewClient(baseURL string, httpClient myhttpclient.HTTPSender) Client {
	return &client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (cl *client) RequestLink(c context.Context, req LinkRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("error marshalling link request: %s", err)
	}

	status, respBody, err := cl.httpClient.Send(c, http.MethodPost, cl.baseURL+"/auth/magic-link", body)
	if err != nil {
		return fmt.Errorf("error requesting magic link: %w", err)
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("error requesting magic link: http-status %d: %s", status, strings.TrimSpace(string(respBody)))
	}
	return nil
}

func (cl *client) Verify(c context.Context, token string, codeVerifier string) (VerifyResponse, error) {
	c, span := otel.Tracer("magiclink").Start(c, "magiclink.verify")
	defer span.End()

	resp, err := cl.verify(c, token, codeVerifier)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return VerifyResponse{}, err
	}
	span.SetAttributes(attribute.Bool("magiclink.customer", resp.User.CustomerUID != ""))
	return resp, nil
}

func (cl *client) verify(c context.Context, token string, codeVerifier string) (VerifyResponse, error) {
	body, err := json.Marshal(verifyRequest{Token: token, CodeVerifier: codeVerifier})
	if err != nil {
		return VerifyResponse{}, fmt.Errorf("error marshalling verify request: %s", err)
	}

	status, respBody, err := cl.httpClient.Send(c, http.MethodPost, cl.baseURL+"/auth/magic-link/verify", body)
	if err != nil {
		return VerifyResponse{}, fmt.Errorf("error verifying magic link: %w", err)
	}

	if status >= 400 && status < 500 {
		errResp := errorResponse{}
		_ = json.Unmarshal(respBody, &errResp)
		if errResp.Code == "" {
			errResp.Code = ErrorCodeVerificationFailed
		}
		if errResp.Message == "" {
			errResp.Message = http.StatusText(status)
		}
		return VerifyResponse{}, &VerificationError{Code: errResp.Code, Message: errResp.Message}
	}
	if status != http.StatusOK {
		return VerifyResponse{}, fmt.Errorf("error verifying magic link: http-status %d", status)
	}

	resp := VerifyResponse{}
	err = json.Unmarshal(respBody, &resp)
	if err != nil {
		return VerifyResponse{}, fmt.Errorf("error parsing verify response: %s", err)
	}
	if resp.AccessToken == "" {
		return VerifyResponse{}, &VerificationError{Code: ErrorCodeVerificationFailed, Message: "no access token issued"}
	}
	return resp, nil
}

// Profile asks the backend who owns accessToken. A refused token is reported as ErrorCodeTokenInvalid.
func (cl *client) Profile(c context.Context, accessToken string) (User, error) {
	c, span := otel.Tracer("magiclink").Start(c, "magiclink.profile")
	defer span.End()

	status, respBody, err := cl.httpClient.Send(c, http.MethodGet, cl.baseURL+"/auth/me", nil, myhttpclient.WithBearerToken(accessToken))
	if err != nil {
		span.RecordError(err)
		return User{}, fmt.Errorf("error fetching profile: %w", err)
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return User{}, &VerificationError{Code: ErrorCodeTokenInvalid, Message: "access token was refused"}
	}
	if status != http.StatusOK {
		return User{}, fmt.Errorf("error fetching profile: http-status %d", status)
	}

	user := User{}
	err = json.Unmarshal(respBody, &user)
	if err != nil {
		return User{}, fmt.Errorf("error parsing profile: %s", err)
	}
	if user.UID == "" {
		return User{}, &VerificationError{Code: ErrorCodeTokenInvalid, Message: "no user behind access token"}
	}
	return user, nil
}
