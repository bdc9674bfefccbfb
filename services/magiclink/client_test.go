package magiclink

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/MarcGrol/menucheckout/lib/myhttpclient"
)

func TestClient(t *testing.T) {

	t.Run("Request link", func(t *testing.T) {
		// given
		var received LinkRequest
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/auth/magic-link", r.URL.Path)
			json.NewDecoder(r.Body).Decode(&received)
			w.WriteHeader(http.StatusNoContent)
		}))
		defer ts.Close()

		// when
		err := NewClient(ts.URL, myhttpclient.New(time.Second)).RequestLink(context.TODO(), LinkRequest{
			StoreUID:            "store_1",
			Phone:               "81999990000",
			CodeChallenge:       "challenge",
			CodeChallengeMethod: "S256",
		})

		// then
		assert.NoError(t, err)
		assert.Equal(t, "challenge", received.CodeChallenge)
	})

	t.Run("Verify success", func(t *testing.T) {
		// given
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req := verifyRequest{}
			json.NewDecoder(r.Body).Decode(&req)
			assert.Equal(t, "tok", req.Token)
			assert.Equal(t, "verifier", req.CodeVerifier)
			w.Write([]byte(`{"accessToken":"access","user":{"uid":"user_1","customerUid":"cust_1","name":"Ana"}}`))
		}))
		defer ts.Close()

		// when
		resp, err := NewClient(ts.URL, myhttpclient.New(time.Second)).Verify(context.TODO(), "tok", "verifier")

		// then
		assert.NoError(t, err)
		assert.Equal(t, "access", resp.AccessToken)
		assert.Equal(t, "cust_1", resp.User.CustomerUID)
	})

	t.Run("Verify typed refusal", func(t *testing.T) {
		// given
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusGone)
			w.Write([]byte(`{"code":"TOKEN_EXPIRED","message":"link expired"}`))
		}))
		defer ts.Close()

		// when
		_, err := NewClient(ts.URL, myhttpclient.New(time.Second)).Verify(context.TODO(), "tok", "verifier")

		// then
		verr, ok := err.(*VerificationError)
		assert.True(t, ok)
		assert.Equal(t, ErrorCodeTokenExpired, verr.Code)
	})

	t.Run("Verify untyped refusal", func(t *testing.T) {
		// given
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer ts.Close()

		// when
		_, err := NewClient(ts.URL, myhttpclient.New(time.Second)).Verify(context.TODO(), "tok", "verifier")

		// then
		verr, ok := err.(*VerificationError)
		assert.True(t, ok)
		assert.Equal(t, ErrorCodeVerificationFailed, verr.Code)
	})

	t.Run("Verify server failure", func(t *testing.T) {
		// given
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer ts.Close()

		// when
		_, err := NewClient(ts.URL, myhttpclient.New(time.Second)).Verify(context.TODO(), "tok", "verifier")

		// then
		assert.Error(t, err)
		_, ok := err.(*VerificationError)
		assert.False(t, ok)
	})

	t.Run("Profile sends the access token", func(t *testing.T) {
		// given
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/auth/me", r.URL.Path)
			assert.Equal(t, "Bearer access", r.Header.Get("Authorization"))
			w.Write([]byte(`{"uid":"user_1","customerUid":"cust_1","name":"Ana"}`))
		}))
		defer ts.Close()

		// when
		user, err := NewClient(ts.URL, myhttpclient.New(time.Second)).Profile(context.TODO(), "access")

		// then
		assert.NoError(t, err)
		assert.Equal(t, "cust_1", user.CustomerUID)
	})

	t.Run("Profile of a refused token", func(t *testing.T) {
		// given
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer ts.Close()

		// when
		_, err := NewClient(ts.URL, myhttpclient.New(time.Second)).Profile(context.TODO(), "anything")

		// then
		verr, ok := err.(*VerificationError)
		assert.True(t, ok)
		assert.Equal(t, ErrorCodeTokenInvalid, verr.Code)
	})
}
