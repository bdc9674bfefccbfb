package orderapi

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

func TestOrderAPIClient(t *testing.T) {

	t.Run("Create order returns the backend identifier", func(t *testing.T) {
		// given
		mux := http.NewServeMux()
		ts := httptest.NewServer(mux)
		defer ts.Close()

		var received CreateOrderRequest
		mux.HandleFunc("POST /stores/store_1/orders", func(w http.ResponseWriter, r *http.Request) {
			assert.Empty(t, r.Header.Get("Authorization"))
			json.NewDecoder(r.Body).Decode(&received)
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"identify":"order_42"}`))
		})
		sut := New(ts.URL+"/", myhttpclient.New(time.Second))

		// when
		resp, err := sut.CreateOrder(context.TODO(), "", CreateOrderRequest{
			StoreUID:   "store_1",
			Customer:   Customer{Name: "Ana", Guest: true},
			Payment:    Payment{Method: "pix"},
			Lines:      []OrderLine{{ProductUID: "p1", Name: "Pastel", Quantity: 2, UnitPriceCents: 800}},
			TotalCents: 1600,
		})

		// then
		assert.NoError(t, err)
		assert.Equal(t, "order_42", resp.Identify)
		assert.Equal(t, "Ana", received.Customer.Name)
		assert.Equal(t, int64(1600), received.TotalCents)
	})

	t.Run("Create account order carries the access token", func(t *testing.T) {
		// given
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer access", r.Header.Get("Authorization"))
			w.Write([]byte(`{"identify":"order_43"}`))
		}))
		defer ts.Close()

		// when
		resp, err := New(ts.URL, myhttpclient.New(time.Second)).CreateOrder(context.TODO(), "access", CreateOrderRequest{
			StoreUID: "store_1",
			Customer: Customer{UID: "cust_1", Name: "Ana"},
		})

		// then
		assert.NoError(t, err)
		assert.Equal(t, "order_43", resp.Identify)
	})

	t.Run("Create order without identifier fails", func(t *testing.T) {
		// given
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		}))
		defer ts.Close()

		// when
		_, err := New(ts.URL, myhttpclient.New(time.Second)).CreateOrder(context.TODO(), "", CreateOrderRequest{StoreUID: "store_1"})

		// then
		assert.Error(t, err)
	})

	t.Run("Create order rejected by backend", func(t *testing.T) {
		// given
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"message":"product p1 sold out"}`))
		}))
		defer ts.Close()

		// when
		_, err := New(ts.URL, myhttpclient.New(time.Second)).CreateOrder(context.TODO(), "", CreateOrderRequest{StoreUID: "store_1"})

		// then
		apiErr, ok := err.(*APIError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
		assert.Equal(t, "product p1 sold out", apiErr.Message)
	})

	t.Run("Get store", func(t *testing.T) {
		// given
		mux := http.NewServeMux()
		ts := httptest.NewServer(mux)
		defer ts.Close()
		mux.HandleFunc("GET /stores/store_1", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"uid":"store_1","name":"Pastelaria","isOpen":true}`))
		})

		// when
		store, err := New(ts.URL, myhttpclient.New(time.Second)).GetStore(context.TODO(), "store_1")

		// then
		assert.NoError(t, err)
		assert.Equal(t, Store{UID: "store_1", Name: "Pastelaria", IsOpen: true}, store)
	})

	t.Run("List addresses sends the bearer token", func(t *testing.T) {
		// given
		mux := http.NewServeMux()
		ts := httptest.NewServer(mux)
		defer ts.Close()
		mux.HandleFunc("GET /customers/cust_1/addresses", func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer tok" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Write([]byte(`[{"uid":"addr_1","street":"Rua A","number":"10","neighborhood":"Centro","city":"Recife","state":"PE"}]`))
		})

		// when
		addresses, err := New(ts.URL, myhttpclient.New(time.Second)).ListAddresses(context.TODO(), "cust_1", "tok")

		// then
		assert.NoError(t, err)
		assert.Len(t, addresses, 1)
		assert.Equal(t, "addr_1", addresses[0].UID)
	})

	t.Run("Save address", func(t *testing.T) {
		// given
		mux := http.NewServeMux()
		ts := httptest.NewServer(mux)
		defer ts.Close()
		mux.HandleFunc("POST /customers/cust_1/addresses", func(w http.ResponseWriter, r *http.Request) {
			address := Address{}
			json.NewDecoder(r.Body).Decode(&address)
			address.UID = "addr_2"
			json.NewEncoder(w).Encode(address)
		})

		// when
		saved, err := New(ts.URL, myhttpclient.New(time.Second)).SaveAddress(context.TODO(), "cust_1", "tok", Address{Street: "Rua B"})

		// then
		assert.NoError(t, err)
		assert.Equal(t, "addr_2", saved.UID)
		assert.Equal(t, "Rua B", saved.Street)
	})
}
