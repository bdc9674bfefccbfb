package checkout

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	formcodec "github.com/go-playground/form/v4"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/MarcGrol/menucheckout/lib/myhttp"
	"github.com/MarcGrol/menucheckout/lib/mylog"
	"github.com/MarcGrol/menucheckout/services/cart"
	"github.com/MarcGrol/menucheckout/services/magiclink"
	"github.com/MarcGrol/menucheckout/services/orderapi"
)

func setupWeb(t *testing.T, ctrl *gomock.Controller) (testEnv, *mux.Router) {
	env := setupService(t, ctrl)
	ws := &webService{
		service: env.service,
		logger:  mylog.New("checkout"),
		decoder: formcodec.NewDecoder(),
	}
	router := mux.NewRouter()
	err := ws.RegisterEndpoints(env.c, router)
	assert.NoError(t, err)
	return env, router
}

func send(router *mux.Router, method string, url string, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	request, _ := http.NewRequest(method, url, reader)
	request.Header.Set(myhttp.DeviceUIDHeader, "dev_1")
	if body != "" {
		request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)
	return response
}

func decodeResult(t *testing.T, response *httptest.ResponseRecorder) Result {
	result := Result{}
	err := json.Unmarshal(response.Body.Bytes(), &result)
	assert.NoError(t, err)
	return result
}

func TestCheckoutWeb(t *testing.T) {

	t.Run("Entering without device identity issues one", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router := setupWeb(t, ctrl)

		// when
		request, _ := http.NewRequest(http.MethodGet, "/checkout/store_1", nil)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		cookies := response.Result().Cookies()
		assert.Len(t, cookies, 1)
		assert.Equal(t, myhttp.DeviceUIDCookie, cookies[0].Name)
		result := decodeResult(t, response)
		assert.Equal(t, cookies[0].Value, result.Session.DeviceUID)
		assert.Equal(t, StepAuthentication, result.Session.CurrentStep)
	})

	t.Run("Mutation without device identity", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router := setupWeb(t, ctrl)

		// when
		request, _ := http.NewRequest(http.MethodPost, "/checkout/store_1/guest", nil)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 400, response.Code)
	})

	t.Run("Guest flow", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		env, router := setupWeb(t, ctrl)

		// given
		env.carts.put(basketWith(cart.FulfilmentDelivery))

		// when
		response := send(router, http.MethodPost, "/checkout/store_1/guest", "")

		// then
		assert.Equal(t, 200, response.Code)
		assert.Equal(t, StepCustomerData, decodeResult(t, response).Session.CurrentStep)

		// when
		response = send(router, http.MethodPost, "/checkout/store_1/customer", "name=Ana&phone=11988887777")

		// then
		assert.Equal(t, 200, response.Code)
		assert.Equal(t, StepAddress, decodeResult(t, response).Session.CurrentStep)

		// when
		response = send(router, http.MethodPost, "/checkout/store_1/address",
			"street=Rua+Augusta&number=100&neighborhood=Consola%C3%A7%C3%A3o&city=S%C3%A3o+Paulo&state=SP&zipCode=01305000")

		// then
		assert.Equal(t, 200, response.Code)
		result := decodeResult(t, response)
		assert.Equal(t, StepPayment, result.Session.CurrentStep)
		assert.Equal(t, "01305-000", result.Session.SelectedAddress.ZipCode)
	})

	t.Run("Cash without change is a field error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		env, router := setupWeb(t, ctrl)

		// given
		env.carts.put(basketWith(cart.FulfilmentPickup))
		send(router, http.MethodPost, "/checkout/store_1/guest", "")
		send(router, http.MethodPost, "/checkout/store_1/customer", "name=Ana")

		// when
		response := send(router, http.MethodPost, "/checkout/store_1/payment", "method=cash")

		// then
		assert.Equal(t, 400, response.Code)
		errResp := myhttp.ErrorResponse{}
		assert.NoError(t, json.Unmarshal(response.Body.Bytes(), &errResp))
		assert.Contains(t, response.Body.String(), `"Field": "changeFor"`)

		// when
		response = send(router, http.MethodPost, "/checkout/store_1/advance", "")

		// then
		assert.Equal(t, 409, response.Code)
		assert.Contains(t, response.Body.String(), `"step": "confirmation"`)

		// when
		send(router, http.MethodPost, "/checkout/store_1/payment", "method=cash&changeFor=50.00")
		response = send(router, http.MethodPost, "/checkout/store_1/advance", "")

		// then
		assert.Equal(t, 200, response.Code)
		assert.Equal(t, StepConfirmation, decodeResult(t, response).Session.CurrentStep)
	})

	t.Run("Forcing a step", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router := setupWeb(t, ctrl)

		// when
		response := send(router, http.MethodPost, "/checkout/store_1/goto/payment", "")

		// then
		assert.Equal(t, 200, response.Code)
		result := decodeResult(t, response)
		assert.Equal(t, StepAuthentication, result.Session.CurrentStep)
		assert.NotEmpty(t, result.Blocked)
	})

	t.Run("Postal code lookup", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router := setupWeb(t, ctrl)

		// when
		response := send(router, http.MethodGet, "/checkout/store_1/address/lookup/01001000", "")

		// then
		assert.Equal(t, 200, response.Code)
		prefill := Prefill{}
		assert.NoError(t, json.Unmarshal(response.Body.Bytes(), &prefill))
		assert.True(t, prefill.Found)
		assert.Equal(t, "01001-000", prefill.ZipCode)
	})

	t.Run("Magic link callback with user", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		env, router := setupWeb(t, ctrl)

		// given
		env.links.EXPECT().Profile(gomock.Any(), "access").Return(magiclink.User{UID: "user_1", Name: "Test User", Phone: "11999999999"}, nil)

		// when
		response := send(router, http.MethodGet, "/checkout/store_1/auth/callback?token=access&uid=user_1&name=Test+User&phone=11999999999", "")

		// then
		assert.Equal(t, 200, response.Code)
		result := HandshakeResult{}
		assert.NoError(t, json.Unmarshal(response.Body.Bytes(), &result))
		assert.Equal(t, "/checkout/store_1", result.RedirectURL)
		assert.Equal(t, AuthenticationMethodNewAccount, result.Session.AuthenticationMethod)
	})

	t.Run("Login ignores identity fields of the form", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		env, router := setupWeb(t, ctrl)

		// given
		env.links.EXPECT().Profile(gomock.Any(), "anything").Return(magiclink.User{},
			&magiclink.VerificationError{Code: magiclink.ErrorCodeTokenInvalid, Message: "access token was refused"})

		// when
		response := send(router, http.MethodPost, "/checkout/store_1/login", "accessToken=anything&uid=victim&customerUid=victim&name=Victim")

		// then
		assert.Equal(t, 401, response.Code)
		assert.NotContains(t, response.Body.String(), "existing_account")
		assert.False(t, env.service.getState(env.c, key1).Session.IsAuthenticated)
	})

	t.Run("Magic link callback with expired token", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router := setupWeb(t, ctrl)

		// when
		response := send(router, http.MethodGet, "/checkout/store_1/auth/callback?error=TOKEN_EXPIRED", "")

		// then
		assert.Equal(t, 401, response.Code)
		assert.Contains(t, response.Body.String(), `"State": "expired"`)
		assert.Contains(t, response.Body.String(), `"CanRequestNewLink": true`)
	})

	t.Run("Submit to closed store", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		env, router := setupWeb(t, ctrl)

		// given
		readyAccountCheckout(t, env)
		env.backend.EXPECT().GetStore(gomock.Any(), "store_1").Return(orderapi.Store{IsOpen: false}, nil)

		// when
		response := send(router, http.MethodPost, "/checkout/store_1/submit", "")

		// then
		assert.Equal(t, 409, response.Code)
	})

	t.Run("Cancel checkout", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		env, router := setupWeb(t, ctrl)

		// given
		send(router, http.MethodGet, "/checkout/store_1", "")

		// when
		response := send(router, http.MethodDelete, "/checkout/store_1", "")

		// then
		assert.Equal(t, 200, response.Code)
		_, found, _ := env.sessions.Get(env.c, key1.String())
		assert.False(t, found)
	})
}
