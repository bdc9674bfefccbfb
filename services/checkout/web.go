package checkout

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	formcodec "github.com/go-playground/form/v4"
	"github.com/gorilla/mux"

	"github.com/MarcGrol/menucheckout/lib/mycontext"
	"github.com/MarcGrol/menucheckout/lib/myerrors"
	"github.com/MarcGrol/menucheckout/lib/myhttp"
	"github.com/MarcGrol/menucheckout/lib/mylog"
	"github.com/MarcGrol/menucheckout/services/magiclink"
)

type webService struct {
	service *service
	logger  mylog.Logger
	decoder *formcodec.Decoder
}

// Use dependency injection to isolate the infrastructure and ease testing
func NewService(deps Collaborators) *webService {
	logger := mylog.New("checkout")
	return &webService{
		service: newService(deps, logger),
		logger:  logger,
		decoder: formcodec.NewDecoder(),
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	router.HandleFunc("/tasks/purge-sessions", s.purgeExpiredPage()).Methods("GET")

	router.HandleFunc("/checkout/{storeUID}", s.getStatePage()).Methods("GET")
	router.HandleFunc("/checkout/{storeUID}", s.cancelPage()).Methods("DELETE")
	router.HandleFunc("/checkout/{storeUID}/advance", s.advancePage()).Methods("POST")
	router.HandleFunc("/checkout/{storeUID}/goto/{step}", s.goToPage()).Methods("POST")
	router.HandleFunc("/checkout/{storeUID}/reset", s.resetPage()).Methods("POST")

	router.HandleFunc("/checkout/{storeUID}/guest", s.continueAsGuestPage()).Methods("POST")
	router.HandleFunc("/checkout/{storeUID}/login", s.loginPage()).Methods("POST")
	router.HandleFunc("/checkout/{storeUID}/customer", s.setCustomerDataPage()).Methods("POST")

	router.HandleFunc("/checkout/{storeUID}/auth/link", s.requestLinkPage()).Methods("POST")
	router.HandleFunc("/checkout/{storeUID}/auth/callback", s.callbackPage()).Methods("GET")
	router.HandleFunc("/checkout/{storeUID}/auth/verify/{token}", s.verifyPage()).Methods("GET")
	router.HandleFunc("/checkout/{storeUID}/auth/retry", s.retryPage()).Methods("POST")
	router.HandleFunc("/checkout/{storeUID}/auth/restart", s.restartPage()).Methods("POST")
	router.HandleFunc("/checkout/{storeUID}/auth", s.abandonHandshakePage()).Methods("DELETE")

	router.HandleFunc("/checkout/{storeUID}/address", s.addressOptionsPage()).Methods("GET")
	router.HandleFunc("/checkout/{storeUID}/address/lookup/{postalCode}", s.lookupPostalCodePage()).Methods("GET")
	router.HandleFunc("/checkout/{storeUID}/address", s.setNewAddressPage()).Methods("POST")
	router.HandleFunc("/checkout/{storeUID}/address/{addressUID}", s.selectSavedAddressPage()).Methods("POST")

	router.HandleFunc("/checkout/{storeUID}/payment", s.setPaymentPage()).Methods("POST")
	router.HandleFunc("/checkout/{storeUID}/notes", s.setNotesPage()).Methods("POST")
	router.HandleFunc("/checkout/{storeUID}/submit", s.submitPage()).Methods("POST")

	err := s.service.CreateTopics(c)
	if err != nil {
		return err
	}

	return nil
}

// purgeExpiredPage is called by cron, which only supports GET.
func (s *webService) purgeExpiredPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		count, err := s.service.sessions.PurgeExpired(c)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{
			Message: fmt.Sprintf("Purged %d expired checkout sessions", count),
		})
	}
}

func (s *webService) getStatePage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		key, err := s.sessionKey(w, r, true)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, s.service.getState(c, key))
	}
}

func (s *webService) advancePage() http.HandlerFunc {
	return s.mutation(func(c context.Context, key SessionKey, r *http.Request) (any, error) {
		return s.service.advance(c, key)
	})
}

func (s *webService) goToPage() http.HandlerFunc {
	return s.mutation(func(c context.Context, key SessionKey, r *http.Request) (any, error) {
		return s.service.goTo(c, key, Step(mux.Vars(r)["step"]))
	})
}

func (s *webService) resetPage() http.HandlerFunc {
	return s.mutation(func(c context.Context, key SessionKey, r *http.Request) (any, error) {
		return s.service.reset(c, key)
	})
}

func (s *webService) continueAsGuestPage() http.HandlerFunc {
	return s.mutation(func(c context.Context, key SessionKey, r *http.Request) (any, error) {
		return s.service.continueAsGuest(c, key)
	})
}

type loginForm struct {
	AccessToken string `form:"accessToken"`
}

func (s *webService) loginPage() http.HandlerFunc {
	return s.mutation(func(c context.Context, key SessionKey, r *http.Request) (any, error) {
		login := loginForm{}
		err := s.decode(r, &login)
		if err != nil {
			return nil, err
		}
		return s.service.login(c, key, login.AccessToken)
	})
}

func (s *webService) setCustomerDataPage() http.HandlerFunc {
	return s.mutation(func(c context.Context, key SessionKey, r *http.Request) (any, error) {
		data := CustomerData{}
		err := s.decode(r, &data)
		if err != nil {
			return nil, err
		}
		return s.service.setCustomerData(c, key, data)
	})
}

func (s *webService) requestLinkPage() http.HandlerFunc {
	return s.mutation(func(c context.Context, key SessionKey, r *http.Request) (any, error) {
		err := r.ParseForm()
		if err != nil {
			return nil, myerrors.NewInvalidInputError(err)
		}
		callbackURL := fmt.Sprintf("%s/checkout/%s/auth/callback", myhttp.HostnameWithScheme(r), url.PathEscape(key.StoreUID))
		return s.service.requestLink(c, key, r.FormValue("phone"), r.FormValue("email"), callbackURL)
	})
}

// callbackPage is where the magic link lands. It carries an error code, a token to verify, or an
// access token together with the user it claims to belong to; that claim is checked with the backend.
func (s *webService) callbackPage() http.HandlerFunc {
	return s.mutation(func(c context.Context, key SessionKey, r *http.Request) (any, error) {
		q := r.URL.Query()
		entry := magiclink.Entry{
			ErrorCode: magiclink.ErrorCode(q.Get("error")),
			Message:   q.Get("message"),
			Token:     q.Get("token"),
		}
		if q.Get("uid") != "" || q.Get("customerUid") != "" {
			entry.User = &magiclink.User{
				UID:         q.Get("uid"),
				CustomerUID: q.Get("customerUid"),
				Name:        q.Get("name"),
				Phone:       q.Get("phone"),
				Email:       q.Get("email"),
			}
		}
		return s.service.handleCallback(c, key, entry)
	})
}

func (s *webService) verifyPage() http.HandlerFunc {
	return s.mutation(func(c context.Context, key SessionKey, r *http.Request) (any, error) {
		return s.service.handleCallback(c, key, magiclink.Entry{Token: mux.Vars(r)["token"]})
	})
}

func (s *webService) retryPage() http.HandlerFunc {
	return s.mutation(func(c context.Context, key SessionKey, r *http.Request) (any, error) {
		return s.service.retryHandshake(c, key)
	})
}

func (s *webService) restartPage() http.HandlerFunc {
	return s.mutation(func(c context.Context, key SessionKey, r *http.Request) (any, error) {
		return s.service.restartHandshake(c, key)
	})
}

func (s *webService) abandonHandshakePage() http.HandlerFunc {
	return s.mutation(func(c context.Context, key SessionKey, r *http.Request) (any, error) {
		s.service.abandonHandshake(c, key)
		return myhttp.SuccessResponse{Message: "Handshake abandoned"}, nil
	})
}

func (s *webService) addressOptionsPage() http.HandlerFunc {
	return s.mutation(func(c context.Context, key SessionKey, r *http.Request) (any, error) {
		return s.service.addressOptions(c, key)
	})
}

func (s *webService) lookupPostalCodePage() http.HandlerFunc {
	return s.mutation(func(c context.Context, key SessionKey, r *http.Request) (any, error) {
		return s.service.lookupPostalCode(c, key, mux.Vars(r)["postalCode"])
	})
}

func (s *webService) setNewAddressPage() http.HandlerFunc {
	return s.mutation(func(c context.Context, key SessionKey, r *http.Request) (any, error) {
		address := Address{}
		err := s.decode(r, &address)
		if err != nil {
			return nil, err
		}
		return s.service.setNewAddress(c, key, address)
	})
}

func (s *webService) selectSavedAddressPage() http.HandlerFunc {
	return s.mutation(func(c context.Context, key SessionKey, r *http.Request) (any, error) {
		return s.service.selectSavedAddress(c, key, mux.Vars(r)["addressUID"])
	})
}

func (s *webService) setPaymentPage() http.HandlerFunc {
	return s.mutation(func(c context.Context, key SessionKey, r *http.Request) (any, error) {
		selection := PaymentSelection{}
		err := s.decode(r, &selection)
		if err != nil {
			return nil, err
		}
		return s.service.setPayment(c, key, selection)
	})
}

func (s *webService) setNotesPage() http.HandlerFunc {
	return s.mutation(func(c context.Context, key SessionKey, r *http.Request) (any, error) {
		err := r.ParseForm()
		if err != nil {
			return nil, myerrors.NewInvalidInputError(err)
		}
		return s.service.setOrderNotes(c, key, r.FormValue("notes"))
	})
}

func (s *webService) submitPage() http.HandlerFunc {
	return s.mutation(func(c context.Context, key SessionKey, r *http.Request) (any, error) {
		return s.service.submit(c, key)
	})
}

func (s *webService) cancelPage() http.HandlerFunc {
	return s.mutation(func(c context.Context, key SessionKey, r *http.Request) (any, error) {
		s.service.cancel(c, key)
		return myhttp.SuccessResponse{Message: "Checkout cancelled"}, nil
	})
}

// mutation wraps an operation on the checkout of an already identified device.
func (s *webService) mutation(operation func(c context.Context, key SessionKey, r *http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		key, err := s.sessionKey(w, r, false)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		resp, err := operation(c, key, r)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, resp)
	}
}

func (s *webService) decode(r *http.Request, target any) error {
	err := r.ParseForm()
	if err != nil {
		return myerrors.NewInvalidInputError(err)
	}
	err = s.decoder.Decode(target, r.Form)
	if err != nil {
		return myerrors.NewInvalidInputError(err)
	}
	return nil
}

// sessionKey identifies the checkout of a request. On entry a device without identity gets one issued.
func (s *webService) sessionKey(w http.ResponseWriter, r *http.Request, issue bool) (SessionKey, error) {
	storeUID := mux.Vars(r)["storeUID"]
	if storeUID == "" {
		return SessionKey{}, myerrors.NewInvalidInputError(fmt.Errorf("missing storeUID"))
	}

	deviceUID := myhttp.DeviceUID(r)
	if deviceUID == "" && issue {
		deviceUID = s.service.uuider.Create()
		http.SetCookie(w, &http.Cookie{
			Name:     myhttp.DeviceUIDCookie,
			Value:    deviceUID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   365 * 24 * 60 * 60,
		})
	}
	if deviceUID == "" {
		return SessionKey{}, myerrors.NewInvalidInputError(fmt.Errorf("missing device identification"))
	}

	return SessionKey{StoreUID: storeUID, DeviceUID: deviceUID}, nil
}
