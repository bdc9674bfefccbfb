package cart

import (
	"context"
	"fmt"
	"net/http"

	formcodec "github.com/go-playground/form/v4"
	"github.com/gorilla/mux"

	"github.com/MarcGrol/menucheckout/lib/mycontext"
	"github.com/MarcGrol/menucheckout/lib/myerrors"
	"github.com/MarcGrol/menucheckout/lib/myhttp"
	"github.com/MarcGrol/menucheckout/lib/mylog"
	"github.com/MarcGrol/menucheckout/lib/mypubsub"
	"github.com/MarcGrol/menucheckout/lib/mystore"
	"github.com/MarcGrol/menucheckout/lib/mytime"
	"github.com/MarcGrol/menucheckout/services/checkout/checkoutevents"
)

type webService struct {
	service *service
	logger  mylog.Logger
	decoder *formcodec.Decoder
}

func NewService(store mystore.Store[Basket], subscriber mypubsub.PubSub, publicHostname string, nower mytime.Nower) *webService {
	logger := mylog.New("cart")
	return &webService{
		service: newService(store, subscriber, publicHostname, nower, logger),
		logger:  logger,
		decoder: formcodec.NewDecoder(),
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	router.HandleFunc("/cart/event", s.handleEventPage()).Methods("POST")

	router.HandleFunc("/cart/{storeUID}", s.getBasketPage()).Methods("GET")
	router.HandleFunc("/cart/{storeUID}", s.clearBasketPage()).Methods("DELETE")
	router.HandleFunc("/cart/{storeUID}/line", s.addLinePage()).Methods("POST")
	router.HandleFunc("/cart/{storeUID}/line/{productUID}", s.removeLinePage()).Methods("DELETE")
	router.HandleFunc("/cart/{storeUID}/fulfilment", s.setFulfilmentPage()).Methods("POST")

	err := s.service.Subscribe(c)
	if err != nil {
		return err
	}

	return nil
}

// GetBasket serves the checkout, which reads but never writes the basket.
func (s *webService) GetBasket(c context.Context, storeUID string, deviceUID string) (Basket, bool, error) {
	return s.service.getBasket(c, storeUID, deviceUID)
}

func (s *webService) ClearBasket(c context.Context, storeUID string, deviceUID string) error {
	return s.service.clearBasket(c, storeUID, deviceUID)
}

func (s *webService) getBasketPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		storeUID, deviceUID, err := identify(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		basket, found, err := s.service.getBasket(c, storeUID, deviceUID)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}
		if !found {
			errorWriter.WriteError(c, w, 3, myerrors.NewNotFoundError(fmt.Errorf("no basket for store %s", storeUID)))
			return
		}

		errorWriter.Write(c, w, http.StatusOK, basket)
	}
}

func (s *webService) addLinePage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		storeUID, deviceUID, err := identify(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		err = r.ParseForm()
		if err != nil {
			errorWriter.WriteError(c, w, 2, myerrors.NewInvalidInputError(err))
			return
		}

		line := Line{}
		err = s.decoder.Decode(&line, r.Form)
		if err != nil {
			errorWriter.WriteError(c, w, 3, myerrors.NewInvalidInputError(err))
			return
		}

		basket, err := s.service.addLine(c, storeUID, deviceUID, line)
		if err != nil {
			errorWriter.WriteError(c, w, 4, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, basket)
	}
}

func (s *webService) removeLinePage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		storeUID, deviceUID, err := identify(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		basket, err := s.service.removeLine(c, storeUID, deviceUID, mux.Vars(r)["productUID"])
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, basket)
	}
}

func (s *webService) setFulfilmentPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		storeUID, deviceUID, err := identify(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		fulfilment, err := ParseFulfilment(r.FormValue("fulfilment"))
		if err != nil {
			errorWriter.WriteError(c, w, 2, myerrors.NewInvalidInputError(err))
			return
		}

		basket, err := s.service.setFulfilment(c, storeUID, deviceUID, fulfilment)
		if err != nil {
			errorWriter.WriteError(c, w, 3, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, basket)
	}
}

func (s *webService) clearBasketPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		storeUID, deviceUID, err := identify(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		err = s.service.clearBasket(c, storeUID, deviceUID)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{
			Message: "Basket cleared",
		})
	}
}

func (s *webService) handleEventPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		err := checkoutevents.DispatchEvent(c, r.Body, s.service)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{
			Message: "Successfully processed event",
		})
	}
}

func identify(r *http.Request) (string, string, error) {
	storeUID := mux.Vars(r)["storeUID"]
	if storeUID == "" {
		return "", "", myerrors.NewInvalidInputError(fmt.Errorf("missing storeUID"))
	}
	deviceUID := myhttp.DeviceUID(r)
	if deviceUID == "" {
		return "", "", myerrors.NewInvalidInputError(fmt.Errorf("missing device identification"))
	}
	return storeUID, deviceUID, nil
}
