package warmup

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/menucheckout/lib/mycontext"
	"github.com/MarcGrol/menucheckout/lib/myhttp"
	"github.com/MarcGrol/menucheckout/lib/mylog"
	"github.com/MarcGrol/menucheckout/lib/mypublisher"
	"github.com/MarcGrol/menucheckout/lib/myuuid"
	"github.com/MarcGrol/menucheckout/lib/myvault"
)

// probeUID is never written; reading it only opens the connection to the vault.
const probeUID = "warmup"

type webService[T any] struct {
	logger    mylog.Logger
	vault     myvault.VaultReader[T]
	publisher mypublisher.Publisher
	uuider    myuuid.UUIDer
}

// NewService prepares a fresh instance by touching the vault and the event outbox before real traffic arrives.
func NewService[T any](vault myvault.VaultReader[T], publisher mypublisher.Publisher, uuider myuuid.UUIDer) *webService[T] {
	return &webService[T]{
		logger:    mylog.New("warmup"),
		vault:     vault,
		publisher: publisher,
		uuider:    uuider,
	}
}

func (s *webService[T]) RegisterEndpoints(c context.Context, router *mux.Router) error {
	router.HandleFunc("/_ah/warmup", s.warmupPage()).Methods("GET")

	return s.publisher.CreateTopic(c, TopicName)
}

func (s *webService[T]) warmupPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		_, _, err := s.vault.Get(c, probeUID)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		err = s.publisher.Publish(c, TopicName, WarmupKicked{UID: s.uuider.Create()})
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{
			Message: "Successfully processed warmup request",
		})
	}
}
