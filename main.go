package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MarcGrol/menucheckout/lib/myconfig"
	"github.com/MarcGrol/menucheckout/lib/myhttpclient"
	"github.com/MarcGrol/menucheckout/lib/mylog"
	"github.com/MarcGrol/menucheckout/lib/mypublisher"
	"github.com/MarcGrol/menucheckout/lib/mypubsub"
	"github.com/MarcGrol/menucheckout/lib/myqueue"
	"github.com/MarcGrol/menucheckout/lib/mystore"
	"github.com/MarcGrol/menucheckout/lib/mytime"
	"github.com/MarcGrol/menucheckout/lib/myuuid"
	"github.com/MarcGrol/menucheckout/lib/myvault"
	"github.com/MarcGrol/menucheckout/services/cart"
	"github.com/MarcGrol/menucheckout/services/checkout"
	"github.com/MarcGrol/menucheckout/services/magiclink"
	"github.com/MarcGrol/menucheckout/services/notification"
	"github.com/MarcGrol/menucheckout/services/orderapi"
	"github.com/MarcGrol/menucheckout/services/postalcode"
	"github.com/MarcGrol/menucheckout/services/warmup"
)

const basketExpiry = 24 * time.Hour

func main() {
	err := newRootCommand().Execute()
	if err != nil {
		log.Fatalf("Error: %s", err)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "menucheckout",
		Short:        "Checkout backend of the digital menu",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:          "serve",
		Short:        "Start the http server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:          "purge-sessions",
		Short:        "Remove checkout sessions that have expired",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := purgeSessions(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Purged %d expired checkout sessions\n", count)
			return nil
		},
	})

	return cmd
}

func serve(c context.Context) error {
	if c == nil {
		c = context.Background()
	}

	cfg, err := myconfig.Load(viper.New())
	if err != nil {
		return err
	}

	router := mux.NewRouter()

	cleanup, err := registerServices(c, cfg, router)
	if err != nil {
		return err
	}
	defer cleanup()

	return startWebServerBlocking(cfg.Port, router)
}

func registerServices(c context.Context, cfg myconfig.Config, router *mux.Router) (func(), error) {
	cleanups := []func(){}
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	nower := mytime.RealNower{}
	uuider := myuuid.RealUUIDer{}

	pubsub, pubsubCleanup, err := mypubsub.New(c)
	if err != nil {
		return cleanup, fmt.Errorf("error creating pubsub: %s", err)
	}
	cleanups = append(cleanups, pubsubCleanup)

	queue, queueCleanup, err := myqueue.New(c)
	if err != nil {
		return cleanup, fmt.Errorf("error creating queue: %s", err)
	}
	cleanups = append(cleanups, queueCleanup)

	publisher, publisherCleanup, err := mypublisher.New(c, pubsub, queue, nower)
	if err != nil {
		return cleanup, fmt.Errorf("error creating publisher: %s", err)
	}
	cleanups = append(cleanups, publisherCleanup)
	publisher.RegisterEndpoints(c, router)

	basketStore, basketStoreCleanup, err := mystore.New[cart.Basket](c, mystore.WithExpiry(basketExpiry))
	if err != nil {
		return cleanup, fmt.Errorf("error creating basket store: %s", err)
	}
	cleanups = append(cleanups, basketStoreCleanup)

	cartService := cart.NewService(basketStore, pubsub, cfg.PublicHostname, nower)
	err = cartService.RegisterEndpoints(c, router)
	if err != nil {
		return cleanup, fmt.Errorf("error registering cart endpoints: %s", err)
	}

	sessionStore, sessionStoreCleanup, err := mystore.New[checkout.CheckoutSession](c, mystore.WithExpiry(cfg.SessionTTL))
	if err != nil {
		return cleanup, fmt.Errorf("error creating session store: %s", err)
	}
	cleanups = append(cleanups, sessionStoreCleanup)

	guestStore, guestStoreCleanup, err := mystore.New[checkout.GuestRecord](c)
	if err != nil {
		return cleanup, fmt.Errorf("error creating guest store: %s", err)
	}
	cleanups = append(cleanups, guestStoreCleanup)

	vault, vaultCleanup, err := myvault.New[magiclink.Credential](c)
	if err != nil {
		return cleanup, fmt.Errorf("error creating vault: %s", err)
	}
	cleanups = append(cleanups, vaultCleanup)

	httpClient := myhttpclient.New(cfg.HTTPTimeout)

	var postalCodes postalcode.Lookup = postalcode.NewFakeLookup()
	if cfg.PostalCodeBaseURL != "" {
		postalCodes = postalcode.NewViaCEPClient(cfg.PostalCodeBaseURL, httpClient)
	}

	checkoutService := checkout.NewService(checkout.Collaborators{
		Sessions:    checkout.NewSessionStore(sessionStore, nower, uuider, mylog.New("sessions"), cfg.SessionTTL),
		Guests:      guestStore,
		Vault:       vault,
		Carts:       cartService,
		Backend:     orderapi.New(cfg.BackendBaseURL, httpClient),
		PostalCodes: postalCodes,
		LinkClient:  magiclink.NewClient(cfg.BackendBaseURL, httpClient),
		Notifier:    notification.New(cfg.NotificationBaseURL, httpClient),
		Publisher:   publisher,
		Nower:       nower,
		UUIDer:      uuider,
		Handshake: magiclink.Config{
			MaxRetries:    cfg.HandshakeMaxRetries,
			RetryBackoff:  cfg.HandshakeRetryBackoff,
			RedirectDelay: cfg.HandshakeRedirectDelay,
		},
	})
	err = checkoutService.RegisterEndpoints(c, router)
	if err != nil {
		return cleanup, fmt.Errorf("error registering checkout endpoints: %s", err)
	}

	err = warmup.NewService[magiclink.Credential](vault, publisher, uuider).RegisterEndpoints(c, router)
	if err != nil {
		return cleanup, fmt.Errorf("error registering warmup endpoints: %s", err)
	}

	return cleanup, nil
}

func purgeSessions(c context.Context) (int, error) {
	if c == nil {
		c = context.Background()
	}

	cfg, err := myconfig.Load(viper.New())
	if err != nil {
		return 0, err
	}

	store, cleanup, err := mystore.New[checkout.CheckoutSession](c, mystore.WithExpiry(cfg.SessionTTL))
	if err != nil {
		return 0, fmt.Errorf("error creating session store: %s", err)
	}
	defer cleanup()

	sessions := checkout.NewSessionStore(store, mytime.RealNower{}, myuuid.RealUUIDer{}, mylog.New("sessions"), cfg.SessionTTL)

	return sessions.PurgeExpired(c)
}

func startWebServerBlocking(port int, router *mux.Router) error {
	log.Printf("Starting webserver on port %d (try http://localhost:%d)", port, port)
	err := http.ListenAndServe(fmt.Sprintf(":%d", port), router)
	if err != nil {
		return fmt.Errorf("error starting webserver on port %d: %s", port, err)
	}
	return nil
}
