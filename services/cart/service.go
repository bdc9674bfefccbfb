package cart

import (
	"github.com/MarcGrol/menucheckout/lib/mylog"
	"github.com/MarcGrol/menucheckout/lib/mypubsub"
	"github.com/MarcGrol/menucheckout/lib/mystore"
	"github.com/MarcGrol/menucheckout/lib/mytime"
)

type service struct {
	basketStore    mystore.Store[Basket]
	subscriber     mypubsub.PubSub
	publicHostname string
	nower          mytime.Nower
	logger         mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(store mystore.Store[Basket], subscriber mypubsub.PubSub, publicHostname string, nower mytime.Nower, logger mylog.Logger) *service {
	return &service{
		basketStore:    store,
		subscriber:     subscriber,
		publicHostname: publicHostname,
		nower:          nower,
		logger:         logger,
	}
}
