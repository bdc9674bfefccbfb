package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/MarcGrol/menucheckout/lib/myerrors"
	"github.com/MarcGrol/menucheckout/lib/mylog"
)

func (s *service) getBasket(c context.Context, storeUID string, deviceUID string) (Basket, bool, error) {
	uid := basketUID(storeUID, deviceUID)

	basket, found, err := s.basketStore.Get(c, uid)
	if err != nil {
		return Basket{}, false, myerrors.NewInternalError(err)
	}
	return basket, found, nil
}

func (s *service) addLine(c context.Context, storeUID string, deviceUID string, line Line) (Basket, error) {
	line.ProductUID = strings.TrimSpace(line.ProductUID)
	if line.ProductUID == "" {
		return Basket{}, myerrors.NewInvalidInputError(fmt.Errorf("missing productUid"))
	}
	if line.Quantity <= 0 {
		return Basket{}, myerrors.NewInvalidInputError(fmt.Errorf("quantity must be positive"))
	}
	if line.UnitPriceCents < 0 {
		return Basket{}, myerrors.NewInvalidInputError(fmt.Errorf("price must not be negative"))
	}

	return s.modify(c, storeUID, deviceUID, func(basket *Basket) {
		for i, existing := range basket.Lines {
			if existing.ProductUID == line.ProductUID && existing.Notes == line.Notes {
				basket.Lines[i].Quantity += line.Quantity
				return
			}
		}
		basket.Lines = append(basket.Lines, line)
	})
}

func (s *service) removeLine(c context.Context, storeUID string, deviceUID string, productUID string) (Basket, error) {
	return s.modify(c, storeUID, deviceUID, func(basket *Basket) {
		lines := []Line{}
		for _, l := range basket.Lines {
			if l.ProductUID != productUID {
				lines = append(lines, l)
			}
		}
		basket.Lines = lines
	})
}

func (s *service) setFulfilment(c context.Context, storeUID string, deviceUID string, fulfilment Fulfilment) (Basket, error) {
	return s.modify(c, storeUID, deviceUID, func(basket *Basket) {
		basket.Fulfilment = fulfilment
	})
}

func (s *service) modify(c context.Context, storeUID string, deviceUID string, change func(basket *Basket)) (Basket, error) {
	uid := basketUID(storeUID, deviceUID)
	now := s.nower.Now()

	var basket Basket
	err := s.basketStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent
		var found bool
		var err error
		basket, found, err = s.basketStore.Get(c, uid)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if !found {
			s.logger.Log(c, uid, mylog.SeverityInfo, "Creating new basket %s", uid)
			basket = Basket{
				UID:        uid,
				StoreUID:   storeUID,
				DeviceUID:  deviceUID,
				Fulfilment: FulfilmentPickup,
				Lines:      []Line{},
				CreatedAt:  now,
			}
		}

		change(&basket)
		basket.LastModified = &now

		err = s.basketStore.Put(c, uid, basket)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return Basket{}, err
	}

	return basket, nil
}

func (s *service) clearBasket(c context.Context, storeUID string, deviceUID string) error {
	uid := basketUID(storeUID, deviceUID)

	s.logger.Log(c, uid, mylog.SeverityInfo, "Clearing basket %s", uid)

	err := s.basketStore.Delete(c, uid)
	if err != nil {
		return myerrors.NewInternalError(err)
	}
	return nil
}
