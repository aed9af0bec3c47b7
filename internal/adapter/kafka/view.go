package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lovoo/goka"
	"github.com/niksmo/storebuilder/internal/core/domain"
	"github.com/niksmo/storebuilder/internal/core/port"
	"github.com/niksmo/storebuilder/pkg/schema"
)

// A StoreSalesViewConfig used for setup [StoreSalesView].
//
// All fields but Security are required.
type StoreSalesViewConfig struct {
	SeedBrokers []string
	Group       string
	Serde       Serde
	Security    Security
}

var _ port.SalesLedgerReader = (*StoreSalesView)(nil)

// A StoreSalesView serves the group table of [StoreSalesProcessor].
type StoreSalesView struct {
	gv *goka.View
}

func NewStoreSalesView(config StoreSalesViewConfig) (*StoreSalesView, error) {
	const op = "NewStoreSalesView"

	applySASLTLS(config.Security)

	gv, err := goka.NewView(
		config.SeedBrokers,
		goka.GroupTable(goka.Group(config.Group)),
		storeSalesCodec{config.Serde},
	)
	if err != nil {
		return nil, opErr(err, op)
	}
	return &StoreSalesView{gv}, nil
}

func (v *StoreSalesView) Run(ctx context.Context) {
	const op = "StoreSalesView.Run"
	log := slog.With("op", op)

	log.Info("running")
	if err := v.gv.Run(ctx); err != nil {
		log.Error("unexpected fail on run", "err", err)
		return
	}
	log.Info("stopped")
}

// StoreSales returns the ledger of the store. A store without paid or
// refunded orders has an empty ledger.
func (v *StoreSalesView) StoreSales(
	_ context.Context, storeID string,
) (domain.StoreSales, error) {
	const op = "StoreSalesView.StoreSales"

	if !v.gv.Recovered() {
		return domain.StoreSales{}, opErr(domain.ErrUnavailable, op)
	}

	val, err := v.gv.Get(storeID)
	if err != nil {
		return domain.StoreSales{}, opErr(err, op)
	}
	if val == nil {
		return domain.StoreSales{StoreID: storeID}, nil
	}

	s, ok := val.(schema.StoreSalesV1)
	if !ok {
		return domain.StoreSales{}, opErr(
			fmt.Errorf("%w: %T", ErrInvalidValueType, val), op,
		)
	}

	sales, err := storeSalesFromSchemaV1(s)
	if err != nil {
		return domain.StoreSales{}, opErr(err, op)
	}
	return sales, nil
}

var _ port.SalesLedgerReader = NopSalesLedger{}

// NopSalesLedger is used when no broker is configured.
type NopSalesLedger struct{}

func (NopSalesLedger) StoreSales(context.Context, string) (domain.StoreSales, error) {
	return domain.StoreSales{}, fmt.Errorf(
		"NopSalesLedger.StoreSales: %w", domain.ErrUnavailable,
	)
}
