package kafka

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/lovoo/goka"
	"github.com/niksmo/storebuilder/internal/core/domain"
	"github.com/niksmo/storebuilder/internal/core/port"
	"github.com/niksmo/storebuilder/pkg/schema"
)

// A processor is used for composition.
//
// Running and closing the underlying [goka.Processor]
type processor struct {
	opPrefix string
	gp       *goka.Processor
}

func (p *processor) run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	const op = "run"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer wg.Done()

	go p.runProc(ctx, stopFn)

	log.Info("preparing...")
	p.waitForReady(ctx)
	log.Info("running")
}

func (p *processor) runProc(ctx context.Context, stopFn context.CancelFunc) {
	const op = "run"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer stopFn()

	err := p.gp.Run(ctx)
	if err != nil {
		log.Error("stopped", "err", err)
		return
	}
	log.Info("stopped")
}

func (p *processor) waitForReady(ctx context.Context) {
	const op = "waitForReady"
	log := slog.With("op", makeOp(p.opPrefix, op))

	err := p.gp.WaitForReadyContext(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Error("fall down while preparing", "err", err)
	}
}

func (p *processor) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))

	log.Info("closing processor...")
	p.gp.Stop()
	log.Info("processor is closed")
}

// An orderEventCodec used for serde [schema.OrderEventV1]
type orderEventCodec struct {
	serde Serde
}

func (c orderEventCodec) Encode(v any) ([]byte, error) {
	const op = "orderEventCodec.Encode"
	if _, ok := v.(schema.OrderEventV1); !ok {
		return nil, opErr(ErrInvalidValueType, op)
	}
	return c.serde.Encode(v)
}

func (c orderEventCodec) Decode(data []byte) (any, error) {
	const op = "orderEventCodec.Decode"
	var s schema.OrderEventV1
	if err := c.serde.Decode(data, &s); err != nil {
		return nil, opErr(err, op)
	}
	return s, nil
}

// A storeSalesCodec used for serde [schema.StoreSalesV1]
type storeSalesCodec struct {
	serde Serde
}

func (c storeSalesCodec) Encode(v any) ([]byte, error) {
	const op = "storeSalesCodec.Encode"
	if _, ok := v.(schema.StoreSalesV1); !ok {
		return nil, opErr(ErrInvalidValueType, op)
	}
	return c.serde.Encode(v)
}

func (c storeSalesCodec) Decode(data []byte) (any, error) {
	const op = "storeSalesCodec.Decode"
	var s schema.StoreSalesV1
	if err := c.serde.Decode(data, &s); err != nil {
		return nil, opErr(err, op)
	}
	return s, nil
}

// A StoreSalesProcessorConfig used for setup [StoreSalesProcessor].
type StoreSalesProcessorConfig struct {
	SeedBrokers     []string
	OrderEvents     string
	Group           string
	OrderEventSerde Serde
	StoreSalesSerde Serde
	Security        Security
}

var _ port.SalesLedgerProcessor = (*StoreSalesProcessor)(nil)

// A StoreSalesProcessor folds order events from the input stream into the
// per store sales ledger kept in its group table.
type StoreSalesProcessor struct {
	opPrefix string
	proc     processor
}

func NewStoreSalesProcessor(
	config StoreSalesProcessorConfig,
) (*StoreSalesProcessor, error) {
	const op = "NewStoreSalesProcessor"

	applySASLTLS(config.Security)

	p := StoreSalesProcessor{opPrefix: "StoreSalesProcessor"}

	gg := goka.DefineGroup(goka.Group(config.Group),
		goka.Input(
			goka.Stream(config.OrderEvents),
			orderEventCodec{config.OrderEventSerde},
			p.processFn,
		),
		goka.Persist(storeSalesCodec{config.StoreSalesSerde}),
	)

	gp, err := goka.NewProcessor(
		config.SeedBrokers, gg, withNonlogProcOpt(),
	)
	if err != nil {
		return nil, opErr(err, op)
	}

	p.proc = processor{opPrefix: p.opPrefix, gp: gp}
	return &p, nil
}

func (p *StoreSalesProcessor) Run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	p.proc.run(ctx, stopFn, wg)
}

func (p *StoreSalesProcessor) Close() {
	p.proc.close()
}

func (p *StoreSalesProcessor) processFn(ctx goka.Context, msg any) {
	const op = "processFn"
	log := slog.With("op", makeOp(p.opPrefix, op), "storeID", ctx.Key())

	cur, _ := ctx.Value().(schema.StoreSalesV1)
	next, changed, err := foldStoreSales(cur, msg)
	if err != nil {
		log.Error("failed to fold order event", "err", err)
		return
	}
	if !changed {
		return
	}
	ctx.SetValue(next)
	log.Info("sales ledger updated", "paidOrders", next.PaidOrders)
}

// foldStoreSales applies the event to the current table value, which is the
// zero value for a store seen for the first time.
func foldStoreSales(
	cur schema.StoreSalesV1, msg any,
) (schema.StoreSalesV1, bool, error) {
	ev, ok := msg.(schema.OrderEventV1)
	if !ok {
		return cur, false, ErrInvalidValueType
	}
	switch domain.OrderEventType(ev.Type) {
	case domain.OrderEventPaid, domain.OrderEventRefunded:
	default:
		return cur, false, nil
	}
	event, err := orderEventFromSchemaV1(ev)
	if err != nil {
		return cur, false, err
	}

	var sales domain.StoreSales
	if cur.StoreID != "" {
		sales, err = storeSalesFromSchemaV1(cur)
		if err != nil {
			return cur, false, err
		}
	}

	return storeSalesToSchemaV1(sales.Fold(event)), true, nil
}
