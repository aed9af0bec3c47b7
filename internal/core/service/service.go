package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/niksmo/storebuilder/internal/core/port"
)

var (
	_ port.Authenticator    = (*Service)(nil)
	_ port.Authorizer       = (*Service)(nil)
	_ port.UserManager      = (*Service)(nil)
	_ port.StoreManager     = (*Service)(nil)
	_ port.ProductManager   = (*Service)(nil)
	_ port.OrderManager     = (*Service)(nil)
	_ port.AffiliateManager = (*Service)(nil)
)

// Deps are the outbound ports of [Service]. SalesProc is optional.
type Deps struct {
	Storage     port.Storage
	Tokens      port.TokenIssuer
	Payments    port.PaymentGateway
	Events      port.OrderEventPublisher
	SalesLedger port.SalesLedgerReader
	SalesProc   port.SalesLedgerProcessor
	FrontendURL string
}

type Service struct {
	storage     port.Storage
	tokens      port.TokenIssuer
	payments    port.PaymentGateway
	events      port.OrderEventPublisher
	salesLedger port.SalesLedgerReader
	salesProc   port.SalesLedgerProcessor
	frontendURL string

	now   func() time.Time
	newID func() string
}

func New(d Deps) *Service {
	return &Service{
		storage:     d.Storage,
		tokens:      d.Tokens,
		payments:    d.Payments,
		events:      d.Events,
		salesLedger: d.SalesLedger,
		salesProc:   d.SalesProc,
		frontendURL: d.FrontendURL,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}
}

// Run runs the services components in separate goroutines.
//
// Blocks current goroutine while components is preparing to ready state.
func (s *Service) Run(ctx context.Context, stopFn context.CancelFunc) {
	if s.salesProc == nil {
		return
	}
	var wg sync.WaitGroup
	wg.Add(1)
	go s.salesProc.Run(ctx, stopFn, &wg)
	wg.Wait()
}

func (s *Service) Close() {
	if s.salesProc != nil {
		s.salesProc.Close()
	}
}
