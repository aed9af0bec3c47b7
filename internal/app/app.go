package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/lovoo/goka"
	"github.com/niksmo/storebuilder/config"
	"github.com/niksmo/storebuilder/internal/adapter"
	"github.com/niksmo/storebuilder/internal/adapter/httphandler"
	"github.com/niksmo/storebuilder/internal/adapter/kafka"
	"github.com/niksmo/storebuilder/internal/adapter/metrics"
	"github.com/niksmo/storebuilder/internal/adapter/payfast"
	"github.com/niksmo/storebuilder/internal/adapter/storage"
	"github.com/niksmo/storebuilder/internal/adapter/token"
	"github.com/niksmo/storebuilder/internal/core/port"
	"github.com/niksmo/storebuilder/internal/core/service"
	"github.com/niksmo/storebuilder/pkg/schema"
	"github.com/shopspring/decimal"
	"github.com/twmb/franz-go/pkg/sr"
)

const Version = "1.0.0"

type serdes struct {
	orderEvent schema.Serde
	storeSales schema.Serde
}

type broker struct {
	serdes   serdes
	producer *kafka.OrderEventsProducer
	view     *kafka.StoreSalesView
}

type outbound struct {
	db          storage.SQLDB
	tokens      port.TokenIssuer
	payments    port.PaymentGateway
	events      port.OrderEventPublisher
	salesLedger port.SalesLedgerReader
	salesProc   port.SalesLedgerProcessor
}

type App struct {
	ctx        context.Context
	cfg        config.Config
	broker     broker
	outbound   outbound
	service    *service.Service
	limiter    *httphandler.RateLimiter
	httpServer httphandler.HTTPServer
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg}

	app.initLogger()
	app.initEncoding()
	app.initStorage()
	app.initAuthAndPayments()
	if cfg.Broker.Enabled() {
		app.initSerdes()
		app.initBroker()
	} else {
		slog.Warn("no seed brokers configured, order events are dropped")
		app.outbound.events = kafka.NopPublisher{}
		app.outbound.salesLedger = kafka.NopSalesLedger{}
	}
	app.initCoreService()
	app.initInboundAdapters()

	return app
}

func (app *App) initLogger() {
	opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

// initEncoding makes nested money amounts JSON numbers, as the top level
// DTO amounts are.
func (app *App) initEncoding() {
	decimal.MarshalJSONWithoutQuotes = true
}

func (app *App) initStorage() {
	const op = "App.initStorage"

	db, err := storage.NewSQLDB(app.ctx, app.cfg.SQLDB)
	if err != nil {
		app.fallDown(op, err)
	}
	app.outbound.db = db
}

func (app *App) initAuthAndPayments() {
	const op = "App.initAuthAndPayments"

	jwt, err := token.NewJWT(app.cfg.JWT.Secret, app.cfg.JWT.TTL)
	if err != nil {
		app.fallDown(op, err)
	}
	app.outbound.tokens = jwt

	pf := app.cfg.Payfast
	app.outbound.payments = payfast.New(payfast.Config{
		MerchantID:  pf.MerchantID,
		MerchantKey: pf.MerchantKey,
		Passphrase:  pf.Passphrase,
		Sandbox:     pf.Sandbox,
		FrontendURL: app.cfg.FrontendURL,
		BackendURL:  app.cfg.BackendURL,
	})
	if pf.Sandbox {
		slog.Info("payfast sandbox mode")
	}
}

func (app *App) initSerdes() {
	const op = "App.initSerdes"
	ctx := app.ctx
	b := app.cfg.Broker

	srClient, err := sr.NewClient(sr.URLs(b.SchemaRegistryURLs...))
	if err != nil {
		app.fallDown(op, err)
	}

	schemaCreater := schema.NewSchemaCreater(srClient)

	orderEventSerde, err := schema.NewSerdeOrderEventV1(
		ctx,
		schema.SubjectOpt(b.Topics.OrderEvents+"-value"),
		schema.SchemaIdentifierOpt(schemaCreater),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	storeSalesTable := string(goka.GroupTable(goka.Group(b.Groups.StoreSales)))
	storeSalesSerde, err := schema.NewSerdeStoreSalesV1(
		ctx,
		schema.SubjectOpt(storeSalesTable+"-value"),
		schema.SchemaIdentifierOpt(schemaCreater),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	app.broker.serdes = serdes{
		orderEvent: orderEventSerde,
		storeSales: storeSalesSerde,
	}
}

func (app *App) initBroker() {
	const op = "App.initBroker"
	b := app.cfg.Broker

	sec := kafka.Security{User: b.SASLUser, Pass: b.SASLPass}
	if b.TLS.Enabled {
		tlsConfig, err := adapter.LoadTLSConfig(adapter.TLSFiles{
			CAFile:   b.TLS.CAFile,
			CertFile: b.TLS.CertFile,
			KeyFile:  b.TLS.KeyFile,
		})
		if err != nil {
			app.fallDown(op, err)
		}
		sec.TLS = tlsConfig
	}

	producer, err := kafka.NewOrderEventsProducer(
		kafka.ProducerClientOpt(app.ctx, b.SeedBrokers, b.Topics.OrderEvents, sec),
		kafka.ProducerEncoderOpt(app.broker.serdes.orderEvent),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	processor, err := kafka.NewStoreSalesProcessor(kafka.StoreSalesProcessorConfig{
		SeedBrokers:     b.SeedBrokers,
		OrderEvents:     b.Topics.OrderEvents,
		Group:           b.Groups.StoreSales,
		OrderEventSerde: app.broker.serdes.orderEvent,
		StoreSalesSerde: app.broker.serdes.storeSales,
		Security:        sec,
	})
	if err != nil {
		app.fallDown(op, err)
	}

	view, err := kafka.NewStoreSalesView(kafka.StoreSalesViewConfig{
		SeedBrokers: b.SeedBrokers,
		Group:       b.Groups.StoreSales,
		Serde:       app.broker.serdes.storeSales,
		Security:    sec,
	})
	if err != nil {
		app.fallDown(op, err)
	}

	app.broker.producer = &producer
	app.broker.view = view

	app.outbound.events = producer
	app.outbound.salesProc = processor
	app.outbound.salesLedger = view
}

func (app *App) initCoreService() {
	app.service = service.New(service.Deps{
		Storage:     storage.New(app.outbound.db),
		Tokens:      app.outbound.tokens,
		Payments:    app.outbound.payments,
		Events:      app.outbound.events,
		SalesLedger: app.outbound.salesLedger,
		SalesProc:   app.outbound.salesProc,
		FrontendURL: app.cfg.FrontendURL,
	})
}

func (app *App) initInboundAdapters() {
	s := app.service
	rl := app.cfg.RateLimit
	app.limiter = httphandler.NewRateLimiter(rl.RPS, rl.Burst)

	handler := httphandler.NewRouter(httphandler.Deps{
		Auth:           s,
		Authz:          s,
		Users:          s,
		Stores:         s,
		Products:       s,
		Orders:         s,
		Affiliates:     s,
		Health:         app.outbound.db,
		Observer:       metrics.New(),
		Limiter:        app.limiter,
		AllowedOrigins: app.allowedOrigins(),
		UploadsDir:     app.cfg.UploadsDir,
		Version:        Version,
		DetailedErrors: !app.cfg.Production(),
	})
	app.httpServer = httphandler.NewHTTPServer(
		app.cfg.HTTPServerAddr, handler, httphandler.DefaultRequestTimeout,
	)
}

func (app *App) allowedOrigins() []string {
	origins := []string{strings.TrimRight(app.cfg.FrontendURL, "/")}
	if !app.cfg.Production() {
		origins = append(origins, "http://localhost:3000", "http://localhost:3001")
	}
	return slices.Compact(slices.Sorted(slices.Values(origins)))
}

func (app *App) Run(stopFn context.CancelFunc) {
	if app.broker.view != nil {
		go app.broker.view.Run(app.ctx)
	}
	app.service.Run(app.ctx, stopFn)
	go app.limiter.Run(app.ctx)
	go app.httpServer.Run(stopFn)

	slog.Info("application is running")
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)
	app.service.Close()
	if app.broker.producer != nil {
		app.broker.producer.Close()
	}
	app.outbound.db.Close()

	slog.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
