package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/IBM/sarama"
	"github.com/lovoo/goka"
	"github.com/niksmo/storebuilder/internal/core/domain"
	"github.com/niksmo/storebuilder/pkg/schema"
	"github.com/shopspring/decimal"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl/plain"
)

var (
	ErrTooFewOpts       = errors.New("too few options")
	ErrInvalidValueType = errors.New("invalid value type")
)

// Security holds the optional broker TLS and SASL/PLAIN settings.
type Security struct {
	TLS  *tls.Config
	User string
	Pass string
}

func (s Security) kgoOpts() []kgo.Opt {
	var opts []kgo.Opt
	if s.TLS != nil {
		opts = append(opts, kgo.DialTLSConfig(s.TLS))
	}
	if s.User != "" {
		opts = append(opts, kgo.SASL(
			plain.Auth{User: s.User, Pass: s.Pass}.AsMechanism(),
		))
	}
	return opts
}

// applySASLTLS replaces the goka global config, so it must be called before
// any processor or view is created.
func applySASLTLS(s Security) {
	cfg := goka.DefaultConfig()
	if s.TLS != nil {
		cfg.Net.TLS.Enable = true
		cfg.Net.TLS.Config = s.TLS
	}
	if s.User != "" {
		cfg.Net.SASL.Enable = true
		cfg.Net.SASL.Mechanism = sarama.SASLTypePlaintext
		cfg.Net.SASL.User = s.User
		cfg.Net.SASL.Password = s.Pass
	}
	goka.ReplaceGlobalConfig(cfg)
}

type ProducerOpt func(*producerOpts) error

type producerOpts struct {
	cl      ProducerClient
	encoder Encoder
}

func ProducerClientOpt(
	ctx context.Context, seedBrokers []string, topic string, sec Security,
) ProducerOpt {
	return func(opts *producerOpts) error {
		kopts := append([]kgo.Opt{
			kgo.SeedBrokers(seedBrokers...),
			kgo.DefaultProduceTopicAlways(),
			kgo.DefaultProduceTopic(topic),
			kgo.RequiredAcks(kgo.AllISRAcks()),
		}, sec.kgoOpts()...)

		cl, err := kgo.NewClient(kopts...)
		if err != nil {
			return err
		}

		if err := cl.Ping(ctx); err != nil {
			cl.Close()
			return err
		}
		opts.cl = cl
		return nil
	}
}

func ProducerEncoderOpt(encoder Encoder) ProducerOpt {
	return func(opts *producerOpts) error {
		if encoder == nil {
			return errors.New("encoder is nil")
		}
		opts.encoder = encoder
		return nil
	}
}

type ProducerClient interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

type Encoder interface {
	Encode(v any) ([]byte, error)
}

type Decoder interface {
	Decode(b []byte, v any) error
}

type Serde interface {
	Encoder
	Decoder
}

func withNonlogProcOpt() goka.ProcessorOption {
	return goka.WithLogger(log.New(io.Discard, "", 0))
}

func makeOp(s ...string) string {
	return strings.Join(s, ".")
}

func opErr(err error, op ...string) error {
	return fmt.Errorf("%s: %w", makeOp(op...), err)
}

func orderEventToSchemaV1(v domain.OrderEvent) (s schema.OrderEventV1) {
	s.Type = string(v.Type)
	s.OrderID = v.OrderID
	s.OrderNumber = v.OrderNumber
	s.StoreID = v.StoreID
	s.Status = string(v.Status)
	s.PaymentStatus = string(v.Payment)
	s.Total = v.Total.StringFixed(2)
	s.Amount = v.Amount.StringFixed(2)
	s.Currency = string(v.Currency)
	s.OccurredAt = v.OccurredAt.UTC()
	return
}

func orderEventFromSchemaV1(s schema.OrderEventV1) (domain.OrderEvent, error) {
	total, err := decimal.NewFromString(s.Total)
	if err != nil {
		return domain.OrderEvent{}, err
	}
	amount, err := decimal.NewFromString(s.Amount)
	if err != nil {
		return domain.OrderEvent{}, err
	}
	return domain.OrderEvent{
		Type:        domain.OrderEventType(s.Type),
		OrderID:     s.OrderID,
		OrderNumber: s.OrderNumber,
		StoreID:     s.StoreID,
		Status:      domain.OrderStatus(s.Status),
		Payment:     domain.PaymentStatus(s.PaymentStatus),
		Total:       total,
		Amount:      amount,
		Currency:    domain.Currency(s.Currency),
		OccurredAt:  s.OccurredAt,
	}, nil
}

func storeSalesToSchemaV1(v domain.StoreSales) (s schema.StoreSalesV1) {
	s.StoreID = v.StoreID
	s.PaidOrders = v.PaidOrders
	s.Revenue = v.Revenue.StringFixed(2)
	s.RefundedOrders = v.RefundedOrders
	s.RefundedAmount = v.RefundedAmount.StringFixed(2)
	s.LastEventAt = v.LastEventAt.UTC()
	return
}

func storeSalesFromSchemaV1(s schema.StoreSalesV1) (domain.StoreSales, error) {
	revenue, err := decimal.NewFromString(s.Revenue)
	if err != nil {
		return domain.StoreSales{}, err
	}
	refunded, err := decimal.NewFromString(s.RefundedAmount)
	if err != nil {
		return domain.StoreSales{}, err
	}
	return domain.StoreSales{
		StoreID:        s.StoreID,
		PaidOrders:     s.PaidOrders,
		Revenue:        revenue,
		RefundedOrders: s.RefundedOrders,
		RefundedAmount: refunded,
		LastEventAt:    s.LastEventAt,
	}, nil
}
