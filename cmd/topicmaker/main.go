package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/lovoo/goka"
	"github.com/niksmo/storebuilder/config"
	"github.com/niksmo/storebuilder/pkg/sigctx"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

const (
	partitions        = 3
	replicationFactor = 3
	minInsyncReplicas = "2"

	orderEventsRetention = 30 * 24 * time.Hour
)

// A topicSpec is a topic with its own cleanup settings.
type topicSpec struct {
	name   string
	config map[string]*string
}

func deleteTopic(name string, retention time.Duration) topicSpec {
	return topicSpec{name, map[string]*string{
		"cleanup.policy":      kadm.StringPtr("delete"),
		"retention.ms":        kadm.StringPtr(strconv.FormatInt(retention.Milliseconds(), 10)),
		"min.insync.replicas": kadm.StringPtr(minInsyncReplicas),
	}}
}

// compactTopic backs a goka group table, which must keep the latest value
// of every key.
func compactTopic(name string) topicSpec {
	return topicSpec{name, map[string]*string{
		"cleanup.policy":      kadm.StringPtr("compact"),
		"min.insync.replicas": kadm.StringPtr(minInsyncReplicas),
	}}
}

func main() {
	sigCtx, closeApp := sigctx.NotifyContext(context.Background())
	defer closeApp()

	cfg := config.Load()
	if !cfg.Broker.Enabled() {
		printFail(errors.New("broker.seed_brokers is empty"))
		return
	}

	cl := createClient(cfg.Broker.SeedBrokers)
	defer cl.Close()

	specs := []topicSpec{
		deleteTopic(cfg.Broker.Topics.OrderEvents, orderEventsRetention),
		compactTopic(toGroupTable(cfg.Broker.Groups.StoreSales)),
	}

	printStart(specs)
	defer printComplete(time.Now())

	var errs []error
	for _, spec := range specs {
		if err := makeTopic(sigCtx, cl, spec); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		printFail(err)
	}
}

func createClient(seedBrokers []string) *kadm.Client {
	cl, err := kadm.NewOptClient(
		kgo.SeedBrokers(seedBrokers...),
	)
	if err != nil {
		panic(err) // develop mistake
	}
	return cl
}

func makeTopic(ctx context.Context, cl *kadm.Client, spec topicSpec) error {
	res, err := cl.CreateTopic(
		ctx, partitions, replicationFactor, spec.config, spec.name,
	)
	if err != nil {
		return err
	}
	if res.Err != nil {
		if errors.Is(res.Err, kerr.TopicAlreadyExists) {
			fmt.Printf("topic: %q already exists\n", res.Topic)
			return nil
		}
		return fmt.Errorf("topic %q: %w", res.Topic, res.Err)
	}
	fmt.Printf("topic: %q successfully created\n", res.Topic)
	return nil
}

func printStart(specs []topicSpec) {
	fmt.Println("initializing topics...")
	for _, s := range specs {
		fmt.Printf("\t- %q (%s)\n", s.name, *s.config["cleanup.policy"])
	}
	fmt.Println()
}

func printComplete(start time.Time) {
	fmt.Printf("\ncomplete in %s\n", time.Since(start))
}

func printFail(err error) {
	fmt.Printf("failed to create topics: \n%s\n", err)
}

func toGroupTable(group string) string {
	return string(goka.GroupTable(goka.Group(group)))
}
