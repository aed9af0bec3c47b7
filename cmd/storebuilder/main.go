package main

import (
	"context"
	"time"

	"github.com/niksmo/storebuilder/config"
	"github.com/niksmo/storebuilder/internal/app"
	"github.com/niksmo/storebuilder/pkg/sigctx"
)

const closeTimeout = 10 * time.Second

func main() {
	sigCtx, closeApp := sigctx.NotifyContext(context.Background())
	defer closeApp()

	cfg := config.Load()
	cfg.Print()

	storeBuilder := app.New(sigCtx, cfg)

	storeBuilder.Run(closeApp)

	<-sigCtx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	storeBuilder.Close(ctx)
}
