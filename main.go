package main

import (
	"context"
	"flag"

	"github.com/fogo-labs/fogo-faucet/api/router"
	"github.com/fogo-labs/fogo-faucet/app"
	"github.com/fogo-labs/fogo-faucet/config"
	"github.com/fogo-labs/fogo-faucet/pkg/xzap"
	"github.com/fogo-labs/fogo-faucet/service/svc"
	service "github.com/fogo-labs/fogo-faucet/service/v1"
)

const defaultConfigPath = "./config/config.toml"

func main() {
	conf := flag.String("conf", defaultConfigPath, "conf file path")
	flag.Parse()

	c, err := config.UnmarshalConfig(*conf)
	if err != nil {
		panic(err)
	}

	if _, err := xzap.SetUp(c.Log.Level, c.Log.Mode); err != nil {
		panic(err)
	}

	serverCtx, err := svc.NewServiceContext(c)
	if err != nil {
		panic(err)
	}

	r := router.NewRouter(serverCtx)

	// Recovery path for claims left pending by a crash.
	go service.StartSettlementWorker(context.Background(), serverCtx)

	platform, err := app.NewPlatform(c, r, serverCtx)
	if err != nil {
		panic(err)
	}
	platform.Start()
}
