package main

import (
	"flag"
	"fmt"
	"os"

	"LiveChart/internal/di"
	"LiveChart/pkg/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	checkOnly := flag.Bool("check", false, "validate the config and exit")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 2
	}
	if *checkOnly {
		fmt.Printf("config ok: env=%s api=%s cache=%s kafka=%t\n",
			cfg.Environment, cfg.API.BaseURL, cfg.Cache.Type, cfg.Kafka.Enabled)
		return 0
	}

	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init: %v\n", err)
		return 1
	}
	defer cleanup()

	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "run: %v\n", err)
		return 1
	}
	return 0
}
