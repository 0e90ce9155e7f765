package main

import (
	"context"
	"log"
	"os"

	"github.com/civilog/civilog-cli/internal/buildinfo"
	"github.com/civilog/civilog-cli/internal/client/cli"
	"github.com/civilog/civilog-cli/internal/client/config"
	"github.com/civilog/civilog-cli/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewDefault()

	app, err := cli.NewApp(cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
