// Command docfront-lambda serves the document API as an API Gateway proxy Lambda.
//
// Settings come from the YAML file named by DOCFRONT_CONFIG (optional) and DOCFRONT_*
// environment variables.
package main

import (
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/jacentio/docfront/config"
	"github.com/jacentio/docfront/lambdaapi"
	"github.com/jacentio/docfront/store"
)

func main() {
	settings, err := config.Load(os.Getenv("DOCFRONT_CONFIG"))
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := settings.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	conn := store.NewConn(settings.Conn(), store.WithConnLogger(logger))
	s := store.NewWithLogger(conn, settings.StoreConfig(), logger)

	lambda.Start(lambdaapi.NewHandler(s, logger).HandleRequest)
}
