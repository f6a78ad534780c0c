package web

import (
	"flag"
	"fmt"
	"net/http"
	"time"

	"github.com/moneyflow-dev/moneyflow/internal/cli"
	"github.com/moneyflow-dev/moneyflow/internal/config"
	"github.com/moneyflow-dev/moneyflow/internal/logger"
	"github.com/moneyflow-dev/moneyflow/internal/rules"
	"github.com/moneyflow-dev/moneyflow/internal/server"
	"github.com/moneyflow-dev/moneyflow/internal/storage"
)

type webCommand struct{}

func NewCommand() cli.Command {
	return webCommand{}
}

func (c webCommand) Description() string {
	return "Serve the JSON API"
}

var port string
var timeout int

func (c webCommand) SetFlags(fs *flag.FlagSet) {
	fs.StringVar(&port, "p", "", "port (defaults to the configured server port)")
	fs.IntVar(&timeout, "t", 0, "read header timeout in seconds")
}

func (c webCommand) Run(conf *config.Config, store storage.Storage, engine *rules.Engine, log *logger.Logger) error {
	if port == "" {
		port = conf.Server.Port
	}
	if timeout == 0 {
		timeout = conf.Server.Timeout
	}

	handler := server.New(store, engine, log)

	log.Info("Listening", "addr", fmt.Sprintf("http://localhost:%s", port))

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		ReadHeaderTimeout: time.Duration(timeout) * time.Second,
		Handler:           handler,
	}
	return httpServer.ListenAndServe()
}
