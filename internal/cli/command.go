package cli

import (
	"flag"

	"github.com/moneyflow-dev/moneyflow/internal/config"
	"github.com/moneyflow-dev/moneyflow/internal/logger"
	"github.com/moneyflow-dev/moneyflow/internal/rules"
	"github.com/moneyflow-dev/moneyflow/internal/storage"
)

type Command interface {
	SetFlags(fset *flag.FlagSet)
	Description() string
	Run(conf *config.Config, store storage.Storage, engine *rules.Engine, logger *logger.Logger) error
}
