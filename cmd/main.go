package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/moneyflow-dev/moneyflow/internal/cli"
	"github.com/moneyflow-dev/moneyflow/internal/cli/report"
	"github.com/moneyflow-dev/moneyflow/internal/cli/rule"
	"github.com/moneyflow-dev/moneyflow/internal/cli/tui"
	"github.com/moneyflow-dev/moneyflow/internal/cli/web"
	"github.com/moneyflow-dev/moneyflow/internal/config"
	"github.com/moneyflow-dev/moneyflow/internal/logger"
	"github.com/moneyflow-dev/moneyflow/internal/rules"
	"github.com/moneyflow-dev/moneyflow/internal/storage/sqlite"
)

var configPath string

var subcommands = map[string]cli.Command{
	"web":    web.NewCommand(),
	"tui":    tui.NewCommand(),
	"report": report.NewCommand(),
	"rule":   rule.NewCommand(),
}

var subcommandsFlagSets = map[string]*flag.FlagSet{}

func main() {
	if len(os.Args) < 2 {
		fmt.Printf("subcommand is required\n")
		printUsage()

		os.Exit(1)
	}

	defaultConfigPath := os.Getenv("MONEYFLOW_CONFIG")
	if defaultConfigPath == "" {
		defaultConfigPath = "moneyflow.toml"
	}

	for c, cLogic := range subcommands {
		fset := flag.NewFlagSet(c, flag.ExitOnError)
		fset.StringVar(&configPath, "c", defaultConfigPath, "Configuration file")

		cLogic.SetFlags(fset)

		subcommandsFlagSets[c] = fset
	}

	commandName := os.Args[1]
	command, ok := subcommands[commandName]
	if !ok {
		if strings.Contains(commandName, "help") {
			printHelp()

			os.Exit(0)
		}

		fmt.Fprintf(os.Stderr, "unsupported command %s.\nUse 'help' to print information about supported commands\n", commandName)
		os.Exit(1)
	}

	//nolint:errcheck // flag.ExitOnError exits on parse failure
	subcommandsFlagSets[commandName].Parse(os.Args[2:])

	conf, err := config.Parse(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to parse the configuration. %s", err.Error())
		os.Exit(1)
	}

	appLogger := logger.New(conf.Logger)

	appLogger.Info("Using database", "path", conf.DB)

	store, err := sqlite.New(conf.DB)
	if err != nil {
		appLogger.Fatal("Unable to open the database", "error", err.Error())
	}

	err = store.ApplyMigrations(context.Background(), appLogger)
	if err != nil {
		appLogger.Fatal("Unable to create schema", "error", err.Error())
	}

	engine := rules.NewEngine(store)

	err = command.Run(conf, store, engine, appLogger)
	if err != nil {
		appLogger.Error("command failed", "command", commandName, "error", err.Error())
		os.Exit(1)
	}

	err = store.Close()
	if err != nil {
		appLogger.Error("Error closing storage", "error", err.Error())
		os.Exit(1)
	}

	os.Exit(0)
}

func printHelp() {
	printUsage()

	for c, cLogic := range subcommands {
		fmt.Printf("subcommand <%s>: %s\n", c, cLogic.Description())
		subcommandsFlagSets[c].PrintDefaults()
		fmt.Println()
	}
}

func printUsage() {
	fmt.Printf("usage: moneyflow <subcommand> [flags]\n\n")
}
