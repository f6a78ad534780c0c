package rule

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/moneyflow-dev/moneyflow/internal/cli"
	"github.com/moneyflow-dev/moneyflow/internal/config"
	"github.com/moneyflow-dev/moneyflow/internal/logger"
	"github.com/moneyflow-dev/moneyflow/internal/rules"
	"github.com/moneyflow-dev/moneyflow/internal/storage"
	"github.com/moneyflow-dev/moneyflow/internal/util"
)

type ruleCommand struct{}

func NewCommand() cli.Command {
	return ruleCommand{}
}

func (c ruleCommand) Description() string {
	return "Manage category rules"
}

var add string
var list bool
var deleteID string

func (c ruleCommand) SetFlags(fs *flag.FlagSet) {
	fs.StringVar(&add, "add", "", "create a rule, formatted as keyword:category")
	fs.BoolVar(&list, "list", false, "list rules in match order")
	fs.StringVar(&deleteID, "delete", "", "delete the rule with the given id")
}

func (c ruleCommand) Run(_ *config.Config, _ storage.Storage, engine *rules.Engine, log *logger.Logger) error {
	ctx := context.Background()

	switch {
	case add != "":
		keyword, category, found := strings.Cut(add, ":")
		if !found {
			return fmt.Errorf("invalid rule %q, expected keyword:category", add)
		}

		rule, err := engine.CreateRule(ctx, keyword, category)
		if err != nil {
			return err
		}

		log.Info("Rule created", "id", rule.ID(), "keyword", rule.Keyword(), "category", rule.Category())
		return nil
	case deleteID != "":
		if err := engine.DeleteRule(ctx, deleteID); err != nil {
			return err
		}

		log.Info("Rule deleted", "id", deleteID)
		return nil
	case list:
		ruleList, err := engine.Rules(ctx)
		if err != nil {
			return err
		}

		if len(ruleList) == 0 {
			fmt.Println("No rules defined")
			return nil
		}

		for i, rule := range ruleList {
			fmt.Printf("%d. %s -> %s (%s)\n",
				i+1,
				util.ColorOutput(rule.Keyword(), "bold"),
				util.ColorOutput(rule.Category(), "green"),
				rule.ID(),
			)
		}
		return nil
	default:
		return fmt.Errorf("one of -add, -list or -delete is required")
	}
}
