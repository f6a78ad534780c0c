package report

import (
	"context"
	"embed"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path"
	"text/template"
	"time"

	"github.com/moneyflow-dev/moneyflow/internal/cli"
	"github.com/moneyflow-dev/moneyflow/internal/config"
	"github.com/moneyflow-dev/moneyflow/internal/logger"
	"github.com/moneyflow-dev/moneyflow/internal/rules"
	"github.com/moneyflow-dev/moneyflow/internal/stats"
	"github.com/moneyflow-dev/moneyflow/internal/storage"
	"github.com/moneyflow-dev/moneyflow/internal/util"
)

// content holds our static content.
//
//go:embed templates/*
var content embed.FS

type reportCommand struct{}

func NewCommand() cli.Command {
	return reportCommand{}
}

func (c reportCommand) Description() string {
	return "Displays spending statistics for a month"
}

var month int
var year int
var verbose bool

func (c reportCommand) SetFlags(fs *flag.FlagSet) {
	fs.IntVar(&month, "month", 0, "month to report on (defaults to the previous month)")
	fs.IntVar(&year, "year", 0, "year to report on")
	fs.BoolVar(&verbose, "v", false, "include weekly trends")
}

type reportData struct {
	Start   string
	End     string
	Total   int64
	Stats   stats.DashboardStats
	Verbose bool
}

func (c reportCommand) Run(_ *config.Config, store storage.Storage, _ *rules.Engine, log *logger.Logger) error {
	start, end, err := reportRange(time.Now().UTC(), month, year)
	if err != nil {
		return err
	}

	transactions, err := store.TransactionsInRange(context.Background(), start, end)
	if err != nil {
		log.Error("Unable to fetch transactions", "error", err.Error())
		return err
	}

	dashboard := stats.Compute(transactions, start, end, stats.DefaultTopMerchants)

	var total int64
	for _, category := range dashboard.CategorySpending {
		total += category.Amount
	}

	return renderTemplate(os.Stdout, "report.tmpl", reportData{
		Start:   start.Format(time.DateOnly),
		End:     end.Format(time.DateOnly),
		Total:   total,
		Stats:   dashboard,
		Verbose: verbose,
	})
}

// reportRange resolves the -month/-year flags: both absent means the
// previous calendar month, a month alone means that month of the current
// year, and a year alone is rejected rather than guessing a month.
func reportRange(now time.Time, month, year int) (time.Time, time.Time, error) {
	if month == 0 && year == 0 {
		firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		previous := firstOfMonth.AddDate(0, -1, 0)
		month = int(previous.Month())
		year = previous.Year()
	}

	if year == 0 {
		year = now.Year()
	}

	if month == 0 {
		return time.Time{}, time.Time{}, errors.New("-month is required when -year is set")
	}
	if month < 1 || month > 12 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month %d", month)
	}

	start, end := util.GetMonthDates(month, year)
	return start, end, nil
}

var templateFuncs = template.FuncMap{
	"formatMoney": util.FormatMoney,
	"colorOutput": util.ColorOutput,
}

func renderTemplate(out io.Writer, templateName string, value any) error {
	tmpl, err := content.ReadFile(path.Join("templates", templateName))
	if err != nil {
		return err
	}
	t := template.Must(template.New(templateName).Funcs(templateFuncs).Parse(string(tmpl)))
	return t.Execute(out, value)
}
