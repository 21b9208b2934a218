package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"curve-desk/internal/analysis"
	"curve-desk/internal/credit"
	"curve-desk/internal/domain"

	log "github.com/sirupsen/logrus"
	tele "gopkg.in/telebot.v3"
)

const commandTimeout = 30 * time.Second

type CurveAnalyzer interface {
	Analyze(ctx context.Context, override domain.ScenarioOverride) (*analysis.Result, error)
}

// commands renders bot replies. It holds no telebot state so replies can be
// tested directly.
type commands struct {
	curves CurveAnalyzer
}

func StartTelegramBot(token string, curves CurveAnalyzer) {
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Printf("failed to create Telegram bot: %v", err)
		return
	}

	cmds := &commands{curves: curves}
	reply := func(fn func(ctx context.Context, args []string) string) tele.HandlerFunc {
		return func(c tele.Context) error {
			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()
			return c.Send(fn(ctx, c.Args()), &tele.SendOptions{ParseMode: tele.ModeMarkdown})
		}
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})
	b.Handle("/curve", reply(cmds.curve))
	b.Handle("/slope", reply(cmds.slope))
	b.Handle("/spread", reply(cmds.spread))
	b.Handle("/whatif", reply(cmds.whatIf))

	log.Println("Telegram bot started")
	go b.Start()
}

func (c *commands) curve(ctx context.Context, _ []string) string {
	res, err := c.curves.Analyze(ctx, domain.ScenarioOverride{})
	if err != nil {
		return fmt.Sprintf("Error fetching curve: %v", err)
	}
	return fmt.Sprintf("Treasury vs corporate, as of %s\n%s\n%s",
		res.Treasury.AsOf.Format("2006-01-02"), curveTable(res), slopeLine(res.Slope))
}

// slope replies with 10Y-2Y, or the spread between two named maturities.
func (c *commands) slope(ctx context.Context, args []string) string {
	short, long := credit.ShortTenor, credit.LongTenor
	if len(args) == 2 {
		short, long = strings.ToUpper(args[0]), strings.ToUpper(args[1])
	} else if len(args) != 0 {
		return "Usage: /slope or /slope 3M 10Y"
	}

	res, err := c.curves.Analyze(ctx, domain.ScenarioOverride{})
	if err != nil {
		return fmt.Sprintf("Error fetching curve: %v", err)
	}
	s, err := credit.SlopeBetween(res.Treasury, short, long)
	if err != nil {
		return fmt.Sprintf("Cannot compute slope: %v", err)
	}
	return slopeLine(s)
}

func (c *commands) spread(ctx context.Context, _ []string) string {
	res, err := c.curves.Analyze(ctx, domain.ScenarioOverride{})
	if err != nil {
		return fmt.Sprintf("Error fetching curve: %v", err)
	}

	var sb strings.Builder
	sb.WriteString("Credit spread over Treasuries\n```\n")
	tw := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', tabwriter.AlignRight)
	for _, p := range res.SpreadCurve.Points {
		knot := ""
		if _, ok := res.SpreadTable[p.Maturity.Label]; ok {
			knot = "*"
		}
		fmt.Fprintf(tw, "%s\t%.2f%%\t%s\t\n", p.Maturity.Label, p.YieldPct, knot)
	}
	tw.Flush()
	sb.WriteString("```\n* table point, others interpolated")
	return sb.String()
}

// whatIf shifts one Treasury maturity: /whatif 2Y -0.25
func (c *commands) whatIf(ctx context.Context, args []string) string {
	if len(args) != 2 {
		return "Usage: /whatif 2Y -0.25 (shift in percentage points)"
	}
	delta, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Sprintf("Invalid shift %q", args[1])
	}
	label := strings.ToUpper(args[0])

	res, err := c.curves.Analyze(ctx, domain.ScenarioOverride{Yields: map[string]float64{label: delta}})
	if err != nil {
		return fmt.Sprintf("Scenario rejected: %v", err)
	}
	return fmt.Sprintf("%s %+.2f\n%s\n%s", label, delta, curveTable(res), slopeLine(res.Slope))
}

func curveTable(res *analysis.Result) string {
	var sb strings.Builder
	sb.WriteString("```\n")
	tw := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Mat\tTsy\tCorp\t")
	for i, p := range res.Treasury.Points {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t\n", p.Maturity.Label, p.YieldPct, res.Corporate.Points[i].YieldPct)
	}
	tw.Flush()
	sb.WriteString("```")
	return sb.String()
}

func slopeLine(s domain.SlopeIndicator) string {
	if s.Inverted {
		return fmt.Sprintf("%s-%s: %+.2f%% (inverted)", s.Long, s.Short, s.SpreadPct)
	}
	return fmt.Sprintf("%s-%s: %+.2f%% (normal)", s.Long, s.Short, s.SpreadPct)
}
