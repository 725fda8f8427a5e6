package journal

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"text/template"
	"time"
)

// Summary is the headline numbers of a finished run.
type Summary struct {
	RunID    string
	Created  time.Time
	Strategy string
	Symbols  []string

	Start time.Time
	End   time.Time
	Days  int

	StartCash   float64
	EndCash     float64
	LongEquity  float64
	ShortEquity float64
	Total       float64

	Trades      int
	Wins        int
	Losses      int
	Realized    float64
	Commissions float64
	Dividends   float64

	OrgPath string
}

// Account is the cash side Summarize needs beyond Source.
type Account interface {
	Source
	InitialCash() float64
	Cash() float64
}

// Summarize fills the numeric fields of a Summary from a finished account.
// Open positions are valued as of the last recorded day.
func Summarize(a Account) Summary {
	s := Summary{
		StartCash: a.InitialCash(),
		EndCash:   a.Cash(),
		Trades:    len(a.Trades()),
	}
	for _, g := range a.CapitalGains() {
		amt := g.Amount()
		s.Realized += amt
		switch {
		case amt > 0:
			s.Wins++
		case amt < 0:
			s.Losses++
		}
	}
	for _, c := range a.Commissions() {
		s.Commissions += c.Amount
	}
	for _, d := range a.Dividends() {
		s.Dividends += d.Amount
	}
	if cs := a.CashSeries(); len(cs) > 0 {
		last := cs[len(cs)-1]
		s.LongEquity = last.LongEquity
		s.ShortEquity = last.ShortEquity
	}
	s.Total = s.EndCash + s.LongEquity + s.ShortEquity
	return s
}

func (s Summary) NetPL() float64 { return s.Total - s.StartCash }

func (s Summary) ReturnPct() float64 {
	if s.StartCash == 0 {
		return 0
	}
	return s.NetPL() / s.StartCash * 100
}

// WinRate is the percentage of closed lots with a positive gain.
func (s Summary) WinRate() float64 {
	closed := s.Wins + s.Losses
	if closed == 0 {
		return 0
	}
	return float64(s.Wins) / float64(closed) * 100
}

func (s Summary) Print(w io.Writer) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Simulation Result")
	fmt.Fprintln(w, "==================================================")

	if s.RunID != "" {
		fmt.Fprintf(w, "Run ID:        %s\n", s.RunID)
	}
	if !s.Created.IsZero() {
		fmt.Fprintf(w, "Created:       %s\n", s.Created.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "Strategy:      %s\n", s.Strategy)
	fmt.Fprintf(w, "Symbols:       %v\n", s.Symbols)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Period")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start:         %s\n", s.Start.Format(time.DateOnly))
	fmt.Fprintf(w, "End:           %s\n", s.End.Format(time.DateOnly))
	fmt.Fprintf(w, "Days:          %d\n", s.Days)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d\n", s.Trades)
	fmt.Fprintf(w, "Wins:          %d\n", s.Wins)
	fmt.Fprintf(w, "Losses:        %d\n", s.Losses)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", s.WinRate())
	fmt.Fprintf(w, "Realized:      %.2f\n", s.Realized)
	fmt.Fprintf(w, "Commissions:   %.2f\n", s.Commissions)
	fmt.Fprintf(w, "Dividends:     %.2f\n", s.Dividends)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start Cash:    %.2f\n", s.StartCash)
	fmt.Fprintf(w, "End Cash:      %.2f\n", s.EndCash)
	fmt.Fprintf(w, "Long Equity:   %.2f\n", s.LongEquity)
	fmt.Fprintf(w, "Short Equity:  %.2f\n", s.ShortEquity)
	fmt.Fprintf(w, "Total Value:   %.2f\n", s.Total)
	fmt.Fprintf(w, "Net P/L:       %.2f\n", s.NetPL())
	fmt.Fprintf(w, "Return:        %.2f%%\n", s.ReturnPct())

	if s.OrgPath != "" {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Org Report:    %s\n", s.OrgPath)
	}
	fmt.Fprintln(w)
}

var orgFuncs = template.FuncMap{
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

var orgTemplate = template.Must(template.New("run").Funcs(orgFuncs).Parse(OrgTemplate))

// Org renders s as an Org-mode heading with a properties drawer.
func (s Summary) Org() (string, error) {
	buf := new(bytes.Buffer)
	if err := orgTemplate.Execute(buf, s); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WriteOrg renders s to path.
func (s Summary) WriteOrg(path string) error {
	out, err := s.Org()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(out), 0644)
}

const OrgTemplate = `
* RUN: {{if .Strategy}}{{.Strategy}}{{else}}(strategy?){{end}} {{range $i, $s := .Symbols}}{{if $i}},{{end}}{{$s}}{{end}}
:PROPERTIES:
:RUN_ID:      {{if .RunID}}{{.RunID}}{{else}}(run-id?){{end}}
:STRATEGY:    {{.Strategy}}
:START_DATE:  {{.Start.Format "2006-01-02"}}
:END_DATE:    {{.End.Format "2006-01-02"}}
:DAYS:        {{.Days}}
:START_CASH:  {{printf "%.2f" .StartCash}}
:END_CASH:    {{printf "%.2f" .EndCash}}
:TOTAL:       {{printf "%.2f" .Total}}
:NET_PL:      {{printf "%.2f" .NetPL}}
:RETURN_PCT:  {{printf "%.2f" .ReturnPct}}
:TRADES:      {{.Trades}}
:WINS:        {{.Wins}}
:LOSSES:      {{.Losses}}
:WIN_RATE:    {{printf "%.2f" .WinRate}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Performance Summary
- Net P/L:          *{{printf "%.2f" .NetPL}}*
- Return:           *{{printf "%.2f" .ReturnPct}}%*
- Realized gains:   *{{printf "%.2f" .Realized}}*
- Commissions:      *{{printf "%.2f" .Commissions}}*
- Dividends:        *{{printf "%.2f" .Dividends}}*

** Closing Account
| Item         | Value |
|--------------+-------|
| Cash         | {{printf "%.2f" .EndCash}} |
| Long equity  | {{printf "%.2f" .LongEquity}} |
| Short equity | {{printf "%.2f" .ShortEquity}} |
| Total        | {{printf "%.2f" .Total}} |

** Trade Distribution
| Outcome | Count |
|---------+-------|
| Wins    | {{.Wins}} |
| Losses  | {{.Losses}} |
| Trades  | {{.Trades}} |
`
