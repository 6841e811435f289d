// Command shieldctl evaluates requests against a shield configuration from
// the terminal: score a request, run it through the rule engine, or serve
// the admission middleware in front of a local backend.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/vajra-security/shield/pkg/botscore"
	"github.com/vajra-security/shield/pkg/config"
	"github.com/vajra-security/shield/pkg/defaults"
	"github.com/vajra-security/shield/pkg/metrics"
	"github.com/vajra-security/shield/pkg/middleware"
	"github.com/vajra-security/shield/pkg/rules"
	"github.com/vajra-security/shield/pkg/shield"
	"github.com/vajra-security/shield/pkg/traffic"
	"github.com/vajra-security/shield/pkg/ui"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "eval", "evaluate":
		runEval()
	case "lint", "validate":
		runLint()
	case "serve":
		runServe()
	case "-v", "--version", "version":
		fmt.Println("shieldctl", defaults.Version)
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`shieldctl - traffic admission tooling

Usage:
  shieldctl eval  [flags]   evaluate one request and print the verdict
  shieldctl lint  [flags]   validate a rule set file
  shieldctl serve [flags]   run the admission middleware as a reverse proxy
  shieldctl version         print version

Run 'shieldctl <command> -h' for command flags.`)
}

type headerFlags map[string]string

func (h headerFlags) String() string { return fmt.Sprint(map[string]string(h)) }

func (h headerFlags) Set(v string) error {
	name, value, ok := strings.Cut(v, ":")
	if !ok {
		return fmt.Errorf("header %q not in name:value form", v)
	}
	h[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(value)
	return nil
}

func runEval() {
	fs := flag.NewFlagSet("eval", flag.ExitOnError)
	ip := fs.String("ip", "198.51.100.1", "Client IP address")
	userAgent := fs.String("ua", "", "User-agent string")
	path := fs.String("path", "/", "Request path")
	method := fs.String("method", "GET", "HTTP method")
	country := fs.String("country", "", "ISO country code")
	rate := fs.Float64("rate", 0, "Current requests/interval for this IP")
	mode := fs.String("mode", "monitor", "Operating mode (monitor/bunker/lockdown)")
	rulesFile := fs.String("rules", "", "Rule set file (YAML or JSON)")
	asJSON := fs.Bool("json", false, "Print the decision as JSON")
	noColor := fs.Bool("no-color", false, "Disable colored output")
	headers := headerFlags{}
	fs.Var(headers, "H", "Request header as name:value (repeatable)")
	_ = fs.Parse(os.Args[2:])

	ui.SetNoColor(*noColor)

	cfg := shield.DefaultConfig()
	cfg.Mode = shield.Mode(*mode)
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}

	var ruleset []*rules.Rule
	if *rulesFile != "" {
		set, err := rules.LoadFromFile(*rulesFile)
		if err != nil {
			fatal(err)
		}
		ruleset = set.Rules
	}

	req := traffic.Request{
		IP:        *ip,
		UserAgent: *userAgent,
		Path:      *path,
		Method:    *method,
		Country:   *country,
		Headers:   headers,
	}
	if ua, ok := headers["user-agent"]; ok && req.UserAgent == "" {
		req.UserAgent = ua
	}

	score := botscore.Compute(req)
	req.BotScore = score.Value
	req.Rate = *rate

	verdict, matched := shield.DecideMatch(req, *rate, cfg, ruleset)

	if *asJSON {
		out := map[string]any{
			"verdict":        verdict,
			"score":          score.Value,
			"classification": score.Classification,
			"reasons":        score.Reasons,
			"fingerprint":    score.Fingerprint,
		}
		if matched != nil {
			out["matched_rule"] = matched.ID
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
		return
	}

	fmt.Println(ui.LabelStyle.Render("Verdict") + ui.Verdict(string(verdict)))
	fmt.Println(ui.LabelStyle.Render("Bot score") + ui.ValueStyle.Render(fmt.Sprintf("%d", score.Value)))
	fmt.Println(ui.LabelStyle.Render("Class") + ui.Classification(string(score.Classification)))
	fmt.Println(ui.LabelStyle.Render("Fingerprint") + ui.ValueStyle.Render(score.Fingerprint))
	for _, reason := range score.Reasons {
		fmt.Println(ui.LabelStyle.Render("") + ui.ReasonStyle.Render(reason))
	}
	if matched != nil {
		fmt.Println(ui.LabelStyle.Render("Matched rule") + ui.ValueStyle.Render(matched.ID))
	}

	if verdict == shield.VerdictBlock {
		os.Exit(2)
	}
}

func runLint() {
	fs := flag.NewFlagSet("lint", flag.ExitOnError)
	rulesFile := fs.String("rules", "rules.yaml", "Rule set file to validate")
	_ = fs.Parse(os.Args[2:])

	set, err := rules.LoadFromFile(*rulesFile)
	if err != nil {
		fatal(err)
	}

	enabled := len(set.Enabled())
	fmt.Printf("%s: %d rules, %d enabled\n", *rulesFile, len(set.Rules), enabled)
	for _, r := range set.Rules {
		state := "enabled"
		if !r.Enabled {
			state = "disabled"
		}
		fmt.Printf("  [%4d] %-30s %s (%s, %d conditions)\n",
			r.Priority, r.Name, ui.Verdict(string(r.Action)), state, len(r.Conditions))
	}
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	listen := fs.String("listen", ":8080", "Listen address")
	backend := fs.String("backend", "", "Backend URL to proxy admitted traffic to (empty serves a stub)")
	configFile := fs.String("config", "", "Service config file (YAML)")
	metricsPath := fs.String("metrics", "/metrics", "Prometheus scrape path")
	_ = fs.Parse(os.Args[2:])

	cfg := config.Default()
	if *configFile != "" {
		loaded, err := config.LoadFromFile(*configFile)
		if err != nil {
			fatal(err)
		}
		cfg = loaded
	}

	var source middleware.RuleSource
	if cfg.RulesFile != "" {
		set, err := rules.LoadFromFile(cfg.RulesFile)
		if err != nil {
			fatal(err)
		}
		source = middleware.StaticRules(set.Rules)
		log.Printf("loaded %d rules from %s", len(set.Rules), cfg.RulesFile)
	}

	m := metrics.New()
	mw := middleware.New(middleware.Options{
		Config:     func() shield.Config { return cfg.Shield },
		Rules:      source,
		AutoBlock:  cfg.AutoBlock,
		RateWindow: cfg.RateWindow.Std(),
		Metrics:    m,
	})

	var next http.Handler
	if *backend != "" {
		target, err := url.Parse(*backend)
		if err != nil {
			fatal(err)
		}
		next = httputil.NewSingleHostReverseProxy(target)
	} else {
		next = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = fmt.Fprintln(w, "admitted")
		})
	}

	mux := http.NewServeMux()
	mux.Handle(*metricsPath, m.Handler())
	mux.Handle("/", mw.Wrap(next))

	server := &http.Server{
		Addr:         *listen,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Printf("shield %s serving on %s (mode=%s)", defaults.Version, *listen, cfg.Shield.Mode)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
