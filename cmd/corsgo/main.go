package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"Corsgo/internal/ai"
	"Corsgo/internal/config"
	"Corsgo/internal/httpclient"
	"Corsgo/internal/logger"
	"Corsgo/internal/reporter"
	"Corsgo/internal/scanner"
	"Corsgo/internal/scanner/cors"
)

const reportsDir = "reports"

// main is the entry point of the Corsgo application.
func main() {
	log := logger.NewLogger(logger.INFO)
	startTime := time.Now()

	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Error("Failed to load config.yaml: %v", err)
		os.Exit(1)
	}
	level, err := configLevel(cfg)
	if err != nil {
		log.Warn("Ignoring log_level from config.yaml: %v", err)
	}
	log.SetMinLevel(level)

	var targetURLStr, targetsFile, attackerDomain, jsonOutputFile string
	var concurrency, maxRetries, delay, timeout int
	var rateLimit float64
	var noBaseline, verbose, trace, enableAI bool

	flag.StringVar(&targetURLStr, "u", cfg.Target, "Target URL to probe")
	flag.StringVar(&targetsFile, "l", cfg.TargetsFile, "File with one target URL per line")
	flag.IntVar(&concurrency, "c", cfg.Concurrency, "Number of concurrent workers")
	flag.IntVar(&maxRetries, "r", cfg.MaxRetries, "Maximum number of retries for failed requests")
	flag.IntVar(&delay, "delay", cfg.Delay, "Delay between retries in milliseconds (ms)")
	flag.IntVar(&timeout, "timeout", cfg.Timeout, "Per-request timeout in seconds")
	flag.Float64Var(&rateLimit, "rate", cfg.RateLimit, "Maximum requests per second (0 = unlimited)")
	flag.StringVar(&attackerDomain, "origin", cfg.CORS.AttackerDomain, "Attacker domain used to build Origin values")
	flag.BoolVar(&noBaseline, "no-baseline", !cfg.Baseline(), "Skip the probe without an Origin header")
	flag.StringVar(&jsonOutputFile, "output-json", cfg.Output.OutputFile, "Path to save the report file in JSON format")
	flag.BoolVar(&enableAI, "enable-ai", cfg.AI.Enabled, "Enable AI-powered analysis of findings")
	flag.BoolVar(&verbose, "v", false, "Enable verbose output (DEBUG level)")
	flag.BoolVar(&trace, "vv", false, "Enable trace-level output (every probe)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Corsgo probes web endpoints for exploitable Cross-Origin Resource Sharing misconfigurations.\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n\n", os.Args[0])

		fmt.Fprintf(os.Stderr, "TARGETS:\n")
		fmt.Fprintf(os.Stderr, "  -u string\n    \tTarget URL (e.g., \"https://app.example.com/api/me\")\n")
		fmt.Fprintf(os.Stderr, "  -l string\n    \tFile with one target URL per line ('#' starts a comment)\n")

		fmt.Fprintf(os.Stderr, "\nPROBING & PERFORMANCE:\n")
		fmt.Fprintf(os.Stderr, "  -origin string\n    \tAttacker domain for Origin values (default: %s)\n", cfg.CORS.AttackerDomain)
		fmt.Fprintf(os.Stderr, "  -no-baseline\n    \tSkip the probe without an Origin header\n")
		fmt.Fprintf(os.Stderr, "  -c int\n    \tNumber of concurrent workers (default: %d)\n", cfg.Concurrency)
		fmt.Fprintf(os.Stderr, "  -r int\n    \tMaximum number of retries for failed requests (default: %d)\n", cfg.MaxRetries)
		fmt.Fprintf(os.Stderr, "  -delay int\n    \tDelay between retries in milliseconds (default: %d)\n", cfg.Delay)
		fmt.Fprintf(os.Stderr, "  -timeout int\n    \tPer-request timeout in seconds (default: %d)\n", cfg.Timeout)
		fmt.Fprintf(os.Stderr, "  -rate float\n    \tMaximum requests per second, 0 for unlimited (default: %g)\n", cfg.RateLimit)

		fmt.Fprintf(os.Stderr, "\nOUTPUT & REPORTING:\n")
		fmt.Fprintf(os.Stderr, "  -output-json string\n    \tPath to save the report file in JSON format (e.g., report.json)\n")
		fmt.Fprintf(os.Stderr, "  -enable-ai\n    \tEnable AI-powered analysis of findings\n")
		fmt.Fprintf(os.Stderr, "  -v\n    \tEnable verbose output (DEBUG level)\n")
		fmt.Fprintf(os.Stderr, "  -vv\n    \tEnable trace-level output (highly verbose)\n")

		fmt.Fprintf(os.Stderr, "\nCONFIGURATION:\n")
		fmt.Fprintf(os.Stderr, "  Corsgo automatically loads 'config.yaml' from the current directory.\n")
		fmt.Fprintf(os.Stderr, "  Command-line flags override settings from the configuration file.\n")

		fmt.Fprintf(os.Stderr, "\nEXAMPLES:\n")
		fmt.Fprintf(os.Stderr, "  corsgo -u https://app.example.com/api/me\n")
		fmt.Fprintf(os.Stderr, "  corsgo -l targets.txt -c 20 -rate 10 -output-json cors.json\n\n")
	}

	flag.Parse()

	if trace {
		log.SetMinLevel(logger.TRACE)
		log.Info("Trace logging enabled (-vv).")
	} else if verbose && log.MinLevel() > logger.DEBUG {
		log.SetMinLevel(logger.DEBUG)
		log.Info("Debug logging enabled (-v).")
	}

	cfg.Target = targetURLStr
	cfg.TargetsFile = targetsFile
	cfg.Concurrency = concurrency
	cfg.MaxRetries = maxRetries
	cfg.Delay = delay
	cfg.Timeout = timeout
	cfg.RateLimit = rateLimit
	cfg.CORS.AttackerDomain = attackerDomain
	baseline := !noBaseline
	cfg.CORS.BaselineProbe = &baseline
	cfg.AI.Enabled = enableAI
	cfg.ApplyDefaults()

	targetList, err := cfg.AllTargets()
	if err != nil {
		if errors.Is(err, config.ErrNoTargets) {
			log.Error("Target URL is required.")
			flag.Usage()
		} else {
			log.Error("Failed to load targets: %v", err)
		}
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Starting Corsgo scan of %d target(s)...", len(targetList))

	clientOpts := httpclient.ClientOptions{
		Timeout:           time.Duration(cfg.Timeout) * time.Second,
		UserAgent:         cfg.UserAgent,
		FollowRedirects:   cfg.FollowRedirects,
		MaxRetries:        cfg.MaxRetries,
		RequestDelay:      time.Duration(cfg.Delay) * time.Millisecond,
		RequestsPerSecond: cfg.RateLimit,
		TargetBaseURL:     targetList[0],
	}
	if cfg.Authentication.Enabled {
		if len(targetList) > 1 && cfg.Authentication.Cookie != "" {
			log.Warn("Static cookie is scoped to %s only.", targetList[0])
		}
		clientOpts.AuthCookie = cfg.Authentication.Cookie
		clientOpts.AuthHeaders = cfg.Authentication.Headers
	} else {
		log.Info("Authentication is disabled.")
	}
	httpClient := httpclient.NewClient(log, clientOpts)

	scannerManager := scanner.NewManager(httpClient, log, scanner.ScannerOptions{
		Concurrency: cfg.Concurrency,
		Progress:    showProgress(log),
	})
	scannerManager.RegisterScanner(cors.NewCORSScanner(cors.Options{
		AttackerDomain: cfg.CORS.AttackerDomain,
		Baseline:       cfg.Baseline(),
		Method:         cfg.CORS.Method,
	}))

	targets := make([]scanner.Target, 0, len(targetList))
	for _, t := range targetList {
		targets = append(targets, scanner.Target{URL: t, Method: cfg.CORS.Method})
	}

	collector := reporter.NewCollector(log)
	log.Info("\n--- Initiating CORS Scan ---")
	scannerManager.RunScans(ctx, targets, collector)
	cancelled := ctx.Err() != nil

	findings := collector.Findings()
	log.Info("\n--- Scan Results ---")
	if len(findings) > 0 {
		log.Success("--------------------------------------------------")
		log.Info("Total unique vulnerabilities reported: %d", len(findings))
	} else {
		log.Info("No vulnerabilities found.")
	}

	if cfg.AI.Enabled && len(findings) > 0 && !cancelled {
		findings = analyzeWithAI(ctx, &cfg.AI, findings, log)
	}

	if jsonOutputFile != "" {
		fullReportPath := reportPath(jsonOutputFile)
		log.Info("Generating JSON report to %s...", fullReportPath)

		scannerNames := make([]string, 0, len(scannerManager.GetRegisteredScanners()))
		for _, s := range scannerManager.GetRegisteredScanners() {
			scannerNames = append(scannerNames, s.Name())
		}

		reportData := reporter.NewReport(targetList, startTime)
		reportData.Finalize(time.Now(), startTime, findings, scannerNames, cancelled)
		if err := reporter.WriteJSONReport(reportData, fullReportPath); err != nil {
			log.Error("Failed to write JSON report: %v", err)
		} else {
			log.Success("JSON report successfully saved to %s", fullReportPath)
		}
	}

	if cancelled {
		log.Warn("Corsgo scan interrupted.")
		os.Exit(130)
	}
	log.Info("Corsgo scan completed.")
}

// configLevel resolves the log level set by config.yaml. output.verbose wins over
// log_level; an unknown log_level falls back to INFO.
func configLevel(cfg *config.Config) (logger.LogLevel, error) {
	level, err := logger.ParseLevel(cfg.LogLevel)
	if cfg.Output.Verbose && level > logger.DEBUG {
		level = logger.DEBUG
	}
	return level, err
}

// showProgress reports whether the spinner can run without interleaving with
// DEBUG or TRACE lines, whichever of config.yaml or the flags enabled them.
func showProgress(log *logger.Logger) bool {
	return log.MinLevel() > logger.DEBUG
}

// reportPath places relative report paths under the reports directory.
func reportPath(outputFile string) string {
	if filepath.IsAbs(outputFile) || strings.HasPrefix(outputFile, reportsDir+string(os.PathSeparator)) {
		return outputFile
	}
	return filepath.Join(reportsDir, outputFile)
}

// analyzeWithAI attaches an AI analysis to every finding; failures keep the original finding.
func analyzeWithAI(ctx context.Context, cfg *config.AIConfig, vulns []scanner.VulnerabilityResult, log *logger.Logger) []scanner.VulnerabilityResult {
	log.Info("Analyzing vulnerabilities with AI...")
	aiClient, err := ai.NewAIClient(cfg)
	if err != nil {
		log.Error("Failed to initialize AI client: %v", err)
		return vulns
	}

	analyzed := make([]scanner.VulnerabilityResult, len(vulns))
	var wg sync.WaitGroup
	for i, vuln := range vulns {
		wg.Add(1)
		go func(index int, v scanner.VulnerabilityResult) {
			defer wg.Done()
			log.Debug("Sending vulnerability to AI for analysis: %s on %s", v.VulnerabilityType, v.URL)
			analysis, err := aiClient.AnalyzeVulnerability(ctx, v)
			if err != nil {
				log.Error("Failed to analyze vulnerability with AI: %v", err)
			} else {
				v.AIAnalysis = analysis
				log.Info("Successfully received AI analysis for %s on %s", v.VulnerabilityType, v.URL)
			}
			analyzed[index] = v
		}(i, vuln)
	}
	wg.Wait()
	return analyzed
}
