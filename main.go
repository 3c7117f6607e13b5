// jiratrans — bilingual markup-preserving translation for Jira tickets.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"jiratrans/config"
	"jiratrans/engine"
	"jiratrans/jira"
	"jiratrans/server"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flag
// ---------------------------------------------------------------------------

var configPath string

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "jiratrans",
		Short: "Bilingual Jira ticket translation (Korean <-> English)",
		Long: `jiratrans — bilingual markup-preserving translation for Jira tickets.

Fetches a ticket, detects the source language, translates summary,
description, and reproduction steps through an OpenAI-compatible service,
and rebuilds each field as a bilingual block: original lines kept verbatim,
translated lines interleaved with a color marker. Images, attachments,
tables, and code blocks survive untouched.

Commands:
  translate   Translate one ticket (preview by default, --update to write back)
  serve       Run the HTTP translation endpoint
  version     Show version information

Configuration comes from an optional YAML file plus environment variables
(JIRA_URL, JIRA_EMAIL, JIRA_API_TOKEN, OPENAI_API_KEY).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global persistent flag — inherited by all subcommands
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")

	root.AddCommand(
		newTranslateCmd(),
		newServeCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version (display version information)
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("jiratrans version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}

	return cmd
}

// ---------------------------------------------------------------------------
// translate (one ticket)
// ---------------------------------------------------------------------------

func newTranslateCmd() *cobra.Command {
	var (
		update bool
		target string
		fields []string
	)

	cmd := &cobra.Command{
		Use:   "translate <issue-key-or-url>",
		Short: "Translate one ticket",
		Long: `Translate one Jira ticket into a bilingual representation.

The argument is an issue key (P2-70735) or a full ticket URL. Without
--update the result is printed as a preview and nothing is written back.

Fields default to summary, description, and the project's reproduction-steps
custom field. Already-bilingual fields are detected and left alone, so the
command is safe to re-run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(args[0], fields, target, update)
		},
	}

	cmd.Flags().BoolVar(&update, "update", false, "Write the translated fields back to Jira")
	cmd.Flags().StringVar(&target, "target", "", "Force target language (en, ko)")
	cmd.Flags().StringSliceVar(&fields, "fields", nil, "Fields to translate (summary, description, customfield_<id>)")

	return cmd
}

func runTranslate(arg string, fields []string, target string, update bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	issueKey := strings.TrimSpace(arg)
	if !jira.IsIssueKey(issueKey) {
		baseURL, key, err := jira.ParseIssueURL(arg)
		if err != nil {
			return fmt.Errorf("argument %q is neither an issue key nor a ticket url: %w", arg, err)
		}
		issueKey = key
		if cfg.JiraURL == "" {
			cfg.JiraURL = baseURL
		}
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	eng := newEngine(cfg, target)

	// Setup signal handling for graceful cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		logWarning("Interrupted, cancelling...")
		cancel()
	}()

	result, err := eng.TranslateIssue(ctx, issueKey, fields, update)
	if err != nil {
		return err
	}

	printResult(result)

	if update {
		if result.Updated {
			logSuccess("%s updated (%d field(s))", result.IssueKey, len(result.Payload))
		} else {
			logInfo("%s: nothing to update", result.IssueKey)
		}
	} else if len(result.Payload) > 0 {
		logInfo("preview only, re-run with --update to write back")
	}
	return nil
}

func printResult(result *engine.IssueResult) {
	fmt.Fprintf(os.Stderr, "\n%s%s%s\n", colorBlue, result.IssueKey, colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))

	fieldNames := make([]string, 0, len(result.Fields))
	for field := range result.Fields {
		fieldNames = append(fieldNames, field)
	}
	sort.Strings(fieldNames)

	for _, field := range fieldNames {
		fmt.Fprintf(os.Stderr, "\n%s%s%s\n", colorGreen, field, colorReset)
		fmt.Fprintln(os.Stderr, result.Fields[field].Formatted)
	}

	skipped := make([]string, 0, len(result.Skipped))
	for field, reason := range result.Skipped {
		skipped = append(skipped, fmt.Sprintf("%s (%s)", field, reason))
	}
	if len(skipped) > 0 {
		sort.Strings(skipped)
		fmt.Fprintf(os.Stderr, "\nSkipped: %s\n", strings.Join(skipped, ", "))
	}
}

// ---------------------------------------------------------------------------
// serve (HTTP endpoint)
// ---------------------------------------------------------------------------

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP translation endpoint",
		Long: `Run an HTTP server exposing the translation pipeline.

POST /translate accepts {"issue_key": ..., "issue_url": ...,
"fields_to_translate": ..., "update": ...} and responds with the translated
field payload. GET /healthz answers 200 for probes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")

	return cmd
}

func runServe(addr string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	srv := server.New(newEngine(cfg, ""))
	srv.OnLog = logInfo
	srv.OnError = logError

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		logWarning("Interrupted, shutting down...")
		cancel()
	}()

	return srv.ListenAndServe(ctx, addr)
}

// ---------------------------------------------------------------------------
// Wiring
// ---------------------------------------------------------------------------

func newEngine(cfg *config.Config, target string) *engine.Engine {
	service := engine.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel)
	tickets := jira.NewClient(cfg.JiraURL, cfg.JiraEmail, cfg.JiraAPIToken)

	return engine.New(service, tickets, cfg, engine.Options{
		Retries:        cfg.BatchRetries,
		TargetLanguage: target,
		OnLog:          logInfo,
		OnError:        logWarning,
	})
}
