// tstrans — interactive translator for Qt Linguist TS files with AI proposals.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/qt-l10n/tstrans/check"
	"github.com/qt-l10n/tstrans/config"
	"github.com/qt-l10n/tstrans/i18n"
	"github.com/qt-l10n/tstrans/session"
	"github.com/qt-l10n/tstrans/translate"
	"github.com/qt-l10n/tstrans/tsfile"
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
// Root command
// ---------------------------------------------------------------------------

type rootArgs struct {
	openaiURL      string
	openaiToken    string
	openaiModel    string
	debug          bool
	translateEmpty bool
	timeout        time.Duration
	proxy          string
}

func newRootCmd() *cobra.Command {
	var a rootArgs

	root := &cobra.Command{
		Use:   "tstrans [flags] TS_FILE",
		Short: "Interactive AI-assisted translator for Qt Linguist TS files",
		Long: `tstrans — interactive translator for Qt Linguist TS files.

Walks a .ts file, finds translations marked unfinished (and, with
--translate-empty, empty finished ones), asks an OpenAI-compatible
chat-completion endpoint for a proposal per entry, and lets you accept,
skip, edit, or quit. Accepted translations are patched into the file
in place with the unfinished marker cleared; progress is saved after
every accepted entry and on interrupt.

The API token is taken from --openai-token, or from OPENAI_API_TOKEN /
OPENAI_API_KEY in the environment or a .env file next to the TS file.
A .tstrans.yaml in the same directory supplies endpoint, model, timeout,
and language defaults.

Commands:
  check       Report structural issues in a TS file (read-only)
  version     Show version information`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(cmd, args[0], a)
		},
	}

	root.Flags().StringVar(&a.openaiURL, "openai-url", "", "Chat-completions endpoint (default "+translate.DefaultBaseURL+")")
	root.Flags().StringVar(&a.openaiToken, "openai-token", "", "API token (or OPENAI_API_TOKEN / OPENAI_API_KEY)")
	root.Flags().StringVar(&a.openaiModel, "openai-model", "", "Model to use (default "+translate.DefaultModel+")")
	root.Flags().BoolVar(&a.debug, "debug", false, "Enable debug output (full request/response detail)")
	root.Flags().BoolVar(&a.translateEmpty, "translate-empty", false, "Also offer empty translations without the unfinished marker")
	root.Flags().DurationVar(&a.timeout, "timeout", 0, "Per-request timeout (default 60s)")
	root.Flags().StringVar(&a.proxy, "proxy", "", "HTTP/HTTPS proxy URL")

	root.AddCommand(
		newCheckCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// translate (root run)
// ---------------------------------------------------------------------------

func runTranslate(cmd *cobra.Command, tsPath string, a rootArgs) error {
	dir := filepath.Dir(tsPath)

	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}
	if cfg == nil {
		cfg = &config.File{}
	}

	// Flags win over config, config over built-in defaults.
	baseURL := firstNonEmpty(a.openaiURL, cfg.APIURL, translate.DefaultBaseURL)
	model := firstNonEmpty(a.openaiModel, cfg.Model, translate.DefaultModel)
	proxy := firstNonEmpty(a.proxy, cfg.Proxy)
	timeout := a.timeout
	if timeout == 0 && cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	translateEmpty := a.translateEmpty || cfg.TranslateEmpty

	token := a.openaiToken
	if token == "" {
		token = config.Token(dir)
	}
	if token == "" {
		return errors.New("OpenAI API token required: use --openai-token or set OPENAI_API_TOKEN")
	}

	doc, err := tsfile.ParseFile(tsPath)
	if err != nil {
		if a.debug {
			logError("%+v", err)
		}
		return err
	}

	language := firstNonEmpty(cfg.Language, doc.Language)
	if language == "" {
		return fmt.Errorf("%s: could not determine target language (no language attribute; set language in %s)", tsPath, config.FileName)
	}
	langName := translate.LangName(language)

	logInfo("Processing TS file: %s", tsPath)
	logInfo("Target language: %s (%s)", language, langName)
	logInfo("Model: %s", model)
	logInfo("Endpoint: %s", translate.NormalizeEndpoint(baseURL))
	if translateEmpty {
		logInfo("Translating unfinished and empty translations")
	} else {
		logInfo("Translating unfinished translations only (use --translate-empty to include empty ones)")
	}

	entries, warns := doc.Pending(translateEmpty)
	for _, w := range warns {
		if w.ContextName != "" {
			logWarning("%s: %s", w.ContextName, w.Reason)
		} else {
			logWarning("%s", w.Reason)
		}
	}
	if len(entries) == 0 {
		logSuccess("No translations need attention.")
		return nil
	}
	logInfo("%d translation(s) need attention", len(entries))

	// Graceful interrupt: cancel the session, save applied changes, exit 0.
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		logWarning("Interrupted, saving progress...")
		cancel()
	}()

	prov := translate.Provider{
		BaseURL: baseURL,
		APIKey:  token,
		Model:   model,
		Proxy:   proxy,
		Timeout: timeout,
		Verbose: a.debug,
	}

	save := func() error { return doc.WriteFile(tsPath) }

	sess := &session.Session{
		In:  os.Stdin,
		Out: os.Stderr,
		Translate: func(ctx context.Context, e *tsfile.Entry) (*translate.Proposal, error) {
			return translate.Translate(ctx, prov, translate.Request{
				Source:         e.Source(),
				Context:        e.ContextName,
				Comment:        e.Comment(),
				ExtraComment:   e.ExtraComment(),
				TargetLanguage: langName,
			})
		},
		Save:    save,
		OnWarn:  logWarning,
		OnError: logError,
	}

	res, runErr := sess.Run(ctx, entries)

	if doc.Dirty() {
		if err := save(); err != nil {
			return err
		}
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			logWarning("Session interrupted, %d applied translation(s) saved", res.Applied)
			return nil
		}
		return runErr
	}

	if res.Quit {
		logSuccess("Saved %d translation(s) out of %d", res.Applied, res.Total)
		return nil
	}
	logSuccess("Completed! Processed %d out of %d translation(s)", res.Applied, res.Total)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// ---------------------------------------------------------------------------
// check (read-only structural validation)
// ---------------------------------------------------------------------------

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check TS_FILE",
		Short: "Report structural issues in a TS file",
		Long: `Scan a TS file for structural issues: contexts without names, messages
without source or translation elements, and empty required text. The file
is never modified.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := tsfile.ParseFile(args[0])
			if err != nil {
				return err
			}

			issues := check.Document(doc)
			if len(issues) == 0 {
				logSuccess("%s: no structural issues found", args[0])
				return nil
			}

			for _, issue := range issues {
				logWarning("%s", issue)
			}
			return fmt.Errorf("%s: %d structural issue(s) found", args[0], len(issues))
		},
	}

	return cmd
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
			fmt.Printf("tstrans version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}

	return cmd
}
