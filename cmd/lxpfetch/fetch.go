package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"lxpfetch/pkg/config"
	"lxpfetch/pkg/crawler"
	apperrors "lxpfetch/pkg/errors"
	"lxpfetch/pkg/logger"
	"lxpfetch/pkg/lxp"
	"lxpfetch/pkg/models"
	"lxpfetch/pkg/ratelimit"
	"lxpfetch/pkg/retry"
)

var (
	// Fetch command flags
	subjectID       int64
	outputFormat    string
	outputDir       string
	platformDomain  string
	platformBaseURL string
	credentialsFile string
	concurrency     int
	overwrite       bool
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download course materials",
	Long: `Download course materials from the platform.

The command signs in, discovers every subject you are enrolled in (or a
single one with --subject), and downloads each lesson. In markdown mode the
lesson text is converted to Markdown and its embedded photos and documents
are saved next to it; in json mode the raw platform payloads are written
instead and no extra files are downloaded.

Interrupting with Ctrl-C stops cleanly: finished files are kept, nothing is
left half-written, and the summary shows what was cancelled.`,
	Example: `  # Download every subject as Markdown
  lxpfetch fetch --domain ithub --credentials creds.json

  # One subject only, as raw JSON payloads
  lxpfetch fetch --domain ithub --credentials creds.json --subject 1580 --format json

  # Custom output directory with more workers
  lxpfetch fetch --domain ithub --credentials creds.env --out ./materials --concurrency 6`,
	Args: cobra.NoArgs,
	Run:  runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().Int64Var(&subjectID, "subject", 0, "download a single subject by id (default: all enrolled)")
	fetchCmd.Flags().StringVarP(&outputFormat, "format", "m", "", "output format: markdown or json")
	fetchCmd.Flags().StringVarP(&outputDir, "out", "o", "", "output directory (default ./out)")
	fetchCmd.Flags().StringVarP(&platformDomain, "domain", "d", "", "platform franchise domain (ithub, vvsu, rostov, ekat, caspian)")
	fetchCmd.Flags().StringVar(&platformBaseURL, "base-url", "", "full platform base URL (overrides --domain)")
	fetchCmd.Flags().StringVar(&credentialsFile, "credentials", "", "credentials file (.json or dotenv)")
	fetchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent downloads")
	fetchCmd.Flags().BoolVar(&overwrite, "overwrite", false, "re-download files that already exist")
}

func runFetch(cmd *cobra.Command, args []string) {
	flags := platformFlags()
	if subjectID > 0 {
		flags["subject"] = subjectID
	}
	if outputFormat != "" {
		flags["format"] = outputFormat
	}
	if outputDir != "" {
		flags["out"] = outputDir
	}
	if concurrency > 0 {
		flags["concurrency"] = concurrency
	}
	if overwrite {
		flags["overwrite"] = true
	}

	cfg := loadConfig(flags)
	log := setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := signIn(ctx, cfg, log)

	discoverer := crawler.NewDiscoverer(client, cfg, log)
	tree, err := discoverer.Discover(ctx, cfg.Download.Subject)
	if err != nil {
		log.WithError(err).Error("discovery failed")
		fmt.Fprintln(os.Stderr, "Discovery failed:", err)
		exitFor(err)
	}

	coordinator, err := crawler.NewCoordinator(client, cfg, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to prepare the run:", err)
		exitFor(err)
	}

	report, err := coordinator.Run(ctx, tree)
	printSummary(report)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Run aborted:", err)
		exitFor(err)
	}
	if report.HasFailures() || len(report.SubjectErrors) > 0 {
		os.Exit(1)
	}
}

// platformFlags collects the flag overrides shared by fetch and subjects
func platformFlags() map[string]interface{} {
	flags := make(map[string]interface{})
	if platformDomain != "" {
		flags["domain"] = platformDomain
	}
	if platformBaseURL != "" {
		flags["base-url"] = platformBaseURL
	}
	if credentialsFile != "" {
		flags["credentials"] = credentialsFile
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	return flags
}

func loadConfig(flags map[string]interface{}) *config.Config {
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(2)
	}
	return cfg
}

func setupLogger(cfg *config.Config) logger.Logger {
	level := cfg.Logging.Level
	if quiet {
		level = "error"
	}
	if err := logger.Initialize(&logger.Config{Level: level, File: cfg.Logging.File}); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to initialize logging:", err)
		os.Exit(2)
	}

	log := logger.GetLogger()
	log.WithField("version", version).Info("lxpfetch starting")
	return log
}

// signIn resolves credentials, prompting for the password when it is the
// only missing piece, and opens the platform session.
func signIn(ctx context.Context, cfg *config.Config, log logger.Logger) *lxp.Client {
	login, password, err := cfg.ResolveCredentials()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to read credentials:", err)
		os.Exit(2)
	}
	if login == "" {
		fmt.Fprintln(os.Stderr, "No login configured.")
		fmt.Fprintln(os.Stderr, "Provide a credentials file via --credentials, or set LXPFETCH_LOGIN and LXPFETCH_PASSWORD.")
		os.Exit(2)
	}
	if password == "" {
		password, err = promptPassword(login)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Failed to read password:", err)
			os.Exit(2)
		}
	}

	baseURL, err := cfg.BaseURL()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	limiter := ratelimit.New(cfg.RateLimit.Strategy, cfg.RateLimit.RequestsPerSecond)
	client := lxp.NewClient(baseURL, time.Duration(cfg.Platform.Timeout), limiter, log)

	creds := models.Credentials{Login: login, Password: password}
	err = retry.Do(ctx, func() error {
		return client.Login(ctx, creds)
	}, crawler.RetryConfig(cfg, log))
	if err != nil {
		log.WithError(err).Error("sign-in failed")
		fmt.Fprintln(os.Stderr, "Sign-in failed:", err)
		exitFor(err)
	}

	return client
}

// promptPassword asks for the password interactively when the credentials
// source only provided a login
func promptPassword(login string) (string, error) {
	fmt.Printf("Password for %s: ", login)

	if term.IsTerminal(int(syscall.Stdin)) {
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return "", err
		}
		return string(password), nil
	}

	// Not a terminal, read a line instead
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

func printSummary(report *models.RunReport) {
	if report == nil || quiet {
		return
	}

	fmt.Printf("\nDone in %s: %d written, %d skipped, %d failed, %d cancelled\n",
		report.Duration().Round(time.Millisecond),
		report.Written, report.Skipped, report.Failed, report.Cancelled)

	if len(report.SubjectErrors) > 0 {
		fmt.Println("\nSubjects that could not be discovered:")
		for _, subjectErr := range report.SubjectErrors {
			fmt.Printf("  %d %s: %v\n", subjectErr.SubjectID, subjectErr.Title, subjectErr.Err)
		}
	}

	const maxListed = 20
	failed := 0
	for _, outcome := range report.Outcomes {
		if outcome.Status != models.StatusFailed {
			continue
		}
		failed++
		if failed == 1 {
			fmt.Println("\nFailed items:")
		}
		if failed > maxListed {
			continue
		}
		name := outcome.Item.Title
		if name == "" {
			name = fmt.Sprintf("%s %d", outcome.Item.Kind, outcome.Item.ID)
		}
		fmt.Printf("  %s: %v\n", name, outcome.Err)
	}
	if failed > maxListed {
		fmt.Printf("  ... and %d more\n", failed-maxListed)
	}
}

// exitFor maps an error to the process exit code: 2 for fatal configuration
// and credential problems, 1 for everything else
func exitFor(err error) {
	if apperrors.IsFatal(err) {
		os.Exit(2)
	}
	os.Exit(1)
}
