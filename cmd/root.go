package cmd

import (
	"context"
	"fmt"
	u "net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tanq16/rangedl/internal/config"
	"github.com/tanq16/rangedl/internal/output"
	"github.com/tanq16/rangedl/internal/resolver"
	"github.com/tanq16/rangedl/internal/scheduler"
	s3store "github.com/tanq16/rangedl/internal/storage/s3"
	"github.com/tanq16/rangedl/internal/utils"
)

var (
	connections   int
	timeout       time.Duration
	kaTimeout     time.Duration
	userAgent     string
	proxyURL      string
	proxyUsername string
	proxyPassword string
	headers       []string
	bearerToken   string
	deadline      time.Duration
	uploadURI     string
	s3Profile     string
	configPath    string
	logFile       string
	debug         bool
)

var cfg = config.Default()

var RangedlVersion = "dev"

var rootCmd = &cobra.Command{
	Use:     "rangedl [URL]",
	Short:   "rangedl downloads a file over parallel HTTP byte ranges",
	Version: RangedlVersion,
	Args:    cobra.MaximumNArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		utils.InitLogger(debug, logFile)
		return loadConfig(cmd)
	},
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			cmd.Help()
			return
		}
		outputPath, _ := cmd.Flags().GetString("output")
		runSingle(utils.DownloadJob{
			SourceURL:  args[0],
			OutputPath: outputPath,
		}, "")
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringP("output", "o", "", "Output file or directory (name inferred from the server or URL if not provided)")

	rootCmd.PersistentFlags().IntVarP(&connections, "connections", "c", utils.DefaultConnections, "Number of parallel range connections")
	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "t", 3*time.Minute, "Time to wait for response headers (eg. 5s, 10m)")
	rootCmd.PersistentFlags().DurationVarP(&kaTimeout, "keep-alive-timeout", "k", 90*time.Second, "Keep-alive timeout for client (eg. 10s, 1m, 80s)")
	rootCmd.PersistentFlags().StringVarP(&userAgent, "user-agent", "a", utils.ToolUserAgent, "User agent (\"randomize\" picks a browser agent)")
	rootCmd.PersistentFlags().StringVarP(&proxyURL, "proxy", "p", "", "HTTP/HTTPS proxy URL (e.g., proxy.example.com:8080)")
	rootCmd.PersistentFlags().StringVar(&proxyUsername, "proxy-username", "", "Proxy username (if not provided in proxy URL)")
	rootCmd.PersistentFlags().StringVar(&proxyPassword, "proxy-password", "", "Proxy password (if not provided in proxy URL)")
	rootCmd.PersistentFlags().StringArrayVarP(&headers, "header", "H", []string{}, "Custom headers (like 'Cookie: a=b'); can be specified multiple times")
	rootCmd.PersistentFlags().StringVar(&bearerToken, "bearer-token", "", "Bearer token sent with every request")
	rootCmd.PersistentFlags().DurationVar(&deadline, "deadline", 0, "Overall deadline per download, 0 for none")
	rootCmd.PersistentFlags().StringVar(&uploadURI, "upload", "", "Upload the finished file to s3://bucket/key")
	rootCmd.PersistentFlags().StringVar(&s3Profile, "profile", "", "AWS shared config profile for uploads")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write JSON logs to a rotated file instead of stderr")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newYtCmd())
	rootCmd.AddCommand(newResolveCmd())
	rootCmd.AddCommand(newBatchCmd())
	rootCmd.AddCommand(newCleanCmd())
}

// loadConfig reads the config file, if any, and lets explicitly set flags
// override it.
func loadConfig(cmd *cobra.Command) error {
	cfg = config.Default()
	if configPath != "" {
		loaded, err := config.LoadFromFile(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	flags := cmd.Flags()
	if flags.Changed("connections") {
		if connections <= 0 {
			return fmt.Errorf("%w: --connections must be positive", utils.ErrInvalidInput)
		}
		cfg.Connections = connections
	}
	if flags.Changed("timeout") {
		cfg.Timeout = timeout
	}
	if flags.Changed("user-agent") {
		cfg.UserAgent = userAgent
	}
	if flags.Changed("profile") {
		cfg.S3.Profile = s3Profile
	}
	if cfg.UserAgent == "randomize" {
		cfg.UserAgent = utils.GetRandomUserAgent()
	}
	log.Debug().Str("op", "cmd/root").Int("connections", cfg.Connections).Dur("timeout", cfg.Timeout).Msg("configuration loaded")
	return nil
}

func httpClientConfig() utils.HTTPClientConfig {
	proxy, user, pass := proxyURL, proxyUsername, proxyPassword
	// credentials embedded in the proxy URL are passed separately
	parsedProxy, err := u.Parse(proxy)
	if err == nil && parsedProxy.User != nil && user == "" {
		user = parsedProxy.User.Username()
		if password, set := parsedProxy.User.Password(); set {
			pass = password
		}
		parsedProxy.User = nil
		proxy = parsedProxy.String()
	}
	return utils.HTTPClientConfig{
		Timeout:        cfg.Timeout,
		KATimeout:      kaTimeout,
		ProxyURL:       proxy,
		ProxyUsername:  user,
		ProxyPassword:  pass,
		UserAgent:      cfg.UserAgent,
		BearerToken:    bearerToken,
		Headers:        utils.ParseHeaderArgs(headers),
		HighThreadMode: cfg.Connections > utils.HighThreadModeCutoff,
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// buildDeps wires the collaborators a set of jobs needs. The resolver and
// publisher are only created when some job uses them.
func buildDeps(ctx context.Context, jobs []utils.DownloadJob, format string) (scheduler.Deps, error) {
	deps := scheduler.Deps{
		Client:          utils.NewRangeHTTPClient(httpClientConfig()),
		Resolver:        resolver.Direct{},
		Dashboard:       os.Stdout,
		RefreshInterval: cfg.RefreshInterval,
		BarWidth:        cfg.BarWidth,
		BufferSize:      cfg.BufferSize,
		Deadline:        deadline,
	}
	var needResolver, needPublisher bool
	for _, job := range jobs {
		needResolver = needResolver || job.Resolve
		needPublisher = needPublisher || job.UploadURI != ""
	}
	if needResolver {
		r, err := newResolver(ctx, format)
		if err != nil {
			return deps, err
		}
		deps.Resolver = r
	}
	if needPublisher {
		p, err := s3store.NewPublisher(ctx, cfg.S3.Profile, cfg.Connections)
		if err != nil {
			return deps, err
		}
		deps.Publisher = p
	}
	return deps, nil
}

func newResolver(ctx context.Context, format string) (*resolver.YtdlpResolver, error) {
	if format == "" {
		format = cfg.Ytdlp.Format
	}
	cacheDir := cfg.Ytdlp.CacheDir
	if cacheDir == "" {
		cacheDir = utils.TempDirName
	}
	return resolver.NewYtdlpResolver(ctx, cfg.Ytdlp.Path, format, cacheDir)
}

// runSingle downloads one job with the dashboard on stdout and exits non-zero
// on failure.
func runSingle(job utils.DownloadJob, format string) {
	ctx, stop := signalContext()
	defer stop()
	job.Connections = cfg.Connections
	if job.UploadURI == "" {
		job.UploadURI = uploadURI
	}
	deps, err := buildDeps(ctx, []utils.DownloadJob{job}, format)
	if err != nil {
		output.PrintError(fmt.Sprintf("%s: %v", utils.Kind(err), err))
		os.Exit(1)
	}
	res := scheduler.RunJob(ctx, job, deps)
	fmt.Println()
	if res.Err != nil {
		output.PrintError(fmt.Sprintf("%s during %s: %v", utils.Kind(res.Err), res.State, res.Err))
		os.Exit(1)
	}
	output.PrintSuccess(fmt.Sprintf("Saved %s (%s)", res.Output, res.Duration.Round(time.Millisecond)))
	if res.Location != "" {
		output.PrintInfo(fmt.Sprintf("Uploaded to %s", res.Location))
	}
}
