package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/open-peripheral-systems/device-console/components/ai/aicore"
	"github.com/open-peripheral-systems/device-console/components/ai/aigemini"
	"github.com/open-peripheral-systems/device-console/components/core"
	"github.com/open-peripheral-systems/device-console/components/device/devnet"
	"github.com/open-peripheral-systems/device-console/components/device/devreg"
	"github.com/open-peripheral-systems/device-console/components/device/devusb"
	"github.com/open-peripheral-systems/device-console/components/http/htconsole"
	"github.com/open-peripheral-systems/device-console/components/http/htcore"
	"github.com/open-peripheral-systems/device-console/components/scan"
	"github.com/open-peripheral-systems/device-console/components/storage/stcore"
	"github.com/open-peripheral-systems/device-console/components/storage/stinfluxdb"
	"github.com/open-peripheral-systems/device-console/components/system/syssched"
)

type appOptions struct {
	logPath string

	httpHost string
	httpPort int

	dbPath string

	usbEnabled      bool
	usbSimFile      string
	usbPollInterval time.Duration

	netLatency time.Duration

	aiAPIKey     string
	aiBaseURL    string
	aiModel      string
	aiImageModel string

	influxParams stinfluxdb.DbParams
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &appOptions{}

	cmd := &cobra.Command{
		Use:          "device-console",
		Short:        "Printer/scanner device console with AI-assisted document analysis",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()

	flags.StringVar(&opts.logPath, "log-path",
		os.Getenv("DEVICE_CONSOLE_LOG_PATH"), "log file path, stderr if empty")

	flags.StringVar(&opts.httpHost, "http-host",
		os.Getenv("DEVICE_CONSOLE_HTTP_HOST"), "HTTP API host")
	flags.IntVar(&opts.httpPort, "http-port",
		envInt("DEVICE_CONSOLE_HTTP_PORT", 8090), "HTTP API port, 0 for a random free port")

	flags.StringVar(&opts.dbPath, "db-path",
		os.Getenv("DEVICE_CONSOLE_DB_PATH"), "bbolt database path, persistence disabled if empty")

	flags.BoolVar(&opts.usbEnabled, "usb", true, "enable USB device discovery")
	flags.StringVar(&opts.usbSimFile, "usb-sim-file",
		os.Getenv("DEVICE_CONSOLE_USB_SIM_FILE"),
		"JSON file with simulated USB devices, overrides libusb discovery")
	flags.DurationVar(&opts.usbPollInterval, "usb-poll-interval",
		time.Second*2, "how often to enumerate USB devices")

	flags.DurationVar(&opts.netLatency, "net-latency",
		time.Millisecond*800, "simulated network round-trip of device registration")

	flags.StringVar(&opts.aiAPIKey, "ai-api-key",
		os.Getenv("DEVICE_CONSOLE_AI_API_KEY"),
		"generative AI API key, placeholder mode if empty")
	flags.StringVar(&opts.aiBaseURL, "ai-base-url",
		os.Getenv("DEVICE_CONSOLE_AI_BASE_URL"), "generative AI API endpoint")
	flags.StringVar(&opts.aiModel, "ai-model",
		envString("DEVICE_CONSOLE_AI_MODEL", "gemini-2.5-flash"), "text/vision model")
	flags.StringVar(&opts.aiImageModel, "ai-image-model",
		envString("DEVICE_CONSOLE_AI_IMAGE_MODEL", "imagen-3.0-generate-002"),
		"image generation model")

	flags.StringVar(&opts.influxParams.URL, "influx-url",
		os.Getenv("INFLUXDB_URL"), "InfluxDB URL, event journal disabled if empty")
	flags.StringVar(&opts.influxParams.Org, "influx-org",
		os.Getenv("INFLUXDB_ORG"), "InfluxDB organization")
	flags.StringVar(&opts.influxParams.Bucket, "influx-bucket",
		os.Getenv("INFLUXDB_BUCKET"), "InfluxDB bucket")
	flags.StringVar(&opts.influxParams.Token, "influx-token",
		os.Getenv("INFLUXDB_API_TOKEN"), "InfluxDB API token")

	return cmd
}

func run(parentCtx context.Context, opts *appOptions) error {
	if opts.logPath != "" {
		if err := core.SetLogFile(opts.logPath); err != nil {
			fmt.Fprintln(os.Stderr, "Failed to setup log file:", err)
		}
	}

	appCtx, cancelFunc := signal.NotifyContext(parentCtx,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)
	defer cancelFunc()

	fanoutCloser := &core.FanoutCloser{}
	defer fanoutCloser.Close()

	networkDB, scanDB, extractionDB, settingsDB, err := openStorage(opts, fanoutCloser)
	if err != nil {
		return err
	}

	registry := devreg.NewRegistry()

	var recorder scan.Recorder

	if opts.influxParams.Valid() {
		journal := stinfluxdb.NewJournal(appCtx, opts.influxParams)
		fanoutCloser.Add("influxdb-journal", journal)

		registry.Subscribe(journal)
		recorder = journal
	}

	manager := devnet.NewManager(registry, networkDB, devnet.ManagerParams{
		Latency: opts.netLatency,
	})

	host, err := openHost(opts, fanoutCloser)
	if err != nil {
		return err
	}

	bridge := devusb.NewBridge(appCtx, host, registry, devusb.BridgeParams{
		PollInterval: opts.usbPollInterval,
	})
	fanoutCloser.Add("usb-bridge", core.FuncCloser(bridge.Stop))

	history := scan.NewHistory(scanDB)

	runner := scan.NewRunner(registry, history, scan.RunnerParams{
		Duration: time.Second,
		Recorder: recorder,
	})

	handler := htconsole.NewHandler(htconsole.HandlerParams{
		Registry:    registry,
		Manager:     manager,
		Controller:  devusb.NewController(registry),
		Bridge:      bridge,
		Runner:      runner,
		History:     history,
		Extractions: scan.NewExtractionHistory(extractionDB),
		AI:          newAIClient(opts),
		Settings:    settingsDB,
	})

	server, err := htcore.NewServer(handler.Router(), htcore.ServerParams{
		Host: opts.httpHost,
		Port: opts.httpPort,
	})
	if err != nil {
		return err
	}
	fanoutCloser.Add("http-server", server)

	starter := &syssched.FanoutStarter{}
	starter.Add(bridge)
	starter.Add(server)

	if err := starter.Start(); err != nil {
		return err
	}

	core.LogInf.Printf("device-console: started: url=%s\n", server.URL())

	<-appCtx.Done()

	return nil
}

func openStorage(
	opts *appOptions,
	closer *core.FanoutCloser,
) (networkDB, scanDB, extractionDB, settingsDB stcore.DB, err error) {
	if opts.dbPath == "" {
		core.LogWrn.Printf("device-console: persistence disabled: no database path\n")

		noop := stcore.NoopDB{}

		return noop, noop, noop, noop, nil
	}

	db, err := stcore.NewBboltDB(opts.dbPath, nil)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	closer.Add("bbolt-database", core.FuncCloser(db.Close))

	return stcore.NewBboltDBBucket(db, stcore.BucketNetworkDevices),
		stcore.NewBboltDBBucket(db, stcore.BucketScanHistory),
		stcore.NewBboltDBBucket(db, stcore.BucketExtractionHistory),
		stcore.NewBboltDBBucket(db, stcore.BucketSettings),
		nil
}

func openHost(opts *appOptions, closer *core.FanoutCloser) (devusb.Host, error) {
	if opts.usbSimFile != "" {
		host, err := devusb.NewSimHostFromFile(opts.usbSimFile)
		if err != nil {
			return nil, err
		}

		core.LogInf.Printf("device-console: using simulated USB host: file=%s\n",
			opts.usbSimFile)

		return host, nil
	}

	if !opts.usbEnabled {
		return devusb.UnsupportedHost{}, nil
	}

	host := devusb.NewGousbHost()
	closer.Add("usb-host", host)

	return host, nil
}

func newAIClient(opts *appOptions) aicore.Client {
	if opts.aiAPIKey == "" {
		core.LogWrn.Printf("device-console: no AI API key, placeholder responses enabled\n")

		return aicore.Placeholder{}
	}

	return aigemini.NewClient(aigemini.ClientParams{
		BaseURL:    opts.aiBaseURL,
		APIKey:     opts.aiAPIKey,
		Model:      opts.aiModel,
		ImageModel: opts.aiImageModel,
	})
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return fallback
}

func envInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}

	return parsed
}
