// Package tooling exposes the DEX checksum operations to other Go programs.
package tooling

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/deploymenttheory/go-dex-checksum/internal/composition"
	"github.com/deploymenttheory/go-dex-checksum/internal/config"
	"github.com/deploymenttheory/go-dex-checksum/internal/dex"
	"github.com/deploymenttheory/go-dex-checksum/internal/dexfile"
	"github.com/deploymenttheory/go-dex-checksum/internal/logger"
	"github.com/deploymenttheory/go-dex-checksum/internal/report"
	"github.com/deploymenttheory/go-dex-checksum/internal/utils/compressionutil"
	"github.com/deploymenttheory/go-dex-checksum/internal/utils/cryptoutil"
	"github.com/deploymenttheory/go-dex-checksum/internal/utils/vtutil"
)

// Version of the tooling API
const Version = "0.1.0"

// InitOptions contains options for initializing the tooling API
type InitOptions struct {
	ConfigFile  string // Path to configuration file
	Debug       bool   // Enable debug logging
	LogFormat   string // Log format: "human" or "json"
	LogFile     string // Path to log file
	ByteOrder   string // Checksum byte order: "big" or "little"
	SuppressLog bool   // Suppress all logging
}

// CheckResult is the checksum state of one file
type CheckResult struct {
	Path     string
	Stored   string // 0x-prefixed hex
	Expected string // 0x-prefixed hex
	Valid    bool
}

// CorrectResult is the outcome of a Correct call
type CorrectResult = dexfile.CorrectResult

// WorkflowResult contains the results of a workflow execution
type WorkflowResult struct {
	Success      bool                   // Whether the workflow completed successfully
	ErrorMessage string                 // Error message if any
	Variables    map[string]interface{} // Final state of variables after workflow execution
}

// LookupResult is the VirusTotal report for a DEX file
type LookupResult struct {
	SHA256 string
	Report *vtutil.FileReport
}

var (
	initialized bool
	initMutex   sync.Mutex

	// vtClient is shared by Lookup calls so its rate limiter and result
	// cache span the lifetime of the embedding program
	vtClient    *vtutil.Client
	vtClientKey string
	vtMutex     sync.Mutex
)

// Initialize initializes the tooling API with the given options. Later calls
// are no-ops.
func Initialize(options InitOptions) error {
	initMutex.Lock()
	defer initMutex.Unlock()

	if initialized {
		return nil
	}

	if err := config.Initialize(options.ConfigFile); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Update config with provided options
	if options.Debug {
		config.Instance.Debug = true
	}
	if options.LogFormat != "" {
		config.Instance.LogFormat = options.LogFormat
	}
	if options.LogFile != "" {
		config.Instance.LogFile = options.LogFile
	}
	if options.ByteOrder != "" {
		config.Instance.Checksum.ByteOrder = options.ByteOrder
	}

	if err := config.Instance.Validate(); err != nil {
		return err
	}

	if !options.SuppressLog {
		if err := logger.InitLogger(logger.LoggerConfig{
			Debug:     config.Instance.Debug,
			LogFormat: config.Instance.LogFormat,
			LogFile:   config.Instance.LogFile,
		}); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		logger.LogDebug("Tooling API initialized", map[string]interface{}{
			"config_file": config.ConfigFile,
			"byte_order":  config.Instance.Checksum.ByteOrder,
		})
	}

	initialized = true
	return nil
}

// DefaultOptions returns the default initialization options
func DefaultOptions() InitOptions {
	return InitOptions{
		LogFormat:   "human",
		SuppressLog: true,
	}
}

func ensureInitialized() error {
	initMutex.Lock()
	done := initialized
	initMutex.Unlock()

	if done {
		return nil
	}
	if err := Initialize(DefaultOptions()); err != nil {
		return fmt.Errorf("failed to initialize tooling API: %w", err)
	}
	return nil
}

func fileOptions() (dexfile.Options, error) {
	if err := ensureInitialized(); err != nil {
		return dexfile.Options{}, err
	}

	order, err := dex.ParseByteOrder(config.Instance.Checksum.ByteOrder)
	if err != nil {
		return dexfile.Options{}, err
	}
	level, err := compressionutil.ParseLevel(config.Instance.Compression.Level)
	if err != nil {
		return dexfile.Options{}, err
	}
	return dexfile.Options{ByteOrder: order, Level: level}, nil
}

// Check reports the stored and expected checksums of the DEX file at path
func Check(path string) (*CheckResult, error) {
	opts, err := fileOptions()
	if err != nil {
		return nil, err
	}

	f, err := dexfile.Load(path, opts)
	if err != nil {
		return nil, err
	}

	stored, expected := f.CurrentChecksum(), f.ExpectChecksum()
	return &CheckResult{
		Path:     path,
		Stored:   stored.Hex(),
		Expected: expected.Hex(),
		Valid:    stored == expected,
	}, nil
}

// Correct repairs the checksum of input and writes the result to output, or
// back to input when output is empty
func Correct(input, output string) (*CorrectResult, error) {
	opts, err := fileOptions()
	if err != nil {
		return nil, err
	}
	return dexfile.Correct(input, output, opts)
}

// Inspect writes a report for the DEX file at path to w. An empty format
// selects the configured report format.
func Inspect(w io.Writer, path, format string) error {
	opts, err := fileOptions()
	if err != nil {
		return err
	}

	if format == "" {
		format = config.Instance.Report.Format
	}
	reportFormat, err := report.ParseFormat(format)
	if err != nil {
		return err
	}

	f, err := dexfile.Load(path, opts)
	if err != nil {
		return err
	}

	rep, err := report.Build(path, f.Compression, f.Dex)
	if err != nil {
		return err
	}
	return report.Encode(w, rep, reportFormat)
}

// ExecuteWorkflow executes a workflow defined in a file. Step output is
// written to out when it is not nil.
func ExecuteWorkflow(ctx context.Context, workflowFile string, out io.Writer) (*WorkflowResult, error) {
	opts, err := fileOptions()
	if err != nil {
		return nil, err
	}

	workflow, err := composition.LoadWorkflow(workflowFile)
	if err != nil {
		return &WorkflowResult{
			ErrorMessage: fmt.Sprintf("Failed to load workflow: %s", err.Error()),
		}, err
	}

	checksumFormat, err := dex.ParseFormat(config.Instance.Output.Format)
	if err != nil {
		return nil, err
	}
	reportFormat, err := report.ParseFormat(config.Instance.Report.Format)
	if err != nil {
		return nil, err
	}

	runner := &composition.Runner{
		Files:          opts,
		ChecksumFormat: checksumFormat,
		ReportFormat:   reportFormat,
		Out:            out,
	}
	if err := runner.Execute(ctx, workflow); err != nil {
		return &WorkflowResult{
			ErrorMessage: fmt.Sprintf("Workflow execution failed: %s", err.Error()),
			Variables:    workflow.Variables,
		}, err
	}

	return &WorkflowResult{
		Success:   true,
		Variables: workflow.Variables,
	}, nil
}

// lookupClient returns the shared VirusTotal client, creating it on first use
// or when the configured API key changed
func lookupClient() (*vtutil.Client, error) {
	if err := ensureInitialized(); err != nil {
		return nil, err
	}

	vtMutex.Lock()
	defer vtMutex.Unlock()

	vtConfig := config.Instance.VirusTotal
	if vtClient != nil && vtClientKey == vtConfig.APIKey {
		return vtClient, nil
	}

	client, err := vtutil.NewClient(vtConfig.APIKey,
		vtutil.WithRateLimit(vtConfig.RateLimit),
		vtutil.WithRetrySettings(vtConfig.RetryCount, vtConfig.RetryDelay),
		vtutil.WithCustomHost(vtConfig.Host),
	)
	if err != nil {
		return nil, err
	}
	vtClient, vtClientKey = client, vtConfig.APIKey
	return vtClient, nil
}

// Lookup fetches the VirusTotal report for the sha256 of the decompressed DEX
// file at path. Repeated lookups of the same content within the cache TTL are
// answered without a request.
func Lookup(ctx context.Context, path string) (*LookupResult, error) {
	client, err := lookupClient()
	if err != nil {
		return nil, err
	}
	opts, err := fileOptions()
	if err != nil {
		return nil, err
	}

	f, err := dexfile.Load(path, opts)
	if err != nil {
		return nil, err
	}

	hasher, err := cryptoutil.NewHasher(cryptoutil.SHA256)
	if err != nil {
		return nil, err
	}
	sum, err := hasher.Hash(f.Bytes())
	if err != nil {
		return nil, err
	}

	rep, err := client.LookupFileByHash(ctx, sum)
	if err != nil {
		return nil, err
	}
	return &LookupResult{SHA256: sum, Report: rep}, nil
}

// GetVersion returns the current version of the tooling API
func GetVersion() string {
	return Version
}

// Shutdown flushes buffered logs
func Shutdown() error {
	initMutex.Lock()
	defer initMutex.Unlock()

	if initialized {
		logger.LogDebug("Tooling API shutting down", nil)
		_ = logger.Sync()
	}
	return nil
}
