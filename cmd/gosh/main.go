package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/tansholt/gosh/internal/config"
	"github.com/tansholt/gosh/internal/core"
	"github.com/tansholt/gosh/internal/eval"
	"github.com/tansholt/gosh/internal/history"
)

var BUILD_VERSION = "dev"

var command = flag.String("c", "", "run a command")
var configPath = flag.String("config", "", "use a custom config file instead of ~/.config/gosh/config.yaml")

var helpFlag bool
var versionFlag bool

func init() {
	flag.BoolVar(&helpFlag, "h", false, "display help information")
	flag.BoolVar(&helpFlag, "help", false, "display help information")

	flag.BoolVar(&versionFlag, "v", false, "display build version")
	flag.BoolVar(&versionFlag, "version", false, "display build version")

	// Register custom zstd sink for compressed logging
	if err := zap.RegisterSink("zstd", newCompressedSink); err != nil {
		panic(fmt.Sprintf("failed to register zstd sink: %v", err))
	}
}

func main() {
	flag.Parse()

	if versionFlag {
		fmt.Println(BUILD_VERSION)
		return
	}

	if helpFlag {
		printUsage()
		return
	}

	cfg, cfgErr := config.Load(*configPath)

	logger, err := initializeLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if cfgErr != nil {
		logger.Warn("config error, using defaults", zap.Error(cfgErr))
		fmt.Fprintf(os.Stderr, "gosh: %v\n", cfgErr)
	}

	logger.Info("-------- new gosh session --------", zap.Any("args", os.Args))

	store, err := history.NewStore(cfg.HistoryFile)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize history store: %v", err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close history store: %v\n", err)
		}
	}()

	evaluator, err := eval.NewGoEvaluator()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize evaluator: %v", err))
	}

	code, err := run(cfg, store, evaluator, logger)
	if err != nil {
		logger.Error("unhandled error", zap.Error(err))
		fmt.Fprintf(os.Stderr, "gosh: %v\n", err)
		os.Exit(1)
	}
	os.Exit(code)
}

func run(cfg config.Config, store *history.Store, evaluator eval.Evaluator, logger *zap.Logger) (int, error) {
	ctx := context.Background()

	// gosh -c "echo hello"
	if *command != "" {
		return core.RunScript(ctx, cfg, store, evaluator, logger, strings.NewReader(*command))
	}

	// gosh
	if flag.NArg() == 0 {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return core.RunInteractiveShell(ctx, cfg, store, evaluator, logger)
		}

		return core.RunScript(ctx, cfg, store, evaluator, logger, os.Stdin)
	}

	// gosh script
	lastExit := 0
	for _, filePath := range flag.Args() {
		f, err := os.Open(filePath)
		if err != nil {
			return 1, err
		}
		lastExit, err = core.RunScript(ctx, cfg, store, evaluator, logger, f)
		f.Close()
		if err != nil {
			return lastExit, err
		}
	}

	return lastExit, nil
}

func printUsage() {
	fmt.Println("Usage: gosh [flags] [script]")
	fmt.Println("\nAn interactive shell with pipelines into Go code blocks.")
	fmt.Println()
	fmt.Println("Options:")
	flag.VisitAll(func(f *flag.Flag) {
		argName, usage := flag.UnquoteUsage(f)
		flagStr := "-" + f.Name
		if argName != "" {
			flagStr += " <" + argName + ">"
		}
		fmt.Printf("  %-20s %s\n", flagStr, usage)
	})
	fmt.Println()
	fmt.Println("Pipelines:")
	fmt.Printf("  %-20s %s\n", "cmd |> (block)", "pipe command output into a Go code block")
	fmt.Printf("  %-20s %s\n", "cmd >> file", "redirect the pipeline result to a file")
	fmt.Printf("  %-20s %s\n", "cmd >>> file", "append the pipeline result to a file")
}

// newCompressedSink creates a new compressed sink from a URL. The URL path
// points to the log file location. Appends a new zstd frame when the
// existing file already holds valid frames, otherwise truncates.
func newCompressedSink(u *url.URL) (zap.Sink, error) {
	filePath := u.Path

	flags := os.O_CREATE | os.O_WRONLY

	fileInfo, err := os.Stat(filePath)
	if err == nil && fileInfo.Size() > 0 {
		if isValidZstdFile(filePath) {
			flags |= os.O_APPEND
		} else {
			flags |= os.O_TRUNC
		}
	}

	file, err := os.OpenFile(filePath, flags, 0644)
	if err != nil {
		return nil, err
	}

	encoder, err := zstd.NewWriter(file, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = file.Close()
		return nil, err
	}

	return &compressedSink{
		file:    file,
		encoder: encoder,
	}, nil
}

// isValidZstdFile checks if a file starts with a valid zstd magic number.
func isValidZstdFile(filePath string) bool {
	file, err := os.Open(filePath)
	if err != nil {
		return false
	}
	defer func() {
		_ = file.Close()
	}()

	buf := make([]byte, 4)
	n, err := file.Read(buf)
	if err != nil || n < 4 {
		return false
	}

	return buf[0] == 0x28 && buf[1] == 0xB5 && buf[2] == 0x2F && buf[3] == 0xFD
}

// compressedSink wraps a zstd encoder to provide compressed log file
// writing. It implements the WriteSyncer interface required by zap's custom
// sinks.
type compressedSink struct {
	file    *os.File
	encoder *zstd.Encoder
}

// Write returns len(p) on success to satisfy the io.Writer contract,
// regardless of how many compressed bytes were written.
func (s *compressedSink) Write(p []byte) (int, error) {
	_, err := s.encoder.Write(p)
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

func (s *compressedSink) Sync() error {
	if err := s.encoder.Flush(); err != nil {
		return err
	}
	return s.file.Sync()
}

// Close always closes the file to prevent descriptor leaks, even if the
// encoder close fails.
func (s *compressedSink) Close() error {
	encErr := s.encoder.Close()
	fileErr := s.file.Close()

	if encErr != nil {
		return encErr
	}
	return fileErr
}

func initializeLogger(cfg config.Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	if BUILD_VERSION == "dev" {
		level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	if err := config.RotateLogFiles(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to rotate log files: %v\n", err)
	}

	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = level
	loggerConfig.OutputPaths = []string{
		"zstd://" + cfg.LogFile,
	}
	logger, err := loggerConfig.Build()
	if err != nil {
		return nil, err
	}

	return logger, nil
}
