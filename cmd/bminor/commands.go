package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/bminorlang/bminor/pkg/buildcache"
	"github.com/bminorlang/bminor/pkg/compiler"
	"github.com/bminorlang/bminor/pkg/config"
	"github.com/bminorlang/bminor/pkg/ir"
	"github.com/bminorlang/bminor/pkg/logging"
	"github.com/bminorlang/bminor/pkg/toolchain"
)

// newLogger builds the diagnostic sink for a command. The default level is
// warn; -v raises it to info; the config can lower it further to debug.
func newLogger(cfg *config.Config, verbose bool) *logging.Logger {
	level := logging.ParseLevel(cfg.LogLevel)
	if verbose && level > logging.INFO {
		level = logging.INFO
	}

	format := logging.TextFormat
	if cfg.LogFormat == "json" {
		format = logging.JSONFormat
	}

	return logging.NewLogger(logging.LoggerConfig{MinLevel: level, Format: format})
}

// runBuild handles the build command: the full pipeline plus the external
// toolchain.
func runBuild(cmd *cobra.Command, args []string) error {
	filePath := args[0]
	output, _ := cmd.Flags().GetString("output")
	verbose, _ := cmd.Flags().GetBool("verbose")
	emitIR, _ := cmd.Flags().GetBool("emit-ir")
	useCache, _ := cmd.Flags().GetBool("cache")
	runAfter, _ := cmd.Flags().GetBool("run")

	cfg, err := config.LoadOrDefault("")
	if err != nil {
		return err
	}
	if output == "" {
		output = cfg.Output
	}

	logger := newLogger(cfg, verbose)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	source, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	printInfo(fmt.Sprintf("Compiling %s...", filePath))
	start := time.Now()

	c := compiler.NewCompiler(cfg, logger)

	if useCache || cfg.Cache.Enabled {
		cache, err := buildcache.Open(ctx, cfg.Cache.Path)
		if err != nil {
			return err
		}
		defer cache.Close()
		c.SetCache(cache)
	}

	result, err := c.Compile(ctx, string(source), filePath)
	if err != nil {
		return err
	}
	if result.SemanticErr != nil {
		printWarning(fmt.Sprintf("semantic analysis failed: %v", result.SemanticErr))
	}

	if emitIR {
		if result.FromCache {
			printWarning("IR unavailable for cached builds")
		} else {
			fmt.Print(ir.Format(result.Instructions))
		}
	}

	if err := os.WriteFile(cfg.AsmFile, []byte(result.Assembly), 0644); err != nil {
		return fmt.Errorf("failed to write assembly: %w", err)
	}

	driver := toolchain.NewDriver(cfg.Toolchain.Nasm, cfg.Toolchain.CC, logger)
	if err := driver.Build(ctx, cfg.AsmFile, output); err != nil {
		return err
	}

	printSuccess(fmt.Sprintf("Built %s", output))
	if result.FromCache {
		printInfo("Assembly restored from build cache")
	}
	printInfo(fmt.Sprintf("Compilation time: %s", time.Since(start)))

	if runAfter {
		stdout, exitCode, err := driver.Run(ctx, output)
		if err != nil {
			return err
		}
		fmt.Print(stdout)
		printInfo(fmt.Sprintf("Program exited with code %d", exitCode))
	}

	return nil
}

// runCheck handles the check command: parse and type-check only. Semantic
// violations are fatal here, unlike in build.
func runCheck(cmd *cobra.Command, args []string) error {
	filePath := args[0]
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.LoadOrDefault("")
	if err != nil {
		return err
	}

	source, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	c := compiler.NewCompiler(cfg, newLogger(cfg, verbose))
	if err := c.Check(string(source), filePath); err != nil {
		return err
	}

	printSuccess(fmt.Sprintf("%s is well-typed", filePath))
	return nil
}

// runIR handles the ir command: print the TAC dump without touching the
// backend.
func runIR(cmd *cobra.Command, args []string) error {
	filePath := args[0]
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.LoadOrDefault("")
	if err != nil {
		return err
	}

	source, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	c := compiler.NewCompiler(cfg, newLogger(cfg, verbose))
	instructions, err := c.GenerateIR(string(source), filePath)
	if err != nil {
		return err
	}

	fmt.Print(ir.Format(instructions))
	return nil
}

// runWatch recompiles the file whenever it changes on disk.
func runWatch(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the file's directory (more reliable for editors that do atomic
	// saves).
	dir := filepath.Dir(filePath)
	filename := filepath.Base(filePath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory: %w", err)
	}

	rebuild := func() {
		if err := runBuild(cmd, args); err != nil {
			printError(err)
		}
	}

	printInfo(fmt.Sprintf("Watching %s for changes...", filePath))
	rebuild()

	// Debounce: editors fire several events per save.
	var debounceTimer *time.Timer
	debounceDelay := 100 * time.Millisecond

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDelay, func() {
					printInfo(fmt.Sprintf("%s changed, recompiling...", filename))
					rebuild()
				})
			}
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			printError(watchErr)
		}
	}
}

// runCacheStats handles cache stats.
func runCacheStats(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadOrDefault("")
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cache, err := buildcache.Open(ctx, cfg.Cache.Path)
	if err != nil {
		return err
	}
	defer cache.Close()

	stats, err := cache.Stats(ctx)
	if err != nil {
		return err
	}

	printInfo(fmt.Sprintf("Cache entries: %d", stats.Entries))
	printInfo(fmt.Sprintf("Cache size: %d bytes", stats.TotalSize))
	return nil
}

// runCacheClear handles cache clear.
func runCacheClear(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadOrDefault("")
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cache, err := buildcache.Open(ctx, cfg.Cache.Path)
	if err != nil {
		return err
	}
	defer cache.Close()

	if err := cache.Clear(ctx); err != nil {
		return err
	}

	printSuccess("Build cache cleared")
	return nil
}

// Pretty printing functions
var (
	infoColor    = color.New(color.FgCyan)
	successColor = color.New(color.FgGreen)
	warningColor = color.New(color.FgYellow)
)

func printInfo(msg string) {
	infoColor.Printf("[INFO] %s\n", msg)
}

func printSuccess(msg string) {
	successColor.Printf("[SUCCESS] %s\n", msg)
}

func printWarning(msg string) {
	warningColor.Printf("[WARNING] %s\n", msg)
}
