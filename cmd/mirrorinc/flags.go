package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/aleister1102/mirrorinc/internal/config"
)

// AppFlags holds the parsed command line.
type AppFlags struct {
	TargetURL        string
	OutputDir        string
	GlobalConfigFile string
	Mode             string
	Engine           string
	FailedPolicy     string
	Headless         bool
	DelayMs          int
	Force            bool
	NoZip            bool

	// set records which flags were given explicitly, by canonical name.
	set map[string]bool
}

// aliases maps short flag names to their canonical name.
var aliases = map[string]string{
	"u":  "url",
	"o":  "output",
	"gc": "globalconfig",
	"f":  "force",
}

// ParseFlags parses args (without the program name).
func ParseFlags(args []string) (AppFlags, error) {
	fs := flag.NewFlagSet("mirrorinc", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: mirrorinc -url <http(s)://target> [options]")
		fs.PrintDefaults()
	}

	targetURL := fs.String("url", "", "Target page URL (http or https). May also be given as the first positional argument.")
	targetURLAlias := fs.String("u", "", "Alias for -url")

	outputDir := fs.String("output", "", "Output directory (default <host>_<timestamp>)")
	outputDirAlias := fs.String("o", "", "Alias for -output")

	globalConfigFile := fs.String("globalconfig", "", "Path to the global YAML/JSON configuration file. If not set, searches default locations.")
	globalConfigFileAlias := fs.String("gc", "", "Alias for -globalconfig")

	force := fs.Bool("force", false, "Clear a non-empty output directory without asking")
	forceAlias := fs.Bool("f", false, "Alias for -force")

	headless := fs.Bool("headless", config.DefaultRendererHeadless, "Run the browser headless")
	delay := fs.Int("delay", config.DefaultRendererDelayMs, "Extra wait after page load, in milliseconds")
	mode := fs.String("mode", "", "Output mode: per-file or merged")
	engine := fs.String("engine", "", "Renderer engine: browser or http")
	noZip := fs.Bool("no-zip", false, "Do not create the zip archive")
	failedPolicy := fs.String("failed-policy", "", "References that failed to download: keep or strip")

	if err := fs.Parse(args); err != nil {
		return AppFlags{}, err
	}

	flags := AppFlags{
		TargetURL:        firstNonEmpty(*targetURL, *targetURLAlias),
		OutputDir:        firstNonEmpty(*outputDir, *outputDirAlias),
		GlobalConfigFile: firstNonEmpty(*globalConfigFile, *globalConfigFileAlias),
		Mode:             *mode,
		Engine:           *engine,
		FailedPolicy:     *failedPolicy,
		Headless:         *headless,
		DelayMs:          *delay,
		Force:            *force || *forceAlias,
		NoZip:            *noZip,
		set:              make(map[string]bool),
	}
	fs.Visit(func(f *flag.Flag) {
		name := f.Name
		if canonical, ok := aliases[name]; ok {
			name = canonical
		}
		flags.set[name] = true
	})

	if flags.TargetURL == "" && fs.NArg() > 0 {
		flags.TargetURL = fs.Arg(0)
	}
	if strings.TrimSpace(flags.TargetURL) == "" {
		fs.Usage()
		return AppFlags{}, fmt.Errorf("a target URL is required (-url)")
	}
	if flags.DelayMs < 0 {
		return AppFlags{}, fmt.Errorf("-delay must not be negative")
	}
	return flags, nil
}

// IsSet reports whether the flag (or its alias) was passed.
func (f AppFlags) IsSet(name string) bool {
	return f.set[name]
}

// Apply overrides configuration values with explicitly passed flags.
func (f AppFlags) Apply(cfg *config.GlobalConfig) {
	if f.OutputDir != "" {
		cfg.OutputConfig.OutputDir = f.OutputDir
	}
	if f.Mode != "" {
		cfg.OutputConfig.Mode = f.Mode
	}
	if f.Engine != "" {
		cfg.RendererConfig.Engine = f.Engine
	}
	if f.FailedPolicy != "" {
		cfg.RewriterConfig.FailedPolicy = f.FailedPolicy
	}
	if f.IsSet("headless") {
		cfg.RendererConfig.Headless = f.Headless
	}
	if f.IsSet("delay") {
		cfg.RendererConfig.DelayMs = f.DelayMs
	}
	if f.Force {
		cfg.OutputConfig.Force = true
	}
	if f.NoZip {
		cfg.OutputConfig.Zip = false
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func exitUsage(err error) {
	fmt.Fprintf(os.Stderr, "[FATAL] %v\n", err)
	os.Exit(1)
}
