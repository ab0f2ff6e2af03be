package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/aleister1102/mirrorinc/internal/config"
	"github.com/aleister1102/mirrorinc/internal/history"
	"github.com/aleister1102/mirrorinc/internal/logger"
	"github.com/aleister1102/mirrorinc/internal/orchestrator"
)

func main() {
	flags, err := ParseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		exitUsage(err)
	}
	os.Exit(run(flags))
}

func run(flags AppFlags) int {
	bootstrap := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	gCfg, err := config.LoadGlobalConfig(flags.GlobalConfigFile, bootstrap)
	if err != nil {
		log.Printf("[FATAL] Main: Could not load global config using path '%s': %v", flags.GlobalConfigFile, err)
		return 1
	}
	flags.Apply(gCfg)
	gCfg.Normalize()

	runID := history.NewRunID()
	appLogger, err := logger.NewWithRunID(gCfg.LogConfig, runID)
	if err != nil {
		log.Printf("[FATAL] Main: Could not initialize logger: %v", err)
		return 1
	}
	defer func() { _ = appLogger.Close() }()
	zLogger := *appLogger.GetZerolog()

	if err := config.ValidateConfig(gCfg); err != nil {
		zLogger.Error().Err(err).Msg("Configuration validation failed")
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			zLogger.Warn().Str("signal", sig.String()).Msg("Received interrupt signal, stopping extraction")
			cancel()
		case <-ctx.Done():
		}
	}()

	report, err := orchestrator.NewOrchestrator(gCfg, zLogger).
		WithConfirm(confirmOverwrite).
		WithRunID(runID).
		Run(ctx, flags.TargetURL)
	if err != nil {
		zLogger.Error().Err(err).Str("url", flags.TargetURL).Msg("Extraction failed")
		return 1
	}

	if report.Partial {
		zLogger.Warn().Msg("Extraction finished with a partial result")
	}
	return 0
}

// confirmOverwrite asks on the terminal before a non-empty output directory is cleared.
func confirmOverwrite(dir string) bool {
	info, err := os.Stdin.Stat()
	if err != nil || info.Mode()&os.ModeCharDevice == 0 {
		return false
	}
	fmt.Fprintf(os.Stderr, "Output directory %s is not empty. Overwrite? [y/N]: ", dir)
	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
