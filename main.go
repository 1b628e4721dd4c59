package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dirserve/config"
	"dirserve/logging"
	"dirserve/server"
)

func main() {
	var (
		configFile string
		envFile    string
		host       string
		port       uint
		root       string
		debug      bool
	)

	flag.StringVar(&configFile, "config", "", "Path to a TOML config file")
	flag.StringVar(&envFile, "env", ".env", "Path to a dotenv file, ignored when missing")
	flag.StringVar(&host, "host", "localhost", "The host to listen on")
	flag.UintVar(&port, "port", 8080, "The port to listen on")
	flag.StringVar(&root, "root", ".", "The directory to serve")
	flag.BoolVar(&debug, "debug", false, "Enable debug mode")
	flag.Parse()

	// Only flags given on the command line override the environment.
	overrides := map[string]string{}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			overrides["HOST"] = host
		case "port":
			overrides["PORT"] = strconv.FormatUint(uint64(port), 10)
		case "root":
			overrides["ROOT_DIR"] = root
		case "debug":
			overrides["DEBUG"] = strconv.FormatBool(debug)
		}
	})

	cfg, err := config.Load(configFile, envFile, overrides)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logCfg := logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}
	if cfg.Debug {
		logCfg.Level = "debug"
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	for _, warning := range cfg.Warnings() {
		logger.Warn(warning)
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize server", zap.Error(err))
	}

	finishChan, err := srv.Start()
	if err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-finishChan:
		if err != nil {
			logger.Fatal("server stopped", zap.Error(err))
		}
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("shutdown failed", zap.Error(err))
		}
	}
}
