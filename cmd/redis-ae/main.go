package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Viet-ph/redis-ae/config"
	"github.com/Viet-ph/redis-ae/internal/logging"
	"github.com/Viet-ph/redis-ae/server"
)

func setupFlags() {
	flag.StringVar(&config.Host, "host", config.Host, "host for the redis server")
	flag.IntVar(&config.Port, "port", config.Port, "port for the redis server")
	flag.IntVar(&config.SetSize, "setsize", config.SetSize, "max number of file descriptors the event loop tracks")
	flag.IntVar(&config.MaximumClients, "maxclients", config.MaximumClients, "max number of connected clients")
	flag.IntVar(&config.Hz, "hz", config.Hz, "server cron frequency, in calls per second")
	flag.StringVar(&config.LogLevel, "loglevel", config.LogLevel, "log level: trace, debug, info, notice, warning, err")
	flag.Parse()
}

func main() {
	setupFlags()

	level, err := logging.ParseLevel(config.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := logging.New(os.Stderr, level)

	srv, err := server.NewAsyncServer(logger)
	if err != nil {
		logger.Err().Err(err).Log("setting up server")
		os.Exit(1)
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-signals
		logger.Notice().Str("signal", sig.String()).Log("received signal, shutting down")
		srv.Stop()
	}()

	if err := srv.Start(); err != nil {
		logger.Err().Err(err).Log("server exited")
		os.Exit(1)
	}
}
