// Command ntripclient downloads a single mountpoint's RTCM3/NMEA stream
// from an upstream caster and writes the raw bytes to stdout, reconnecting
// on failure. It is the download-direction counterpart to cmd/ntripserver.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/goblimey/ntrip-relay/config"
	"github.com/goblimey/ntrip-relay/connector"
	"github.com/goblimey/ntrip-relay/ntripclient"
	"github.com/goblimey/ntrip-relay/rtlog"
)

func main() {
	configFile := flag.String("c", "", "path to the client's JSON config file")
	flag.Parse()

	if *configFile == "" {
		fmt.Fprintln(os.Stderr, "[x] -c <config file> is required")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.LoadClientConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[-] cannot load config: %s\n", err.Error())
		os.Exit(1)
	}

	logger := rtlog.New(rtlog.Options{
		Directory:  cfg.Logging.Directory,
		FilePrefix: "ntripclient.",
		FileSuffix: ".log",
		Level:      cfg.Logging.SlogLevel(),
		AlsoStderr: true,
	})

	opts := connector.Options{
		Address:    fmt.Sprintf("%s:%d", cfg.CasterHostName, cfg.CasterPort),
		Mountpoint: cfg.Mountpoint,
		UserName:   cfg.UserName,
		Password:   cfg.Password,
	}

	client := ntripclient.New(opts, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err = client.Run(ctx, func(chunk []byte) {
		os.Stdout.Write(chunk)
	})
	if err != nil && ctx.Err() == nil {
		logger.Error("ntripclient exited", "error", err)
		os.Exit(1)
	}
}
