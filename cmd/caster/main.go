// Command caster runs the NTRIP caster: it accepts NTRIP Server (producer)
// and NTRIP Client (consumer) connections and fans each producer's RTCM3
// frames out to the consumers of the same mountpoint.
//
// Flag handling follows apps/proxy/tcpprox.go's main(): a -c flag names a
// JSON config file, command-line flags can override individual fields.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/goblimey/ntrip-relay/caster"
	"github.com/goblimey/ntrip-relay/config"
	"github.com/goblimey/ntrip-relay/rtlog"
	"github.com/goblimey/ntrip-relay/sourcetable"
	"github.com/goblimey/ntrip-relay/status"
)

func main() {
	configFile := flag.String("c", "", "path to the caster's JSON config file")
	listenAddr := flag.String("l", "", "listen address (overrides config file)")
	flag.Parse()

	if *configFile == "" {
		fmt.Fprintln(os.Stderr, "[x] -c <config file> is required")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.LoadCasterConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[-] cannot load config: %s\n", err.Error())
		os.Exit(1)
	}
	if *listenAddr != "" {
		cfg.ListenAddress = *listenAddr
	}

	logger := rtlog.New(rtlog.Options{
		Directory:  cfg.Logging.Directory,
		FilePrefix: "caster.",
		FileSuffix: ".log",
		Level:      cfg.Logging.SlogLevel(),
		AlsoStderr: true,
	})

	table, err := loadSourcetable(cfg.SourcetableFile)
	if err != nil {
		logger.Error("cannot load sourcetable", "error", err)
		os.Exit(1)
	}

	stats := status.New()

	c := caster.New(caster.Options{
		ListenAddress: cfg.ListenAddress,
		Sourcetable:   table,
		ClientCreds:   caster.Credentials{UserName: cfg.ClientUserName, Password: cfg.ClientPassword},
		ServerCreds:   caster.Credentials{UserName: cfg.ServerUserName, Password: cfg.ServerPassword},
		ValidateCRC:   cfg.EnableCRCCheck,
		ProbeInterval: cfg.ProbeInterval(),
		Logger:        logger,
		Stats:         stats,
	})

	if cfg.Status.Enabled {
		go status.Serve(stats, cfg.Status.Host, cfg.Status.Port)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := c.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("caster exited", "error", err)
		os.Exit(1)
	}
}

// loadSourcetable reads the JSON-encoded stream list used to build the
// caster's sourcetable: a simpler format than the semicolon-delimited wire
// format sourcetable.Table itself renders, since operators maintain this
// file by hand.
func loadSourcetable(path string) (*sourcetable.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var streams []sourcetable.Stream
	if err := json.NewDecoder(file).Decode(&streams); err != nil {
		return nil, err
	}

	table := sourcetable.New("ntrip-relay")
	for _, s := range streams {
		table.Add(s)
	}
	return table, nil
}
