// Command ntripserver reads a raw byte stream off a local RTCM3 capture
// file (the output of some other process that owns the actual receiver
// connection) and pushes the frames it contains to an upstream caster
// mountpoint over NTRIP.
//
// The device-scanning loop follows jsonconfig.Config.WaitAndConnectToInput:
// a capture file can disappear and reappear under a different name as the
// process producing it restarts, so the server searches the configured
// list of candidate filenames in order and reconnects to whichever one
// appears.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goblimey/ntrip-relay/config"
	"github.com/goblimey/ntrip-relay/connector"
	"github.com/goblimey/ntrip-relay/frame"
	"github.com/goblimey/ntrip-relay/ntripserver"
	"github.com/goblimey/ntrip-relay/rtlog"
)

func main() {
	configFile := flag.String("c", "", "path to the server's JSON config file")
	flag.Parse()

	if *configFile == "" {
		fmt.Fprintln(os.Stderr, "[x] -c <config file> is required")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.LoadServerConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[-] cannot load config: %s\n", err.Error())
		os.Exit(1)
	}

	logger := rtlog.New(rtlog.Options{
		Directory:  cfg.Logging.Directory,
		FilePrefix: "ntripserver.",
		FileSuffix: ".log",
		Level:      cfg.Logging.SlogLevel(),
		AlsoStderr: true,
	})

	queueCapacity := int(cfg.QueueCapacity)
	if queueCapacity == 0 {
		queueCapacity = 128
	}
	queue := ntripserver.NewSendQueue(queueCapacity)

	opts := connector.Options{
		Address:    fmt.Sprintf("%s:%d", cfg.CasterHostName, cfg.CasterPort),
		Mountpoint: cfg.Mountpoint,
		UserName:   cfg.UserName,
		Password:   cfg.Password,
	}
	server := ntripserver.New(opts, queue, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		if err := server.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("ntripserver: upstream connection loop exited", "error", err)
		}
	}()

	readInput(ctx, cfg.Filenames, logger, server.Enqueue)
}

// readInput repeatedly connects to the first available name in filenames,
// feeds the bytes it finds through a frame.Framer, and hands each RTCM3
// frame to enqueue. NMEA sentences and noise are discarded: only RTCM3 may
// travel upstream to the caster. When the input disappears the function
// waits a second and scans the candidate filenames again, the same
// lose-and-reappear tolerance jsonconfig.WaitAndConnectToInput gives a
// receiver whose capture file is recreated by a restarting process.
func readInput(ctx context.Context, filenames []string, logger interface {
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
}, enqueue func([]byte)) {
	for {
		if ctx.Err() != nil {
			return
		}

		source, name := openFirstAvailable(filenames)
		if source == nil {
			logger.Warn("ntripserver: no input device available, retrying")
			if !sleepOrDone(ctx, time.Second) {
				return
			}
			continue
		}

		logger.Info("ntripserver: connected to input", "source", name)
		consume(ctx, source, enqueue, logger)
		source.Close()

		if !sleepOrDone(ctx, time.Second) {
			return
		}
	}
}

// consume reads from r until EOF, an error, or ctx cancellation, feeding
// every chunk into a Framer and enqueuing the RTCM3 frames it yields. A
// Feed overflow is not fatal: Framer already resets itself internally, so
// consume just logs a warning and keeps reading, the same recovery
// caster.Caster uses for the identical error.
func consume(ctx context.Context, r io.Reader, enqueue func([]byte), logger interface {
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
}) {
	framer := frame.New()
	buf := make([]byte, 1024)
	for {
		if ctx.Err() != nil {
			return
		}

		n, err := r.Read(buf)
		if n > 0 {
			if ferr := framer.Feed(buf[:n]); ferr != nil {
				logger.Warn("ntripserver: framer overflow, resynchronizing", "error", ferr)
			}
			for {
				fr, ok := framer.Next()
				if !ok {
					break
				}
				if fr.IsRTCM3() {
					enqueue(fr.Data)
				}
			}
		}
		if err != nil {
			return
		}
	}
}

// openFirstAvailable tries filenames in order, returning the first one it
// can open along with its name.
func openFirstAvailable(filenames []string) (io.ReadCloser, string) {
	for _, name := range filenames {
		file, err := os.Open(name)
		if err == nil {
			return file, name
		}
	}
	return nil, ""
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
