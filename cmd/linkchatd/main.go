// Command linkchatd runs a LinkChat node: it binds to a network interface,
// starts the receive dispatcher, answers discovery requests, logs received
// chat messages, receives inbound file transfers, and runs until SIGINT or
// SIGTERM. It has no interactive UI and no way to send messages or files;
// sending is available as a library via the messaging and filetransfer
// packages.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"github.com/linkchat/linkchat"
	"github.com/linkchat/linkchat/dispatch"
	"github.com/linkchat/linkchat/filetransfer"
	"github.com/linkchat/linkchat/internal/applog"
	"github.com/linkchat/linkchat/messaging"
)

var log = applog.Get("linkchatd")

func configFromContext(c *cli.Context) (ethernet.Config, error) {
	cfg := ethernet.DefaultConfig()

	cfg.Interface = c.String("interface")
	if cfg.Interface == "" {
		return cfg, fmt.Errorf("linkchatd: -interface is required")
	}

	if v := c.Int("chunk-size"); v > 0 {
		cfg.ChunkSize = v
	}
	if v := c.Float64("ack-timeout"); v > 0 {
		cfg.AckTimeout = time.Duration(v * float64(time.Second))
	}
	if v := c.Int("ack-retries"); v > 0 {
		cfg.AckRetries = v
	}
	if v := c.Float64("discovery-timeout"); v > 0 {
		cfg.DiscoveryTimeout = time.Duration(v * float64(time.Second))
	}
	if v := c.Float64("peer-stale-after"); v > 0 {
		cfg.PeerStaleAfter = time.Duration(v * float64(time.Second))
	}

	cfg.ReceiveRoot = c.String("receive-root")
	if cfg.ReceiveRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			return cfg, fmt.Errorf("linkchatd: resolve receive root: %w", err)
		}
		cfg.ReceiveRoot = wd
	}

	return cfg, nil
}

func runCommand(c *cli.Context) error {
	cfg, err := configFromContext(c)
	if err != nil {
		return err
	}

	disp := dispatch.New(cfg.Interface)
	if err := disp.Start(); err != nil {
		return fmt.Errorf("linkchatd: start dispatcher on %s: %w", cfg.Interface, err)
	}
	defer disp.Stop()

	chat := messaging.New(disp, c.String("name"))
	chat.StartMessageLoop(func(src ethernet.HardwareAddr, text string) {
		log.Noticef("chat %s: %s", src, text)
	})

	sender := filetransfer.NewSender(disp)
	sender.ChunkSize = cfg.ChunkSize
	sender.AckTimeout = cfg.AckTimeout
	sender.AckRetries = cfg.AckRetries

	receiver := filetransfer.NewReceiver(disp, cfg.ReceiveRoot)
	defer receiver.Stop()
	receiver.OnEvent(func(src ethernet.HardwareAddr, id [16]byte, status filetransfer.Status) {
		log.Noticef("transfer %x from %s: %s", id, src, status)
	})

	log.Noticef("linkchatd listening on %s, mac=%s", cfg.Interface, disp.LocalMAC())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		log.Notice("linkchatd: shutting down")
	case <-ctx.Done():
	}
	return nil
}

func main() {
	app := cli.NewApp()
	app.Name = "linkchatd"
	app.Usage = "link-layer peer-to-peer chat and file transfer"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "interface, i", Usage: "network interface to bind (required)"},
		cli.StringFlag{Name: "name, n", Usage: "display name reported to peer discovery"},
		cli.IntFlag{Name: "chunk-size", Value: 1200, Usage: "file channel chunk size in bytes"},
		cli.Float64Flag{Name: "ack-timeout", Value: 1.0, Usage: "seconds per stop-and-wait attempt"},
		cli.IntFlag{Name: "ack-retries", Value: 5, Usage: "max attempts per chunk"},
		cli.StringFlag{Name: "receive-root", Usage: "directory for inbound files (default: current directory)"},
		cli.Float64Flag{Name: "discovery-timeout", Value: 2.0, Usage: "seconds to wait for discovery replies"},
		cli.Float64Flag{Name: "peer-stale-after", Value: 10.0, Usage: "seconds before a discovered peer is considered stale"},
	}
	app.Action = runCommand

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
