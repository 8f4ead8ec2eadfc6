package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/mdp/qrterminal/v3"

	"github.com/alkime/breathewise/internal/logger"
	"github.com/alkime/breathewise/internal/server"
)

// ServeCmd starts the web app.
type ServeCmd struct {
	QR   bool   `flag:"" help:"Print a QR code of the app URL for opening it on a phone"`
	Host string `flag:"" help:"Host name for the QR code URL (default: first LAN address)"`
}

// Run executes the serve command.
func (c *ServeCmd) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	lg := logger.SetupLogger(cfg)

	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	history, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer closeHistory(history)

	svc, err := newGuide(ctx, cfg, history)
	if err != nil {
		return err
	}

	if c.QR {
		host := c.Host
		if host == "" {
			host = lanAddress()
		}

		url := appURL(host, cfg.Port)
		fmt.Fprintf(os.Stderr, "Open %s on your phone:\n\n", url)
		qrterminal.GenerateHalfBlock(url, qrterminal.L, os.Stderr)
		fmt.Fprintln(os.Stderr)
	}

	srv := server.New(cfg, lg, server.Deps{
		Catalog: cat,
		Guide:   svc,
		History: history,
	})

	return srv.Run(ctx)
}

func appURL(host, port string) string {
	return "http://" + net.JoinHostPort(host, port) + "/"
}

// lanAddress returns the first non-loopback IPv4 address, or localhost.
func lanAddress() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		slog.Debug("failed to list interface addresses", "error", err)
		return "localhost"
	}

	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() {
			continue
		}

		if ip4 := ipnet.IP.To4(); ip4 != nil {
			return ip4.String()
		}
	}

	return "localhost"
}
