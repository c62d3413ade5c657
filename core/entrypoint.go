package core

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/encodeous/tint"
	slogmulti "github.com/samber/slog-multi"

	"github.com/lirlia/vlsr/state"
)

// NewLogger builds the process logger: a tint handler on stderr, plus a text
// handler into logPath when set.
func NewLogger(logLevel slog.Level, logPath string) (*slog.Logger, error) {
	handlers := make([]slog.Handler, 0)
	handlers = append(handlers,
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:        logLevel,
			AddSource:    false,
			CustomPrefix: "vlsr",
			ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
				if attr.Key == "time" {
					return slog.Attr{}
				}
				return attr
			},
		}))

	if logPath != "" {
		err := os.MkdirAll(path.Dir(logPath), 0700)
		if err != nil {
			return nil, err
		}
		f, err := os.OpenFile(logPath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0700)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: logLevel}))
	}

	return slog.New(slogmulti.Fanout(handlers...)), nil
}

// BuildTopology materializes a validated config into a manager with all
// routers created and connected. Routers are left stopped.
func BuildTopology(cfg *state.TopologyCfg, log *slog.Logger) (*RouterManager, error) {
	m := NewRouterManager(log)
	for _, rc := range cfg.Routers {
		if _, err := m.CreateRouter(rc.Id, rc.Prefixes); err != nil {
			_ = m.Shutdown()
			return nil, err
		}
	}
	for _, lc := range cfg.Links {
		var err error
		if lc.AAddr.IsValid() {
			err = m.ConnectRoutersAddr(lc.A, lc.B, lc.Cost, lc.AAddr, lc.BAddr)
		} else {
			err = m.ConnectRouters(lc.A, lc.B, lc.Cost)
		}
		if err != nil {
			_ = m.Shutdown()
			return nil, err
		}
	}
	return m, nil
}

// Run brings up the configured topology and blocks until SIGINT or SIGTERM,
// then shuts everything down.
func Run(cfg *state.TopologyCfg, logLevel slog.Level) error {
	logger, err := NewLogger(logLevel, cfg.LogPath)
	if err != nil {
		return err
	}
	if cfg.HelloInterval > 0 {
		state.HelloInterval = cfg.HelloInterval
	}

	m, err := BuildTopology(cfg, logger)
	if err != nil {
		return err
	}
	if err := m.StartAll(); err != nil {
		_ = m.Shutdown()
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		for {
			select {
			case ev, ok := <-m.Events():
				if !ok {
					return
				}
				if ev.Type == EventRoutingUpdated {
					logger.Debug("event", "type", ev.Type, "router", ev.Router, "routes", len(ev.Routes))
				} else {
					logger.Info("event", "type", ev.Type, "router", ev.Router, "peer", ev.Peer)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	logger.Info("topology is up. To gracefully exit, send SIGINT or Ctrl+C.",
		"routers", len(cfg.Routers), "links", len(cfg.Links))

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	<-c
	logger.Info("received shutdown signal")
	return m.Shutdown()
}
