package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/workspace-9/zsock"
	"github.com/workspace-9/zsock/configfile"
	"github.com/workspace-9/zsock/metrics"
)

type runOptions struct {
	root        *rootOptions
	config      string
	engine      string
	group       string
	duration    time.Duration
	metricsAddr string
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{root: root}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build the sockets of a config file and drive them",
		Long: `Build every socket of a config file. Servers echo what they receive,
dishes and clients print it, and each line of stdin is sent by every client
and transmitted by every radio. Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd)
		},
	}
	cmd.Flags().StringVarP(&opts.config, "config", "c", "", "config file (.yaml, .json, .jsonc or .cbor)")
	cmd.Flags().StringVar(&opts.engine, "engine", "", "override the engine named in the config file")
	cmd.Flags().StringVarP(&opts.group, "group", "g", "default", "group radios transmit stdin lines to")
	cmd.Flags().DurationVar(&opts.duration, "duration", 0, "stop after this long (0 runs until interrupted)")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func (o *runOptions) run(cmd *cobra.Command) (err error) {
	f, err := configfile.Load(o.config)
	if err != nil {
		return err
	}
	if o.engine != "" {
		f.Context.Engine = o.engine
	}

	logger, err := o.root.logger()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()

	reg := prometheus.NewRegistry()
	bus, err := metrics.NewBus(reg)
	if err != nil {
		return err
	}

	ctx, err := f.NewContext(zsock.WithEventBus(zsock.MultiBus{zsock.LogBus{Logger: logger}, bus}))
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, ctx.Close())
	}()

	parent, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if o.duration > 0 {
		var cancel context.CancelFunc
		parent, cancel = context.WithTimeout(parent, o.duration)
		defer cancel()
	}

	socks, err := f.BuildAll(ctx)
	if err != nil {
		ctx.Terminate()
		return err
	}
	defer func() {
		err = multierr.Append(err, socks.Close())
	}()

	g, gctx := errgroup.WithContext(parent)
	stopTerm := ctx.TerminateOnDone(gctx)
	defer stopTerm()

	out := &printer{w: cmd.OutOrStdout()}
	d := &driver{logger: logger, out: out, socks: socks, group: o.group}
	d.start(g)
	go d.feed(cmd.InOrStdin())

	if o.metricsAddr != "" {
		serveMetrics(g, gctx, o.metricsAddr, reg)
	}

	logger.Info("running",
		zap.String("ctx", ctx.ID()),
		zap.String("engine", ctx.Engine()),
		zap.Int("clients", len(socks.Clients)),
		zap.Int("servers", len(socks.Servers)),
		zap.Int("radios", len(socks.Radios)),
		zap.Int("dishes", len(socks.Dishes)),
	)
	return g.Wait()
}

func serveMetrics(g *errgroup.Group, ctx context.Context, addr string, reg *prometheus.Registry) {
	srv := &http.Server{
		Addr:    addr,
		Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}
	g.Go(func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	})
}

type printer struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *printer) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, format, args...)
}

type driver struct {
	logger *zap.Logger
	out    *printer
	socks  *configfile.Sockets
	group  string
}

// loop calls step until the context is terminated. Timeouts are retried.
func loop(step func() error) func() error {
	return func() error {
		for {
			err := step()
			switch {
			case err == nil, errors.Is(err, zsock.WouldBlock):
			case errors.Is(err, zsock.CtxTerminated):
				return nil
			default:
				return err
			}
		}
	}
}

func (d *driver) start(g *errgroup.Group) {
	for _, name := range sorted(d.socks.Servers) {
		g.Go(loop(d.echo(name, d.socks.Servers[name])))
	}
	for _, name := range sorted(d.socks.Dishes) {
		dish := d.socks.Dishes[name]
		g.Go(loop(func() error {
			msg, err := dish.RecvMsg()
			if err != nil {
				return err
			}
			group, _ := msg.Group()
			d.out.printf("%s [%s] %s\n", name, group, msg)
			return nil
		}))
	}
	for _, name := range sorted(d.socks.Clients) {
		client := d.socks.Clients[name]
		g.Go(loop(func() error {
			msg, err := client.RecvMsg()
			if err != nil {
				return err
			}
			d.out.printf("%s < %s\n", name, msg)
			return nil
		}))
	}
}

func (d *driver) echo(name string, server *zsock.Server) func() error {
	return func() error {
		msg, err := server.RecvMsg()
		if err != nil {
			return err
		}
		id, _ := msg.RoutingID()
		d.logger.Debug("echo", zap.String("server", name), zap.Uint32("routing_id", uint32(id)), zap.Int("len", msg.Len()))

		if err := server.Route(msg, id); errors.Is(err, zsock.HostUnreachable) {
			d.logger.Warn("peer went away", zap.String("server", name), zap.Uint32("routing_id", uint32(id)))
			return nil
		} else if err != nil {
			return err
		}
		return nil
	}
}

// feed sends each line of r through every client and radio.
func (d *driver) feed(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()

		for _, name := range sorted(d.socks.Clients) {
			if err := d.socks.Clients[name].Send(zsock.MsgString(line)); err != nil {
				if errors.Is(err, zsock.CtxTerminated) {
					return
				}
				d.logger.Warn("send failed", zap.String("client", name), zap.Error(err))
			}
		}
		for _, name := range sorted(d.socks.Radios) {
			if err := d.socks.Radios[name].Transmit(zsock.MsgString(line), d.group); err != nil {
				if errors.Is(err, zsock.CtxTerminated) {
					return
				}
				d.logger.Warn("transmit failed", zap.String("radio", name), zap.Error(err))
			}
		}
	}
	if err := scanner.Err(); err != nil {
		d.logger.Warn("reading stdin", zap.Error(err))
	}
}

func sorted[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
