package cmd

import (
	"errors"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dipin13k/code-snippets/pkg/handler"
)

func NewSocketCommand() *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:     "socket",
		Short:   "Start socket server",
		Example: "  snippets socket --address :8081",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l := zap.L()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, history, err := newStore(ctx, v, l)
			if err != nil {
				return err
			}
			defer func() {
				if err := history.Close(); err != nil {
					l.Warn("failed to close history", zap.Error(err))
				}
			}()

			// create socket server
			handle := handler.NewSocket(l.Named("inst.handler"), s)

			// listen on socket
			ln, err := net.Listen("tcp", addressFlag(v))
			if err != nil {
				return err
			}

			g, gctx := errgroup.WithContext(ctx)

			// serve the collection once it is loaded
			up := make(chan bool, 1)
			s.OnLoaded(func() {
				up <- true
			})
			g.Go(func() error {
				return s.Start(gctx)
			})
			<-up

			g.Go(func() error {
				<-gctx.Done()
				return ln.Close()
			})

			g.Go(func() error {
				l.Info("started listening", zap.String("address", addressFlag(v)))
				for {
					// this blocks until connection or error
					conn, err := ln.Accept()
					if errors.Is(err, net.ErrClosed) {
						return nil
					} else if err != nil {
						l.Error("could not accept connection", zap.Error(err))
						continue
					}

					// a goroutine handles conn so that the loop can accept other connections
					go func() {
						l.Debug("accepted connection", zap.String("source", conn.RemoteAddr().String()))
						handle.Serve(conn)
						if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
							l.Warn("failed to close connection", zap.Error(err))
						}
					}()
				}
			})

			return g.Wait()
		},
	}

	flags := cmd.Flags()
	addAddressFlag(flags, v)
	addStorageFlags(flags, v)

	return cmd
}
