package cli

import (
	"errors"

	"ethfaucet/pkg/metrics"
	"ethfaucet/pkg/server"
	"ethfaucet/pkg/session"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (a *app) newServeCommand() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run headless with the HTTP and websocket API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listen == "" {
				listen = a.cfg.ListenAddr
			}

			log, err := a.logger(false)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			m := metrics.New()
			s, err := a.newSession(log, m)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			// Without a provider the API still reports the state.
			if err := s.Start(ctx); err != nil {
				if !errors.Is(err, session.ErrNoProvider) {
					return err
				}
				log.Warn("serving without a wallet provider", zap.Error(err))
			}

			return server.NewServer(s, m, log).Start(ctx, listen)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default from config)")
	return cmd
}
