package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/YohanssenPardede/proyek-analisis-data/internal/server"
)

var (
	svInput  inputFlags
	svEngine engineFlags
	svAddr   string
)

var serveCmd = &cobra.Command{
	Use:   "serve <file>",
	Short: "Serve RFM scores, segment breakdowns and the dataset overview over HTTP",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g := settings()
		lopt, err := svInput.options(cmd, g, nil)
		if err != nil {
			return err
		}
		eopt, err := svEngine.options(cmd, g)
		if err != nil {
			return err
		}
		ds, err := server.NewDataset(args[0], lopt, eopt, g.CacheSize, log)
		if err != nil {
			return err
		}

		scfg := server.DefaultConfig()
		scfg.Debug = debug
		scfg.Addr = g.ServerAddr
		if cmd.Flags().Changed("addr") {
			scfg.Addr = svAddr
		}
		srv := server.New(scfg, ds, log)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return <-errCh
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	svInput.bind(serveCmd)
	svEngine.bind(serveCmd)
	serveCmd.Flags().StringVar(&svAddr, "addr", "", "listen address (default: server_addr from config)")
}
