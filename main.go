package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/datarhei/jsondir/app"
	"github.com/datarhei/jsondir/app/api"
	"github.com/datarhei/jsondir/config"
	"github.com/datarhei/jsondir/log"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "jsondir",
	Short: "Serve a directory as JSON listings",
	Long: `jsondir serves a directory over HTTP(S). Requests for a directory are
answered with a JSON listing of its entries, requests for a file with its
contents.

Every flag can also be set with the environment variable shown in its
description. Flags take precedence over the environment.`,
	Version:       app.Version.String(),
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          serve,
}

// flags maps the command line flags to the names of the configuration variables.
var flags = []struct {
	name      string
	shorthand string
	variable  string
	usage     string
}{
	{"port", "p", "address", "Port or address to listen on"},
	{"directory", "d", "root", "Directory to serve"},
	{"cert", "", "tls.cert_file", "Path to the certificate in PEM format, enables HTTPS"},
	{"key", "", "tls.key_file", "Path to the key in PEM format, defaults to the certificate file"},
	{"log-level", "", "log.level", "Log level: silent, error, warn, info, debug"},
	{"metrics", "", "metrics.address", "Address for /metrics and /ping, empty to disable"},
}

func init() {
	defaults := config.New()

	for _, f := range flags {
		usage := f.usage
		def, _ := defaults.Get(f.variable)

		if v, ok := defaults.Describe(f.variable); ok && len(v.EnvName) != 0 {
			usage += " (env " + v.EnvName + ")"
		}

		rootCmd.Flags().StringP(f.name, f.shorthand, def, usage)
	}

	rootCmd.Flags().Bool("skip-drive-check", false, "Don't wait for the Google Drive process (env JSONDIR_READINESS_SKIP)")
}

func serve(cmd *cobra.Command, args []string) error {
	logger := log.New("Core").WithOutput(log.NewConsoleWriter(os.Stderr, log.Lwarn, true))

	cfg := config.New()
	cfg.Merge()

	for _, f := range flags {
		if !cmd.Flags().Changed(f.name) {
			continue
		}

		val, _ := cmd.Flags().GetString(f.name)
		if err := cfg.Set(f.variable, val); err != nil {
			return err
		}
	}

	if cmd.Flags().Changed("skip-drive-check") {
		skip, _ := cmd.Flags().GetBool("skip-drive-check")
		if err := cfg.Set("readiness.skip", fmt.Sprintf("%t", skip)); err != nil {
			return err
		}
	}

	a, err := api.New(cfg, os.Stderr)
	if err != nil {
		logger.Error().WithError(err).Log("Failed to create new API")
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	done := make(chan error, 1)

	go func() {
		done <- a.Start(ctx)
	}()

	select {
	case err := <-done:
		// The server stopped on its own, e.g. the readiness check failed
		if err != nil {
			logger.Error().WithError(err).Log("Failed to start API")
		}
		a.Destroy()
		return err
	case <-ctx.Done():
	}

	// Stop the app
	a.Destroy()
	<-done

	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
