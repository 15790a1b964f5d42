package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"virusbreach/internal/config"
	"virusbreach/internal/registry"
	"virusbreach/internal/service"
	"virusbreach/internal/transport/rest"
	"virusbreach/internal/transport/ws"
)

const releaseVersion = "1.0.0"

func main() {
	log.SetFlags(log.LstdFlags)
	cfg := &config.ServerConfig{}
	cobra.CheckErr(newCmd(cfg).Execute())
}

func newCmd(cfg *config.ServerConfig) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("VIRUSBREACH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "virusbreach",
		Short:         "Live host-driven cybercrime trivia party game server.",
		Args:          cobra.ExactArgs(0),
		Version:       releaseVersion,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: VIRUSBREACH_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", 8080, "port to listen on (env: VIRUSBREACH_PORT)")
	fs.StringVar(&cfg.PublicURL, "public-url", "", "external base URL for QR join links (env: VIRUSBREACH_PUBLIC_URL)")
	fs.DurationVar(&cfg.RoomTTL, "room-ttl", time.Hour, "time before finished rooms are removed (env: VIRUSBREACH_ROOM_TTL)")
	fs.DurationVar(&cfg.ReapInterval, "reap-interval", 5*time.Minute, "how often finished rooms are swept (env: VIRUSBREACH_REAP_INTERVAL)")
	fs.StringVar(&cfg.TLSCert, "tls-cert", "", "path to tls certificate (env: VIRUSBREACH_TLS_CERT)")
	fs.StringVar(&cfg.TLSKey, "tls-key", "", "path to tls keyfile (env: VIRUSBREACH_TLS_KEY)")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "display additional output (env: VIRUSBREACH_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("virusbreach v{{.Version}}\n")

	return cmd
}

func run(ctx context.Context, cfg *config.ServerConfig) error {
	genCfg := config.DefaultGeneratorConfig()
	if genCfg.IsEnabled() {
		log.Printf("content generation: %s via %s", genCfg.Model, genCfg.BaseURL)
	} else {
		log.Println("content generation: API key not set, using fallback content")
	}

	reg := registry.New(registry.NewMemoryStore(), registry.VirusRoster)
	hub := ws.NewHub()
	generator := service.NewLLMGenerator(genCfg)
	game := service.NewGameService(reg, generator, hub)
	wsHandler := ws.NewHandler(hub, game)

	publicURL := cfg.PublicURL
	if publicURL == "" {
		publicURL = fmt.Sprintf("%s://%s:%d", cfg.Scheme(), cfg.Bind, cfg.Port)
	}

	router := rest.NewRouter(&rest.Container{
		Registry:  reg,
		WSHandler: wsHandler,
		PublicURL: publicURL,
	})

	stopReaper := make(chan struct{})
	reg.StartReaper(cfg.ReapInterval, cfg.RoomTTL, stopReaper)
	defer close(stopReaper)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Bind, cfg.Port),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s://%s", cfg.Scheme(), srv.Addr)
		var err error
		if cfg.Scheme() == "https" {
			err = srv.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	case <-quit:
	}

	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Println("server exited")
	return nil
}
