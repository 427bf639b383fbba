package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	httpiface "github.com/marcuskncheung/new-intel-platform-sub000/internal/interfaces/http"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/interfaces/http/handlers"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/interfaces/http/middleware"
)

// componentChecker adapts an infrastructure ping into a health probe.
type componentChecker struct {
	name  string
	check func(ctx context.Context) error
}

func (c componentChecker) Name() string                    { return c.name }
func (c componentChecker) Check(ctx context.Context) error { return c.check(ctx) }

// NewServeCmd runs the intake API server.
func NewServeCmd(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the intelligence intake API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := buildApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			checkers := []handlers.HealthChecker{
				componentChecker{name: "postgres", check: app.DB.HealthCheck},
			}
			if app.Redis != nil {
				checkers = append(checkers, componentChecker{name: "redis", check: app.Redis.Ping})
			}
			if app.Search != nil {
				checkers = append(checkers, componentChecker{name: "opensearch", check: app.Search.Ping})
			}

			router := httpiface.NewRouter(httpiface.RouterConfig{
				IntelHandler:      handlers.NewIntelHandler(app.Resolver, logger),
				PoiHandler:        handlers.NewPoiHandler(app.Profiles, app.Links, app.Cache, logger),
				AdminHandler:      handlers.NewAdminHandler(app.Refresher, logger),
				HealthHandler:     handlers.NewHealthHandler(Version, checkers...),
				LoggingMiddleware: middleware.NewLoggingMiddleware(logger, app.Metrics),
				Metrics:           app.Metrics,
			})
			server := httpiface.NewServer(cfg.Server, router, logger)

			errCh := make(chan error, 1)
			go func() { errCh <- server.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				return server.Stop(context.Background())
			}
		},
	}
}
