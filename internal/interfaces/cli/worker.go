package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marcuskncheung/new-intel-platform-sub000/internal/application/resolution"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/messaging/kafka"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/monitoring/logging"
	"github.com/marcuskncheung/new-intel-platform-sub000/pkg/errors"
)

// NewWorkerCmd runs the kafka candidate worker.  Each consumer in the
// configured concurrency joins the same group, so partitions spread across
// them.
func NewWorkerCmd(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the candidate resolution worker",
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

			handler := candidateHandler(app.Resolver, logger)

			concurrency := cfg.Worker.Concurrency
			if concurrency <= 0 {
				concurrency = 1
			}
			consumers := make([]*kafka.Consumer, 0, concurrency)
			for i := 0; i < concurrency; i++ {
				c, err := kafka.NewConsumer(cfg.Kafka, kafka.TopicCandidateExtracted, handler, logger)
				if err != nil {
					return err
				}
				if err := c.Start(ctx); err != nil {
					return err
				}
				consumers = append(consumers, c)
			}
			logger.Info("worker running", logging.Int("consumers", concurrency))

			<-ctx.Done()
			for _, c := range consumers {
				_ = c.Close()
			}
			return nil
		},
	}
}

// candidateHandler turns candidate-extracted events into resolution calls.
func candidateHandler(resolver *resolution.Service, logger logging.Logger) kafka.Handler {
	return func(ctx context.Context, env *kafka.EventEnvelope) error {
		var payload kafka.CandidateExtractedPayload
		if err := env.DecodePayload(&payload); err != nil {
			return err
		}

		in := &resolution.ResolveInput{
			SourceType: payload.SourceType,
			SourceID:   payload.SourceID,
			Method:     payload.Method,
			Mode:       payload.Mode,
		}
		for _, c := range payload.Candidates {
			in.Candidates = append(in.Candidates, resolution.CandidateInput{
				NameEnglish:   c.NameEnglish,
				NameChinese:   c.NameChinese,
				AgentNumber:   c.AgentNumber,
				LicenseNumber: c.LicenseNumber,
				Company:       c.Company,
				Role:          c.Role,
				Confidence:    c.Confidence,
			})
		}

		results, err := resolver.Resolve(ctx, in)
		if err != nil {
			// Validation failures would fail identically on replay, so they
			// are logged and dropped rather than retried.
			if errors.IsClientError(errors.GetCode(err)) {
				logger.Warn("dropping unresolvable candidate batch",
					logging.String("event_id", env.EventID),
					logging.Err(err))
				return nil
			}
			return err
		}

		for _, res := range results {
			logger.Info("worker resolved candidate",
				logging.String("action", res.Action),
				logging.String("poi_id", res.PoiID),
				logging.Bool("link_created", res.LinkCreated))
		}
		return nil
	}
}
