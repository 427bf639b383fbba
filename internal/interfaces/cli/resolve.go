package cli

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marcuskncheung/new-intel-platform-sub000/internal/application/resolution"
	"github.com/marcuskncheung/new-intel-platform-sub000/pkg/errors"
	types "github.com/marcuskncheung/new-intel-platform-sub000/pkg/types/intel"
)

type resolveOptions struct {
	File       string
	SourceType string
	SourceID   string
	Mode       string

	NameEnglish   string
	NameChinese   string
	AgentNumber   string
	LicenseNumber string
	Company       string
	Role          string
}

// NewResolveCmd resolves candidates from flags or a JSON file directly
// against the engine, bypassing the HTTP API.  Useful for imports and
// operator one-offs.
func NewResolveCmd(opts *RootOptions) *cobra.Command {
	ro := &resolveOptions{}

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve candidates against the POI register",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}

			in, err := buildResolveInput(ro)
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

			results, err := app.Resolver.Resolve(ctx, in)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&ro.File, "file", "f", "", "JSON file containing a resolve request")
	f.StringVar(&ro.SourceType, "source-type", "", "source channel (EMAIL, WHATSAPP, PATROL, SURVEILLANCE, RECEIVED_BY_HAND)")
	f.StringVar(&ro.SourceID, "source-id", "", "source record identifier for link registration")
	f.StringVar(&ro.Mode, "mode", "", "update mode (merge, overwrite, skip_if_exists)")
	f.StringVar(&ro.NameEnglish, "name-english", "", "candidate English name")
	f.StringVar(&ro.NameChinese, "name-chinese", "", "candidate Chinese name")
	f.StringVar(&ro.AgentNumber, "agent-number", "", "candidate agent number")
	f.StringVar(&ro.LicenseNumber, "license-number", "", "candidate license number")
	f.StringVar(&ro.Company, "company", "", "candidate company")
	f.StringVar(&ro.Role, "role", "", "candidate role")
	return cmd
}

func buildResolveInput(ro *resolveOptions) (*resolution.ResolveInput, error) {
	if ro.File != "" {
		data, err := os.ReadFile(ro.File)
		if err != nil {
			return nil, err
		}
		var in resolution.ResolveInput
		if err := json.Unmarshal(data, &in); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeValidation, "invalid resolve request file")
		}
		return &in, nil
	}

	if ro.NameEnglish == "" && ro.NameChinese == "" && ro.AgentNumber == "" {
		return nil, errors.New(errors.ErrCodeValidation, "provide --file or at least one of --name-english, --name-chinese, --agent-number")
	}

	mode, err := types.ParseUpdateMode(ro.Mode)
	if err != nil {
		return nil, err
	}

	return &resolution.ResolveInput{
		SourceType: types.SourceType(ro.SourceType),
		SourceID:   ro.SourceID,
		Method:     types.ExtractionManual,
		Mode:       mode,
		Candidates: []resolution.CandidateInput{{
			NameEnglish:   ro.NameEnglish,
			NameChinese:   ro.NameChinese,
			AgentNumber:   ro.AgentNumber,
			LicenseNumber: ro.LicenseNumber,
			Company:       ro.Company,
			Role:          ro.Role,
		}},
	}, nil
}
