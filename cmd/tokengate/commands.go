package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/tokengate/internal/gate/app"
	"github.com/aussiebroadwan/tokengate/internal/gate/domain"
	"github.com/aussiebroadwan/tokengate/internal/gate/service"
	"github.com/aussiebroadwan/tokengate/internal/gate/store"
	"github.com/aussiebroadwan/tokengate/pkg/cryptox"
	"github.com/aussiebroadwan/tokengate/pkg/gatesdk"
	"github.com/aussiebroadwan/tokengate/pkg/idx"
	"github.com/aussiebroadwan/tokengate/pkg/jwtx"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gate",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(*configPath)
			if err != nil {
				return err
			}

			application, err := app.New(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			return application.Run()
		},
	}
}

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply store migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(*configPath)
			if err != nil {
				return err
			}

			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			app.NewLogger(cfg).Info("store migrations applied", "driver", cfg.StoreDriver)
			return nil
		},
	}
}

func newSubjectCmd(configPath *string) *cobra.Command {
	subjectCmd := &cobra.Command{Use: "subject", Short: "Manage subjects"}

	var name string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a subject and print its id",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(*configPath)
			if err != nil {
				return err
			}

			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			subject := domain.Subject{ID: idx.New().String(), DisplayName: name}
			if err := st.Subjects().CreateSubject(cmd.Context(), subject); err != nil {
				return fmt.Errorf("create subject: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{
				"subject_id":   subject.ID,
				"display_name": subject.DisplayName,
			})
		},
	}
	createCmd.Flags().StringVar(&name, "name", "", "Display name")

	var deleteID string
	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a subject, ending any session it holds",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := idx.Parse(deleteID); err != nil {
				return fmt.Errorf("--id: %w", err)
			}

			cfg, err := app.LoadConfig(*configPath)
			if err != nil {
				return err
			}

			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Subjects().DeleteSubject(cmd.Context(), deleteID); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("subject %s not found", deleteID)
				}
				return fmt.Errorf("delete subject: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted")
			return nil
		},
	}
	deleteCmd.Flags().StringVar(&deleteID, "id", "", "Subject id")

	subjectCmd.AddCommand(createCmd, deleteCmd)
	return subjectCmd
}

func newTokenCmd(configPath *string) *cobra.Command {
	tokenCmd := &cobra.Command{Use: "token", Short: "Manage token pairs"}

	var subjectID string
	issueCmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a fresh token pair, replacing any current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := idx.Parse(subjectID); err != nil {
				return fmt.Errorf("--subject: %w", err)
			}

			cfg, err := app.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			codec, err := jwtx.NewCodec(cfg.CodecOptions(nil))
			if err != nil {
				return err
			}

			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			engine := service.NewEngine(codec, service.NewIdentityStore(st.Subjects()))
			pair, err := engine.Issue(cmd.Context(), subjectID)
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), gatesdk.TokenPairResponse{
				SubjectID:        subjectID,
				AccessToken:      pair.AccessToken,
				RefreshToken:     pair.RefreshToken,
				AccessExpiresAt:  pair.AccessExpiresAt,
				RefreshExpiresAt: pair.RefreshExpiresAt,
			})
		},
	}
	issueCmd.Flags().StringVar(&subjectID, "subject", "", "Subject id")

	tokenCmd.AddCommand(issueCmd)
	return tokenCmd
}

func newSecretCmd() *cobra.Command {
	secretCmd := &cobra.Command{Use: "secret", Short: "Signing secret helpers"}

	var size int
	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Print a random signing secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			if size < cryptox.SecretSize256 {
				return fmt.Errorf("--bytes must be at least %d", cryptox.SecretSize256)
			}
			secret, err := cryptox.GenerateToken(size)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), secret)
			return nil
		},
	}
	generateCmd.Flags().IntVar(&size, "bytes", cryptox.SecretSize256, "Random bytes before encoding")

	secretCmd.AddCommand(generateCmd)
	return secretCmd
}

// openStore connects to the configured store and applies migrations.
func openStore(ctx context.Context, cfg app.Config) (store.Store, error) {
	st, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}
	if err := st.ApplyMigrations(); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return st, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
