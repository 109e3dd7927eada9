package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"leadline/internal/app"
	"leadline/internal/config"
	"leadline/internal/db"
	"leadline/internal/domain"
	"leadline/internal/ledger"
	"leadline/internal/pipeline"
	"leadline/internal/server"
	"leadline/internal/validate"
)

var rootCmd = &cobra.Command{
	Use:   "leadline",
	Short: "Leadline CLI",
	Long: `Leadline captures tort lead intake data, validates it and submits it to the
lead buyer, keeping a durable local history of every attempt.

- Workspace: the directory holding .leadline (database) and leadline.yml.
- Draft: the one lead being worked on; its source id is auto-assigned.
- Submit: validate, send to the buyer, and record the outcome; on success a
  fresh draft with a new source id is prepared, on failure the draft is kept
  for correction and retry.
- History: append-only ledger of attempts, exportable as CSV.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("LEADLINE")
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().Bool("mock", false, "use the offline mock buyer regardless of config")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("mock", rootCmd.PersistentFlags().Lookup("mock"))
}

func registerCommands() {
	rootCmd.AddCommand(submitCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(serveCmd())
}

type submitFlags struct {
	callerID, claimantName, claimantEmail   string
	incidentState, incidentDate             string
	atFault, attorney, seekingNew, settled  bool
	hasInsurance, insuranceCoverage, tfCert string
}

func submitCmd() *cobra.Command {
	var f submitFlags
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit one lead to the buyer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Context) error {
				p := a.Pipeline
				if _, err := p.Start(ctx); err != nil {
					return err
				}
				upd := pipeline.DraftUpdate{
					CallerID:           &f.callerID,
					ClaimantName:       &f.claimantName,
					ClaimantEmail:      &f.claimantEmail,
					IncidentState:      &f.incidentState,
					IncidentDate:       &f.incidentDate,
					AtFault:            &f.atFault,
					Attorney:           &f.attorney,
					SeekingNewAttorney: &f.seekingNew,
					Settlement:         &f.settled,
				}
				switch f.hasInsurance {
				case "":
				case "yes":
					v := true
					upd.HasInsurance = &v
				case "no":
					v := false
					upd.HasInsurance = &v
				default:
					return fmt.Errorf("--has-insurance must be yes or no")
				}
				if f.insuranceCoverage != "" {
					upd.InsuranceCoverage = &f.insuranceCoverage
				}
				if f.tfCert != "" {
					upd.TrustedFormCertURL = &f.tfCert
				}
				_, warn, err := p.UpdateDraft(upd)
				if err != nil {
					return err
				}
				if warn {
					fmt.Println("WARNING: accident date is more than 12 months old; the lead will be rejected.")
				}
				out, err := p.Submit(ctx)
				if err != nil {
					var ve validate.Errors
					if errors.As(err, &ve) {
						printFieldErrors(ve)
						os.Exit(1)
					}
					return err
				}
				return printOutcome(out)
			})
		},
	}
	cmd.Flags().StringVar(&f.callerID, "caller-id", "", "claimant phone number")
	cmd.Flags().StringVar(&f.claimantName, "name", "", "claimant full name")
	cmd.Flags().StringVar(&f.claimantEmail, "email", "", "claimant email")
	cmd.Flags().StringVar(&f.incidentState, "state", "", "incident state code")
	cmd.Flags().StringVar(&f.incidentDate, "date", "", "incident date MM/DD/YYYY")
	cmd.Flags().BoolVar(&f.atFault, "at-fault", false, "claimant was at fault")
	cmd.Flags().BoolVar(&f.attorney, "attorney", false, "claimant already has an attorney")
	cmd.Flags().BoolVar(&f.seekingNew, "seeking-new-attorney", false, "claimant wants a new attorney")
	cmd.Flags().BoolVar(&f.settled, "settlement", false, "claimant already received a settlement")
	cmd.Flags().StringVar(&f.hasInsurance, "has-insurance", "", "yes or no")
	cmd.Flags().StringVar(&f.insuranceCoverage, "insurance-coverage", "", "both, unsure or none")
	cmd.Flags().StringVar(&f.tfCert, "trusted-form-cert-url", "", "TrustedForm certificate URL")
	return cmd
}

func printFieldErrors(ve validate.Errors) {
	fmt.Println("validation failed:")
	fields := make([]string, 0, len(ve.Fields))
	for k := range ve.Fields {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	for _, k := range fields {
		fmt.Printf("  %s: %s\n", k, ve.Fields[k])
	}
}

func printOutcome(out pipeline.Outcome) error {
	if viper.GetBool("json") {
		return printJSON(out)
	}
	if out.Status == domain.StatusSuccess {
		fmt.Printf("Lead %s submitted successfully.\n", out.Submission.Lead.SourceID)
		if out.TransferDID != "" {
			fmt.Printf("Transfer the caller to %s for the warm handoff.\n", out.TransferDID)
		}
		return nil
	}
	fmt.Printf("Lead %s submission failed: %s\n", out.Submission.Lead.SourceID, out.Message)
	fmt.Println("The lead was recorded in history; correct and resubmit.")
	return nil
}

func historyCmd() *cobra.Command {
	hist := &cobra.Command{Use: "history", Short: "Submission history"}
	hist.AddCommand(historyListCmd())
	hist.AddCommand(historyExportCmd())
	return hist
}

func historyListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List submissions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Context) error {
				items, err := a.Ledger.ListRecentFirst(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Source ID", "Submitted", "Status", "Phone", "Name", "State", "Date"})
				for _, s := range items {
					tw.AppendRow(table.Row{
						s.Lead.SourceID, s.SubmittedAt, s.Status,
						s.Lead.CallerID, s.Lead.ClaimantName, s.Lead.IncidentState, s.Lead.IncidentDate,
					})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func historyExportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export submission history as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Context) error {
				items, err := a.Ledger.List(ctx)
				if err != nil {
					return err
				}
				csv := ledger.ExportCSV(items)
				path := out
				if path == "" {
					path = ledger.ExportFilename(time.Now())
				}
				if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
					return err
				}
				fmt.Printf("wrote %d entries to %s\n", len(items), path)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output file (default lead-history-YYYY-MM-DD.csv)")
	return cmd
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{Use: "config", Short: "Manage workspace config"}
	cfg.AddCommand(configInitCmd())
	cfg.AddCommand(configShowCmd())
	return cfg
}

func configInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default leadline.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
	return cmd
}

func configShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOptional(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			return printJSON(cfg)
		},
	}
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API for the intake form UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return withApp(ctx, func(ctx context.Context, a *app.Context) error {
				if _, err := a.Pipeline.Start(ctx); err != nil {
					return err
				}
				handler, err := server.New(server.Config{
					Pipeline: a.Pipeline,
					Ledger:   a.Ledger,
					BasePath: basePath,
				})
				if err != nil {
					return err
				}
				srv := &http.Server{Addr: addr, Handler: handler}
				go func() {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
				fmt.Printf("Serving Leadline API on http://%s%s (mode: %s)\n", addr, basePath, a.Config.Buyer.Mode)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	return cmd
}

// --- helpers ---

func withApp(ctx context.Context, fn func(context.Context, *app.Context) error) error {
	a, err := app.Open(ctx, app.Options{
		Workspace: viper.GetString("workspace"),
		ForceMock: viper.GetBool("mock"),
	})
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
