// Command catalogctl runs the operator-invoked batch jobs of the catalog
// pipeline: scraping vendor category pages, provisioning QR artifacts and
// auditing the catalog store for identifier drift.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"catalog-pipeline/config"
	"catalog-pipeline/repositories"
	"catalog-pipeline/services"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app holds the per-run wiring. Everything is constructed once per
// invocation and passed explicitly; there are no ambient singletons.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *repositories.DocumentStore
	media  *repositories.ObjectStore
	jobs   *repositories.JobStatusRepository
	guard  repositories.RunGuard
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	dynamoClient := dynamodb.NewFromConfig(awsCfg)
	s3Client := s3.NewFromConfig(awsCfg)

	a := &app{
		cfg:    cfg,
		logger: logger,
		store:  repositories.NewDocumentStore(dynamoClient, cfg.CatalogTable, cfg.SparePartsTable),
		media:  repositories.NewObjectStore(s3Client, cfg.MediaBucket, cfg.SignedURLTTL, logger),
		jobs:   repositories.NewJobStatusRepository(dynamoClient, cfg.ScrapeJobsTable, logger),
	}
	if cfg.RedisHost != "" {
		a.guard = repositories.NewRedisRunGuard(cfg.RedisHost, cfg.RedisPort)
	}
	return a, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Catalog ingestion and QR-provisioning pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newScrapeCmd())
	root.AddCommand(newScrapePartsCmd())
	root.AddCommand(newQRCmd())
	root.AddCommand(newAuditCmd())
	return root
}

func newScrapeCmd() *cobra.Command {
	var url, category, subcategory, waitSelector string
	var noSandbox bool

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape one category page and upsert its catalog records",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			browser := repositories.NewBrowserSession(repositories.BrowserConfig{
				WaitSelector:     waitSelector,
				NavTimeout:       a.cfg.NavTimeout,
				ChallengeTimeout: a.cfg.ChallengeTimeout,
				DebugDir:         a.cfg.DebugDir,
				RemoteURL:        a.cfg.ChromeRemoteURL,
				NoSandbox:        noSandbox,
				Logger:           a.logger,
			})
			defer browser.Close()

			svc := services.NewIngestService(
				services.WithPageSource(browser),
				services.WithRecordExtractor(services.NewExtractor(services.WithExtractorLogger(a.logger))),
				services.WithCatalogWriter(a.store),
				services.WithMediaStore(a.media),
				services.WithImageFetcher(repositories.NewImageFetcher()),
				services.WithJobTracker(a.jobs),
				services.WithRunGuard(a.guard),
				services.WithPartsNamespace(a.cfg.PartsNamespace),
				services.WithIngestLogger(a.logger),
			)

			summary, err := svc.IngestCategory(cmd.Context(), url, category, subcategory)
			if err != nil {
				return err
			}
			printSummary(cmd, summary)
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "target category page URL")
	cmd.Flags().StringVar(&category, "category", "", "category label for extracted records")
	cmd.Flags().StringVar(&subcategory, "subcategory", "", "subcategory label for extracted records")
	cmd.Flags().StringVar(&waitSelector, "wait-selector", "div.product-card", "content selector to wait for after navigation")
	cmd.Flags().BoolVar(&noSandbox, "no-sandbox", false, "run Chrome without sandbox (Docker/root)")
	_ = cmd.MarkFlagRequired("url")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func newScrapePartsCmd() *cobra.Command {
	var url, waitSelector string
	var noSandbox bool

	cmd := &cobra.Command{
		Use:   "scrape-parts",
		Short: "Scrape one spare-parts page, re-hosting part images",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			browser := repositories.NewBrowserSession(repositories.BrowserConfig{
				WaitSelector:     waitSelector,
				NavTimeout:       a.cfg.NavTimeout,
				ChallengeTimeout: a.cfg.ChallengeTimeout,
				DebugDir:         a.cfg.DebugDir,
				RemoteURL:        a.cfg.ChromeRemoteURL,
				NoSandbox:        noSandbox,
				Logger:           a.logger,
			})
			defer browser.Close()

			svc := services.NewIngestService(
				services.WithPageSource(browser),
				services.WithRecordExtractor(services.NewExtractor(services.WithExtractorLogger(a.logger))),
				services.WithCatalogWriter(a.store),
				services.WithMediaStore(a.media),
				services.WithImageFetcher(repositories.NewImageFetcher()),
				services.WithJobTracker(a.jobs),
				services.WithRunGuard(a.guard),
				services.WithPartsNamespace(a.cfg.PartsNamespace),
				services.WithIngestLogger(a.logger),
			)

			summary, err := svc.IngestSpareParts(cmd.Context(), url)
			if err != nil {
				return err
			}
			printSummary(cmd, summary)
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "target spare-parts page URL")
	cmd.Flags().StringVar(&waitSelector, "wait-selector", "div.part-card", "content selector to wait for after navigation")
	cmd.Flags().BoolVar(&noSandbox, "no-sandbox", false, "run Chrome without sandbox (Docker/root)")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}

func newQRCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qr [canonical-id ...]",
		Short: "Provision QR artifacts; no ids regenerates every record missing one",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			svc := services.NewQRService(
				services.WithQRCatalogStore(a.store),
				services.WithQRMediaStore(a.media),
				services.WithQRNamespace(a.cfg.QRNamespace),
				services.WithQRLogger(a.logger),
			)

			var summary *services.ProvisionSummary
			if len(args) == 0 {
				summary, err = svc.ProvisionMissing(cmd.Context())
				if err != nil {
					return err
				}
			} else {
				summary = svc.ProvisionIDs(cmd.Context(), args)
			}

			cmd.Printf("provisioned %d artifact(s), %d failure(s)\n",
				summary.Provisioned, len(summary.Failed))
			return nil
		},
	}
	return cmd
}

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Report catalog documents whose key disagrees with their identifier fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			svc := services.NewAuditService(
				services.WithAuditSource(a.store),
				services.WithAuditLogger(a.logger),
			)

			report, err := svc.Audit(cmd.Context())
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			cmd.Println(string(out))

			if len(report.Mismatches) > 0 {
				return fmt.Errorf("audit found %d mismatched document(s)", len(report.Mismatches))
			}
			return nil
		},
	}
	return cmd
}

func printSummary(cmd *cobra.Command, summary *services.IngestSummary) {
	cmd.Printf("job %s: ingested %d record(s), skipped %d\n",
		summary.JobID, summary.Ingested, len(summary.Skipped))
	for _, skip := range summary.Skipped {
		cmd.Printf("  skipped %s at %s: %v\n", skip.ID, skip.Stage, skip.Err)
	}
}
