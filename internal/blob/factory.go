package blob

import (
	"context"
	"fmt"
	"strings"

	appcfg "github.com/rossyflor/pos-admin/internal/config"
)

type Logger interface {
	Printf(format string, v ...any)
}

// NewReportStore builds the report archive using REPORTS_MODE local|s3|auto.
// Local mode returns a nil Store: reports are streamed back and not kept.
func NewReportStore(ctx context.Context, cfg appcfg.ReportsConfig, logger Logger) (Store, string, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = appcfg.BlobModeLocal
	}

	switch mode {
	case appcfg.BlobModeLocal:
		logf(logger, "INFO reports.archive: mode=local (forced)")
		return nil, appcfg.BlobModeLocal, nil

	case appcfg.BlobModeAuto:
		if !cfg.S3.IsConfigured() {
			level, code, msg := cfg.S3.Diagnostics()
			logf(logger, "%s reports.s3: code=%s %s", level, code, msg)
			logf(logger, "INFO reports.s3: %s", cfg.S3.DiagnosticsSummary())
			logf(logger, "INFO reports.archive: mode=local (auto, S3 not configured)")
			return nil, appcfg.BlobModeLocal, nil
		}

		store, err := newFromConfig(ctx, cfg.S3, logger)
		if err != nil {
			logf(logger, "WARN reports.s3: init_failed=%q, fallback=local", err.Error())
			return nil, appcfg.BlobModeLocal, nil
		}
		logf(logger, "INFO reports.archive: mode=s3 (auto, configured)")
		return store, appcfg.BlobModeS3, nil

	case appcfg.BlobModeS3:
		if !cfg.S3.IsConfigured() {
			missing := cfg.S3.MissingRequired()
			logf(logger, "FATAL reports.s3: code=s3_config_incomplete missing=%v", missing)
			logf(logger, "FATAL reports.s3: %s", cfg.S3.DiagnosticsSummary())
			return nil, "", fmt.Errorf("REPORTS_MODE=s3 requested but missing required config: %s", strings.Join(missing, ", "))
		}

		store, err := newFromConfig(ctx, cfg.S3, logger)
		if err != nil {
			logf(logger, "FATAL reports.s3: init_failed=%v", err)
			return nil, "", fmt.Errorf("REPORTS_MODE=s3 init failed: %w", err)
		}
		logf(logger, "INFO reports.archive: mode=s3 (forced)")
		return store, appcfg.BlobModeS3, nil

	default:
		return nil, "", fmt.Errorf("unsupported reports mode: %s", mode)
	}
}

func newFromConfig(ctx context.Context, c appcfg.S3Config, logger Logger) (*S3Store, error) {
	logf(logger, "INFO reports.s3: code=s3_ready %s", c.DiagnosticsSummary())
	opts := S3Options{
		Endpoint:        c.Endpoint,
		Region:          c.Region,
		Bucket:          c.Bucket,
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: c.SecretAccessKey,
	}
	if c.PreferPublicURL {
		opts.PublicBaseURL = c.PublicBaseURL
	}
	return NewS3Store(ctx, opts)
}

func logf(logger Logger, format string, v ...any) {
	if logger == nil {
		return
	}
	logger.Printf(format, v...)
}
