package reporter

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"revenue-dashboard/internal/reconciler"
	"revenue-dashboard/pkg/errors"
	"revenue-dashboard/pkg/logger"
)

// SafeReportGenerator wraps ReportGenerator with logging and a console fallback.
// The report is rendered in memory first so a failed render never leaves
// partial output behind.
type SafeReportGenerator struct {
	*ReportGenerator
	logger logger.Logger
}

// NewSafeReportGenerator creates a new safe report generator
func NewSafeReportGenerator(config *ReportConfig, log logger.Logger) (*SafeReportGenerator, error) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	generator, err := NewReportGenerator(config)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "report", err.Error(), err).
			WithSuggestion("use --output-format console|json|csv|yaml and a known --dataset")
	}

	return &SafeReportGenerator{
		ReportGenerator: generator,
		logger:          log.WithComponent("reporter"),
	}, nil
}

// GenerateReportSafely renders the report and writes it to writer. When the
// requested format fails to render, the console format is written instead,
// preceded by a note.
func (srg *SafeReportGenerator) GenerateReportSafely(result *reconciler.Result, writer io.Writer) error {
	if result == nil {
		return errors.InternalError(errors.CodeUnexpectedError, "report generation", fmt.Errorf("nil result"))
	}
	if writer == nil {
		return errors.InternalError(errors.CodeUnexpectedError, "report generation", fmt.Errorf("nil writer"))
	}

	srg.logger.WithFields(logger.Fields{
		"format": srg.config.Format,
		"output": getWriterDescription(writer),
	}).Debug("Starting report generation")

	var buf bytes.Buffer
	if err := srg.GenerateReport(result, &buf); err != nil {
		buf.Reset()
		if fallbackErr := srg.generateWithFormatFallback(result, &buf, err); fallbackErr != nil {
			srg.logger.WithError(fallbackErr).Error("Report generation failed")
			return fallbackErr
		}
	}

	if _, err := buf.WriteTo(writer); err != nil {
		return errors.InternalError(errors.CodeUnexpectedError, "writing report to "+getWriterDescription(writer), err)
	}

	srg.logger.WithField("run_id", result.RunID).Debug("Report generation completed")
	return nil
}

func (srg *SafeReportGenerator) generateWithFormatFallback(result *reconciler.Result, writer io.Writer, originalErr error) error {
	if srg.config.Format == FormatConsole {
		return errors.InternalError(errors.CodeUnexpectedError, "report generation", originalErr)
	}

	srg.logger.WithError(originalErr).WithField("fallback_format", FormatConsole).
		Warn("Primary report generation failed, falling back to console format")

	fallbackConfig := *srg.config
	fallbackConfig.Format = FormatConsole
	fallback, err := NewReportGenerator(&fallbackConfig)
	if err != nil {
		return errors.InternalError(errors.CodeUnexpectedError, "report fallback", originalErr)
	}

	fmt.Fprintf(writer, "NOTE: Report generated in console format due to an error with %s\n", srg.config.Format)
	fmt.Fprintf(writer, "Original error: %v\n\n", originalErr)

	if err := fallback.GenerateReport(result, writer); err != nil {
		return errors.InternalError(
			errors.CodeUnexpectedError,
			"report fallback",
			fmt.Errorf("both primary and fallback generation failed: primary=%v, fallback=%v", originalErr, err),
		)
	}
	return nil
}

func getWriterDescription(writer io.Writer) string {
	switch w := writer.(type) {
	case *os.File:
		return w.Name()
	case *bytes.Buffer:
		return "buffer"
	default:
		return fmt.Sprintf("%T", writer)
	}
}
