package reconciler

import (
	"context"
	"time"

	"revenue-dashboard/internal/parsers"
	"revenue-dashboard/pkg/errors"
)

// Watch builds the dashboard immediately and again whenever either input's
// identity changes, polling every interval until ctx is cancelled. Every
// outcome, including fatal input errors, is passed to onResult. Unchanged
// inputs are not rebuilt.
func (s *DashboardService) Watch(ctx context.Context, req *Request, interval time.Duration, onResult func(*Result, error)) error {
	if interval <= 0 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "interval", interval, nil)
	}

	last := ""
	check := func() {
		key := inputsKey(req)
		if key == last {
			return
		}
		if last != "" {
			s.logger.WithField("inputs", key).Info("Input changed, rebuilding dashboard")
		}
		last = key
		onResult(s.Build(ctx, req))
	}

	check()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			check()
		}
	}
}

// inputsKey combines the identities of both inputs; an input that cannot be
// identified contributes its error so that recovering from it triggers a rebuild
func inputsKey(req *Request) string {
	return sourceKey(req.Revenue) + "|" + sourceKey(req.Forecast)
}

func sourceKey(src parsers.Source) string {
	id, err := src.Identify()
	if err != nil {
		return "error:" + err.Error()
	}
	return id.Key
}
