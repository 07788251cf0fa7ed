package feedsim

import (
	"context"
	"fmt"
	"net/http"

	"github.com/vetterlabs/vetter/pkg/logger"
)

// verifyResults reads every project back and checks the invariants the
// simulation can observe from outside: every project that collected ballots
// carries a score, and every approved project has an ROI record anchored at
// a positive entry price.
func verifyResults(ctx context.Context, config *Config, client *HTTPClient, projects []Project, stats *Stats) error {
	logger.Get().Info(ctx, "verifying results")

	for _, p := range projects {
		var got Project
		status, err := client.Get(ctx, config.BaseURL+"/projects/"+p.ID, &got)
		if err != nil {
			return fmt.Errorf("failed to fetch project %s: %w", p.ID, err)
		}
		if status != http.StatusOK {
			return fmt.Errorf("project %s fetch returned status %d", p.ID, status)
		}

		if got.Votes > 0 && got.Score == nil {
			return fmt.Errorf("project %s has %d votes but no score", p.ID, got.Votes)
		}

		switch got.Status {
		case "APPROVED", "PARTNERSHIP":
			stats.ProjectsApproved++
			if err := verifyROI(ctx, config, client, got, stats); err != nil {
				return err
			}
		case "VETTING":
			stats.ProjectsVetting++
		default:
			return fmt.Errorf("project %s has unknown status %q", p.ID, got.Status)
		}
	}

	logger.Get().Info(ctx, "verification passed",
		logger.Int("approved", stats.ProjectsApproved),
		logger.Int("stillVetting", stats.ProjectsVetting))
	return nil
}

// verifyROI checks the ROI record of an approved project.
func verifyROI(ctx context.Context, config *Config, client *HTTPClient, p Project, stats *Stats) error {
	var roi ROIRecord
	status, err := client.Get(ctx, config.BaseURL+"/projects/"+p.ID+"/roi", &roi)
	if err != nil {
		return fmt.Errorf("failed to fetch ROI for %s: %w", p.ID, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("approved project %s has no ROI record (status %d)", p.ID, status)
	}
	if roi.EntryPrice <= 0 {
		return fmt.Errorf("project %s ROI entry price is %f", p.ID, roi.EntryPrice)
	}
	if roi.PeakROI < roi.ROI {
		return fmt.Errorf("project %s peak ROI %f below current ROI %f", p.ID, roi.PeakROI, roi.ROI)
	}

	stats.ROIRecordsVerified++
	return nil
}
