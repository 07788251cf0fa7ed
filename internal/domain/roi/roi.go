// Package roi measures post-approval price performance.
package roi

import (
	"time"

	"github.com/vetterlabs/vetter/internal/domain/model"
)

const percent = 100.0

// NewRecord builds the ROI record captured at the approval instant. Entry,
// current and peak all start at the approval price.
func NewRecord(projectID string, priceAtApproval float64, approvedAt time.Time) model.ROIRecord {
	return model.ROIRecord{
		ProjectID:    projectID,
		EntryPrice:   priceAtApproval,
		CurrentPrice: priceAtApproval,
		PeakPrice:    priceAtApproval,
		ROI:          0,
		PeakROI:      0,
		ApprovedAt:   approvedAt,
	}
}

// Apply folds a new price observation into the record. ROI tracks the
// current price; the peak fields are a monotonic ratchet and only move up.
func Apply(rec model.ROIRecord, currentPrice float64) model.ROIRecord {
	rec.CurrentPrice = currentPrice
	rec.ROI = Compute(rec.EntryPrice, currentPrice)
	if rec.ROI > rec.PeakROI {
		rec.PeakROI = rec.ROI
		rec.PeakPrice = currentPrice
	}
	return rec
}

// Compute returns the percentage price change relative to entry. A zero
// entry price yields zero rather than a division blow-up; such records can
// only come from a feed that never priced the project.
func Compute(entryPrice, currentPrice float64) float64 {
	if entryPrice == 0 {
		return 0
	}
	return (currentPrice - entryPrice) / entryPrice * percent
}
