package approval_test

import (
	"testing"

	approval "github.com/vetterlabs/vetter/internal/domain/approval"
	"github.com/vetterlabs/vetter/internal/domain/settings"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEvaluate(t *testing.T) {
	Convey("Given default thresholds", t, func() {
		cfg := settings.Default() // vote 4.0, participation 51

		Convey("When the score and participation both clear the bar", func() {
			So(approval.Evaluate(4.2, true, 60, cfg), ShouldEqual, approval.DecisionApprove)
		})

		Convey("When the score sits exactly on the threshold", func() {
			So(approval.Evaluate(4.0, true, 51, cfg), ShouldEqual, approval.DecisionApprove)
		})

		Convey("When the score is below the threshold", func() {
			So(approval.Evaluate(3.9, true, 90, cfg), ShouldEqual, approval.DecisionNone)
		})

		Convey("When participation is below the threshold", func() {
			So(approval.Evaluate(5.0, true, 50, cfg), ShouldEqual, approval.DecisionNone)
		})

		Convey("When the project has no score", func() {
			So(approval.Evaluate(0, false, 100, cfg), ShouldEqual, approval.DecisionNone)
		})

		Convey("When auto-approval is disabled", func() {
			cfg.AutoApprovalEnabled = false
			So(approval.Evaluate(5.0, true, 100, cfg), ShouldEqual, approval.DecisionNone)
		})
	})
}

func TestCanFastTrack(t *testing.T) {
	Convey("Given default thresholds", t, func() {
		cfg := settings.Default()

		Convey("When the score clears the bar", func() {
			So(approval.CanFastTrack(4.5, true, cfg), ShouldBeTrue)
		})

		Convey("When participation would have blocked auto-approval", func() {
			// Fast-track ignores participation entirely; only the score
			// check applies.
			So(approval.CanFastTrack(4.0, true, cfg), ShouldBeTrue)
		})

		Convey("When the score is too low", func() {
			So(approval.CanFastTrack(3.0, true, cfg), ShouldBeFalse)
		})

		Convey("When the project has no score", func() {
			So(approval.CanFastTrack(0, false, cfg), ShouldBeFalse)
		})

		Convey("When the feature is disabled", func() {
			cfg.FastTrackEnabled = false
			So(approval.CanFastTrack(5.0, true, cfg), ShouldBeFalse)
		})
	})
}
