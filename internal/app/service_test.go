package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	repository "github.com/vetterlabs/vetter/internal/adapters/repository"
	service "github.com/vetterlabs/vetter/internal/app"
	"github.com/vetterlabs/vetter/internal/domain/approval"
	"github.com/vetterlabs/vetter/internal/domain/model"
	"github.com/vetterlabs/vetter/internal/domain/settings"
	logging "github.com/vetterlabs/vetter/pkg/logger"
)

func newStartedService(t *testing.T, opts ...service.Option) *service.Service {
	t.Helper()
	_ = logging.Init()

	svc := service.New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("failed to start service: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func submission(name, symbol string) model.Project {
	return model.Project{
		Name:      name,
		Symbol:    symbol,
		Logo:      "https://example.com/logo.png",
		Website:   "https://example.com",
		Liquidity: 50_000,
		Volume24h: 10_000,
		Price:     0.0234,
	}
}

func allFives() model.Ratings {
	return model.Ratings{Meme: 5, Roadmap: 5, Growth: 5, Narrative: 5, Utility: 5}
}

func TestCreateProject(t *testing.T) {
	convey.Convey("Given a started service", t, func() {
		svc := newStartedService(t)
		ctx := context.Background()

		convey.Convey("When a member submits a valid project", func() {
			created, err := svc.CreateProject(ctx, submission("Pepe Classic", "PEPEC"), model.RoleMember)

			convey.Convey("Then it enters vetting with no score", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(created.ID, convey.ShouldNotBeEmpty)
				convey.So(created.Status, convey.ShouldEqual, model.StatusVetting)
				convey.So(created.Scored, convey.ShouldBeFalse)
				convey.So(created.Votes, convey.ShouldEqual, 0)
				convey.So(created.Seq, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When a guest submits a project", func() {
			_, err := svc.CreateProject(ctx, submission("Pepe Classic", "PEPEC"), model.RoleGuest)

			convey.Convey("Then the submission is forbidden", func() {
				convey.So(err, convey.ShouldWrap, model.ErrForbidden)
			})
		})

		convey.Convey("When the submission is invalid", func() {
			bad := submission("", "")
			bad.Liquidity = -100

			_, err := svc.CreateProject(ctx, bad, model.RoleMember)

			convey.Convey("Then every violated field is listed", func() {
				var verr *model.ValidationError
				convey.So(err, convey.ShouldWrap, model.ErrValidation)
				convey.So(errorsAs(err, &verr), convey.ShouldBeTrue)
				convey.So(verr.Fields, convey.ShouldResemble, []string{"name", "symbol", "liquidity"})
			})
		})
	})
}

func TestSubmitVote(t *testing.T) {
	convey.Convey("Given a service with a project in vetting", t, func() {
		svc := newStartedService(t, service.WithVoterPoolSize(100))
		ctx := context.Background()

		project, err := svc.CreateProject(ctx, submission("Moon Doge", "MDOGE"), model.RoleMember)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When a member casts a valid ballot", func() {
			updated, replaced, err := svc.SubmitVote(ctx, project.ID, "alice", allFives(), model.RoleMember)

			convey.Convey("Then the score reflects the ballot", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(replaced, convey.ShouldBeFalse)
				convey.So(updated.Votes, convey.ShouldEqual, 1)
				convey.So(updated.Scored, convey.ShouldBeTrue)
				convey.So(updated.Score, convey.ShouldEqual, 5.0)
			})

			convey.Convey("And when the same member votes again", func() {
				again, replaced, err := svc.SubmitVote(ctx, project.ID, "alice",
					model.Ratings{Meme: 3, Roadmap: 3, Growth: 3, Narrative: 3, Utility: 3}, model.RoleMember)

				convey.Convey("Then the ballot is replaced, not added", func() {
					convey.So(err, convey.ShouldBeNil)
					convey.So(replaced, convey.ShouldBeTrue)
					convey.So(again.Votes, convey.ShouldEqual, 1)
					convey.So(again.Score, convey.ShouldEqual, 3.0)
				})
			})
		})

		convey.Convey("When a guest tries to vote", func() {
			_, _, err := svc.SubmitVote(ctx, project.ID, "ghost", allFives(), model.RoleGuest)

			convey.Convey("Then the vote is forbidden", func() {
				convey.So(err, convey.ShouldWrap, model.ErrForbidden)
			})
		})

		convey.Convey("When a ballot has out-of-range categories", func() {
			_, _, err := svc.SubmitVote(ctx, project.ID, "bob",
				model.Ratings{Meme: 0, Roadmap: 6, Growth: 3, Narrative: 3, Utility: 3}, model.RoleMember)

			convey.Convey("Then every offending category is listed", func() {
				var rerr *model.RatingError
				convey.So(err, convey.ShouldWrap, model.ErrInvalidRating)
				convey.So(errorsAs(err, &rerr), convey.ShouldBeTrue)
				convey.So(rerr.Categories, convey.ShouldResemble, []string{"meme", "roadmap"})
			})
		})

		convey.Convey("When voting on an unknown project", func() {
			_, _, err := svc.SubmitVote(ctx, "nope", "alice", allFives(), model.RoleMember)

			convey.Convey("Then the project is reported missing", func() {
				convey.So(repository.IsNotFound(err), convey.ShouldBeTrue)
			})
		})
	})
}

func TestVoteLimit(t *testing.T) {
	convey.Convey("Given a service capped at 2 open votes per user", t, func() {
		cfg := settings.Default()
		cfg.MaxVotesPerUser = 2
		// Large pool so no project auto-approves and frees a slot.
		svc := newStartedService(t,
			service.WithInitialSettings(cfg),
			service.WithVoterPoolSize(1000),
		)
		ctx := context.Background()

		p1, _ := svc.CreateProject(ctx, submission("One", "ONE"), model.RoleMember)
		p2, _ := svc.CreateProject(ctx, submission("Two", "TWO"), model.RoleMember)
		p3, _ := svc.CreateProject(ctx, submission("Three", "THREE"), model.RoleMember)

		_, _, err := svc.SubmitVote(ctx, p1.ID, "alice", allFives(), model.RoleMember)
		convey.So(err, convey.ShouldBeNil)
		_, _, err = svc.SubmitVote(ctx, p2.ID, "alice", allFives(), model.RoleMember)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When the user votes on a third project", func() {
			_, _, err := svc.SubmitVote(ctx, p3.ID, "alice", allFives(), model.RoleMember)

			convey.Convey("Then the vote limit blocks it", func() {
				convey.So(err, convey.ShouldWrap, model.ErrVoteLimitExceeded)
			})
		})

		convey.Convey("When the user revises a ballot on an already-voted project", func() {
			_, replaced, err := svc.SubmitVote(ctx, p1.ID, "alice",
				model.Ratings{Meme: 4, Roadmap: 4, Growth: 4, Narrative: 4, Utility: 4}, model.RoleMember)

			convey.Convey("Then the limit does not apply", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(replaced, convey.ShouldBeTrue)
			})
		})
	})
}

func TestAutoApproval(t *testing.T) {
	convey.Convey("Given a pool of 5 members and default thresholds", t, func() {
		svc := newStartedService(t, service.WithVoterPoolSize(5))
		ctx := context.Background()

		project, err := svc.CreateProject(ctx, submission("Runner", "RUN"), model.RoleMember)
		convey.So(err, convey.ShouldBeNil)

		strong := model.Ratings{Meme: 4, Roadmap: 4, Growth: 4, Narrative: 5, Utility: 4} // mean 4.2

		convey.Convey("When 3 of 5 members rate it above the threshold", func() {
			_, _, err := svc.SubmitVote(ctx, project.ID, "alice", strong, model.RoleMember)
			convey.So(err, convey.ShouldBeNil)
			_, _, err = svc.SubmitVote(ctx, project.ID, "bob", strong, model.RoleMember)
			convey.So(err, convey.ShouldBeNil)
			updated, _, err := svc.SubmitVote(ctx, project.ID, "carol", strong, model.RoleMember)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then participation reaches 60% and the project approves", func() {
				convey.So(updated.Status, convey.ShouldEqual, model.StatusApproved)
				convey.So(updated.Score, convey.ShouldAlmostEqual, 4.2, 0.0001)
			})

			convey.Convey("And the ROI entry price is captured at approval", func() {
				rec, err := svc.GetROI(ctx, project.ID)
				convey.So(err, convey.ShouldBeNil)
				convey.So(rec.EntryPrice, convey.ShouldAlmostEqual, 0.0234, 1e-9)
				convey.So(rec.ROI, convey.ShouldEqual, 0.0)
				convey.So(rec.PeakROI, convey.ShouldEqual, 0.0)
			})

			convey.Convey("And further votes on the approved project are rejected", func() {
				_, _, err := svc.SubmitVote(ctx, project.ID, "dave", strong, model.RoleMember)
				convey.So(err, convey.ShouldWrap, model.ErrProjectNotVetting)
			})
		})
	})

	convey.Convey("Given a pool of 10 members", t, func() {
		svc := newStartedService(t, service.WithVoterPoolSize(10))
		ctx := context.Background()

		project, _ := svc.CreateProject(ctx, submission("Laggard", "LAG"), model.RoleMember)

		convey.Convey("When only 3 of 10 members vote, however highly", func() {
			var updated model.Project
			for _, user := range []string{"alice", "bob", "carol"} {
				var err error
				updated, _, err = svc.SubmitVote(ctx, project.ID, user, allFives(), model.RoleMember)
				convey.So(err, convey.ShouldBeNil)
			}

			convey.Convey("Then 30% participation keeps it in vetting", func() {
				convey.So(updated.Score, convey.ShouldEqual, 5.0)
				convey.So(updated.Status, convey.ShouldEqual, model.StatusVetting)
			})
		})
	})

	convey.Convey("Given auto-approval is disabled", t, func() {
		cfg := settings.Default()
		cfg.AutoApprovalEnabled = false
		svc := newStartedService(t,
			service.WithInitialSettings(cfg),
			service.WithVoterPoolSize(2),
		)
		ctx := context.Background()

		project, _ := svc.CreateProject(ctx, submission("Parked", "PARK"), model.RoleMember)

		convey.Convey("When every member votes the maximum", func() {
			var updated model.Project
			for _, user := range []string{"alice", "bob"} {
				updated, _, _ = svc.SubmitVote(ctx, project.ID, user, allFives(), model.RoleMember)
			}

			convey.Convey("Then the project stays in vetting", func() {
				convey.So(updated.Status, convey.ShouldEqual, model.StatusVetting)
			})
		})
	})
}

func TestIngestSnapshot(t *testing.T) {
	convey.Convey("Given a service with a project in vetting", t, func() {
		svc := newStartedService(t, service.WithVoterPoolSize(100))
		ctx := context.Background()

		project, err := svc.CreateProject(ctx, submission("Feed Me", "FEED"), model.RoleMember)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When a valid snapshot is ingested", func() {
			err := svc.IngestSnapshot(ctx, model.FeedSnapshot{
				ProjectID:       project.ID,
				Liquidity:       800_000,
				Volume24h:       400_000,
				HolderGrowth:    25,
				PriceVolatility: 10,
				SocialMentions:  250,
				Price:           0.05,
				PriceChange:     12.5,
				Timestamp:       time.Now(),
			})

			convey.Convey("Then market fields and score are refreshed", func() {
				convey.So(err, convey.ShouldBeNil)
				got, err := svc.GetProject(ctx, project.ID)
				convey.So(err, convey.ShouldBeNil)
				convey.So(got.Liquidity, convey.ShouldEqual, 800_000)
				convey.So(got.Volume24h, convey.ShouldEqual, 400_000)
				convey.So(got.Price, convey.ShouldEqual, 0.05)
				convey.So(got.Scored, convey.ShouldBeTrue)
				convey.So(got.Score, convey.ShouldBeGreaterThan, 0)
				convey.So(got.Score, convey.ShouldBeLessThanOrEqualTo, 5.0)
			})

			convey.Convey("And no ROI record exists before approval", func() {
				convey.So(err, convey.ShouldBeNil)
				_, roiErr := svc.GetROI(ctx, project.ID)
				convey.So(repository.IsNotFound(roiErr), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a snapshot carries out-of-bounds fields", func() {
			err := svc.IngestSnapshot(ctx, model.FeedSnapshot{
				ProjectID:       project.ID,
				Liquidity:       -100,
				Volume24h:       10,
				HolderGrowth:    2000,
				PriceVolatility: 5,
				Timestamp:       time.Now(),
			})

			convey.Convey("Then every offending field is listed", func() {
				var serr *model.SnapshotError
				convey.So(err, convey.ShouldWrap, model.ErrInvalidSnapshot)
				convey.So(errorsAs(err, &serr), convey.ShouldBeTrue)
				convey.So(serr.Fields, convey.ShouldResemble, []string{"liquidity", "holder_growth"})
			})

			convey.Convey("And the project is untouched", func() {
				got, getErr := svc.GetProject(ctx, project.ID)
				convey.So(getErr, convey.ShouldBeNil)
				convey.So(got.Liquidity, convey.ShouldEqual, 50_000)
			})
		})

		convey.Convey("When a snapshot targets an unknown project", func() {
			err := svc.IngestSnapshot(ctx, model.FeedSnapshot{
				ProjectID: "nope",
				Price:     1,
				Timestamp: time.Now(),
			})

			convey.Convey("Then ingestion fails", func() {
				convey.So(repository.IsNotFound(err), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When an identical ballot state is recomputed twice", func() {
			_, _, err := svc.SubmitVote(ctx, project.ID, "alice", allFives(), model.RoleMember)
			convey.So(err, convey.ShouldBeNil)
			first, _ := svc.GetProject(ctx, project.ID)

			_, replaced, err := svc.SubmitVote(ctx, project.ID, "alice", allFives(), model.RoleMember)
			convey.So(err, convey.ShouldBeNil)
			convey.So(replaced, convey.ShouldBeTrue)
			second, _ := svc.GetProject(ctx, project.ID)

			convey.Convey("Then the score is identical", func() {
				convey.So(second.Score, convey.ShouldEqual, first.Score)
				convey.So(second.Votes, convey.ShouldEqual, first.Votes)
			})
		})
	})
}

func TestEnqueueSnapshot(t *testing.T) {
	convey.Convey("Given a started service", t, func() {
		svc := newStartedService(t, service.WithWorkerCount(2))
		ctx := context.Background()

		project, err := svc.CreateProject(ctx, submission("Async", "ASY"), model.RoleMember)
		convey.So(err, convey.ShouldBeNil)

		snap := model.FeedSnapshot{
			ProjectID: project.ID,
			Liquidity: 1000,
			Volume24h: 500,
			Price:     0.5,
			Timestamp: time.Now(),
		}

		convey.Convey("When the same delivery arrives twice", func() {
			first := svc.EnqueueSnapshot(ctx, snap)
			second := svc.EnqueueSnapshot(ctx, snap)

			convey.Convey("Then both report accepted", func() {
				convey.So(first, convey.ShouldBeTrue)
				convey.So(second, convey.ShouldBeTrue)
			})

			convey.Convey("And only one snapshot lands in the series", func() {
				time.Sleep(100 * time.Millisecond)
				feed, err := svc.GetFeed(ctx, project.ID, 10)
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(feed.Snapshots), convey.ShouldEqual, 1)
			})
		})
	})
}

func TestROITracking(t *testing.T) {
	convey.Convey("Given an approved project with an entry price", t, func() {
		svc := newStartedService(t, service.WithVoterPoolSize(1))
		ctx := context.Background()

		project, err := svc.CreateProject(ctx, submission("Rocket", "RKT"), model.RoleMember)
		convey.So(err, convey.ShouldBeNil)

		// One vote is 100% participation of a pool of 1.
		approved, _, err := svc.SubmitVote(ctx, project.ID, "alice", allFives(), model.RoleMember)
		convey.So(err, convey.ShouldBeNil)
		convey.So(approved.Status, convey.ShouldEqual, model.StatusApproved)

		ingest := func(price float64) {
			err := svc.IngestSnapshot(ctx, model.FeedSnapshot{
				ProjectID: project.ID,
				Liquidity: 1000,
				Volume24h: 500,
				Price:     price,
				Timestamp: time.Now(),
			})
			convey.So(err, convey.ShouldBeNil)
		}

		convey.Convey("When the price doubles", func() {
			ingest(0.0468)

			rec, err := svc.GetROI(ctx, project.ID)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then ROI and peak both reach 100%", func() {
				convey.So(rec.ROI, convey.ShouldAlmostEqual, 100.0, 0.0001)
				convey.So(rec.PeakROI, convey.ShouldAlmostEqual, 100.0, 0.0001)
				convey.So(rec.PeakPrice, convey.ShouldAlmostEqual, 0.0468, 1e-9)
			})

			convey.Convey("And when the price falls back", func() {
				ingest(0.0234)

				rec, err := svc.GetROI(ctx, project.ID)
				convey.So(err, convey.ShouldBeNil)

				convey.Convey("Then ROI drops but the peak holds", func() {
					convey.So(rec.ROI, convey.ShouldAlmostEqual, 0.0, 0.0001)
					convey.So(rec.PeakROI, convey.ShouldAlmostEqual, 100.0, 0.0001)
					convey.So(rec.CurrentPrice, convey.ShouldAlmostEqual, 0.0234, 1e-9)
				})
			})
		})
	})
}

func TestFastTrack(t *testing.T) {
	convey.Convey("Given a scored project below full participation", t, func() {
		svc := newStartedService(t, service.WithVoterPoolSize(1000))
		ctx := context.Background()

		project, err := svc.CreateProject(ctx, submission("Jumper", "JMP"), model.RoleMember)
		convey.So(err, convey.ShouldBeNil)

		_, _, err = svc.SubmitVote(ctx, project.ID, "alice", allFives(), model.RoleMember)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When an admin fast-tracks it", func() {
			approved, err := svc.FastTrack(ctx, project.ID, "root", model.RoleAdmin)

			convey.Convey("Then it approves despite low participation", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(approved.Status, convey.ShouldEqual, model.StatusApproved)

				rec, err := svc.GetROI(ctx, project.ID)
				convey.So(err, convey.ShouldBeNil)
				convey.So(rec.EntryPrice, convey.ShouldAlmostEqual, 0.0234, 1e-9)
			})
		})

		convey.Convey("When a member tries to fast-track", func() {
			_, err := svc.FastTrack(ctx, project.ID, "alice", model.RoleMember)

			convey.Convey("Then it is forbidden", func() {
				convey.So(err, convey.ShouldWrap, model.ErrForbidden)
			})
		})
	})

	convey.Convey("Given a project scoring below the vote threshold", t, func() {
		svc := newStartedService(t, service.WithVoterPoolSize(1000))
		ctx := context.Background()

		project, _ := svc.CreateProject(ctx, submission("Weak", "WEAK"), model.RoleMember)
		_, _, err := svc.SubmitVote(ctx, project.ID, "alice",
			model.Ratings{Meme: 2, Roadmap: 2, Growth: 2, Narrative: 2, Utility: 2}, model.RoleMember)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When an admin fast-tracks it", func() {
			_, err := svc.FastTrack(ctx, project.ID, "root", model.RoleAdmin)

			convey.Convey("Then the score check still blocks it", func() {
				convey.So(err, convey.ShouldWrap, approval.ErrFastTrackBlocked)
			})
		})
	})
}

func TestMarkPartnership(t *testing.T) {
	convey.Convey("Given projects in different phases", t, func() {
		svc := newStartedService(t, service.WithVoterPoolSize(1))
		ctx := context.Background()

		vetting, _ := svc.CreateProject(ctx, submission("Candidate", "CAND"), model.RoleMember)

		approvedProject, _ := svc.CreateProject(ctx, submission("Done", "DONE"), model.RoleMember)
		approvedProject, _, err := svc.SubmitVote(ctx, approvedProject.ID, "alice", allFives(), model.RoleMember)
		convey.So(err, convey.ShouldBeNil)
		convey.So(approvedProject.Status, convey.ShouldEqual, model.StatusApproved)

		convey.Convey("When an admin marks the vetting project as partnership", func() {
			updated, err := svc.MarkPartnership(ctx, vetting.ID, "root", model.RoleAdmin)

			convey.Convey("Then the transition succeeds", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(updated.Status, convey.ShouldEqual, model.StatusPartnership)
			})
		})

		convey.Convey("When an admin marks the approved project as partnership", func() {
			_, err := svc.MarkPartnership(ctx, approvedProject.ID, "root", model.RoleAdmin)

			convey.Convey("Then the one-way lattice rejects it", func() {
				convey.So(err, convey.ShouldWrap, model.ErrInvalidTransition)
			})
		})
	})
}

func TestSettings(t *testing.T) {
	convey.Convey("Given a started service", t, func() {
		svc := newStartedService(t)
		ctx := context.Background()

		convey.Convey("When an admin raises the vote threshold", func() {
			next := svc.CurrentSettings(ctx)
			next.VoteThreshold = 4.5

			updated, err := svc.UpdateSettings(ctx, next, "root", model.RoleAdmin)

			convey.Convey("Then the new record is published with a bumped version", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(updated.VoteThreshold, convey.ShouldEqual, 4.5)
				convey.So(updated.Version, convey.ShouldEqual, 2)
				convey.So(svc.CurrentSettings(ctx).VoteThreshold, convey.ShouldEqual, 4.5)
			})

			convey.Convey("And the audit trail records the mutation", func() {
				convey.So(err, convey.ShouldBeNil)
				entries, auditErr := svc.SettingsAudit(ctx, model.RoleAdmin)
				convey.So(auditErr, convey.ShouldBeNil)
				convey.So(len(entries), convey.ShouldEqual, 1)
				convey.So(entries[0].Actor, convey.ShouldEqual, "root")
				convey.So(entries[0].Before.VoteThreshold, convey.ShouldEqual, 4.0)
				convey.So(entries[0].After.VoteThreshold, convey.ShouldEqual, 4.5)
			})
		})

		convey.Convey("When a member tries to change settings", func() {
			_, err := svc.UpdateSettings(ctx, svc.CurrentSettings(ctx), "alice", model.RoleMember)

			convey.Convey("Then it is forbidden", func() {
				convey.So(err, convey.ShouldWrap, model.ErrForbidden)
			})
		})

		convey.Convey("When the new settings are out of bounds", func() {
			next := svc.CurrentSettings(ctx)
			next.VoteThreshold = 7.0
			next.ParticipationThreshold = 150

			_, err := svc.UpdateSettings(ctx, next, "root", model.RoleAdmin)

			convey.Convey("Then validation lists the violated fields", func() {
				var verr *model.ValidationError
				convey.So(err, convey.ShouldWrap, model.ErrValidation)
				convey.So(errorsAs(err, &verr), convey.ShouldBeTrue)
				convey.So(verr.Fields, convey.ShouldResemble, []string{"vote_threshold", "participation_threshold"})
			})
		})
	})
}

func TestListProjects(t *testing.T) {
	convey.Convey("Given a mix of projects", t, func() {
		svc := newStartedService(t, service.WithVoterPoolSize(1))
		ctx := context.Background()

		doge, _ := svc.CreateProject(ctx, submission("Doge Prime", "DOGE"), model.RoleMember)
		_, _ = svc.CreateProject(ctx, submission("Pepe Max", "PEPE"), model.RoleMember)
		_, _ = svc.CreateProject(ctx, submission("Shib Ultra", "SHIB"), model.RoleMember)

		_, _, err := svc.SubmitVote(ctx, doge.ID, "alice", allFives(), model.RoleMember)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When listing without a filter", func() {
			all, total, err := svc.ListProjects(ctx, repository.ProjectFilter{}, 1, 10)

			convey.Convey("Then all projects come back in creation order", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(total, convey.ShouldEqual, 3)
				convey.So(all[0].Symbol, convey.ShouldEqual, "DOGE")
				convey.So(all[2].Symbol, convey.ShouldEqual, "SHIB")
			})
		})

		convey.Convey("When filtering by status", func() {
			vetting, total, err := svc.ListProjects(ctx, repository.ProjectFilter{Status: model.StatusVetting}, 1, 10)

			convey.Convey("Then only vetting projects match", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(total, convey.ShouldEqual, 2)
				for _, p := range vetting {
					convey.So(p.Status, convey.ShouldEqual, model.StatusVetting)
				}
			})
		})

		convey.Convey("When searching by name fragment", func() {
			found, total, err := svc.ListProjects(ctx, repository.ProjectFilter{Search: "pepe"}, 1, 10)

			convey.Convey("Then the match is case-insensitive", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(total, convey.ShouldEqual, 1)
				convey.So(found[0].Symbol, convey.ShouldEqual, "PEPE")
			})
		})

		convey.Convey("When paging past the end", func() {
			empty, total, err := svc.ListProjects(ctx, repository.ProjectFilter{}, 5, 10)

			convey.Convey("Then the page is empty but the total is intact", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(total, convey.ShouldEqual, 3)
				convey.So(len(empty), convey.ShouldEqual, 0)
			})
		})
	})
}

func TestGetFeed(t *testing.T) {
	convey.Convey("Given a project with several snapshots", t, func() {
		svc := newStartedService(t, service.WithVoterPoolSize(1000))
		ctx := context.Background()

		project, _ := svc.CreateProject(ctx, submission("History", "HIST"), model.RoleMember)

		for i, price := range []float64{0.01, 0.02, 0.03} {
			err := svc.IngestSnapshot(ctx, model.FeedSnapshot{
				ProjectID: project.ID,
				Liquidity: 1000,
				Volume24h: 500,
				Price:     price,
				Timestamp: time.Now().Add(time.Duration(i) * time.Second),
			})
			convey.So(err, convey.ShouldBeNil)
		}

		convey.Convey("When fetching the feed", func() {
			feed, err := svc.GetFeed(ctx, project.ID, 2)

			convey.Convey("Then snapshots come back newest first", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(feed.Snapshots), convey.ShouldEqual, 2)
				convey.So(feed.Snapshots[0].Price, convey.ShouldEqual, 0.03)
				convey.So(feed.Snapshots[1].Price, convey.ShouldEqual, 0.02)
			})

			convey.Convey("And the derived scores ride along", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(feed.AutoScore, convey.ShouldNotBeNil)
				convey.So(feed.TotalScore, convey.ShouldNotBeNil)
				convey.So(*feed.AutoScore, convey.ShouldBeGreaterThan, 0)
			})
		})

		convey.Convey("When fetching the feed of an unknown project", func() {
			_, err := svc.GetFeed(ctx, "nope", 10)

			convey.Convey("Then it is reported missing", func() {
				convey.So(repository.IsNotFound(err), convey.ShouldBeTrue)
			})
		})
	})
}

func TestGetStats(t *testing.T) {
	convey.Convey("Given a started service with projects", t, func() {
		svc := newStartedService(t, service.WithVoterPoolSize(1))
		ctx := context.Background()

		_, _ = svc.CreateProject(ctx, submission("Alpha", "ALP"), model.RoleMember)
		beta, _ := svc.CreateProject(ctx, submission("Beta", "BET"), model.RoleMember)
		_, _, err := svc.SubmitVote(ctx, beta.ID, "alice", allFives(), model.RoleMember)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When fetching stats", func() {
			stats := svc.GetStats(ctx)

			convey.Convey("Then project counts are broken down by status", func() {
				convey.So(stats["started"], convey.ShouldBeTrue)
				convey.So(stats["totalProjects"], convey.ShouldEqual, 2)
				byStatus, ok := stats["projects"].(map[string]int)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(byStatus["VETTING"], convey.ShouldEqual, 1)
				convey.So(byStatus["APPROVED"], convey.ShouldEqual, 1)
			})
		})
	})
}

// errorsAs keeps convey assertions terse.
func errorsAs[T error](err error, target *T) bool {
	return errors.As(err, target)
}
