package config_test

import (
	"context"
	"errors"
	"os"
	"runtime"
	"testing"

	"github.com/vetterlabs/vetter/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.Storage, convey.ShouldEqual, config.StorageMemory)
				convey.So(cfg.SnapshotQueueSize, convey.ShouldEqual, 10_000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
				convey.So(cfg.MemberWeight, convey.ShouldEqual, 0.6)
				convey.So(cfg.AutoWeight, convey.ShouldEqual, 0.4)
				convey.So(cfg.VoteThreshold, convey.ShouldEqual, 4.0)
				convey.So(cfg.ParticipationThreshold, convey.ShouldEqual, 51)
				convey.So(cfg.FeedPollSeconds, convey.ShouldEqual, 60)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("VETTER_ADDR", ":8080")
			_ = os.Setenv("VETTER_SNAPSHOT_QUEUE_SIZE", "5000")
			_ = os.Setenv("VETTER_WORKER_COUNT", "16")
			_ = os.Setenv("VETTER_VOTE_THRESHOLD", "4.5")
			_ = os.Setenv("VETTER_FEED_POLL_SECONDS", "0")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.SnapshotQueueSize, convey.ShouldEqual, 5000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.VoteThreshold, convey.ShouldEqual, 4.5)
				convey.So(cfg.FeedPollSeconds, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
snapshot_queue_size: 30000
worker_count: 24
voter_pool_size: 250
participation_threshold: 40
`
			tmpFile := createTempConfigFile(t, yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("VETTER_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.SnapshotQueueSize, convey.ShouldEqual, 30000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 24)
				convey.So(cfg.VoterPoolSize, convey.ShouldEqual, 250)
				convey.So(cfg.ParticipationThreshold, convey.ShouldEqual, 40)
			})
		})

		convey.Convey("When env vars and file disagree", func() {
			tmpFile := createTempConfigFile(t, "addr: \":9090\"\n")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("VETTER_CONFIG", tmpFile)
			_ = os.Setenv("VETTER_ADDR", ":7070")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then env vars win", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
			})
		})

		convey.Convey("When the storage backend is unknown", func() {
			_ = os.Setenv("VETTER_STORAGE", "cassandra")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then loading fails validation", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When postgres storage has no DSN", func() {
			_ = os.Setenv("VETTER_STORAGE", "postgres")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then loading fails validation", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_ = os.Setenv("VETTER_CONFIG", "/nonexistent/vetter.yaml")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then loading fails", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func TestFeedPollInterval(t *testing.T) {
	convey.Convey("Given a config", t, func() {
		cfg := config.New()
		cfg.FeedPollSeconds = 90

		convey.Convey("Then the poll interval converts to a duration", func() {
			convey.So(cfg.FeedPollInterval().Seconds(), convey.ShouldEqual, 90)
		})
	})
}

// clearConfigEnvVars removes every VETTER_ variable the tests set.
func clearConfigEnvVars() {
	for _, key := range []string{
		"VETTER_CONFIG",
		"VETTER_ADDR",
		"VETTER_STORAGE",
		"VETTER_POSTGRES_DSN",
		"VETTER_SNAPSHOT_QUEUE_SIZE",
		"VETTER_WORKER_COUNT",
		"VETTER_DEDUPE_SIZE",
		"VETTER_VOTE_THRESHOLD",
		"VETTER_FEED_POLL_SECONDS",
	} {
		_ = os.Unsetenv(key)
	}
}

// createTempConfigFile writes content to a temp YAML file and returns its path.
func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "vetter-config-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp config: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close temp config: %v", err)
	}
	return f.Name()
}
