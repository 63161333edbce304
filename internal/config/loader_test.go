package config_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/okian/swiss/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		convey.Reset(clearConfigEnvVars)

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New(ctx))
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("SWISS_ADDR", ":8080")
			_ = os.Setenv("SWISS_STORE_DRIVER", "postgres")
			_ = os.Setenv("SWISS_DATABASE_URL", "postgres://swiss@localhost/swiss?sslmode=disable")
			_ = os.Setenv("SWISS_NOTIFY_QUEUE_SIZE", "64")
			_ = os.Setenv("SWISS_NOTIFY_WORKER_COUNT", "2")
			_ = os.Setenv("SWISS_SNAPSHOT_ENABLED", "true")
			_ = os.Setenv("SWISS_SNAPSHOT_BUCKET", "standings")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.StoreDriver, convey.ShouldEqual, config.DriverPostgres)
				convey.So(cfg.DatabaseURL, convey.ShouldStartWith, "postgres://")
				convey.So(cfg.NotifyQueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.NotifyWorkerCount, convey.ShouldEqual, 2)
				convey.So(cfg.SnapshotEnabled, convey.ShouldBeTrue)
				convey.So(cfg.SnapshotBucket, convey.ShouldEqual, "standings")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
tournament_name: "Friday Night Swiss"
store_driver: memory
notify_queue_size: 300
dedupe_size: 600
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("SWISS_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file and keep other defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.TournamentName, convey.ShouldEqual, "Friday Night Swiss")
				convey.So(cfg.StoreDriver, convey.ShouldEqual, config.DriverMemory)
				convey.So(cfg.NotifyQueueSize, convey.ShouldEqual, 300)
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 600)
				convey.So(cfg.NotifyWorkerCount, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
notify_queue_size: 300
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("SWISS_CONFIG", tmpFile)
			_ = os.Setenv("SWISS_ADDR", ":8080")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.NotifyQueueSize, convey.ShouldEqual, 300)
			})
		})

		convey.Convey("When a .env file is named", func() {
			tmpFile := createTempFile("swiss-*.env", "SWISS_TOURNAMENT_NAME=Dotenv Cup\nSWISS_ADDR=:7070\n")
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("SWISS_ENV_FILE", tmpFile)
			_ = os.Setenv("SWISS_ADDR", ":6060")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it fills unset variables without overriding set ones", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.TournamentName, convey.ShouldEqual, "Dotenv Cup")
				convey.So(cfg.Addr, convey.ShouldEqual, ":6060")
			})
		})

		convey.Convey("When the named .env file is missing", func() {
			_ = os.Setenv("SWISS_ENV_FILE", "/non/existent/.env")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("SWISS_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("SWISS_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("SWISS_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("SWISS_NOTIFY_QUEUE_SIZE", "invalid")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When an enabled snapshot has no bucket", func() {
			_ = os.Setenv("SWISS_SNAPSHOT_ENABLED", "true")

			cfg, err := config.Load(ctx)

			convey.Convey("Then validation rejects it", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	for _, kv := range os.Environ() {
		if name, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(name, "SWISS_") {
			_ = os.Unsetenv(name)
		}
	}
}

func createTempConfigFile(content string) string {
	return createTempFile("swiss-config-*.yaml", content)
}

func createTempFile(pattern, content string) string {
	tmpFile, err := os.CreateTemp("", pattern)
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
