package config_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/swiss/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.StoreDriver, convey.ShouldEqual, config.DriverSQLite)
			convey.So(cfg.DatabaseURL, convey.ShouldEqual, "swiss.db")
			convey.So(cfg.NotifyQueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.NotifyWorkerCount, convey.ShouldEqual, 1)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
			convey.So(cfg.SnapshotEnabled, convey.ShouldBeFalse)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the duration helpers convert units", func() {
			convey.So(cfg.ConnectTimeout(), convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.TokenTTL(), convey.ShouldEqual, time.Hour)
			convey.So(cfg.SnapshotInterval(), convey.ShouldEqual, 5*time.Minute)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a valid config", t, func() {
		cfg := config.New(context.Background())

		cases := []struct {
			name   string
			mutate func(*config.Config)
			want   string
		}{
			{"empty addr", func(c *config.Config) { c.Addr = " " }, "addr must not be empty"},
			{"bad log format", func(c *config.Config) { c.LogFormat = "xml" }, "log_format"},
			{"unknown driver", func(c *config.Config) { c.StoreDriver = "oracle" }, "unknown store_driver"},
			{"missing dsn", func(c *config.Config) { c.DatabaseURL = "" }, "database_url is required"},
			{"zero queue", func(c *config.Config) { c.NotifyQueueSize = 0 }, "notify_queue_size"},
			{"zero workers", func(c *config.Config) { c.NotifyWorkerCount = 0 }, "notify_worker_count"},
			{"secret without hash", func(c *config.Config) { c.AdminJWTSecret = "s" }, "admin_password_hash"},
			{"zero token ttl", func(c *config.Config) { c.AdminTokenTTLMinutes = 0 }, "admin_token_ttl_minutes"},
			{"snapshots without bucket", func(c *config.Config) { c.SnapshotEnabled = true }, "snapshot_bucket"},
			{"snapshots without interval", func(c *config.Config) {
				c.SnapshotEnabled = true
				c.SnapshotBucket = "b"
				c.SnapshotIntervalSeconds = 0
			}, "snapshot_interval_seconds"},
		}

		for _, tc := range cases {
			tc := tc
			convey.Convey("When it has "+tc.name, func() {
				c := *cfg
				tc.mutate(&c)
				err := c.Validate()

				convey.Convey("Then validation fails with ErrInvalidConfig", func() {
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
					convey.So(err.Error(), convey.ShouldContainSubstring, tc.want)
				})
			})
		}

		convey.Convey("When the memory driver has no dsn", func() {
			c := *cfg
			c.StoreDriver = config.DriverMemory
			c.DatabaseURL = ""

			convey.Convey("Then it is accepted", func() {
				convey.So(c.Validate(), convey.ShouldBeNil)
			})
		})
	})
}

func TestConfig_Origins(t *testing.T) {
	convey.Convey("Given a comma separated origin list", t, func() {
		cfg := config.New(context.Background())
		cfg.CORSOrigins = " https://a.example , ,https://b.example"

		convey.Convey("Then blanks are dropped and entries trimmed", func() {
			convey.So(cfg.Origins(), convey.ShouldResemble, []string{"https://a.example", "https://b.example"})
		})
	})
}
