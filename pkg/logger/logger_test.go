package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/okian/swiss/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When it is initialized with defaults", func() {
			So(logger.Init(), ShouldBeNil)

			Convey("Then Get and Named return usable loggers", func() {
				So(logger.Get(), ShouldNotBeNil)
				So(logger.Named("test"), ShouldNotBeNil)
				So(logger.Sync(), ShouldBeNil)
			})
		})
	})
}

func TestLoggerJSONOutput(t *testing.T) {
	Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(logger.Init(logger.WithJSON(true), logger.WithWriter(&buf)), ShouldBeNil)
		ctx := context.Background()

		Convey("When a record with fields is written", func() {
			logger.Get().Info(ctx, "player registered",
				logger.Int64("player_id", 7),
				logger.String("name", "Fluttershy"),
				logger.Error(errors.New("boom")),
			)

			var rec map[string]any
			So(json.Unmarshal(buf.Bytes(), &rec), ShouldBeNil)

			Convey("Then fields, error text and source are present", func() {
				So(rec["msg"], ShouldEqual, "player registered")
				So(rec["player_id"], ShouldEqual, float64(7))
				So(rec["name"], ShouldEqual, "Fluttershy")
				So(rec["error"], ShouldEqual, "boom")
				So(rec["source"], ShouldContainSubstring, "logger_test.go:")
			})
		})

		Convey("When a named logger with bound fields is used", func() {
			logger.Named("store").With(logger.String("driver", "sqlite")).Warn(ctx, "slow query")

			Convey("Then the record is grouped under the name", func() {
				So(buf.String(), ShouldContainSubstring, `"store":{`)
				So(buf.String(), ShouldContainSubstring, `"driver":"sqlite"`)
			})
		})

		Convey("When the level is raised to error", func() {
			So(logger.SetLevelString("error"), ShouldBeNil)
			logger.Get().Info(ctx, "hidden")
			logger.Get().Debug(ctx, "hidden too")

			Convey("Then lower level records are dropped", func() {
				So(strings.TrimSpace(buf.String()), ShouldBeEmpty)
			})
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level strings", t, func() {
		So(logger.Init(), ShouldBeNil)

		Convey("Then known levels are accepted", func() {
			for _, lvl := range []string{"debug", "info", "", "warn", "WARNING", "error"} {
				So(logger.SetLevelString(lvl), ShouldBeNil)
			}
		})

		Convey("Then unknown levels are rejected", func() {
			So(logger.SetLevelString("verbose"), ShouldNotBeNil)
		})
	})
}
