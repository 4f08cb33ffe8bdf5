package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given an initialized global logger", t, func() {
		So(Init(), ShouldBeNil)
		defer func() { So(Sync(), ShouldBeNil) }()

		Convey("Then Get should return it", func() {
			So(Get(), ShouldNotBeNil)
		})

		Convey("And Named should return a derived logger", func() {
			So(Named("test"), ShouldNotBeNil)
		})
	})
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(Init(WithWriter(&buf), WithJSON(true)), ShouldBeNil)
		ctx := context.Background()

		Convey("When logging with fields", func() {
			Get().Named("store").Info(ctx, "user created", String("userId", "u1"), Error(errors.New("boom")))

			Convey("Then the entry should carry message, fields and source", func() {
				var entry map[string]any
				So(json.Unmarshal(buf.Bytes(), &entry), ShouldBeNil)
				So(entry["msg"], ShouldEqual, "user created")
				So(entry["userId"], ShouldEqual, "u1")
				So(entry["component"], ShouldEqual, "store")
				So(entry["source"], ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When the level is raised to warn", func() {
			So(SetLevelString("warn"), ShouldBeNil)
			defer func() { _ = SetLevelString("info") }()
			Get().Info(ctx, "hidden")
			Get().Warn(ctx, "shown")

			Convey("Then only the warning is written", func() {
				out := buf.String()
				So(out, ShouldNotContainSubstring, "hidden")
				So(out, ShouldContainSubstring, "shown")
			})
		})

		Convey("When using With to bind fields", func() {
			Get().With(String("requestId", "abc")).Error(ctx, "failed")

			Convey("Then the bound field is present", func() {
				So(buf.String(), ShouldContainSubstring, `"requestId":"abc"`)
			})
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level strings", t, func() {
		So(SetLevelString("DEBUG"), ShouldBeNil)
		So(levelVar.Level(), ShouldEqual, slog.LevelDebug)
		So(SetLevelString("warning"), ShouldBeNil)
		So(levelVar.Level(), ShouldEqual, slog.LevelWarn)
		So(SetLevelString(""), ShouldBeNil)
		So(levelVar.Level(), ShouldEqual, slog.LevelInfo)

		err := SetLevelString("verbose")
		So(err, ShouldNotBeNil)
		So(strings.Contains(err.Error(), "unknown log level"), ShouldBeTrue)
	})
}

func TestNewWrapsSlog(t *testing.T) {
	Convey("Given a logger wrapping a custom slog handler", t, func() {
		var buf bytes.Buffer
		l := New(slog.New(slog.NewTextHandler(&buf, nil)))
		l.Info(context.Background(), "hello", Int("n", 3))
		So(buf.String(), ShouldContainSubstring, "hello")
		So(buf.String(), ShouldContainSubstring, "n=3")
	})
}
