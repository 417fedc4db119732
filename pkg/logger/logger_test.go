package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		So(Init(), ShouldBeNil)
		defer func() { _ = Sync() }()

		Convey("Then Get returns a usable logger", func() {
			So(Get(), ShouldNotBeNil)
			So(func() { Get().Info(context.Background(), "test message", String("k", "v")) }, ShouldNotPanic)
		})

		Convey("And Named returns a child logger", func() {
			So(Named("test"), ShouldNotBeNil)
		})
	})
}

func TestLoggerJSONOutput(t *testing.T) {
	Convey("Given a JSON logger on a buffer", t, func() {
		var buf bytes.Buffer
		So(InitWriter(&buf, "json"), ShouldBeNil)
		defer func() { _ = Init() }()

		Convey("When logging with a request id and fields", func() {
			ctx := WithRequestID(context.Background(), "req-1")
			Get().With(String("component", "api")).Info(ctx, "hello", Int("count", 3), Bool("ok", true))

			Convey("Then the line carries every field", func() {
				var line map[string]any
				So(json.Unmarshal(buf.Bytes(), &line), ShouldBeNil)
				So(line["msg"], ShouldEqual, "hello")
				So(line["request_id"], ShouldEqual, "req-1")
				So(line["component"], ShouldEqual, "api")
				So(line["count"], ShouldEqual, float64(3))
				So(line["ok"], ShouldEqual, true)
				So(line["source"], ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When the level is raised to warn", func() {
			So(SetLevelString("warn"), ShouldBeNil)
			Get().Info(context.Background(), "dropped")
			Get().Warn(context.Background(), "kept")

			Convey("Then info lines are filtered", func() {
				So(strings.Contains(buf.String(), "dropped"), ShouldBeFalse)
				So(strings.Contains(buf.String(), "kept"), ShouldBeTrue)
			})
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level strings", t, func() {
		So(Init(), ShouldBeNil)
		for _, lvl := range []string{"debug", "info", "", "WARN", "warning", "error"} {
			So(SetLevelString(lvl), ShouldBeNil)
		}
		So(SetLevelString("verbose"), ShouldNotBeNil)
	})
}

func TestInitWriterRejectsUnknownFormat(t *testing.T) {
	Convey("Given an unknown format", t, func() {
		var buf bytes.Buffer
		So(InitWriter(&buf, "xml"), ShouldNotBeNil)
		So(InitWriter(nil, "text"), ShouldNotBeNil)
		So(Init(), ShouldBeNil)
	})
}

func TestRequestID(t *testing.T) {
	Convey("Given contexts with and without ids", t, func() {
		So(RequestID(context.Background()), ShouldEqual, "")
		So(RequestID(WithRequestID(context.Background(), "abc")), ShouldEqual, "abc")
	})
}
