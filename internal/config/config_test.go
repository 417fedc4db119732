package config_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/hackreg/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.DBDriver, convey.ShouldEqual, config.DriverMemory)
			convey.So(cfg.Timezone, convey.ShouldEqual, "America/New_York")
			convey.So(cfg.MaxTeamSize, convey.ShouldEqual, 4)
			convey.So(cfg.TeamsEnabled, convey.ShouldBeTrue)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a valid config", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("When the driver is unknown", func() {
			cfg.DBDriver = "mongo"
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When sqlite has no dsn", func() {
			cfg.DBDriver = config.DriverSQLite
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the timezone is unknown", func() {
			cfg.Timezone = "Mars/Olympus_Mons"
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the csrf key has the wrong length", func() {
			cfg.CSRFKey = "short"
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
		})

		convey.Convey("When the addr is blank", func() {
			cfg.Addr = "  "
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
		})
	})
}
