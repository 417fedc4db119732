package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/hackreg/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"HACKREG_CONFIG",
	"HACKREG_ADDR",
	"HACKREG_DB_DRIVER",
	"HACKREG_DB_DSN",
	"HACKREG_EVENT_NAME",
	"HACKREG_TIMEZONE",
	"HACKREG_TEAMS_ENABLED",
	"HACKREG_MAX_TEAM_SIZE",
	"HACKREG_ADMIN_KEY",
}

func clearConfigEnvVars() {
	for _, name := range configEnvVars {
		_ = os.Unsetenv(name)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "hackreg.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.DBDriver, convey.ShouldEqual, config.DriverMemory)
				convey.So(cfg.EventName, convey.ShouldEqual, "HackGT")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("HACKREG_ADDR", ":8080")
			_ = os.Setenv("HACKREG_DB_DRIVER", "sqlite")
			_ = os.Setenv("HACKREG_DB_DSN", "file:hackreg.db")
			_ = os.Setenv("HACKREG_EVENT_NAME", "HackSpring")
			_ = os.Setenv("HACKREG_TEAMS_ENABLED", "false")
			_ = os.Setenv("HACKREG_MAX_TEAM_SIZE", "5")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.DBDriver, convey.ShouldEqual, config.DriverSQLite)
				convey.So(cfg.DBDSN, convey.ShouldEqual, "file:hackreg.db")
				convey.So(cfg.EventName, convey.ShouldEqual, "HackSpring")
				convey.So(cfg.TeamsEnabled, convey.ShouldBeFalse)
				convey.So(cfg.MaxTeamSize, convey.ShouldEqual, 5)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			path := createTempConfigFile(t, `
addr: ":9090"
event_name: "HackFall"
timezone: "Europe/Berlin"
catalog_path: "/etc/hackreg/questions.yaml"
admins:
  - organizer@example.com
`)
			_ = os.Setenv("HACKREG_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.EventName, convey.ShouldEqual, "HackFall")
				convey.So(cfg.Timezone, convey.ShouldEqual, "Europe/Berlin")
				convey.So(cfg.CatalogPath, convey.ShouldEqual, "/etc/hackreg/questions.yaml")
				convey.So(cfg.Admins, convey.ShouldResemble, []string{"organizer@example.com"})
			})

			convey.Convey("And env vars take precedence over the file", func() {
				_ = os.Setenv("HACKREG_ADDR", ":7070")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.EventName, convey.ShouldEqual, "HackFall")
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_ = os.Setenv("HACKREG_CONFIG", "/non/existent/file.yaml")

			_, err := config.Load(ctx)

			convey.Convey("Then it should fail with a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When env vars produce an invalid config", func() {
			_ = os.Setenv("HACKREG_TIMEZONE", "Nowhere/Special")

			_, err := config.Load(ctx)

			convey.Convey("Then validation rejects it", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}
