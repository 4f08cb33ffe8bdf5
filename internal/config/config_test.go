package config_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/okian/accounts/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":3000")
			convey.So(cfg.DBDriver, convey.ShouldEqual, config.DriverMySQL)
			convey.So(cfg.DBPort, convey.ShouldEqual, 4000)
			convey.So(cfg.DBTLS, convey.ShouldEqual, "true")
			convey.So(cfg.PoolSize, convey.ShouldEqual, 10)
			convey.So(cfg.ConnMaxIdle(), convey.ShouldEqual, 10*time.Minute)
			convey.So(cfg.ConnMaxLifetime(), convey.ShouldEqual, 30*time.Minute)
			convey.So(cfg.ConnectTimeout(), convey.ShouldEqual, 10*time.Second)
			convey.So(cfg.CORSAllowedOrigins, convey.ShouldResemble, []string{"*"})
			convey.So(cfg.RedactPasswords, convey.ShouldBeFalse)
			convey.So(cfg.MetricsNamespace, convey.ShouldEqual, "accounts")
			convey.So(cfg.MetricsEnv, convey.ShouldBeEmpty)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_String(t *testing.T) {
	convey.Convey("Given a config holding a database password", t, func() {
		cfg := config.New(context.Background())
		cfg.DBPassword = "s3cret-value"

		convey.Convey("Then String should not leak it", func() {
			s := cfg.String()
			convey.So(s, convey.ShouldNotContainSubstring, "s3cret-value")
			convey.So(s, convey.ShouldContainSubstring, "host=127.0.0.1")
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
			{"empty addr", func(c *config.Config) { c.Addr = "" }, "addr must not be empty"},
			{"unknown driver", func(c *config.Config) { c.DBDriver = "oracle" }, "unsupported db_driver"},
			{"missing host", func(c *config.Config) { c.DBHost = "" }, "db_host must not be empty"},
			{"bad port", func(c *config.Config) { c.DBPort = 0 }, "db_port must be positive"},
			{"empty database", func(c *config.Config) { c.DBName = "" }, "db_database must not be empty"},
			{"bad tls mode", func(c *config.Config) { c.DBTLS = "maybe" }, "unsupported db_tls"},
			{"zero pool", func(c *config.Config) { c.PoolSize = 0 }, "pool_size must be positive"},
			{"empty metrics namespace", func(c *config.Config) { c.MetricsNamespace = "" }, "metrics_namespace"},
			{"dashed metrics namespace", func(c *config.Config) { c.MetricsNamespace = "my-app" }, "metrics_namespace"},
		}
		for _, tc := range cases {
			convey.Convey("When it has "+tc.name, func() {
				tc.mutate(cfg)
				err := cfg.Validate()

				convey.Convey("Then validation should fail", func() {
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
					convey.So(strings.Contains(err.Error(), tc.want), convey.ShouldBeTrue)
				})
			})
		}

		convey.Convey("When sqlite3 is selected without a host", func() {
			cfg.DBDriver = config.DriverSQLite
			cfg.DBHost = ""
			cfg.DBPort = 0
			cfg.DBName = "accounts.db"

			convey.Convey("Then it should still validate", func() {
				convey.So(cfg.Validate(), convey.ShouldBeNil)
			})
		})
	})
}
