package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/clout/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.Store, convey.ShouldEqual, config.StoreMemory)
			convey.So(cfg.VerificationInterval, convey.ShouldEqual, time.Hour)
			convey.So(cfg.CSRFTTL, convey.ShouldEqual, time.Hour)
			convey.So(cfg.AccuracyWeight, convey.ShouldEqual, 70)
			convey.So(cfg.FollowersPerPoint, convey.ShouldEqual, 10)
			convey.So(cfg.SocialCap, convey.ShouldEqual, 30)
			convey.So(cfg.ScorePrecision, convey.ShouldEqual, 2)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with invalid settings", t, func() {
		cases := map[string]func(*config.Config){
			"empty addr":        func(c *config.Config) { c.Addr = "" },
			"unknown store":     func(c *config.Config) { c.Store = "sqlite" },
			"postgres no dsn":   func(c *config.Config) { c.Store = config.StorePostgres },
			"zero interval":     func(c *config.Config) { c.VerificationInterval = 0 },
			"zero workers":      func(c *config.Config) { c.WorkerCount = 0 },
			"zero page limit":   func(c *config.Config) { c.MaxPageLimit = 0 },
			"zero csrf ttl":     func(c *config.Config) { c.CSRFTTL = 0 },
			"zero followers/pt": func(c *config.Config) { c.FollowersPerPoint = 0 },
		}
		for name, mutate := range cases {
			cfg := config.New()
			mutate(cfg)
			err := cfg.Validate()
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			_ = name
		}
	})

	convey.Convey("Given a postgres config with a DSN", t, func() {
		cfg := config.New()
		cfg.Store = config.StorePostgres
		cfg.DatabaseURL = "postgres://localhost/clout"
		convey.So(cfg.Validate(), convey.ShouldBeNil)
	})
}
