package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigTestSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (s *ConfigTestSuite) TestDefaults() {
	cfg, err := ConfigFromEnv()
	s.Require().NoError(err)
	s.Equal(BackendFile, cfg.Backend)
	s.Equal("default", cfg.ProfileID)
	s.Equal("profile.yaml", cfg.File)
	s.Equal(6379, cfg.RedisPort)
	s.Equal(8080, cfg.HTTPPort)
	s.False(cfg.WatchFile)
}

func (s *ConfigTestSuite) TestRedisFromEnv() {
	s.T().Setenv("PROFILE_BACKEND", "redis")
	s.T().Setenv("REDIS_HOST", "cache.internal")
	s.T().Setenv("REDIS_PORT", "6380")
	s.T().Setenv("REDIS_SSL", "true")
	s.T().Setenv("REDIS_DB_NUM", "2")
	cfg, err := ConfigFromEnv()
	s.Require().NoError(err)
	s.Equal(BackendRedis, cfg.Backend)
	s.Equal("cache.internal", cfg.RedisHost)
	s.Equal(6380, cfg.RedisPort)
	s.True(cfg.RedisTLS)
	s.Equal(2, cfg.RedisDB)
}

func (s *ConfigTestSuite) TestRejectsUnknownBackend() {
	s.T().Setenv("PROFILE_BACKEND", "sqlite")
	_, err := ConfigFromEnv()
	s.True(errors.Is(err, ErrInvalidConfig))
}

func (s *ConfigTestSuite) TestRejectsBadNumbers() {
	s.T().Setenv("REDIS_PORT", "not-a-port")
	_, err := ConfigFromEnv()
	s.ErrorIs(err, ErrInvalidConfig)
}

func (s *ConfigTestSuite) TestRejectsBadProfileID() {
	cfg, err := ConfigFromEnv()
	s.Require().NoError(err)
	cfg.ProfileID = "a#b"
	s.ErrorIs(cfg.Validate(), ErrInvalidConfig)
	cfg.ProfileID = ""
	s.ErrorIs(cfg.Validate(), ErrInvalidConfig)
}

func (s *ConfigTestSuite) TestSnapshotPut() {
	snap := NewSnapshot("p1")
	snap.Put("BOOL", "a", true)
	snap.Put("BOOL", "b", false)
	snap.Put("STR", "c", "x")
	s.Equal(3, snap.Len())
	s.Equal(true, snap.Categories["BOOL"]["a"])

	var zero Snapshot
	zero.Put("U32", "n", uint32(1))
	s.Equal(1, zero.Len())
}
