package config

import (
	"testing"
	"time"

	"github.com/karloscodes/cartridge"
	"github.com/stretchr/testify/assert"
)

var _ cartridge.Config = (*Config)(nil)

func TestServerConfigAccessors(t *testing.T) {
	cfg := &Config{
		AppName:            "inkwell",
		AppPort:            "3000",
		DedupWindowMinutes: 30,
	}

	assert.Equal(t, "3000", cfg.GetPort())
	assert.Equal(t, "public", cfg.GetPublicDirectory())
	assert.Equal(t, "/assets", cfg.GetAssetsPrefix())
	assert.Equal(t, "inkwell", cfg.GetAppName())
	assert.Equal(t, 30*time.Minute, cfg.GetDedupWindow())
}
