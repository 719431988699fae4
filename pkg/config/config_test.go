package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"

	"synnergy-network/internal/testutil"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	for _, key := range []string{"PORT", "MY_ADDRESS", "PRIVATE_KEY", "ENABLE_MINING", "ENABLE_CHAIN_REQUEST", "ENABLE_LOGGING", "LOG_LEVEL", "PEERS", "DATA_DIR"} {
		os.Unsetenv(key)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	resetViper(t)
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox: %v", err)
	}
	defer sb.Cleanup()

	wd, _ := os.Getwd()
	defer os.Chdir(wd)
	if err := os.Chdir(sb.Root); err != nil {
		t.Fatalf("chdir: %v", err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8765 {
		t.Fatalf("expected default port 8765, got %d", cfg.Port)
	}
	if !cfg.EnableChainRequest {
		t.Fatal("expected enable_chain_request to default true")
	}
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	resetViper(t)
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox: %v", err)
	}
	defer sb.Cleanup()

	wd, _ := os.Getwd()
	defer os.Chdir(wd)
	if err := os.Chdir(sb.Root); err != nil {
		t.Fatalf("chdir: %v", err)
	}

	os.Setenv("PORT", "9999")
	os.Setenv("ENABLE_MINING", "true")
	defer os.Unsetenv("PORT")
	defer os.Unsetenv("ENABLE_MINING")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9999 {
		t.Fatalf("expected env-overridden port 9999, got %d", cfg.Port)
	}
	if !cfg.EnableMining {
		t.Fatal("expected ENABLE_MINING=true to override default")
	}
}
