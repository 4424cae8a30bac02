package test

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// TestReleaseSurface_v010 pins the command surface and machine output
// contract shipped in v0.1.0. Scripts parse these, so renamed JSON
// keys or dropped subcommands are breaking changes.
func TestReleaseSurface_v010(t *testing.T) {
	// 1. Build the latest CLI binary
	// We build it to a temp location to avoid messing with the user's install
	tmpBin := filepath.Join(t.TempDir(), "sonar_test_bin")
	buildCmd := exec.Command("go", "build", "-o", tmpBin, "../../cmd/sonar")
	if output, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build CLI: %v\nOutput: %s", err, string(output))
	}

	home := t.TempDir()
	env := append(os.Environ(),
		"HOME="+home,
		"SONAR_INSECURE_MEMORY=true",
		"SONAR_PERSONALITY=machine",
	)

	// 2. Verify the command surface
	t.Log("Checking 'sonar --help' lists the v0.1.0 commands...")
	helpCmd := exec.Command(tmpBin, "--help")
	helpCmd.Env = env
	helpOut, err := helpCmd.CombinedOutput()
	if err != nil {
		t.Fatalf("Help command failed: %v", err)
	}
	for _, sub := range []string{"solve", "crack", "serve", "bench", "play", "history"} {
		if !strings.Contains(string(helpOut), sub) {
			t.Errorf("FAIL: Subcommand %q missing from help output", sub)
		}
	}

	// 3. Verify the solve JSON contract
	t.Log("Checking the solve --json key set...")
	solveCmd := exec.Command(tmpBin, "solve", "--secret", "BACXIU", "--json", "--no-history")
	solveCmd.Env = env
	solveOut, err := solveCmd.Output()
	if err != nil {
		t.Fatalf("Solve command failed: %v", err)
	}

	payload := string(solveOut)
	if idx := strings.IndexByte(payload, '{'); idx > 0 {
		payload = payload[idx:] // skip the first-run config notice
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &keys); err != nil {
		t.Fatalf("Solve output is not valid JSON: %v\nOutput: %s", err, solveOut)
	}
	for _, key := range []string{"code", "length", "counts", "queries", "duration", "short_circuit"} {
		if _, ok := keys[key]; !ok {
			t.Errorf("FAIL: JSON key %q missing from solve output", key)
		}
	}

	// 4. Verify first-run config creation
	configPath := filepath.Join(home, ".sonar", "sonar.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Errorf("FAIL: Default config was not created at %s", configPath)
	} else {
		t.Logf("SUCCESS: Config exists at %s", configPath)
	}
}
