//go:build integration

package integration

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// getProjectRoot returns the path to the project root
func getProjectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	// tests/integration/serve_test.go -> project root
	return filepath.Join(filepath.Dir(filename), "..", "..")
}

// buildBinary compiles the CLI into dist and returns the binary path.
func buildBinary(t *testing.T) string {
	t.Helper()
	projectRoot := getProjectRoot()

	buildCmd := exec.Command("go", "build", "-o", "dist/ast-grep", "./cmd/ast-grep")
	buildCmd.Dir = projectRoot
	output, err := buildCmd.CombinedOutput()
	require.NoError(t, err, "build failed: %s", string(output))

	return filepath.Join(projectRoot, "dist", "ast-grep")
}

// startServe launches the binary in serve mode and wires up its pipes.
func startServe(t *testing.T, binary string, args ...string) (*exec.Cmd, io.WriteCloser, *bufio.Scanner) {
	t.Helper()

	cmd := exec.Command(binary, append([]string{"serve"}, args...)...)
	cmd.Dir = getProjectRoot()

	stdin, err := cmd.StdinPipe()
	require.NoError(t, err)

	stdout, err := cmd.StdoutPipe()
	require.NoError(t, err)

	err = cmd.Start()
	require.NoError(t, err)

	t.Cleanup(func() {
		stdin.Close()
		_ = cmd.Process.Kill()
	})

	return cmd, stdin, bufio.NewScanner(stdout)
}

func TestServeIntegration_ReadySignal(t *testing.T) {
	binary := buildBinary(t)
	_, _, scanner := startServe(t, binary)

	require.True(t, waitForLine(scanner, 60*time.Second), "should receive ready signal")

	var ready map[string]interface{}
	err := json.Unmarshal([]byte(scanner.Text()), &ready)
	require.NoError(t, err)
	assert.True(t, ready["success"].(bool))
	assert.Equal(t, "ready", ready["type"])
}

func TestServeIntegration_Search(t *testing.T) {
	binary := buildBinary(t)
	_, stdin, scanner := startServe(t, binary)

	// Wait for ready
	require.True(t, waitForLine(scanner, 60*time.Second), "should receive ready signal")

	// Send search request
	request := `{"type":"search","payload":{"pattern":"console.log($MSG)","language":"javascript","content":"console.log(greeting)"}}` + "\n"
	_, err := stdin.Write([]byte(request))
	require.NoError(t, err)

	// Wait for search response
	require.True(t, waitForLine(scanner, 30*time.Second), "should receive search response")

	var response map[string]interface{}
	err = json.Unmarshal([]byte(scanner.Text()), &response)
	require.NoError(t, err)

	assert.True(t, response["success"].(bool), "search should succeed")
	assert.Equal(t, "search", response["type"])

	data := response["data"].(map[string]interface{})
	matches := data["matches"].([]interface{})
	require.Len(t, matches, 1, "should find the console.log call")

	match := matches[0].(map[string]interface{})
	assert.Equal(t, "console.log(greeting)", match["text"])
}

func TestServeIntegration_ScanWithRules(t *testing.T) {
	binary := buildBinary(t)

	ruleFile := filepath.Join(t.TempDir(), "rule.yml")
	writeTestRule(t, ruleFile)

	_, stdin, scanner := startServe(t, binary, "--rule", ruleFile)

	// Wait for ready
	require.True(t, waitForLine(scanner, 60*time.Second), "should receive ready signal")

	// Send scan request with a console.log call
	request := `{"type":"scan","payload":{"content":"console.log(x)","file":"app.js"}}` + "\n"
	_, err := stdin.Write([]byte(request))
	require.NoError(t, err)

	// Wait for scan response
	require.True(t, waitForLine(scanner, 30*time.Second), "should receive scan response")

	var response map[string]interface{}
	err = json.Unmarshal([]byte(scanner.Text()), &response)
	require.NoError(t, err)

	assert.True(t, response["success"].(bool), "scan should succeed")
	assert.Equal(t, "scan", response["type"])

	data := response["data"].(map[string]interface{})
	matches := data["matches"].([]interface{})
	require.Len(t, matches, 1, "should find the rule match")

	match := matches[0].(map[string]interface{})
	assert.Equal(t, "no-console-log", match["ruleId"])
}

func TestServeIntegration_ScanBatch(t *testing.T) {
	binary := buildBinary(t)

	ruleFile := filepath.Join(t.TempDir(), "rule.yml")
	writeTestRule(t, ruleFile)

	_, stdin, scanner := startServe(t, binary, "--rule", ruleFile)

	// Wait for ready
	require.True(t, waitForLine(scanner, 60*time.Second), "should receive ready signal")

	// Send batch scan request
	request := `{"type":"scan_batch","payload":{"items":[{"file":"clean.js","content":"let x = 1"},{"file":"noisy.js","content":"console.log(x)"}]}}` + "\n"
	_, err := stdin.Write([]byte(request))
	require.NoError(t, err)

	// Wait for batch response
	require.True(t, waitForLine(scanner, 30*time.Second), "should receive batch response")

	var response map[string]interface{}
	err = json.Unmarshal([]byte(scanner.Text()), &response)
	require.NoError(t, err)

	assert.True(t, response["success"].(bool), "batch scan should succeed")
	assert.Equal(t, "scan_batch", response["type"])

	data := response["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["total"], "one match across the batch")
}

func TestServeIntegration_CloseCommand(t *testing.T) {
	binary := buildBinary(t)
	cmd, stdin, scanner := startServe(t, binary)

	// Wait for ready
	require.True(t, waitForLine(scanner, 60*time.Second), "should receive ready signal")

	// Send close command
	_, err := stdin.Write([]byte(`{"type":"close","payload":{}}` + "\n"))
	require.NoError(t, err)

	// Wait for process to exit
	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case err := <-done:
		assert.NoError(t, err, "process should exit cleanly")
	case <-time.After(10 * time.Second):
		_ = cmd.Process.Kill()
		t.Fatal("process did not exit in time after close command")
	}
}

// TestServeIntegration_MultipleSearches tests that searches work in sequence
// against one long-lived process.
func TestServeIntegration_MultipleSearches(t *testing.T) {
	binary := buildBinary(t)
	_, stdin, scanner := startServe(t, binary)

	// Wait for ready
	require.True(t, waitForLine(scanner, 60*time.Second), "should receive ready signal")

	for i := 0; i < 5; i++ {
		request := `{"type":"search","payload":{"pattern":"print($X)","language":"python","content":"print(` + string(rune('0'+i)) + `)"}}` + "\n"
		_, err := stdin.Write([]byte(request))
		require.NoError(t, err)

		require.True(t, waitForLine(scanner, 10*time.Second), "should receive search response %d", i)

		var response map[string]interface{}
		err = json.Unmarshal([]byte(scanner.Text()), &response)
		require.NoError(t, err)
		assert.True(t, response["success"].(bool), "search %d should succeed", i)
	}
}

func waitForLine(scanner *bufio.Scanner, timeout time.Duration) bool {
	done := make(chan bool, 1)
	go func() {
		done <- scanner.Scan()
	}()

	select {
	case result := <-done:
		return result
	case <-time.After(timeout):
		return false
	}
}

func writeTestRule(t *testing.T, path string) {
	t.Helper()
	rule := `id: no-console-log
language: javascript
severity: warning
message: avoid console.log
rule:
  pattern: console.log($MSG)
`
	err := os.WriteFile(path, []byte(rule), 0o644)
	require.NoError(t, err)
}
