package plugin

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// writeScriptPlugin creates an executable shell script plugin for tests.
func writeScriptPlugin(t *testing.T, script string) *Plugin {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("shell script plugins are not supported on windows")
	}

	dir := t.TempDir()
	execPath := filepath.Join(dir, "test-plugin")
	if err := os.WriteFile(execPath, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	return &Plugin{
		Manifest:   Manifest{Name: "test-plugin", Executable: "test-plugin"},
		Path:       dir,
		Executable: execPath,
	}
}

func TestExecutor_Success(t *testing.T) {
	p := writeScriptPlugin(t, `cat > /dev/null; echo '{"success": true}'`)
	e := NewExecutor(2 * time.Second)

	resp, err := e.Execute(p, &Request{
		Action:     "volume-up",
		Gesture:    "like",
		Confidence: 0.92,
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !resp.Success {
		t.Errorf("Success = false, want true")
	}
}

func TestExecutor_RequestReachesPlugin(t *testing.T) {
	// The plugin echoes the request back as response data.
	p := writeScriptPlugin(t, `printf '{"success": true, "data": %s}' "$(cat)"`)
	e := NewExecutor(2 * time.Second)

	resp, err := e.Execute(p, &Request{Action: "volume-up", Gesture: "like", Confidence: 0.9})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	data := string(resp.Data)
	if !strings.Contains(data, `"gesture":"like"`) {
		t.Errorf("request data missing gesture: %s", data)
	}
	if !strings.Contains(data, `"action":"volume-up"`) {
		t.Errorf("request data missing action: %s", data)
	}
}

func TestExecutor_PluginReportsError(t *testing.T) {
	p := writeScriptPlugin(t, `cat > /dev/null; echo '{"success": false, "error": "unknown action"}'`)
	e := NewExecutor(2 * time.Second)

	resp, err := e.Execute(p, &Request{Action: "bogus"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if resp.Success {
		t.Error("Success = true, want false")
	}
	if resp.Error != "unknown action" {
		t.Errorf("Error = %q, want %q", resp.Error, "unknown action")
	}
}

func TestExecutor_Timeout(t *testing.T) {
	p := writeScriptPlugin(t, `sleep 5`)
	e := NewExecutor(100 * time.Millisecond)

	if _, err := e.Execute(p, &Request{Action: "volume-up"}); err == nil {
		t.Fatal("Execute() error = nil, want timeout")
	} else if !strings.Contains(err.Error(), "timeout") {
		t.Errorf("error = %v, want timeout", err)
	}
}

func TestExecutor_MalformedOutput(t *testing.T) {
	p := writeScriptPlugin(t, `cat > /dev/null; echo 'this is not json'`)
	e := NewExecutor(2 * time.Second)

	if _, err := e.Execute(p, &Request{Action: "volume-up"}); err == nil {
		t.Error("Execute() error = nil, want parse error")
	}
}

func TestExecutor_MissingExecutable(t *testing.T) {
	p := &Plugin{
		Manifest:   Manifest{Name: "ghost", Executable: "ghost"},
		Path:       t.TempDir(),
		Executable: filepath.Join(t.TempDir(), "ghost"),
	}
	e := NewExecutor(time.Second)

	if _, err := e.Execute(p, &Request{Action: "volume-up"}); err == nil {
		t.Error("Execute() error = nil, want exec failure")
	}
}
