package integration

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// safeBuffer wraps bytes.Buffer with a mutex for concurrent read/write.
type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// Write appends data to the buffer (implements io.Writer).
func (sb *safeBuffer) Write(p []byte) (int, error) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	return sb.buf.Write(p)
}

// String returns the buffer contents as a string.
func (sb *safeBuffer) String() string {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	return sb.buf.String()
}

// Server represents a running trustedwinner serve process.
type Server struct {
	cmd      *exec.Cmd          // cmd is the running process
	httpAddr string             // httpAddr is the HTTP API address
	dataDir  string             // dataDir is the draw store directory
	output   *safeBuffer        // output captures stdout and stderr
	cancel   context.CancelFunc // cancel stops the process
	done     chan struct{}      // done is closed when the process exits
}

// HTTPAddr returns the server's HTTP address.
func (s *Server) HTTPAddr() string { return s.httpAddr }

// Logs returns the server's output.
func (s *Server) Logs() string { return s.output.String() }

// LogContains checks if the server's logs contain a substring.
func (s *Server) LogContains(sub string) bool {
	return strings.Contains(s.output.String(), sub)
}

// Stop interrupts the server and waits for it to exit.
func (s *Server) Stop() {
	if s.cmd == nil || s.cmd.Process == nil {
		return
	}

	s.cmd.Process.Signal(os.Interrupt)

	select {
	case <-s.done:
	case <-time.After(10 * time.Second):
		s.cancel()
		<-s.done
	}
}

// startServer runs "trustedwinner serve" with the given extra environment
// and waits until /health answers.
func startServer(t *testing.T, binary, dataDir string, env ...string) *Server {
	t.Helper()

	addr := "127.0.0.1:" + strconv.Itoa(freePort(t))

	ctx, cancel := context.WithCancel(context.Background())

	cmd := exec.CommandContext(ctx, binary, "serve", "--addr", addr, "--data-dir", dataDir, "--log-level", "debug")
	cmd.Env = append(os.Environ(), env...)

	s := &Server{
		cmd:      cmd,
		httpAddr: addr,
		dataDir:  dataDir,
		output:   &safeBuffer{},
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	cmd.Stdout = s.output
	cmd.Stderr = s.output

	if err := cmd.Start(); err != nil {
		cancel()
		t.Fatalf("start server: %v", err)
	}

	go func() {
		cmd.Wait()
		close(s.done)
	}()

	t.Cleanup(s.Stop)

	waitForHealth(t, s, 15*time.Second)

	return s
}

// waitForHealth polls GET /health until it answers 200.
func waitForHealth(t *testing.T, s *Server, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		select {
		case <-s.done:
			t.Fatalf("server exited early:\n%s", s.Logs())
		default:
		}

		resp, err := http.Get("http://" + s.httpAddr + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}

		time.Sleep(100 * time.Millisecond)
	}

	t.Fatalf("server not healthy after %v:\n%s", timeout, s.Logs())
}

// runCLI runs the binary with args and returns its combined output and exit code.
func runCLI(t *testing.T, binary string, args ...string) (string, int) {
	t.Helper()

	cmd := exec.Command(binary, args...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return string(output), exitErr.ExitCode()
		}
		t.Fatalf("run %v: %v", args, err)
	}

	return string(output), 0
}

// freePort asks the kernel for an unused TCP port.
func freePort(t *testing.T) int {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("find free port: %v", err)
	}
	defer l.Close()

	return l.Addr().(*net.TCPAddr).Port
}

// buildBinary compiles the trustedwinner command into a temp file.
func buildBinary(t *testing.T) string {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "trustedwinner_test_*")
	if err != nil {
		t.Fatalf("create temp binary file: %v", err)
	}

	binary := tmpFile.Name()
	tmpFile.Close()

	cmd := exec.Command("go", "build", "-o", binary, "./cmd/trustedwinner")
	cmd.Dir = getProjectRoot(t)

	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("build failed: %v\n%s", err, output)
	}

	t.Cleanup(func() { os.Remove(binary) })

	return binary
}

// getProjectRoot returns the project root directory (containing go.mod).
func getProjectRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("get working dir: %v", err)
	}

	dir := wd
	for i := 0; i < 5; i++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		dir = filepath.Dir(dir)
	}

	t.Fatalf("could not find project root from %s", wd)

	return ""
}
