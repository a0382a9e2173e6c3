package e2e_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playkit/gameroom/internal/api"
	"github.com/playkit/gameroom/internal/factory"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath  string
	registryURL string
	tokenFile   string
}

func newCLIRunner(t *testing.T, registryURL string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(projectRoot, "bin", "gameroom-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/peer")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	// Create temp token file
	tokenFile := filepath.Join(t.TempDir(), "token")

	return &cliRunner{
		binaryPath:  binaryPath,
		registryURL: registryURL,
		tokenFile:   tokenFile,
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--registry", r.registryURL,
		"--token-file", r.tokenFile,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func (r *cliRunner) runWithToken(token string, args ...string) (string, error) {
	fullArgs := append([]string{
		"--registry", r.registryURL,
		"--token", token,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	server   *http.Server
	addr     string
	shutdown func()
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	// Create application
	app, err := factory.New(factory.Config{})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	router := api.NewRouter(api.RouterConfig{
		Logger:             logger,
		IdentityService:    app.IdentityService,
		RegistryController: app.RegistryController,
	})

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server
	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	// Wait for server to be ready
	serverURL := "http://" + addr
	waitForServer(t, serverURL+"/api/v1/health")

	return &testServer{
		server: server,
		addr:   serverURL,
		shutdown: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
		},
	}
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// Response types for JSON parsing
type authResponse struct {
	Profile struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
		IsGuest     bool   `json:"is_guest"`
	} `json:"profile"`
	SessionToken string `json:"session_token"`
}

type healthResponse struct {
	Status string `json:"status"`
}

type roomListResponse struct {
	Rooms []struct {
		Code      string `json:"code"`
		Kind      string `json:"kind"`
		HostName  string `json:"host_name"`
		PeerCount int    `json:"peer_count"`
	} `json:"rooms"`
}

type matchListResponse struct {
	Matches []struct {
		ID   string `json:"id"`
		Kind string `json:"kind"`
	} `json:"matches"`
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)

	var resp healthResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestCLI_ProfileCommands(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	// Create guest
	output, err := cli.run("profile", "guest", "--name", "Alice")
	require.NoError(t, err, "output: %s", output)

	var authResp authResponse
	require.NoError(t, json.Unmarshal([]byte(output), &authResp))
	assert.Equal(t, "Alice", authResp.Profile.DisplayName)
	assert.True(t, authResp.Profile.IsGuest)
	assert.NotEmpty(t, authResp.SessionToken)

	// Get me (token should be saved in token file)
	output, err = cli.run("profile", "me")
	require.NoError(t, err, "output: %s", output)

	var profile struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
		IsGuest     bool   `json:"is_guest"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &profile))
	assert.Equal(t, "Alice", profile.DisplayName)
	assert.Equal(t, authResp.Profile.ID, profile.ID)
}

func TestCLI_RegisterLoginLogout(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("profile", "register", "--name", "Alice", "--user", "alice", "--pass", "secret123")
	require.NoError(t, err, "output: %s", output)

	var registerResp authResponse
	require.NoError(t, json.Unmarshal([]byte(output), &registerResp))
	assert.False(t, registerResp.Profile.IsGuest)

	output, err = cli.run("profile", "login", "--user", "alice", "--pass", "secret123")
	require.NoError(t, err, "output: %s", output)

	var loginResp authResponse
	require.NoError(t, json.Unmarshal([]byte(output), &loginResp))
	assert.Equal(t, registerResp.Profile.ID, loginResp.Profile.ID)

	// Logout invalidates the saved token
	output, err = cli.run("profile", "logout")
	require.NoError(t, err, "output: %s", output)

	_, err = cli.runWithToken(loginResp.SessionToken, "profile", "me")
	assert.Error(t, err)
}

func TestCLI_RoomAndHistoryListings(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("profile", "guest", "--name", "Alice")
	require.NoError(t, err, "output: %s", output)

	// No rooms yet
	output, err = cli.run("room", "list")
	require.NoError(t, err, "output: %s", output)

	var rooms roomListResponse
	require.NoError(t, json.Unmarshal([]byte(output), &rooms))
	assert.Empty(t, rooms.Rooms)

	// No history yet
	output, err = cli.run("history")
	require.NoError(t, err, "output: %s", output)

	var matches matchListResponse
	require.NoError(t, json.Unmarshal([]byte(output), &matches))
	assert.Empty(t, matches.Matches)

	// Unauthenticated listing is rejected
	_, err = cli.runWithToken("bogus", "room", "list")
	assert.Error(t, err)
}
