package main

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiwa/ntpsync/internal/config"
	"github.com/shiwa/ntpsync/internal/engine"
	"github.com/shiwa/ntpsync/internal/ntp"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func paramsYAML(server string, port int) string {
	return fmt.Sprintf(`SYSTEM:
  CurrentControlSet:
    Services:
      NtpService:
        Parameters:
          Server: %s
          Port: %d
          PollIntervalHours: 1
`, server, port)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "ntpsync dev ")
}

func TestSettings(t *testing.T) {
	params := writeFile(t, "parameters.yaml", paramsYAML("time.example", 123))

	out, err := execute(t, "settings", "--backend", "file", "--params-file", params)
	require.NoError(t, err)
	assert.Contains(t, out, "NtpService: Service settings:\n")
	assert.Contains(t, out, "Server: time.example <registry>")
	assert.Contains(t, out, "PollIntervalHours: 1 <registry>")
}

func TestSettings_ConfigFileAndEnv(t *testing.T) {
	params := writeFile(t, "parameters.yaml", "")
	cfg := writeFile(t, "ntpsync.yaml", "backend: file\nparams-file: "+params+"\n")
	t.Setenv("NTPSYNC_SERVICE_NAME", "OtherService")

	out, err := execute(t, "settings", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "OtherService: No settings found in registry, using default values:")
}

func TestSettings_BadConfigFile(t *testing.T) {
	_, err := execute(t, "settings", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config")
}

func TestSettings_InvalidBackend(t *testing.T) {
	_, err := execute(t, "settings", "--backend", "etcd")
	assert.ErrorContains(t, err, `unknown backend "etcd"`)
}

func TestOnce(t *testing.T) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer conn.Close()
	go func() {
		buf := make([]byte, 512)
		for {
			_, addr, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			resp := make([]byte, ntp.PacketSize)
			ntp.EncodeTimestamp(resp, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
			_, _ = conn.WriteToUDP(resp, addr)
		}
	}()
	params := writeFile(t, "parameters.yaml", paramsYAML("127.0.0.1", conn.LocalAddr().(*net.UDPAddr).Port))

	out, err := execute(t, "once", "--backend", "file", "--params-file", params, "--timeout", "1s")
	require.NoError(t, err)
	want := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).Local().Format(engine.TimeLayout)
	assert.Contains(t, out, "Current date and time from NTP server: "+want)
	assert.Contains(t, out, "Poll interval: 1 hour 0 minutes 0 seconds")
}

func TestOnce_Timeout(t *testing.T) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer conn.Close()
	params := writeFile(t, "parameters.yaml", paramsYAML("127.0.0.1", conn.LocalAddr().(*net.UDPAddr).Port))

	start := time.Now()
	_, err = execute(t, "once", "--backend", "file", "--params-file", params, "--timeout", "100ms")
	assert.ErrorContains(t, err, "an error occurred")
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestInstallArgs(t *testing.T) {
	o := config.DefaultOptions()
	o.Backend = config.BackendFile
	o.ParamsFile = "/etc/ntpsync/parameters.yaml"
	o.HTTPAddr = ":8123"

	assert.Equal(t, []string{
		"--service-name", "NtpService",
		"--backend", "file",
		"--log", "system",
		"--timeout", "5s",
		"--params-file", "/etc/ntpsync/parameters.yaml",
		"--http-addr", ":8123",
	}, installArgs(o))
}
