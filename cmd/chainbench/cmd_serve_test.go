package main

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func TestServeCommand_StopsWithContext(t *testing.T) {
	port := freePort(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&buf)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs([]string{"serve", "--dir", t.TempDir(), "--port", strconv.Itoa(port), "--no-browser"})

	require.NoError(t, cmd.ExecuteContext(ctx))
	assert.Contains(t, buf.String(), fmt.Sprintf("chainbench dashboard: http://localhost:%d", port))
}

func TestServeCommand_Errors(t *testing.T) {
	_, err := runCLI(t, "serve", "--dir", t.TempDir(), "--port", "70000")
	assert.ErrorContains(t, err, "invalid port 70000")

	t.Chdir(t.TempDir())
	_, err = runCLI(t, "serve", "--no-browser", "--port", "-1")
	assert.ErrorContains(t, err, "invalid port -1", "dashboard dir defaults from config")
}
