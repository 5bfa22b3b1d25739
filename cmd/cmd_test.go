package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"firestige.xyz/pktxmt/internal/bus"
	"firestige.xyz/pktxmt/internal/config"
	"firestige.xyz/pktxmt/internal/sensor"
)

// MockPublisher implements bus.Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, msg []byte) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunValidate(t *testing.T) {
	path := writeFile(t, "pktxmt.yml", `
pktxmt:
  framing:
    preamble: "7E 7E"
    crc: true
  sink:
    type: udp
    options:
      address: "127.0.0.1:5000"
`)
	var buf bytes.Buffer
	require.NoError(t, runValidate(path, false, &buf))
	assert.Equal(t, "VALID: source=strobe sink=udp preamble=7E 7E crc=true header=false\n", buf.String())

	buf.Reset()
	require.NoError(t, runValidate(path, true, &buf))
	assert.Contains(t, buf.String(), "pktxmt:\n")
	assert.Contains(t, buf.String(), "preamble: 7E 7E")
}

func TestRunValidate_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		contains string
	}{
		{"bad preamble", "pktxmt:\n  framing:\n    preamble: ZZ\n", "INVALID"},
		{"unknown source", "pktxmt:\n  source:\n    type: radio\n", "unknown source type"},
		{"unknown sink", "pktxmt:\n  sink:\n    type: radio\n", "unknown sink type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := runValidate(writeFile(t, "bad.yml", tt.content), false, &buf)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
			assert.Empty(t, buf.String())
		})
	}
}

func TestValidateCmd_Execute(t *testing.T) {
	path := writeFile(t, "pktxmt.yml", "pktxmt:\n  sink:\n    type: memory\n")

	root := &cobra.Command{Use: "pktxmt"}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "")
	root.AddCommand(validateCmd)
	defer func() { configFile = "" }()

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs([]string{"validate", "-c", path})

	require.NoError(t, root.Execute())
	assert.Contains(t, buf.String(), "VALID: source=strobe sink=memory")
}

func TestRunTransmit(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.bin")
	out := filepath.Join(dir, "out.bin")
	require.NoError(t, os.WriteFile(in, []byte{1, 2, 3, 4}, 0o644))

	cfg, err := config.Load(writeFile(t, "pktxmt.yml", `
pktxmt:
  scheduler:
    idle_wait: 1ms
  source:
    type: file
    options:
      path: `+in+`
      packet_size: 2
  sink:
    type: file
    options:
      path: `+out+`
`))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var buf bytes.Buffer
	require.NoError(t, runTransmit(ctx, cfg, "cmd-test", &buf))

	assert.Equal(t, "✓ cmd-test: 2 packets framed (4 payload bytes, 8 preamble bytes, 0 stale bytes dropped)\n", buf.String())
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0x55, 0xAA, 0x55, 1, 2, 0xAA, 0x55, 0xAA, 0x55, 3, 4}, data)
}

func TestRunTransmit_BadSource(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Source.Type = "radio"

	err = runTransmit(context.Background(), cfg, "bad", &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to build pipeline")
}

func TestRunSensorPublish(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("Publish", mock.Anything, sensor.EncodeMessage(21.5)).Return(nil).Once()
	pub.On("Publish", mock.Anything, sensor.EncodeMessage(-3)).Return(errors.New("broker down")).Once()

	err := runSensorPublish(context.Background(), strings.NewReader("21.5\nbogus\n-3\n"), pub, 0)

	assert.NoError(t, err)
	pub.AssertExpectations(t)
	pub.AssertNumberOfCalls(t, "Publish", 2)
}

func TestRunSensorSubscribe(t *testing.T) {
	m := bus.NewMemory(8)
	sub := m.Subscribe()
	ctx := context.Background()
	require.NoError(t, m.Publish(ctx, sensor.EncodeMessage(1.25)))
	require.NoError(t, m.Publish(ctx, []byte{0x01}))
	require.NoError(t, m.Publish(ctx, sensor.EncodeMessage(40)))

	ctx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	var buf bytes.Buffer
	require.NoError(t, runSensorSubscribe(ctx, sub, &buf))
	assert.Equal(t, "1.25\n40\n", buf.String())
}
