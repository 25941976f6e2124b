package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/bootlink/internal/checksum"
)

func TestRun_Seals(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	in := filepath.Join(dir, "boot2.bin")
	out := filepath.Join(dir, "boot2.S")
	require.NoError(t, os.WriteFile(in, []byte{0x00, 0xb5}, 0o600))

	var stderr bytes.Buffer
	require.Equal(t, 0, run(context.Background(), []string{in, out}, &stderr))
	assert.Empty(t, stderr.String())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	l, err := checksum.ParseListing(bytes.NewReader(data))
	require.NoError(t, err)
	assert.NoError(t, checksum.Verify(l.Bytes()))
}

func TestRun_Usage(t *testing.T) {
	t.Parallel()

	for _, args := range [][]string{nil, {"only-one"}, {"a", "b", "c"}} {
		var stderr bytes.Buffer
		assert.Equal(t, 2, run(context.Background(), args, &stderr))
		assert.Contains(t, stderr.String(), fmt.Sprintf("boot2checksum: expected 2 arguments, got %d", len(args)))
		assert.Contains(t, stderr.String(), "usage: boot2checksum INPUT OUTPUT")
	}
}

func TestRun_Oversized(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	in := filepath.Join(dir, "boot2.bin")
	out := filepath.Join(dir, "boot2.S")
	require.NoError(t, os.WriteFile(in, make([]byte, 300), 0o600))

	var stderr bytes.Buffer
	assert.Equal(t, 1, run(context.Background(), []string{in, out}, &stderr))
	assert.Contains(t, stderr.String(), "input is 300 bytes, maximum allowed is 252 bytes")
	assert.NoFileExists(t, out)
}
