package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/bootlink/internal/checksum"
	"github.com/mrz1836/bootlink/internal/errors"
	"github.com/mrz1836/bootlink/internal/testutil"
)

func sealedBoot2(t *testing.T) []byte {
	t.Helper()
	img, err := checksum.Seal([]byte{0x00, 0xb5, 0x32, 0x4b, 0x21, 0x20, 0x58, 0x60})
	require.NoError(t, err)
	return img
}

func writeListing(t *testing.T, img []byte) string {
	t.Helper()
	text, err := checksum.EmitListing(img, "boot2.bin")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "boot2.S")
	require.NoError(t, os.WriteFile(path, text, 0o600))
	return path
}

func TestVerify_ValidExecutable(t *testing.T) {
	isolateEnv(t)
	img := sealedBoot2(t)
	elf := testutil.WriteELF(t, filepath.Join(t.TempDir(), "Blinky.elf"),
		testutil.ELFSection{Name: ".boot2", Addr: 0x10000000, Data: img},
		testutil.ELFSection{Name: ".text", Addr: 0x10000100, Data: []byte{0x00, 0xbf}},
	)

	stdout, _, err := execute(t, "verify", elf)
	require.NoError(t, err)
	assert.Contains(t, stdout, "boot2 valid")
	assert.Contains(t, stdout, "crc 0x")
}

func TestVerify_CorruptExecutable(t *testing.T) {
	isolateEnv(t)
	img := sealedBoot2(t)
	img[3] ^= 0xff
	elf := testutil.WriteELF(t, filepath.Join(t.TempDir(), "Blinky.elf"),
		testutil.ELFSection{Name: ".boot2", Addr: 0x10000000, Data: img},
	)

	_, stderr, err := execute(t, "verify", elf)
	require.ErrorIs(t, err, errors.ErrBoot2Invalid)
	assert.Equal(t, ExitError, ExitCodeForError(err))
	assert.Contains(t, stderr, "bootlink link")
}

func TestVerify_Listing(t *testing.T) {
	isolateEnv(t)
	path := writeListing(t, sealedBoot2(t))

	stdout, _, err := execute(t, "verify", "--listing", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, path+": boot2 valid")
}

func TestVerify_TamperedListingJSON(t *testing.T) {
	isolateEnv(t)
	path := writeListing(t, sealedBoot2(t))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// flip the first payload byte: 0x00 -> 0x01
	tampered := strings.Replace(string(data), ".byte 0x00", ".byte 0x01", 1)
	require.NotEqual(t, string(data), tampered)
	require.NoError(t, os.WriteFile(path, []byte(tampered), 0o600))

	stdout, _, err := execute(t, "--output", "json", "verify", "--listing", path)
	require.ErrorIs(t, err, errors.ErrBoot2Invalid)

	var resp verifyResponse
	require.NoError(t, json.NewDecoder(strings.NewReader(stdout)).Decode(&resp))
	assert.False(t, resp.Valid)
	assert.Equal(t, path, resp.Path)
	assert.Contains(t, resp.Error, "checksum")
}

func TestVerify_NotAnELF(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "garbage.elf")
	require.NoError(t, os.WriteFile(path, []byte("not elf"), 0o600))

	_, _, err := execute(t, "verify", path)
	require.Error(t, err)
	assert.Equal(t, ExitError, ExitCodeForError(err))
}
