package toolchain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/bootlink/internal/errors"
	"github.com/mrz1836/bootlink/internal/toolchain"
)

func TestQuote(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"", "''"},
		{"clang", "clang"},
		{"--target=armv6m-none-eabi", "--target=armv6m-none-eabi"},
		{"-Wl,--build-id=none", "-Wl,--build-id=none"},
		{"/path with space/x.ld", "'/path with space/x.ld'"},
		{"it's", `'it'\''s'`},
		{"$HOME", "'$HOME'"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, toolchain.Quote(tt.in), "quote %q", tt.in)
	}
}

func TestInvocationCommandLine(t *testing.T) {
	t.Parallel()

	inv := toolchain.Invocation{
		Tool: "/usr/bin/objcopy",
		Args: []string{"-Obinary", "bs2 default.elf", "bs2_default.bin"},
	}
	assert.Equal(t, "/usr/bin/objcopy -Obinary 'bs2 default.elf' bs2_default.bin", inv.CommandLine())

	inv = toolchain.Invocation{Tool: "ar", Args: []string{"x", "lib.a", "a.o"}, Dir: "/tmp/x"}
	assert.Equal(t, "(cd /tmp/x && ar x lib.a a.o)", inv.CommandLine())
}

func TestResolve(t *testing.T) {
	t.Parallel()

	path, err := toolchain.Resolve("/opt/llvm/bin/../bin/clang")
	require.NoError(t, err)
	assert.Equal(t, "/opt/llvm/bin/clang", path)

	_, err = toolchain.Resolve("")
	require.ErrorIs(t, err, errors.ErrMissingRequiredTools)

	_, err = toolchain.Resolve("definitely-not-a-real-tool-bootlink")
	require.Error(t, err)
}

func TestOutputCombined(t *testing.T) {
	t.Parallel()

	var nilOut *toolchain.Output
	assert.Empty(t, nilOut.Combined())
	assert.Equal(t, "out", (&toolchain.Output{Stdout: "out"}).Combined())
	assert.Equal(t, "err", (&toolchain.Output{Stderr: "err"}).Combined())
	assert.Equal(t, "err\nout", (&toolchain.Output{Stdout: "out", Stderr: "err"}).Combined())
}
