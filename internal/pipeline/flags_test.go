package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mrz1836/bootlink/internal/config"
	"github.com/mrz1836/bootlink/internal/pipeline"
)

func TestCommonFlags_Defaults(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{
		"--target=armv6m-none-eabi",
		"-mfloat-abi=soft",
		"-march=armv6m",
		"-O3",
		"-DNDEBUG",
		"-nostdlib",
		"-Wl,--build-id=none",
	}, pipeline.CommonFlags(config.DefaultConfig().Target))
}

func TestCommonFlags_AlwaysDisablesBuildID(t *testing.T) {
	t.Parallel()

	flags := pipeline.CommonFlags(config.TargetConfig{Triple: "thumbv6m-none-eabi", Arch: "armv6-m", OptLevel: "-Os"})
	assert.Contains(t, flags, "-Wl,--build-id=none")
	assert.Contains(t, flags, "-mfloat-abi=soft")
	assert.Contains(t, flags, "-nostdlib")
	assert.NotContains(t, flags, "-DNDEBUG")
}

func TestFinalLinkFlags(t *testing.T) {
	t.Parallel()

	app := config.DefaultConfig().App
	app.LinkerScript = "/sdk/memmap_default.ld"
	assert.Equal(t, []string{
		"-Xlinker", "--gc-sections",
		"-Xlinker", "--script=/sdk/memmap_default.ld",
		"-Xlinker", "-z", "-Xlinker", "max-page-size=4096",
		"-Xlinker", "--wrap=__aeabi_lmul",
	}, pipeline.FinalLinkFlags(app))

	app.WrapSymbols = nil
	assert.NotContains(t, pipeline.FinalLinkFlags(app), "--wrap=__aeabi_lmul")
}
