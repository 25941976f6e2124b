package pipeline

import (
	"strconv"

	"github.com/mrz1836/bootlink/internal/config"
)

// CommonFlags returns the cross-compilation flags every clang stage starts
// with. Soft-float, -nostdlib and --build-id=none are not configurable: the
// last one keeps repeated links byte-identical.
func CommonFlags(t config.TargetConfig) []string {
	flags := []string{
		"--target=" + t.Triple,
		"-mfloat-abi=soft",
		"-march=" + t.Arch,
		t.OptLevel,
	}
	for _, d := range t.Defines {
		flags = append(flags, "-D"+d)
	}
	return append(flags, "-nostdlib", "-Wl,--build-id=none")
}

// linker passes one argument through the clang driver to the linker.
func linker(args ...string) []string {
	out := make([]string, 0, 2*len(args))
	for _, a := range args {
		out = append(out, "-Xlinker", a)
	}
	return out
}

// FinalLinkFlags returns the linker flags of the final link.
func FinalLinkFlags(app config.AppConfig) []string {
	flags := linker(
		"--gc-sections",
		"--script="+app.LinkerScript,
		"-z", "max-page-size="+strconv.Itoa(app.MaxPageSize),
	)
	for _, sym := range app.WrapSymbols {
		flags = append(flags, linker("--wrap="+sym)...)
	}
	return flags
}
