// Package toolchain runs the external programs of the link pipeline.
//
// The commands executed by this package are built from project configuration
// (bootlink.yaml or ~/.bootlink/config.yaml). They are treated as trusted input,
// the same trust model as Makefiles or CI configuration. Arguments are passed
// directly to the process and are never interpreted by a shell.
package toolchain
