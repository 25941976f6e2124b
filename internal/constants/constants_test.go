package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoot2Constants(t *testing.T) {
	t.Run("payload plus checksum fills the image", func(t *testing.T) {
		assert.Equal(t, 256, Boot2ImageSize)
		assert.Equal(t, 252, Boot2MaxPayloadSize)
		assert.Equal(t, Boot2ImageSize, Boot2MaxPayloadSize+Boot2ChecksumSize)
	})

	t.Run("listing rows cover the image exactly", func(t *testing.T) {
		assert.Zero(t, Boot2ImageSize%ListingBytesPerRow)
		assert.Equal(t, 16, Boot2ImageSize/ListingBytesPerRow)
	})

	t.Run("boot2 loads from XIP flash", func(t *testing.T) {
		assert.Equal(t, 0x10000000, Boot2LoadAddress)
		assert.Equal(t, ".boot2", Boot2SectionName)
	})
}

func TestLinkConstants(t *testing.T) {
	assert.Equal(t, 4096, MaxPageSize)
	assert.Equal(t, "__aeabi_lmul", DefaultWrapSymbol)
	assert.Equal(t, uint32(0xe48bff56), uint32(UF2FamilyRP2040))
}

func TestIntermediateNames(t *testing.T) {
	assert.Equal(t, Boot2ListingName+".o", Boot2ObjectName)
	assert.NotEqual(t, Boot2ELFName, Boot2BinName)
}
