// Package utils provides helpers for locating and reading narration
// payload files.
package utils

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/mitchellh/go-homedir"
)

// PayloadExtensions lists the glob patterns recognized as narration
// payload files when searching a directory.
var PayloadExtensions = []string{
	"*.b64", "*.pcm64", "*.b64.zst", "*.pcm64.zst",
}

// ExpandPath expands tilde and all environment variables from the given path.
func ExpandPath(path string) string {
	s, err := homedir.Expand(path)
	if err == nil {
		return os.ExpandEnv(s)
	}
	return os.ExpandEnv(path)
}

// IsPayloadFile reports whether the path carries one of the recognized
// payload extensions.
func IsPayloadFile(path string) bool {
	name := strings.ToLower(path)
	for _, ext := range []string{".b64", ".pcm64", ".b64.zst", ".pcm64.zst"} {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// CleanPayload strips all whitespace in and around a base64 payload.
// Generation services and shell pipelines wrap long payloads with
// newlines; the decoder itself stays strict about its alphabet.
func CleanPayload(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// ReadPayload reads a base64 narration payload from r and cleans it.
func ReadPayload(r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("unable to read payload: %w", err)
	}
	return CleanPayload(string(b)), nil
}

// LoadPayload reads the payload file at path. Files with a .zst
// extension are decompressed transparently.
func LoadPayload(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("unable to open payload: %w", err)
	}
	defer f.Close() //nolint:errcheck

	if !strings.HasSuffix(strings.ToLower(path), ".zst") {
		return ReadPayload(f)
	}

	zr, err := zstd.NewReader(f)
	if err != nil {
		return "", fmt.Errorf("unable to read compressed payload: %w", err)
	}
	defer zr.Close()

	return ReadPayload(zr)
}
