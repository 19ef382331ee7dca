package fs

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

const (
	// textSniffSize is how many leading bytes are enough to decide
	// text versus binary.
	textSniffSize = 4096

	suspiciousThresholdPercent = 30
)

type unicodeEncoding int

const (
	encodingUnknown unicodeEncoding = iota
	encodingUTF8BOM
	encodingUTF16LE
	encodingUTF16BE
)

var binaryExtensions = map[string]struct{}{
	".7z": {}, ".a": {}, ".apk": {}, ".avi": {}, ".bin": {},
	".bmp": {}, ".bz2": {}, ".class": {}, ".dat": {}, ".dll": {},
	".doc": {}, ".docx": {}, ".dylib": {}, ".exe": {}, ".flac": {},
	".gif": {}, ".gz": {}, ".ico": {}, ".iso": {}, ".jar": {},
	".jpeg": {}, ".jpg": {}, ".mkv": {}, ".mov": {}, ".mp3": {},
	".mp4": {}, ".o": {}, ".ogg": {}, ".otf": {}, ".pdf": {},
	".png": {}, ".ppt": {}, ".pptx": {}, ".psd": {}, ".so": {},
	".sqlite": {}, ".tar": {}, ".tgz": {}, ".ttf": {}, ".wav": {},
	".wasm": {}, ".webp": {}, ".woff": {}, ".woff2": {}, ".xls": {},
	".xlsx": {}, ".xz": {}, ".zip": {}, ".zst": {},
}

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// LooksBinaryName reports whether the file name alone marks the file
// as binary, letting callers skip reading its content entirely.
func LooksBinaryName(path string) bool {
	if path == "" {
		return false
	}
	ext := strings.ToLower(filepath.Ext(path))
	_, ok := binaryExtensions[ext]
	return ok
}

// IsTextData sniffs a content sample and decides whether it is
// renderable text. BOM-marked Unicode is always text; otherwise a NUL
// byte or a high ratio of control bytes marks it binary.
func IsTextData(content []byte) bool {
	if len(content) == 0 {
		return true
	}

	sample := content
	if len(sample) > textSniffSize {
		sample = sample[:textSniffSize]
	}

	if detectUnicodeEncoding(sample) != encodingUnknown {
		return true
	}
	if bytes.IndexByte(sample, 0x00) != -1 {
		return false
	}
	if utf8.Valid(sample) {
		return true
	}

	suspicious := 0
	for _, b := range sample {
		if suspiciousByte(b) {
			suspicious++
		}
	}
	return suspicious*100/len(sample) < suspiciousThresholdPercent
}

// ReadFileHead returns up to limit bytes from the beginning of path.
func ReadFileHead(path string, limit int64) ([]byte, error) {
	if limit <= 0 {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(f, limit))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return data, err
}

// suspiciousByte flags control bytes that rarely appear in text. Tab,
// newline, CR and ESC are common enough to pass; high-bit bytes belong
// to some non-UTF-8 legacy encoding and pass too.
func suspiciousByte(b byte) bool {
	switch b {
	case '\t', '\n', '\r', 0x1B:
		return false
	}
	return b < 0x20 || b == 0x7F
}

func detectUnicodeEncoding(sample []byte) unicodeEncoding {
	switch {
	case bytes.HasPrefix(sample, bomUTF8):
		return encodingUTF8BOM
	case bytes.HasPrefix(sample, bomUTF16LE):
		return encodingUTF16LE
	case bytes.HasPrefix(sample, bomUTF16BE):
		return encodingUTF16BE
	}
	return encodingUnknown
}

// NormalizeTextContent converts known Unicode BOM-encoded content into
// a UTF-8 string; everything else passes through unchanged.
func NormalizeTextContent(content []byte) string {
	switch detectUnicodeEncoding(content) {
	case encodingUTF8BOM:
		return string(content[len(bomUTF8):])
	case encodingUTF16LE:
		return decodeUTF16(content, unicode.LittleEndian)
	case encodingUTF16BE:
		return decodeUTF16(content, unicode.BigEndian)
	default:
		return string(content)
	}
}

func decodeUTF16(content []byte, endian unicode.Endianness) string {
	out, err := unicode.UTF16(endian, unicode.ExpectBOM).NewDecoder().Bytes(content)
	if err != nil {
		// Mangled UTF-16 renders as raw bytes rather than nothing.
		return string(content)
	}
	return string(out)
}
