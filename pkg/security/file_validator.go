package security

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// FileValidationResult contains the result of file validation
type FileValidationResult struct {
	Valid        bool   // Whether the file passed all validation checks
	Extension    string // Normalised file extension
	DetectedMIME string // MIME type sniffed from content
	Error        string // Error message if validation failed
}

// Magic byte signatures for resume formats
var magicBytes = map[string][][]byte{
	".pdf":  {{0x25, 0x50, 0x44, 0x46}},                         // %PDF
	".doc":  {{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}}, // OLE Compound Document
	".docx": {{0x50, 0x4B, 0x03, 0x04}},                         // ZIP (PK..)
	".rtf":  {{0x7B, 0x5C, 0x72, 0x74, 0x66}},                   // {\rtf
	".txt":  {},                                                 // no signature, rely on MIME detection
}

// Strict MIME types per extension. application/octet-stream is never accepted on its own.
var allowedMIME = map[string][]string{
	".pdf":  {"application/pdf"},
	".doc":  {"application/msword", "application/x-ole-storage"},
	".docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "application/zip"},
	".rtf":  {"text/rtf", "application/rtf"},
	".txt":  {"text/plain"},
}

// ValidateResume performs 3-layer validation on an uploaded resume:
// 1. Extension whitelist
// 2. Magic bytes match the extension
// 3. Sniffed MIME type is allowed for the extension
func ValidateResume(filename string, data []byte) FileValidationResult {
	mtype := mimetype.Detect(data)
	result := FileValidationResult{DetectedMIME: mtype.String()}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		result.Error = "file has no extension"
		return result
	}
	result.Extension = ext

	signatures, ok := magicBytes[ext]
	if !ok {
		result.Error = "file extension not allowed: " + ext
		return result
	}

	if len(signatures) > 0 && !hasSignature(data, signatures) {
		result.Error = "file content does not match extension"
		return result
	}

	if !mimeAllowed(ext, mtype) {
		result.Error = "MIME type not allowed: " + mtype.String()
		return result
	}

	result.Valid = true
	return result
}

func hasSignature(data []byte, signatures [][]byte) bool {
	for _, sig := range signatures {
		if bytes.HasPrefix(data, sig) {
			return true
		}
	}
	return false
}

// mimeAllowed walks the detected type and its parents, so text/plain; charset=utf-8 matches text/plain.
func mimeAllowed(ext string, mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		for _, allowed := range allowedMIME[ext] {
			if m.Is(allowed) {
				return true
			}
		}
	}
	return false
}

// AllowedResumeExtensions returns the accepted extensions for error messages
func AllowedResumeExtensions() []string {
	return []string{".pdf", ".doc", ".docx", ".rtf", ".txt"}
}
