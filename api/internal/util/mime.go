package util

import (
	"encoding/base64"
	"net/http"
	"strings"
)

// SniffMimeHTTP recognises the two raster formats the recognizer accepts by
// their magic bytes.
func SniffMimeHTTP(b []byte) string {
	// JPEG: FF D8
	if len(b) >= 2 && b[0] == 0xFF && b[1] == 0xD8 {
		return "image/jpeg"
	}
	// PNG
	if len(b) >= 8 &&
		b[0] == 0x89 && b[1] == 0x50 && b[2] == 0x4E && b[3] == 0x47 &&
		b[4] == 0x0D && b[5] == 0x0A && b[6] == 0x1A && b[7] == 0x0A {
		return "image/png"
	}
	return "application/octet-stream"
}

func MakeDataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// PickMIME prefers the declared type, then a hint, then sniffs the bytes.
// Generic declarations such as application/octet-stream do not count.
func PickMIME(explicit, hint string, data []byte) string {
	if exp := strings.ToLower(strings.TrimSpace(explicit)); exp != "" && exp != "application/octet-stream" {
		if semi := strings.IndexByte(exp, ';'); semi >= 0 {
			exp = strings.TrimSpace(exp[:semi])
		}
		return exp
	}
	if h := strings.TrimSpace(hint); h != "" {
		return strings.ToLower(h)
	}
	if len(data) > 0 {
		if m := SniffMimeHTTP(data); m != "application/octet-stream" {
			return m
		}
		return http.DetectContentType(data)
	}
	return "application/octet-stream"
}
