// Package helpers provides utility functions for content upgrade operations.
package helpers

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

// DebugMode controls whether detailed debug logging is enabled
var DebugMode = false

var machineName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*(\.[A-Za-z][A-Za-z0-9_]*)+$`)

// DebugLog logs a message only if debug mode is enabled
func DebugLog(format string, args ...interface{}) {
	if DebugMode {
		logrus.Debugf(DebugPrefix+format, args...)
	}
}

// DebugLogHTTP logs HTTP-related debug messages only if debug mode is enabled
func DebugLogHTTP(format string, args ...interface{}) {
	if DebugMode {
		logrus.Debugf(DebugHTTPPrefix+format, args...)
	}
}

// NormalizeURL removes trailing slashes from URLs to prevent double-slash issues
func NormalizeURL(urlStr string) string {
	return strings.TrimRight(urlStr, "/")
}

// MD5Hash generates an MD5 hash of the given bytes
func MD5Hash(data []byte) string {
	hash := md5.Sum(data)
	return fmt.Sprintf("%x", hash)
}

// GetFileNames extracts filenames from a slice of multipart file headers
func GetFileNames(fileHeaders []*multipart.FileHeader) []string {
	names := make([]string, len(fileHeaders))
	for i, fh := range fileHeaders {
		names[i] = fh.Filename
	}
	return names
}

// GetContentFormat determines the document encoding based on file extension
func GetContentFormat(filename string) string {
	filename = strings.ToLower(filename)

	switch {
	case strings.HasSuffix(filename, ExtYAML) || strings.HasSuffix(filename, ExtYML):
		return FormatYAML
	case strings.HasSuffix(filename, ExtJSON):
		return FormatJSON
	default:
		return FormatUnknown
	}
}

// IsMachineName reports whether name looks like a library machine name
// such as "H5P.InteractiveBook".
func IsMachineName(name string) bool {
	return machineName.MatchString(name)
}

// DebugHTTPTransport wraps an http.RoundTripper to log request/response details
type DebugHTTPTransport struct {
	Transport http.RoundTripper
}

// RoundTrip implements http.RoundTripper interface with debugging
func (d *DebugHTTPTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	DebugLogHTTP("%s %s", req.Method, req.URL.String())

	resp, err := d.Transport.RoundTrip(req)
	if err != nil {
		DebugLogHTTP("Request failed: %v", err)
		return resp, err
	}

	DebugLogHTTP("Response Status: %d %s", resp.StatusCode, resp.Status)

	// Read and log the response body only for errors if debug mode is enabled
	if DebugMode && resp.StatusCode >= 400 {
		bodyBytes, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close() // Ignore error - body already read

		if readErr != nil {
			DebugLogHTTP("Failed to read error response body: %v", readErr)
		} else {
			DebugLogHTTP("Error response body (status %d): %s", resp.StatusCode, string(bodyBytes))
			// Restore the body for the caller
			resp.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
		}
	}

	return resp, err
}

// EnableHTTPDebugLogging wraps the HTTP client with debug logging
func EnableHTTPDebugLogging(client *http.Client) *http.Client {
	if client == nil {
		client = &http.Client{}
	}

	if client.Transport == nil {
		client.Transport = http.DefaultTransport
	}

	client.Transport = &DebugHTTPTransport{
		Transport: client.Transport,
	}

	return client
}
