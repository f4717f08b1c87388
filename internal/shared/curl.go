// Utilities for parsing cURL commands copied from the browser's network inspector.
//
// The Apple Music web API requires a developer bearer token, a media-user-token,
// and session cookies; the practical way to obtain them is "Copy as cURL" on any
// amp-api request from a signed-in music.apple.com session.
package shared

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// CurlHeaders represents parsed headers and cookies from a cURL command.
type CurlHeaders struct {
	Headers map[string]string
	Cookie  string
}

// ParseCurlFile reads a file containing a cURL command and extracts headers.
func ParseCurlFile(filepath string) (*CurlHeaders, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}

	return ParseCurlCommand(content)
}

// ParseCurlCommand parses a cURL command string and extracts headers.
func ParseCurlCommand(data []byte) (*CurlHeaders, error) {
	curlCmd := string(data)
	curlCmd = strings.ReplaceAll(curlCmd, "\\\n", " ")
	curlCmd = strings.ReplaceAll(curlCmd, "\\", "")

	headers := make(map[string]string)
	var cookie string

	headerRegex := regexp.MustCompile(`-H\s+'([^']+)'|-H\s+"([^"]+)"`)
	matches := headerRegex.FindAllStringSubmatch(curlCmd, -1)

	for _, match := range matches {
		var headerLine string
		if match[1] != "" {
			headerLine = match[1]
		} else {
			headerLine = match[2]
		}

		parts := strings.SplitN(headerLine, ":", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])

			if strings.ToLower(key) != "cookie" {
				headers[key] = value
			}
		}
	}

	cookieRegex := regexp.MustCompile(`-b\s+'([^']+)'|-b\s+"([^"]+)"`)
	cookieMatches := cookieRegex.FindStringSubmatch(curlCmd)
	if len(cookieMatches) > 1 {
		if cookieMatches[1] != "" {
			cookie = cookieMatches[1]
		} else {
			cookie = cookieMatches[2]
		}
	}

	if cookie == "" {
		for _, match := range matches {
			var headerLine string
			if match[1] != "" {
				headerLine = match[1]
			} else {
				headerLine = match[2]
			}

			if strings.HasPrefix(strings.ToLower(headerLine), "cookie:") {
				parts := strings.SplitN(headerLine, ":", 2)
				if len(parts) == 2 {
					cookie = strings.TrimSpace(parts[1])
				}
				break
			}
		}
	}

	if len(headers) == 0 && cookie == "" {
		return nil, fmt.Errorf("no headers found in curl command")
	}

	return &CurlHeaders{
		Headers: headers,
		Cookie:  cookie,
	}, nil
}

// AppleMusicSession extracts the three Apple Music session values from the
// parsed headers. Header name matching is case-insensitive.
//
// Returns an error wrapping [ErrMissingCredentials] when the Authorization or
// media-user-token header is absent; cookies are optional at this stage and
// validated by the service constructor.
func (c *CurlHeaders) AppleMusicSession() (bearer, mediaUserToken, cookies string, err error) {
	for key, value := range c.Headers {
		switch strings.ToLower(key) {
		case "authorization":
			bearer = value
		case "media-user-token":
			mediaUserToken = value
		}
	}

	cookies = c.Cookie

	if bearer == "" {
		return "", "", "", fmt.Errorf("%w: no Authorization header in curl command", ErrMissingCredentials)
	}
	if mediaUserToken == "" {
		return "", "", "", fmt.Errorf("%w: no media-user-token header in curl command", ErrMissingCredentials)
	}

	return bearer, mediaUserToken, cookies, nil
}
