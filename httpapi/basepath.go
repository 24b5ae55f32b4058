package httpapi

import (
	"net/url"
	"strings"

	"pkt.systems/sourcecast/schema"
)

func normalizeBasePath(value string) string {
	path := strings.TrimSpace(value)
	if path == "" || path == "/" {
		return ""
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	path = strings.TrimRight(path, "/")
	if path == "/" {
		return ""
	}
	return path
}

func buildBaseHref(baseURL, basePath string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	path := normalizeBasePath(basePath)
	if base == "" && path == "" {
		return ""
	}
	if base == "" {
		return ensureTrailingSlash(path)
	}
	return ensureTrailingSlash(base + path)
}

func ensureTrailingSlash(value string) string {
	if value == "" {
		return ""
	}
	if strings.HasSuffix(value, "/") {
		return value
	}
	return value + "/"
}

// ShareURL returns the public link of a sourcecast.
func ShareURL(baseURL, basePath string, uid schema.SourcecastUID) string {
	base := buildBaseHref(baseURL, basePath)
	if base == "" {
		base = "/"
	}
	return base + "sourcecasts/" + url.PathEscape(string(uid))
}
