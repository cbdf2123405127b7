package fetch

import "strings"

// IsRemote reports whether source should be fetched over HTTP.
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func localPath(source string) string {
	return strings.TrimPrefix(source, "file://")
}
