// Package media rewrites share links into URLs a player can stream directly.
package media

import (
	"net/url"
	"regexp"
	"strings"
)

var driveFileID = regexp.MustCompile(`/d/([^/]+)`)

// StreamableURL returns a direct-download form of known share links.
// Google Drive "/d/<id>" links become uc?export=download links and Dropbox
// dl=0 links become dl=1. Anything else is returned unchanged.
func StreamableURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	host := strings.ToLower(u.Hostname())

	switch {
	case host == "drive.google.com":
		if m := driveFileID.FindStringSubmatch(u.Path); m != nil {
			return "https://drive.google.com/uc?export=download&id=" + m[1]
		}
	case host == "dropbox.com" || strings.HasSuffix(host, ".dropbox.com"):
		q := u.Query()
		if q.Get("dl") == "0" {
			q.Set("dl", "1")
			u.RawQuery = q.Encode()
			return u.String()
		}
	}
	return raw
}
