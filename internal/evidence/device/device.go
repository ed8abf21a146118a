// Package device reads client metadata out of portal upload requests. The
// browser and platform strings end up on the evidence item so reviewers can
// see roughly where an external submission came from.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

// ParseClient splits a User-Agent header into browser and platform strings.
// Empty or unreadable agents yield empty strings; the item stores whatever
// could be read.
func ParseClient(rawUA string) (browser, platform string) {
	rawUA = strings.TrimSpace(rawUA)
	if rawUA == "" {
		return "", ""
	}
	ua := useragent.New(rawUA)
	name, version := ua.Browser()
	browser = strings.TrimSpace(name + " " + version)
	platform = ua.OSInfo().FullName
	if platform == "" {
		platform = ua.OS()
	}
	return browser, platform
}
