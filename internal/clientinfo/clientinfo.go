// Package clientinfo extracts caller details recorded with each verification.
package clientinfo

import (
	"net"
	"net/http"

	"github.com/atinyakov/docverify/internal/models"
	"github.com/mssola/useragent"
)

// FromRequest describes the caller of r. RemoteAddr is expected to already be
// rewritten by a proxy-aware middleware when the server sits behind one.
func FromRequest(r *http.Request) models.ClientInfo {
	return Describe(r.RemoteAddr, r.UserAgent())
}

// Describe builds a ClientInfo from a remote address and a User-Agent header.
func Describe(remoteAddr, userAgent string) models.ClientInfo {
	info := models.ClientInfo{
		Address:   hostOnly(remoteAddr),
		UserAgent: userAgent,
	}
	if userAgent == "" {
		return info
	}

	ua := useragent.New(userAgent)
	name, version := ua.Browser()
	info.Browser = name
	if version != "" {
		info.Browser = name + " " + version
	}
	info.OS = ua.OS()
	info.Mobile = ua.Mobile()
	info.Bot = ua.Bot()
	return info
}

func hostOnly(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
