package models

import (
	"net/url"
	"strings"
)

// LinkType tags a shared URL by the service it points at.
type LinkType string

const (
	LinkGeneric   LinkType = "generic"
	LinkYouTube   LinkType = "youtube"
	LinkX         LinkType = "x"
	LinkTikTok    LinkType = "tiktok"
	LinkInstagram LinkType = "instagram"
	LinkSpotify   LinkType = "spotify"
)

var linkHosts = map[string]LinkType{
	"youtube.com":   LinkYouTube,
	"youtu.be":      LinkYouTube,
	"x.com":         LinkX,
	"twitter.com":   LinkX,
	"tiktok.com":    LinkTikTok,
	"instagram.com": LinkInstagram,
	"spotify.com":   LinkSpotify,
}

// ClassifyLink maps a URL to its LinkType by host, including subdomains.
func ClassifyLink(raw string) LinkType {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return LinkGeneric
	}
	host := strings.ToLower(u.Hostname())
	for host != "" {
		if lt, ok := linkHosts[host]; ok {
			return lt
		}
		i := strings.IndexByte(host, '.')
		if i < 0 {
			break
		}
		host = host[i+1:]
	}
	return LinkGeneric
}
