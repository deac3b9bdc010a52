package upstream

import "net/http"

// DefaultUserAgent is a desktop Chrome string. Several CDNs refuse
// playlist requests from non-browser agents.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

const (
	browserAccept         = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7"
	browserAcceptLanguage = "en-US,en;q=0.9"
	browserReferer        = "https://www.google.com/"
)

// Accept-Encoding is left to the transport so gzip stays transparent.
func setBrowserHeaders(h http.Header, userAgent string) {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	h.Set("User-Agent", userAgent)
	h.Set("Accept", browserAccept)
	h.Set("Accept-Language", browserAcceptLanguage)
	h.Set("Referer", browserReferer)
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", "none")
	h.Set("Sec-Fetch-User", "?1")
	h.Set("Upgrade-Insecure-Requests", "1")
}
