package links

import (
	"net/url"
	"sort"
	"strings"
)

const wwwPrefix = "www."

// trackingParams are query parameters that never change the article.
var trackingParams = map[string]struct{}{
	"fbclid": {}, "gclid": {}, "mc_cid": {}, "mc_eid": {}, "ref": {}, "ref_src": {},
}

// Canonical returns a comparison key for a URL: lower-cased host without
// "www.", no fragment, no tracking parameters, no trailing slash. Input that
// does not parse is returned trimmed.
func Canonical(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme == "http" {
		u.Scheme = "https"
	}

	u.Host = normalizeDomain(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""

	q := u.Query()
	for key := range q {
		if _, drop := trackingParams[strings.ToLower(key)]; drop || strings.HasPrefix(strings.ToLower(key), "utm_") {
			q.Del(key)
		}
	}

	u.RawQuery = encodeSorted(q)

	return u.String()
}

// SameArticle reports whether two URLs point at the same article.
func SameArticle(a, b string) bool {
	return Canonical(a) == Canonical(b)
}

// Domain returns the normalized host of a URL.
func Domain(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}

	return normalizeDomain(u.Host)
}

func normalizeDomain(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	host = strings.TrimPrefix(host, wwwPrefix)

	return host
}

func encodeSorted(q url.Values) string {
	if len(q) == 0 {
		return ""
	}

	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		for _, v := range q[k] {
			parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(v))
		}
	}

	return strings.Join(parts, "&")
}
