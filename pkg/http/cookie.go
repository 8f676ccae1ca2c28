package http

import (
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

// jarCookie is a detached copy of a received cookie. fasthttp cookies are pooled so we never keep them around
type jarCookie struct {
	domain    string
	tailMatch bool // tailMatch is set when the server supplied a Domain attribute, making the cookie valid for subdomains
	path      string
	secure    bool
	httpOnly  bool
	expires   time.Time
	name      string
	value     string
}

// cookieJar is the per transfer cookie engine. It collects every Set-Cookie seen along a redirect chain
// and replays matching cookies on the following hops. It is never shared across transfers
type cookieJar struct {
	cookies []jarCookie
}

// capture records the cookies set by the response. host is the host the response came from
func (j *cookieJar) capture(h *fasthttp.ResponseHeader, host string) {
	host = stripPort(host)
	h.VisitAllCookie(func(key, value []byte) {
		c := fasthttp.AcquireCookie()
		defer fasthttp.ReleaseCookie(c)
		if err := c.ParseBytes(value); err != nil {
			return
		}

		jc := jarCookie{
			domain:   strings.TrimPrefix(strings.ToLower(string(c.Domain())), "."),
			path:     string(c.Path()),
			secure:   c.Secure(),
			httpOnly: c.HTTPOnly(),
			name:     string(c.Key()),
			value:    string(c.Value()),
		}
		if jc.domain == "" {
			jc.domain = host
		} else {
			jc.tailMatch = true
		}
		if jc.path == "" {
			jc.path = "/"
		}
		if exp := c.Expire(); !exp.Equal(fasthttp.CookieExpireUnlimited) {
			jc.expires = exp
		}
		if c.MaxAge() > 0 {
			jc.expires = time.Now().Add(time.Duration(c.MaxAge()) * time.Second)
		}
		j.set(jc)
	})
}

func (j *cookieJar) set(c jarCookie) {
	for i, v := range j.cookies {
		if v.name == c.name && v.domain == c.domain && v.path == c.path {
			j.cookies[i] = c
			return
		}
	}
	j.cookies = append(j.cookies, c)
}

// apply merges the cookies valid for uri into the Cookie header, on top of base, the cookies the caller sent.
// A received cookie replaces a caller cookie of the same name
func (j *cookieJar) apply(rh *requestHeaders, uri *fasthttp.URI, base string) {
	var (
		host   = stripPort(strings.ToLower(string(uri.Host())))
		path   = string(uri.Path())
		secure = string(uri.Scheme()) == "https"
		now    = time.Now()
		pairs  = splitCookiePairs(base)
	)
	for _, c := range j.cookies {
		if !c.expires.IsZero() && c.expires.Before(now) {
			continue
		}
		if c.secure && !secure {
			continue
		}
		if !domainMatch(host, c.domain, c.tailMatch) || !strings.HasPrefix(path, c.path) {
			continue
		}
		pairs = setCookiePair(pairs, c.name, c.value)
	}
	if len(pairs) > 0 {
		rh.set(fasthttp.HeaderCookie, strings.Join(pairs, "; "))
	}
}

func splitCookiePairs(v string) []string {
	var pairs []string
	for _, p := range strings.Split(v, ";") {
		if p = strings.TrimSpace(p); p != "" {
			pairs = append(pairs, p)
		}
	}
	return pairs
}

func setCookiePair(pairs []string, name, value string) []string {
	for i, p := range pairs {
		if k := strings.SplitN(p, "=", 2)[0]; strings.TrimSpace(k) == name {
			pairs[i] = name + "=" + value
			return pairs
		}
	}
	return append(pairs, name+"="+value)
}

// lines returns the cookies in the Netscape cookie-file format, one cookie per line
//
//	domain  tailmatch  path  secure  expires  name  value
func (j *cookieJar) lines() []string {
	if len(j.cookies) == 0 {
		return nil
	}
	ret := make([]string, 0, len(j.cookies))
	for _, c := range j.cookies {
		var b strings.Builder
		if c.httpOnly {
			b.WriteString("#HttpOnly_")
		}
		if c.tailMatch {
			b.WriteByte('.')
		}
		b.WriteString(c.domain)
		b.WriteByte('\t')
		b.WriteString(strings.ToUpper(strconv.FormatBool(c.tailMatch)))
		b.WriteByte('\t')
		b.WriteString(c.path)
		b.WriteByte('\t')
		b.WriteString(strings.ToUpper(strconv.FormatBool(c.secure)))
		b.WriteByte('\t')
		if c.expires.IsZero() {
			b.WriteByte('0')
		} else {
			b.WriteString(strconv.FormatInt(c.expires.Unix(), 10))
		}
		b.WriteByte('\t')
		b.WriteString(c.name)
		b.WriteByte('\t')
		b.WriteString(c.value)
		ret = append(ret, b.String())
	}
	return ret
}

func domainMatch(host, domain string, tailMatch bool) bool {
	if host == domain {
		return true
	}
	return tailMatch && strings.HasSuffix(host, "."+domain)
}

func stripPort(host string) string {
	if strings.HasPrefix(host, "[") {
		if i := strings.IndexByte(host, ']'); i > 0 {
			return host[1:i]
		}
		return host
	}
	if i := strings.LastIndexByte(host, ':'); i > 0 {
		return host[:i]
	}
	return host
}
