package weibo

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"sjsage522/weibosearch/internal/planner"
)

// DefaultBaseURL is the search host
const DefaultBaseURL = "https://s.weibo.com"

var weiboTypeParams = []string{
	"&typeall=1",   // all
	"&scope=ori",   // original posts
	"&xsort=hot",   // trending
	"&atten=1",     // following
	"&vip=1",       // verified users
	"&category=4",  // media
	"&viewpoint=1", // viewpoint
}

var containTypeParams = []string{
	"&suball=1",   // all
	"&haspic=1",   // with pictures
	"&hasvideo=1", // with video
	"&hasmusic=1", // with music
	"&haslink=1",  // with a link
}

// SearchOptions holds the filters shared by every search request of a run
type SearchOptions struct {
	BaseURL     string
	WeiboType   int
	ContainType int
}

// URLBuilder returns the first-page URL builder for the planner frontier
func (o SearchOptions) URLBuilder() planner.URLBuilder {
	return o.SearchURL
}

// SearchURL renders the first results page of a slice
func (o SearchOptions) SearchURL(s planner.Slice) string {
	var b strings.Builder
	b.WriteString(o.base())
	b.WriteString("/weibo?q=")
	b.WriteString(EncodeKeyword(s.Keyword))

	if s.Region != nil {
		b.WriteString("&region=custom:")
		b.WriteString(s.Region.Code)
		b.WriteString(":")
		if s.City != nil {
			b.WriteString(s.City.Code)
		} else {
			b.WriteString("1000")
		}
	}

	b.WriteString(pick(weiboTypeParams, o.WeiboType))
	b.WriteString(pick(containTypeParams, o.ContainType))
	b.WriteString("&timescope=custom:")
	b.WriteString(timescope(s.Start))
	b.WriteString(":")
	b.WriteString(timescope(s.End))
	b.WriteString("&page=1")
	return b.String()
}

// ResolveURL turns a site-relative link into an absolute one
func (o SearchOptions) ResolveURL(href string) string {
	if href == "" || strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return o.base() + href
}

func (o SearchOptions) base() string {
	if o.BaseURL == "" {
		return DefaultBaseURL
	}
	return strings.TrimSuffix(o.BaseURL, "/")
}

// EncodeKeyword escapes a keyword for the q parameter. Hashtag keywords
// keep their text and only the surrounding '#' are escaped.
func EncodeKeyword(keyword string) string {
	if len(keyword) > 2 && strings.HasPrefix(keyword, "#") && strings.HasSuffix(keyword, "#") {
		return "%23" + keyword[1:len(keyword)-1] + "%23"
	}
	return strings.ReplaceAll(url.QueryEscape(keyword), "+", "%20")
}

// timescope formats an instant as YYYY-MM-DD-H, hour without padding.
// Slice bounds already carry the planner's zone.
func timescope(t time.Time) string {
	return t.Format("2006-01-02") + "-" + strconv.Itoa(t.Hour())
}

func pick(params []string, i int) string {
	if i < 0 || i >= len(params) {
		return params[0]
	}
	return params[i]
}
