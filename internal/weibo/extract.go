package weibo

import (
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// Membership types
const (
	VIPNone   = "非会员"
	VIPMember = "会员"
	VIPSuper  = "超级会员"
)

var (
	countRegex = regexp.MustCompile(`\d+.*`)
	svvipRegex = regexp.MustCompile(`svvip_(\d+)\.png`)
	vipRegex   = regexp.MustCompile(`vip_(\d+)\.png`)
	videoRegex = regexp.MustCompile(`src:'(.*?)'`)

	// zero-width space and the private-use icon glyph
	markerReplacer = strings.NewReplacer("\u200b", "", "\ue627", "")
)

// ParseCount reads a counter label such as "转发 12", "1.2万" or "100万+".
// Labels without digits count zero.
func ParseCount(label string) int64 {
	m := strings.TrimSpace(countRegex.FindString(label))
	if m == "" {
		return 0
	}
	number, _, wan := strings.Cut(m, "万")
	end := 0
	for end < len(number) && (number[end] >= '0' && number[end] <= '9' || number[end] == '.') {
		end++
	}
	value, err := strconv.ParseFloat(number[:end], 64)
	if err != nil {
		return 0
	}
	if wan {
		value *= 10000
	}
	return int64(value + 0.5)
}

func badgeLevel(re *regexp.Regexp, src string) int {
	m := re.FindStringSubmatch(src)
	if m == nil {
		return 0
	}
	level, _ := strconv.Atoi(m[1])
	return level
}

func stripMarkers(s string) string {
	return markerReplacer.Replace(s)
}

// articleURL returns the headline article link of a "发布了头条文章" post
func articleURL(txt *goquery.Selection) string {
	text := strings.NewReplacer("\n", "", " ", "").Replace(stripMarkers(txt.Text()))
	if !strings.HasPrefix(text, "发布了头条文章") {
		return ""
	}
	var article string
	txt.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if a.Find("i.wbicon").Text() != "O" {
			return true
		}
		if href, _ := a.Attr("href"); strings.HasPrefix(href, "http://t.cn") {
			article = href
		}
		return false
	})
	return article
}

// location returns the place a post was published from
func location(txt *goquery.Selection) string {
	var place string
	txt.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		icon := a.ChildrenFiltered("i.wbicon")
		if icon.Length() == 0 || icon.First().Text() != "2" {
			return true
		}
		place = dropFirstRune(a.Text())
		return false
	})
	return place
}

// atUsers returns the mentioned users, links of the form //weibo.com/n/<name>
func atUsers(txt *goquery.Selection) []string {
	var users []string
	txt.Find("a").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if unescaped, err := url.PathUnescape(href); err == nil {
			href = unescaped
		}
		text := a.Text()
		if len(href) <= 14 || utf8.RuneCountInString(text) <= 1 {
			return
		}
		name := dropFirstRune(text)
		if href[14:] == name && !slices.Contains(users, name) {
			users = append(users, name)
		}
	})
	return users
}

// topics returns the #hashtag# topics linked from the text
func topics(txt *goquery.Selection) []string {
	var out []string
	txt.Find("a").Each(func(_ int, a *goquery.Selection) {
		text := a.Text()
		if utf8.RuneCountInString(text) <= 2 || !strings.HasPrefix(text, "#") || !strings.HasSuffix(text, "#") {
			return
		}
		topic := text[1 : len(text)-1]
		if !slices.Contains(out, topic) {
			out = append(out, topic)
		}
	})
	return out
}

// pics returns the large-size picture URLs of a card
func (p *Parser) pics(s *goquery.Selection) []string {
	var out []string
	s.Find(p.Selectors.PicList).First().Find("ul").First().Find("li img").Each(func(_ int, img *goquery.Selection) {
		if src, ok := img.Attr("src"); ok && src != "" {
			out = append(out, LargePicURL(src))
		}
	})
	return out
}

// LargePicURL rewrites a thumbnail URL to its large-size https form
func LargePicURL(src string) string {
	for _, prefix := range []string{"https:", "http:"} {
		src = strings.TrimPrefix(src, prefix)
	}
	src = strings.TrimPrefix(src, "//")
	host, path, ok := strings.Cut(src, "/")
	if !ok {
		return "https://" + src
	}
	if _, rest, ok := strings.Cut(path, "/"); ok {
		path = "large/" + rest
	}
	return "https://" + host + "/" + path
}

// videoURL extracts the stream URL from the card's video player,
// declared in one of its attributes as src:'...'
func (p *Parser) videoURL(s *goquery.Selection) string {
	player := s.Find(p.Selectors.Video).First()
	if player.Length() == 0 {
		return ""
	}
	candidates := []string{player.Text()}
	for _, attr := range player.Nodes[0].Attr {
		candidates = append(candidates, attr.Val)
	}
	for _, c := range candidates {
		m := videoRegex.FindStringSubmatch(c)
		if m == nil {
			continue
		}
		src := strings.ReplaceAll(m[1], "&amp;", "&")
		if strings.HasPrefix(src, "//") {
			return "http:" + src
		}
		return src
	}
	return ""
}

func dropFirstRune(s string) string {
	_, size := utf8.DecodeRuneInString(s)
	return s[size:]
}
