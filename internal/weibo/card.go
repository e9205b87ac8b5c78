package weibo

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/weibosearch/helpers"
	"sjsage522/weibosearch/pkg/errors"
)

var authentications = map[string]string{
	"woo_svg_vblue":   "蓝V",
	"woo_svg_vyellow": "黄V",
	"woo_svg_vorange": "红V",
	"woo_svg_vgold":   "金V",
}

// parseCard extracts one result card. A retweeting card yields the
// retweeted post first, then the card's own post.
func (p *Parser) parseCard(s *goquery.Selection, now time.Time) ([]Post, error) {
	info := s.Find(p.Selectors.Info).First()
	if info.Length() == 0 {
		// not a post card
		return nil, nil
	}

	id, _ := s.Attr("mid")
	if id == "" {
		return nil, errors.NewParsing("card", "card without mid", nil)
	}

	from := s.Find(p.Selectors.From)
	href, ok := from.First().Attr("href")
	if !ok || href == "" {
		return nil, errors.NewParsing(id, "missing card link", nil)
	}

	post := Post{
		ID:  id,
		BID: helpers.LastPathSegment(href),
	}

	userLink := info.ChildrenFiltered("div").Eq(1).Find("a").First()
	if userHref, ok := userLink.Attr("href"); ok {
		post.UserID = helpers.LastPathSegment(userHref)
	}
	post.ScreenName, _ = userLink.Attr("nick-name")
	post.VIPType, post.VIPLevel = p.vip(info)

	txt := s.Find(p.Selectors.Text).First()
	retweet := s.Find(p.Selectors.Retweet).First()
	var retweetTxt *goquery.Selection
	if retweet.Length() > 0 {
		retweetTxt = retweet.Find(p.Selectors.Text).First()
	}

	longText := s.Find(p.Selectors.LongText)
	switch {
	case longText.Length() == 0:
	case retweet.Length() == 0:
		txt = longText.First()
	case longText.Length() == 2:
		txt = longText.First()
		retweetTxt = longText.Eq(1)
	case retweet.Find(p.Selectors.LongText).Length() > 0:
		retweetTxt = retweet.Find(p.Selectors.LongText).First()
	default:
		txt = longText.First()
	}
	p.fillText(&post, txt)

	actions := s.Find(p.Selectors.Actions).First()
	if actions.Length() == 0 {
		actions = s
	}
	var err error
	if post.RepostsCount, err = countOf(actions.Find(p.Selectors.Reposts), id, "repost"); err != nil {
		return nil, err
	}
	if post.CommentsCount, err = countOf(actions.Find(p.Selectors.Comments).First(), id, "comment"); err != nil {
		return nil, err
	}
	if post.AttitudesCount, err = countOf(actions.Find(p.Selectors.Likes).First(), id, "like"); err != nil {
		return nil, err
	}

	post.CreatedAt = StandardizeDate(displayTime(from.First().Text()), now)
	post.Source = strings.TrimSpace(from.Eq(1).Text())

	if avatar := s.Find(p.Selectors.Avatar).First(); avatar.Length() > 0 {
		svgID, _ := avatar.Find("svg").First().Attr("id")
		post.UserAuthentication = authentication(svgID)
	}

	pics := p.pics(s)
	video := p.videoURL(s)

	if retweet.Length() == 0 || retweet.Find(p.Selectors.Forwarded).Find("a").Length() == 0 {
		if retweet.Length() == 0 {
			post.Pics, post.VideoURL = pics, video
		}
		return []Post{post}, nil
	}

	original, err := p.parseRetweet(retweet, retweetTxt, now)
	if err != nil {
		return nil, err
	}
	original.Pics, original.VideoURL = pics, video
	post.RetweetID = original.ID
	return []Post{original, post}, nil
}

// parseRetweet extracts the retweeted post embedded in a card
func (p *Parser) parseRetweet(s, txt *goquery.Selection, now time.Time) (Post, error) {
	actionData, _ := s.Find(`a[action-type="feed_list_like"]`).First().Attr("action-data")
	id := strings.TrimPrefix(actionData, "mid=")
	if id == "" {
		return Post{}, errors.NewParsing("retweet", "retweet without mid", nil)
	}

	from := s.Find("p.from a")
	href, ok := from.First().Attr("href")
	if !ok || href == "" {
		return Post{}, errors.NewParsing(id, "missing retweet link", nil)
	}

	forwarded := s.Find(p.Selectors.Forwarded).First()
	user := forwarded.Find("a").First()
	post := Post{
		ID:  id,
		BID: helpers.LastPathSegment(href),
	}
	if userHref, ok := user.Attr("href"); ok {
		post.UserID = helpers.LastPathSegment(userHref)
	}
	post.ScreenName, _ = user.Attr("nick-name")
	post.VIPType, post.VIPLevel = p.vip(forwarded)

	if txt != nil && txt.Length() > 0 {
		p.fillText(&post, txt)
	}

	var err error
	acts := s.Find("ul.act li")
	if post.RepostsCount, err = countOf(acts.Eq(0).Find("a").First(), id, "repost"); err != nil {
		return Post{}, err
	}
	if post.CommentsCount, err = countOf(acts.Eq(1).Find("a").First(), id, "comment"); err != nil {
		return Post{}, err
	}
	if post.AttitudesCount, err = countOf(s.Find("span.woo-like-count").First(), id, "like"); err != nil {
		return Post{}, err
	}

	post.CreatedAt = StandardizeDate(displayTime(from.First().Text()), now)
	post.Source = strings.TrimSpace(from.Eq(1).Text())
	return post, nil
}

// fillText sets the text and the fields derived from the text paragraph
func (p *Parser) fillText(post *Post, txt *goquery.Selection) {
	post.ArticleURL = articleURL(txt)
	post.Location = location(txt)
	post.AtUsers = atUsers(txt)
	post.Topics = topics(txt)

	body := txt.Clone()
	body.Find(p.Selectors.Fold).Remove()
	text := stripMarkers(body.Text())
	if post.Location != "" {
		text = strings.ReplaceAll(text, "2"+post.Location, "")
	}
	post.Text = strings.ReplaceAll(strings.TrimSpace(text), " ", "")
}

// vip reads the membership badge inside s
func (p *Parser) vip(s *goquery.Selection) (string, int) {
	container := s.Find(p.Selectors.VIPContainer)
	if container.Length() == 0 {
		return VIPNone, 0
	}
	if src, ok := container.Find(`img[src*="svvip_"]`).First().Attr("src"); ok {
		return VIPSuper, badgeLevel(svvipRegex, src)
	}
	if src, ok := container.Find(`img[src*="vip_"]`).First().Attr("src"); ok {
		return VIPMember, badgeLevel(vipRegex, src)
	}
	return VIPNone, 0
}

func authentication(svgID string) string {
	if a, ok := authentications[svgID]; ok {
		return a
	}
	return "普通用户"
}

// countOf reads a repost, comment or like counter. A missing control is a
// parsing error; a control without digits counts zero.
func countOf(control *goquery.Selection, id, name string) (int64, error) {
	if control.Length() == 0 {
		return 0, errors.NewParsing(id, fmt.Sprintf("missing %s control", name), nil)
	}
	return ParseCount(control.Text()), nil
}

// displayTime normalises the card's time link text for StandardizeDate
func displayTime(raw string) string {
	raw = strings.NewReplacer(" ", "", "\n", "", "\t", "").Replace(raw)
	before, _, _ := strings.Cut(raw, "前")
	return before
}
