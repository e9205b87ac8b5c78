package sink

import (
	"database/sql"
	"strings"
	"time"

	"sjsage522/weibosearch/internal/weibo"
)

// columns of the relational sinks, in table order
var columns = []string{
	"id", "bid", "user_id", "screen_name", "text", "article_url", "topics", "at_users",
	"pics", "video_url", "location", "created_at", "source", "attitudes_count",
	"comments_count", "reposts_count", "retweet_id", "ip", "user_authentication",
	"vip_type", "vip_level", "keyword",
}

// row is the flat relational form of a record
type row struct {
	ID                 string         `db:"id"`
	BID                string         `db:"bid"`
	UserID             string         `db:"user_id"`
	ScreenName         string         `db:"screen_name"`
	Text               string         `db:"text"`
	ArticleURL         string         `db:"article_url"`
	Topics             string         `db:"topics"`
	AtUsers            string         `db:"at_users"`
	Pics               string         `db:"pics"`
	VideoURL           string         `db:"video_url"`
	Location           string         `db:"location"`
	CreatedAt          sql.NullString `db:"created_at"`
	Source             string         `db:"source"`
	AttitudesCount     int64          `db:"attitudes_count"`
	CommentsCount      int64          `db:"comments_count"`
	RepostsCount       int64          `db:"reposts_count"`
	RetweetID          string         `db:"retweet_id"`
	IP                 string         `db:"ip"`
	UserAuthentication string         `db:"user_authentication"`
	VIPType            string         `db:"vip_type"`
	VIPLevel           int            `db:"vip_level"`
	Keyword            string         `db:"keyword"`
}

func newRow(rec Record) row {
	p := rec.Post
	r := row{
		ID:                 p.ID,
		BID:                p.BID,
		UserID:             p.UserID,
		ScreenName:         p.ScreenName,
		Text:               p.Text,
		ArticleURL:         p.ArticleURL,
		Topics:             strings.Join(p.Topics, ","),
		AtUsers:            strings.Join(p.AtUsers, ","),
		Pics:               strings.Join(p.Pics, ","),
		VideoURL:           p.VideoURL,
		Location:           p.Location,
		Source:             p.Source,
		AttitudesCount:     p.AttitudesCount,
		CommentsCount:      p.CommentsCount,
		RepostsCount:       p.RepostsCount,
		RetweetID:          p.RetweetID,
		IP:                 p.IP,
		UserAuthentication: p.UserAuthentication,
		VIPType:            p.VIPType,
		VIPLevel:           p.VIPLevel,
		Keyword:            rec.Keyword,
	}
	// unparsable display times are stored as NULL
	if _, err := time.Parse(weibo.CreatedAtLayout, p.CreatedAt); err == nil {
		r.CreatedAt = sql.NullString{String: p.CreatedAt, Valid: true}
	}
	return r
}

// namedValues renders ":col, :col, ..." for sqlx named statements
func namedValues() string {
	named := make([]string, len(columns))
	for i, c := range columns {
		named[i] = ":" + c
	}
	return strings.Join(named, ", ")
}
