package weibo

// Post is one extracted search result
type Post struct {
	ID                 string   `json:"id" bson:"id"`
	BID                string   `json:"bid" bson:"bid"`
	UserID             string   `json:"user_id" bson:"user_id"`
	ScreenName         string   `json:"screen_name" bson:"screen_name"`
	Text               string   `json:"text" bson:"text"`
	ArticleURL         string   `json:"article_url,omitempty" bson:"article_url"`
	Location           string   `json:"location,omitempty" bson:"location"`
	AtUsers            []string `json:"at_users,omitempty" bson:"at_users"`
	Topics             []string `json:"topics,omitempty" bson:"topics"`
	RepostsCount       int64    `json:"reposts_count" bson:"reposts_count"`
	CommentsCount      int64    `json:"comments_count" bson:"comments_count"`
	AttitudesCount     int64    `json:"attitudes_count" bson:"attitudes_count"`
	CreatedAt          string   `json:"created_at" bson:"created_at"`
	Source             string   `json:"source,omitempty" bson:"source"`
	Pics               []string `json:"pics,omitempty" bson:"pics"`
	VideoURL           string   `json:"video_url,omitempty" bson:"video_url"`
	RetweetID          string   `json:"retweet_id,omitempty" bson:"retweet_id"`
	IP                 string   `json:"ip,omitempty" bson:"ip"`
	UserAuthentication string   `json:"user_authentication,omitempty" bson:"user_authentication"`
	VIPType            string   `json:"vip_type" bson:"vip_type"`
	VIPLevel           int      `json:"vip_level" bson:"vip_level"`
}

// IsRetweet reports whether the post reposts another post
func (p Post) IsRetweet() bool {
	return p.RetweetID != ""
}

// Page is the parsed content of one search result page
type Page struct {
	Posts     []Post
	Empty     bool
	PageCount int
	NextURL   string
}
