package provider

import (
	"time"

	"github.com/tinytelemetry/swiper/internal/model"
)

type userObject struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Username        string `json:"username"`
	ProfileImageURL string `json:"profile_image_url"`
	PublicMetrics   struct {
		FollowersCount int64 `json:"followers_count"`
		FollowingCount int64 `json:"following_count"`
		TweetCount     int64 `json:"tweet_count"`
		ListedCount    int64 `json:"listed_count"`
	} `json:"public_metrics"`
}

func (u userObject) toProfile() model.Profile {
	return model.Profile{
		ID:              u.ID,
		Name:            u.Name,
		Username:        u.Username,
		ProfileImageURL: u.ProfileImageURL,
		Metrics: model.ProfileMetrics{
			Followers: u.PublicMetrics.FollowersCount,
			Following: u.PublicMetrics.FollowingCount,
			Posts:     u.PublicMetrics.TweetCount,
			Listed:    u.PublicMetrics.ListedCount,
		},
	}
}

type tweetObject struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	CreatedAt     string `json:"created_at"`
	AuthorID      string `json:"author_id"`
	PublicMetrics *struct {
		RetweetCount    int64 `json:"retweet_count"`
		ReplyCount      int64 `json:"reply_count"`
		LikeCount       int64 `json:"like_count"`
		QuoteCount      int64 `json:"quote_count"`
		ImpressionCount int64 `json:"impression_count"`
	} `json:"public_metrics"`
	Attachments struct {
		MediaKeys []string `json:"media_keys"`
	} `json:"attachments"`
}

type mediaObject struct {
	MediaKey        string `json:"media_key"`
	Type            string `json:"type"`
	URL             string `json:"url"`
	PreviewImageURL string `json:"preview_image_url"`
}

type timelineResponse struct {
	Data     []tweetObject `json:"data"`
	Includes struct {
		Media []mediaObject `json:"media"`
	} `json:"includes"`
	Meta struct {
		ResultCount int    `json:"result_count"`
		NextToken   string `json:"next_token"`
	} `json:"meta"`
}

// toPage joins media expansions onto their posts. Posts without a parsable
// created_at are stamped with now.
func (r timelineResponse) toPage(now time.Time) model.Page {
	media := make(map[string]mediaObject, len(r.Includes.Media))
	for _, m := range r.Includes.Media {
		media[m.MediaKey] = m
	}

	items := make([]model.Item, 0, len(r.Data))
	for _, t := range r.Data {
		created, err := time.Parse(time.RFC3339, t.CreatedAt)
		if err != nil {
			created = now
		}

		post := model.Post{Text: t.Text, AuthorID: t.AuthorID}
		if pm := t.PublicMetrics; pm != nil {
			post.Metrics = model.PublicMetrics{
				Likes:       pm.LikeCount,
				Reposts:     pm.RetweetCount,
				Replies:     pm.ReplyCount,
				Quotes:      pm.QuoteCount,
				Impressions: pm.ImpressionCount,
			}
		}
		for _, key := range t.Attachments.MediaKeys {
			m, ok := media[key]
			if !ok {
				continue
			}
			post.Media = append(post.Media, model.Media{
				Key:        m.MediaKey,
				Type:       m.Type,
				URL:        m.URL,
				PreviewURL: m.PreviewImageURL,
			})
		}

		items = append(items, model.Item{ID: t.ID, CreatedAt: created, Payload: post})
	}
	return model.Page{Items: items, NextCursor: r.Meta.NextToken}
}
