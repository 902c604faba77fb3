package sources

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Title scrapes the og:title meta tag from the watch page.
func (y *YouTube) Title(ctx context.Context, videoID string) (string, error) {
	body, err := y.getWatchPage(ctx, videoID)
	if err != nil {
		return "", err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	title := ""
	doc.Find("meta[property=og:title]").Each(func(i int, s *goquery.Selection) {
		if title == "" {
			title, _ = s.Attr("content")
		}
	})
	title = strings.TrimSpace(title)
	if title == "" {
		return "", errors.New("og:title not found")
	}
	return title, nil
}
