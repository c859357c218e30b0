package application

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

// websiteCacheTTL keeps scraped company pages around long enough to not
// hammer the tenant's site on every conversation.
const websiteCacheTTL = 6 * time.Hour

const websiteMaxChars = 1200

type cachedSite struct {
	text      string
	fetchedAt time.Time
}

// WebsiteEnricher descarga la página de la empresa y extrae el texto
// visible para sumarlo al prompt. Best-effort con cache en memoria.
type WebsiteEnricher struct {
	client *http.Client

	mu    sync.Mutex
	cache map[string]cachedSite
}

func NewWebsiteEnricher() *WebsiteEnricher {
	return &WebsiteEnricher{
		client: &http.Client{Timeout: 10 * time.Second},
		cache:  make(map[string]cachedSite),
	}
}

// Fetch returns the trimmed page text, or "" when the site is unreachable
// or not configured. Never an error: the prompt works without it.
func (e *WebsiteEnricher) Fetch(ctx context.Context, url string) string {
	url = strings.TrimSpace(url)
	if url == "" {
		return ""
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}

	e.mu.Lock()
	if entry, ok := e.cache[url]; ok && time.Since(entry.fetchedAt) < websiteCacheTTL {
		e.mu.Unlock()
		return entry.text
	}
	e.mu.Unlock()

	text := e.scrape(ctx, url)

	e.mu.Lock()
	e.cache[url] = cachedSite{text: text, fetchedAt: time.Now()}
	e.mu.Unlock()
	return text
}

func (e *WebsiteEnricher) scrape(ctx context.Context, url string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ""
	}
	resp, err := e.client.Do(req)
	if err != nil {
		logrus.Debugf("[ENRICH] Website fetch failed for %s: %v", url, err)
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript, nav, footer, iframe").Remove()

	var parts []string
	doc.Find("h1, h2, h3, p, li").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if len(text) >= 3 {
			parts = append(parts, text)
		}
	})

	joined := strings.Join(parts, "\n")
	runes := []rune(joined)
	if len(runes) > websiteMaxChars {
		joined = string(runes[:websiteMaxChars])
	}
	return joined
}
