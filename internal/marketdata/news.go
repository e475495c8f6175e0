package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/finsight/finsight-go/internal/config"
	"github.com/finsight/finsight-go/internal/models"
	"github.com/sirupsen/logrus"
)

// NewsClient fetches recent articles for a ticker from the news provider's
// everything endpoint, newest first.
type NewsClient struct {
	HTTPClient *http.Client
	baseURL    string
	apiKey     string
	pageSize   int
	logger     *logrus.Logger
}

// NewNewsClient creates a news client from configuration.
func NewNewsClient(cfg config.NewsConfig, logger *logrus.Logger) *NewsClient {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	return &NewsClient{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		pageSize:   pageSize,
		logger:     logger,
	}
}

type newsResponse struct {
	Status   string        `json:"status"`
	Articles []newsArticle `json:"articles"`
}

type newsArticle struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"publishedAt"`
}

// GetNews fetches the most recent articles mentioning the ticker.
func (c *NewsClient) GetNews(ctx context.Context, ticker string) ([]models.NewsArticle, error) {
	query := url.Values{}
	query.Set("q", ticker)
	query.Set("apiKey", c.apiKey)
	query.Set("sortBy", "publishedAt")
	query.Set("pageSize", strconv.Itoa(c.pageSize))
	fullURL := c.baseURL + "/everything?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.WithError(err).Warn("Error closing response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("news API error (%d): %s", resp.StatusCode, string(body))
	}

	var response newsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	articles := make([]models.NewsArticle, 0, len(response.Articles))
	for _, a := range response.Articles {
		articles = append(articles, models.NewsArticle{
			Title:       a.Title,
			Description: a.Description,
			Source:      a.Source.Name,
			URL:         a.URL,
			PublishedAt: a.PublishedAt,
		})
	}
	return articles, nil
}
