package wallapop

import (
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"wallapop-scanner/config"
	"wallapop-scanner/models"
	"wallapop-scanner/utils"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// searchResponse mirrors the nested envelope of the Wallapop search API.
// A missing path anywhere along it decodes to the zero value, which the
// fetcher treats as an empty page.
type searchResponse struct {
	Data struct {
		Section struct {
			Payload struct {
				Items []*models.Listing `json:"items"`
			} `json:"payload"`
		} `json:"section"`
	} `json:"data"`
}

// Scraper retrieves successive result pages from the Wallapop search
// endpoint. It is deliberately forgiving: a failed page ends pagination
// with whatever was gathered so far, and there are no retries.
type Scraper struct {
	cfg    *config.Config
	logger *utils.Logger
	client *resty.Client
}

// New creates a ready-to-use Wallapop Scraper.
func New(cfg *config.Config, logger *utils.Logger) *Scraper {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetHeader("User-Agent", userAgent).
		SetHeader("X-DeviceOS", "0").
		SetHeader("Accept", "*/*")

	return &Scraper{cfg: cfg, logger: logger, client: client}
}

// FetchAll pages through the search results until a page comes back empty,
// a page fails, or the configured page cap is reached. A fixed delay
// between pages respects the remote service's implicit rate limits.
func (s *Scraper) FetchAll() ([]*models.Listing, error) {
	var all []*models.Listing

	s.logger.Info("[wallapop] Fetching up to %d pages for %q", s.cfg.MaxPages, s.cfg.SearchKeywords)

	for page := 0; page < s.cfg.MaxPages; page++ {
		items, err := s.fetchPage(page)
		if err != nil {
			s.logger.Warn("[wallapop] Page %d failed: %v — keeping %d listings fetched so far",
				page, err, len(all))
			break
		}
		if len(items) == 0 {
			s.logger.Debug("[wallapop] Page %d empty — no more results", page)
			break
		}

		all = append(all, items...)
		s.logger.Debug("[wallapop] Page %d — %d listings (%d total)", page, len(items), len(all))

		if page < s.cfg.MaxPages-1 {
			time.Sleep(time.Duration(s.cfg.RateLimitMs) * time.Millisecond)
		}
	}

	s.logger.Info("[wallapop] Fetch complete — %d raw listings", len(all))
	return all, nil
}

// fetchPage requests a single result page at offset page × page size.
func (s *Scraper) fetchPage(page int) ([]*models.Listing, error) {
	resp, err := s.client.R().
		SetQueryParams(map[string]string{
			"keywords":    s.cfg.SearchKeywords,
			"order_by":    "newest",
			"time_filter": "today",
			"latitude":    s.cfg.Latitude,
			"longitude":   s.cfg.Longitude,
			"source":      "search_box",
			"start":       strconv.Itoa(page * s.cfg.PageSize),
		}).
		SetResult(&searchResponse{}).
		ForceContentType("application/json").
		Get(s.cfg.SearchURL)
	if err != nil {
		return nil, fmt.Errorf("wallapop: page %d request: %w", page, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("wallapop: page %d returned HTTP %d", page, resp.StatusCode())
	}

	result, ok := resp.Result().(*searchResponse)
	if !ok || result == nil {
		return nil, fmt.Errorf("wallapop: page %d returned unexpected body", page)
	}

	return result.Data.Section.Payload.Items, nil
}
