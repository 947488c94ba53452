package polygon

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"market-screener/src/helpers"
	"market-screener/src/interfaces"
	"market-screener/src/logger"
	"market-screener/src/models"
)

const (
	// Aggregates responses cap at 50000 results. A minute-bar day is at
	// most 960 extended-hours bars, so 50 days per request stays under it.
	aggsLimit          = 50000
	minuteDaysPerChunk = 50
)

// -----------------------------------------------------------------------------

// Provider fetches OHLCV aggregates from the Polygon REST API.
type Provider struct {
	Config  *models.MConfig
	Logger  *logger.Logger
	Network interfaces.INetworkManager
}

func NewProvider(config *models.MConfig, log *logger.Logger, network interfaces.INetworkManager) *Provider {
	return &Provider{Config: config, Logger: log, Network: network}
}

func (p *Provider) Name() string {
	return "polygon"
}

// -----------------------------------------------------------------------------
// Wire types
// -----------------------------------------------------------------------------

// FlexibleInt64 decodes JSON numbers that arrive as integers, floats
// (scientific notation included) or quoted strings. Polygon emits trade
// counts in all three shapes.
type FlexibleInt64 int64

func (f *FlexibleInt64) UnmarshalJSON(data []byte) error {
	var asInt int64
	if err := json.Unmarshal(data, &asInt); err == nil {
		*f = FlexibleInt64(asInt)
		return nil
	}
	var asFloat float64
	if err := json.Unmarshal(data, &asFloat); err == nil {
		*f = FlexibleInt64(int64(asFloat))
		return nil
	}
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		parsed, err := strconv.ParseFloat(asString, 64)
		if err != nil {
			return fmt.Errorf("parsing %q as number: %w", asString, err)
		}
		*f = FlexibleInt64(int64(parsed))
		return nil
	}
	return fmt.Errorf("cannot decode %s as int64", string(data))
}

type aggregateBar struct {
	Timestamp int64         `json:"t"` // epoch millis
	Open      float64       `json:"o"`
	High      float64       `json:"h"`
	Low       float64       `json:"l"`
	Close     float64       `json:"c"`
	Volume    float64       `json:"v"`
	Trades    FlexibleInt64 `json:"n"`
}

func (b aggregateBar) toBar() models.MBar {
	return models.MBar{
		Timestamp: time.UnixMilli(b.Timestamp).UTC(),
		Open:      b.Open,
		High:      b.High,
		Low:       b.Low,
		Close:     b.Close,
		Volume:    b.Volume,
		Trades:    int64(b.Trades),
	}
}

type aggregatesResponse struct {
	Ticker       string         `json:"ticker"`
	Status       string         `json:"status"`
	ResultsCount int            `json:"resultsCount"`
	Results      []aggregateBar `json:"results"`
}

// -----------------------------------------------------------------------------
// Fetching
// -----------------------------------------------------------------------------

// FetchBars pulls aggregates for one symbol over [from, to]. Minute ranges
// are split into chunks that fit under the response cap; day ranges go out
// as a single request.
func (p *Provider) FetchBars(ctx context.Context, symbol string, from, to time.Time, granularity models.Granularity) ([]models.MBar, error) {
	timespan, chunkDays, err := timespanFor(granularity)
	if err != nil {
		return nil, err
	}

	var bars []models.MBar
	for _, w := range splitRange(from.UTC(), to.UTC(), chunkDays) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunk, err := p.fetchChunk(ctx, symbol, w.from, w.to, timespan)
		if err != nil {
			return nil, helpers.NewProviderError(
				fmt.Sprintf("fetching %s %s aggregates", symbol, timespan), err)
		}
		bars = append(bars, chunk...)
	}
	return bars, nil
}

func timespanFor(granularity models.Granularity) (timespan string, chunkDays int, err error) {
	switch granularity {
	case models.GranularityMinute:
		return "minute", minuteDaysPerChunk, nil
	case models.GranularityDay:
		return "day", 0, nil
	default:
		return "", 0, helpers.NewConfigurationError(
			fmt.Sprintf("unsupported granularity %q", granularity), nil)
	}
}

type fetchWindow struct {
	from, to time.Time
}

// splitRange cuts [from, to] into windows of at most maxDays each;
// maxDays <= 0 means one window. Successive windows never overlap, so no
// bar is requested twice.
func splitRange(from, to time.Time, maxDays int) []fetchWindow {
	if maxDays <= 0 || !from.AddDate(0, 0, maxDays).Before(to) {
		return []fetchWindow{{from, to}}
	}
	var out []fetchWindow
	start := from
	for start.Before(to) {
		end := start.AddDate(0, 0, maxDays)
		if end.After(to) {
			end = to
		}
		out = append(out, fetchWindow{start, end})
		start = end.Add(time.Millisecond)
	}
	return out
}

func (p *Provider) fetchChunk(ctx context.Context, symbol string, from, to time.Time, timespan string) ([]models.MBar, error) {
	url := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/1/%s/%d/%d",
		p.Config.Provider.BaseURL, symbol, timespan, from.UnixMilli(), to.UnixMilli())
	params := map[string]string{
		"adjusted": "true",
		"sort":     "asc",
		"limit":    strconv.Itoa(aggsLimit),
		"apiKey":   p.Config.Provider.APIKey,
	}

	body, err := p.Network.Get(ctx, url, params)
	if err != nil {
		return nil, err
	}

	var resp aggregatesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing aggregates response: %w", err)
	}

	switch resp.Status {
	case "OK":
	case "DELAYED":
		// Free-tier answers for the most recent window come back DELAYED;
		// skip the chunk and let the next cycle pick the window up again.
		p.Logger.Debug("Aggregates %s %s window delayed, skipping chunk", symbol, timespan)
		return nil, nil
	default:
		return nil, fmt.Errorf("aggregates status %q for %s", resp.Status, symbol)
	}

	if len(resp.Results) >= aggsLimit {
		p.Logger.Warning("Aggregates %s %s hit the %d result cap, window may be truncated",
			symbol, timespan, aggsLimit)
	}

	bars := make([]models.MBar, 0, len(resp.Results))
	for _, r := range resp.Results {
		bars = append(bars, r.toBar())
	}
	return bars, nil
}
