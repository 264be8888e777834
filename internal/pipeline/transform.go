package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/eruvierda/weather-map-leaflet/internal/domain"
	"github.com/eruvierda/weather-map-leaflet/internal/extract"
)

const (
	errNoHTMLData  = "no weather data found in HTML"
	errInvalidJSON = "invalid JSON response"
)

// processArea fetches one area and converts the response into its result.
// It always returns a result; failures are recorded in Status and Error.
func (p *Pipeline) processArea(ctx context.Context, area domain.Area) domain.AreaResult {
	result := domain.AreaResult{
		AreaName: area.Name,
		Slug:     area.Slug,
		URL:      area.URL,
		Kind:     area.Kind,
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return p.finish(result, domain.StatusError, err.Error())
	}

	page, err := p.fetcher.Fetch(ctx, area.URL)
	if err != nil {
		p.metrics.FetchErrors.Inc()
		p.logger.Warn("fetch failed", "area", area.Name, "url", area.URL, "error", err)
		return p.finish(result, domain.StatusError, err.Error())
	}
	page.AreaName = area.Name

	if page.StatusCode != http.StatusOK {
		p.metrics.FetchErrors.Inc()
		p.logger.Warn("unexpected status", "area", area.Name, "status", page.StatusCode)
		return p.finish(result, domain.StatusFailed, fmt.Sprintf("HTTP %d", page.StatusCode))
	}
	p.metrics.PagesFetched.Inc()

	if isHTML(page) {
		return p.transformHTML(result, page)
	}
	return p.transformJSON(result, page)
}

// transformHTML runs the extraction engine over an HTML page.
func (p *Pipeline) transformHTML(result domain.AreaResult, page domain.Page) domain.AreaResult {
	res, err := p.extractor.Assemble(page)
	if err != nil {
		if errors.Is(err, extract.ErrEmptyInput) {
			p.logger.Warn("empty page", "area", page.AreaName)
		} else {
			p.logger.Error("extraction failed", "area", page.AreaName, "error", err)
		}
		return p.finish(result, domain.StatusError, err.Error())
	}

	for _, r := range res.Resolutions {
		if !r.Resolved {
			continue
		}
		p.metrics.FieldResolutions.WithLabelValues(string(r.Field), r.Strategy.String()).Inc()
	}

	if res.Status != extract.StatusExtracted {
		p.logger.Info("no weather data in page", "area", page.AreaName)
		return p.finish(result, domain.StatusNoData, errNoHTMLData)
	}

	result.WeatherData = res.Observation
	p.logger.Debug("observation extracted",
		"area", page.AreaName,
		"fields", res.Observation.PopulatedFields(),
	)
	return p.finish(result, domain.StatusSuccess, "")
}

// transformJSON passes a JSON document through untouched.
func (p *Pipeline) transformJSON(result domain.AreaResult, page domain.Page) domain.AreaResult {
	if !json.Valid(page.Body) {
		p.logger.Warn("invalid JSON response", "area", page.AreaName, "content_type", page.ContentType)
		return p.finish(result, domain.StatusFailed, errInvalidJSON)
	}
	result.RawData = json.RawMessage(page.Body)
	return p.finish(result, domain.StatusSuccess, "")
}

func (p *Pipeline) finish(result domain.AreaResult, status domain.Status, msg string) domain.AreaResult {
	result.Status = status
	result.Error = msg
	result.Timestamp = domain.Now()
	p.metrics.Outcomes.WithLabelValues(string(status)).Inc()
	return result
}

// isHTML routes by the declared content type, sniffing the body when none is set.
func isHTML(page domain.Page) bool {
	ct := page.ContentType
	if strings.TrimSpace(ct) == "" {
		ct = http.DetectContentType(page.Body)
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.Contains(strings.ToLower(ct), "text/html")
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}
