package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"lodgeworks/staysync/internal/common"
	"lodgeworks/staysync/internal/config"
	"lodgeworks/staysync/internal/constants"
	"lodgeworks/staysync/internal/logging"
	"lodgeworks/staysync/internal/models/dtos"

	"golang.org/x/time/rate"
)

const propertiesCacheKey = "beds24:properties"

// Beds24Provider is the read-only client for the Beds24 v2 REST API. Every
// call either returns a well-formed (possibly empty) result or fails with a
// ProviderError; an unsuccessful envelope is treated as an empty page, not a
// hard failure.
type Beds24Provider struct {
	BaseURL      string
	APIToken     string
	Organization string
	Client       *http.Client

	limiter *rate.Limiter
	cache   common.CacheInterface
}

// NewBeds24Provider creates a new Beds24 API client
func NewBeds24Provider(cfg *config.Config, cache common.CacheInterface) *Beds24Provider {
	if cfg.APIToken == "" {
		logging.Warn("BEDS24_API_KEY is not set. API calls will likely fail.")
	}
	return &Beds24Provider{
		BaseURL:      cfg.APIURL,
		APIToken:     cfg.APIToken,
		Organization: cfg.Organization,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
		// Beds24 allows a handful of requests per second per token.
		limiter: rate.NewLimiter(rate.Limit(2), 5),
		cache:   cache,
	}
}

// ListProperties fetches the full property catalog, including nested rooms.
// Results are cached briefly so back-to-back triggers do not burn the rate
// budget.
func (p *Beds24Provider) ListProperties(ctx context.Context) ([]dtos.Beds24Property, error) {
	if p.cache != nil {
		if cached, found := p.cache.Get(propertiesCacheKey); found {
			if properties, ok := cached.([]dtos.Beds24Property); ok {
				return properties, nil
			}
		}
	}

	query := url.Values{}
	query.Set("includeAllRooms", "true")

	body, err := p.get(ctx, p.BaseURL+"/properties", query)
	if err != nil {
		return nil, err
	}

	var resp dtos.Beds24ListResponse[dtos.Beds24Property]
	if err := json.Unmarshal(body, &resp); err != nil {
		logging.Warn("Malformed properties response, treating as empty", "error", err.Error())
		return []dtos.Beds24Property{}, nil
	}
	if !resp.Success {
		logging.Warn("Properties call returned unsuccessful response")
		return []dtos.Beds24Property{}, nil
	}

	if p.cache != nil {
		p.cache.Set(propertiesCacheKey, resp.Data, 5*time.Minute)
	}
	return resp.Data, nil
}

// ListBookings fetches one page of bookings matching the query.
func (p *Beds24Provider) ListBookings(ctx context.Context, q dtos.BookingsQuery) (*dtos.BookingsResult, error) {
	values := url.Values{}
	for _, id := range q.PropertyID {
		values.Add("propertyId", strconv.FormatInt(id, 10))
	}
	if q.ArrivalFrom != "" {
		values.Set("arrivalFrom", q.ArrivalFrom)
	}
	if q.DepartureTo != "" {
		values.Set("departureTo", q.DepartureTo)
	}
	if q.ModifiedFrom != "" {
		values.Set("modifiedFrom", q.ModifiedFrom)
	}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		values.Set("pageSize", strconv.Itoa(q.PageSize))
	}

	body, err := p.get(ctx, p.BaseURL+"/bookings", values)
	if err != nil {
		return nil, err
	}
	return p.parseBookings(body)
}

// ListBookingsForProperty fetches one full-sync page for a single property.
func (p *Beds24Provider) ListBookingsForProperty(ctx context.Context, propertyID string, fromDate, toDate string, page, pageSize int) (*dtos.BookingsResult, error) {
	propID, err := strconv.ParseInt(propertyID, 10, 64)
	if err != nil {
		return nil, &ProviderError{
			Code:    constants.ErrCodeBadRequest,
			Message: fmt.Sprintf("invalid property id %q", propertyID),
			Err:     err,
		}
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = constants.DefaultPageSize
	}
	return p.ListBookings(ctx, dtos.BookingsQuery{
		PropertyID:  []int64{propID},
		ArrivalFrom: fromDate,
		DepartureTo: toDate,
		Page:        page,
		PageSize:    pageSize,
	})
}

// ListRecentBookings fetches all bookings of one property modified since the
// given timestamp. The remote returns a bounded window, so this is a single
// call with no continuation.
func (p *Beds24Provider) ListRecentBookings(ctx context.Context, propertyID string, modifiedFrom string) ([]dtos.Beds24Booking, error) {
	propID, err := strconv.ParseInt(propertyID, 10, 64)
	if err != nil {
		return nil, &ProviderError{
			Code:    constants.ErrCodeBadRequest,
			Message: fmt.Sprintf("invalid property id %q", propertyID),
			Err:     err,
		}
	}
	result, err := p.ListBookings(ctx, dtos.BookingsQuery{
		PropertyID:   []int64{propID},
		ModifiedFrom: modifiedFrom,
	})
	if err != nil {
		return nil, err
	}
	return result.Bookings, nil
}

// ListBookingsByPageLink follows an opaque continuation link returned by a
// previous page.
func (p *Beds24Provider) ListBookingsByPageLink(ctx context.Context, pageLink string) (*dtos.BookingsResult, error) {
	body, err := p.get(ctx, pageLink, nil)
	if err != nil {
		return nil, err
	}
	return p.parseBookings(body)
}

func (p *Beds24Provider) parseBookings(body []byte) (*dtos.BookingsResult, error) {
	var resp dtos.Beds24ListResponse[dtos.Beds24Booking]
	if err := json.Unmarshal(body, &resp); err != nil {
		logging.Warn("Malformed bookings response, treating as empty page", "error", err.Error())
		return &dtos.BookingsResult{Bookings: []dtos.Beds24Booking{}}, nil
	}
	if !resp.Success {
		logging.Warn("Bookings call returned unsuccessful response")
		return &dtos.BookingsResult{Bookings: []dtos.Beds24Booking{}}, nil
	}

	result := &dtos.BookingsResult{
		Bookings:   resp.Data,
		TotalCount: resp.Count,
	}
	if resp.Pages != nil {
		result.HasNextPage = resp.Pages.NextPageExists
		result.NextPageLink = resp.Pages.NextPageLink
	}
	return result, nil
}

func (p *Beds24Provider) get(ctx context.Context, rawURL string, query url.Values) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: constants.GetErrorMessage(constants.ErrCodeNetworkError),
			Err:     err,
		}
	}

	if len(query) > 0 {
		rawURL = rawURL + "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("token", p.APIToken)
	if p.Organization != "" {
		req.Header.Set("organisation", p.Organization)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: constants.GetErrorMessage(constants.ErrCodeNetworkError),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	if err := p.handleHTTPError(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: constants.GetErrorMessage(constants.ErrCodeNetworkError),
			Err:     err,
		}
	}
	return body, nil
}

// handleHTTPError converts HTTP status codes to ProviderError
func (p *Beds24Provider) handleHTTPError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &ProviderError{
			Code:    constants.ErrCodeInvalidToken,
			Message: constants.GetErrorMessage(constants.ErrCodeInvalidToken),
			Details: string(body),
		}
	case resp.StatusCode == http.StatusTooManyRequests:
		return &ProviderError{
			Code:    constants.ErrCodeRateLimited,
			Message: constants.GetErrorMessage(constants.ErrCodeRateLimited),
			Details: string(body),
		}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &ProviderError{
			Code:    constants.ErrCodeRemoteRejected,
			Message: constants.GetErrorMessage(constants.ErrCodeRemoteRejected),
			Details: string(body),
		}
	default:
		return &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body)),
			Details: string(body),
		}
	}
}

// ProviderError represents a remote API error
type ProviderError struct {
	Code    string
	Message string
	Details string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
