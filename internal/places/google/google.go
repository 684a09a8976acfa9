package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/peebers/placebook/internal/domain"
	"github.com/peebers/placebook/internal/places"
)

const defaultBaseURL = "https://places.googleapis.com"

// maxPhotoBytes bounds the photo body read into memory.
const maxPhotoBytes = 20 << 20

var fieldMask = map[places.Field]string{
	places.FieldID:       "id",
	places.FieldName:     "displayName",
	places.FieldPhone:    "nationalPhoneNumber",
	places.FieldPhotos:   "photos",
	places.FieldAddress:  "formattedAddress",
	places.FieldLocation: "location",
}

// placeResponse mirrors the Places API (New) place resource.
type placeResponse struct {
	ID          string `json:"id"`
	DisplayName struct {
		Text string `json:"text"`
	} `json:"displayName"`
	NationalPhoneNumber string `json:"nationalPhoneNumber"`
	FormattedAddress    string `json:"formattedAddress"`
	Location            struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
	Photos []struct {
		Name     string `json:"name"`
		WidthPx  int    `json:"widthPx"`
		HeightPx int    `json:"heightPx"`
	} `json:"photos"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

type Client struct {
	apiKey        string
	client        *http.Client
	baseURL       string
	maxPhotoBytes int64
}

func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:        apiKey,
		client:        &http.Client{Timeout: 15 * time.Second},
		baseURL:       strings.TrimRight(baseURL, "/"),
		maxPhotoBytes: maxPhotoBytes,
	}
}

func (c *Client) newRequest(ctx context.Context, u string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	return req, nil
}

func (c *Client) FetchPlace(ctx context.Context, ref string, fields []places.Field) (*domain.PlaceDetails, error) {
	if ref == "" {
		return nil, &places.APIError{StatusCode: http.StatusBadRequest, Message: "empty place reference"}
	}

	req, err := c.newRequest(ctx, c.baseURL+"/v1/places/"+url.PathEscape(ref))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Goog-FieldMask", buildFieldMask(fields))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call places: %w", err)
	}
	defer closeBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	var body placeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	details := &domain.PlaceDetails{
		ID:      body.ID,
		Name:    body.DisplayName.Text,
		Phone:   body.NationalPhoneNumber,
		Address: body.FormattedAddress,
		Location: domain.LatLng{
			Lat: body.Location.Latitude,
			Lng: body.Location.Longitude,
		},
	}
	for _, p := range body.Photos {
		details.Photos = append(details.Photos, domain.PhotoRef{Name: p.Name, WidthPx: p.WidthPx, HeightPx: p.HeightPx})
	}
	return details, nil
}

func (c *Client) FetchPhoto(ctx context.Context, pr places.PhotoRequest) ([]byte, string, error) {
	if pr.Ref.Name == "" {
		return nil, "", errors.New("empty photo reference")
	}

	q := url.Values{}
	if pr.MaxWidth > 0 {
		q.Set("maxWidthPx", strconv.Itoa(pr.MaxWidth))
	}
	if pr.MaxHeight > 0 {
		q.Set("maxHeightPx", strconv.Itoa(pr.MaxHeight))
	}
	u := c.baseURL + "/v1/" + strings.TrimPrefix(pr.Ref.Name, "/") + "/media"
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := c.newRequest(ctx, u)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to call places: %w", err)
	}
	defer closeBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, "", decodeAPIError(resp)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxPhotoBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read photo: %w", err)
	}
	if int64(len(data)) > c.maxPhotoBytes {
		return nil, "", fmt.Errorf("photo body exceeds %d bytes", c.maxPhotoBytes)
	}
	if len(data) == 0 {
		return nil, "", errors.New("empty photo body")
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func buildFieldMask(fields []places.Field) string {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		if name, ok := fieldMask[f]; ok {
			names = append(names, name)
		}
	}
	return strings.Join(names, ",")
}

func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &places.APIError{StatusCode: resp.StatusCode}

	var body errorResponse
	if err := json.Unmarshal(raw, &body); err == nil && body.Error.Message != "" {
		apiErr.Message = body.Error.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return apiErr
}

func closeBody(body io.Closer) {
	if err := body.Close(); err != nil {
		slog.Error("failed to close places response body", "error", err)
	}
}
