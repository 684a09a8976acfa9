package domain

import "time"

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PhotoRef identifies a photo held by the place directory.
type PhotoRef struct {
	Name     string `json:"name"`
	WidthPx  int    `json:"width_px,omitempty"`
	HeightPx int    `json:"height_px,omitempty"`
}

// PlaceDetails is the directory's answer for a single POI. Phone and Address
// are empty when the directory has no value for them.
type PlaceDetails struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Phone    string     `json:"phone,omitempty"`
	Address  string     `json:"address,omitempty"`
	Location LatLng     `json:"location"`
	Photos   []PhotoRef `json:"photos,omitempty"`
}

// FirstPhoto returns the first photo reference, or nil if the place has none.
func (p *PlaceDetails) FirstPhoto() *PhotoRef {
	if p == nil || len(p.Photos) == 0 {
		return nil
	}
	return &p.Photos[0]
}

type PhotoAsset struct {
	Data     []byte
	MimeType string
	Width    int
	Height   int
}

// Annotation is what a marker carries once its place has been resolved.
// Place is never nil; Photo is nil when no image could be obtained.
type Annotation struct {
	Place *PlaceDetails
	Photo *PhotoAsset
}

type Bookmark struct {
	ID        int64
	PlaceID   string
	Name      string
	Address   string
	Phone     string
	Location  LatLng
	Photo     []byte
	PhotoKey  string
	Icon      string
	Notes     string
	CreatedAt time.Time
}

// HasID reports whether the bookmark has been persisted.
func (b *Bookmark) HasID() bool {
	return b.ID != 0
}
