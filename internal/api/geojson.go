package api

import (
	"github.com/votewatch/election-alerts/internal/models"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// toGeoJSON renders alerts that carry coordinates as map features; alerts
// without coordinates are left out.
func toGeoJSON(alerts []*models.Alert) FeatureCollection {
	features := make([]Feature, 0, len(alerts))

	for _, a := range alerts {
		if a.Location.Coordinates == nil {
			continue
		}
		f := Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{a.Location.Coordinates.Longitude, a.Location.Coordinates.Latitude},
			},
			Properties: map[string]any{
				"id":              a.ID,
				"title":           a.Title,
				"category":        a.Category,
				"severity":        a.Severity,
				"status":          a.Status,
				"parish":          a.Location.Parish,
				"polling_station": a.Location.PollingStation,
				"created_at":      a.CreatedAt,
			},
		}
		features = append(features, f)
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}
