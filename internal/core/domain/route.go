package domain

import "time"

// TravelMode selects the road profile used by the directions provider.
type TravelMode string

const (
	TravelModeWalking   TravelMode = "WALKING"
	TravelModeBicycling TravelMode = "BICYCLING"
)

// DirectionsRequest is one request to the external directions provider.
// Waypoints are ordered and must not be reordered by the provider: the
// route has to trace the drawn shape, not the shortest tour.
type DirectionsRequest struct {
	Origin      LatLng     `json:"origin"`
	Destination LatLng     `json:"destination"`
	Waypoints   []LatLng   `json:"waypoints,omitempty"`
	TravelMode  TravelMode `json:"travel_mode"`
}

// DirectionsResult is the provider's decoded answer.
type DirectionsResult struct {
	Path     []LatLng `json:"path"`
	Distance float64  `json:"distance"` // meters
	Duration float64  `json:"duration"` // seconds
}

// RouteOptions is the immutable configuration of one generation run.
type RouteOptions struct {
	TargetDistance         float64    `json:"target_distance"` // meters, [500, 100000]
	NumSegments            int        `json:"num_segments"`
	MaxWaypointsPerSegment int        `json:"max_waypoints_per_segment"`
	OptimizeDistance       bool       `json:"optimize_distance"`
	DistanceTolerance      float64    `json:"distance_tolerance"`
	MaxLoops               int        `json:"max_loops"`
	Rotation               float64    `json:"rotation"` // degrees
	GridMode               bool       `json:"grid_mode"`
	BlockSize              float64    `json:"block_size"` // meters, grid mode only
	TravelMode             TravelMode `json:"travel_mode"`
}

// MinTargetDistance and MaxTargetDistance bound a run's requested
// distance, in meters.
const (
	MinTargetDistance = 500.0
	MaxTargetDistance = 100000.0
)

// GeneratedRoute is the artifact of one completed generation run.
// A new run fully replaces it; nothing patches it incrementally.
type GeneratedRoute struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Center         LatLng     `json:"center"`
	IdealPath      []Point2D  `json:"ideal_path"`
	GeoPath        []LatLng   `json:"geo_path"`
	SnappedRoute   []LatLng   `json:"snapped_route"`
	Distance       float64    `json:"distance"`        // measured, meters
	TargetDistance float64    `json:"target_distance"` // requested, meters
	Accuracy       float64    `json:"accuracy"`        // distance/target*100
	TravelMode     TravelMode `json:"travel_mode"`
	GridMode       bool       `json:"grid_mode"`
	CreatedAt      time.Time  `json:"created_at"`
}

// RunProgress is one progress report of an in-flight generation run.
type RunProgress struct {
	RunID   string  `json:"run_id"`
	Percent float64 `json:"percent"`
	Step    string  `json:"step"`
}
