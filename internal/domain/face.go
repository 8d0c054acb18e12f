package domain

// UnknownLabel is the label reported for a face that matches no registered user.
const UnknownLabel = "unknown"

// Match status messages reported to the client.
const (
	MatchStatusFound    = "Match Found!"
	MatchStatusNotFound = "No match found!"
)

// Descriptor is a face embedding produced by the detection backend.
type Descriptor []float32

// LabeledDescriptors associates a user name with the descriptors captured
// when the user was registered (one per detected face).
type LabeledDescriptors struct {
	Label       string       `json:"label"`
	Descriptors []Descriptor `json:"descriptors"`
}

// BoundingBox is the face area in the image, in pixels.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Detection is where a face was found and the detector's confidence in it.
type Detection struct {
	Box        BoundingBox `json:"box"`
	Confidence float64     `json:"confidence"`
}

// FaceMatch is the best registry match for a single detected face. Detection
// is filled in by the caller that knows where the face was drawn.
type FaceMatch struct {
	Label    string  `json:"label"`
	Distance float64 `json:"distance"`
	Detection
}

// IsUnknown reports whether the face matched no registered user.
func (m FaceMatch) IsUnknown() bool {
	return m.Label == UnknownLabel
}

// MatchResult is the outcome of checking an image against the registry.
type MatchResult struct {
	Status      string      `json:"match_found"`
	MatchedUser string      `json:"matched_user,omitempty"`
	Faces       []FaceMatch `json:"faces"`
}

// Found reports whether any detected face matched a registered user.
func (r MatchResult) Found() bool {
	return r.MatchedUser != ""
}

// AppState is a snapshot of the application state shown to clients.
type AppState struct {
	Loading      bool     `json:"loading"`
	MatchFound   string   `json:"match_found,omitempty"`
	MatchedUser  string   `json:"matched_user,omitempty"`
	Users        []string `json:"users"`
	ModelsLoaded bool     `json:"models_loaded"`
	CameraReady  bool     `json:"camera_ready"`
}

// Registration describes a successful registration. Detections lists the
// stored faces in descriptor order.
type Registration struct {
	User       string      `json:"user"`
	Faces      int         `json:"faces"`
	Detections []Detection `json:"detections"`
}
