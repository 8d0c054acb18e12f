package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// UsersResponse lists registered users in registry order
type UsersResponse struct {
	Users []string `json:"users" example:"Alice,Bob"`
	Count int      `json:"count" example:"2"`
}

// RegisterUserResponse represents a successful registration
type RegisterUserResponse struct {
	User       string          `json:"user" example:"Alice"`
	Faces      int             `json:"faces" example:"1"`
	Detections []DetectionData `json:"detections"`
}

// BoxData is a face area in pixels
type BoxData struct {
	X      float64 `json:"x" example:"112"`
	Y      float64 `json:"y" example:"64"`
	Width  float64 `json:"width" example:"180"`
	Height float64 `json:"height" example:"220"`
}

// DetectionData is where a face was found
type DetectionData struct {
	Box        BoxData `json:"box"`
	Confidence float64 `json:"confidence" example:"0.98"`
}

// DeleteUserResponse reports how many entries were removed
type DeleteUserResponse struct {
	Deleted string `json:"deleted" example:"Alice"`
	Entries int    `json:"entries" example:"2"`
}

// FaceMatchData is the best match for one detected face
type FaceMatchData struct {
	Label      string  `json:"label" example:"Alice"`
	Distance   float64 `json:"distance" example:"0.42"`
	Box        BoxData `json:"box"`
	Confidence float64 `json:"confidence" example:"0.98"`
}

// MatchResponse represents the result of a match check
type MatchResponse struct {
	Status      string          `json:"match_found" example:"Match Found!"`
	MatchedUser string          `json:"matched_user,omitempty" example:"Alice"`
	Faces       []FaceMatchData `json:"faces"`
}

// StateResponse is the application state snapshot
type StateResponse struct {
	Loading      bool     `json:"loading" example:"false"`
	MatchFound   string   `json:"match_found,omitempty" example:"Match Found!"`
	MatchedUser  string   `json:"matched_user,omitempty" example:"Alice"`
	Users        []string `json:"users" example:"Alice,Bob"`
	ModelsLoaded bool     `json:"models_loaded" example:"true"`
	CameraReady  bool     `json:"camera_ready" example:"true"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"NO_FACE_DETECTED"`
	Message string `json:"message" example:"No face detected, please try again"`
}

var (
	errInternal   = response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error")
	errRateLimit  = response.New(ErrorResponse{Code: "RATE_LIMIT_EXCEEDED", Message: "Rate limit exceeded"}, "429", "Too Many Requests")
	errInProgress = response.New(ErrorResponse{Code: "OPERATION_IN_PROGRESS", Message: "Another detection is in progress"}, "409", "Conflict")
	errNoModels   = response.New(ErrorResponse{Code: "MODELS_NOT_LOADED", Message: "Face detection models are not loaded"}, "503", "Service Unavailable")
	errBackend    = response.New(ErrorResponse{Code: "DETECTION_FAILED", Message: "Face detection backend failed"}, "502", "Bad Gateway")
)

// NewSwagger creates and configures the Swagger documentation
func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Facematch API",
		Version:     "v1.0.0",
		Description: "Registers named face descriptors and checks images against them",
		Host:        "localhost:3000",
		Path:        "/v1",
	})

	endpoints := []*endpoint.EndPoint{
		// GET /v1/state
		endpoint.New(
			endpoint.GET,
			"/state",
			endpoint.WithTags("State"),
			endpoint.WithSummary("Application state"),
			endpoint.WithDescription("Loading flag, last match result, registered users, model and camera status"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(StateResponse{}, "200", "State snapshot"),
			}),
		),

		// GET /v1/users
		endpoint.New(
			endpoint.GET,
			"/users",
			endpoint.WithTags("Users"),
			endpoint.WithSummary("List registered users"),
			endpoint.WithDescription("Names in registry order. A name registered twice appears twice."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(UsersResponse{}, "200", "Registered users"),
			}),
		),

		// POST /v1/users
		endpoint.New(
			endpoint.POST,
			"/users",
			endpoint.WithTags("Users"),
			endpoint.WithSummary("Register a user"),
			endpoint.WithDescription("Multipart form with a required `name` field and an optional `image` file. Detects every face in the image, or in the current camera frame when no image is sent, and stores all descriptors under the name"),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(RegisterUserResponse{}, "201", "User registered"),
			}),
			endpoint.WithErrors([]response.Response{
				errInProgress,
				response.New(ErrorResponse{Code: "NAME_REQUIRED", Message: "Please enter a user name"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "NO_FACE_DETECTED", Message: "No face detected, please try again"}, "422", "Unprocessable Entity"),
				errRateLimit,
				errInternal,
				errBackend,
				response.New(ErrorResponse{Code: "CAMERA_UNAVAILABLE", Message: "Camera is not available"}, "503", "Service Unavailable"),
				errNoModels,
			}),
		),

		// DELETE /v1/users/:name
		endpoint.New(
			endpoint.DELETE,
			"/users/{name}",
			endpoint.WithTags("Users"),
			endpoint.WithSummary("Delete a user"),
			endpoint.WithDescription("Removes every entry registered under the name"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("name", parameter.Path, parameter.WithDescription("User name")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(DeleteUserResponse{}, "200", "User deleted"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "USER_NOT_FOUND", Message: "User not found"}, "404", "Not Found"),
				errRateLimit,
				errInternal,
			}),
		),

		// POST /v1/match
		endpoint.New(
			endpoint.POST,
			"/match",
			endpoint.WithTags("Match"),
			endpoint.WithSummary("Check an image for a registered user"),
			endpoint.WithDescription("Multipart form with a required `image` file. Reports the first detected face whose mean descriptor distance to a user is below the threshold"),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(MatchResponse{}, "200", "Check completed"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "REGISTRY_EMPTY", Message: "No users registered"}, "409", "Conflict"),
				errInProgress,
				response.New(ErrorResponse{Code: "IMAGE_REQUIRED", Message: "Please choose an image"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "INVALID_IMAGE", Message: "Invalid image"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "NO_FACE_DETECTED", Message: "No face detected, please try again"}, "422", "Unprocessable Entity"),
				errRateLimit,
				errInternal,
				errBackend,
				errNoModels,
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
