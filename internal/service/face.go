package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/saturnino-fabrica-de-software/facematch/internal/audit"
	"github.com/saturnino-fabrica-de-software/facematch/internal/capture"
	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
	"github.com/saturnino-fabrica-de-software/facematch/internal/matcher"
	"github.com/saturnino-fabrica-de-software/facematch/internal/provider"
	"github.com/saturnino-fabrica-de-software/facematch/internal/ws"
)

type RegistryInterface interface {
	Add(ctx context.Context, name string, descriptors []domain.Descriptor) (domain.LabeledDescriptors, error)
	Delete(ctx context.Context, name string) (int, error)
	Entries() []domain.LabeledDescriptors
	Names() []string
	Len() int
}

// FrameSource is the camera as seen by the service.
type FrameSource interface {
	Ready() bool
	Frame(ctx context.Context) ([]byte, error)
}

// ReadinessChecker reports whether the detection models are loaded.
type ReadinessChecker interface {
	Ready() bool
}

type EventPublisher interface {
	Publish(eventType ws.EventType, data interface{})
}

// FaceService owns the application state. It runs one detection at a time;
// a second register or check while one is in flight fails fast.
type FaceService struct {
	registry RegistryInterface
	detector provider.FaceDetector
	camera   FrameSource
	models   ReadinessChecker
	logger   *slog.Logger

	auditLogger  audit.Logger
	events       EventPublisher
	providerName string

	threshold         float64
	detectionTimeout  time.Duration
	maxFrameDimension int

	sem *semaphore.Weighted

	mu        sync.RWMutex
	loading   bool
	lastMatch *domain.MatchResult
}

func NewFaceService(
	registry RegistryInterface,
	detector provider.FaceDetector,
	camera FrameSource,
	models ReadinessChecker,
	logger *slog.Logger,
) *FaceService {
	return &FaceService{
		registry:    registry,
		detector:    detector,
		camera:      camera,
		models:      models,
		logger:      logger,
		auditLogger: &audit.NoOpLogger{},
		threshold:   matcher.DefaultThreshold,
		sem:         semaphore.NewWeighted(1),
	}
}

func (s *FaceService) WithThreshold(threshold float64) *FaceService {
	s.threshold = threshold
	return s
}

// WithDetectionTimeout bounds every detection call; zero means no bound.
func (s *FaceService) WithDetectionTimeout(timeout time.Duration) *FaceService {
	s.detectionTimeout = timeout
	return s
}

// WithMaxFrameDimension downscales images before detection; zero keeps them.
func (s *FaceService) WithMaxFrameDimension(maxDim int) *FaceService {
	s.maxFrameDimension = maxDim
	return s
}

func (s *FaceService) WithAudit(logger audit.Logger, providerName string) *FaceService {
	s.auditLogger = logger
	s.providerName = providerName
	return s
}

func (s *FaceService) WithEvents(events EventPublisher) *FaceService {
	s.events = events
	return s
}

// Register detects every face in image, or in the current camera frame when
// image is empty, and stores all descriptors as one entry under name.
func (s *FaceService) Register(ctx context.Context, name string, image []byte) (*domain.Registration, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}

	release, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer release()

	result, err := s.register(ctx, name, image)

	s.audit(ctx, audit.Event{
		EventType: audit.EventUserRegistered,
		User:      name,
		Success:   err == nil,
		Error:     errorText(err),
		Metadata:  facesMetadata(result),
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.lastMatch = nil
	s.mu.Unlock()

	s.logger.Info("user registered",
		slog.String("user", name),
		slog.Int("faces", result.Faces),
	)
	s.publish(ws.EventUserRegistered, result)
	return result, nil
}

func (s *FaceService) register(ctx context.Context, name string, image []byte) (*domain.Registration, error) {
	if len(image) == 0 {
		if s.camera == nil {
			return nil, domain.ErrCameraUnavailable
		}
		frame, err := s.camera.Frame(ctx)
		if err != nil {
			return nil, err
		}
		image = frame
	}

	faces, err := s.detect(ctx, image)
	if err != nil {
		return nil, err
	}

	descriptors := provider.Descriptors(faces)
	if len(descriptors) == 0 {
		return nil, domain.ErrNoFaceDetected
	}

	entry, err := s.registry.Add(ctx, name, descriptors)
	if err != nil {
		return nil, err
	}

	return &domain.Registration{
		User:       entry.Label,
		Faces:      len(entry.Descriptors),
		Detections: provider.Detections(faces),
	}, nil
}

// CheckMatch compares every face in image against the registry. The first
// face that matches a registered user decides the result.
func (s *FaceService) CheckMatch(ctx context.Context, image []byte) (*domain.MatchResult, error) {
	if len(image) == 0 {
		return nil, domain.ErrImageRequired
	}
	if s.registry.Len() == 0 {
		return nil, domain.ErrRegistryEmpty
	}

	release, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer release()

	result, err := s.checkMatch(ctx, image)

	event := audit.Event{
		EventType: audit.EventMatchChecked,
		Success:   err == nil,
		Error:     errorText(err),
	}
	if result != nil {
		event.User = result.MatchedUser
		event.Metadata = map[string]string{"faces": strconv.Itoa(len(result.Faces))}
	}
	s.audit(ctx, event)

	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.lastMatch = result
	s.mu.Unlock()

	s.logger.Info("match checked",
		slog.String("status", result.Status),
		slog.String("matched_user", result.MatchedUser),
		slog.Int("faces", len(result.Faces)),
	)
	s.publish(ws.EventMatchCompleted, result)
	return result, nil
}

func (s *FaceService) checkMatch(ctx context.Context, image []byte) (*domain.MatchResult, error) {
	faces, err := s.detect(ctx, image)
	if err != nil {
		return nil, err
	}

	descriptors := provider.Descriptors(faces)
	if len(descriptors) == 0 {
		return nil, domain.ErrNoFaceDetected
	}

	m := matcher.New(s.registry.Entries(), s.threshold)
	best, all, found := m.FirstMatch(descriptors)

	// all is index-aligned with the usable faces
	for i, d := range provider.Detections(faces) {
		all[i].Detection = d
	}

	result := &domain.MatchResult{
		Status: domain.MatchStatusNotFound,
		Faces:  all,
	}
	if found {
		result.Status = domain.MatchStatusFound
		result.MatchedUser = best.Label
	}
	return result, nil
}

// Delete removes every entry registered under name.
func (s *FaceService) Delete(ctx context.Context, name string) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, domain.ErrNameRequired
	}

	removed, err := s.registry.Delete(ctx, name)
	s.audit(ctx, audit.Event{
		EventType: audit.EventUserDeleted,
		User:      name,
		Success:   err == nil,
		Error:     errorText(err),
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("user deleted",
		slog.String("user", name),
		slog.Int("entries", removed),
	)
	s.publish(ws.EventUserDeleted, map[string]interface{}{"user": name, "entries": removed})
	return removed, nil
}

// Users lists registered names in registry order.
func (s *FaceService) Users() []string {
	return s.registry.Names()
}

func (s *FaceService) State() domain.AppState {
	s.mu.RLock()
	state := domain.AppState{
		Loading: s.loading,
	}
	if s.lastMatch != nil {
		state.MatchFound = s.lastMatch.Status
		state.MatchedUser = s.lastMatch.MatchedUser
	}
	s.mu.RUnlock()

	state.Users = s.registry.Names()
	state.ModelsLoaded = s.models != nil && s.models.Ready()
	state.CameraReady = s.camera != nil && s.camera.Ready()
	return state
}

// begin takes the detection slot and raises the loading flag. The returned
// release always lowers the flag, whatever the outcome.
func (s *FaceService) begin() (func(), error) {
	if s.models == nil || !s.models.Ready() {
		return nil, domain.ErrModelsNotLoaded
	}
	if !s.sem.TryAcquire(1) {
		return nil, domain.ErrOperationInProgress
	}

	s.setLoading(true)
	return func() {
		s.setLoading(false)
		s.sem.Release(1)
	}, nil
}

func (s *FaceService) setLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	s.mu.Unlock()

	s.publish(ws.EventStateChanged, map[string]bool{"loading": loading})
}

func (s *FaceService) detect(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	normalized, err := capture.Normalize(image, s.maxFrameDimension)
	if err != nil {
		return nil, err
	}

	if s.detectionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.detectionTimeout)
		defer cancel()
	}

	start := time.Now()
	faces, err := s.detector.DetectFaces(ctx, normalized)
	if err != nil {
		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, domain.ErrDetectionFailed.WithError(fmt.Errorf("detect faces: %w", err))
	}

	s.logger.Debug("faces detected",
		slog.Int("faces", len(faces)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return faces, nil
}

func (s *FaceService) audit(ctx context.Context, event audit.Event) {
	event.Provider = s.providerName
	// audit failures never fail the operation
	_ = s.auditLogger.Log(ctx, event)
}

func (s *FaceService) publish(eventType ws.EventType, data interface{}) {
	if s.events != nil {
		s.events.Publish(eventType, data)
	}
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func facesMetadata(r *domain.Registration) map[string]string {
	if r == nil {
		return nil
	}
	return map[string]string{"faces": strconv.Itoa(r.Faces)}
}
