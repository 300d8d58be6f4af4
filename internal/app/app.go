// Package app orchestrates the recognition pipeline: camera capture,
// motion gating, hand detection, classification and action dispatch.
package app

import (
	"log"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/classifier"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/dispatch"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/session"
	"github.com/ayusman/mudra/internal/store"
)

// Pipeline timing constants.
const (
	// IdleFPS is the frame rate when no motion is detected.
	IdleFPS = 5
	// ActiveFPS is the frame rate during active detection.
	ActiveFPS = 15
	// IdleTimeout is how long without motion before dropping back to idle.
	IdleTimeout = 2 * time.Second
)

// Config holds configuration options for the application.
type Config struct {
	Store        *store.Store
	Classifier   *classifier.Classifier
	Hub          *server.Hub
	PluginDir    string
	CameraID     int
	MotionThresh float64
}

// App is the main application that runs the recognition pipeline and
// executes bound actions through plugins.
type App struct {
	config     Config
	camera     capture.Camera
	motion     *capture.MotionDetector
	detector   detector.Detector
	session    *session.Session
	pluginMgr  *plugin.Manager
	pluginExec *plugin.Executor
	enabled    bool
	mu         sync.RWMutex
	stopCh     chan struct{}
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	motionThreshold := config.MotionThresh
	if motionThreshold <= 0 {
		motionThreshold = 1.0 // Default threshold: 1% pixel change
	}

	a := &App{
		config:     config,
		camera:     capture.NewCamera(config.CameraID),
		motion:     capture.NewMotionDetector(motionThreshold),
		pluginMgr:  plugin.NewManager(config.PluginDir),
		pluginExec: plugin.NewExecutor(plugin.DefaultTimeout),
		enabled:    false,
	}

	// Try MediaPipe first, fall back to mock detector
	if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
		a.detector = mp
		log.Println("Using MediaPipe hand detection")
	} else {
		log.Printf("MediaPipe not available (%v), using mock detector", err)
		a.detector = detector.NewMockDetector()
	}

	a.session = a.buildSession()

	return a
}

// buildSession assembles a session from the current persisted settings
// and bindings. Missing or malformed settings fall back to the pipeline
// defaults.
func (a *App) buildSession() *session.Session {
	cfg := session.Config{Classifier: a.config.Classifier}

	if a.config.Store != nil {
		settings := a.config.Store.Settings()
		cfg.DetectionThreshold = settings.Float(store.SettingDetectionThreshold, session.DefaultDetectionThreshold)
		cfg.RotationDegrees = settings.Int(store.SettingRotationDegrees, 0)
		cfg.Cooldown = time.Duration(settings.Int(store.SettingCooldownMs, 0)) * time.Millisecond
		cfg.Actions = a.loadActions()
	}

	return session.New(cfg)
}

// loadActions builds the label-to-action map from the enabled bindings.
func (a *App) loadActions() dispatch.ActionMap {
	bindings, err := a.config.Store.Bindings().List()
	if err != nil {
		log.Printf("Failed to load bindings: %v", err)
		return nil
	}

	actions := make(map[string]dispatch.Action, len(bindings))
	for _, b := range bindings {
		if !b.Enabled {
			continue
		}
		actions[b.GestureLabel] = dispatch.Action{
			Plugin: b.PluginName,
			Name:   b.ActionName,
		}
	}

	log.Printf("Loaded %d action bindings from database", len(actions))
	return dispatch.NewActionMap(actions)
}

// ReloadSession rebuilds the session from the current settings and
// bindings. Called after a binding or setting changes; the vote window
// starts over but cooldown state is rebuilt fresh as well.
func (a *App) ReloadSession() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.session = a.buildSession()
}

// SetEnabled enables or disables gesture detection.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether gesture detection is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetDetector sets the hand detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// SetCamera replaces the camera implementation. Used by tests to drive
// the pipeline with recorded frames.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// DiscoverPlugins scans the plugin directory and loads available plugins.
func (a *App) DiscoverPlugins() error {
	return a.pluginMgr.Discover()
}

// Start begins the detection pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}

	// Open the camera
	if err := a.camera.Open(); err != nil {
		return err
	}

	// A frame source (re)start clears the vote window but keeps the
	// dispatch cooldown, so a camera rebind cannot re-fire immediately.
	a.session.Reset()
	a.motion.Reset()

	// Set initial FPS to idle mode
	a.camera.SetFPS(IdleFPS)

	// Create stop channel and start the pipeline
	a.stopCh = make(chan struct{})
	go a.runPipeline(a.stopCh)

	log.Println("Detection pipeline started")
	return nil
}

// Stop halts the detection pipeline and releases resources.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Signal the pipeline to stop
	if a.stopCh != nil {
		close(a.stopCh)
		a.stopCh = nil
	}

	// Close the camera
	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	// Close motion detector
	a.motion.Close()

	// Close the hand detector if set
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}

	log.Println("Detection pipeline stopped")
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.camera
}

// MotionDetector returns the motion detector instance.
func (a *App) MotionDetector() *capture.MotionDetector {
	return a.motion
}

// PluginManager returns the plugin manager.
func (a *App) PluginManager() *plugin.Manager {
	return a.pluginMgr
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// Session returns the active recognition session.
func (a *App) Session() *session.Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session
}
