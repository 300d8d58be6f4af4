package app

import (
	"log"
	"time"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/dispatch"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/server"
)

// runPipeline is the main detection loop that processes frames from the camera.
// It manages the state transitions between idle and active modes based on
// motion detection.
//
// Pipeline logic:
// 1. Start in idle mode (IdleFPS=5)
// 2. On motion detected, switch to active mode (ActiveFPS=15)
// 3. Run hand detection
// 4. Feed the first hand's landmarks through the recognition session
// 5. Execute the bound plugin action when the session fires an event
// 6. After 2s without motion, switch back to idle mode
func (a *App) runPipeline(stopCh <-chan struct{}) {
	activeMode := false
	lastMotionTime := time.Now()

	frameInterval := time.Second / time.Duration(IdleFPS)
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			// Skip processing if detection is disabled
			if !a.IsEnabled() {
				continue
			}

			frame, err := a.Camera().ReadFrame()
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				continue
			}

			// Step 1: Motion detection
			motionDetected, _ := a.motion.Detect(frame)

			if motionDetected {
				lastMotionTime = time.Now()

				if !activeMode {
					activeMode = true
					a.Camera().SetFPS(ActiveFPS)
					frameInterval = time.Second / time.Duration(ActiveFPS)
					ticker.Reset(frameInterval)
					log.Println("Switched to active mode")
				}
			} else if activeMode {
				if time.Since(lastMotionTime) > IdleTimeout {
					activeMode = false
					a.Camera().SetFPS(IdleFPS)
					frameInterval = time.Second / time.Duration(IdleFPS)
					ticker.Reset(frameInterval)
					log.Println("Switched to idle mode")
				}
			}

			// Skip further processing if not in active mode
			if !activeMode {
				frame.Close()
				continue
			}

			// Step 2: Hand detection
			hands, err := a.Detector().Detect(frame)
			frame.Close() // Done with the frame

			if err != nil {
				log.Printf("Error detecting hands: %v", err)
				continue
			}

			a.processHands(hands)
		}
	}
}

// processHands feeds one frame's detection result through the session.
// Only the first detected hand drives recognition; an empty result is
// still meaningful (no hand this frame) and short-circuits inside the
// session without disturbing the vote window.
func (a *App) processHands(hands []detector.HandLandmarks) {
	session := a.Session()

	if len(hands) == 0 {
		session.ProcessLandmarks(nil)
		return
	}

	event := session.ProcessLandmarks(hands[0].Points[:])

	a.publish(server.MessageResult, session.LastResult())

	if event != nil {
		a.executeAction(event)
	}
}

// executeAction runs the plugin action bound to a dispatched event.
func (a *App) executeAction(event *dispatch.Event) {
	log.Printf("Dispatching %s/%s for gesture %q (confidence %.2f)",
		event.Action.Plugin, event.Action.Name, event.Label, event.Confidence)

	p, err := a.pluginMgr.Get(event.Action.Plugin)
	if err != nil {
		log.Printf("Plugin %q not available: %v", event.Action.Plugin, err)
		return
	}
	if !p.Supports(event.Action.Name) {
		log.Printf("Plugin %q does not support action %q", event.Action.Plugin, event.Action.Name)
		return
	}

	resp, err := a.pluginExec.Execute(p, &plugin.Request{
		Action:     event.Action.Name,
		Gesture:    event.Label,
		Confidence: event.Confidence,
	})
	if err != nil {
		log.Printf("Plugin execution failed: %v", err)
		return
	}
	if !resp.Success {
		log.Printf("Plugin %q reported failure: %s", event.Action.Plugin, resp.Error)
		return
	}

	a.publish(server.MessageAction, event)
}

// publish broadcasts to the event hub when one is configured.
func (a *App) publish(kind string, payload any) {
	if a.config.Hub != nil {
		a.config.Hub.Publish(kind, payload)
	}
}
