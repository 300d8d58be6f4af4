package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/classifier"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	cameraID := flag.Int("camera", 0, "camera device ID")
	headless := flag.Bool("headless", false, "run without the system tray")
	flag.Parse()

	fmt.Println("Mudra - Hand Gesture Recognition")

	dataDir, err := ensureDataDir()
	if err != nil {
		log.Fatalf("Failed to prepare data directory: %v", err)
	}

	st, err := store.New(filepath.Join(dataDir, "mudra.db"))
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	// The classifier loads its model lazily on first classification, so a
	// missing model only degrades recognition instead of blocking startup.
	clf := classifier.New(classifier.FileLoader{
		ModelPath:  filepath.Join(dataDir, "model", "model.json"),
		LabelsPath: filepath.Join(dataDir, "model", "labels.json"),
	})

	hub := server.NewHub()

	application := app.New(app.Config{
		Store:      st,
		Classifier: clf,
		Hub:        hub,
		PluginDir:  filepath.Join(dataDir, "plugins"),
		CameraID:   *cameraID,
	})

	if err := application.DiscoverPlugins(); err != nil {
		log.Printf("Plugin discovery failed: %v", err)
	}

	if err := application.Start(); err != nil {
		log.Fatalf("Failed to start pipeline: %v", err)
	}
	defer application.Stop()

	enabled := st.Settings().Bool(store.SettingEnabled, true)
	application.SetEnabled(enabled)

	// Find web directory
	webDir := findWebDir(dataDir)
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir:  webDir,
		Store:      st,
		Hub:        hub,
		Classifier: clf,
	})

	go func() {
		fmt.Printf("Starting server on %s\n", *addr)
		if err := srv.ListenAndServe(*addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	if *headless {
		select {}
	}

	t := tray.New(enabled)
	t.OnToggle(func(enabled bool) {
		application.SetEnabled(enabled)
		if err := st.Settings().Set(store.SettingEnabled, fmt.Sprintf("%t", enabled)); err != nil {
			log.Printf("Failed to persist enabled state: %v", err)
		}
	})
	t.OnQuit(func() {
		application.Stop()
	})
	t.Run()
}

// ensureDataDir creates and returns the ~/.mudra data directory.
func ensureDataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	dataDir := filepath.Join(homeDir, ".mudra")
	for _, sub := range []string{"", "model", "plugins", "scripts"} {
		if err := os.MkdirAll(filepath.Join(dataDir, sub), 0755); err != nil {
			return "", err
		}
	}
	return dataDir, nil
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.mudra/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	// Check relative paths from current working directory
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeWebDir := filepath.Join(dataDir, "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
