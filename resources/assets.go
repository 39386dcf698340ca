package resources

import (
	"embed"
	"fmt"
	"sync"

	"fyne.io/fyne/v2"

	"focus/internal/core/model"
)

const iconDir = "icons/"

//go:embed icons/*.png
var iconFS embed.FS

var iconCache sync.Map

// Icon returns a Fyne resource for the given icon file.
func Icon(fileName string) (fyne.Resource, error) {
	return loadResource(iconFS, iconDir+fileName, &iconCache)
}

// MustIcon returns a Fyne resource or panics on error.
func MustIcon(fileName string) fyne.Resource {
	resource, err := Icon(fileName)
	if err != nil {
		panic(err)
	}
	return resource
}

// PhaseIconName returns the icon file shown while phase is active.
func PhaseIconName(phase model.Phase) string {
	switch phase {
	case model.PhaseFocusing:
		return "focus.png"
	case model.PhaseResting:
		return "rest.png"
	case model.PhaseFreeTime:
		return "free.png"
	}
	return "stopped.png"
}

// PhaseIcon returns the tray icon for phase.
func PhaseIcon(phase model.Phase) fyne.Resource {
	return MustIcon(PhaseIconName(phase))
}

func loadResource(fs embed.FS, path string, cache *sync.Map) (fyne.Resource, error) {
	if cached, ok := cache.Load(path); ok {
		return cached.(fyne.Resource), nil
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load resource %s: %w", path, err)
	}

	resource := fyne.NewStaticResource(path, data)
	cache.Store(path, resource)
	return resource, nil
}
