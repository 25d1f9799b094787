package x11

import (
	"fmt"
	"time"

	"github.com/BurntSushi/xgb/randr"
)

// Monitor represents a physical display
type Monitor struct {
	ID            int
	Name          string
	X             int
	Y             int
	Width         int
	Height        int
	RefreshPeriod time.Duration // zero when the mode timing is unavailable
}

// GetMonitors retrieves all active monitors using XRandR
func (c *Connection) GetMonitors() ([]Monitor, error) {
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	modes := make(map[uint32]randr.ModeInfo, len(resources.Modes))
	for _, mode := range resources.Modes {
		modes[mode.Id] = mode
	}

	var monitors []Monitor

	// Query each CRTC for active monitors
	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		// Skip disabled CRTCs
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		outputName := fmt.Sprintf("Monitor%d", i)
		if len(crtcInfo.Outputs) > 0 {
			outputInfo, err := randr.GetOutputInfo(c.XUtil.Conn(), crtcInfo.Outputs[0], resources.ConfigTimestamp).Reply()
			if err == nil {
				outputName = string(outputInfo.Name)
			}
		}

		monitors = append(monitors, Monitor{
			ID:            i,
			Name:          outputName,
			X:             int(crtcInfo.X),
			Y:             int(crtcInfo.Y),
			Width:         int(crtcInfo.Width),
			Height:        int(crtcInfo.Height),
			RefreshPeriod: refreshPeriod(modes, uint32(crtcInfo.Mode)),
		})
	}

	return monitors, nil
}

// refreshPeriod derives the frame period from the CRTC's current mode
// timings. Returns zero when the mode is unknown or reports no timing.
func refreshPeriod(modes map[uint32]randr.ModeInfo, modeID uint32) time.Duration {
	mode, ok := modes[modeID]
	if !ok {
		return 0
	}
	total := float64(mode.Htotal) * float64(mode.Vtotal)
	if total <= 0 || mode.DotClock == 0 {
		return 0
	}
	hz := float64(mode.DotClock) / total
	if hz <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / hz)
}
