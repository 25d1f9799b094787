package mcp

// GetStatusInput is the input for the get_status tool.
type GetStatusInput struct{}

// GetStatusOutput is the output for the get_status tool.
type GetStatusOutput struct {
	State         string `json:"state"`
	Profile       string `json:"profile"`
	DisplayCount  int    `json:"display_count"`
	MaskCount     int    `json:"mask_count"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// ListDisplaysInput is the input for the list_displays tool.
type ListDisplaysInput struct{}

// DisplayEntry describes one display in list_displays output.
type DisplayEntry struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	RefreshHz float64 `json:"refresh_hz"`
}

// ListDisplaysOutput is the output for the list_displays tool.
type ListDisplaysOutput struct {
	Displays []DisplayEntry `json:"displays"`
}

// GetActiveRegionsInput is the input for the get_active_regions tool.
type GetActiveRegionsInput struct {
	Display *int `json:"display,omitempty" jsonschema:"Optional display id to filter by. Omit for all displays."`
}

// RegionEntry describes one uncovered rectangle in display-local coordinates.
type RegionEntry struct {
	Display      int     `json:"display"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	CornerRadius float64 `json:"corner_radius"`
}

// GetActiveRegionsOutput is the output for the get_active_regions tool.
type GetActiveRegionsOutput struct {
	State   string        `json:"state"`
	Regions []RegionEntry `json:"regions"`
}

// GetPeripheralsInput is the input for the get_peripherals tool.
type GetPeripheralsInput struct{}

// PeripheralEntry describes one detected dock or shelf surface.
type PeripheralEntry struct {
	Display    int     `json:"display"`
	Kind       string  `json:"kind"`
	Edge       string  `json:"edge"`
	AutoHidden bool    `json:"auto_hidden"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
}

// GetPeripheralsOutput is the output for the get_peripherals tool.
type GetPeripheralsOutput struct {
	Peripherals []PeripheralEntry `json:"peripherals"`
}
