package ble

import (
	"context"
	"fmt"
	"time"
)

// ScanForDisplays scans for peripherals advertising the display service.
// When nameFilter is non-empty, only devices advertising that local name are
// returned.
func ScanForDisplays(adapter Adapter, timeout time.Duration, nameFilter string) ([]Device, error) {
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("ble: enable adapter: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	devices, err := adapter.Scan(ctx, ServiceUUID)
	if err != nil {
		return nil, fmt.Errorf("ble: scan: %w", err)
	}

	if nameFilter == "" {
		return devices, nil
	}
	var matched []Device
	for _, d := range devices {
		if d.Name == nameFilter {
			matched = append(matched, d)
		}
	}
	return matched, nil
}
