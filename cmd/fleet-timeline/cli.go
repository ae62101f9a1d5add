package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/fsru-tools/fleet-timeline/internal/view"
	"github.com/fsru-tools/fleet-timeline/pkg/core"
)

// dumpFrame renders a single frame to stdout without starting the server:
//
//	fleet-timeline dump <index> [geojson]
//
// Frames are rendered in order from the start of the timeline so the
// change flags on the requested frame reflect a viewer stepping through
// every snapshot up to it.
func dumpFrame(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: dump <index> [geojson]")
	}
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid index %q: %w", args[0], err)
	}

	engine, err := newEngine()
	if err != nil {
		return err
	}
	session, err := engine.NewSession()
	if err != nil {
		return err
	}

	var frame core.Frame
	for i := 0; i <= index; i++ {
		frame, err = engine.Render(session, i)
		if err != nil {
			return err
		}
	}

	if len(args) > 1 && args[1] == "geojson" {
		body, err := view.FrameGeoJSON(frame)
		if err != nil {
			return err
		}
		fmt.Println(string(body))
		return nil
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(frame)
}
