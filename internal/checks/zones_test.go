package checks

import (
	"strings"
	"testing"

	"gridhangar/internal/config"
	"gridhangar/internal/sim"
)

func TestCheckZones_InsideZoneFlagIsAuthoritative(t *testing.T) {
	zones := []config.Zone{
		{Name: "Alpha", X: 0, Y: 0, Z: 0, Radius: 100, AllowSave: true, AllowLoad: false},
		// A second permissive zone must not override the zone the player
		// is actually inside.
		{Name: "Beta", X: 10, Y: 0, Z: 0, Radius: 500, AllowSave: false, AllowLoad: true},
	}
	pos := sim.Vec3{X: 50}

	if d := CheckZones(zones, pos, true); !d.Allowed {
		t.Fatalf("save inside Alpha should be allowed, got %+v", d)
	}
	d := CheckZones(zones, pos, false)
	if d.Allowed {
		t.Fatalf("load inside Alpha should be denied")
	}
	if !strings.Contains(d.Reason, "Alpha") {
		t.Fatalf("denial should reference Alpha, got %q", d.Reason)
	}
	if d.Waypoint != nil {
		t.Fatalf("inside-zone denial carries no waypoint, got %+v", d.Waypoint)
	}
}

func TestCheckZones_OutsideAllZones(t *testing.T) {
	zones := []config.Zone{
		{Name: "Alpha", X: 0, Y: 0, Z: 0, Radius: 100, AllowSave: true, AllowLoad: false},
	}
	pos := sim.Vec3{X: 500}

	d := CheckZones(zones, pos, true)
	if d.Allowed {
		t.Fatalf("save outside all zones should be denied")
	}
	if d.Waypoint == nil {
		t.Fatalf("expected waypoint to nearest save zone")
	}
	if !strings.Contains(d.Waypoint.Label, "Alpha") {
		t.Fatalf("waypoint should reference Alpha, got %q", d.Waypoint.Label)
	}

	d = CheckZones(zones, pos, false)
	if d.Allowed {
		t.Fatalf("load should be denied when no zone permits loading")
	}
	if d.Reason != "No areas found!" {
		t.Fatalf("expected no-areas denial, got %q", d.Reason)
	}
	if d.Waypoint != nil {
		t.Fatalf("no-areas denial carries no waypoint")
	}
}

func TestCheckZones_NearestPermittingZoneWins(t *testing.T) {
	zones := []config.Zone{
		{Name: "Far", X: 1000, Radius: 10, AllowSave: true},
		{Name: "Near", X: 200, Radius: 10, AllowSave: true},
		{Name: "Nearest but loading only", X: 150, Radius: 10, AllowLoad: true},
	}
	d := CheckZones(zones, sim.Vec3{X: 100}, true)
	if d.Allowed || d.Waypoint == nil {
		t.Fatalf("expected waypoint denial, got %+v", d)
	}
	if !strings.Contains(d.Waypoint.Label, "Near") || strings.Contains(d.Waypoint.Label, "loading") {
		t.Fatalf("expected nearest saving zone, got %q", d.Waypoint.Label)
	}
}

func TestCheckZones_TieBreaksToFirstConfigured(t *testing.T) {
	zones := []config.Zone{
		{Name: "First", X: 100, Radius: 10, AllowLoad: true},
		{Name: "Second", X: -100, Radius: 10, AllowLoad: true},
	}
	d := CheckZones(zones, sim.Vec3{}, false)
	if d.Waypoint == nil || !strings.Contains(d.Waypoint.Label, "First") {
		t.Fatalf("equal distances should keep the first configured zone, got %+v", d.Waypoint)
	}
}

func TestCheckZones_EmptyListAllows(t *testing.T) {
	if d := CheckZones(nil, sim.Vec3{X: 1e6}, true); !d.Allowed {
		t.Fatalf("no configured zones should allow, got %+v", d)
	}
}
