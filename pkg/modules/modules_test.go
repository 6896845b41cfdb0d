package modules

import (
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/past-midnight/pkg/canvas"
	"github.com/Veraticus/past-midnight/pkg/module"
	"github.com/Veraticus/past-midnight/pkg/registry"
	"github.com/Veraticus/past-midnight/pkg/testutil"
)

func TestAll_Valid(t *testing.T) {
	seen := make(map[string]bool)
	for _, e := range All() {
		if err := e.Metadata.Validate(); err != nil {
			t.Errorf("%s metadata: %v", e.Metadata.ID, err)
		}
		if err := e.Options.Validate(); err != nil {
			t.Errorf("%s options: %v", e.Metadata.ID, err)
		}
		if seen[e.Metadata.ID] {
			t.Errorf("duplicate id %s", e.Metadata.ID)
		}
		seen[e.Metadata.ID] = true
	}
}

func TestRegisterAll(t *testing.T) {
	r := registry.New(nil)
	if err := RegisterAll(r); err != nil {
		t.Fatalf("RegisterAll() error = %v", err)
	}
	if r.Len() != len(All()) {
		t.Errorf("Len() = %d, want %d", r.Len(), len(All()))
	}

	if err := RegisterAll(r); !errors.Is(err, registry.ErrDuplicateModule) {
		t.Errorf("second RegisterAll() error = %v, want ErrDuplicateModule", err)
	}
}

// Every bundled module must survive a full lifecycle, including a resize while running.
func TestModules_Lifecycle(t *testing.T) {
	for _, e := range All() {
		t.Run(e.Metadata.ID, func(t *testing.T) {
			host := testutil.NewManualHost()
			surface := canvas.New(60, 20)

			inst, err := module.NewInstance(e.Metadata.ID, e.Factory, host, surface, e.Options.Defaults())
			if err != nil {
				t.Fatalf("NewInstance() error = %v", err)
			}
			if err := inst.Start(); err != nil {
				t.Fatalf("Start() error = %v", err)
			}

			host.Advance(2 * time.Second)
			if inst.Frames() == 0 {
				t.Fatal("no frames rendered")
			}
			if surface.IsBlank() {
				t.Error("module drew nothing")
			}

			inst.Resize(30, 10)
			host.Advance(time.Second)
			inst.Resize(1, 1)
			host.Advance(500 * time.Millisecond)

			inst.Stop()
			if !surface.IsBlank() {
				t.Error("surface should be cleared on stop")
			}
		})
	}
}

func TestStarryNight_Options(t *testing.T) {
	surface := canvas.New(80, 24)

	low, _ := NewStarryNight(surface, module.Config{"starDensity": "low", "showBuildings": false})
	high, _ := NewStarryNight(surface, module.Config{"starDensity": "high", "showBuildings": false})
	_ = low.Initialize()
	_ = high.Initialize()

	lowStars := len(low.(*StarryNight).stars)
	highStars := len(high.(*StarryNight).stars)
	if lowStars == 0 || highStars <= lowStars {
		t.Errorf("stars low=%d high=%d, want high > low > 0", lowStars, highStars)
	}
	if len(low.(*StarryNight).buildings) != 0 {
		t.Error("showBuildings=false should produce no buildings")
	}

	sn := low.(*StarryNight)
	sn.UpdateConfig(module.Config{"showBuildings": true, "shootingStarFrequency": "frequent"})
	if len(sn.buildings) == 0 {
		t.Error("enabling buildings should rebuild the skyline")
	}
	if sn.interval != 2*time.Second {
		t.Errorf("interval = %v, want 2s", sn.interval)
	}
}

func TestStarryNight_ResizeRebuilds(t *testing.T) {
	surface := canvas.New(80, 24)
	m, _ := NewStarryNight(surface, nil)
	sn := m.(*StarryNight)
	_ = sn.Initialize()

	surface.Resize(20, 8)
	sn.OnResize(20, 8)

	for _, st := range sn.stars {
		if st.x >= 20 || st.y >= 8 {
			t.Fatalf("star at (%d,%d) outside 20x8", st.x, st.y)
		}
	}
}

func TestBouncingLogo_StaysInBounds(t *testing.T) {
	surface := canvas.New(40, 12)
	m, _ := NewBouncingLogo(surface, nil)
	b := m.(*BouncingLogo)
	_ = b.Initialize()

	lw, lh := b.logoSize()
	for i := range 500 {
		b.RenderFrame(time.Duration(i) * logoStep)
		if b.x < 0 || b.y < 0 || b.x > 40-lw || b.y > 12-lh {
			t.Fatalf("logo at (%d,%d) outside bounds", b.x, b.y)
		}
	}

	surface.Resize(lw+2, lh+1)
	b.OnResize(lw+2, lh+1)
	if b.x > 2 || b.y > 1 {
		t.Errorf("logo at (%d,%d) not clamped after resize", b.x, b.y)
	}
}

func TestBouncingLogo_CountsCorners(t *testing.T) {
	surface := canvas.New(20, 6)
	m, _ := NewBouncingLogo(surface, nil)
	b := m.(*BouncingLogo)
	_ = b.Initialize()

	lw, lh := b.logoSize()
	b.x, b.y = 20-lw-1, 6-lh-1
	b.vx, b.vy = 1, 1
	b.step()

	if b.CornerHits() != 1 {
		t.Errorf("CornerHits() = %d, want 1", b.CornerHits())
	}
	if b.vx != -1 || b.vy != -1 {
		t.Errorf("velocity = (%d,%d), want (-1,-1)", b.vx, b.vy)
	}
}

func TestBouncingLogo_SurfaceSmallerThanLogo(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
	}{
		{"narrow and short", 6, 2},
		{"narrow", 8, 20},
		{"short", 60, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			surface := canvas.New(tt.width, tt.height)
			m, _ := NewBouncingLogo(surface, nil)
			b := m.(*BouncingLogo)
			_ = b.Initialize()

			lw, lh := b.logoSize()
			changes := 0
			for range 100 {
				before := b.color
				b.step()
				if b.color != before {
					changes++
				}
				if tt.width < lw && b.x != 0 {
					t.Fatalf("x = %d, want pinned at 0", b.x)
				}
				if tt.height < lh && b.y != 0 {
					t.Fatalf("y = %d, want pinned at 0", b.y)
				}
			}

			if b.CornerHits() != 0 {
				t.Errorf("CornerHits() = %d, want 0", b.CornerHits())
			}
			if changes >= 50 {
				t.Errorf("colour changed %d times in 100 steps", changes)
			}
		})
	}
}

func TestMatrix_UpdateConfigRebuildsCharset(t *testing.T) {
	m, _ := NewMatrix(canvas.New(20, 10), module.Config{"katakana": false})
	mx := m.(*Matrix)
	_ = mx.Initialize()

	latin := len([]rune(matrixLatin))
	if len(mx.chars) != latin {
		t.Fatalf("chars = %d, want latin only (%d)", len(mx.chars), latin)
	}

	mx.UpdateConfig(module.Config{"katakana": true})
	if want := latin + len([]rune(matrixKatakana)); len(mx.chars) != want {
		t.Errorf("chars after enabling katakana = %d, want %d", len(mx.chars), want)
	}

	mx.UpdateConfig(module.Config{"katakana": false})
	if len(mx.chars) != latin {
		t.Errorf("chars after disabling katakana = %d, want %d", len(mx.chars), latin)
	}
}

func TestMystify_PolygonCount(t *testing.T) {
	m, _ := NewMystify(canvas.New(40, 12), module.Config{"polygons": 4})
	my := m.(*Mystify)
	_ = my.Initialize()
	if len(my.polygons) != 4 {
		t.Errorf("polygons = %d, want 4", len(my.polygons))
	}
}
