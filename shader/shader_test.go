package shader

import (
	"strings"
	"testing"

	"github.com/gogpu/naga"
)

func TestSourceNonEmpty(t *testing.T) {
	kinds := []Kind{KindGlobeOpaque, KindGlobeLitTextured, KindGrid, KindPoint, KindLine}
	for _, k := range kinds {
		if Source(k) == "" {
			t.Errorf("Source(%v) returned empty shader", k)
		}
	}
	if Source(Kind(99)) != "" {
		t.Error("Source for unknown kind should be empty")
	}
}

func TestSourceDeterministic(t *testing.T) {
	for _, k := range []Kind{KindGlobeOpaque, KindGlobeLitTextured, KindGrid, KindPoint, KindLine} {
		if Source(k) != Source(k) {
			t.Errorf("Source(%v) is not deterministic", k)
		}
	}
}

func TestGlobeSelectsVariant(t *testing.T) {
	if Globe(true) != Source(KindGlobeLitTextured) {
		t.Error("Globe(true) should return the lit textured shader")
	}
	if Globe(false) != Source(KindGlobeOpaque) {
		t.Error("Globe(false) should return the opaque shader")
	}
	if !strings.Contains(Globe(true), "textureSample") {
		t.Error("lit globe shader should sample the color texture")
	}
	if strings.Contains(Globe(false), "textureSample") {
		t.Error("opaque globe shader should not sample any texture")
	}
}

func TestEntryPoints(t *testing.T) {
	for _, k := range []Kind{KindGlobeOpaque, KindGlobeLitTextured, KindGrid, KindPoint, KindLine} {
		src := Source(k)
		if !strings.Contains(src, "fn vs_main") {
			t.Errorf("%v shader missing vs_main entry point", k)
		}
		if !strings.Contains(src, "fn fs_main") {
			t.Errorf("%v shader missing fs_main entry point", k)
		}
	}
}

// TestShadersCompile validates every shader through naga.
func TestShadersCompile(t *testing.T) {
	for _, k := range []Kind{KindGlobeOpaque, KindGlobeLitTextured, KindGrid, KindPoint, KindLine} {
		t.Run(k.String(), func(t *testing.T) {
			spirvBytes, err := naga.Compile(Source(k))
			if err != nil {
				t.Fatalf("shader compilation failed: %v", err)
			}
			if len(spirvBytes) == 0 {
				t.Fatal("compiled shader is empty")
			}
			if len(spirvBytes)%4 != 0 {
				t.Errorf("SPIR-V byte length %d is not a multiple of 4", len(spirvBytes))
			}
		})
	}
}
