package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lawnchairsociety/roomforge/internal/room"
)

func tmpl(id string, sides ...room.Direction) room.Template {
	t := room.Template{ID: id, Name: id}
	for _, d := range sides {
		t.Doorways.Set(d, true)
	}
	t.DoorwayCount = t.Doorways.Count()
	return t
}

func TestNew(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrEmptyCatalog) {
		t.Errorf("New(nil) error = %v, want ErrEmptyCatalog", err)
	}

	dup := []room.Template{tmpl("a", room.Top), tmpl("a", room.Left)}
	if _, err := New(dup); !errors.Is(err, ErrDuplicateTemplate) {
		t.Errorf("New(duplicates) error = %v, want ErrDuplicateTemplate", err)
	}

	bad := []room.Template{{ID: "x", Doorways: room.Doorways{Top: true}, DoorwayCount: 2}}
	if _, err := New(bad); err == nil {
		t.Error("New() accepted a template whose doorway count does not match its sides")
	}
}

func TestNewCopiesInput(t *testing.T) {
	input := []room.Template{tmpl("a", room.Top)}
	c, err := New(input)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	input[0].Doorways.Top = false
	got := c.FindCompatible(room.Top, 1, 1)
	if len(got) != 1 {
		t.Fatal("catalog changed when the caller mutated its input slice")
	}

	out := c.Templates()
	out[0].ID = "changed"
	if _, ok := c.Get("a"); !ok {
		t.Error("catalog changed when the caller mutated Templates()")
	}
}

func TestFindCompatible(t *testing.T) {
	c, err := New([]room.Template{
		tmpl("t", room.Top),
		tmpl("tb", room.Top, room.Bottom),
		tmpl("lr", room.Left, room.Right),
		tmpl("tlr", room.Top, room.Left, room.Right),
		tmpl("all", room.Top, room.Bottom, room.Left, room.Right),
	})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	tests := []struct {
		name     string
		dir      room.Direction
		min, max int
		want     []string
	}{
		{"top any count", room.Top, 0, 4, []string{"t", "tb", "tlr", "all"}},
		{"top single", room.Top, 1, 1, []string{"t"}},
		{"top two to four", room.Top, 2, 4, []string{"tb", "tlr", "all"}},
		{"left three", room.Left, 3, 3, []string{"tlr"}},
		{"bottom exact four", room.Bottom, 4, 4, []string{"all"}},
		{"right single none", room.Right, 1, 1, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.FindCompatible(tt.dir, tt.min, tt.max)
			if len(got) != len(tt.want) {
				t.Fatalf("FindCompatible(%s, %d, %d) returned %d templates, want %d", tt.dir, tt.min, tt.max, len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("result[%d] = %s, want %s", i, got[i].ID, id)
				}
				if !got[i].Doorways.Has(tt.dir) {
					t.Errorf("result %s has no %s doorway", got[i].ID, tt.dir)
				}
			}
		})
	}
}

func TestFindCompatibleIsPure(t *testing.T) {
	c := Default()
	for _, d := range room.AllDirections() {
		first := c.FindCompatible(d, 2, 4)
		second := c.FindCompatible(d, 2, 4)
		if len(first) != len(second) {
			t.Fatalf("%s: repeated query returned %d then %d templates", d, len(first), len(second))
		}
		for i := range first {
			if first[i] != second[i] {
				t.Errorf("%s: result[%d] differs between identical queries", d, i)
			}
		}
	}
}

func TestQuery(t *testing.T) {
	c, err := New([]room.Template{tmpl("t", room.Top)})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if _, err := c.Query(room.Top, 3, 1); !errors.Is(err, ErrInvalidBand) {
		t.Errorf("Query with min > max error = %v, want ErrInvalidBand", err)
	}
	if _, err := c.Query(room.Top, 0, 5); !errors.Is(err, ErrInvalidBand) {
		t.Errorf("Query with max > 4 error = %v, want ErrInvalidBand", err)
	}

	_, err = c.Query(room.Left, 1, 4)
	if !errors.Is(err, ErrEmptyCandidateSet) {
		t.Fatalf("Query(Left) error = %v, want ErrEmptyCandidateSet", err)
	}
	var empty *EmptyCandidateSetError
	if !errors.As(err, &empty) {
		t.Fatalf("Query(Left) error is %T, want *EmptyCandidateSetError", err)
	}
	if empty.Direction != room.Left || empty.Min != 1 || empty.Max != 4 {
		t.Errorf("EmptyCandidateSetError = %+v", empty)
	}

	got, err := c.Query(room.Top, 1, 1)
	if err != nil || len(got) != 1 {
		t.Errorf("Query(Top, 1, 1) = %v, %v", got, err)
	}
}

func TestCovers(t *testing.T) {
	c := Default()
	bands := [][2]int{{1, 1}, {2, 4}, {1, 4}, {4, 4}}
	for _, b := range bands {
		if err := c.Covers(b[0], b[1]); err != nil {
			t.Errorf("Default().Covers(%d, %d) = %v", b[0], b[1], err)
		}
	}

	partial, _ := New([]room.Template{tmpl("t", room.Top), tmpl("b", room.Bottom)})
	err := partial.Covers(1, 1)
	var empty *EmptyCandidateSetError
	if !errors.As(err, &empty) || empty.Direction != room.Left {
		t.Errorf("Covers on a partial catalog = %v, want missing left", err)
	}
}

func TestDefaultTemplates(t *testing.T) {
	templates := DefaultTemplates()
	if len(templates) != 15 {
		t.Fatalf("DefaultTemplates() returned %d templates, want 15", len(templates))
	}

	byCount := make(map[int]int)
	for _, tpl := range templates {
		if err := tpl.Validate(); err != nil {
			t.Errorf("default template invalid: %v", err)
		}
		byCount[tpl.DoorwayCount]++
	}

	want := map[int]int{1: 4, 2: 6, 3: 4, 4: 1}
	for count, n := range want {
		if byCount[count] != n {
			t.Errorf("%d templates with %d doorways, want %d", byCount[count], count, n)
		}
	}
}

func TestParse(t *testing.T) {
	data := []byte(`
templates:
  - id: hall
    name: Great Hall
    doorways: [top, bottom, left, right]
  - id: closet
    doorways: [Left]
  - id: declared
    doorways: [top, right]
    doorway_count: 2
`)

	c, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", c.Len())
	}

	hall, ok := c.Get("hall")
	if !ok {
		t.Fatal("hall not found")
	}
	if hall.DoorwayCount != 4 || hall.Name != "Great Hall" {
		t.Errorf("hall = %+v", hall)
	}

	closet, _ := c.Get("closet")
	if closet.Name != "closet" {
		t.Errorf("closet name = %q, want id fallback", closet.Name)
	}
	if !closet.Doorways.Left || closet.DoorwayCount != 1 {
		t.Errorf("closet = %+v", closet)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad yaml", "templates: [unclosed"},
		{"unknown side", "templates:\n  - id: a\n    doorways: [up-ish]\n"},
		{"repeated side", "templates:\n  - id: a\n    doorways: [top, top]\n"},
		{"count mismatch", "templates:\n  - id: a\n    doorways: [top]\n    doorway_count: 3\n"},
		{"no templates", "templates: []\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Error("Parse() succeeded, want error")
			}
		})
	}
}

func TestLoadFromYAML(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "catalog.yaml")

	content := "templates:\n  - id: a\n    doorways: [top]\n  - id: b\n    doorways: [bottom, left]\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	c, err := LoadFromYAML(path)
	if err != nil {
		t.Fatalf("LoadFromYAML() failed: %v", err)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}

	if _, err := LoadFromYAML(filepath.Join(tmpDir, "missing.yaml")); err == nil {
		t.Error("LoadFromYAML() on a missing file succeeded")
	}
}

func TestDefinitionRoundTrip(t *testing.T) {
	for _, tpl := range DefaultTemplates() {
		back, err := CreateTemplateFromDefinition(DefinitionFromTemplate(tpl))
		if err != nil {
			t.Fatalf("%s: %v", tpl.ID, err)
		}
		if back != tpl {
			t.Errorf("round trip changed %s: %+v -> %+v", tpl.ID, tpl, back)
		}
	}
}

func TestShippedCatalog(t *testing.T) {
	c, err := LoadFromYAML(filepath.Join("..", "..", "data", "catalog.yaml"))
	if err != nil {
		t.Fatalf("LoadFromYAML() failed: %v", err)
	}
	if err := c.Covers(2, 4); err != nil {
		t.Errorf("Covers(2, 4) = %v", err)
	}
	if err := c.Covers(1, 1); err != nil {
		t.Errorf("Covers(1, 1) = %v", err)
	}
}
