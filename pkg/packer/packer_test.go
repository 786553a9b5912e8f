package packer

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hansbonini/psutools/pkg"
	"github.com/hansbonini/psutools/pkg/common"
)

// writeProject lays out a source folder with the given files. The psu.toml
// content is passed separately so every test reads its configuration the way
// the command line does.
func writeProject(t *testing.T, config string, files map[string][]byte) string {
	t.Helper()

	folder := t.TempDir()
	if err := os.WriteFile(filepath.Join(folder, ConfigFilename), []byte(config), 0o644); err != nil {
		t.Fatal(err)
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(folder, name), data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return folder
}

// packProject runs a full load-and-pack cycle and decodes the result
func packProject(t *testing.T, folder string) *pkg.PSUFile {
	t.Helper()

	config, err := LoadConfig(folder)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	destination := filepath.Join(t.TempDir(), "out.psu")
	if err := New().Pack(folder, destination, config); err != nil {
		t.Fatalf("Pack() failed: %v", err)
	}

	data, err := os.ReadFile(destination)
	if err != nil {
		t.Fatalf("failed to read archive: %v", err)
	}
	psu, err := pkg.NewPSUDecoder().Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if err := psu.Validate(); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	return psu
}

func TestPackEmptyProject(t *testing.T) {
	folder := writeProject(t, "[config]\nname = \"EMPTY-SAVE\"\n", nil)

	psu := packProject(t, folder)

	if len(psu.Entries) != 3 {
		t.Fatalf("archive holds %d entries, want 3", len(psu.Entries))
	}
	if psu.Name() != "EMPTY-SAVE" {
		t.Errorf("root name = %q, want %q", psu.Name(), "EMPTY-SAVE")
	}
	if psu.Entries[0].Size != 2 {
		t.Errorf("root size = %d, want 2", psu.Entries[0].Size)
	}
	if psu.Entries[1].Name != "." || psu.Entries[2].Name != ".." {
		t.Errorf("pseudo entries = %q, %q", psu.Entries[1].Name, psu.Entries[2].Name)
	}
}

func TestPackSingleFile(t *testing.T) {
	folder := writeProject(t, "[config]\nname = \"MY-SAVE\"\n", map[string][]byte{
		"DATA.BIN": []byte("payload"),
	})

	psu := packProject(t, folder)

	if len(psu.Entries) != 4 {
		t.Fatalf("archive holds %d entries, want 4", len(psu.Entries))
	}
	if psu.Entries[0].Size != 3 {
		t.Errorf("root size = %d, want 3", psu.Entries[0].Size)
	}

	files := psu.Files()
	if len(files) != 1 || files[0].Name != "DATA.BIN" {
		t.Fatalf("files = %+v, want only DATA.BIN", files)
	}
	if !bytes.Equal(files[0].Data, []byte("payload")) {
		t.Errorf("DATA.BIN payload = %q, want %q", files[0].Data, "payload")
	}

	// psu.toml never enters the archive
	for _, entry := range psu.Entries {
		if entry.Name == ConfigFilename {
			t.Error("psu.toml must not be packed")
		}
	}
}

func TestPackFixedTimestamp(t *testing.T) {
	config := "[config]\nname = \"STAMPED\"\ntimestamp = \"2024-01-02 03:04:05\"\n"
	folder := writeProject(t, config, map[string][]byte{
		"DATA.BIN": []byte("payload"),
	})

	psu := packProject(t, folder)

	expected := common.Timestamp{Second: 5, Minute: 4, Hour: 3, Day: 2, Month: 1, Year: 2024}
	for _, entry := range psu.Entries {
		if entry.Created != expected || entry.Modified != expected {
			t.Errorf("entry %q timestamps = %+v / %+v, want %+v", entry.Name, entry.Created, entry.Modified, expected)
		}
	}
}

func TestPackWithoutTimestamp(t *testing.T) {
	folder := writeProject(t, "[config]\nname = \"LEGACY\"\n", map[string][]byte{
		"DATA.BIN": []byte("payload"),
	})

	modTime := time.Date(2023, time.June, 7, 8, 9, 10, 0, time.Local)
	if err := os.Chtimes(filepath.Join(folder, "DATA.BIN"), modTime, modTime); err != nil {
		t.Fatal(err)
	}

	psu := packProject(t, folder)

	// Directories carry the zero datetime, files their modification time
	for _, entry := range psu.Entries[:3] {
		if !entry.Created.IsZero() || !entry.Modified.IsZero() {
			t.Errorf("directory %q timestamps = %+v / %+v, want zero", entry.Name, entry.Created, entry.Modified)
		}
	}
	expected := common.NewTimestamp(modTime)
	file := psu.Files()[0]
	if file.Created != expected || file.Modified != expected {
		t.Errorf("file timestamps = %+v / %+v, want %+v", file.Created, file.Modified, expected)
	}
}

func TestPackIncludeList(t *testing.T) {
	config := "[config]\nname = \"PICKY\"\ninclude = [\"DATA.BIN\", \"psu.toml\", \"missing.bin\", \"sub/file.bin\"]\n"
	folder := writeProject(t, config, map[string][]byte{
		"DATA.BIN":  []byte("payload"),
		"OTHER.BIN": []byte("other"),
	})

	loaded, err := LoadConfig(folder)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	var warnings []string
	packer := New()
	packer.Warnf = func(format string, args ...interface{}) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	destination := filepath.Join(t.TempDir(), "out.psu")
	if err := packer.Pack(folder, destination, loaded); err != nil {
		t.Fatalf("Pack() failed: %v", err)
	}

	data, err := os.ReadFile(destination)
	if err != nil {
		t.Fatal(err)
	}
	psu, err := pkg.NewPSUDecoder().Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}

	files := psu.Files()
	if len(files) != 1 || files[0].Name != "DATA.BIN" {
		t.Fatalf("files = %+v, want only DATA.BIN", files)
	}

	// One warning each for psu.toml, the missing entry and the path entry
	if len(warnings) != 3 {
		t.Errorf("got %d warnings, want 3: %v", len(warnings), warnings)
	}
}

func TestPackExcludeList(t *testing.T) {
	config := "[config]\nname = \"FILTERED\"\nexclude = [\"SKIP.BIN\"]\n"
	folder := writeProject(t, config, map[string][]byte{
		"DATA.BIN": []byte("payload"),
		"SKIP.BIN": []byte("skipped"),
	})

	psu := packProject(t, folder)

	files := psu.Files()
	if len(files) != 1 || files[0].Name != "DATA.BIN" {
		t.Errorf("files = %+v, want only DATA.BIN", files)
	}
}

func TestPackSynthesizesIconSys(t *testing.T) {
	config := `[config]
name = "WITH-ICON"

[config.icon_sys]
preset = "save"
title = "TEST SAVE"
linebreak_pos = 4
`
	folder := writeProject(t, config, map[string][]byte{
		"DATA.BIN": []byte("payload"),
	})

	psu := packProject(t, folder)

	var iconSys *pkg.PSUEntry
	for _, entry := range psu.Files() {
		if entry.Name == IconSysFilename {
			iconSys = entry
		}
	}
	if iconSys == nil {
		t.Fatal("archive should contain a synthesized icon.sys")
	}

	sys, err := pkg.NewIconSysDecoder().Decode(bytes.NewReader(iconSys.Data))
	if err != nil {
		t.Fatalf("Decode() of synthesized icon.sys failed: %v", err)
	}
	if sys.Title != "TEST SAVE" {
		t.Errorf("title = %q, want %q", sys.Title, "TEST SAVE")
	}
	if sys.Flags != pkg.IconSysFlagSaveFile {
		t.Errorf("flags = %d, want %d", sys.Flags, pkg.IconSysFlagSaveFile)
	}
	if sys.IconFile != "icon.icn" {
		t.Errorf("icon file = %q, want %q", sys.IconFile, "icon.icn")
	}
}

func TestPackPrefersOnDiskIconSys(t *testing.T) {
	config := `[config]
name = "WITH-ICON"

[config.icon_sys]
preset = "save"
title = "IGNORED"
`
	onDisk := []byte("raw icon.sys bytes")
	folder := writeProject(t, config, map[string][]byte{
		"icon.sys": onDisk,
	})

	psu := packProject(t, folder)

	files := psu.Files()
	if len(files) != 1 || files[0].Name != "icon.sys" {
		t.Fatalf("files = %+v, want only icon.sys", files)
	}
	if !bytes.Equal(files[0].Data, onDisk) {
		t.Error("the on-disk icon.sys should win over synthesis")
	}
}

func TestPackAtomicWrite(t *testing.T) {
	folder := writeProject(t, "[config]\nname = \"ATOMIC\"\n", nil)

	config, err := LoadConfig(folder)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	outDir := t.TempDir()
	if err := New().Pack(folder, filepath.Join(outDir, "out.psu"), config); err != nil {
		t.Fatalf("Pack() failed: %v", err)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "out.psu" {
		t.Errorf("output directory holds %v, want only out.psu", entries)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	testCases := []struct {
		name     string
		config   string
		expected error
	}{
		{"invalid name", "[config]\nname = \"bad/name\"\n", ErrInvalidName},
		{"empty name", "[config]\nname = \"\"\n", ErrInvalidName},
		{"include exclude conflict", "[config]\nname = \"X\"\ninclude = [\"a\"]\nexclude = [\"b\"]\n", ErrIncludeExcludeConflict},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			folder := writeProject(t, tc.config, nil)
			_, err := LoadConfig(folder)
			if !errors.Is(err, tc.expected) {
				t.Errorf("LoadConfig() error = %v, want %v", err, tc.expected)
			}
		})
	}
}

func TestLoadConfigInvalidConfigs(t *testing.T) {
	testCases := []struct {
		name   string
		config string
	}{
		{"bad toml", "not toml at all ["},
		{"bad timestamp", "[config]\nname = \"X\"\ntimestamp = \"yesterday\"\n"},
		{"unknown preset", "[config]\nname = \"X\"\n[config.icon_sys]\npreset = \"sparkly\"\n"},
		{"wrong color count", "[config]\nname = \"X\"\n[config.icon_sys]\nbackground_colors = [[0,0,0,0]]\n"},
		{"wrong color width", "[config]\nname = \"X\"\n[config.icon_sys]\nbackground_colors = [[0,0],[0,0],[0,0],[0,0]]\n"},
		{"wrong light count", "[config]\nname = \"X\"\n[config.icon_sys]\nlight_directions = [[0.0,0.0,0.0,0.0]]\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			folder := writeProject(t, tc.config, nil)
			if _, err := LoadConfig(folder); err == nil {
				t.Error("LoadConfig() should fail")
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	var configErr *ConfigError
	_, err := LoadConfig(t.TempDir())
	if err == nil {
		t.Fatal("LoadConfig() should fail without a psu.toml")
	}
	if !errors.As(err, &configErr) {
		t.Errorf("LoadConfig() error = %T, want *ConfigError", err)
	}
}

func TestLoadConfigTimestamp(t *testing.T) {
	config := "[config]\nname = \"X\"\ntimestamp = \"2024-01-02 03:04:05\"\n"
	folder := writeProject(t, config, nil)

	loaded, err := LoadConfig(folder)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if loaded.Timestamp == nil {
		t.Fatal("timestamp should be parsed")
	}
	expected := time.Date(2024, time.January, 2, 3, 4, 5, 0, time.Local)
	if !loaded.Timestamp.Equal(expected) {
		t.Errorf("timestamp = %v, want %v", loaded.Timestamp, expected)
	}
}

func TestIconSysConfigModel(t *testing.T) {
	flags := uint16(42)
	config := &IconSysConfig{
		Flags:            &flags,
		Preset:           "save",
		Title:            "MODEL",
		LinebreakPos:     2,
		BackgroundColors: [][]uint8{{1, 2, 3, 4}, {5, 6, 7, 8}, {9, 10, 11, 12}, {13, 14, 15, 16}},
		AmbientColor:     []float32{0.5, 0.5, 0.5, 0},
	}

	sys := config.Model()

	// An explicit flags value beats the preset
	if sys.Flags != 42 {
		t.Errorf("flags = %d, want 42", sys.Flags)
	}
	if sys.Title != "MODEL" || sys.LineBreak != 2 {
		t.Errorf("title/linebreak = %q/%d", sys.Title, sys.LineBreak)
	}
	if sys.BackgroundColors[1] != (pkg.IconSysColor{R: 5, G: 6, B: 7, A: 8}) {
		t.Errorf("background color 1 = %+v", sys.BackgroundColors[1])
	}
	if sys.AmbientColor != (pkg.IconSysVector{0.5, 0.5, 0.5, 0}) {
		t.Errorf("ambient color = %+v", sys.AmbientColor)
	}
	if sys.IconFile != "icon.icn" || sys.DeleteIconFile != "icon.icn" {
		t.Errorf("icon filenames = %q/%q", sys.IconFile, sys.DeleteIconFile)
	}
}
