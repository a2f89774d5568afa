package enum

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/Xuanwo/ast-grep/pkg/lang"
)

// collectFiles runs an enumerator and gathers callback paths. The callback
// runs on parallel readers, so the slice is guarded.
func collectFiles(t *testing.T, e Enumerator) []string {
	t.Helper()

	var mu sync.Mutex
	var found []string
	err := e.Enumerate(context.Background(), func(content []byte, path string) error {
		mu.Lock()
		found = append(found, filepath.Base(path))
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatalf("enumerate failed: %v", err)
	}
	sort.Strings(found)
	return found
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
}

func TestFilesystemEnumerator(t *testing.T) {
	tmpDir := t.TempDir()

	writeTestFile(t, filepath.Join(tmpDir, "file1.js"), "console.log(a)")
	writeTestFile(t, filepath.Join(tmpDir, "file2.js"), "console.log(b)")

	subDir := filepath.Join(tmpDir, "subdir")
	if err := os.Mkdir(subDir, 0755); err != nil {
		t.Fatalf("failed to create subdirectory: %v", err)
	}
	writeTestFile(t, filepath.Join(subDir, "nested.js"), "console.log(c)")

	enumerator := NewFilesystemEnumerator(Config{Root: tmpDir})

	found := collectFiles(t, enumerator)
	if len(found) != 3 {
		t.Errorf("expected 3 files, got %d: %v", len(found), found)
	}
}

func TestFilesystemEnumerator_UnknownExtensionsSkipped(t *testing.T) {
	tmpDir := t.TempDir()

	writeTestFile(t, filepath.Join(tmpDir, "app.js"), "console.log(a)")
	writeTestFile(t, filepath.Join(tmpDir, "notes.txt"), "not source code")
	writeTestFile(t, filepath.Join(tmpDir, "Makefile"), "all:")

	enumerator := NewFilesystemEnumerator(Config{Root: tmpDir})

	found := collectFiles(t, enumerator)
	if len(found) != 1 || found[0] != "app.js" {
		t.Errorf("expected only app.js, got %v", found)
	}
}

func TestFilesystemEnumerator_LanguageFilter(t *testing.T) {
	tmpDir := t.TempDir()

	writeTestFile(t, filepath.Join(tmpDir, "app.js"), "console.log(a)")
	writeTestFile(t, filepath.Join(tmpDir, "main.go"), "package main")
	writeTestFile(t, filepath.Join(tmpDir, "util.py"), "print(1)")

	enumerator := NewFilesystemEnumerator(Config{
		Root:      tmpDir,
		Languages: []lang.Language{lang.Go, lang.Python},
	})

	found := collectFiles(t, enumerator)
	want := []string{"main.go", "util.py"}
	if len(found) != 2 || found[0] != want[0] || found[1] != want[1] {
		t.Errorf("expected %v, got %v", want, found)
	}
}

func TestFilesystemEnumerator_HiddenFiles(t *testing.T) {
	tmpDir := t.TempDir()

	writeTestFile(t, filepath.Join(tmpDir, "visible.js"), "console.log(a)")
	writeTestFile(t, filepath.Join(tmpDir, ".hidden.js"), "console.log(b)")

	enumerator := NewFilesystemEnumerator(Config{Root: tmpDir})
	found := collectFiles(t, enumerator)
	if len(found) != 1 || found[0] != "visible.js" {
		t.Errorf("expected only visible.js, got %v", found)
	}

	enumerator = NewFilesystemEnumerator(Config{Root: tmpDir, IncludeHidden: true})
	found = collectFiles(t, enumerator)
	if len(found) != 2 {
		t.Errorf("expected 2 files with hidden included, got %v", found)
	}
}

func TestFilesystemEnumerator_HiddenDirectorySkipped(t *testing.T) {
	tmpDir := t.TempDir()

	gitDir := filepath.Join(tmpDir, ".git")
	if err := os.Mkdir(gitDir, 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	writeTestFile(t, filepath.Join(gitDir, "config.js"), "console.log(a)")
	writeTestFile(t, filepath.Join(tmpDir, "app.js"), "console.log(b)")

	enumerator := NewFilesystemEnumerator(Config{Root: tmpDir})

	found := collectFiles(t, enumerator)
	if len(found) != 1 || found[0] != "app.js" {
		t.Errorf("expected only app.js, got %v", found)
	}
}

func TestFilesystemEnumerator_MaxFileSize(t *testing.T) {
	tmpDir := t.TempDir()

	writeTestFile(t, filepath.Join(tmpDir, "small.js"), "console.log(a)")
	writeTestFile(t, filepath.Join(tmpDir, "large.js"), string(make([]byte, 2000)))

	enumerator := NewFilesystemEnumerator(Config{Root: tmpDir, MaxFileSize: 1000})

	found := collectFiles(t, enumerator)
	if len(found) != 1 || found[0] != "small.js" {
		t.Errorf("expected only small.js, got %v", found)
	}
}

func TestFilesystemEnumerator_BinaryFilesSkipped(t *testing.T) {
	tmpDir := t.TempDir()

	writeTestFile(t, filepath.Join(tmpDir, "text.js"), "console.log(a)")
	if err := os.WriteFile(filepath.Join(tmpDir, "minified.js"), []byte{0x00, 0x01, 0x02, 0x03}, 0644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	enumerator := NewFilesystemEnumerator(Config{Root: tmpDir})

	found := collectFiles(t, enumerator)
	if len(found) != 1 || found[0] != "text.js" {
		t.Errorf("expected only text.js, got %v", found)
	}
}

func TestFilesystemEnumerator_Gitignore(t *testing.T) {
	tmpDir := t.TempDir()

	writeTestFile(t, filepath.Join(tmpDir, ".gitignore"), "ignored.js\nbuild/\n")
	writeTestFile(t, filepath.Join(tmpDir, "included.js"), "console.log(a)")
	writeTestFile(t, filepath.Join(tmpDir, "ignored.js"), "console.log(b)")

	buildDir := filepath.Join(tmpDir, "build")
	if err := os.Mkdir(buildDir, 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	writeTestFile(t, filepath.Join(buildDir, "out.js"), "console.log(c)")

	enumerator := NewFilesystemEnumerator(Config{Root: tmpDir})

	found := collectFiles(t, enumerator)
	if len(found) != 1 || found[0] != "included.js" {
		t.Errorf("expected only included.js, got %v", found)
	}
}

func TestFilesystemEnumerator_SingleFileRoot(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "app.js")
	writeTestFile(t, target, "console.log(a)")

	enumerator := NewFilesystemEnumerator(Config{Root: target})

	var got string
	err := enumerator.Enumerate(context.Background(), func(content []byte, path string) error {
		got = path
		if string(content) != "console.log(a)" {
			t.Errorf("unexpected content: %q", content)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("enumerate failed: %v", err)
	}
	if got != target {
		t.Errorf("expected %s, got %s", target, got)
	}
}

func TestFilesystemEnumerator_SingleFileUnknownExtension(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "notes.txt")
	writeTestFile(t, target, "plain text")

	enumerator := NewFilesystemEnumerator(Config{Root: target})

	count := 0
	err := enumerator.Enumerate(context.Background(), func(content []byte, path string) error {
		count++
		return nil
	})
	if err != nil {
		t.Fatalf("enumerate failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no callbacks for an unsearchable file, got %d", count)
	}
}

func TestFilesystemEnumerator_MissingRoot(t *testing.T) {
	enumerator := NewFilesystemEnumerator(Config{Root: filepath.Join(t.TempDir(), "absent")})

	err := enumerator.Enumerate(context.Background(), func(content []byte, path string) error {
		return nil
	})
	if err == nil {
		t.Fatal("expected an error for a missing root")
	}
}

func TestFilesystemEnumerator_CurrentDirectory(t *testing.T) {
	// Regression test: scanning "." should not skip the entire directory
	// because "." starts with a dot (isHidden should not treat it as hidden)
	tmpDir := t.TempDir()
	writeTestFile(t, filepath.Join(tmpDir, "app.js"), "console.log(a)")

	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get current directory: %v", err)
	}
	defer os.Chdir(originalDir)

	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("failed to change to temp directory: %v", err)
	}

	enumerator := NewFilesystemEnumerator(Config{Root: "."})

	found := collectFiles(t, enumerator)
	if len(found) != 1 || found[0] != "app.js" {
		t.Errorf("expected app.js when scanning '.', got %v", found)
	}
}

func TestIsHidden(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     bool
	}{
		{"current dir", ".", false},
		{"parent dir", "..", false},
		{"hidden file", ".hidden", true},
		{"hidden directory", ".git", true},
		{"normal file", "file.js", false},
		{"normal directory", "src", false},
		{"dotfile", ".gitignore", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isHidden(tt.filename); got != tt.want {
				t.Errorf("isHidden(%q) = %v, want %v", tt.filename, got, tt.want)
			}
		})
	}
}

func TestFilesystemEnumerator_ContextCancellation(t *testing.T) {
	tmpDir := t.TempDir()

	for i := 0; i < 10; i++ {
		writeTestFile(t, filepath.Join(tmpDir, string(rune('a'+i))+".js"), "console.log(a)")
	}

	enumerator := NewFilesystemEnumerator(Config{Root: tmpDir})

	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	count := 0
	err := enumerator.Enumerate(ctx, func(content []byte, path string) error {
		mu.Lock()
		count++
		if count == 3 {
			cancel()
		}
		mu.Unlock()
		return nil
	})

	if err != context.Canceled {
		t.Errorf("expected context.Canceled error, got %v", err)
	}
}
