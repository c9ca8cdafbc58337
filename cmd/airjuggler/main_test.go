package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBrowserURL(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{addr: ":8080", want: "http://localhost:8080"},
		{addr: "127.0.0.1:9000", want: "http://127.0.0.1:9000"},
	}

	for _, tt := range tests {
		if got := browserURL(tt.addr); got != tt.want {
			t.Errorf("browserURL(%q) = %q, want %q", tt.addr, got, tt.want)
		}
	}
}

func TestFindWebDir(t *testing.T) {
	work := t.TempDir()
	data := t.TempDir()

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
	if err := os.Chdir(work); err != nil {
		t.Fatal(err)
	}

	if got := findWebDir(data); got != "" {
		t.Errorf("findWebDir() = %q, want empty", got)
	}

	dataWeb := filepath.Join(data, "web")
	if err := os.Mkdir(dataWeb, 0755); err != nil {
		t.Fatal(err)
	}
	if got := findWebDir(data); got != dataWeb {
		t.Errorf("findWebDir() = %q, want %q", got, dataWeb)
	}

	if err := os.Mkdir(filepath.Join(work, "web"), 0755); err != nil {
		t.Fatal(err)
	}
	got := findWebDir(data)
	if filepath.Base(got) != "web" || got == dataWeb {
		t.Errorf("findWebDir() = %q, want the working directory's web", got)
	}
}
