package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/muurk/castctl/internal/controller"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if !strings.Contains(configDir, "castctl") {
		t.Errorf("GetConfigDir() = %v, should contain 'castctl'", configDir)
	}

	switch runtime.GOOS {
	case "windows":
		if !strings.Contains(configDir, "AppData") && !strings.Contains(configDir, "Local") {
			t.Errorf("Windows config dir should contain 'AppData' or 'Local', got: %v", configDir)
		}
	case "darwin":
		if !strings.Contains(configDir, ".config") {
			t.Errorf("macOS config dir should contain '.config', got: %v", configDir)
		}
	}
}

func TestGetConfigDir_XDG(t *testing.T) {
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		t.Skip("XDG_CONFIG_HOME only applies on Linux and other Unix systems")
	}
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	got, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if want := filepath.Join("/tmp/xdg", "castctl"); got != want {
		t.Errorf("GetConfigDir() = %q, want %q", got, want)
	}
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if filepath.Base(configPath) != "config.yaml" && os.Getenv(ConfigPathEnv) == "" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}

	t.Setenv(ConfigPathEnv, "/etc/castctl.yaml")
	configPath, err = GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if configPath != "/etc/castctl.yaml" {
		t.Errorf("GetConfigPath() = %q, want the %s override", configPath, ConfigPathEnv)
	}
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	if reg.Version != CurrentVersion {
		t.Errorf("NewRegistry().Version = %v, want %v", reg.Version, CurrentVersion)
	}
	if reg.Devices == nil {
		t.Error("NewRegistry().Devices should not be nil")
	}
	if reg.Preferences == nil {
		t.Fatal("NewRegistry().Preferences should not be nil")
	}
	if !reg.Preferences.SelfSignedAllowed() {
		t.Error("self-signed certificates should be allowed by default")
	}
	if reg.Preferences.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q, want :8080", reg.Preferences.ListenAddr)
	}
}

func TestRegistryEnsureDevice(t *testing.T) {
	reg := NewRegistry()

	device1 := reg.EnsureDevice("kitchen")
	if device1 == nil {
		t.Fatal("EnsureDevice() returned nil")
	}
	if device2 := reg.EnsureDevice("kitchen"); device1 != device2 {
		t.Error("EnsureDevice() should return same instance for same name")
	}
	if device3 := reg.EnsureDevice("office"); device1 == device3 {
		t.Error("EnsureDevice() should create new instance for different name")
	}
}

func TestRegistryAddRemoveDevice(t *testing.T) {
	reg := NewRegistry()

	if err := reg.AddDevice("kitchen", "192.168.1.20", 0, "Kitchen speaker"); err != nil {
		t.Fatalf("AddDevice() error = %v", err)
	}
	if err := reg.AddDevice("office", "192.168.1.21", 8010, ""); err != nil {
		t.Fatalf("AddDevice() error = %v", err)
	}
	if reg.Default != "kitchen" {
		t.Errorf("Default = %q, want the first device added", reg.Default)
	}
	if diff := cmp.Diff([]string{"kitchen", "office"}, reg.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}

	for _, bad := range []struct{ name, host string }{{"", "10.0.0.1"}, {"x", " "}} {
		if err := reg.AddDevice(bad.name, bad.host, 0, ""); err == nil {
			t.Errorf("AddDevice(%q, %q) should fail", bad.name, bad.host)
		}
	}
	if err := reg.AddDevice("x", "10.0.0.1", 70000, ""); err == nil {
		t.Error("AddDevice() with port 70000 should fail")
	}

	if !reg.RemoveDevice("kitchen") {
		t.Error("RemoveDevice(kitchen) = false, want true")
	}
	if reg.Default != "" {
		t.Errorf("Default = %q after removing it, want empty", reg.Default)
	}
	if reg.RemoveDevice("kitchen") {
		t.Error("RemoveDevice() of a missing device should return false")
	}
}

func TestRegistryUpdateDeviceLastSeen(t *testing.T) {
	reg := NewRegistry()
	if err := reg.AddDevice("kitchen", "192.168.1.20", 0, ""); err != nil {
		t.Fatal(err)
	}

	before := time.Now()
	reg.UpdateDeviceLastSeen("kitchen")
	reg.UpdateDeviceLastSeen("unknown")
	after := time.Now()

	device := reg.GetDevice("kitchen")
	if device.LastSeen.Before(before) || device.LastSeen.After(after) {
		t.Errorf("LastSeen = %v, should be between %v and %v", device.LastSeen, before, after)
	}
	if reg.GetDevice("unknown") != nil {
		t.Error("UpdateDeviceLastSeen() should not create devices")
	}
}

func TestRegistryResolve(t *testing.T) {
	reg := NewRegistry()
	_ = reg.AddDevice("kitchen", "192.168.1.20", 0, "")
	_ = reg.AddDevice("office", "office.lan", 8010, "")

	tests := []struct {
		name    string
		arg     string
		want    Target
		wantErr bool
	}{
		{name: "default", arg: "", want: Target{Name: "kitchen", Host: "192.168.1.20", Port: 8009}},
		{name: "saved with port", arg: "office", want: Target{Name: "office", Host: "office.lan", Port: 8010}},
		{name: "literal host", arg: "10.0.0.5", want: Target{Host: "10.0.0.5", Port: 8009}},
		{name: "literal host and port", arg: "10.0.0.5:9000", want: Target{Host: "10.0.0.5", Port: 9000}},
		{name: "ipv6 with port", arg: "[fe80::1]:8009", want: Target{Host: "fe80::1", Port: 8009}},
		{name: "bad port", arg: "10.0.0.5:http", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := reg.Resolve(tt.arg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Resolve(%q) error = %v, wantErr %v", tt.arg, err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Resolve(%q) mismatch (-want +got):\n%s", tt.arg, diff)
			}
		})
	}

	if _, err := NewRegistry().Resolve(""); err == nil {
		t.Error("Resolve(\"\") without a default device should fail")
	}
	if got := (Target{Host: "fe80::1", Port: 8009}).String(); got != "[fe80::1]:8009" {
		t.Errorf("Target.String() = %q", got)
	}
}

func TestPreferencesControllerOptions(t *testing.T) {
	prefs := &Preferences{PingInterval: 2 * time.Second, MaxErrors: 3}
	got := prefs.ControllerOptions(8010)

	want := controller.DefaultOptions()
	want.Port = 8010
	want.PingInterval = 2 * time.Second
	want.MaxErrors = 3
	if diff := cmp.Diff(want, got, cmp.Comparer(func(a, b func() time.Time) bool { return (a == nil) == (b == nil) })); diff != "" {
		t.Errorf("ControllerOptions() mismatch (-want +got):\n%s", diff)
	}

	var nilPrefs *Preferences
	if nilPrefs.ControllerOptions(8009).ResponseWindow != controller.DefaultResponseWindow {
		t.Error("nil preferences should use defaults")
	}
}

func TestPreferencesSelfSigned(t *testing.T) {
	off := false
	prefs := &Preferences{AllowSelfSigned: &off}
	if prefs.SelfSignedAllowed() {
		t.Error("SelfSignedAllowed() = true, want false when disabled")
	}
	opts := prefs.TLSOptions("10.0.0.5")
	if opts.AllowSelfSigned || opts.ServerName != "10.0.0.5" {
		t.Errorf("TLSOptions() = %+v", opts)
	}
	if !(&Preferences{}).SelfSignedAllowed() {
		t.Error("unset allow_self_signed should default to true")
	}
}

func TestRegistrySaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	reg := NewRegistry()
	if err := reg.AddDevice("kitchen", "192.168.1.20", 8009, "Kitchen speaker"); err != nil {
		t.Fatal(err)
	}
	reg.Preferences.PingInterval = 3 * time.Second
	reg.Devices["kitchen"].LastSeen = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := reg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "ping_interval: 3s") {
		t.Errorf("durations should be written as strings:\n%s", data)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should not remain after save")
	}

	loaded, err := LoadRegistryFrom(path)
	if err != nil {
		t.Fatalf("LoadRegistryFrom() error = %v", err)
	}
	if diff := cmp.Diff(reg, loaded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadRegistryFrom(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
		return p
	}

	t.Run("missing file", func(t *testing.T) {
		reg, err := LoadRegistryFrom(filepath.Join(dir, "absent.yaml"))
		if err != nil {
			t.Fatalf("error = %v", err)
		}
		if len(reg.Devices) != 0 || reg.Preferences == nil {
			t.Errorf("missing file should give a default registry, got %+v", reg)
		}
	})

	t.Run("hand written", func(t *testing.T) {
		p := write("hand.yaml", `version: 1
default: kitchen
devices:
  kitchen:
    host: 192.168.1.20
preferences:
  response_window: 750ms
  max_errors: 8
`)
		reg, err := LoadRegistryFrom(p)
		if err != nil {
			t.Fatalf("error = %v", err)
		}
		eff := reg.Preferences.Effective()
		if eff.ResponseWindow != 750*time.Millisecond || eff.MaxErrors != 8 {
			t.Errorf("Effective() = %+v", eff)
		}
		if eff.PingInterval != controller.DefaultPingInterval {
			t.Errorf("PingInterval = %v, want default", eff.PingInterval)
		}
	})

	errorCases := []struct {
		name    string
		content string
	}{
		{name: "bad version", content: "version: 2\n"},
		{name: "bad yaml", content: "version: [\n"},
		{name: "dangling default", content: "version: 1\ndefault: nowhere\n"},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadRegistryFrom(write(tc.name+".yaml", tc.content)); err == nil {
				t.Error("LoadRegistryFrom() should fail")
			}
		})
	}
}

func BenchmarkResolve(b *testing.B) {
	reg := NewRegistry()
	_ = reg.AddDevice("kitchen", "192.168.1.20", 0, "")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = reg.Resolve("kitchen")
	}
}

func TestConfigBase(t *testing.T) {
	t.Setenv("LOCALAPPDATA", `C:\Users\me\AppData\Local`)
	t.Setenv("XDG_CONFIG_HOME", "/xdg")

	tests := []struct {
		goos string
		want string
	}{
		{goos: "windows", want: `C:\Users\me\AppData\Local`},
		{goos: "linux", want: "/xdg"},
		{goos: "freebsd", want: "/xdg"},
	}
	for _, tt := range tests {
		got, err := configBase(tt.goos)
		if err != nil {
			t.Fatalf("configBase(%q) error = %v", tt.goos, err)
		}
		if got != tt.want {
			t.Errorf("configBase(%q) = %q, want %q", tt.goos, got, tt.want)
		}
	}

	got, err := configBase("darwin")
	if err != nil {
		t.Fatalf("configBase(darwin) error = %v", err)
	}
	if filepath.Base(got) != ".config" {
		t.Errorf("configBase(darwin) = %q, should ignore XDG_CONFIG_HOME", got)
	}

	t.Setenv("LOCALAPPDATA", "")
	t.Setenv("USERPROFILE", "")
	if _, err := configBase("windows"); err == nil {
		t.Error("configBase(windows) without profile variables should fail")
	}
}
