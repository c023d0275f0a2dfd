package pinterest

import "testing"

func TestUpgradeResolution(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"path size token",
			"https://i.pinimg.com/236x236/ab/cd/ef.jpg",
			"https://i.pinimg.com/originals/ab/cd/ef.jpg",
		},
		{
			"trailing size token",
			"https://i.pinimg.com/736x/ab/cd/ef.jpg",
			"https://i.pinimg.com/originals/ab/cd/ef.jpg",
		},
		{
			"suffix size token",
			"https://i.pinimg.com/custom/image_474x474.jpg",
			"https://i.pinimg.com/custom/image_originals.jpg",
		},
		{
			"already originals",
			"https://i.pinimg.com/originals/ab/cd/ef.jpg",
			"https://i.pinimg.com/originals/ab/cd/ef.jpg",
		},
		{
			"non-CDN host untouched",
			"https://example.com/736x/ab/cd/ef.jpg",
			"https://example.com/736x/ab/cd/ef.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UpgradeResolution(tt.in); got != tt.want {
				t.Errorf("UpgradeResolution(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestUpgradeResolutionIdempotent(t *testing.T) {
	in := "https://i.pinimg.com/236x236/ab/cd/ef.jpg"
	once := UpgradeResolution(in)
	twice := UpgradeResolution(once)
	if once != twice {
		t.Errorf("Upgrade not idempotent: %q -> %q", once, twice)
	}
}

func TestMediaExtension(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://i.pinimg.com/originals/ab.jpg", ".jpg"},
		{"https://i.pinimg.com/originals/ab.PNG", ".png"},
		{"https://i.pinimg.com/originals/ab.webp?x=1", ".webp"},
		{"https://i.pinimg.com/originals/ab", ".jpg"},
	}
	for _, tt := range tests {
		if got := MediaExtension(tt.url); got != tt.want {
			t.Errorf("MediaExtension(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestSanitizeUsername(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Jane Doe", "Jane Doe"},
		{"  spaced out  ", "spaced out"},
		{"weird/name:here", "weirdnamehere"},
		{"dots.and?marks!", "dotsandmarks"},
	}
	for _, tt := range tests {
		if got := SanitizeUsername(tt.in); got != tt.want {
			t.Errorf("SanitizeUsername(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
