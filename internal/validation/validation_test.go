package validation

import "testing"

func TestValidateSlug(t *testing.T) {
	tests := []struct {
		name string
		slug string
		want bool
	}{
		{"simple", "jane", true},
		{"with hyphen", "jane-doe", true},
		{"with digits", "jane-doe-2024", true},
		{"empty string", "", false},
		{"uppercase", "Jane", false},
		{"leading hyphen", "-jane", false},
		{"trailing hyphen", "jane-", false},
		{"double hyphen", "jane--doe", false},
		{"underscore", "jane_doe", false},
		{"path traversal attempt", "../etc", false},
		{"too long", string(make([]byte, 101)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateSlug(tt.slug); got != tt.want {
				t.Errorf("ValidateSlug(%q) = %v, want %v", tt.slug, got, tt.want)
			}
		})
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Jane Doe", "jane-doe"},
		{"  Amara N'Diaye ", "amara-n-diaye"},
		{"Kofi--Mensah!!", "kofi-mensah"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if tt.want != "" && !ValidateSlug(Slugify(tt.in)) {
			t.Errorf("Slugify(%q) produced invalid slug %q", tt.in, Slugify(tt.in))
		}
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		valid   bool
		wantMsg string
	}{
		{"valid https", "https://example.com", true, ""},
		{"valid http", "http://example.com", true, ""},
		{"valid with path", "https://linkedin.com/in/jane", true, ""},
		{"valid with query", "https://example.com?foo=bar", true, ""},
		{"empty string", "", false, "URL is required"},
		{"javascript scheme", "javascript:alert(1)", false, "URL must use http:// or https:// scheme"},
		{"data scheme", "data:text/html,<script>alert(1)</script>", false, "URL must use http:// or https:// scheme"},
		{"no scheme", "linkedin.com/in/jane", false, "URL must use http:// or https:// scheme"},
		{"uppercase scheme", "HTTPS://example.com", true, ""},
		{"scheme only", "https://", false, "URL must have a valid host"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, msg := ValidateURL(tt.url)
			if valid != tt.valid {
				t.Errorf("ValidateURL(%q) valid = %v, want %v", tt.url, valid, tt.valid)
			}
			if !valid && msg != tt.wantMsg {
				t.Errorf("ValidateURL(%q) msg = %q, want %q", tt.url, msg, tt.wantMsg)
			}
		})
	}
}

func TestValidateAvatarURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"absolute https", "https://cdn.example.com/a.png", true},
		{"local upload", "/uploads/avatars/1/2.png", true},
		{"local traversal", "/uploads/../etc/passwd", false},
		{"local with query", "/uploads/a.png?x=1", false},
		{"other relative path", "/static/a.png", false},
		{"javascript scheme", "javascript:alert(1)", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, _ := ValidateAvatarURL(tt.url); got != tt.want {
				t.Errorf("ValidateAvatarURL(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestOptional(t *testing.T) {
	if got := Optional(""); got != nil {
		t.Errorf("Optional(\"\") = %q, want nil", *got)
	}
	if got := Optional("   \t"); got != nil {
		t.Errorf("Optional(whitespace) = %q, want nil", *got)
	}
	got := Optional("  Policy Fellow ")
	if got == nil || *got != "Policy Fellow" {
		t.Errorf("Optional() = %v, want \"Policy Fellow\"", got)
	}
}

func TestLooksLikeEmail(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"jane@example.com", true},
		{" jane@example.com ", true},
		{"jane.example.com", false},
		{"", false},
		{"   ", false},
	}

	for _, tt := range tests {
		if got := LooksLikeEmail(tt.in); got != tt.want {
			t.Errorf("LooksLikeEmail(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidateImage(t *testing.T) {
	const max = 5 * 1024 * 1024

	tests := []struct {
		name        string
		contentType string
		size        int64
		valid       bool
		wantMsg     string
	}{
		{"png within limit", "image/png", 1024, true, ""},
		{"jpeg at limit", "image/jpeg", max, true, ""},
		{"content type params", "image/webp; charset=binary", 10, true, ""},
		{"over limit", "image/png", max + 1, false, "Image must be 5 MB or smaller"},
		{"empty file", "image/png", 0, false, "Image file is empty"},
		{"not an image", "application/pdf", 1024, false, "Image must be a JPEG, PNG, GIF or WebP file"},
		{"svg rejected", "image/svg+xml", 1024, false, "Image must be a JPEG, PNG, GIF or WebP file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, msg := ValidateImage(tt.contentType, tt.size, max)
			if valid != tt.valid {
				t.Errorf("ValidateImage() valid = %v, want %v", valid, tt.valid)
			}
			if !valid && msg != tt.wantMsg {
				t.Errorf("ValidateImage() msg = %q, want %q", msg, tt.wantMsg)
			}
		})
	}
}
