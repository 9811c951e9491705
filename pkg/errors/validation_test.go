package errors

import (
	"testing"
)

func TestValidatePackageName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "musl", false},
		{"valid with dash", "py3-requests", false},
		{"valid with plus", "g++", false},
		{"valid with dot", "perl-io-socket-ssl1.2", false},
		{"valid with underscore", "font_misc", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 300)), true},
		{"path traversal", "..", true},
		{"slash", "main/musl", true},
		{"null byte", "foo\x00bar", true},
		{"backslash", "foo\\bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePackageName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePackageName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPackage) {
				t.Errorf("ValidatePackageName(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestValidateRepoName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"main", "main", false},
		{"custom", "my-overlay", false},

		{"empty", "", true},
		{"dot", ".", true},
		{"parent", "..", true},
		{"nested", "main/sub", true},
		{"space", "my repo", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRepoName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRepoName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeInvalidInput,
		ErrCodeInvalidPackage,
		ErrCodeInvalidKind,
		ErrCodeInvalidFormat,
		ErrCodeInvalidPath,
		ErrCodeNotFound,
		ErrCodePackageNotFound,
		ErrCodeFileNotFound,
		ErrCodeNotAPackage,
		ErrCodeStore,
		ErrCodeCache,
		ErrCodeNetwork,
		ErrCodeTimeout,
		ErrCodeInternal,
		ErrCodeUnsupported,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}
