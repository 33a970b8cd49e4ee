package proxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/thebartekbanach/imgproxy/pkg/catalog"
)

func TestParseImageReference(t *testing.T) {
	tests := []struct {
		file string
		want ImageReference
	}{
		{"Microscopio-Prisma-2003-03-.jpg", ImageReference{"demo", "Microscopio-Prisma-2003-03-", "jpg"}},
		{"archive.tar.gz", ImageReference{"demo", "archive.tar", "gz"}},
		{"no-extension", ImageReference{"demo", "no-extension", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseImageReference("demo", tt.file))
		})
	}
}

func TestImageReference_Location(t *testing.T) {
	tests := []struct {
		name      string
		reference ImageReference
		want      catalog.ImageLocation
		wantErr   error
	}{
		{
			name:      "spaces become separators",
			reference: ImageReference{"demo images product image", "Microscopio-Prisma-2003-03-", "jpg"},
			want:      catalog.ImageLocation{Path: "demo/images/product/image", Filename: "Microscopio-Prisma-2003-03-.jpg"},
		},
		{
			name:      "single segment",
			reference: ImageReference{"brand", "icb-logo", "png"},
			want:      catalog.ImageLocation{Path: "brand", Filename: "icb-logo.png"},
		},
		{
			name:      "unicode letters and parentheses",
			reference: ImageReference{"productos año", "Balanza_(2)", "JPEG"},
			want:      catalog.ImageLocation{Path: "productos/año", Filename: "Balanza_(2).JPEG"},
		},
		{
			name:      "empty segment",
			reference: ImageReference{"demo  images", "a", "jpg"},
			wantErr:   ErrInvalidPathSegment,
		},
		{
			name:      "parent directory",
			reference: ImageReference{"demo ..", "a", "jpg"},
			wantErr:   ErrInvalidPathSegment,
		},
		{
			name:      "dot stem",
			reference: ImageReference{"demo", ".", "jpg"},
			wantErr:   ErrInvalidFileStem,
		},
		{
			name:      "query characters in stem",
			reference: ImageReference{"demo", "a?b=c", "jpg"},
			wantErr:   ErrInvalidFileStem,
		},
		{
			name:      "missing extension",
			reference: ImageReference{"demo", "a", ""},
			wantErr:   ErrInvalidExtension,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			location, err := tt.reference.Location()

			assert.Equal(t, tt.wantErr, err)
			assert.Equal(t, tt.want, location)
		})
	}
}
