package remotefs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Location
	}{
		{"SMBURL", "smb://fileserver/media/movies/", Location{"smb", "fileserver", "/media/movies/"}},
		{"SMBFile", "smb://fileserver/media/a.mkv", Location{"smb", "fileserver", "/media/a.mkv"}},
		{"UNC", `\\fileserver\media\movies`, Location{"smb", "fileserver", "/media/movies"}},
		{"UNCTrailing", `\\fileserver\media\`, Location{"smb", "fileserver", "/media/"}},
		{"NetworkPath", "//fileserver/media", Location{"smb", "fileserver", "/media"}},
		{"ServerRoot", "smb://fileserver", Location{"smb", "fileserver", "/"}},
		{"ServerRootSlash", "smb://fileserver/", Location{"smb", "fileserver", "/"}},
		{"S3", "s3://bucket/videos/clip.mp4", Location{"s3", "bucket", "/videos/clip.mp4"}},
		{"Local", "local://public/docs/", Location{"local", "public", "/docs/"}},
		{"UppercaseScheme", "SMB://host/share", Location{"smb", "host", "/share"}},
		{"DotSegments", "smb://host/share/a/../b/./c", Location{"smb", "host", "/share/b/c"}},
		{"EscapeAboveRoot", "smb://host/../../etc", Location{"smb", "host", "/etc"}},
		{"Whitespace", "  smb://host/share  ", Location{"smb", "host", "/share"}},
		{"EscapedSpace", "smb://host/My%20Share/", Location{"smb", "host", "/My Share/"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := ParseLocation(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, loc)
		})
	}
}

func TestParseLocation_Invalid(t *testing.T) {
	for _, raw := range []string{"", "   ", "fileserver/media", "http://host/x", "smb:///share", "smb://host/%zz"} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseLocation(raw)
			require.Error(t, err)
			assert.Equal(t, ErrCodeInvalidLocation, CodeOf(err))
			assert.ErrorIs(t, err, ErrInvalidLocation)
		})
	}
}

func TestLocation_Helpers(t *testing.T) {
	loc := Location{Scheme: "smb", Host: "host", Path: "/share/dir"}

	assert.Equal(t, "smb://host/share/dir", loc.String())
	assert.False(t, loc.IsDirPath())
	assert.False(t, loc.IsRoot())
	assert.Equal(t, "/share/dir/", loc.AsDir().Path)
	assert.Equal(t, "/share/dir/", loc.AsDir().AsDir().Path)
	assert.Equal(t, []string{"share", "dir"}, loc.Segments())
	assert.Equal(t, "dir", loc.Base())

	assert.Equal(t, "/share/dir/a.txt", loc.Child("a.txt", false).Path)
	assert.Equal(t, "/share/dir/sub/", loc.Child("sub", true).Path)

	spaced := Location{Scheme: "smb", Host: "host", Path: "/My Share/100%?.txt"}
	assert.Equal(t, "smb://host/My%20Share/100%25%3F.txt", spaced.String())
	back, err := ParseLocation(spaced.String())
	require.NoError(t, err)
	assert.Equal(t, spaced, back)

	root := Location{Scheme: "smb", Host: "host", Path: "/"}
	assert.True(t, root.IsRoot())
	assert.Nil(t, root.Segments())
	assert.Equal(t, "host", root.Base())
}

func TestEscapePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"abcXYZ019", "abcXYZ019"},
		{"smb://host/share", "smb%3A//host/share"},
		{"a b.txt", "a%20b.txt"},
		{"a+b", "a%2Bb"},
		{"100%", "100%25"},
		{"naïve.pdf", "na%C3%AFve.pdf"},
		{"x-y_z~", "x%2Dy%5Fz%7E"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EscapePath(tt.in), tt.in)
	}
}
