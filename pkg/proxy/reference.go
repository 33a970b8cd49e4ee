package proxy

import (
	"errors"
	"regexp"
	"strings"

	"github.com/thebartekbanach/imgproxy/pkg/catalog"
)

var (
	segmentPattern   = regexp.MustCompile(`^[\p{L}\p{N}._()-]+$`)
	extensionPattern = regexp.MustCompile(`^[A-Za-z0-9]{1,8}$`)
)

// ImageReference names an origin object by path parameters. Spaces in
// PathSegments separate directories.
type ImageReference struct {
	PathSegments string
	FileStem     string
	Extension    string
}

// ParseImageReference splits file at its last dot into stem and extension.
func ParseImageReference(pathSegments, file string) ImageReference {
	reference := ImageReference{PathSegments: pathSegments, FileStem: file}

	if dot := strings.LastIndex(file, "."); dot >= 0 {
		reference.FileStem = file[:dot]
		reference.Extension = file[dot+1:]
	}

	return reference
}

// Location validates the reference and turns it into an origin location.
func (ref ImageReference) Location() (catalog.ImageLocation, error) {
	segments := strings.Split(ref.PathSegments, " ")
	for _, segment := range segments {
		if !isValidSegment(segment) {
			return catalog.ImageLocation{}, ErrInvalidPathSegment
		}
	}

	if !isValidSegment(ref.FileStem) {
		return catalog.ImageLocation{}, ErrInvalidFileStem
	}

	if !extensionPattern.MatchString(ref.Extension) {
		return catalog.ImageLocation{}, ErrInvalidExtension
	}

	return catalog.ImageLocation{
		Path:     strings.Join(segments, "/"),
		Filename: ref.FileStem + "." + ref.Extension,
	}, nil
}

func isValidSegment(segment string) bool {
	if segment == "." || segment == ".." {
		return false
	}

	return segmentPattern.MatchString(segment)
}

var (
	ErrInvalidPathSegment = errors.New("path segments must be non-empty names without separators")
	ErrInvalidFileStem    = errors.New("image name contains forbidden characters")
	ErrInvalidExtension   = errors.New("image type must be 1 to 8 letters or digits")
)
